package fragment

import (
	"encoding/xml"
	"strings"

	"github.com/antchfx/xmlquery"
)

func newElement(tag string) *xmlquery.Node {
	return &xmlquery.Node{Type: xmlquery.ElementNode, Data: tag}
}

func attrValue(n *xmlquery.Node, name string) string {
	for _, a := range n.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func hasAttr(n *xmlquery.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Name.Local == name {
			return true
		}
	}
	return false
}

func setAttr(n *xmlquery.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Name.Local == name {
			n.Attr[i].Value = value
			return
		}
	}
	n.Attr = append(n.Attr, xmlquery.Attr{Name: xml.Name{Local: name}, Value: value})
}

func classList(n *xmlquery.Node) []string {
	return strings.Fields(attrValue(n, "class"))
}

func hasClass(n *xmlquery.Node, class string) bool {
	for _, c := range classList(n) {
		if c == class {
			return true
		}
	}
	return false
}

func addClass(n *xmlquery.Node, class string) {
	if hasClass(n, class) {
		return
	}
	classes := append(classList(n), class)
	setAttr(n, "class", strings.Join(classes, " "))
}

func removeClass(n *xmlquery.Node, class string) {
	var kept []string
	for _, c := range classList(n) {
		if c != class {
			kept = append(kept, c)
		}
	}
	setAttr(n, "class", strings.Join(kept, " "))
}

// detach unlinks a node from its parent and siblings.
func detach(n *xmlquery.Node) {
	if n.Parent != nil {
		if n.Parent.FirstChild == n {
			n.Parent.FirstChild = n.NextSibling
		}
		if n.Parent.LastChild == n {
			n.Parent.LastChild = n.PrevSibling
		}
	}
	if n.PrevSibling != nil {
		n.PrevSibling.NextSibling = n.NextSibling
	}
	if n.NextSibling != nil {
		n.NextSibling.PrevSibling = n.PrevSibling
	}
	n.Parent = nil
	n.PrevSibling = nil
	n.NextSibling = nil
}

func appendChild(parent, n *xmlquery.Node) {
	n.Parent = parent
	n.PrevSibling = parent.LastChild
	n.NextSibling = nil
	if parent.LastChild != nil {
		parent.LastChild.NextSibling = n
	} else {
		parent.FirstChild = n
	}
	parent.LastChild = n
}

func insertAfter(ref, n *xmlquery.Node) {
	n.Parent = ref.Parent
	n.PrevSibling = ref
	n.NextSibling = ref.NextSibling
	if ref.NextSibling != nil {
		ref.NextSibling.PrevSibling = n
	} else if ref.Parent != nil {
		ref.Parent.LastChild = n
	}
	ref.NextSibling = n
}

func replaceNode(old, repl *xmlquery.Node) {
	insertAfter(old, repl)
	detach(old)
}

// cloneNode deep-copies a node subtree.
func cloneNode(n *xmlquery.Node) *xmlquery.Node {
	c := &xmlquery.Node{
		Type:         n.Type,
		Data:         n.Data,
		Prefix:       n.Prefix,
		NamespaceURI: n.NamespaceURI,
	}
	c.Attr = append([]xmlquery.Attr(nil), n.Attr...)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		appendChild(c, cloneNode(child))
	}
	return c
}

// childNodes snapshots a node's children so callers can move them
// without invalidating the iteration.
func childNodes(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		out = append(out, child)
	}
	return out
}

func isElement(n *xmlquery.Node, tag string) bool {
	return n.Type == xmlquery.ElementNode && n.Data == tag
}

// innerXML serializes a node's children, preserving markup.
func innerXML(n *xmlquery.Node) string {
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		sb.WriteString(child.OutputXML(true))
	}
	return sb.String()
}
