// Package fragment post-processes fetched lesson documents: it reparents
// content into a host container, captures copy-to-editor snippets, emits
// dual-theme code blocks, rebinds internal links, wires quiz blocks and
// corrects rendering-engine quirks. Fragments are xmlquery node trees;
// interactive elements carry activation handlers standing in for DOM
// event bindings.
package fragment

import (
	"context"

	"github.com/antchfx/xmlquery"
)

// ReferenceLinkTarget is the sentinel href meaning "open the reference
// index" instead of navigating.
const ReferenceLinkTarget = "lang-reference"

// Navigator is the post-processor's view of the engine: link and snippet
// handlers call back into it.
type Navigator interface {
	// FetchContent navigates to a document URL.
	FetchContent(ctx context.Context, url string) error
	// OpenReferenceIndex asks the host to show the reference index.
	OpenReferenceIndex()
	// ImportToEditor hands source text to the host's editor component.
	ImportToEditor(code string)
}

// Handler runs when an interactive element is activated.
type Handler func(ctx context.Context) error

// Fragment is a processed piece of lesson content, ready for display
// and caching. It owns its node tree exclusively.
type Fragment struct {
	Container *xmlquery.Node
	handlers  map[*xmlquery.Node]Handler
	quizzes   []*Quiz
}

func newFragment() *Fragment {
	container := newElement("div")
	setAttr(container, "class", "lesson-content")
	return &Fragment{
		Container: container,
		handlers:  make(map[*xmlquery.Node]Handler),
	}
}

func (f *Fragment) bind(n *xmlquery.Node, h Handler) {
	f.handlers[n] = h
}

// Interactive reports whether a node has an activation handler.
func (f *Fragment) Interactive(n *xmlquery.Node) bool {
	_, ok := f.handlers[n]
	return ok
}

// Activate runs the handler bound to a node. Activating a node without
// a handler is a no-op.
func (f *Fragment) Activate(ctx context.Context, n *xmlquery.Node) error {
	h, ok := f.handlers[n]
	if !ok {
		return nil
	}
	return h(ctx)
}

// Quizzes returns the quiz blocks wired in this fragment.
func (f *Fragment) Quizzes() []*Quiz {
	return f.quizzes
}

// HTML serializes the fragment's container subtree.
func (f *Fragment) HTML() string {
	return f.Container.OutputXML(true)
}
