package fragment

import (
	"context"
	"log/slog"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/avikon/lessonview/internal/logging"
	"github.com/avikon/lessonview/internal/models"
)

var (
	exprEditorCopy = xpath.MustCompile(`//*[@data-editor-copy]`)
	exprCodeBlocks = xpath.MustCompile(`//pre[code]`)
	exprAnchors    = xpath.MustCompile(`//a[@href]`)
	exprQuizzes    = xpath.MustCompile(`//div[contains(concat(' ', normalize-space(@class), ' '), ' quiz ')]`)
	exprMedia      = xpath.MustCompile(`//audio | //video`)
)

// Processor rewrites fetched documents into display-ready fragments.
// It holds no mutable state, so one processor may split documents from
// multiple goroutines.
type Processor struct {
	engine string // host rendering engine hint, e.g. "chromium"
	log    *slog.Logger
}

// NewProcessor creates a processor for the given host rendering engine.
func NewProcessor(engine string) *Processor {
	return &Processor{
		engine: strings.ToLower(engine),
		log:    logging.Component("fragment"),
	}
}

// Split partitions a fetched chapter document into per-location
// fragments and post-processes each. A location with fewer than three
// components keeps the whole document under its own key. A section
// location splits the chapter: introductory material plus the first
// labeled sub-section go under section 0, each later sub-section under
// its document-order index. One section request therefore warms the
// cache for the entire chapter.
func (p *Processor) Split(doc *xmlquery.Node, loc models.Location, chapterURL string, nav Navigator) map[string]*Fragment {
	body := xmlquery.FindOne(doc, "//body")
	if body == nil {
		body = doc
	}

	out := make(map[string]*Fragment)
	if len(loc) < 3 {
		out[loc.Key()] = p.process(childNodes(body), chapterURL, nav)
		return out
	}

	chapterLoc := loc[:2]
	for k, nodes := range splitSections(body) {
		out[chapterLoc.Child(k).Key()] = p.process(nodes, chapterURL, nav)
	}
	return out
}

// splitSections buckets the body's top-level nodes by labeled
// sub-section headings. Bucket 0 runs up to the second heading.
func splitSections(body *xmlquery.Node) [][]*xmlquery.Node {
	buckets := [][]*xmlquery.Node{nil}
	headings := 0
	for _, n := range childNodes(body) {
		if isElement(n, "h2") {
			headings++
			if headings >= 2 {
				buckets = append(buckets, nil)
			}
		}
		buckets[len(buckets)-1] = append(buckets[len(buckets)-1], n)
	}
	return buckets
}

// process runs the post-processing steps in order. Order matters:
// snippet capture must precede highlighting, and link/quiz wiring
// assume the reparented tree.
func (p *Processor) process(nodes []*xmlquery.Node, chapterURL string, nav Navigator) *Fragment {
	frag := newFragment()
	for _, n := range nodes {
		detach(n)
		appendChild(frag.Container, n)
	}

	p.runStep("editor-snippets", func() { p.bindEditorSnippets(frag, nav) })
	p.runStep("highlight", func() { p.highlightCode(frag) })
	p.runStep("links", func() { p.rebindLinks(frag, chapterURL, nav) })
	p.runStep("quizzes", func() { p.wireQuizzes(frag) })
	p.runStep("media", func() { p.fixMediaElements(frag) })
	return frag
}

// runStep isolates a post-processing step; a failure must not leave the
// rest of the fragment unusable.
func (p *Processor) runStep(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("post-processing step failed", "step", name, "panic", r)
		}
	}()
	fn()
}

// bindEditorSnippets wires copy-to-editor controls. The snippet text is
// captured now, before highlighting rewrites the code block.
func (p *Processor) bindEditorSnippets(frag *Fragment, nav Navigator) {
	for _, control := range xmlquery.QuerySelectorAll(frag.Container, exprEditorCopy) {
		pre := followingElement(control, "pre")
		if pre == nil {
			p.log.Warn("copy-to-editor control without adjacent code block")
			continue
		}
		code := pre.InnerText()
		frag.bind(control, func(ctx context.Context) error {
			nav.ImportToEditor(code)
			return nil
		})
	}
}

func followingElement(n *xmlquery.Node, tag string) *xmlquery.Node {
	for sib := n.NextSibling; sib != nil; sib = sib.NextSibling {
		if isElement(sib, tag) {
			return sib
		}
	}
	return nil
}

// highlightCode renders each code block twice, styled for light and dark
// backgrounds; the host's active theme shows exactly one of the pair.
func (p *Processor) highlightCode(frag *Fragment) {
	for _, pre := range xmlquery.QuerySelectorAll(frag.Container, exprCodeBlocks) {
		dark := cloneNode(pre)
		addClass(pre, "code-block")
		addClass(pre, "theme-light")
		addClass(dark, "code-block")
		addClass(dark, "theme-dark")
		insertAfter(pre, dark)
	}
}

// rebindLinks rewires anchors: in-page fragments re-fetch relative to
// the current chapter, cross-document internal links fetch their literal
// target, and the reference sentinel opens the reference index.
func (p *Processor) rebindLinks(frag *Fragment, chapterURL string, nav Navigator) {
	chapterBase := chapterURL
	if i := strings.Index(chapterBase, "#"); i >= 0 {
		chapterBase = chapterBase[:i]
	}

	for _, a := range xmlquery.QuerySelectorAll(frag.Container, exprAnchors) {
		href := attrValue(a, "href")
		switch {
		case href == ReferenceLinkTarget:
			frag.bind(a, func(ctx context.Context) error {
				nav.OpenReferenceIndex()
				return nil
			})
		case hasAttr(a, "data-internal"):
			target := href
			frag.bind(a, func(ctx context.Context) error {
				return nav.FetchContent(ctx, target)
			})
		case strings.HasPrefix(href, "#"):
			target := chapterBase + href
			frag.bind(a, func(ctx context.Context) error {
				return nav.FetchContent(ctx, target)
			})
		}
	}
}

// wireQuizzes synthesizes answer controls for each quiz block.
func (p *Processor) wireQuizzes(frag *Fragment) {
	for _, block := range xmlquery.QuerySelectorAll(frag.Container, exprQuizzes) {
		quiz, err := p.wireQuiz(block)
		if err != nil {
			p.log.Warn("skipping quiz block", "error", err)
			continue
		}
		for _, control := range quiz.controls {
			control := control
			frag.bind(control, func(ctx context.Context) error {
				quiz.Select(control)
				return nil
			})
		}
		frag.quizzes = append(frag.quizzes, quiz)
	}
}

// fixMediaElements replaces adopted media-playback elements with fresh
// clones on non-Chromium engines, where moving such elements between
// documents drops their native controls.
func (p *Processor) fixMediaElements(frag *Fragment) {
	if strings.Contains(p.engine, "chromium") {
		return
	}
	for _, media := range xmlquery.QuerySelectorAll(frag.Container, exprMedia) {
		replaceNode(media, cloneNode(media))
	}
}
