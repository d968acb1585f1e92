// Package testutil provides canned locale fixtures and a mock fetcher
// for exercising the engine without a network.
package testutil

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// MockFetcher serves canned responses keyed by document URL and counts
// fetches per URL.
type MockFetcher struct {
	mu        sync.Mutex
	Responses map[string]string
	calls     map[string]int
}

// NewMockFetcher creates a fetcher over a fixed response table.
func NewMockFetcher(responses map[string]string) *MockFetcher {
	return &MockFetcher{
		Responses: responses,
		calls:     make(map[string]int),
	}
}

// Fetch returns the canned response for a URL, or an error if none
// exists.
func (m *MockFetcher) Fetch(_ context.Context, docURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[docURL]++
	body, ok := m.Responses[docURL]
	if !ok {
		return "", fmt.Errorf("no fixture for %q", docURL)
	}
	return body, nil
}

// Calls returns how many times a URL was fetched.
func (m *MockFetcher) Calls(docURL string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[docURL]
}

// TotalCalls returns the total number of fetches.
func (m *MockFetcher) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// SampleLocaleTOC is the fixture table of contents: a chapterless
// welcome unit, a unit with a sectioned chapter and a sectionless
// chapter, and a reference unit.
const SampleLocaleTOC = `{
  "units": [
    {"url": "welcome.html", "title": "Welcome"},
    {
      "url": "unit1.html",
      "title": "Making Sounds",
      "chapters": [
        {
          "url": "unit1/beeps.html",
          "title": "First Beeps",
          "number": 1,
          "sections": [
            {"url": "unit1/beeps.html#your-first-beep", "title": "Your First Beep"},
            {"url": "unit1/beeps.html#changing-notes", "title": "Changing Notes"},
            {"url": "unit1/beeps.html#chords", "title": "Chords"}
          ]
        },
        {"url": "unit1/silence.html", "title": "Rests and Silence", "number": 2}
      ]
    },
    {
      "url": "reference.html",
      "title": "Reference",
      "chapters": [
        {"url": "reference/synths.html", "title": "Synths"}
      ]
    }
  ]
}`

// SampleLocaleSearch is the fixture search corpus.
const SampleLocaleSearch = `[
  {"id": "unit1/beeps.html", "title": "First Beeps", "breadcrumbs": "Making Sounds", "body": "Play your first beep and change its note."},
  {"id": "unit1/silence.html", "title": "Rests and Silence", "breadcrumbs": "Making Sounds", "body": "Silence shapes rhythm as much as sound."},
  {"id": "reference/synths.html", "title": "Synths", "breadcrumbs": "Reference", "body": "Every synth has its own timbre."}
]`

// SampleBeepsChapter is the markdown for the sectioned fixture chapter.
// Three h2 headings, matching the TOC's section anchors.
const SampleBeepsChapter = `# First Beeps

Welcome to your first sounds.

## Your First Beep

<div data-editor-copy="1">Copy</div>

` + "```\nplay 60\n```" + `

See [the end of this chapter](#chords) or <a href="unit1/silence.html" data-internal="1">rests</a>.

## Changing Notes

Try a [synth from the reference](lang-reference).

<div class="quiz">
<p>Which call makes a sound?</p>
<ol>
<li>play 60</li>
<li>sleep 1</li>
<li>comment</li>
</ol>
</div>

## Chords

<audio src="chord.ogg"></audio>
`

// SampleLocale returns the full fixture response table for locale
// "en": TOC, search corpus and every document the TOC references.
func SampleLocale() map[string]string {
	return map[string]string{
		"en/toc.json":    SampleLocaleTOC,
		"en/search.json": SampleLocaleSearch,
		"welcome.html":   "# Welcome\n\nPick a unit to begin.\n",
		"unit1.html":     "# Making Sounds\n\nThis unit covers basic playback.\n",
		"unit1/beeps.html":      SampleBeepsChapter,
		"unit1/silence.html":    "# Rests and Silence\n\nUse sleep to rest.\n",
		"reference.html":        "# Reference\n\nLanguage reference material.\n",
		"reference/synths.html": "# Synths\n\nAll available synths.\n",
	}
}

// NormalizeHTML collapses whitespace for markup comparisons.
func NormalizeHTML(html string) string {
	html = regexp.MustCompile(`\s+`).ReplaceAllString(html, " ")
	html = regexp.MustCompile(`>\s+<`).ReplaceAllString(html, "><")
	return strings.TrimSpace(html)
}
