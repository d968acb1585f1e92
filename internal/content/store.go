// Package content implements the fetch-and-split cache: it retrieves
// raw markdown documents, renders and partitions them into per-section
// fragments, and serves repeat requests from an in-memory cache keyed
// by serialized location.
package content

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/antchfx/xmlquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"github.com/avikon/lessonview/internal/fragment"
	"github.com/avikon/lessonview/internal/logging"
	"github.com/avikon/lessonview/internal/resolver"
)

// Store caches processed fragments for the lifetime of a loaded locale.
// Entries are added only by successful fetch and split, never evicted;
// a locale switch clears the whole cache. Presence of a key implies the
// fragment has already been post-processed.
type Store struct {
	mu      sync.Mutex
	cache   map[string]*fragment.Fragment
	fetcher Fetcher
	proc    *fragment.Processor
	md      goldmark.Markdown
	log     *slog.Logger
}

// NewStore creates an empty store.
func NewStore(fetcher Fetcher, proc *fragment.Processor) *Store {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			ghtml.WithXHTML(),
			ghtml.WithUnsafe(),
		),
	)
	return &Store{
		cache:   make(map[string]*fragment.Fragment),
		fetcher: fetcher,
		proc:    proc,
		md:      md,
		log:     logging.Component("content"),
	}
}

// Reset clears the cache. Called on locale change; any fetch completing
// afterwards writes into the fresh cache, which is harmless.
func (s *Store) Reset() {
	s.mu.Lock()
	s.cache = make(map[string]*fragment.Fragment)
	s.mu.Unlock()
}

// Cached returns the fragment stored under a location key.
func (s *Store) Cached(key string) (*fragment.Fragment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.cache[key]
	return f, ok
}

// Len returns the number of cached fragments.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

// FetchResolved returns the fragment for an already-resolved address,
// fetching and splitting the underlying document on a cache miss. A
// section request fetches the whole chapter and warms the cache for
// every section in one round trip. Concurrent misses for the same key
// are not coalesced; both fetch and the last write wins.
func (s *Store) FetchResolved(ctx context.Context, res resolver.Resolution, nav fragment.Navigator) (*fragment.Fragment, error) {
	key := res.Location.Key()

	s.mu.Lock()
	if f, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return f, nil
	}
	s.mu.Unlock()

	base, _ := resolver.SplitAnchor(res.URL)
	raw, err := s.fetcher.Fetch(ctx, base)
	if err != nil {
		s.log.Warn("document fetch failed", "url", base, "location", key, "error", err)
		return nil, err
	}

	doc, err := s.parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing document %q: %w", base, err)
	}

	frags := s.proc.Split(doc, res.Location, base, nav)

	s.mu.Lock()
	for k, f := range frags {
		s.cache[k] = f
	}
	out, ok := s.cache[key]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("document %q has no content for location %s", base, key)
	}
	return out, nil
}

// parse renders markdown to XHTML and parses it into a node tree.
func (s *Store) parse(raw string) (*xmlquery.Node, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(raw), &buf); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	wrapped := "<body>" + buf.String() + "</body>"
	return xmlquery.Parse(strings.NewReader(wrapped))
}
