// Package engine is the host-facing facade of the curriculum
// addressing and content-delivery engine. It owns the loaded catalog,
// the resolver maps, the content cache and the search index, rebuilding
// all of them whenever a locale loads.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/avikon/lessonview/internal/catalog"
	"github.com/avikon/lessonview/internal/config"
	"github.com/avikon/lessonview/internal/content"
	"github.com/avikon/lessonview/internal/fragment"
	"github.com/avikon/lessonview/internal/logging"
	"github.com/avikon/lessonview/internal/models"
	"github.com/avikon/lessonview/internal/resolver"
	"github.com/avikon/lessonview/internal/search"
)

// ErrNoLocale is returned for operations that need a loaded locale.
var ErrNoLocale = errors.New("no locale loaded")

// Hooks are the engine's outbound signals to the host. All fields are
// optional; nil hooks are skipped.
type Hooks struct {
	// ImportToEditor receives source text from copy-to-editor controls.
	ImportToEditor func(code string)
	// RedirectNeeded fires when an unresolvable address fell back to
	// the default page; the argument is the URL actually shown.
	RedirectNeeded func(url string)
	// OpenReferenceIndex fires when a reference-index link is activated.
	OpenReferenceIndex func()
	// CloseOverlay fires on every navigation, asking the host to close
	// any open navigation overlay.
	CloseOverlay func()
}

// Engine ties the catalog, resolver, content cache and search index
// together behind the navigation API.
type Engine struct {
	cfg    *config.Config
	loader *catalog.Loader
	store  *content.Store
	hooks  Hooks
	log    *slog.Logger

	mu      sync.Mutex
	cat     *catalog.Catalog
	res     *resolver.Resolver
	index   *search.Index
	current models.Location
}

// New creates an engine. The fetcher retrieves locale resources and
// documents; hooks connect the engine to the host UI and editor.
func New(cfg *config.Config, fetcher content.Fetcher, hooks Hooks) *Engine {
	proc := fragment.NewProcessor(cfg.Viewer.Engine)
	return &Engine{
		cfg:    cfg,
		loader: catalog.NewLoader(fetcher),
		store:  content.NewStore(fetcher, proc),
		hooks:  hooks,
		log:    logging.Component("engine"),
	}
}

// LoadLocale loads a locale and synchronously rebuilds all derived
// state: the content cache is cleared, the resolver maps and search
// index are rebuilt, and the current location resets to the first unit
// before any caller-requested location is resolved. On failure the
// previous state stays intact.
func (e *Engine) LoadLocale(ctx context.Context, locale string) error {
	cat, err := e.loader.Load(ctx, locale)
	if err != nil {
		return err
	}

	idx := search.New()
	for _, doc := range cat.SearchDocs {
		idx.Add(doc)
	}

	e.mu.Lock()
	e.cat = cat
	e.res = resolver.New(cat.TOC, cat.Pages, e.cfg.Redirects)
	e.index = idx
	e.store.Reset()
	e.current = models.Location{0}
	e.mu.Unlock()
	return nil
}

// CurrentLocation returns the location of the last navigation.
func (e *Engine) CurrentLocation() models.Location {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Catalog returns the loaded catalog, or nil.
func (e *Engine) Catalog() *catalog.Catalog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cat
}

// FetchContent resolves an address, makes it current, and returns its
// processed fragment, fetching over the network at most once per
// distinct location per locale lifetime. Either url or loc may be
// empty. The close-overlay hook fires unconditionally because the
// caller always intends to navigate, even on a cache hit.
func (e *Engine) FetchContent(ctx context.Context, url string, loc models.Location) (*fragment.Fragment, error) {
	e.mu.Lock()
	if e.res == nil {
		e.mu.Unlock()
		return nil, ErrNoLocale
	}
	res := e.res.Resolve(url, loc)
	e.current = res.Location
	e.mu.Unlock()

	if e.hooks.CloseOverlay != nil {
		e.hooks.CloseOverlay()
	}
	if res.Redirected && e.hooks.RedirectNeeded != nil {
		e.hooks.RedirectNeeded(res.URL)
	}

	return e.store.FetchResolved(ctx, res, navigator{e})
}

// PreviousPage navigates to the page before the current one, clamped at
// the first page.
func (e *Engine) PreviousPage(ctx context.Context) (*fragment.Fragment, error) {
	e.mu.Lock()
	if e.res == nil {
		e.mu.Unlock()
		return nil, ErrNoLocale
	}
	target := e.res.PreviousPage(e.current)
	e.mu.Unlock()
	return e.FetchContent(ctx, "", target)
}

// NextPage navigates to the page after the current one, clamped at the
// last page.
func (e *Engine) NextPage(ctx context.Context) (*fragment.Fragment, error) {
	e.mu.Lock()
	if e.res == nil {
		e.mu.Unlock()
		return nil, ErrNoLocale
	}
	target := e.res.NextPage(e.current)
	e.mu.Unlock()
	return e.FetchContent(ctx, "", target)
}

// Search answers a ranked free-text query over chapter and section
// metadata. Malformed queries are logged and yield an empty result;
// they never surface as errors to the host.
func (e *Engine) Search(text string) []search.Result {
	e.mu.Lock()
	idx := e.index
	e.mu.Unlock()
	if idx == nil {
		return nil
	}

	results, err := idx.Query(text)
	if err != nil {
		e.log.Debug("search query rejected", "query", text, "error", err)
		return nil
	}
	return results
}

// ResolvePermalink navigates to a compact deep-link address of the form
// "chapterSlug[:sectionIndex]", consulting the legacy redirect table
// first.
func (e *Engine) ResolvePermalink(ctx context.Context, permalink string) (*fragment.Fragment, error) {
	e.mu.Lock()
	if e.res == nil {
		e.mu.Unlock()
		return nil, ErrNoLocale
	}
	if target, ok := e.res.LegacyRedirect(permalink); ok {
		e.log.Debug("legacy permalink redirected", "permalink", permalink, "target", target)
		permalink = target
	}

	url := permalink
	section := -1
	if i := strings.LastIndex(permalink, ":"); i >= 0 {
		if n, err := strconv.Atoi(permalink[i+1:]); err == nil {
			url = permalink[:i]
			section = n
		}
	}

	loc, ok := e.res.LocationFor(url)
	if ok && section >= 0 && len(loc) == 2 {
		loc = loc.Child(section)
	}
	e.mu.Unlock()

	if !ok {
		return e.FetchContent(ctx, url, nil)
	}
	return e.FetchContent(ctx, "", loc)
}

// OpenReferenceChapter navigates to the configured reference chapter.
func (e *Engine) OpenReferenceChapter(ctx context.Context) (*fragment.Fragment, error) {
	if e.cfg.Viewer.ReferenceURL == "" {
		return nil, fmt.Errorf("no reference chapter configured")
	}
	return e.FetchContent(ctx, e.cfg.Viewer.ReferenceURL, nil)
}

// navigator adapts the engine to the post-processor's callback surface.
type navigator struct {
	e *Engine
}

func (n navigator) FetchContent(ctx context.Context, url string) error {
	_, err := n.e.FetchContent(ctx, url, nil)
	return err
}

func (n navigator) OpenReferenceIndex() {
	if n.e.hooks.OpenReferenceIndex != nil {
		n.e.hooks.OpenReferenceIndex()
	}
}

func (n navigator) ImportToEditor(code string) {
	if n.e.hooks.ImportToEditor != nil {
		n.e.hooks.ImportToEditor(code)
	}
}
