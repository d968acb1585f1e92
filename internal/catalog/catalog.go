// Package catalog loads the per-locale curriculum resources: the
// table-of-contents tree and the search corpus. The flattened page
// sequence is derived from the tree, never fetched.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/avikon/lessonview/internal/content"
	"github.com/avikon/lessonview/internal/logging"
	"github.com/avikon/lessonview/internal/models"
)

// Catalog is an immutable snapshot of one locale's curriculum. All
// derived state (resolver maps, content cache, search index) is rebuilt
// from it on locale load.
type Catalog struct {
	Locale     string
	TOC        *models.TOC
	Pages      models.PageSequence
	SearchDocs []models.SearchDoc
}

// Loader fetches and decodes locale resources.
type Loader struct {
	fetcher content.Fetcher
	log     *slog.Logger
}

// NewLoader creates a loader backed by the given fetcher.
func NewLoader(fetcher content.Fetcher) *Loader {
	return &Loader{
		fetcher: fetcher,
		log:     logging.Component("catalog"),
	}
}

// Wire shapes of the fetched resources. Chapter numbers are optional in
// the wire format; absence maps to models.NoNumber.
type tocDocument struct {
	Units []tocUnit `json:"units"`
}

type tocUnit struct {
	URL      string       `json:"url"`
	Title    string       `json:"title"`
	Chapters []tocChapter `json:"chapters"`
}

type tocChapter struct {
	URL      string       `json:"url"`
	Title    string       `json:"title"`
	Number   *int         `json:"number"`
	Sections []tocSection `json:"sections"`
}

type tocSection struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Load fetches the locale's TOC tree and search corpus in parallel and
// derives the page sequence. On failure the caller's previous catalog
// stays valid.
func (l *Loader) Load(ctx context.Context, locale string) (*Catalog, error) {
	var (
		wg        sync.WaitGroup
		toc       *models.TOC
		docs      []models.SearchDoc
		tocErr    error
		searchErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		toc, tocErr = l.loadTOC(ctx, locale)
	}()
	go func() {
		defer wg.Done()
		docs, searchErr = l.loadSearchDocs(ctx, locale)
	}()
	wg.Wait()

	if tocErr != nil {
		return nil, fmt.Errorf("loading locale %q: %w", locale, tocErr)
	}
	if searchErr != nil {
		return nil, fmt.Errorf("loading locale %q: %w", locale, searchErr)
	}

	cat := &Catalog{
		Locale:     locale,
		TOC:        toc,
		Pages:      toc.Pages(),
		SearchDocs: docs,
	}
	l.log.Info("locale loaded",
		"locale", locale,
		"units", len(toc.Units),
		"pages", len(cat.Pages),
		"search_docs", len(docs))
	return cat, nil
}

func (l *Loader) loadTOC(ctx context.Context, locale string) (*models.TOC, error) {
	raw, err := l.fetcher.Fetch(ctx, locale+"/toc.json")
	if err != nil {
		return nil, err
	}

	var wire tocDocument
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("decoding toc.json: %w", err)
	}

	toc := &models.TOC{Units: make([]models.Unit, 0, len(wire.Units))}
	for _, wu := range wire.Units {
		unit := models.Unit{URL: wu.URL, Title: wu.Title}
		for _, wc := range wu.Chapters {
			ch := models.Chapter{
				URL:    wc.URL,
				Title:  wc.Title,
				Number: models.NoNumber,
			}
			if wc.Number != nil {
				ch.Number = *wc.Number
			}
			for _, ws := range wc.Sections {
				ch.Sections = append(ch.Sections, models.Section{URL: ws.URL, Title: ws.Title})
			}
			unit.Chapters = append(unit.Chapters, ch)
		}
		toc.Units = append(toc.Units, unit)
	}
	return toc, nil
}

func (l *Loader) loadSearchDocs(ctx context.Context, locale string) ([]models.SearchDoc, error) {
	raw, err := l.fetcher.Fetch(ctx, locale+"/search.json")
	if err != nil {
		return nil, err
	}

	var docs []models.SearchDoc
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, fmt.Errorf("decoding search.json: %w", err)
	}
	return docs, nil
}
