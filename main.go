// Command lessonview is a terminal front end for the curriculum
// engine: it loads a locale, prints the table of contents, fetches
// pages and runs search queries.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/avikon/lessonview/internal/config"
	"github.com/avikon/lessonview/internal/content"
	"github.com/avikon/lessonview/internal/engine"
	"github.com/avikon/lessonview/internal/fragment"
	"github.com/avikon/lessonview/internal/logging"
	"github.com/avikon/lessonview/internal/models"
)

// CLI defines the command-line interface.
var CLI struct {
	Config  string `name:"config" short:"c" help:"Path to lessonview.toml" default:"lessonview.toml"`
	BaseURL string `name:"base-url" help:"Override the configured base URL"`
	Locale  string `name:"locale" help:"Override the configured locale"`
	Verbose bool   `name:"verbose" short:"v" help:"Enable debug logging"`

	Toc    TocCmd    `cmd:"" help:"Print the table of contents"`
	Page   PageCmd   `cmd:"" help:"Fetch a page by location key or URL and print it"`
	Search SearchCmd `cmd:"" help:"Query the search index"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("lessonview"),
		kong.Description("Curriculum addressing and content-delivery engine."))

	level := logging.LevelInfo
	if CLI.Verbose {
		level = logging.LevelDebug
	}
	logging.Init(level, logging.FormatText)

	ctx.FatalIfErrorf(ctx.Run())
}

// setup loads config, builds the engine and loads the locale.
func setup() (*engine.Engine, error) {
	cfg, err := config.LoadFromFile(CLI.Config)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = config.NewDefaultConfig()
		cfg.UpdateFromEnv()
	}
	if CLI.BaseURL != "" {
		cfg.Viewer.BaseURL = CLI.BaseURL
	}
	if CLI.Locale != "" {
		cfg.Viewer.Locale = CLI.Locale
	}
	if cfg.Viewer.BaseURL == "" {
		return nil, fmt.Errorf("no base URL configured; set viewer.base-url or pass --base-url")
	}

	fetcher, err := content.NewHTTPFetcher(cfg.Viewer.BaseURL)
	if err != nil {
		return nil, err
	}

	eng := engine.New(cfg, fetcher, engine.Hooks{
		ImportToEditor: func(code string) {
			fmt.Println(code)
		},
		RedirectNeeded: func(url string) {
			fmt.Fprintf(os.Stderr, "redirected to %s\n", url)
		},
	})
	if err := eng.LoadLocale(context.Background(), cfg.Viewer.Locale); err != nil {
		return nil, err
	}
	return eng, nil
}

// TocCmd prints the loaded table of contents.
type TocCmd struct{}

func (c *TocCmd) Run() error {
	eng, err := setup()
	if err != nil {
		return err
	}

	toc := eng.Catalog().TOC
	for ui, u := range toc.Units {
		fmt.Printf("[%d] %s  (%s)\n", ui, u.Title, u.URL)
		for ci, ch := range u.Chapters {
			num := ""
			if ch.Number != models.NoNumber {
				num = fmt.Sprintf("%d. ", ch.Number)
			}
			fmt.Printf("  [%d,%d] %s%s  (%s)\n", ui, ci, num, ch.Title, ch.URL)
			for si, sec := range ch.Sections {
				fmt.Printf("    [%d,%d,%d] %s  (%s)\n", ui, ci, si, sec.Title, sec.URL)
			}
		}
	}
	return nil
}

// PageCmd fetches and prints one page.
type PageCmd struct {
	Address string `arg:"" help:"Location key (e.g. 1,0,2) or document URL"`
}

func (c *PageCmd) Run() error {
	eng, err := setup()
	if err != nil {
		return err
	}

	var frag *fragment.Fragment
	if loc, parseErr := models.ParseKey(c.Address); parseErr == nil {
		frag, err = eng.FetchContent(context.Background(), "", loc)
	} else {
		frag, err = eng.FetchContent(context.Background(), c.Address, nil)
	}
	if err != nil {
		return err
	}

	fmt.Println(frag.HTML())
	fmt.Fprintf(os.Stderr, "location: %s\n", eng.CurrentLocation())
	return nil
}

// SearchCmd runs a free-text query against the search index.
type SearchCmd struct {
	Query []string `arg:"" help:"Query terms"`
}

func (c *SearchCmd) Run() error {
	eng, err := setup()
	if err != nil {
		return err
	}

	results := eng.Search(strings.Join(c.Query, " "))
	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%2d. %s  (%s)\n", i+1, r.Title, r.ID)
	}
	return nil
}
