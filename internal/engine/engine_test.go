package engine

import (
	"context"
	"testing"

	"github.com/antchfx/xmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avikon/lessonview/internal/config"
	"github.com/avikon/lessonview/internal/models"
	"github.com/avikon/lessonview/internal/testutil"
)

type hookRecorder struct {
	imported  []string
	redirects []string
	refOpened int
	overlays  int
}

func newTestEngine(t *testing.T) (*Engine, *testutil.MockFetcher, *hookRecorder) {
	t.Helper()

	cfg := config.NewDefaultConfig()
	cfg.Viewer.BaseURL = "https://lessons.example.com"
	cfg.Viewer.ReferenceURL = "reference/synths.html"
	cfg.Redirects = map[string]string{
		"old-unit-1": "unit1.html",
		"old-beeps":  "unit1/beeps.html",
	}

	fetcher := testutil.NewMockFetcher(testutil.SampleLocale())
	rec := &hookRecorder{}
	eng := New(cfg, fetcher, Hooks{
		ImportToEditor:     func(code string) { rec.imported = append(rec.imported, code) },
		RedirectNeeded:     func(url string) { rec.redirects = append(rec.redirects, url) },
		OpenReferenceIndex: func() { rec.refOpened++ },
		CloseOverlay:       func() { rec.overlays++ },
	})

	require.NoError(t, eng.LoadLocale(context.Background(), "en"))
	return eng, fetcher, rec
}

func TestLoadLocaleResetsCurrentLocation(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	assert.True(t, eng.CurrentLocation().Equal(models.Location{0}))
}

func TestOperationsRequireLocale(t *testing.T) {
	eng := New(config.NewDefaultConfig(), testutil.NewMockFetcher(nil), Hooks{})

	_, err := eng.FetchContent(context.Background(), "welcome.html", nil)
	assert.ErrorIs(t, err, ErrNoLocale)
	_, err = eng.NextPage(context.Background())
	assert.ErrorIs(t, err, ErrNoLocale)
}

func TestFetchContentCachesAndClosesOverlay(t *testing.T) {
	eng, fetcher, rec := newTestEngine(t)
	ctx := context.Background()

	frag, err := eng.FetchContent(ctx, "unit1/beeps.html#changing-notes", nil)
	require.NoError(t, err)
	require.NotNil(t, frag)
	assert.True(t, eng.CurrentLocation().Equal(models.Location{1, 0, 1}))
	assert.Equal(t, 1, fetcher.Calls("unit1/beeps.html"))
	assert.Equal(t, 1, rec.overlays)

	// Repeat navigation: no refetch, but the overlay still closes.
	_, err = eng.FetchContent(ctx, "unit1/beeps.html#changing-notes", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.Calls("unit1/beeps.html"))
	assert.Equal(t, 2, rec.overlays)
}

func TestFetchContentChapterDescendsToSectionZero(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	_, err := eng.FetchContent(context.Background(), "", models.Location{1, 0})
	require.NoError(t, err)
	assert.True(t, eng.CurrentLocation().Equal(models.Location{1, 0, 0}))
}

func TestFetchContentUnknownURLRedirects(t *testing.T) {
	eng, _, rec := newTestEngine(t)

	frag, err := eng.FetchContent(context.Background(), "deleted.html", nil)
	require.NoError(t, err)
	assert.True(t, eng.CurrentLocation().Equal(models.Location{0}))
	assert.Equal(t, []string{"welcome.html"}, rec.redirects)
	assert.Contains(t, frag.HTML(), "Pick a unit")
}

func TestLocaleReloadClearsCache(t *testing.T) {
	eng, fetcher, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.FetchContent(ctx, "welcome.html", nil)
	require.NoError(t, err)
	require.Equal(t, 1, fetcher.Calls("welcome.html"))

	require.NoError(t, eng.LoadLocale(ctx, "en"))
	assert.True(t, eng.CurrentLocation().Equal(models.Location{0}))

	_, err = eng.FetchContent(ctx, "welcome.html", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.Calls("welcome.html"))
}

func TestPreviousNextNavigation(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	// At the first page, previous is a no-op.
	_, err := eng.PreviousPage(ctx)
	require.NoError(t, err)
	assert.True(t, eng.CurrentLocation().Equal(models.Location{0}))

	_, err = eng.NextPage(ctx)
	require.NoError(t, err)
	assert.True(t, eng.CurrentLocation().Equal(models.Location{1, 0, 0}))

	_, err = eng.NextPage(ctx)
	require.NoError(t, err)
	assert.True(t, eng.CurrentLocation().Equal(models.Location{1, 0, 1}))

	_, err = eng.PreviousPage(ctx)
	require.NoError(t, err)
	assert.True(t, eng.CurrentLocation().Equal(models.Location{1, 0, 0}))

	// Walk to the end; next clamps at the last page.
	for i := 0; i < 10; i++ {
		_, err = eng.NextPage(ctx)
		require.NoError(t, err)
	}
	assert.True(t, eng.CurrentLocation().Equal(models.Location{2, 0}))
}

func TestSearch(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	results := eng.Search("beep")
	require.NotEmpty(t, results)
	assert.Equal(t, "unit1/beeps.html", results[0].ID)

	assert.Empty(t, eng.Search(""))
	assert.Empty(t, eng.Search("foo:"))
	assert.Empty(t, eng.Search("title:"))
}

func TestResolvePermalinkLegacyRedirect(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.ResolvePermalink(ctx, "old-unit-1")
	require.NoError(t, err)
	legacyLoc := eng.CurrentLocation()

	_, err = eng.FetchContent(ctx, "unit1.html", nil)
	require.NoError(t, err)
	assert.True(t, eng.CurrentLocation().Equal(legacyLoc))
	assert.True(t, legacyLoc.Equal(models.Location{1}))
}

func TestResolvePermalinkSectionSuffix(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	_, err := eng.ResolvePermalink(context.Background(), "old-beeps:2")
	require.NoError(t, err)
	assert.True(t, eng.CurrentLocation().Equal(models.Location{1, 0, 2}))
}

func TestCopyToEditorHook(t *testing.T) {
	eng, _, rec := newTestEngine(t)
	ctx := context.Background()

	frag, err := eng.FetchContent(ctx, "", models.Location{1, 0, 0})
	require.NoError(t, err)

	control := xmlquery.FindOne(frag.Container, "//*[@data-editor-copy]")
	require.NotNil(t, control)
	require.NoError(t, frag.Activate(ctx, control))

	require.Len(t, rec.imported, 1)
	assert.Contains(t, rec.imported[0], "play 60")
}

func TestReferenceLinkOpensIndex(t *testing.T) {
	eng, _, rec := newTestEngine(t)
	ctx := context.Background()

	frag, err := eng.FetchContent(ctx, "", models.Location{1, 0, 1})
	require.NoError(t, err)

	ref := xmlquery.FindOne(frag.Container, `//a[@href='lang-reference']`)
	require.NotNil(t, ref)
	require.NoError(t, frag.Activate(ctx, ref))
	assert.Equal(t, 1, rec.refOpened)
}

func TestInternalLinkNavigates(t *testing.T) {
	eng, fetcher, _ := newTestEngine(t)
	ctx := context.Background()

	frag, err := eng.FetchContent(ctx, "", models.Location{1, 0, 0})
	require.NoError(t, err)

	link := xmlquery.FindOne(frag.Container, `//a[@data-internal]`)
	require.NotNil(t, link)
	require.NoError(t, frag.Activate(ctx, link))

	assert.True(t, eng.CurrentLocation().Equal(models.Location{1, 1}))
	assert.Equal(t, 1, fetcher.Calls("unit1/silence.html"))
}

func TestInPageLinkStaysWithinChapterCache(t *testing.T) {
	eng, fetcher, _ := newTestEngine(t)
	ctx := context.Background()

	frag, err := eng.FetchContent(ctx, "", models.Location{1, 0, 0})
	require.NoError(t, err)
	require.Equal(t, 1, fetcher.Calls("unit1/beeps.html"))

	link := xmlquery.FindOne(frag.Container, `//a[@href='#chords']`)
	require.NotNil(t, link)
	require.NoError(t, frag.Activate(ctx, link))

	// The anchor resolves to a sibling section already warmed by the
	// chapter fetch.
	assert.True(t, eng.CurrentLocation().Equal(models.Location{1, 0, 2}))
	assert.Equal(t, 1, fetcher.Calls("unit1/beeps.html"))
}

func TestOpenReferenceChapter(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	_, err := eng.OpenReferenceChapter(context.Background())
	require.NoError(t, err)
	assert.True(t, eng.CurrentLocation().Equal(models.Location{2, 0}))
}

func TestQuizEndToEnd(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	frag, err := eng.FetchContent(context.Background(), "", models.Location{1, 0, 1})
	require.NoError(t, err)

	quizzes := frag.Quizzes()
	require.Len(t, quizzes, 1)
	q := quizzes[0]
	assert.Contains(t, q.CorrectControl().InnerText(), "play 60")
}
