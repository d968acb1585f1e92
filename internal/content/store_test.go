package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avikon/lessonview/internal/fragment"
	"github.com/avikon/lessonview/internal/models"
	"github.com/avikon/lessonview/internal/resolver"
	"github.com/avikon/lessonview/internal/testutil"
)

type nopNavigator struct{}

func (nopNavigator) FetchContent(context.Context, string) error { return nil }
func (nopNavigator) OpenReferenceIndex()                        {}
func (nopNavigator) ImportToEditor(string)                      {}

func newTestStore() (*Store, *testutil.MockFetcher) {
	fetcher := testutil.NewMockFetcher(testutil.SampleLocale())
	return NewStore(fetcher, fragment.NewProcessor("chromium")), fetcher
}

func TestFetchResolvedCachesByLocation(t *testing.T) {
	store, fetcher := newTestStore()
	ctx := context.Background()
	res := resolver.Resolution{URL: "unit1/silence.html", Location: models.Location{1, 1}}

	first, err := store.FetchResolved(ctx, res, nopNavigator{})
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, fetcher.Calls("unit1/silence.html"))

	second, err := store.FetchResolved(ctx, res, nopNavigator{})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, fetcher.Calls("unit1/silence.html"), "cache hit must not refetch")
}

func TestSectionFetchWarmsWholeChapter(t *testing.T) {
	store, fetcher := newTestStore()
	res := resolver.Resolution{
		URL:      "unit1/beeps.html#changing-notes",
		Location: models.Location{1, 0, 1},
	}

	frag, err := store.FetchResolved(context.Background(), res, nopNavigator{})
	require.NoError(t, err)
	require.NotNil(t, frag)

	assert.Equal(t, 1, fetcher.Calls("unit1/beeps.html"), "anchor must be stripped before fetching")
	for _, key := range []string{"1,0,0", "1,0,1", "1,0,2"} {
		_, ok := store.Cached(key)
		assert.True(t, ok, "section %s should be warmed", key)
	}

	// A sibling section is now a pure cache hit.
	sibling := resolver.Resolution{
		URL:      "unit1/beeps.html#chords",
		Location: models.Location{1, 0, 2},
	}
	_, err = store.FetchResolved(context.Background(), sibling, nopNavigator{})
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.TotalCalls())
}

func TestChapterIntroTravelsWithFirstSection(t *testing.T) {
	store, _ := newTestStore()
	res := resolver.Resolution{
		URL:      "unit1/beeps.html#your-first-beep",
		Location: models.Location{1, 0, 0},
	}

	frag, err := store.FetchResolved(context.Background(), res, nopNavigator{})
	require.NoError(t, err)

	html := testutil.NormalizeHTML(frag.HTML())
	assert.Contains(t, html, "Welcome to your first sounds")
	assert.Contains(t, html, "<h2>Your First Beep</h2>")
	assert.NotContains(t, html, "Changing Notes")
}

func TestFetchFailureLeavesCacheUntouched(t *testing.T) {
	store, _ := newTestStore()
	res := resolver.Resolution{URL: "missing.html", Location: models.Location{5}}

	_, err := store.FetchResolved(context.Background(), res, nopNavigator{})
	require.Error(t, err)
	assert.Equal(t, 0, store.Len())

	_, ok := store.Cached("5")
	assert.False(t, ok)
}

func TestResetClearsCache(t *testing.T) {
	store, fetcher := newTestStore()
	res := resolver.Resolution{URL: "welcome.html", Location: models.Location{0}}

	_, err := store.FetchResolved(context.Background(), res, nopNavigator{})
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	store.Reset()
	assert.Equal(t, 0, store.Len())

	_, err = store.FetchResolved(context.Background(), res, nopNavigator{})
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.Calls("welcome.html"))
}
