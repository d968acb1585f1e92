package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avikon/lessonview/internal/models"
	"github.com/avikon/lessonview/internal/testutil"
)

func TestLoadBuildsCatalog(t *testing.T) {
	loader := NewLoader(testutil.NewMockFetcher(testutil.SampleLocale()))

	cat, err := loader.Load(context.Background(), "en")
	require.NoError(t, err)

	assert.Equal(t, "en", cat.Locale)
	require.Len(t, cat.TOC.Units, 3)

	beeps := cat.TOC.Chapter(models.Location{1, 0})
	require.NotNil(t, beeps)
	assert.Equal(t, "First Beeps", beeps.Title)
	assert.Equal(t, 1, beeps.Number)
	assert.Len(t, beeps.Sections, 3)

	// Absent chapter numbers map to the sentinel.
	synths := cat.TOC.Chapter(models.Location{2, 0})
	require.NotNil(t, synths)
	assert.Equal(t, models.NoNumber, synths.Number)

	// welcome, three beeps sections, silence, synths.
	want := []models.Location{{0}, {1, 0, 0}, {1, 0, 1}, {1, 0, 2}, {1, 1}, {2, 0}}
	require.Len(t, cat.Pages, len(want))
	for i, loc := range want {
		assert.True(t, cat.Pages[i].Equal(loc), "page %d", i)
	}

	require.Len(t, cat.SearchDocs, 3)
	assert.Equal(t, "unit1/beeps.html", cat.SearchDocs[0].ID)
}

func TestLoadFailsWhenResourceMissing(t *testing.T) {
	fixtures := testutil.SampleLocale()
	delete(fixtures, "en/search.json")
	loader := NewLoader(testutil.NewMockFetcher(fixtures))

	_, err := loader.Load(context.Background(), "en")
	assert.Error(t, err)
}

func TestLoadRejectsMalformedTOC(t *testing.T) {
	fixtures := testutil.SampleLocale()
	fixtures["en/toc.json"] = "{not json"
	loader := NewLoader(testutil.NewMockFetcher(fixtures))

	_, err := loader.Load(context.Background(), "en")
	assert.Error(t, err)
}
