package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromString(t *testing.T) {
	cfg, err := LoadFromString(`
[viewer]
base-url = "https://lessons.example.com/curriculum"
locale = "de"
theme = "dark"
engine = "gecko"
reference-url = "reference/synths.html"

[redirects]
"old-unit-1" = "unit1.html"
`)
	require.NoError(t, err)

	assert.Equal(t, "https://lessons.example.com/curriculum", cfg.Viewer.BaseURL)
	assert.Equal(t, "de", cfg.Viewer.Locale)
	assert.Equal(t, "dark", cfg.Viewer.Theme)
	assert.Equal(t, "gecko", cfg.Viewer.Engine)
	assert.Equal(t, "reference/synths.html", cfg.Viewer.ReferenceURL)
	assert.Equal(t, "unit1.html", cfg.Redirects["old-unit-1"])
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadFromString("")
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.Viewer.Locale)
	assert.Equal(t, "light", cfg.Viewer.Theme)
	assert.Equal(t, "chromium", cfg.Viewer.Engine)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("LESSONVIEW_VIEWER__LOCALE", "fr")
	t.Setenv("LESSONVIEW_VIEWER__BASE_URL", "https://other.example.com")

	cfg, err := LoadFromString(`
[viewer]
locale = "en"
`)
	require.NoError(t, err)
	assert.Equal(t, "fr", cfg.Viewer.Locale)
	assert.Equal(t, "https://other.example.com", cfg.Viewer.BaseURL)
}

func TestSet(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Set("viewer.theme", "dark")
	cfg.Set("redirects.old-page", "new-page.html")
	cfg.Set("nonsense", "ignored")

	assert.Equal(t, "dark", cfg.Viewer.Theme)
	assert.Equal(t, "new-page.html", cfg.Redirects["old-page"])
}
