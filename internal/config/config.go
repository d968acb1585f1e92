package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ViewerConfig contains the settings of the lesson viewer itself.
type ViewerConfig struct {
	BaseURL      string `toml:"base-url"`      // Root URL the locale resources live under
	Locale       string `toml:"locale"`        // Active locale, e.g. "en"
	Theme        string `toml:"theme"`         // "light" or "dark"
	Engine       string `toml:"engine"`        // Host rendering engine hint: "chromium", "gecko", "webkit"
	ReferenceURL string `toml:"reference-url"` // Document URL of the language reference chapter
}

// DefaultViewerConfig returns a viewer config with defaults.
func DefaultViewerConfig() ViewerConfig {
	return ViewerConfig{
		Locale: "en",
		Theme:  "light",
		Engine: "chromium",
	}
}

// Config is the top-level configuration.
type Config struct {
	Viewer ViewerConfig `toml:"viewer"`
	// Redirects maps historical permalinks to current document URLs.
	Redirects map[string]string `toml:"redirects"`
}

// NewDefaultConfig returns a config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Viewer:    DefaultViewerConfig(),
		Redirects: make(map[string]string),
	}
}

// LoadFromFile loads configuration from a lessonview.toml file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return LoadFromString(string(data))
}

// LoadFromString loads configuration from a TOML string.
func LoadFromString(content string) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := toml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.UpdateFromEnv()
	return cfg, nil
}

// UpdateFromEnv updates config from environment variables.
// Variables starting with LESSONVIEW_ are used:
// LESSONVIEW_VIEWER__BASE_URL -> viewer.base-url
func (c *Config) UpdateFromEnv() {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "LESSONVIEW_") {
			continue
		}

		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimPrefix(parts[0], "LESSONVIEW_")
		configKey := strings.ToLower(key)
		configKey = strings.ReplaceAll(configKey, "__", ".")
		configKey = strings.ReplaceAll(configKey, "_", "-")

		c.Set(configKey, parts[1])
	}
}

// Set sets a configuration value using dot notation (e.g. "viewer.locale",
// "redirects.old-unit-1").
func (c *Config) Set(key, value string) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return
	}

	switch parts[0] {
	case "viewer":
		c.setViewerValue(parts[1], value)
	case "redirects":
		if c.Redirects == nil {
			c.Redirects = make(map[string]string)
		}
		c.Redirects[parts[1]] = value
	}
}

func (c *Config) setViewerValue(key, value string) {
	switch strings.ToLower(key) {
	case "base-url":
		c.Viewer.BaseURL = value
	case "locale":
		c.Viewer.Locale = value
	case "theme":
		c.Viewer.Theme = value
	case "engine":
		c.Viewer.Engine = value
	case "reference-url":
		c.Viewer.ReferenceURL = value
	}
}
