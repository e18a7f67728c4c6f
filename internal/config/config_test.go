package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitenav/internal/chrome"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "#content", cfg.Navigation.ContentSelector)
	assert.Equal(t, "a[data-link]", cfg.Navigation.LinkSelector)
	assert.Equal(t, "fade-out", cfg.Navigation.FadeClass)
	assert.Equal(t, 16*time.Millisecond, cfg.Navigation.FadeDelay)
	assert.Equal(t, "home", cfg.Navigation.HomeToken)
	assert.True(t, cfg.Navigation.FallbackOnError)
	assert.True(t, cfg.Head.ClearStaleBodyID)
	assert.Len(t, cfg.Head.Selectors, 7)
	assert.Equal(t, PrefsMemory, cfg.Prefs.Backend)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitenav.yml")
	yml := `log_level: debug
navigation:
  content_selector: "main#page"
  fade_delay: 40ms
  fallback_on_error: false
head:
  selectors: ["title", "meta[name=\"description\"]"]
chrome:
  partials:
    - path: /partials/top.html
      selector: "#top"
viewport:
  width: 390
  height: 844
  touch_only: true
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))

	t.Setenv("SITENAV_NAVIGATION__HOME_TOKEN", "top")
	t.Setenv("SITENAV_PREFS__BACKEND", "redis")
	t.Setenv("SITENAV_SERVER__ADDR", ":9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "main#page", cfg.Navigation.ContentSelector)
	assert.Equal(t, 40*time.Millisecond, cfg.Navigation.FadeDelay)
	assert.False(t, cfg.Navigation.FallbackOnError)
	assert.Equal(t, "top", cfg.Navigation.HomeToken)
	assert.Equal(t, "a[data-link]", cfg.Navigation.LinkSelector, "unset keys keep defaults")
	assert.Equal(t, []string{"title", `meta[name="description"]`}, cfg.Head.Selectors)
	assert.Equal(t, []chrome.Partial{{Path: "/partials/top.html", Selector: "#top"}}, cfg.Chrome.Partials)
	assert.True(t, cfg.Viewport.TouchOnly)
	assert.Equal(t, 390, cfg.Viewport.Width)
	assert.Equal(t, PrefsRedis, cfg.Prefs.Backend)
	assert.Equal(t, ":9999", cfg.Server.Addr)

	opts := cfg.SessionOptions()
	assert.Equal(t, "main#page", opts.Navigation.ContentSelector)
	assert.Equal(t, "main#page", opts.Effects.ContentSelector)
	assert.True(t, opts.Effects.Viewport.TouchOnly)
	assert.False(t, opts.Navigation.FallbackOnError)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitenav.yml")

	original := DefaultConfig()
	original.Navigation.FadeDelay = 25 * time.Millisecond
	original.Head.ClearStaleBodyID = false
	original.Server.MaxSessions = 3
	require.NoError(t, original.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad content selector", func(c *Config) { c.Navigation.ContentSelector = "#content[" }, "navigation.content_selector"},
		{"empty link selector", func(c *Config) { c.Navigation.LinkSelector = "" }, "navigation.link_selector is required"},
		{"bad head selector", func(c *Config) { c.Head.Selectors = []string{"title", "meta[["} }, "head.selectors[1]"},
		{"partial without path", func(c *Config) { c.Chrome.Partials = []chrome.Partial{{Selector: "#x"}} }, "chrome.partials[0]"},
		{"negative fade delay", func(c *Config) { c.Navigation.FadeDelay = -time.Second }, "fade_delay"},
		{"zero timeout", func(c *Config) { c.HTTP.Timeout = 0 }, "http.timeout"},
		{"unknown prefs backend", func(c *Config) { c.Prefs.Backend = "etcd" }, "prefs.backend"},
		{"redis without addr", func(c *Config) {
			c.Prefs.Backend = PrefsRedis
			c.Prefs.RedisAddr = ""
		}, "redis_addr"},
		{"empty viewport", func(c *Config) { c.Viewport.Width = 0 }, "viewport"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
