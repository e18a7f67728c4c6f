package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"sitenav/internal/chrome"
	"sitenav/internal/effects"
	"sitenav/internal/fetcher"
	"sitenav/internal/headsync"
	"sitenav/internal/models"
	"sitenav/internal/navigation"
	"sitenav/internal/prefs"
	"sitenav/internal/session"
)

// EnvPrefix marks environment overrides. A double underscore separates
// nested keys: SITENAV_NAVIGATION__FADE_DELAY=50ms.
const EnvPrefix = "SITENAV_"

// DefaultConfig returns the configuration used when no file or override
// says otherwise.
func DefaultConfig() *Config {
	nav := navigation.DefaultOptions()
	return &Config{
		LogLevel:     "info",
		SmoothScroll: true,
		Viewport:     models.Viewport{Width: 1440, Height: 900},
		Navigation: NavigationConfig{
			ContentSelector: nav.ContentSelector,
			LinkSelector:    nav.LinkSelector,
			FadeClass:       nav.FadeClass,
			FadeDelay:       nav.FadeDelay,
			HomeToken:       nav.HomeToken,
			FallbackOnError: nav.FallbackOnError,
		},
		Head: HeadConfig{
			Selectors:        append([]string(nil), headsync.DefaultSelectors...),
			BodyIDAttr:       "id",
			ClearStaleBodyID: true,
		},
		Chrome: ChromeConfig{
			Partials:       append([]chrome.Partial(nil), chrome.DefaultPartials...),
			HeaderSelector: "#header",
			FooterSelector: "#footer",
		},
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			DialTimeout:  5 * time.Second,
			MaxBodyBytes: 5 << 20,
			UserAgent:    fetcher.DefaultUserAgent,
		},
		Prefs: PrefsConfig{
			Backend:   PrefsMemory,
			RedisAddr: "localhost:6379",
			KeyPrefix: "sitenav",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			MaxSessions:     256,
			RequestTimeout:  30 * time.Second,
		},
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (SITENAV_*). A missing file is not an
// error; an empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// YAML renders the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshalling config: %w", err)
	}
	return data, nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	selectors := map[string]string{
		"navigation.content_selector": c.Navigation.ContentSelector,
		"navigation.link_selector":    c.Navigation.LinkSelector,
		"chrome.header_selector":      c.Chrome.HeaderSelector,
		"chrome.footer_selector":      c.Chrome.FooterSelector,
	}
	for key, sel := range selectors {
		if sel == "" {
			return fmt.Errorf("%s is required", key)
		}
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, sel, err)
		}
	}
	for i, sel := range c.Head.Selectors {
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("invalid head.selectors[%d] %q: %w", i, sel, err)
		}
	}
	for i, p := range c.Chrome.Partials {
		if p.Path == "" || p.Selector == "" {
			return fmt.Errorf("chrome.partials[%d] needs path and selector", i)
		}
		if _, err := cascadia.Compile(p.Selector); err != nil {
			return fmt.Errorf("invalid chrome.partials[%d] selector %q: %w", i, p.Selector, err)
		}
	}

	if c.Navigation.FadeClass == "" {
		return fmt.Errorf("navigation.fade_class is required")
	}
	if c.Navigation.FadeDelay < 0 {
		return fmt.Errorf("navigation.fade_delay must be non-negative")
	}
	if c.Head.BodyIDAttr == "" {
		return fmt.Errorf("head.body_id_attr is required")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("http.max_body_bytes must be positive")
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport must have a positive width and height")
	}

	switch c.Prefs.Backend {
	case PrefsMemory:
	case PrefsRedis:
		if c.Prefs.RedisAddr == "" {
			return fmt.Errorf("prefs.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid prefs.backend %q: must be one of memory, redis", c.Prefs.Backend)
	}

	if c.Server.MaxSessions < 0 {
		return fmt.Errorf("server.max_sessions must be non-negative")
	}
	return nil
}

// SessionOptions translates the configuration into page session options.
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		Navigation: navigation.Options{
			ContentSelector: c.Navigation.ContentSelector,
			LinkSelector:    c.Navigation.LinkSelector,
			FadeClass:       c.Navigation.FadeClass,
			FadeDelay:       c.Navigation.FadeDelay,
			HomeToken:       c.Navigation.HomeToken,
			FallbackOnError: c.Navigation.FallbackOnError,
		},
		Effects: effects.Options{
			ContentSelector: c.Navigation.ContentSelector,
			HeaderSelector:  c.Chrome.HeaderSelector,
			FooterSelector:  c.Chrome.FooterSelector,
			BodyIDAttr:      c.Head.BodyIDAttr,
			Viewport:        c.Viewport,
		},
		Partials:         c.Chrome.Partials,
		HeadSelectors:    c.Head.Selectors,
		BodyIDAttr:       c.Head.BodyIDAttr,
		ClearStaleBodyID: c.Head.ClearStaleBodyID,
		SmoothScroll:     c.SmoothScroll,
	}
}

// NewFetcher builds the HTTP client described by the http section.
func (c *Config) NewFetcher() *fetcher.HTTPClient {
	return fetcher.NewHTTPClient(c.HTTP.Timeout, c.HTTP.DialTimeout, c.HTTP.MaxBodyBytes).
		WithUserAgent(c.HTTP.UserAgent)
}

// NewPrefsProvider connects the configured preference backend.
func (c *Config) NewPrefsProvider(ctx context.Context) (prefs.Provider, error) {
	if c.Prefs.Backend != PrefsRedis {
		return prefs.NewMemoryProvider(), nil
	}
	client, err := prefs.NewRedisClient(ctx, c.Prefs.RedisAddr, c.Prefs.RedisPassword, c.Prefs.RedisDB)
	if err != nil {
		return nil, err
	}
	return prefs.NewRedisProvider(client, c.Prefs.KeyPrefix), nil
}
