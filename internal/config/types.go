package config

import (
	"time"

	"sitenav/internal/chrome"
	"sitenav/internal/models"
)

// PrefsBackend selects where visitor preferences are stored.
type PrefsBackend string

const (
	PrefsMemory PrefsBackend = "memory"
	PrefsRedis  PrefsBackend = "redis"
)

// Config is the top-level sitenav configuration, corresponding to sitenav.yml.
type Config struct {
	LogLevel     string           `yaml:"log_level" koanf:"log_level"`
	SmoothScroll bool             `yaml:"smooth_scroll" koanf:"smooth_scroll"`
	Viewport     models.Viewport  `yaml:"viewport" koanf:"viewport"`
	Navigation   NavigationConfig `yaml:"navigation" koanf:"navigation"`
	Head         HeadConfig       `yaml:"head" koanf:"head"`
	Chrome       ChromeConfig     `yaml:"chrome" koanf:"chrome"`
	HTTP         HTTPConfig       `yaml:"http" koanf:"http"`
	Prefs        PrefsConfig      `yaml:"prefs" koanf:"prefs"`
	Server       ServerConfig     `yaml:"server" koanf:"server"`
}

// NavigationConfig tunes the partial navigation controller.
type NavigationConfig struct {
	ContentSelector string        `yaml:"content_selector" koanf:"content_selector"`
	LinkSelector    string        `yaml:"link_selector" koanf:"link_selector"`
	FadeClass       string        `yaml:"fade_class" koanf:"fade_class"`
	FadeDelay       time.Duration `yaml:"fade_delay" koanf:"fade_delay"`
	HomeToken       string        `yaml:"home_token" koanf:"home_token"`
	FallbackOnError bool          `yaml:"fallback_on_error" koanf:"fallback_on_error"`
}

// HeadConfig lists the head tags replaced on every swap.
type HeadConfig struct {
	Selectors        []string `yaml:"selectors" koanf:"selectors"`
	BodyIDAttr       string   `yaml:"body_id_attr" koanf:"body_id_attr"`
	ClearStaleBodyID bool     `yaml:"clear_stale_body_id" koanf:"clear_stale_body_id"`
}

// ChromeConfig holds the static partials and the regions they fill.
type ChromeConfig struct {
	Partials       []chrome.Partial `yaml:"partials" koanf:"partials"`
	HeaderSelector string           `yaml:"header_selector" koanf:"header_selector"`
	FooterSelector string           `yaml:"footer_selector" koanf:"footer_selector"`
}

type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" koanf:"timeout"`
	DialTimeout  time.Duration `yaml:"dial_timeout" koanf:"dial_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" koanf:"max_body_bytes"`
	UserAgent    string        `yaml:"user_agent" koanf:"user_agent"`
}

type PrefsConfig struct {
	Backend       PrefsBackend `yaml:"backend" koanf:"backend"`
	RedisAddr     string       `yaml:"redis_addr" koanf:"redis_addr"`
	RedisPassword string       `yaml:"redis_password" koanf:"redis_password"`
	RedisDB       int          `yaml:"redis_db" koanf:"redis_db"`
	KeyPrefix     string       `yaml:"key_prefix" koanf:"key_prefix"`
}

// ServerConfig holds settings for the session API server.
type ServerConfig struct {
	Addr            string        `yaml:"addr" koanf:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" koanf:"shutdown_timeout"`
	MaxSessions     int           `yaml:"max_sessions" koanf:"max_sessions"`
	RequestTimeout  time.Duration `yaml:"request_timeout" koanf:"request_timeout"`
}
