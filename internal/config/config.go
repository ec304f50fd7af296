package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Content
	ContentDir  string
	CatalogFile string

	// Auth
	APIKey string

	// Upload limits
	MaxUploadBytes int64

	// Section tracking
	HeaderOffset          float64
	TriggerTopOffset      float64
	TriggerBottomFraction float64
	ViewportHeight        float64

	// Sessions
	SessionTTL  time.Duration
	MaxSessions int

	// Content watching and loading
	WatchContent    bool
	WatchDebounce   time.Duration
	LoadConcurrency int

	// Presentation
	WordsPerMinute int
	FeaturedLimit  int

	// PDF
	PDFFallbackPdftotext bool

	MetricsEnabled bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		ContentDir:  envOr("CONTENT_DIR", "./content"),
		CatalogFile: os.Getenv("CATALOG_FILE"),

		APIKey: os.Getenv("DOCREADER_API_KEY"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		HeaderOffset:          envFloat("HEADER_OFFSET", 100),
		TriggerTopOffset:      envFloat("TRIGGER_TOP_OFFSET", 80),
		TriggerBottomFraction: envFloat("TRIGGER_BOTTOM_FRACTION", 0.8),
		ViewportHeight:        envFloat("VIEWPORT_HEIGHT", 900),

		SessionTTL:  envDuration("SESSION_TTL", 30*time.Minute),
		MaxSessions: envInt("MAX_SESSIONS", 1000),

		WatchContent:    envBool("WATCH_CONTENT", true),
		WatchDebounce:   envDuration("WATCH_DEBOUNCE", 300*time.Millisecond),
		LoadConcurrency: envInt("LOAD_CONCURRENCY", 4),

		WordsPerMinute: envInt("WORDS_PER_MINUTE", 200),
		FeaturedLimit:  envInt("FEATURED_LIMIT", 3),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		MetricsEnabled: envBool("METRICS_ENABLED", true),
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills derived values and replaces out-of-range numbers.
// Call it again after overriding fields, e.g. from command-line flags.
func (c *Config) applyDefaults() {
	if c.CatalogFile == "" {
		c.CatalogFile = filepath.Join(c.ContentDir, "catalog.yaml")
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 10485760
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = 900
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * time.Minute
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = 1000
	}
	if c.WatchDebounce <= 0 {
		c.WatchDebounce = 300 * time.Millisecond
	}
	if c.LoadConcurrency <= 0 {
		c.LoadConcurrency = 4
	}
	if c.WordsPerMinute <= 0 {
		c.WordsPerMinute = 200
	}
	if c.FeaturedLimit <= 0 {
		c.FeaturedLimit = 3
	}
}

// WithContentDir points the config at another content directory. A catalog
// path derived from the old directory follows it.
func (c Config) WithContentDir(dir string) Config {
	if c.CatalogFile == filepath.Join(c.ContentDir, "catalog.yaml") {
		c.CatalogFile = ""
	}
	c.ContentDir = dir
	c.applyDefaults()
	return c
}

func (c Config) Validate() error {
	if c.ContentDir == "" {
		return fmt.Errorf("CONTENT_DIR is required")
	}
	if c.HeaderOffset <= 0 {
		return fmt.Errorf("HEADER_OFFSET must be positive, got %v", c.HeaderOffset)
	}
	if c.TriggerTopOffset < 0 {
		return fmt.Errorf("TRIGGER_TOP_OFFSET must not be negative")
	}
	if c.TriggerBottomFraction <= 0 || c.TriggerBottomFraction >= 1 {
		return fmt.Errorf("TRIGGER_BOTTOM_FRACTION must be between 0 and 1, got %v", c.TriggerBottomFraction)
	}
	if c.TriggerTopOffset >= c.ViewportHeight*(1-c.TriggerBottomFraction) {
		return fmt.Errorf("trigger zone is empty: TRIGGER_TOP_OFFSET %v exceeds the zone bottom %v",
			c.TriggerTopOffset, c.ViewportHeight*(1-c.TriggerBottomFraction))
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
