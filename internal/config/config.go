package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/navdoc/internal/parser"
)

type Config struct {
	Port string

	// Documentation site
	Site         string // html directory or base URL
	SiteToken    string
	Root         string // tree file inside the site, navtreedata.js when empty
	Strict       bool
	SymbolTables []string
	Discover     bool

	// Auth
	APIKey string

	// Reload pool
	WorkerCount        int
	MaxQueueSize       int
	MaxConcurrentLoads int
	ReloadInterval     time.Duration

	// Link checking
	CheckConcurrency int

	// Remote sites
	HTTPTimeout time.Duration

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		Site:         os.Getenv("NAVDOC_SITE"),
		SiteToken:    os.Getenv("NAVDOC_SITE_TOKEN"),
		Root:         os.Getenv("NAVDOC_ROOT"),
		Strict:       envBool("NAVDOC_STRICT", false),
		SymbolTables: envList("NAVDOC_SYMBOL_TABLES"),
		Discover:     envBool("NAVDOC_DISCOVER", true),

		APIKey: os.Getenv("NAVDOC_API_KEY"),

		WorkerCount:        envInt("WORKER_COUNT", 1),
		MaxQueueSize:       envInt("MAX_QUEUE_SIZE", 16),
		MaxConcurrentLoads: envInt("MAX_CONCURRENT_LOADS", 8),
		ReloadInterval:     envDuration("RELOAD_INTERVAL", 0),

		CheckConcurrency: envInt("CHECK_CONCURRENCY", 8),

		HTTPTimeout: envDuration("HTTP_TIMEOUT", 30*time.Second),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.MaxConcurrentLoads <= 0 {
		cfg.MaxConcurrentLoads = 8
	}
	if cfg.CheckConcurrency <= 0 {
		cfg.CheckConcurrency = 8
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.ReloadInterval < 0 {
		cfg.ReloadInterval = 0
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.Site == "" {
		return fmt.Errorf("NAVDOC_SITE is required")
	}
	if c.Root != "" && !parser.IsSupportedExtension(c.Root) {
		return fmt.Errorf("NAVDOC_ROOT must be a .js, .json, .md or .html file, got %q", c.Root)
	}
	if c.ReloadInterval > 0 && c.ReloadInterval < time.Second {
		return fmt.Errorf("RELOAD_INTERVAL must be at least 1s, got %s", c.ReloadInterval)
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

// envList splits a comma-separated variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
