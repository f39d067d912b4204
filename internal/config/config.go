package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/thinkingdata-korea/demo-data-generator/internal/rules"
	"github.com/thinkingdata-korea/demo-data-generator/internal/sim"
)

// DateLayout is the config-facing day format.
const DateLayout = "2006-01-02"

// Config is the full generation configuration. YAML is the primary
// source; any field with an env tag can be overridden through the
// environment, which wins over the file.
type Config struct {
	TaxonomyPath string `yaml:"taxonomy" env:"TDGEN_TAXONOMY"`
	OutputDir    string `yaml:"output_dir" env:"TDGEN_OUTPUT_DIR"`
	CachePath    string `yaml:"cache_path" env:"TDGEN_CACHE_PATH"`

	StartDate string `yaml:"start_date" env:"TDGEN_START_DATE"`
	EndDate   string `yaml:"end_date" env:"TDGEN_END_DATE"`

	Users        int     `yaml:"users" env:"TDGEN_USERS"`
	EventsPerDay float64 `yaml:"events_per_day" env:"TDGEN_EVENTS_PER_DAY"`
	Seed         int64   `yaml:"seed" env:"TDGEN_SEED"`
	Seeded       bool    `yaml:"-"`
	Workers      int     `yaml:"workers" env:"TDGEN_WORKERS"`
	Locale       string  `yaml:"locale" env:"TDGEN_LOCALE"`

	Provider string  `yaml:"provider" env:"TDGEN_PROVIDER"`
	Product  Product `yaml:"product"`

	SegmentRatios map[string]float64 `yaml:"segment_ratios"`
}

// Product identifies what is being simulated; it participates in the
// rule-cache key.
type Product struct {
	Name     string `yaml:"name" env:"TDGEN_PRODUCT_NAME"`
	Industry string `yaml:"industry" env:"TDGEN_PRODUCT_INDUSTRY"`
	Platform string `yaml:"platform" env:"TDGEN_PRODUCT_PLATFORM"`
}

// Default returns the built-in configuration before any file or
// environment is applied.
func Default() Config {
	return Config{
		OutputDir:    "output",
		CachePath:    "rules_cache.db",
		Users:        100,
		EventsPerDay: 20,
		Workers:      0, // GOMAXPROCS
		Locale:       "ko",
		Provider:     "cached",
		Product: Product{
			Name:     "demo",
			Industry: "game",
			Platform: "mobile_app",
		},
	}
}

// Load reads the YAML file at path (optional; empty path skips the
// file) and applies environment overrides. Validation is separate so
// callers can layer command-line flags on top first.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	// Seed presence before env so TDGEN_SEED alone marks the run seeded.
	cfg.Seeded = cfg.Seed != 0

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.Seed != 0 {
		cfg.Seeded = true
	}
	return cfg, nil
}

// Validate checks the parts that would otherwise fail deep inside a
// run.
func (c Config) Validate() error {
	if c.TaxonomyPath == "" {
		return fmt.Errorf("config: taxonomy path is required")
	}
	if c.Users <= 0 {
		return fmt.Errorf("config: users must be positive, got %d", c.Users)
	}
	start, end, err := c.DateRange()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("config: end_date %s precedes start_date %s", c.EndDate, c.StartDate)
	}
	total := 0.0
	for _, r := range c.SegmentRatios {
		if r < 0 {
			return fmt.Errorf("config: negative segment ratio")
		}
		total += r
	}
	if c.SegmentRatios != nil && total == 0 {
		return fmt.Errorf("config: segment ratios sum to zero")
	}
	return nil
}

// DateRange parses the configured generation window. Both dates
// default to yesterday, matching the usual "backfill up to today" use.
func (c Config) DateRange() (time.Time, time.Time, error) {
	yesterday := time.Now().AddDate(0, 0, -1)
	start, end := yesterday, yesterday

	var err error
	if c.StartDate != "" {
		start, err = time.Parse(DateLayout, c.StartDate)
		if err != nil {
			return start, end, fmt.Errorf("config: bad start_date %q: %w", c.StartDate, err)
		}
	}
	if c.EndDate != "" {
		end, err = time.Parse(DateLayout, c.EndDate)
		if err != nil {
			return start, end, fmt.Errorf("config: bad end_date %q: %w", c.EndDate, err)
		}
	}
	return start, end, nil
}

// Ratios converts the configured segment ratios to simulation segments.
// Nil means the built-in defaults.
func (c Config) Ratios() map[sim.Segment]float64 {
	if c.SegmentRatios == nil {
		return nil
	}
	out := make(map[sim.Segment]float64, len(c.SegmentRatios))
	for name, r := range c.SegmentRatios {
		out[sim.Segment(name)] = r
	}
	return out
}

// CacheProduct maps the product block to the rule-cache key input.
func (c Config) CacheProduct() rules.Product {
	return rules.Product{
		Industry: c.Product.Industry,
		Platform: c.Product.Platform,
		Name:     c.Product.Name,
	}
}
