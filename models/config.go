// Package models defines configuration and the records exchanged between
// the aggregator, the scraper and their callers.
package models

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when no --config flag is given.
const DefaultConfigPath = "pulse.yaml"

// EnvPrefix namespaces environment overrides, e.g. PULSE_VIEWS_BASE_URL.
// Keys come from split field names only; there is no unprefixed fallback.
const EnvPrefix = "PULSE"

// Config is the complete runtime configuration.
type Config struct {
	Views   ViewsConfig   `yaml:"views"`
	Scraper ScraperConfig `yaml:"scraper"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
}

// ViewsConfig configures the counting service client and the aggregator.
type ViewsConfig struct {
	BaseURL              string        `yaml:"base_url" split_words:"true" validate:"required,url"`
	CountType            string        `yaml:"count_type" split_words:"true" validate:"required"`
	Lang                 string        `yaml:"lang" split_words:"true" validate:"required"`
	MainPaths            []string      `yaml:"main_paths" split_words:"true" validate:"dive,startswith=/"`
	FallbackContentPaths []string      `yaml:"fallback_content_paths" split_words:"true" validate:"dive,startswith=/"`
	Workers              int           `yaml:"workers" split_words:"true" validate:"min=1,max=16"`
	Retries              int           `yaml:"retries" split_words:"true" validate:"min=0,max=10"`
	RequestTimeout       time.Duration `yaml:"request_timeout" split_words:"true" validate:"gt=0"`
	BaseBackoff          time.Duration `yaml:"base_backoff" split_words:"true" validate:"gte=0"`
	MaxBackoff           time.Duration `yaml:"max_backoff" split_words:"true" validate:"gtefield=BaseBackoff"`
	MinBatchSize         int           `yaml:"min_batch_size" split_words:"true" validate:"min=1"`
	MaxBatchSize         int           `yaml:"max_batch_size" split_words:"true" validate:"gtefield=MinBatchSize"`
	BatchInterval        time.Duration `yaml:"batch_interval" split_words:"true" validate:"gte=0"`
}

// ScraperConfig configures link-preview scraping.
type ScraperConfig struct {
	CacheSize      int           `yaml:"cache_size" split_words:"true" validate:"min=1"`
	MaxHeadChars   int           `yaml:"max_head_chars" split_words:"true" validate:"min=1"`
	MaxScanBytes   int64         `yaml:"max_scan_bytes" split_words:"true" validate:"min=1"`
	RequestTimeout time.Duration `yaml:"request_timeout" split_words:"true" validate:"gt=0"`
	UserAgent      string        `yaml:"user_agent" split_words:"true"`
	DetectLanguage bool          `yaml:"detect_language" split_words:"true"`
	Languages      []string      `yaml:"languages" split_words:"true" validate:"dive,len=2"`
}

// CacheConfig selects the persistent key-value store backing TTL caches.
type CacheConfig struct {
	Backend string `yaml:"backend" split_words:"true" validate:"oneof=sqlite file memory"`
	Path    string `yaml:"path" split_words:"true"`
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level      string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" split_words:"true" validate:"oneof=console json"`
	File       string `yaml:"file" split_words:"true"`
	MaxSizeMB  int    `yaml:"max_size_mb" split_words:"true" validate:"min=0"`
	MaxBackups int    `yaml:"max_backups" split_words:"true" validate:"min=0"`
}

// ServerConfig configures `pulse serve`.
type ServerConfig struct {
	Addr string `yaml:"addr" split_words:"true" validate:"required"`
}

// DefaultConfig returns the configuration used when no file or env override is present.
func DefaultConfig() Config {
	return Config{
		Views: ViewsConfig{
			BaseURL:   "https://comments.example.com",
			CountType: "time",
			Lang:      "en-US",
			MainPaths: []string{"/", "/about", "/blog", "/projects"},
			FallbackContentPaths: []string{
				"/blog/hello-world",
			},
			Workers:        3,
			Retries:        2,
			RequestTimeout: 10 * time.Second,
			BaseBackoff:    time.Second,
			MaxBackoff:     5 * time.Second,
			MinBatchSize:   10,
			MaxBatchSize:   50,
			BatchInterval:  100 * time.Millisecond,
		},
		Scraper: ScraperConfig{
			CacheSize:      1000,
			MaxHeadChars:   60000,
			MaxScanBytes:   512 * 1024,
			RequestTimeout: 10 * time.Second,
			UserAgent:      "blog-pulse/1.0 (+link-preview)",
			Languages:      []string{"en", "de", "fr", "es"},
		},
		Cache: CacheConfig{
			Backend: "sqlite",
			Path:    "blog-pulse.db",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Server: ServerConfig{
			Addr: ":8787",
		},
	}
}

// LoadConfig reads path over the defaults, applies PULSE_* environment
// overrides and validates the result. A missing file at the default path is
// not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("invalid YAML in config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && path == DefaultConfigPath:
		default:
			return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints declared in the struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
