// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Catalog       CatalogConfig       `yaml:"catalog"`
	Discovery     DiscoveryConfig     `yaml:"discovery"`
	Fetch         FetchConfig         `yaml:"fetch"`
	Snapshot      SnapshotConfig      `yaml:"snapshot"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Server        ServerConfig        `yaml:"server"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// CatalogConfig defines how the target storefront is reached.
type CatalogConfig struct {
	BaseURL        string          `yaml:"base_url"`
	CollectionPath string          `yaml:"collection_path"`
	UserAgent      string          `yaml:"user_agent"`
	RequestTimeout time.Duration   `yaml:"request_timeout"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// CollectionURL returns the absolute listing URL.
func (c *CatalogConfig) CollectionURL() string {
	return strings.TrimRight(c.BaseURL, "/") + c.CollectionPath
}

// RateLimitConfig defines outbound request rate limiting.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
	PerRun    int64   `yaml:"per_run"`
}

// DiscoveryConfig defines listing enumeration behavior.
type DiscoveryConfig struct {
	MaxPages    int           `yaml:"max_pages"`
	MinHandles  int           `yaml:"min_handles"`
	ScrollSteps int           `yaml:"scroll_steps"`
	ScrollPause time.Duration `yaml:"scroll_pause"`
}

// FetchConfig defines the concurrent extraction orchestrator.
type FetchConfig struct {
	Concurrency     int           `yaml:"concurrency"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryBaseDelay  time.Duration `yaml:"retry_base_delay"`
	EnrichInventory bool          `yaml:"enrich_inventory"`
}

// SnapshotConfig defines snapshot persistence.
type SnapshotConfig struct {
	Path string `yaml:"path"`
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled         bool          `yaml:"enabled"`
	WebhookURL      string        `yaml:"webhook_url"`
	NotifyWhenEmpty bool          `yaml:"notify_when_empty"`
	BatchPause      time.Duration `yaml:"batch_pause"`
}

// ServerConfig defines the watch-mode health/metrics listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ScheduleConfig defines the watch-mode run interval.
type ScheduleConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation. A missing file is not an error: every setting
// has a default, so Load falls back to the defaults-only configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		// Expand environment variables in the YAML content.
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config YAML: %w", err)
		}
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyCatalogDefaults(&cfg.Catalog)
	applyDiscoveryDefaults(&cfg.Discovery)
	applyFetchDefaults(&cfg.Fetch)
	applySnapshotDefaults(&cfg.Snapshot)
	applyNotificationDefaults(&cfg.Notifications)
	applyServerDefaults(&cfg.Server)
	applyScheduleDefaults(&cfg.Schedule)
	applyLoggingDefaults(&cfg.Logging)
}

func applyCatalogDefaults(c *CatalogConfig) {
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/120 Safari/537.36"
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 60 * time.Second
	}
	applyRateLimitDefaults(&c.RateLimit)
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 2.0
	}
	if r.Burst == 0 {
		r.Burst = 4
	}
	if r.PerRun == 0 {
		r.PerRun = 2000
	}
}

func applyDiscoveryDefaults(d *DiscoveryConfig) {
	if d.MaxPages == 0 {
		d.MaxPages = 20
	}
	if d.MinHandles == 0 {
		d.MinHandles = 3
	}
	if d.ScrollSteps == 0 {
		d.ScrollSteps = 8
	}
	if d.ScrollPause == 0 {
		d.ScrollPause = 800 * time.Millisecond
	}
}

func applyFetchDefaults(f *FetchConfig) {
	if f.Concurrency == 0 {
		f.Concurrency = 8
	}
	if f.MaxRetries == 0 {
		f.MaxRetries = 3
	}
	if f.RetryBaseDelay == 0 {
		f.RetryBaseDelay = 1500 * time.Millisecond
	}
}

func applySnapshotDefaults(s *SnapshotConfig) {
	if s.Path == "" {
		s.Path = "snapshot.json"
	}
}

func applyNotificationDefaults(n *NotificationsConfig) {
	if n.Discord.BatchPause == 0 {
		n.Discord.BatchPause = time.Second
	}
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.Interval == 0 {
		s.Interval = 15 * time.Minute
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Catalog.BaseURL == "" {
		errs = append(errs, fmt.Errorf("catalog.base_url is required"))
	} else if _, err := url.ParseRequestURI(cfg.Catalog.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("catalog.base_url is not a valid URL: %w", err))
	}

	if cfg.Catalog.CollectionPath == "" {
		errs = append(errs, fmt.Errorf("catalog.collection_path is required"))
	} else if !strings.HasPrefix(cfg.Catalog.CollectionPath, "/") {
		errs = append(errs, fmt.Errorf("catalog.collection_path must start with /"))
	}

	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.WebhookURL == "" {
		errs = append(errs, fmt.Errorf(
			"notifications.discord.webhook_url is required when discord is enabled",
		))
	}

	if cfg.Fetch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("fetch.concurrency must be at least 1"))
	}

	return errors.Join(errs...)
}
