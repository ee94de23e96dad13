package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobsweep/internal/model"
)

// EnvConfigPath names the environment variable consulted for the config file
// path when no --config flag is given.
const EnvConfigPath = "JOBSWEEP_CONFIG"

// Config is the root configuration for jobsweep.
type Config struct {
	Sources      []model.SourceConfig
	Run          RunConfig
	Schedule     string // cron expression or descriptor for `jobsweep start`
	RateLimit    RateLimitConfig
	Notification NotificationConfig
	Store        StoreConfig
	Export       ExportConfig
	Upload       UploadConfig
	Log          LogConfig
}

// RunConfig controls a single run.
type RunConfig struct {
	Limit         int
	Delay         time.Duration
	Timeout       time.Duration
	Concurrency   int
	AdaptiveDelay bool
	MaxRetries    int
	OutputDir     string
}

// RateLimitConfig controls per-host pacing shared by all sources on one ATS.
type RateLimitConfig struct {
	MinDelay time.Duration
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type         string `yaml:"type"`          // "log", "slack" or "redis"
	WebhookURL   string `yaml:"webhook_url"`   // required if type is "slack"
	RedisURL     string `yaml:"redis_url"`     // required if type is "redis", e.g. redis://localhost:6379/0
	RedisChannel string `yaml:"redis_channel"` // defaults to "jobsweep:runs"

	// Only new jobs matching these keywords are listed in notifications.
	TitleKeywords []string `yaml:"title_keywords"`
	Locations     []string `yaml:"locations"`
}

// StoreConfig points at the SQLite run archive. An empty path disables it.
type StoreConfig struct {
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"` // 0 keeps every run
}

// ExportConfig enables mirroring each snapshot into Postgres.
type ExportConfig struct {
	PostgresDSN string `yaml:"postgres_dsn"`
}

// UploadConfig enables copying run artifacts to S3.
type UploadConfig struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"` // S3-compatible stores
}

// LogConfig enables a rotated log file alongside stdout.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

const (
	defaultDelay        = 2 * time.Second
	defaultTimeout      = 30 * time.Second
	defaultOutputDir    = "output"
	defaultRedisChannel = "jobsweep:runs"
	defaultSchedule     = "@every 24h"
	maxConcurrency      = 16
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Sources      []rawSource        `yaml:"sources"`
	SourcesFile  string             `yaml:"sources_file"`
	Run          rawRunConfig       `yaml:"run"`
	Schedule     string             `yaml:"schedule"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Notification NotificationConfig `yaml:"notification"`
	Store        StoreConfig        `yaml:"store"`
	Export       ExportConfig       `yaml:"export"`
	Upload       UploadConfig       `yaml:"upload"`
	Log          LogConfig          `yaml:"log"`
}

type rawRunConfig struct {
	Limit         int    `yaml:"limit"`
	Delay         string `yaml:"delay"`
	Timeout       string `yaml:"timeout"`
	Concurrency   int    `yaml:"concurrency"`
	AdaptiveDelay bool   `yaml:"adaptive_delay"`
	MaxRetries    int    `yaml:"max_retries"`
	OutputDir     string `yaml:"output_dir"`
}

type rawRateLimitConfig struct {
	MinDelay string `yaml:"min_delay"`
}

// ResolvePath picks the config file: an explicit flag value, then
// $JOBSWEEP_CONFIG, then ./config.yaml.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return "config.yaml"
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	delay, err := parseDuration("run.delay", raw.Run.Delay, defaultDelay)
	if err != nil {
		return nil, err
	}
	timeout, err := parseDuration("run.timeout", raw.Run.Timeout, defaultTimeout)
	if err != nil {
		return nil, err
	}
	minDelay, err := parseDuration("rate_limit.min_delay", raw.RateLimit.MinDelay, 0)
	if err != nil {
		return nil, err
	}

	sources, err := inlineSources(raw.Sources)
	if err != nil {
		return nil, err
	}
	if raw.SourcesFile != "" {
		file := raw.SourcesFile
		if !filepath.IsAbs(file) {
			file = filepath.Join(filepath.Dir(path), file)
		}
		fromFile, err := LoadSources(file)
		if err != nil {
			return nil, err
		}
		sources = append(sources, fromFile...)
	}

	outputDir := raw.Run.OutputDir
	if outputDir == "" {
		outputDir = defaultOutputDir
	}
	concurrency := raw.Run.Concurrency
	if concurrency == 0 {
		concurrency = 1
	}
	schedule := raw.Schedule
	if schedule == "" {
		schedule = defaultSchedule
	}
	notification := raw.Notification
	if notification.Type == "" {
		notification.Type = "log"
	}
	if notification.Type == "redis" && notification.RedisChannel == "" {
		notification.RedisChannel = defaultRedisChannel
	}

	cfg := &Config{
		Sources: sources,
		Run: RunConfig{
			Limit:         raw.Run.Limit,
			Delay:         delay,
			Timeout:       timeout,
			Concurrency:   concurrency,
			AdaptiveDelay: raw.Run.AdaptiveDelay,
			MaxRetries:    raw.Run.MaxRetries,
			OutputDir:     outputDir,
		},
		Schedule:     schedule,
		RateLimit:    RateLimitConfig{MinDelay: minDelay},
		Notification: notification,
		Store:        raw.Store,
		Export:       raw.Export,
		Upload:       raw.Upload,
		Log:          raw.Log,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(field, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, raw, err)
	}
	return d, nil
}

// EnabledSources returns the sources that take part in a run.
func (c *Config) EnabledSources() []model.SourceConfig {
	var out []model.SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func validate(cfg *Config) error {
	var errs []error

	if len(cfg.EnabledSources()) == 0 {
		errs = append(errs, errors.New("at least one source must be enabled"))
	}
	seen := make(map[string]bool, len(cfg.Sources))
	for _, s := range cfg.Sources {
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("duplicate source id %q", s.ID))
		}
		seen[s.ID] = true
	}

	if cfg.Run.Limit < 0 {
		errs = append(errs, fmt.Errorf("run.limit must not be negative, got %d", cfg.Run.Limit))
	}
	if cfg.Run.Delay < 0 {
		errs = append(errs, fmt.Errorf("run.delay must not be negative, got %v", cfg.Run.Delay))
	}
	if cfg.Run.Timeout < 0 {
		errs = append(errs, fmt.Errorf("run.timeout must not be negative, got %v", cfg.Run.Timeout))
	}
	if cfg.Run.Concurrency < 1 || cfg.Run.Concurrency > maxConcurrency {
		errs = append(errs, fmt.Errorf("run.concurrency must be between 1 and %d, got %d", maxConcurrency, cfg.Run.Concurrency))
	}
	if cfg.Run.MaxRetries < 0 || cfg.Run.MaxRetries > 1 {
		errs = append(errs, fmt.Errorf("run.max_retries must be 0 or 1, got %d", cfg.Run.MaxRetries))
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			errs = append(errs, errors.New("notification.webhook_url is required when type is \"slack\""))
		} else if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			errs = append(errs, errors.New("notification.webhook_url must start with https://hooks.slack.com/"))
		}
	case "redis":
		if cfg.Notification.RedisURL == "" {
			errs = append(errs, errors.New("notification.redis_url is required when type is \"redis\""))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown notification.type %q", cfg.Notification.Type))
	}

	if cfg.Store.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("store.retention_days must not be negative, got %d", cfg.Store.RetentionDays))
	}
	if cfg.Upload.Bucket == "" && cfg.Upload.Prefix != "" {
		errs = append(errs, errors.New("upload.prefix set without upload.bucket"))
	}

	return errors.Join(errs...)
}
