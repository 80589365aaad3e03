package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProgressBackendMemory   = "memory"
	ProgressBackendPostgres = "postgres"

	maxImportWorkers = 10
)

var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

type Config struct {
	DatabaseURL string `mapstructure:"database_url"`
	Port        string `mapstructure:"port"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`

	ImportWorkers          int           `mapstructure:"import_workers"`
	ImportWorkerEnabled    bool          `mapstructure:"import_worker_enabled"`
	ImportBatchSize        int           `mapstructure:"import_batch_size"`
	ImportPollInterval     time.Duration `mapstructure:"import_poll_interval"`
	ImportCancelCheckEvery int           `mapstructure:"import_cancel_check_every"`
	ImportMaxSkippedPct    int           `mapstructure:"import_max_skipped_percent"`

	PayloadRetention     time.Duration `mapstructure:"import_payload_retention"`
	PayloadScrubSchedule string        `mapstructure:"import_payload_scrub_schedule"`

	ProgressBackend string `mapstructure:"progress_backend"`
	ProgressBuffer  int    `mapstructure:"progress_buffer"`

	WebhookTimeout time.Duration `mapstructure:"webhook_timeout"`
	WebhookRPS     float64       `mapstructure:"webhook_rps"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", "")
	v.SetDefault("port", "8080")
	v.SetDefault("auto_migrate", true)
	v.SetDefault("max_upload_mb", 100)

	v.SetDefault("import_workers", 4)
	v.SetDefault("import_worker_enabled", true)
	v.SetDefault("import_batch_size", 1000)
	v.SetDefault("import_poll_interval", 500*time.Millisecond)
	v.SetDefault("import_cancel_check_every", 100)
	v.SetDefault("import_max_skipped_percent", 0)

	v.SetDefault("import_payload_retention", time.Duration(0))
	v.SetDefault("import_payload_scrub_schedule", "@hourly")

	v.SetDefault("progress_backend", ProgressBackendMemory)
	v.SetDefault("progress_buffer", 64)

	v.SetDefault("webhook_timeout", 5*time.Second)
	v.SetDefault("webhook_rps", 10.0)
}

// Load reads the configuration from the environment. Every key is the
// upper-cased field tag, e.g. IMPORT_BATCH_SIZE.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MaxUploadBytes is the largest accepted upload.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func (c *Config) normalize() error {
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}

	if c.ImportWorkers <= 0 {
		c.ImportWorkers = 1
	}
	if c.ImportWorkers > maxImportWorkers {
		c.ImportWorkers = maxImportWorkers
	}
	if c.ImportBatchSize <= 0 {
		c.ImportBatchSize = 1000
	}
	if c.ImportCancelCheckEvery <= 0 {
		c.ImportCancelCheckEvery = 100
	}
	if c.ImportMaxSkippedPct < 0 || c.ImportMaxSkippedPct > 100 {
		return fmt.Errorf("IMPORT_MAX_SKIPPED_PERCENT must be between 0 and 100, got %d", c.ImportMaxSkippedPct)
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 100
	}

	c.ProgressBackend = strings.ToLower(strings.TrimSpace(c.ProgressBackend))
	switch c.ProgressBackend {
	case ProgressBackendMemory, ProgressBackendPostgres:
	default:
		return fmt.Errorf("unknown PROGRESS_BACKEND %q", c.ProgressBackend)
	}
	return nil
}
