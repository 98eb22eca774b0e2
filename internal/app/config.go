package app

import (
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/kelseyhightower/envconfig"

	"github.com/nanofresh/invoicer/internal/export"
	"github.com/nanofresh/invoicer/internal/platform/cache"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"45s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	GotenbergURL string `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000"`

	AutosaveDelay    time.Duration `envconfig:"AUTOSAVE_DELAY" default:"2s"`
	DraftTTL         time.Duration `envconfig:"DRAFT_TTL" default:"0s"`
	WorkspaceIdleTTL time.Duration `envconfig:"WORKSPACE_IDLE_TTL" default:"30m"`
	SnowflakeNode    int64         `envconfig:"SNOWFLAKE_NODE" default:"1"`

	ExportPrintWidth int     `envconfig:"EXPORT_PRINT_WIDTH" default:"794"`
	ExportScale      float64 `envconfig:"EXPORT_SCALE" default:"4"`
	ExportPageFormat string  `envconfig:"EXPORT_PAGE_FORMAT" default:"A4"`
	ExportRateLimit  int     `envconfig:"EXPORT_RATE_LIMIT" default:"10"`

	ArchiveEnabled       bool   `envconfig:"ARCHIVE_ENABLED" default:"false"`
	ArchiveDir           string `envconfig:"ARCHIVE_DIR" default:"./var/archive"`
	ArchiveRetentionDays int    `envconfig:"ARCHIVE_RETENTION_DAYS" default:"365"`
	WorkerConcurrency    int    `envconfig:"WORKER_CONCURRENCY" default:"5"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("session secret must be provided")
	}
	if c.CSRFSecret == "" {
		return errors.New("csrf secret must be provided")
	}
	if c.ExportPrintWidth <= 0 {
		return errors.New("export print width must be positive")
	}
	if c.ExportScale <= 0 {
		return errors.New("export scale must be positive")
	}
	if c.SnowflakeNode < 0 || c.SnowflakeNode > 1023 {
		return errors.New("snowflake node must be between 0 and 1023")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// RedisOptions returns the connection settings shared by every Redis user.
func (c *Config) RedisOptions() cache.Options {
	return cache.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// AsynqRedis returns the queue connection settings.
func (c *Config) AsynqRedis() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// ExportConfig returns the export pipeline settings.
func (c *Config) ExportConfig() export.Config {
	return export.Config{PrintWidth: c.ExportPrintWidth, Scale: c.ExportScale}
}
