package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrInvalidConfig               = errors.New("invalid configuration")
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string    `mapstructure:"env"` // current application environment (local, dev, production)
	TelegramAPIToken string    `mapstructure:"-"`   // Telegram API token loaded from environment
	DB               DB        `mapstructure:"database"`
	Scheduler        Scheduler `mapstructure:"scheduler"`
	Ranking          Ranking   `mapstructure:"ranking"`
	Reminders        Reminders `mapstructure:"reminders"`
}

// DB contains database-related configuration parameters.
type DB struct {
	Driver          string        `mapstructure:"driver"`            // postgres, sqlite or memory
	URL             string        `mapstructure:"-"`                 // postgres connection string loaded from environment
	SQLitePath      string        `mapstructure:"sqlite_path"`       // database file for the sqlite driver
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Scheduler tunes the review schedule and the retry of review writes.
type Scheduler struct {
	MinEasiness          float64       `mapstructure:"min_easiness"`
	InitialEasiness      float64       `mapstructure:"initial_easiness"`
	MaxIntervalDays      float64       `mapstructure:"max_interval_days"` // 0 disables the cap
	RetryAttempts        uint          `mapstructure:"retry_attempts"`
	RetryInitialInterval time.Duration `mapstructure:"retry_initial_interval"`
}

// Ranking holds the depth multipliers of the topic score.
type Ranking struct {
	DepthMultipliers DepthMultipliers `mapstructure:"depth_multipliers"`
}

// DepthMultipliers scale exam weight by required depth.
type DepthMultipliers struct {
	Master     float64 `mapstructure:"master"`
	Understand float64 `mapstructure:"understand"`
	Familiar   float64 `mapstructure:"familiar"`
}

// Reminders configures due-review notifications.
type Reminders struct {
	Enabled       bool          `mapstructure:"enabled"`
	Schedule      string        `mapstructure:"schedule"`        // cron spec
	MinGap        time.Duration `mapstructure:"min_gap"`         // minimum time between two reminders to one user
	RatePerSecond float64       `mapstructure:"rate_per_second"` // outgoing message pace
	MaxConcurrent int           `mapstructure:"max_concurrent"`
}

// Options control where Load looks for configuration.
type Options struct {
	RequireToken bool           // the bot needs a Telegram token, tools do not
	Flags        *pflag.FlagSet // optional command-line overrides
}

// Load reads configuration from .env, config files, environment variables and flags.
func Load(opts Options) (*Config, error) {
	// A missing .env file is fine, the environment may already be set.
	_ = godotenv.Load()

	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	setDefaults(v)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")

	if opts.Flags != nil {
		if err := v.BindPFlags(opts.Flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	if opts.RequireToken && cfg.TelegramAPIToken == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	cfg.DB.URL = v.GetString("database_url")
	if cfg.DB.Driver == DriverPostgres && cfg.DB.URL == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.sqlite_path", "data/study.db")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")

	v.SetDefault("scheduler.min_easiness", 1.3)
	v.SetDefault("scheduler.initial_easiness", 2.5)
	v.SetDefault("scheduler.max_interval_days", 0)
	v.SetDefault("scheduler.retry_attempts", 5)
	v.SetDefault("scheduler.retry_initial_interval", "50ms")

	v.SetDefault("ranking.depth_multipliers.master", 1.0)
	v.SetDefault("ranking.depth_multipliers.understand", 0.7)
	v.SetDefault("ranking.depth_multipliers.familiar", 0.4)

	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.schedule", "0 * * * *")
	v.SetDefault("reminders.min_gap", "4h")
	v.SetDefault("reminders.rate_per_second", 25)
	v.SetDefault("reminders.max_concurrent", 10)
}

// Validate rejects values the scheduler cannot work with.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.DB.Driver)
	}

	if c.Scheduler.MinEasiness <= 0 {
		return fmt.Errorf("%w: scheduler.min_easiness must be positive", ErrInvalidConfig)
	}
	if c.Scheduler.InitialEasiness < c.Scheduler.MinEasiness {
		return fmt.Errorf("%w: scheduler.initial_easiness below min_easiness", ErrInvalidConfig)
	}
	if c.Scheduler.MaxIntervalDays < 0 {
		return fmt.Errorf("%w: scheduler.max_interval_days is negative", ErrInvalidConfig)
	}
	if c.Scheduler.RetryAttempts == 0 {
		return fmt.Errorf("%w: scheduler.retry_attempts must be at least 1", ErrInvalidConfig)
	}

	m := c.Ranking.DepthMultipliers
	if m.Master < 0 || m.Understand < 0 || m.Familiar < 0 {
		return fmt.Errorf("%w: depth multipliers must not be negative", ErrInvalidConfig)
	}

	if c.Reminders.Enabled {
		if c.Reminders.RatePerSecond <= 0 || c.Reminders.MaxConcurrent <= 0 {
			return fmt.Errorf("%w: reminders need a positive rate and concurrency", ErrInvalidConfig)
		}
	}

	return nil
}
