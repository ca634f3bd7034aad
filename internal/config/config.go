package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shipdesk/shipdesk/internal/types"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Cache      CacheConfig
	Sentry     SentryConfig
	Sequence   SequenceConfig `validate:"required"`
	Billing    BillingConfig  `validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required,oneof=local production"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required,oneof=debug info warn error"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
}

type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// SequenceConfig controls how document numbers are issued
type SequenceConfig struct {
	// MinWidth is the zero padding of the sequence part, e.g. 3 for DEL-2025-001
	MinWidth int `mapstructure:"min_width" validate:"gte=1,lte=12"`
	// CounterEnabled issues numbers from the document_sequences counter table
	// instead of scanning the owning record table
	CounterEnabled bool `mapstructure:"counter_enabled"`
	// FallbackDigits is the number of epoch millisecond digits used when the store is unreachable
	FallbackDigits int `mapstructure:"fallback_digits" validate:"gte=3,lte=12"`
}

// BillingConfig controls monthly charge mutations
type BillingConfig struct {
	MaxRetries           uint64        `mapstructure:"max_retries" validate:"gte=1"`
	RetryInitialInterval time.Duration `mapstructure:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `mapstructure:"retry_max_interval"`
	LockClosedPeriods    bool          `mapstructure:"lock_closed_periods"`
}

func NewConfig() (*Configuration, error) {
	// A .env file is optional, values already present in the environment win
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shipdesk")

	v.SetEnvPrefix("SHIPDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	defaults := GetDefaultConfig()

	v.SetDefault("deployment.mode", defaults.Deployment.Mode)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("postgres.host", defaults.Postgres.Host)
	v.SetDefault("postgres.port", defaults.Postgres.Port)
	v.SetDefault("postgres.user", defaults.Postgres.User)
	v.SetDefault("postgres.dbname", defaults.Postgres.DBName)
	v.SetDefault("postgres.sslmode", defaults.Postgres.SSLMode)
	v.SetDefault("postgres.max_open_conns", defaults.Postgres.MaxOpenConns)
	v.SetDefault("postgres.max_idle_conns", defaults.Postgres.MaxIdleConns)
	v.SetDefault("postgres.conn_max_lifetime_minutes", defaults.Postgres.ConnMaxLifetimeMinutes)
	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.default_ttl", defaults.Cache.DefaultTTL)
	v.SetDefault("sentry.sample_rate", defaults.Sentry.SampleRate)
	v.SetDefault("sequence.min_width", defaults.Sequence.MinWidth)
	v.SetDefault("sequence.counter_enabled", defaults.Sequence.CounterEnabled)
	v.SetDefault("sequence.fallback_digits", defaults.Sequence.FallbackDigits)
	v.SetDefault("billing.max_retries", defaults.Billing.MaxRetries)
	v.SetDefault("billing.retry_initial_interval", defaults.Billing.RetryInitialInterval)
	v.SetDefault("billing.retry_max_interval", defaults.Billing.RetryMaxInterval)
	v.SetDefault("billing.lock_closed_periods", defaults.Billing.LockClosedPeriods)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Postgres: PostgresConfig{
			Host:                   "localhost",
			Port:                   5432,
			User:                   "shipdesk",
			DBName:                 "shipdesk",
			SSLMode:                "disable",
			MaxOpenConns:           10,
			MaxIdleConns:           5,
			ConnMaxLifetimeMinutes: 30,
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: 5 * time.Minute,
		},
		Sentry: SentryConfig{
			SampleRate: 0.1,
		},
		Sequence: SequenceConfig{
			MinWidth:       types.DefaultSequenceWidth,
			CounterEnabled: true,
			FallbackDigits: types.DefaultFallbackDigits,
		},
		Billing: BillingConfig{
			MaxRetries:           5,
			RetryInitialInterval: 20 * time.Millisecond,
			RetryMaxInterval:     500 * time.Millisecond,
			LockClosedPeriods:    true,
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
