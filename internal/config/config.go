// Package config loads pipeline configuration from a YAML file with
// environment overrides. Configuration errors are fatal and reported before
// any I/O against the target store happens.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Schema   SchemaConfig   `mapstructure:"schema"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Sources  []SourceConfig `mapstructure:"sources"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnString builds the PostgreSQL connection URL.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

type SchemaConfig struct {
	RulesPath string `mapstructure:"rules_path"`
}

type PipelineConfig struct {
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	Concurrent   bool          `mapstructure:"concurrent"`
}

// SourceConfig declares one input: where it is read from and which logical
// rule table governs its records.
type SourceConfig struct {
	Name  string `mapstructure:"name"`
	Table string `mapstructure:"table"`
	Path  string `mapstructure:"path"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	URL      string        `mapstructure:"url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Name    string `mapstructure:"name"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given file (or ./config.yaml and
// /etc/ntrace by default) plus NTRACE_-prefixed environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "neurotrace")
	v.SetDefault("database.user", "neurotrace")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("schema.rules_path", "configs/rules.yaml")
	v.SetDefault("pipeline.max_retries", 3)
	v.SetDefault("pipeline.retry_backoff", "200ms")
	v.SetDefault("pipeline.query_timeout", "10s")
	v.SetDefault("pipeline.concurrent", true)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.cache_ttl", "1h")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.name", "ntrace-pipeline")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/ntrace")
	}

	v.SetEnvPrefix("NTRACE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; an unreadable explicit one is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that everything a run depends on is present. It is called
// before any database connection is opened so a misconfigured destination
// never sees a partial run.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("database.database is required"))
	}
	if c.Database.User == "" {
		errs = append(errs, errors.New("database.user is required"))
	}
	if c.Database.Password == "" {
		errs = append(errs, errors.New("database.password is required"))
	}
	if c.Schema.RulesPath == "" {
		errs = append(errs, errors.New("schema.rules_path is required"))
	}
	if len(c.Sources) == 0 {
		errs = append(errs, errors.New("at least one source must be configured"))
	}

	names := make(map[string]bool, len(c.Sources))
	for i, src := range c.Sources {
		if src.Name == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: name is required", i))
			continue
		}
		if names[src.Name] {
			errs = append(errs, fmt.Errorf("sources[%d]: duplicate source name %q", i, src.Name))
		}
		names[src.Name] = true
		if src.Table == "" {
			errs = append(errs, fmt.Errorf("source %s: table is required", src.Name))
		}
		if src.Path == "" {
			errs = append(errs, fmt.Errorf("source %s: path is required", src.Name))
		}
	}

	if c.Pipeline.MaxRetries < 0 {
		errs = append(errs, errors.New("pipeline.max_retries must not be negative"))
	}

	return errors.Join(errs...)
}
