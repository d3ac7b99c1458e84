package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Ledger drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `env:",prefix=SERVER_"`

	// Database configuration, used by the postgres ledger driver
	Database DatabaseConfig `env:",prefix=DB_"`

	// Ledger access configuration
	Ledger LedgerConfig `env:",prefix=LEDGER_"`

	// Campaign collection configuration
	Aggregator AggregatorConfig `env:",prefix=AGGREGATOR_"`

	// Redis configuration for the in-flight request guard
	Redis RedisConfig `env:",prefix=REDIS_"`

	// Application configuration
	App AppConfig `env:",prefix=APP_"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string `env:"PORT,default=8080"`
	Host         string `env:"HOST,default=0.0.0.0"`
	ReadTimeout  int    `env:"READ_TIMEOUT,default=30"`  // seconds
	WriteTimeout int    `env:"WRITE_TIMEOUT,default=30"` // seconds
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=postgres"`
	Password string `env:"PASSWORD,default=postgres"`
	Name     string `env:"NAME,default=flowfund"`
	SSLMode  string `env:"SSL_MODE,default=disable"`
	MaxConns int    `env:"MAX_CONNS,default=25"`
	MinConns int    `env:"MIN_CONNS,default=5"`
}

// LedgerConfig selects the ledger backend and tunes reads against it
type LedgerConfig struct {
	Driver          string  `env:"DRIVER,default=memory"`
	Admin           string  `env:"ADMIN,default=0x0000000000000000000000000000000000000001"`
	RateLimit       float64 `env:"RATE_LIMIT,default=50"` // reads per second
	Burst           int     `env:"BURST,default=10"`
	MaxRetries      uint    `env:"MAX_RETRIES,default=3"`
	BreakerFailures uint32  `env:"BREAKER_FAILURES,default=5"`
	BreakerTimeout  int     `env:"BREAKER_TIMEOUT,default=30"` // seconds
}

// AggregatorConfig holds campaign collection configuration
type AggregatorConfig struct {
	FetchConcurrency int `env:"FETCH_CONCURRENCY,default=4"`
	RefreshInterval  int `env:"REFRESH_INTERVAL,default=15"` // seconds, 0 disables polling
}

// RedisConfig holds Redis configuration. An empty URL keeps the guard in process.
type RedisConfig struct {
	URL         string `env:"URL"`
	InflightTTL int    `env:"INFLIGHT_TTL,default=120"` // seconds
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	Debug       bool   `env:"DEBUG,default=false"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot
func (c *Config) Validate() error {
	switch c.Ledger.Driver {
	case DriverMemory, DriverPostgres:
	default:
		return fmt.Errorf("unknown ledger driver %q", c.Ledger.Driver)
	}
	if c.Ledger.Admin == "" {
		return fmt.Errorf("ledger admin must be set")
	}
	if c.Aggregator.FetchConcurrency < 1 {
		return fmt.Errorf("aggregator fetch concurrency must be at least 1")
	}
	if c.Aggregator.RefreshInterval < 0 {
		return fmt.Errorf("aggregator refresh interval must not be negative")
	}
	return nil
}

// GetDatabaseURL returns the PostgreSQL connection URL
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// GetBreakerTimeout returns how long an open breaker waits before probing
func (c *LedgerConfig) GetBreakerTimeout() time.Duration {
	return time.Duration(c.BreakerTimeout) * time.Second
}

// GetRefreshInterval returns the background polling interval
func (c *AggregatorConfig) GetRefreshInterval() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Second
}

// GetInflightTTL returns how long a guard key lives if never released
func (c *RedisConfig) GetInflightTTL() time.Duration {
	return time.Duration(c.InflightTTL) * time.Second
}

// IsDevelopment returns true if running in development environment
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}
