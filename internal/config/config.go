package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Storage  StorageConfig  `env:",prefix=STORAGE_"`
	Database DatabaseConfig `env:",prefix=DB_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	Logger   LoggerConfig   `env:",prefix=LOG_"`
	S3       S3Config       `env:",prefix=S3_"`
	Notify   NotifyConfig   `env:",prefix=NOTIFY_"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host         string        `env:"HOST,default=0.0.0.0"`
	Port         int           `env:"PORT,default=8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=15s"`
}

// StorageConfig selects where campaigns and vouchers live.
type StorageConfig struct {
	Backend string `env:"BACKEND,default=memory"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string        `env:"HOST,default=localhost"`
	Port            int           `env:"PORT,default=5432"`
	User            string        `env:"USER,default=postgres"`
	Password        string        `env:"PASSWORD"`
	Database        string        `env:"NAME,default=discounter"`
	MaxConnections  int           `env:"MAX_CONNECTIONS,default=25"`
	MinConnections  int           `env:"MIN_CONNECTIONS,default=5"`
	MaxConnLifetime time.Duration `env:"MAX_CONN_LIFETIME,default=5m"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Address  string        `env:"ADDRESS,default=localhost:6379"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB,default=0"`
	LockTTL  time.Duration `env:"LOCK_TTL,default=5s"`
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `env:"LEVEL,default=info"`
	Format string `env:"FORMAT,default=json"` // "json" or "console"
}

// S3Config holds AWS S3 configuration for the issued-voucher drop.
type S3Config struct {
	Enabled bool   `env:"ENABLED,default=false"`
	Bucket  string `env:"BUCKET"`
	Region  string `env:"REGION,default=us-east-1"`
	Prefix  string `env:"PREFIX,default=vouchers/"` // Path prefix within bucket
}

// NotifyConfig holds local notification settings.
type NotifyConfig struct {
	File string `env:"FILE"` // JSON-lines journal; disabled when empty
}

// Load loads configuration from environment variables.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith loads configuration from the given lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	case BackendRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis address is required")
		}
		if c.Redis.LockTTL <= 0 {
			return fmt.Errorf("redis lock TTL must be positive")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be memory, postgres, or redis)", c.Storage.Backend)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

func (c *DatabaseConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
