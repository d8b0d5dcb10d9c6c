package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"   validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"       validate:"required"`
	Events    EventsConfig    `mapstructure:"events"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port"                     validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level"                validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
}

// ShutdownTimeout is how long in-flight requests get to finish on shutdown.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
// Driver is "pgx" for PostgreSQL or "sqlite" for an embedded database.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"         validate:"required,oneof=pgx postgres sqlite"`
	URL          string `mapstructure:"url"            validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

// AuthConfig contains bearer token settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gte=1"`
}

// TokenLifetime is how long an issued token stays valid.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}

// EventsConfig controls publishing of task events to RabbitMQ.
// Publishing is disabled when AMQPURL is empty.
type EventsConfig struct {
	AMQPURL                 string `mapstructure:"amqp_url"                  validate:"omitempty,url"`
	Exchange                string `mapstructure:"exchange"                  validate:"required_with=AMQPURL"`
	BreakerFailureThreshold int    `mapstructure:"breaker_failure_threshold" validate:"gte=1"`
	BreakerTimeoutSeconds   int    `mapstructure:"breaker_timeout_seconds"   validate:"gte=1"`
	// QueueSize bounds the events waiting to be published.
	QueueSize int `mapstructure:"queue_size" validate:"gte=1"`
	// WorkerCount above 1 gives up per-task event ordering.
	WorkerCount int `mapstructure:"worker_count" validate:"gte=1"`
}

// BreakerTimeout is how long the publisher circuit stays open.
func (c EventsConfig) BreakerTimeout() time.Duration {
	return time.Duration(c.BreakerTimeoutSeconds) * time.Second
}

// RateLimitConfig controls the per-person request limiter.
type RateLimitConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	RedisAddr     string `mapstructure:"redis_addr"     validate:"required_if=Enabled true"`
	Requests      int    `mapstructure:"requests"       validate:"gte=1"`
	WindowSeconds int    `mapstructure:"window_seconds" validate:"gte=1"`
}

// Window is the length of the sliding window.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}
