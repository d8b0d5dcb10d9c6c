package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the service reads,
// e.g. TASKS_SERVER_PORT or TASKS_DATABASE_URL.
const EnvPrefix = "TASKS"

var defaults = map[string]any{
	"server.port":                      8080,
	"server.log_level":                 "info",
	"server.shutdown_timeout_seconds":  15,
	"database.driver":                  "pgx",
	"database.url":                     "",
	"database.max_open_conns":          10,
	"database.auto_migrate":            false,
	"auth.jwt_secret":                  "",
	"auth.token_lifetime_minutes":      60,
	"events.amqp_url":                  "",
	"events.exchange":                  "tasks.events",
	"events.breaker_failure_threshold": 5,
	"events.breaker_timeout_seconds":   30,
	"events.queue_size":                256,
	"events.worker_count":              1,
	"rate_limit.enabled":               false,
	"rate_limit.redis_addr":            "",
	"rate_limit.requests":              100,
	"rate_limit.window_seconds":        60,
}

// Load reads configuration from a local .env file, an optional config.yaml
// in the working directory and TASKS_ environment variables, in increasing
// order of precedence, then validates the result.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
