// Package config loads and validates service configuration from a .env file,
// an optional config.yaml and TASKS_-prefixed environment variables. The
// resulting Config is built once at startup and passed to constructors.
package config
