// Package config provides configuration structures and validation for the
// application. Everything the watcher and API need (directory roots, model
// name, store connection, token settings) is passed in explicitly from here
// rather than read as ambient state, so tests can construct a Config pointing
// at temporary directories.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Auth        AuthConfig
	Postgres    PostgresConfig
	Watcher     WatcherConfig
	Model       ModelConfig
	Metrics     MetricsConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP API server settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// AuthConfig contains token issuance settings
type AuthConfig struct {
	JWTSecret   string
	TokenExpiry time.Duration
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// WatcherConfig contains the statement inbox layout and poll cadence.
// IncomingDir is polled; ProcessedDir receives normalized output plus the
// renamed raw originals; FailedDir receives raw originals that failed any
// stage; LogFile is the append-only event log. Owner is the username of the
// account imported rows are attributed to.
type WatcherConfig struct {
	IncomingDir  string
	ProcessedDir string
	FailedDir    string
	LogFile      string
	PollInterval time.Duration
	Owner        string
}

// ModelConfig contains settings for the external normalization model.
type ModelConfig struct {
	Name       string
	APIVersion string
	Timeout    time.Duration
}

// MetricsConfig contains the watcher's metrics listener settings.
type MetricsConfig struct {
	Addr string // empty disables the /metrics listener
}

// validate checks all configuration values meet minimum requirements.
func (c *Config) validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Auth.JWTSecret == "" {
		validationErrors = append(validationErrors, "AUTH_JWT_SECRET is required")
	}
	if c.Auth.TokenExpiry <= 0 {
		validationErrors = append(validationErrors, "AUTH_TOKEN_EXPIRY must be greater than 0")
	}

	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}

	if c.Watcher.IncomingDir == "" {
		validationErrors = append(validationErrors, "WATCHER_INCOMING_DIR is required")
	}
	if c.Watcher.ProcessedDir == "" {
		validationErrors = append(validationErrors, "WATCHER_PROCESSED_DIR is required")
	}
	if c.Watcher.FailedDir == "" {
		validationErrors = append(validationErrors, "WATCHER_FAILED_DIR is required")
	}
	if c.Watcher.LogFile == "" {
		validationErrors = append(validationErrors, "WATCHER_LOG_FILE is required")
	}
	if c.Watcher.PollInterval <= 0 {
		validationErrors = append(validationErrors, "WATCHER_POLL_INTERVAL must be greater than 0")
	}
	if c.Watcher.Owner == "" {
		validationErrors = append(validationErrors, "WATCHER_OWNER is required")
	}

	if c.Model.Name == "" {
		validationErrors = append(validationErrors, "MODEL_NAME is required")
	}
	if c.Model.Timeout <= 0 {
		validationErrors = append(validationErrors, "MODEL_TIMEOUT must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
