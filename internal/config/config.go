// Package config provides environment-driven configuration for the worker.
package config

import "fmt"

// Config holds the full worker configuration.
type Config struct {
	// Logger holds logger configuration.
	Logger LoggerConfig
	// Server holds the operational HTTP server configuration.
	Server ServerConfig
	// GitHub holds hosting API configuration.
	GitHub GitHubConfig
	// Worker holds poll loop configuration.
	Worker WorkerConfig
	// GinMode is the Gin framework mode (debug, release, test).
	GinMode string
}

// LoadFromEnv loads all configuration from environment variables.
func LoadFromEnv() Config {
	return Config{
		Logger:  LoadLoggerConfigFromEnv(),
		Server:  LoadServerConfigFromEnv(),
		GitHub:  LoadGitHubConfigFromEnv(),
		Worker:  LoadWorkerConfigFromEnv(),
		GinMode: GetEnv("GIN_MODE", "release"),
	}
}

// Validate validates all configuration.
func (c Config) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger config validation failed: %w", err)
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := c.GitHub.Validate(); err != nil {
		return fmt.Errorf("github config validation failed: %w", err)
	}

	if err := c.Worker.Validate(); err != nil {
		return fmt.Errorf("worker config validation failed: %w", err)
	}

	validGinModes := map[string]bool{
		"debug":   true,
		"release": true,
		"test":    true,
	}
	if !validGinModes[c.GinMode] {
		return fmt.Errorf("invalid GIN_MODE: %s (must be: debug, release, test)", c.GinMode)
	}

	return nil
}
