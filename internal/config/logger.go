package config

import "fmt"

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	// Level is the logging level (debug, info, warn, error).
	Level string
	// Format is the logging format (json, console).
	Format string
	// Output is the output destination (stdout, stderr, or file path).
	Output string
}

// LoadLoggerConfigFromEnv loads logger configuration from environment variables.
func LoadLoggerConfigFromEnv() LoggerConfig {
	return LoggerConfig{
		Level:  GetEnv("LOG_LEVEL", "info"),
		Format: GetEnv("LOG_FORMAT", "json"),
		Output: GetEnv("LOG_OUTPUT", "stdout"),
	}
}

// Validate validates logger configuration.
func (c LoggerConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be: debug, info, warn, error)", c.Level)
	}

	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s (must be: json, console)", c.Format)
	}

	return nil
}

// IsProduction returns true if logger is configured for production.
func (c LoggerConfig) IsProduction() bool {
	return c.Format == "json" && c.Level != "debug"
}
