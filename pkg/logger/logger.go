// Package logger builds the worker's structured zap logger.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appConfig "github.com/infraops/change-pipeline/internal/config"
)

// New creates a logger from environment configuration.
func New() (*zap.SugaredLogger, error) {
	return NewWithConfig(appConfig.LoadLoggerConfigFromEnv())
}

// NewWithConfig creates a logger with custom configuration.
func NewWithConfig(cfg appConfig.LoggerConfig) (*zap.SugaredLogger, error) {
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zapConfig.Encoding = "json"
	}

	// File output is not supported; anything that isn't stdout or stderr
	// falls back to stdout.
	if cfg.Output != "stdout" && cfg.Output != "stderr" {
		zapConfig.OutputPaths = []string{"stdout"}
	} else {
		zapConfig.OutputPaths = []string{cfg.Output}
	}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	zl, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return zl.Sugar(), nil
}
