package config

import (
	"fmt"
	"time"
)

// WorkerConfig holds poll loop configuration.
type WorkerConfig struct {
	// PollInterval is the sleep between batches in continuous mode.
	PollInterval time.Duration
	// RunOnce makes the worker drain one batch and exit.
	RunOnce bool
}

// LoadWorkerConfigFromEnv loads worker configuration from environment variables.
func LoadWorkerConfigFromEnv() WorkerConfig {
	return WorkerConfig{
		PollInterval: GetEnvDuration("POLL_INTERVAL", 30*time.Second),
		RunOnce:      GetEnvBool("RUN_ONCE", false),
	}
}

// Validate validates worker configuration.
func (c WorkerConfig) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be greater than 0")
	}
	return nil
}
