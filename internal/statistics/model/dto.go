// Package model provides data transfer objects for statistics module.
package model

import "time"

// QueueStatistics represents the request counts per lifecycle status.
type QueueStatistics struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

// QueueStatisticsResponse represents response for queue statistics.
type QueueStatisticsResponse struct {
	Statistics QueueStatistics `json:"statistics"`
}

// ProcessorStatistics represents the throughput of one processor identity.
type ProcessorStatistics struct {
	ProcessorID     string     `json:"processor_id"`
	Completed       int        `json:"completed"`
	Failed          int        `json:"failed"`
	LastProcessedAt *time.Time `json:"last_processed_at,omitempty"`
}

// ProcessorsStatisticsResponse represents response for processor statistics.
type ProcessorsStatisticsResponse struct {
	Processors []ProcessorStatistics `json:"processors"`
	Total      int                   `json:"total"`
}
