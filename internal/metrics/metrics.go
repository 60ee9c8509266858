// Package metrics provides Prometheus-based metrics for the pipeline worker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records pipeline batch outcomes as Prometheus metrics.
type Recorder struct {
	requestsTotal *prometheus.CounterVec
	batchesTotal  prometheus.Counter
	batchDuration prometheus.Histogram
}

// NewRecorder creates a recorder registered on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_requests_processed_total",
				Help: "Total number of change requests processed by terminal status",
			},
			[]string{"status"},
		),
		batchesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pipeline_batches_total",
				Help: "Total number of completed poll batches",
			},
		),
		batchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pipeline_batch_duration_seconds",
				Help:    "Duration of one full queue drain in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// ObserveBatch records the outcome of one RunOnce batch.
func (r *Recorder) ObserveBatch(succeeded, failed int, duration time.Duration) {
	r.requestsTotal.WithLabelValues("completed").Add(float64(succeeded))
	r.requestsTotal.WithLabelValues("failed").Add(float64(failed))
	r.batchesTotal.Inc()
	r.batchDuration.Observe(duration.Seconds())
}
