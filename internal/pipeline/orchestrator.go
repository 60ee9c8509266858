package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/infraops/change-pipeline/internal/metrics"
	"github.com/infraops/change-pipeline/internal/queue/model"
	"github.com/infraops/change-pipeline/internal/queue/repository"
)

// requestProcessor is what the orchestrator needs from the processor.
type requestProcessor interface {
	Process(ctx context.Context, req *model.ChangeRequest) error
}

// Stats aggregates the outcome of one batch (one RunOnce invocation).
// Ephemeral; never persisted.
type Stats struct {
	Processed int      `json:"processed"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

// Orchestrator claims requests in a tight loop until the queue is empty and
// optionally repeats forever on a fixed interval.
type Orchestrator struct {
	queue       repository.Repository
	processor   requestProcessor
	processorID string
	interval    time.Duration
	recorder    *metrics.Recorder
	logger      *zap.SugaredLogger

	mu        sync.Mutex
	lastStats Stats
}

// NewOrchestrator creates a new poll loop orchestrator. recorder may be nil.
func NewOrchestrator(
	queue repository.Repository,
	processor requestProcessor,
	processorID string,
	interval time.Duration,
	recorder *metrics.Recorder,
	logger *zap.SugaredLogger,
) *Orchestrator {
	return &Orchestrator{
		queue:       queue,
		processor:   processor,
		processorID: processorID,
		interval:    interval,
		recorder:    recorder,
		logger:      logger,
	}
}

// RunOnce drains the queue: claim, process, record, repeat, until the queue
// reports empty. A request failure records FAILED and continues; only a
// claim-transport failure aborts the batch.
//
// Cancellation is observed between requests only. In-flight processing runs
// detached from ctx so a shutdown signal never abandons a claimed request
// mid-flight.
func (o *Orchestrator) RunOnce(ctx context.Context) (Stats, error) {
	stats := Stats{Errors: []string{}}
	procCtx := context.WithoutCancel(ctx)
	defer func() {
		o.mu.Lock()
		o.lastStats = stats
		o.mu.Unlock()
	}()

	for {
		if ctx.Err() != nil {
			o.logger.Infow("stopping batch early",
				"processor_id", o.processorID,
				"processed", stats.Processed,
			)
			break
		}

		req, found, err := o.queue.ClaimNext(ctx, o.processorID)
		if err != nil {
			return stats, fmt.Errorf("claim next request: %w", err)
		}
		if !found {
			break
		}

		stats.Processed++
		o.logger.Infow("processing change request",
			"request_id", req.ID,
			"branch", req.BranchName,
			"priority", req.Priority,
			"created_by", req.CreatedBy,
		)

		if err := o.processor.Process(procCtx, req); err != nil {
			stats.Failed++
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", req.ID, err))
			o.logger.Errorw("change request failed",
				"request_id", req.ID,
				"error", err,
			)

			failure := model.Result{
				ErrorMessage: err.Error(),
				ProcessorID:  o.processorID,
			}
			if uerr := o.queue.UpdateStatus(procCtx, req.ID, model.StatusFailed, failure); uerr != nil {
				o.logger.Errorw("failed to record FAILED status",
					"request_id", req.ID,
					"processor_id", o.processorID,
					"error", uerr,
				)
			}
			continue
		}

		stats.Succeeded++
	}

	return stats, nil
}

// LastStats returns a snapshot of the most recent batch's outcome. Zero
// until the first batch finishes. Safe to call from the operational server
// while a batch is running.
func (o *Orchestrator) LastStats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	snapshot := o.lastStats
	if o.lastStats.Errors != nil {
		snapshot.Errors = make([]string, len(o.lastStats.Errors))
		copy(snapshot.Errors, o.lastStats.Errors)
	}
	return snapshot
}

// RunContinuous loops RunOnce forever on the configured interval. A batch
// error is logged and survived; the loop ends only when ctx is done, after
// the current batch or sleep completes.
func (o *Orchestrator) RunContinuous(ctx context.Context) error {
	o.logger.Infow("starting continuous polling",
		"processor_id", o.processorID,
		"interval", o.interval,
	)

	for {
		start := time.Now()
		stats, err := o.RunOnce(ctx)
		duration := time.Since(start)

		if err != nil {
			// Connectivity loss to the queue must never kill the process;
			// the next tick retries.
			o.logger.Errorw("batch aborted",
				"error", err,
				"processed", stats.Processed,
				"duration", duration,
			)
		} else {
			o.logger.Infow("batch complete",
				"processed", stats.Processed,
				"succeeded", stats.Succeeded,
				"failed", stats.Failed,
				"duration", duration,
			)
		}

		if o.recorder != nil {
			o.recorder.ObserveBatch(stats.Succeeded, stats.Failed, duration)
		}

		select {
		case <-ctx.Done():
			o.logger.Infow("poll loop stopped", "processor_id", o.processorID)
			return nil
		case <-time.After(o.interval):
		}
	}
}
