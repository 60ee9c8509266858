// Package repository provides exclusive access to the change request queue.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/infraops/change-pipeline/internal/queue/model"
)

// Repository defines the queue client operations used by the pipeline.
type Repository interface {
	// ClaimNext atomically claims the next PENDING request for processorID.
	// Returns found=false (not an error) when the queue is empty.
	ClaimNext(ctx context.Context, processorID string) (*model.ChangeRequest, bool, error)

	// UpdateStatus writes a terminal status and its result metadata.
	// Idempotent; returns model.ErrRequestNotFound for an unknown id.
	UpdateStatus(ctx context.Context, requestID, status string, result model.Result) error

	// CountByStatus returns the number of requests in the given status.
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// New creates a new queue repository instance.
func New(db *gorm.DB) Repository {
	return &repository{db: db}
}

// claimSQL selects one claimable row and flips it to PROCESSING in a single
// statement. SKIP LOCKED guarantees two concurrent claimers never receive
// the same row; ordering is the queue's contract (priority, then age).
const claimSQL = `
UPDATE change_requests
SET status = ?, processor_id = ?, claimed_at = ?
WHERE id = (
	SELECT id FROM change_requests
	WHERE status = ?
	ORDER BY priority DESC, created_at ASC
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING *`

// ClaimNext atomically claims the next PENDING request for processorID.
func (r *repository) ClaimNext(
	ctx context.Context,
	processorID string,
) (*model.ChangeRequest, bool, error) {
	var req model.ChangeRequest
	var err error
	var found bool

	if r.db.Dialector.Name() == "sqlite" {
		// SQLite has no FOR UPDATE SKIP LOCKED; a serialized transaction
		// gives the same at-most-one-claim guarantee in tests.
		req, found, err = r.claimNextSQLite(ctx, processorID)
	} else {
		result := r.db.WithContext(ctx).
			Raw(claimSQL, model.StatusProcessing, processorID, time.Now(), model.StatusPending).
			Scan(&req)
		err = result.Error
		found = result.RowsAffected > 0
	}

	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	// A malformed claimed row is a queue fault, never a silent skip.
	if err := req.Validate(); err != nil {
		return nil, false, fmt.Errorf("claimed malformed request %q: %w", req.ID, err)
	}

	return &req, true, nil
}

// claimNextSQLite claims inside a transaction: select the head of the queue,
// then flip it only if it is still PENDING.
func (r *repository) claimNextSQLite(
	ctx context.Context,
	processorID string,
) (model.ChangeRequest, bool, error) {
	var req model.ChangeRequest
	found := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("status = ?", model.StatusPending).
			Order("priority DESC, created_at ASC").
			First(&req).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		now := time.Now()
		result := tx.Model(&model.ChangeRequest{}).
			Where("id = ? AND status = ?", req.ID, model.StatusPending).
			Updates(map[string]interface{}{
				"status":       model.StatusProcessing,
				"processor_id": processorID,
				"claimed_at":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Lost the race to another claimer.
			return nil
		}

		req.Status = model.StatusProcessing
		req.ProcessorID = processorID
		req.ClaimedAt = &now
		found = true
		return nil
	})

	return req, found, err
}

// UpdateStatus writes a terminal status and its result metadata.
func (r *repository) UpdateStatus(
	ctx context.Context,
	requestID, status string,
	result model.Result,
) error {
	if !model.IsTerminalStatus(status) {
		return fmt.Errorf("%w: %q", model.ErrInvalidStatus, status)
	}

	updates := map[string]interface{}{
		"status":       status,
		"processed_at": time.Now(),
	}
	if result.ProcessorID != "" {
		updates["processor_id"] = result.ProcessorID
	}
	if result.BranchURL != "" {
		updates["branch_url"] = result.BranchURL
	}
	if result.PRURL != "" {
		updates["pr_url"] = result.PRURL
	}
	if result.PRNumber != 0 {
		updates["pr_number"] = result.PRNumber
	}
	if result.ErrorMessage != "" {
		updates["error_message"] = result.ErrorMessage
	}

	res := r.db.WithContext(ctx).
		Model(&model.ChangeRequest{}).
		Where("id = ?", requestID).
		Updates(updates)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrRequestNotFound
	}

	return nil
}

// CountByStatus returns the number of requests in the given status.
func (r *repository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ChangeRequest{}).
		Where("status = ?", status).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
