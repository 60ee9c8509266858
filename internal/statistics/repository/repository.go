// Package repository provides data access layer for statistics module.
package repository

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	queueModel "github.com/infraops/change-pipeline/internal/queue/model"
	"github.com/infraops/change-pipeline/internal/statistics/model"
)

// Repository defines the interface for statistics data access operations.
type Repository interface {
	// GetQueueStatistics returns request counts per lifecycle status.
	GetQueueStatistics(ctx context.Context) (*model.QueueStatistics, error)

	// GetProcessorStatistics returns per-processor throughput for all
	// processor identities that ever recorded a terminal status.
	GetProcessorStatistics(ctx context.Context) ([]model.ProcessorStatistics, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new statistics repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{
		db:     db,
		logger: logger,
	}
}

// GetQueueStatistics returns request counts per lifecycle status.
func (r *repository) GetQueueStatistics(ctx context.Context) (*model.QueueStatistics, error) {
	var result struct {
		Total      int64 `gorm:"column:total"`
		Pending    int64 `gorm:"column:pending"`
		Processing int64 `gorm:"column:processing"`
		Completed  int64 `gorm:"column:completed"`
		Failed     int64 `gorm:"column:failed"`
	}

	err := r.db.WithContext(ctx).
		Table("change_requests").
		Select(`
			COUNT(*) as total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) as pending,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) as processing,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) as completed,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) as failed
		`,
			queueModel.StatusPending,
			queueModel.StatusProcessing,
			queueModel.StatusCompleted,
			queueModel.StatusFailed,
		).
		Scan(&result).Error

	if err != nil {
		r.logger.Errorw("GetQueueStatistics database error", "error", err)
		return nil, err
	}

	return &model.QueueStatistics{
		Pending:    int(result.Pending),
		Processing: int(result.Processing),
		Completed:  int(result.Completed),
		Failed:     int(result.Failed),
		Total:      int(result.Total),
	}, nil
}

// GetProcessorStatistics returns per-processor throughput.
func (r *repository) GetProcessorStatistics(ctx context.Context) ([]model.ProcessorStatistics, error) {
	var stats []model.ProcessorStatistics

	err := r.db.WithContext(ctx).
		Table("change_requests").
		Select(`
			processor_id,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) as completed,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) as failed,
			MAX(processed_at) as last_processed_at
		`,
			queueModel.StatusCompleted,
			queueModel.StatusFailed,
		).
		Where("processor_id <> '' AND status IN ?",
			[]string{queueModel.StatusCompleted, queueModel.StatusFailed}).
		Group("processor_id").
		Order("processor_id ASC").
		Scan(&stats).Error

	if err != nil {
		r.logger.Errorw("GetProcessorStatistics database error", "error", err)
		return nil, err
	}

	if stats == nil {
		stats = []model.ProcessorStatistics{}
	}

	return stats, nil
}
