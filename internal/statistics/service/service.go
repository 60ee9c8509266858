// Package service provides business logic layer for statistics module.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/infraops/change-pipeline/internal/statistics/model"
	"github.com/infraops/change-pipeline/internal/statistics/repository"
)

// Service defines the interface for statistics business logic operations.
type Service interface {
	// GetQueueStatistics returns request counts per lifecycle status.
	GetQueueStatistics(ctx context.Context) (*model.QueueStatisticsResponse, error)

	// GetProcessorStatistics returns per-processor throughput.
	GetProcessorStatistics(ctx context.Context) (*model.ProcessorsStatisticsResponse, error)
}

type service struct {
	repo   repository.Repository
	logger *zap.SugaredLogger
}

// New creates a new statistics service instance.
func New(repo repository.Repository, logger *zap.SugaredLogger) Service {
	return &service{
		repo:   repo,
		logger: logger,
	}
}

// GetQueueStatistics returns request counts per lifecycle status.
func (s *service) GetQueueStatistics(ctx context.Context) (*model.QueueStatisticsResponse, error) {
	stats, err := s.repo.GetQueueStatistics(ctx)
	if err != nil {
		s.logger.Errorw("GetQueueStatistics failed", "error", err)
		return nil, err
	}

	return &model.QueueStatisticsResponse{Statistics: *stats}, nil
}

// GetProcessorStatistics returns per-processor throughput.
func (s *service) GetProcessorStatistics(ctx context.Context) (*model.ProcessorsStatisticsResponse, error) {
	processors, err := s.repo.GetProcessorStatistics(ctx)
	if err != nil {
		s.logger.Errorw("GetProcessorStatistics failed", "error", err)
		return nil, err
	}

	if processors == nil {
		processors = []model.ProcessorStatistics{}
	}

	return &model.ProcessorsStatisticsResponse{
		Processors: processors,
		Total:      len(processors),
	}, nil
}
