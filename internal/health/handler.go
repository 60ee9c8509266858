// Package health provides the health check endpoint handler.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/infraops/change-pipeline/internal/database/database"
	"github.com/infraops/change-pipeline/internal/pipeline"
	"github.com/infraops/change-pipeline/internal/queue/model"
	"github.com/infraops/change-pipeline/internal/queue/repository"
)

// BatchStats reports the outcome of the most recent poll batch.
type BatchStats interface {
	LastStats() pipeline.Stats
}

// Handler handles health check requests.
type Handler struct {
	db     *gorm.DB
	queue  repository.Repository
	stats  BatchStats
	logger *zap.SugaredLogger
}

// New creates a new health handler instance. stats may be nil when no poll
// loop runs in this process.
func New(db *gorm.DB, queue repository.Repository, stats BatchStats, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		db:     db,
		queue:  queue,
		stats:  stats,
		logger: logger,
	}
}

// Response represents health check response.
type Response struct {
	Status          string          `json:"status"`
	PendingRequests int64           `json:"pending_requests"`
	LastBatch       *pipeline.Stats `json:"last_batch,omitempty"`
}

// Check handles GET /health request.
func (h *Handler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := database.HealthCheck(ctx, h.db); err != nil {
		h.logger.Warnw("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, Response{
			Status: "unhealthy",
		})
		return
	}

	pending, err := h.queue.CountByStatus(ctx, model.StatusPending)
	if err != nil {
		h.logger.Warnw("health check failed counting pending requests", "error", err)
		c.JSON(http.StatusServiceUnavailable, Response{
			Status: "unhealthy",
		})
		return
	}

	resp := Response{
		Status:          "ok",
		PendingRequests: pending,
	}
	if h.stats != nil {
		last := h.stats.LastStats()
		resp.LastBatch = &last
	}

	c.JSON(http.StatusOK, resp)
}
