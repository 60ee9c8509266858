// Package handler provides HTTP handlers for statistics endpoints.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/infraops/change-pipeline/internal/statistics/service"
)

// Handler handles HTTP requests for statistics endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new statistics handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// GetQueueStatistics handles GET /statistics/queue request.
func (h *Handler) GetQueueStatistics(c *gin.Context) {
	resp, err := h.service.GetQueueStatistics(c.Request.Context())
	if err != nil {
		h.logger.Errorw("error getting queue statistics", "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetProcessorStatistics handles GET /statistics/processors request.
func (h *Handler) GetProcessorStatistics(c *gin.Context) {
	resp, err := h.service.GetProcessorStatistics(c.Request.Context())
	if err != nil {
		h.logger.Errorw("error getting processor statistics", "error", err)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, resp)
}
