package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/infraops/change-pipeline/internal/statistics/model"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) GetQueueStatistics(ctx context.Context) (*model.QueueStatisticsResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QueueStatisticsResponse), args.Error(1)
}

func (m *mockService) GetProcessorStatistics(ctx context.Context) (*model.ProcessorsStatisticsResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProcessorsStatisticsResponse), args.Error(1)
}

func setupRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/statistics/queue", h.GetQueueStatistics)
	r.GET("/statistics/processors", h.GetProcessorStatistics)
	return r
}

func TestHandler_GetQueueStatistics(t *testing.T) {
	t.Run("returns statistics", func(t *testing.T) {
		svc := new(mockService)
		svc.On("GetQueueStatistics", mock.Anything).Return(&model.QueueStatisticsResponse{
			Statistics: model.QueueStatistics{Pending: 1, Completed: 2, Total: 3},
		}, nil)
		router := setupRouter(New(svc, zap.NewNop().Sugar()))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/statistics/queue", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp model.QueueStatisticsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.Statistics.Total)
	})

	t.Run("service failure returns 500", func(t *testing.T) {
		svc := new(mockService)
		svc.On("GetQueueStatistics", mock.Anything).Return(nil, errors.New("db down"))
		router := setupRouter(New(svc, zap.NewNop().Sugar()))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/statistics/queue", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	})
}

func TestHandler_GetProcessorStatistics(t *testing.T) {
	t.Run("returns processors", func(t *testing.T) {
		svc := new(mockService)
		svc.On("GetProcessorStatistics", mock.Anything).Return(&model.ProcessorsStatisticsResponse{
			Processors: []model.ProcessorStatistics{{ProcessorID: "proc-1", Completed: 4}},
			Total:      1,
		}, nil)
		router := setupRouter(New(svc, zap.NewNop().Sugar()))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/statistics/processors", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp model.ProcessorsStatisticsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Total)
		assert.Equal(t, "proc-1", resp.Processors[0].ProcessorID)
	})

	t.Run("service failure returns 500", func(t *testing.T) {
		svc := new(mockService)
		svc.On("GetProcessorStatistics", mock.Anything).Return(nil, errors.New("db down"))
		router := setupRouter(New(svc, zap.NewNop().Sugar()))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/statistics/processors", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
