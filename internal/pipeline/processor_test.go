package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/infraops/change-pipeline/internal/queue/model"
)

type mockHosting struct {
	mock.Mock
}

func (m *mockHosting) BranchExists(ctx context.Context, branch string) (bool, error) {
	args := m.Called(ctx, branch)
	return args.Bool(0), args.Error(1)
}

func (m *mockHosting) CreateBranch(ctx context.Context, branch, baseBranch string) error {
	args := m.Called(ctx, branch, baseBranch)
	return args.Error(0)
}

func (m *mockHosting) CommitFile(ctx context.Context, branch, path, content, message string) error {
	args := m.Called(ctx, branch, path, content, message)
	return args.Error(0)
}

func (m *mockHosting) CreatePullRequest(ctx context.Context, branch, title, body, baseBranch string) (int, string, error) {
	args := m.Called(ctx, branch, title, body, baseBranch)
	return args.Int(0), args.String(1), args.Error(2)
}

func (m *mockHosting) AddReviewers(ctx context.Context, prNumber int, teams []string) error {
	args := m.Called(ctx, prNumber, teams)
	return args.Error(0)
}

func (m *mockHosting) BranchURL(branch string) string {
	args := m.Called(branch)
	return args.String(0)
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) ClaimNext(ctx context.Context, processorID string) (*model.ChangeRequest, bool, error) {
	args := m.Called(ctx, processorID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.ChangeRequest), args.Bool(1), args.Error(2)
}

func (m *mockQueue) UpdateStatus(ctx context.Context, requestID, status string, result model.Result) error {
	args := m.Called(ctx, requestID, status, result)
	return args.Error(0)
}

func (m *mockQueue) CountByStatus(ctx context.Context, status string) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func testRequest() *model.ChangeRequest {
	return &model.ChangeRequest{
		ID:            "r1",
		BranchName:    "feat/x",
		TargetBranch:  "main",
		FileName:      "user.yaml",
		FileContent:   "A: {}",
		PRTitle:       "Add user",
		PRDescription: "adds a user definition",
		CreatedBy:     "alice",
		Priority:      5,
		Status:        model.StatusProcessing,
		CreatedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestProcessor_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path records COMPLETED with PR metadata", func(t *testing.T) {
		hostingMock := new(mockHosting)
		queueMock := new(mockQueue)
		req := testRequest()

		hostingMock.On("BranchExists", ctx, "feat/x").Return(false, nil)
		hostingMock.On("CreateBranch", ctx, "feat/x", "main").Return(nil)
		hostingMock.On("CommitFile", ctx, "feat/x", "user.yaml", "A: {}",
			mock.MatchedBy(func(message string) bool {
				return assert.Contains(t, message, "alice") &&
					assert.Contains(t, message, "r1")
			})).Return(nil)
		hostingMock.On("CreatePullRequest", ctx, "feat/x", "Add user",
			mock.MatchedBy(func(body string) bool {
				// Footer is mandatory: creator, id, priority, file name.
				return assert.Contains(t, body, "adds a user definition") &&
					assert.Contains(t, body, "alice") &&
					assert.Contains(t, body, "r1") &&
					assert.Contains(t, body, "5") &&
					assert.Contains(t, body, "user.yaml")
			}), "main").Return(42, "https://host/org/repo/pull/42", nil)
		hostingMock.On("AddReviewers", ctx, 42, []string{"platform"}).Return(nil)
		hostingMock.On("BranchURL", "feat/x").Return("https://host/org/repo/tree/feat/x")
		queueMock.On("UpdateStatus", ctx, "r1", model.StatusCompleted, model.Result{
			BranchURL:   "https://host/org/repo/tree/feat/x",
			PRURL:       "https://host/org/repo/pull/42",
			PRNumber:    42,
			ProcessorID: "proc-1",
		}).Return(nil)

		p := NewProcessor(hostingMock, queueMock, "proc-1", "main", []string{"platform"}, zap.NewNop().Sugar())
		err := p.Process(ctx, req)

		require.NoError(t, err)
		hostingMock.AssertExpectations(t)
		queueMock.AssertExpectations(t)
		queueMock.AssertNumberOfCalls(t, "UpdateStatus", 1)
	})

	t.Run("empty target branch falls back to the configured base", func(t *testing.T) {
		hostingMock := new(mockHosting)
		queueMock := new(mockQueue)
		req := testRequest()
		req.TargetBranch = ""

		hostingMock.On("BranchExists", ctx, "feat/x").Return(false, nil)
		hostingMock.On("CreateBranch", ctx, "feat/x", "develop").Return(nil)
		hostingMock.On("CommitFile", ctx, "feat/x", "user.yaml", "A: {}", mock.Anything).Return(nil)
		hostingMock.On("CreatePullRequest", ctx, "feat/x", "Add user", mock.Anything, "develop").
			Return(7, "https://host/org/repo/pull/7", nil)
		hostingMock.On("BranchURL", "feat/x").Return("https://host/org/repo/tree/feat/x")
		queueMock.On("UpdateStatus", ctx, "r1", model.StatusCompleted, mock.Anything).Return(nil)

		p := NewProcessor(hostingMock, queueMock, "proc-1", "develop", nil, zap.NewNop().Sugar())
		require.NoError(t, p.Process(ctx, req))
		hostingMock.AssertExpectations(t)
	})

	t.Run("existing branch aborts before any mutation", func(t *testing.T) {
		hostingMock := new(mockHosting)
		queueMock := new(mockQueue)
		hostingMock.On("BranchExists", ctx, "feat/x").Return(true, nil)

		p := NewProcessor(hostingMock, queueMock, "proc-1", "main", nil, zap.NewNop().Sugar())
		err := p.Process(ctx, testRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
		hostingMock.AssertNotCalled(t, "CreateBranch", mock.Anything, mock.Anything, mock.Anything)
		hostingMock.AssertNotCalled(t, "CommitFile",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		hostingMock.AssertNotCalled(t, "CreatePullRequest",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		queueMock.AssertNotCalled(t, "UpdateStatus",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("branch probe failure propagates", func(t *testing.T) {
		hostingMock := new(mockHosting)
		queueMock := new(mockQueue)
		hostingMock.On("BranchExists", ctx, "feat/x").Return(false, errors.New("502 bad gateway"))

		p := NewProcessor(hostingMock, queueMock, "proc-1", "main", nil, zap.NewNop().Sugar())
		err := p.Process(ctx, testRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "check branch")
	})

	t.Run("commit failure aborts before PR creation", func(t *testing.T) {
		hostingMock := new(mockHosting)
		queueMock := new(mockQueue)
		hostingMock.On("BranchExists", ctx, "feat/x").Return(false, nil)
		hostingMock.On("CreateBranch", ctx, "feat/x", "main").Return(nil)
		hostingMock.On("CommitFile", ctx, "feat/x", "user.yaml", "A: {}", mock.Anything).
			Return(errors.New("409 conflict"))

		p := NewProcessor(hostingMock, queueMock, "proc-1", "main", nil, zap.NewNop().Sugar())
		err := p.Process(ctx, testRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "commit")
		hostingMock.AssertNotCalled(t, "CreatePullRequest",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		queueMock.AssertNotCalled(t, "UpdateStatus",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("reviewer failure is a warning, not a request failure", func(t *testing.T) {
		hostingMock := new(mockHosting)
		queueMock := new(mockQueue)
		hostingMock.On("BranchExists", ctx, "feat/x").Return(false, nil)
		hostingMock.On("CreateBranch", ctx, "feat/x", "main").Return(nil)
		hostingMock.On("CommitFile", ctx, "feat/x", "user.yaml", "A: {}", mock.Anything).Return(nil)
		hostingMock.On("CreatePullRequest", ctx, "feat/x", "Add user", mock.Anything, "main").
			Return(7, "https://host/org/repo/pull/7", nil)
		hostingMock.On("AddReviewers", ctx, 7, []string{"platform"}).
			Return(errors.New("403 forbidden"))
		hostingMock.On("BranchURL", "feat/x").Return("https://host/org/repo/tree/feat/x")
		queueMock.On("UpdateStatus", ctx, "r1", model.StatusCompleted, mock.Anything).Return(nil)

		p := NewProcessor(hostingMock, queueMock, "proc-1", "main", []string{"platform"}, zap.NewNop().Sugar())
		err := p.Process(ctx, testRequest())

		require.NoError(t, err)
		queueMock.AssertNumberOfCalls(t, "UpdateStatus", 1)
	})

	t.Run("no reviewer teams configured skips assignment", func(t *testing.T) {
		hostingMock := new(mockHosting)
		queueMock := new(mockQueue)
		hostingMock.On("BranchExists", ctx, "feat/x").Return(false, nil)
		hostingMock.On("CreateBranch", ctx, "feat/x", "main").Return(nil)
		hostingMock.On("CommitFile", ctx, "feat/x", "user.yaml", "A: {}", mock.Anything).Return(nil)
		hostingMock.On("CreatePullRequest", ctx, "feat/x", "Add user", mock.Anything, "main").
			Return(7, "https://host/org/repo/pull/7", nil)
		hostingMock.On("BranchURL", "feat/x").Return("https://host/org/repo/tree/feat/x")
		queueMock.On("UpdateStatus", ctx, "r1", model.StatusCompleted, mock.Anything).Return(nil)

		p := NewProcessor(hostingMock, queueMock, "proc-1", "main", nil, zap.NewNop().Sugar())
		require.NoError(t, p.Process(ctx, testRequest()))
		hostingMock.AssertNotCalled(t, "AddReviewers", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("COMPLETED status write failure does not fail the request", func(t *testing.T) {
		hostingMock := new(mockHosting)
		queueMock := new(mockQueue)
		hostingMock.On("BranchExists", ctx, "feat/x").Return(false, nil)
		hostingMock.On("CreateBranch", ctx, "feat/x", "main").Return(nil)
		hostingMock.On("CommitFile", ctx, "feat/x", "user.yaml", "A: {}", mock.Anything).Return(nil)
		hostingMock.On("CreatePullRequest", ctx, "feat/x", "Add user", mock.Anything, "main").
			Return(7, "https://host/org/repo/pull/7", nil)
		hostingMock.On("BranchURL", "feat/x").Return("https://host/org/repo/tree/feat/x")
		queueMock.On("UpdateStatus", ctx, "r1", model.StatusCompleted, mock.Anything).
			Return(errors.New("connection reset"))

		p := NewProcessor(hostingMock, queueMock, "proc-1", "main", nil, zap.NewNop().Sugar())
		err := p.Process(ctx, testRequest())

		// The PR exists; the stale queue row is the operator's to reconcile.
		require.NoError(t, err)
		queueMock.AssertNumberOfCalls(t, "UpdateStatus", 1)
	})
}

func TestPullRequestBody(t *testing.T) {
	t.Run("footer appended after description", func(t *testing.T) {
		body := pullRequestBody(testRequest())
		assert.Contains(t, body, "adds a user definition")
		assert.Contains(t, body, "**Requested by:** alice")
		assert.Contains(t, body, "**Request ID:** r1")
		assert.Contains(t, body, "**Priority:** 5")
		assert.Contains(t, body, "**File:** user.yaml")
		assert.Contains(t, body, "2025-06-01")
	})

	t.Run("footer present even without description", func(t *testing.T) {
		req := testRequest()
		req.PRDescription = ""
		body := pullRequestBody(req)
		assert.Contains(t, body, "**Request ID:** r1")
	})
}
