// Package pipeline drives claimed change requests through the hosting API.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/infraops/change-pipeline/internal/hosting"
	"github.com/infraops/change-pipeline/internal/queue/model"
	"github.com/infraops/change-pipeline/internal/queue/repository"
)

// Processor turns one claimed request into exactly one terminal status.
type Processor struct {
	hosting       hosting.Client
	queue         repository.Repository
	processorID   string
	baseBranch    string
	reviewerTeams []string
	logger        *zap.SugaredLogger
}

// NewProcessor creates a new request processor instance. baseBranch is the
// target used for requests that do not name one.
func NewProcessor(
	hostingClient hosting.Client,
	queue repository.Repository,
	processorID string,
	baseBranch string,
	reviewerTeams []string,
	logger *zap.SugaredLogger,
) *Processor {
	return &Processor{
		hosting:       hostingClient,
		queue:         queue,
		processorID:   processorID,
		baseBranch:    baseBranch,
		reviewerTeams: reviewerTeams,
		logger:        logger,
	}
}

// Process runs one request through branch creation, file commit, pull
// request creation, and reviewer assignment, then records COMPLETED.
//
// On error the caller records FAILED; Process itself never writes a FAILED
// status. A branch or commit left behind by a partial failure is not rolled
// back; the branch-exists guard surfaces it on any later attempt.
func (p *Processor) Process(ctx context.Context, req *model.ChangeRequest) error {
	targetBranch := req.TargetBranch
	if targetBranch == "" {
		targetBranch = p.baseBranch
	}

	exists, err := p.hosting.BranchExists(ctx, req.BranchName)
	if err != nil {
		return fmt.Errorf("check branch %q: %w", req.BranchName, err)
	}
	if exists {
		return fmt.Errorf("branch %q already exists", req.BranchName)
	}

	if err := p.hosting.CreateBranch(ctx, req.BranchName, targetBranch); err != nil {
		return fmt.Errorf("create branch %q from %q: %w", req.BranchName, targetBranch, err)
	}

	message := commitMessage(req)
	if err := p.hosting.CommitFile(ctx, req.BranchName, req.FileName, req.FileContent, message); err != nil {
		return fmt.Errorf("commit %q to %q: %w", req.FileName, req.BranchName, err)
	}

	number, prURL, err := p.hosting.CreatePullRequest(
		ctx, req.BranchName, req.PRTitle, pullRequestBody(req), targetBranch)
	if err != nil {
		return fmt.Errorf("create pull request for %q: %w", req.BranchName, err)
	}

	// Best effort: the pull request already exists, so a reviewer failure
	// must not change the request's outcome.
	if len(p.reviewerTeams) > 0 {
		if err := p.hosting.AddReviewers(ctx, number, p.reviewerTeams); err != nil {
			p.logger.Warnw("reviewer assignment failed",
				"request_id", req.ID,
				"pr_number", number,
				"teams", p.reviewerTeams,
				"error", err,
			)
		}
	}

	result := model.Result{
		BranchURL:   p.hosting.BranchURL(req.BranchName),
		PRURL:       prURL,
		PRNumber:    number,
		ProcessorID: p.processorID,
	}
	if err := p.queue.UpdateStatus(ctx, req.ID, model.StatusCompleted, result); err != nil {
		// Side effects succeeded but the queue row is now stale. Nothing in
		// the pipeline's authority can heal this; the operator reconciles it
		// out of band.
		p.logger.Errorw("status update failed after successful processing",
			"request_id", req.ID,
			"processor_id", p.processorID,
			"pr_url", prURL,
			"error", err,
		)
	}

	p.logger.Infow("change request completed",
		"request_id", req.ID,
		"pr_number", number,
		"pr_url", prURL,
	)
	return nil
}

// commitMessage embeds the originator and request id for traceability.
func commitMessage(req *model.ChangeRequest) string {
	return fmt.Sprintf("Add %s\n\nRequested-by: %s\nRequest-ID: %s",
		req.FileName, req.CreatedBy, req.ID)
}

// pullRequestBody appends the mandatory metadata footer to the request's
// own description. The footer is always present.
func pullRequestBody(req *model.ChangeRequest) string {
	footer := fmt.Sprintf(
		"---\n**Requested by:** %s\n**Request ID:** %s\n**Priority:** %d\n**Created at:** %s\n**File:** %s",
		req.CreatedBy,
		req.ID,
		req.Priority,
		req.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"),
		req.FileName,
	)
	if req.PRDescription == "" {
		return footer
	}
	return req.PRDescription + "\n\n" + footer
}
