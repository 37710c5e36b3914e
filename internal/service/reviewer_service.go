package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/confera/approvals-api/internal/dto"
	"github.com/confera/approvals-api/internal/models"
	appErrors "github.com/confera/approvals-api/pkg/errors"
)

type reviewerStore interface {
	Create(ctx context.Context, reviewer *models.WorkflowReviewer) error
	GetByID(ctx context.Context, id string) (*models.WorkflowReviewer, error)
	ListByWorkflow(ctx context.Context, workflowID string) ([]models.WorkflowReviewer, error)
	ListByReviewer(ctx context.Context, reviewerID string) ([]models.WorkflowReviewer, error)
	SubmitReview(ctx context.Context, id string, status models.ReviewerStatus, comments *string) error
	Delete(ctx context.Context, id string) (bool, error)
}

type workflowFinder interface {
	GetByID(ctx context.Context, id string) (*models.ApprovalWorkflow, error)
}

// ReviewerService manages the approvers attached to a workflow. Votes are
// recorded per reviewer row and never touch the parent workflow's status;
// turning votes into an overall decision is the caller's policy.
type ReviewerService struct {
	repo      reviewerStore
	workflows workflowFinder
	logger    *zap.Logger
}

// NewReviewerService constructs the service.
func NewReviewerService(repo reviewerStore, workflows workflowFinder, logger *zap.Logger) *ReviewerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewerService{repo: repo, workflows: workflows, logger: logger}
}

// Add assigns a reviewer to the workflow with a pending vote.
func (s *ReviewerService) Add(ctx context.Context, workflowID, reviewerID string) (*models.WorkflowReviewer, error) {
	if err := s.ensureWorkflow(ctx, workflowID); err != nil {
		return nil, err
	}
	reviewer := &models.WorkflowReviewer{
		WorkflowID: workflowID,
		ReviewerID: reviewerID,
		Status:     models.ReviewerStatusPending,
	}
	if err := s.repo.Create(ctx, reviewer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add reviewer")
	}
	return reviewer, nil
}

// ListForWorkflow returns every reviewer on the workflow.
func (s *ReviewerService) ListForWorkflow(ctx context.Context, workflowID string) ([]models.WorkflowReviewer, error) {
	reviewers, err := s.repo.ListByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviewers")
	}
	return reviewers, nil
}

// ListForUser returns a user's review assignments across workflows.
func (s *ReviewerService) ListForUser(ctx context.Context, reviewerID string) ([]models.WorkflowReviewer, error) {
	reviewers, err := s.repo.ListByReviewer(ctx, reviewerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	return reviewers, nil
}

// SubmitReview records a vote on the reviewer row and stamps reviewed_at.
// The parent workflow is deliberately left alone.
func (s *ReviewerService) SubmitReview(ctx context.Context, reviewerRowID string, req dto.SubmitReviewRequest) (*models.WorkflowReviewer, error) {
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown review status %q", req.Status))
	}
	if err := s.repo.SubmitReview(ctx, reviewerRowID, req.Status, req.Comments); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit review")
	}
	reviewer, err := s.repo.GetByID(ctx, reviewerRowID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviewer")
	}
	s.logger.Info("review submitted",
		zap.String("reviewer_row_id", reviewerRowID),
		zap.String("status", string(req.Status)))
	return reviewer, nil
}

// Remove hard-deletes a reviewer row. A workflow may end up without any
// reviewers; the engine does not block that.
func (s *ReviewerService) Remove(ctx context.Context, reviewerRowID string) (bool, error) {
	removed, err := s.repo.Delete(ctx, reviewerRowID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove reviewer")
	}
	return removed, nil
}

func (s *ReviewerService) ensureWorkflow(ctx context.Context, workflowID string) error {
	if s.workflows == nil {
		return nil
	}
	if _, err := s.workflows.GetByID(ctx, workflowID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workflow")
	}
	return nil
}
