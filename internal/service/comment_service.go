package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/confera/approvals-api/internal/models"
	appErrors "github.com/confera/approvals-api/pkg/errors"
)

type commentStore interface {
	Create(ctx context.Context, comment *models.WorkflowComment) error
	ListByWorkflow(ctx context.Context, workflowID string) ([]models.WorkflowComment, error)
	ListByUser(ctx context.Context, userID string) ([]models.WorkflowComment, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) (bool, error)
}

// CommentService manages the discussion thread on a workflow. Comments
// never influence workflow status or the history ledger.
type CommentService struct {
	repo      commentStore
	workflows workflowFinder
	logger    *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(repo commentStore, workflows workflowFinder, logger *zap.Logger) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{repo: repo, workflows: workflows, logger: logger}
}

// Add appends a comment to the workflow thread.
func (s *CommentService) Add(ctx context.Context, workflowID, userID, content string) (*models.WorkflowComment, error) {
	if content == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment content is required")
	}
	if s.workflows != nil {
		if _, err := s.workflows.GetByID(ctx, workflowID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.ErrNotFound
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workflow")
		}
	}
	comment := &models.WorkflowComment{
		WorkflowID: workflowID,
		UserID:     userID,
		Content:    content,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add comment")
	}
	return comment, nil
}

// ListForWorkflow returns the thread, most recent first.
func (s *CommentService) ListForWorkflow(ctx context.Context, workflowID string) ([]models.WorkflowComment, error) {
	comments, err := s.repo.ListByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}
	return comments, nil
}

// ListForUser returns a user's comments across all workflows.
func (s *CommentService) ListForUser(ctx context.Context, userID string) ([]models.WorkflowComment, error) {
	comments, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list user comments")
	}
	return comments, nil
}

// Edit replaces the content of a single comment in place.
func (s *CommentService) Edit(ctx context.Context, id, content string) error {
	if content == "" {
		return appErrors.Clone(appErrors.ErrValidation, "comment content is required")
	}
	if err := s.repo.UpdateContent(ctx, id, content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to edit comment")
	}
	return nil
}

// Remove deletes a single comment.
func (s *CommentService) Remove(ctx context.Context, id string) (bool, error) {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete comment")
	}
	return removed, nil
}
