package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/confera/approvals-api/internal/models"
	appErrors "github.com/confera/approvals-api/pkg/errors"
)

type historyStore interface {
	Create(ctx context.Context, entry *models.WorkflowHistory) error
	ListByWorkflow(ctx context.Context, workflowID string) ([]models.WorkflowHistory, error)
}

// HistoryService exposes the append-only audit ledger. Status changes land
// here through the lifecycle manager's transaction; the API layer appends
// the remaining audit events (reviewer added, review submitted) directly.
type HistoryService struct {
	repo      historyStore
	workflows workflowFinder
	logger    *zap.Logger
}

// NewHistoryService constructs the service.
func NewHistoryService(repo historyStore, workflows workflowFinder, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{repo: repo, workflows: workflows, logger: logger}
}

// Append records one audit event against the workflow.
func (s *HistoryService) Append(ctx context.Context, workflowID, userID, action string) (*models.WorkflowHistory, error) {
	if action == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "history action is required")
	}
	if s.workflows != nil {
		if _, err := s.workflows.GetByID(ctx, workflowID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.ErrNotFound
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workflow")
		}
	}
	entry := &models.WorkflowHistory{
		WorkflowID: workflowID,
		UserID:     userID,
		Action:     action,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append history")
	}
	return entry, nil
}

// ListForWorkflow returns the ledger, most recent first.
func (s *HistoryService) ListForWorkflow(ctx context.Context, workflowID string) ([]models.WorkflowHistory, error) {
	entries, err := s.repo.ListByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list history")
	}
	return entries, nil
}
