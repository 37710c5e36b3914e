package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/confera/approvals-api/internal/models"
	appErrors "github.com/confera/approvals-api/pkg/errors"
)

type stakeholderStore interface {
	Create(ctx context.Context, stakeholder *models.WorkflowStakeholder) error
	ListByWorkflow(ctx context.Context, workflowID string) ([]models.WorkflowStakeholder, error)
	ListByStakeholder(ctx context.Context, stakeholderID string) ([]models.WorkflowStakeholder, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// StakeholderService manages the non-voting parties on a workflow. A
// stakeholder is pure visibility, so there is no status or review surface.
type StakeholderService struct {
	repo      stakeholderStore
	workflows workflowFinder
	logger    *zap.Logger
}

// NewStakeholderService constructs the service.
func NewStakeholderService(repo stakeholderStore, workflows workflowFinder, logger *zap.Logger) *StakeholderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StakeholderService{repo: repo, workflows: workflows, logger: logger}
}

// Add attaches a stakeholder to the workflow.
func (s *StakeholderService) Add(ctx context.Context, workflowID, stakeholderID string) (*models.WorkflowStakeholder, error) {
	if s.workflows != nil {
		if _, err := s.workflows.GetByID(ctx, workflowID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.ErrNotFound
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workflow")
		}
	}
	stakeholder := &models.WorkflowStakeholder{
		WorkflowID:    workflowID,
		StakeholderID: stakeholderID,
	}
	if err := s.repo.Create(ctx, stakeholder); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add stakeholder")
	}
	return stakeholder, nil
}

// ListForWorkflow returns stakeholders on a workflow.
func (s *StakeholderService) ListForWorkflow(ctx context.Context, workflowID string) ([]models.WorkflowStakeholder, error) {
	stakeholders, err := s.repo.ListByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list stakeholders")
	}
	return stakeholders, nil
}

// ListForUser returns the workflows a user is a stakeholder on.
func (s *StakeholderService) ListForUser(ctx context.Context, stakeholderID string) ([]models.WorkflowStakeholder, error) {
	stakeholders, err := s.repo.ListByStakeholder(ctx, stakeholderID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list stakeholder rows")
	}
	return stakeholders, nil
}

// Remove detaches a stakeholder row.
func (s *StakeholderService) Remove(ctx context.Context, id string) (bool, error) {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove stakeholder")
	}
	return removed, nil
}
