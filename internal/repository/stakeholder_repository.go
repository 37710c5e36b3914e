package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/confera/approvals-api/internal/models"
)

// StakeholderRepository persists the non-voting parties of a workflow.
type StakeholderRepository struct {
	db *sqlx.DB
}

// NewStakeholderRepository constructs the repository.
func NewStakeholderRepository(db *sqlx.DB) *StakeholderRepository {
	return &StakeholderRepository{db: db}
}

// Create attaches a stakeholder to a workflow.
func (r *StakeholderRepository) Create(ctx context.Context, stakeholder *models.WorkflowStakeholder) error {
	if stakeholder.ID == "" {
		stakeholder.ID = uuid.NewString()
	}
	const query = `INSERT INTO workflow_stakeholders (id, workflow_id, stakeholder_id)
	VALUES (:id, :workflow_id, :stakeholder_id)`
	if _, err := r.db.NamedExecContext(ctx, query, stakeholder); err != nil {
		return fmt.Errorf("create stakeholder: %w", err)
	}
	return nil
}

// ListByWorkflow returns stakeholders on a workflow.
func (r *StakeholderRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]models.WorkflowStakeholder, error) {
	const query = `SELECT id, workflow_id, stakeholder_id FROM workflow_stakeholders WHERE workflow_id = $1`
	var stakeholders []models.WorkflowStakeholder
	if err := r.db.SelectContext(ctx, &stakeholders, query, workflowID); err != nil {
		return nil, fmt.Errorf("list stakeholders by workflow: %w", err)
	}
	return stakeholders, nil
}

// ListByStakeholder returns a user's stakeholder rows across workflows.
func (r *StakeholderRepository) ListByStakeholder(ctx context.Context, stakeholderID string) ([]models.WorkflowStakeholder, error) {
	const query = `SELECT id, workflow_id, stakeholder_id FROM workflow_stakeholders WHERE stakeholder_id = $1`
	var stakeholders []models.WorkflowStakeholder
	if err := r.db.SelectContext(ctx, &stakeholders, query, stakeholderID); err != nil {
		return nil, fmt.Errorf("list stakeholders by user: %w", err)
	}
	return stakeholders, nil
}

// Delete removes a stakeholder row, reporting whether one existed.
func (r *StakeholderRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflow_stakeholders WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete stakeholder: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check stakeholder delete rows: %w", err)
	}
	return rows > 0, nil
}
