package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/confera/approvals-api/internal/models"
)

const workflowColumns = `id, title, description, item_type, item_id, priority, status, due_date, requester_id, created_at, updated_at`

// WorkflowRepository persists approval workflows and owns the compound
// writes (status change + history append, cascading delete) that must stay
// atomic.
type WorkflowRepository struct {
	db *sqlx.DB
}

// NewWorkflowRepository constructs the repository.
func NewWorkflowRepository(db *sqlx.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// Create inserts a workflow together with its initial reviewer and
// stakeholder rows in a single transaction.
func (r *WorkflowRepository) Create(ctx context.Context, wf *models.ApprovalWorkflow, reviewerIDs, stakeholderIDs []string) error {
	if wf.ID == "" {
		wf.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if wf.CreatedAt.IsZero() {
		wf.CreatedAt = now
		wf.UpdatedAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create workflow tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertWorkflow = `INSERT INTO approval_workflows
	(id, title, description, item_type, item_id, priority, status, due_date, requester_id, created_at, updated_at)
	VALUES (:id, :title, :description, :item_type, :item_id, :priority, :status, :due_date, :requester_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertWorkflow, wf); err != nil {
		return fmt.Errorf("create workflow: %w", err)
	}

	const insertReviewer = `INSERT INTO workflow_reviewers (id, workflow_id, reviewer_id, status)
	VALUES ($1, $2, $3, $4)`
	for _, reviewerID := range reviewerIDs {
		if _, err := tx.ExecContext(ctx, insertReviewer, uuid.NewString(), wf.ID, reviewerID, models.ReviewerStatusPending); err != nil {
			return fmt.Errorf("create workflow reviewer: %w", err)
		}
	}

	const insertStakeholder = `INSERT INTO workflow_stakeholders (id, workflow_id, stakeholder_id)
	VALUES ($1, $2, $3)`
	for _, stakeholderID := range stakeholderIDs {
		if _, err := tx.ExecContext(ctx, insertStakeholder, uuid.NewString(), wf.ID, stakeholderID); err != nil {
			return fmt.Errorf("create workflow stakeholder: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create workflow: %w", err)
	}
	return nil
}

// GetByID fetches a workflow by identifier.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.ApprovalWorkflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM approval_workflows WHERE id = $1`
	var wf models.ApprovalWorkflow
	if err := r.db.GetContext(ctx, &wf, query, id); err != nil {
		return nil, err
	}
	return &wf, nil
}

// List returns workflows matching the filter, most recent first. ItemID is
// only applied together with ItemType so the pair filters with AND
// semantics.
func (r *WorkflowRepository) List(ctx context.Context, filter models.WorkflowFilter) ([]models.ApprovalWorkflow, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + workflowColumns + ` FROM approval_workflows`)

	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 4)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.ItemType != "" {
		args = append(args, filter.ItemType)
		conditions = append(conditions, fmt.Sprintf("item_type = $%d", len(args)))
		if filter.ItemID != nil {
			args = append(args, *filter.ItemID)
			conditions = append(conditions, fmt.Sprintf("item_id = $%d", len(args)))
		}
	}
	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	var workflows []models.ApprovalWorkflow
	if err := r.db.SelectContext(ctx, &workflows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	return workflows, nil
}

// UpdateWorkflowParams groups the columns a partial update may touch.
// Nil fields are left as they are; updated_at always advances.
type UpdateWorkflowParams struct {
	Title       *string
	Description *string
	Priority    *models.WorkflowPriority
	DueDate     *time.Time
}

// Update applies a partial update. Status is intentionally out of reach
// here; it only moves through UpdateStatusWithHistory.
func (r *WorkflowRepository) Update(ctx context.Context, id string, params UpdateWorkflowParams) error {
	setParts := []string{"updated_at = :updated_at"}
	values := map[string]interface{}{
		"id":         id,
		"updated_at": time.Now().UTC(),
	}
	if params.Title != nil {
		setParts = append(setParts, "title = :title")
		values["title"] = *params.Title
	}
	if params.Description != nil {
		setParts = append(setParts, "description = :description")
		values["description"] = *params.Description
	}
	if params.Priority != nil {
		setParts = append(setParts, "priority = :priority")
		values["priority"] = *params.Priority
	}
	if params.DueDate != nil {
		setParts = append(setParts, "due_date = :due_date")
		values["due_date"] = *params.DueDate
	}

	query := fmt.Sprintf("UPDATE approval_workflows SET %s WHERE id = :id", strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, values)
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check workflow update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatusWithHistory moves the workflow to the given status and appends
// the matching ledger row, committing both writes together or neither.
func (r *WorkflowRepository) UpdateStatusWithHistory(ctx context.Context, id string, status models.WorkflowStatus, actingUserID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status update tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`UPDATE approval_workflows SET status = $1, updated_at = $2 WHERE id = $3`,
		status, now, id)
	if err != nil {
		return fmt.Errorf("update workflow status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check status update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO workflow_history (id, workflow_id, user_id, action, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), id, actingUserID, models.StatusChangeAction(status), now); err != nil {
		return fmt.Errorf("append status history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status update: %w", err)
	}
	return nil
}

// DeleteCascade removes the workflow and every dependent row in one
// transaction. Children go first so referential constraints hold at every
// step: reviewers, stakeholders, comments, history, then the workflow.
// Returns false when no workflow row existed.
func (r *WorkflowRepository) DeleteCascade(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete workflow tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	childDeletes := []string{
		`DELETE FROM workflow_reviewers WHERE workflow_id = $1`,
		`DELETE FROM workflow_stakeholders WHERE workflow_id = $1`,
		`DELETE FROM workflow_comments WHERE workflow_id = $1`,
		`DELETE FROM workflow_history WHERE workflow_id = $1`,
	}
	for _, query := range childDeletes {
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return false, fmt.Errorf("delete workflow children: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM approval_workflows WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete workflow: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check workflow delete rows: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete workflow: %w", err)
	}
	return true, nil
}
