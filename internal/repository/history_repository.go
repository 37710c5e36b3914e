package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/confera/approvals-api/internal/models"
)

// HistoryRepository persists the append-only audit ledger. There is no
// update or single-row delete on purpose; rows only go away with the whole
// workflow through the cascade.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository constructs the repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create appends one ledger row.
func (r *HistoryRepository) Create(ctx context.Context, entry *models.WorkflowHistory) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO workflow_history (id, workflow_id, user_id, action, created_at)
	VALUES (:id, :workflow_id, :user_id, :action, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// ListByWorkflow returns the ledger for a workflow, most recent first.
func (r *HistoryRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]models.WorkflowHistory, error) {
	const query = `SELECT id, workflow_id, user_id, action, created_at
	FROM workflow_history WHERE workflow_id = $1 ORDER BY created_at DESC`
	var entries []models.WorkflowHistory
	if err := r.db.SelectContext(ctx, &entries, query, workflowID); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}
