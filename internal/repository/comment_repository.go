package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/confera/approvals-api/internal/models"
)

// CommentRepository persists workflow discussion entries.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository constructs the repository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create appends a comment to a workflow thread.
func (r *CommentRepository) Create(ctx context.Context, comment *models.WorkflowComment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO workflow_comments (id, workflow_id, user_id, content, created_at)
	VALUES (:id, :workflow_id, :user_id, :content, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// ListByWorkflow returns a workflow's thread, most recent first.
func (r *CommentRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]models.WorkflowComment, error) {
	const query = `SELECT id, workflow_id, user_id, content, created_at
	FROM workflow_comments WHERE workflow_id = $1 ORDER BY created_at DESC`
	var comments []models.WorkflowComment
	if err := r.db.SelectContext(ctx, &comments, query, workflowID); err != nil {
		return nil, fmt.Errorf("list comments by workflow: %w", err)
	}
	return comments, nil
}

// ListByUser returns a user's comments across all workflows.
func (r *CommentRepository) ListByUser(ctx context.Context, userID string) ([]models.WorkflowComment, error) {
	const query = `SELECT id, workflow_id, user_id, content, created_at
	FROM workflow_comments WHERE user_id = $1 ORDER BY created_at DESC`
	var comments []models.WorkflowComment
	if err := r.db.SelectContext(ctx, &comments, query, userID); err != nil {
		return nil, fmt.Errorf("list comments by user: %w", err)
	}
	return comments, nil
}

// UpdateContent replaces the content of a single comment.
func (r *CommentRepository) UpdateContent(ctx context.Context, id, content string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE workflow_comments SET content = $1 WHERE id = $2`, content, id)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check comment update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a single comment, reporting whether one existed.
func (r *CommentRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflow_comments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check comment delete rows: %w", err)
	}
	return rows > 0, nil
}
