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

const reviewerColumns = `id, workflow_id, reviewer_id, status, comments, reviewed_at`

// ReviewerRepository persists reviewer assignments and their votes.
type ReviewerRepository struct {
	db *sqlx.DB
}

// NewReviewerRepository constructs the repository.
func NewReviewerRepository(db *sqlx.DB) *ReviewerRepository {
	return &ReviewerRepository{db: db}
}

// Create inserts a reviewer assignment with a pending vote.
func (r *ReviewerRepository) Create(ctx context.Context, reviewer *models.WorkflowReviewer) error {
	if reviewer.ID == "" {
		reviewer.ID = uuid.NewString()
	}
	if reviewer.Status == "" {
		reviewer.Status = models.ReviewerStatusPending
	}
	const query = `INSERT INTO workflow_reviewers (id, workflow_id, reviewer_id, status, comments, reviewed_at)
	VALUES (:id, :workflow_id, :reviewer_id, :status, :comments, :reviewed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reviewer); err != nil {
		return fmt.Errorf("create reviewer: %w", err)
	}
	return nil
}

// GetByID fetches a reviewer row.
func (r *ReviewerRepository) GetByID(ctx context.Context, id string) (*models.WorkflowReviewer, error) {
	query := `SELECT ` + reviewerColumns + ` FROM workflow_reviewers WHERE id = $1`
	var reviewer models.WorkflowReviewer
	if err := r.db.GetContext(ctx, &reviewer, query, id); err != nil {
		return nil, err
	}
	return &reviewer, nil
}

// ListByWorkflow returns every reviewer assigned to the workflow.
func (r *ReviewerRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]models.WorkflowReviewer, error) {
	query := `SELECT ` + reviewerColumns + ` FROM workflow_reviewers WHERE workflow_id = $1`
	var reviewers []models.WorkflowReviewer
	if err := r.db.SelectContext(ctx, &reviewers, query, workflowID); err != nil {
		return nil, fmt.Errorf("list reviewers by workflow: %w", err)
	}
	return reviewers, nil
}

// ListByReviewer returns a user's assignments across all workflows.
func (r *ReviewerRepository) ListByReviewer(ctx context.Context, reviewerID string) ([]models.WorkflowReviewer, error) {
	query := `SELECT ` + reviewerColumns + ` FROM workflow_reviewers WHERE reviewer_id = $1`
	var reviewers []models.WorkflowReviewer
	if err := r.db.SelectContext(ctx, &reviewers, query, reviewerID); err != nil {
		return nil, fmt.Errorf("list reviewers by user: %w", err)
	}
	return reviewers, nil
}

// SubmitReview records the vote on a specific reviewer row. The parent
// workflow is never touched here.
func (r *ReviewerRepository) SubmitReview(ctx context.Context, id string, status models.ReviewerStatus, comments *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE workflow_reviewers SET status = $1, comments = $2, reviewed_at = $3 WHERE id = $4`,
		status, comments, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("submit review: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check review rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a reviewer row, reporting whether one existed.
func (r *ReviewerRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflow_reviewers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete reviewer: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check reviewer delete rows: %w", err)
	}
	return rows > 0, nil
}
