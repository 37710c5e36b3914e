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

const exportColumns = `id, requester_id, format, status, filter_status, filter_type, file_path, failure_reason, created_at, updated_at, completed_at`

// ExportRepository persists export job rows.
type ExportRepository struct {
	db *sqlx.DB
}

// NewExportRepository constructs the repository.
func NewExportRepository(db *sqlx.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Create inserts a new export job.
func (r *ExportRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
		job.UpdatedAt = now
	}
	const query = `INSERT INTO export_jobs
	(id, requester_id, format, status, filter_status, filter_type, created_at, updated_at)
	VALUES (:id, :requester_id, :format, :status, :filter_status, :filter_type, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// GetByID fetches an export job.
func (r *ExportRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	query := `SELECT ` + exportColumns + ` FROM export_jobs WHERE id = $1`
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// ExportResultParams captures the terminal outcome of a job run.
type ExportResultParams struct {
	Status        models.ExportStatus
	FilePath      *string
	FailureReason *string
	CompletedAt   *time.Time
}

// UpdateResult records the job's status transition.
func (r *ExportRepository) UpdateResult(ctx context.Context, id string, params ExportResultParams) error {
	const query = `UPDATE export_jobs
	SET status = $1, file_path = $2, failure_reason = $3, completed_at = $4, updated_at = $5
	WHERE id = $6`
	result, err := r.db.ExecContext(ctx, query,
		params.Status, params.FilePath, params.FailureReason, params.CompletedAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update export job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check export update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListQueued returns jobs still waiting for a worker, oldest first.
func (r *ExportRepository) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + exportColumns + ` FROM export_jobs WHERE status = $1 ORDER BY created_at ASC LIMIT $2`
	var jobs []models.ExportJob
	if err := r.db.SelectContext(ctx, &jobs, query, models.ExportStatusQueued, limit); err != nil {
		return nil, fmt.Errorf("list queued export jobs: %w", err)
	}
	return jobs, nil
}
