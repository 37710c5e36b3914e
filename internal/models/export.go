package models

import "time"

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// Valid reports whether the format is renderable.
func (f ExportFormat) Valid() bool {
	return f == ExportFormatCSV || f == ExportFormatPDF
}

// ExportStatus tracks the lifecycle of an export job.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "queued"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusCompleted  ExportStatus = "completed"
	ExportStatusFailed     ExportStatus = "failed"
)

// ExportJob is a background request to render the workflow register to a file.
type ExportJob struct {
	ID            string       `db:"id" json:"id"`
	RequesterID   string       `db:"requester_id" json:"requester_id"`
	Format        ExportFormat `db:"format" json:"format"`
	Status        ExportStatus `db:"status" json:"status"`
	FilterStatus  *string      `db:"filter_status" json:"filter_status,omitempty"`
	FilterType    *string      `db:"filter_type" json:"filter_type,omitempty"`
	FilePath      *string      `db:"file_path" json:"-"`
	FailureReason *string      `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
	CompletedAt   *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
}
