package dto

import (
	"time"

	"github.com/confera/approvals-api/internal/models"
)

// CreateExportRequest asks for a rendered snapshot of the workflow register.
type CreateExportRequest struct {
	Format   models.ExportFormat `json:"format" validate:"required"`
	Status   string              `json:"status"`
	ItemType string              `json:"item_type"`
}

// ExportJobResponse augments the stored job with a signed download link once
// the file is ready.
type ExportJobResponse struct {
	models.ExportJob
	DownloadURL string     `json:"download_url,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}
