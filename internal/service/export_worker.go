package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/confera/approvals-api/internal/models"
	"github.com/confera/approvals-api/internal/repository"
	"github.com/confera/approvals-api/pkg/export"
	"github.com/confera/approvals-api/pkg/jobs"
)

type workflowLister interface {
	List(ctx context.Context, filter models.WorkflowFilter) ([]models.ApprovalWorkflow, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportWorker bridges queue jobs to the renderers. It loads the job row,
// builds the dataset, renders and stores the file, then records the outcome.
type ExportWorker struct {
	repo      exportJobStore
	workflows workflowLister
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
}

// NewExportWorker constructs the worker.
func NewExportWorker(repo exportJobStore, workflows workflowLister, fileStore fileStorage, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportWorker{
		repo:      repo,
		workflows: workflows,
		storage:   fileStore,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// Handle processes one queued export job.
func (w *ExportWorker) Handle(ctx context.Context, queued jobs.Job) error {
	job, err := w.repo.GetByID(ctx, queued.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", queued.ID, err)
	}
	if job.Status == models.ExportStatusCompleted {
		return nil
	}

	if err := w.repo.UpdateResult(ctx, job.ID, repository.ExportResultParams{Status: models.ExportStatusProcessing}); err != nil {
		return fmt.Errorf("mark export job processing: %w", err)
	}

	payload, err := w.render(ctx, job)
	if err != nil {
		w.markFailed(ctx, job.ID, err)
		return fmt.Errorf("render export %s: %w", job.ID, err)
	}

	relPath, err := w.storage.Save(buildExportFilename(job), payload)
	if err != nil {
		w.markFailed(ctx, job.ID, err)
		return fmt.Errorf("store export %s: %w", job.ID, err)
	}

	now := time.Now().UTC()
	if err := w.repo.UpdateResult(ctx, job.ID, repository.ExportResultParams{
		Status:      models.ExportStatusCompleted,
		FilePath:    &relPath,
		CompletedAt: &now,
	}); err != nil {
		return fmt.Errorf("mark export job completed: %w", err)
	}

	w.logger.Info("export job completed",
		zap.String("job_id", job.ID),
		zap.String("file", relPath))
	return nil
}

func (w *ExportWorker) markFailed(ctx context.Context, jobID string, cause error) {
	reason := cause.Error()
	if err := w.repo.UpdateResult(ctx, jobID, repository.ExportResultParams{
		Status:        models.ExportStatusFailed,
		FailureReason: &reason,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark export job failed", "job_id", jobID, "error", err)
	}
}

func (w *ExportWorker) render(ctx context.Context, job *models.ExportJob) ([]byte, error) {
	filter := models.WorkflowFilter{}
	if job.FilterStatus != nil {
		filter.Status = models.WorkflowStatus(*job.FilterStatus)
	}
	if job.FilterType != nil {
		filter.ItemType = models.WorkflowItemType(*job.FilterType)
	}
	workflows, err := w.workflows.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}

	dataset := buildWorkflowDataset(workflows)
	switch job.Format {
	case models.ExportFormatCSV:
		return w.csv.Render(dataset)
	case models.ExportFormatPDF:
		return w.pdf.Render(dataset, "Approval Workflow Register")
	default:
		return nil, fmt.Errorf("unsupported export format %s", job.Format)
	}
}

func buildWorkflowDataset(workflows []models.ApprovalWorkflow) export.Dataset {
	headers := []string{"ID", "Title", "Item Type", "Item ID", "Priority", "Status", "Requester", "Due Date", "Created At"}
	rows := make([]map[string]string, 0, len(workflows))
	for _, wf := range workflows {
		dueDate := ""
		if wf.DueDate != nil {
			dueDate = wf.DueDate.UTC().Format("2006-01-02")
		}
		rows = append(rows, map[string]string{
			"ID":         wf.ID,
			"Title":      wf.Title,
			"Item Type":  string(wf.ItemType),
			"Item ID":    fmt.Sprintf("%d", wf.ItemID),
			"Priority":   string(wf.Priority),
			"Status":     string(wf.Status),
			"Requester":  wf.RequesterID,
			"Due Date":   dueDate,
			"Created At": wf.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func buildExportFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	id := job.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("workflows_%s_%s.%s", id, timestamp, job.Format)
}
