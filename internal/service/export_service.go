package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/confera/approvals-api/internal/dto"
	"github.com/confera/approvals-api/internal/models"
	"github.com/confera/approvals-api/internal/repository"
	appErrors "github.com/confera/approvals-api/pkg/errors"
	"github.com/confera/approvals-api/pkg/jobs"
	"github.com/confera/approvals-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	UpdateResult(ctx context.Context, id string, params repository.ExportResultParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload wraps an open file handle ready to stream to the client.
type ExportDownload struct {
	File      *os.File
	SizeBytes int64
	MimeType  string
	Filename  string
}

// ExportService owns the API side of register exports: job creation, status
// lookups with signed download links, and token-gated downloads. Rendering
// happens on the queue in ExportWorker.
type ExportService struct {
	repo     exportJobStore
	storage  fileStorage
	queue    jobDispatcher
	signer   *storage.SignedURLSigner
	validate *validator.Validate
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs the service.
func NewExportService(repo exportJobStore, fileStore fileStorage, queue jobDispatcher, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		repo:     repo,
		storage:  fileStore,
		queue:    queue,
		signer:   signer,
		validate: validate,
		logger:   logger,
		cfg:      cfg,
	}
}

// CreateJob persists a queued export job and hands it to the worker pool.
func (s *ExportService) CreateJob(ctx context.Context, req dto.CreateExportRequest, requesterID string) (*models.ExportJob, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown export format %q", req.Format))
	}
	if req.Status != "" && !models.WorkflowStatus(req.Status).Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", req.Status))
	}
	if req.ItemType != "" && !models.WorkflowItemType(req.ItemType).Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown item type %q", req.ItemType))
	}

	job := &models.ExportJob{
		RequesterID: requesterID,
		Format:      req.Format,
		Status:      models.ExportStatusQueued,
	}
	if req.Status != "" {
		job.FilterStatus = &req.Status
	}
	if req.ItemType != "" {
		job.FilterType = &req.ItemType
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "workflow_export"}); err != nil {
		reason := "failed to enqueue export job"
		_ = s.repo.UpdateResult(ctx, job.ID, repository.ExportResultParams{
			Status:        models.ExportStatusFailed,
			FailureReason: &reason,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, reason)
	}

	s.logger.Info("export job queued",
		zap.String("job_id", job.ID),
		zap.String("format", string(job.Format)),
		zap.String("requester_id", requesterID))
	return job, nil
}

// GetJob returns the job, attaching a signed download link once completed.
func (s *ExportService) GetJob(ctx context.Context, id string) (*dto.ExportJobResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}

	resp := &dto.ExportJobResponse{ExportJob: *job}
	if job.Status == models.ExportStatusCompleted && job.FilePath != nil {
		token, expiresAt, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
		}
		prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
		if prefix == "" {
			prefix = "/api/v1"
		}
		resp.DownloadURL = fmt.Sprintf("%s/exports/download/%s", prefix, token)
		resp.ExpiresAt = &expiresAt
	}
	return resp, nil
}

// Download validates the signed token and opens the stored file.
func (s *ExportService) Download(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.FilePath == nil || *job.FilePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token does not match stored export")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file")
	}
	return &ExportDownload{
		File:      file,
		SizeBytes: info.Size(),
		MimeType:  mimeTypeFor(job.Format),
		Filename:  relPath,
	}, nil
}

// RecoverPendingJobs requeues jobs left in the queued state, e.g. after a
// process restart.
func (s *ExportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued export jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "workflow_export"}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue export job", "job_id", job.ID, "error", err)
		}
	}
}

// StartCleanup boots a goroutine that reaps stored export files older than
// ResultTTL on every CleanupInterval tick. A non-positive interval disables
// the reaper.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.Cleanup(0)
				if err != nil {
					s.logger.Sugar().Warnw("export cleanup failed", "error", err)
					continue
				}
				if len(deleted) > 0 {
					s.logger.Sugar().Infow("expired export files removed", "count", len(deleted))
				}
			}
		}
	}()
}

// Cleanup removes stored files older than ttl (configured ResultTTL when
// ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func mimeTypeFor(format models.ExportFormat) string {
	switch format {
	case models.ExportFormatPDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}
