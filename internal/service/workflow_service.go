package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/confera/approvals-api/internal/dto"
	"github.com/confera/approvals-api/internal/models"
	"github.com/confera/approvals-api/internal/repository"
	appErrors "github.com/confera/approvals-api/pkg/errors"
)

type workflowStore interface {
	Create(ctx context.Context, wf *models.ApprovalWorkflow, reviewerIDs, stakeholderIDs []string) error
	GetByID(ctx context.Context, id string) (*models.ApprovalWorkflow, error)
	List(ctx context.Context, filter models.WorkflowFilter) ([]models.ApprovalWorkflow, error)
	Update(ctx context.Context, id string, params repository.UpdateWorkflowParams) error
	UpdateStatusWithHistory(ctx context.Context, id string, status models.WorkflowStatus, actingUserID string) error
	DeleteCascade(ctx context.Context, id string) (bool, error)
}

// TransitionPolicy maps a current status to the statuses it may move to.
// A nil policy allows every transition within the accepted status set,
// matching the permissive behaviour of the event platform this engine
// backs; callers who want strict lifecycle enforcement inject one.
type TransitionPolicy map[models.WorkflowStatus][]models.WorkflowStatus

// Allows reports whether the policy permits the transition.
func (p TransitionPolicy) Allows(from, to models.WorkflowStatus) bool {
	if p == nil {
		return true
	}
	for _, allowed := range p[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

const workflowCachePattern = "workflows:*"

// WorkflowService is the lifecycle manager for approval workflows. It owns
// creation, status transitions and the cascading delete, and guarantees
// that every status change lands one ledger row in the same transaction.
type WorkflowService struct {
	repo      workflowStore
	cache     *CacheService
	metrics   *MetricsService
	policy    TransitionPolicy
	validator *validator.Validate
	logger    *zap.Logger
}

// WorkflowServiceOption configures the service.
type WorkflowServiceOption func(*WorkflowService)

// WithTransitionPolicy makes status transitions subject to the given table.
func WithTransitionPolicy(policy TransitionPolicy) WorkflowServiceOption {
	return func(s *WorkflowService) {
		s.policy = policy
	}
}

// WithWorkflowCache enables caching of list reads.
func WithWorkflowCache(cache *CacheService) WorkflowServiceOption {
	return func(s *WorkflowService) {
		s.cache = cache
	}
}

// WithWorkflowMetrics wires transition counters.
func WithWorkflowMetrics(metrics *MetricsService) WorkflowServiceOption {
	return func(s *WorkflowService) {
		s.metrics = metrics
	}
}

// NewWorkflowService constructs the service.
func NewWorkflowService(repo workflowStore, validate *validator.Validate, logger *zap.Logger, opts ...WorkflowServiceOption) *WorkflowService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &WorkflowService{repo: repo, validator: validate, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create opens a new approval workflow in the pending state. An unknown
// priority silently falls back to medium; an unknown item type is rejected.
// The engine writes no initial ledger row, only status changes do that.
func (s *WorkflowService) Create(ctx context.Context, req dto.CreateWorkflowRequest, requesterID string) (*models.ApprovalWorkflow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid workflow payload")
	}
	if !req.ItemType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown item type %q", req.ItemType))
	}

	wf := &models.ApprovalWorkflow{
		Title:       req.Title,
		Description: req.Description,
		ItemType:    req.ItemType,
		ItemID:      req.ItemID,
		Priority:    models.NormalizePriority(req.Priority),
		Status:      models.WorkflowStatusPending,
		DueDate:     req.DueDate,
		RequesterID: requesterID,
	}
	if err := s.repo.Create(ctx, wf, req.ReviewerIDs, req.StakeholderIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, "failed to create workflow")
	}
	s.invalidateCache(ctx)
	s.logger.Info("workflow created",
		zap.String("workflow_id", wf.ID),
		zap.String("item_type", string(wf.ItemType)),
		zap.Int64("item_id", wf.ItemID))
	return wf, nil
}

// Get returns a workflow or a not-found error.
func (s *WorkflowService) Get(ctx context.Context, id string) (*models.ApprovalWorkflow, error) {
	wf, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workflow")
	}
	return wf, nil
}

// List returns workflows matching the query. Enum-valued filters are
// checked up front: an unknown status or item type is a caller mistake,
// not an empty result.
func (s *WorkflowService) List(ctx context.Context, query dto.WorkflowQuery) ([]models.ApprovalWorkflow, error) {
	filter := models.WorkflowFilter{RequesterID: query.RequesterID}
	if query.Status != "" {
		status := models.WorkflowStatus(query.Status)
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", query.Status))
		}
		filter.Status = status
	}
	if query.ItemType != "" {
		itemType := models.WorkflowItemType(query.ItemType)
		if !itemType.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown item type %q", query.ItemType))
		}
		filter.ItemType = itemType
		filter.ItemID = query.ItemID
	}

	cacheKey := workflowCacheKey(filter)
	var cached []models.ApprovalWorkflow
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	workflows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list workflows")
	}
	_ = s.cache.Set(ctx, cacheKey, workflows, 0)
	return workflows, nil
}

// Update applies a partial update to title, description, priority or due
// date. Status is out of scope here and no ledger row is written.
func (s *WorkflowService) Update(ctx context.Context, id string, req dto.UpdateWorkflowRequest) (*models.ApprovalWorkflow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	params := repository.UpdateWorkflowParams{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if req.Priority != nil {
		normalized := models.NormalizePriority(*req.Priority)
		params.Priority = &normalized
	}
	if err := s.repo.Update(ctx, id, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update workflow")
	}
	s.invalidateCache(ctx)
	return s.Get(ctx, id)
}

// UpdateStatus moves the workflow to the new status and appends the
// matching ledger row atomically; both writes commit together or not at
// all.
func (s *WorkflowService) UpdateStatus(ctx context.Context, id string, newStatus models.WorkflowStatus, actingUserID string) (*models.ApprovalWorkflow, error) {
	if !newStatus.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", newStatus))
	}
	if s.policy != nil {
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !s.policy.Allows(current.Status, newStatus) {
			return nil, appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("transition from %s to %s is not allowed", current.Status, newStatus))
		}
	}

	if err := s.repo.UpdateStatusWithHistory(ctx, id, newStatus, actingUserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, "failed to update workflow status")
	}
	s.metrics.RecordWorkflowTransition(string(newStatus))
	s.invalidateCache(ctx)
	s.logger.Info("workflow status changed",
		zap.String("workflow_id", id),
		zap.String("status", string(newStatus)),
		zap.String("acting_user", actingUserID))
	return s.Get(ctx, id)
}

// Delete removes the workflow and all dependent rows in one transaction.
// Deleting a missing workflow reports false rather than failing.
func (s *WorkflowService) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.DeleteCascade(ctx, id)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, "failed to delete workflow")
	}
	if deleted {
		s.invalidateCache(ctx)
		s.logger.Info("workflow deleted", zap.String("workflow_id", id))
	}
	return deleted, nil
}

func (s *WorkflowService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, workflowCachePattern); err != nil {
		s.logger.Warn("workflow cache invalidation failed", zap.Error(err))
	}
}

func workflowCacheKey(filter models.WorkflowFilter) string {
	itemID := ""
	if filter.ItemID != nil {
		itemID = fmt.Sprintf("%d", *filter.ItemID)
	}
	return fmt.Sprintf("workflows:%s:%s:%s:%s", filter.Status, filter.ItemType, itemID, filter.RequesterID)
}
