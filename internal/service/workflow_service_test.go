package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/confera/approvals-api/internal/dto"
	"github.com/confera/approvals-api/internal/models"
	"github.com/confera/approvals-api/internal/repository"
	appErrors "github.com/confera/approvals-api/pkg/errors"
)

type workflowRepoStub struct {
	workflows    map[string]*models.ApprovalWorkflow
	reviewers    map[string][]string
	stakeholders map[string][]string
	history      []models.WorkflowHistory
	filter       models.WorkflowFilter
	seq          int
}

func newWorkflowRepoStub() *workflowRepoStub {
	return &workflowRepoStub{
		workflows:    make(map[string]*models.ApprovalWorkflow),
		reviewers:    make(map[string][]string),
		stakeholders: make(map[string][]string),
	}
}

func (s *workflowRepoStub) Create(ctx context.Context, wf *models.ApprovalWorkflow, reviewerIDs, stakeholderIDs []string) error {
	s.seq++
	if wf.ID == "" {
		wf.ID = fmt.Sprintf("wf-%d", s.seq)
	}
	now := time.Now().UTC()
	wf.CreatedAt = now
	wf.UpdatedAt = now
	s.workflows[wf.ID] = wf
	s.reviewers[wf.ID] = append([]string(nil), reviewerIDs...)
	s.stakeholders[wf.ID] = append([]string(nil), stakeholderIDs...)
	return nil
}

func (s *workflowRepoStub) GetByID(ctx context.Context, id string) (*models.ApprovalWorkflow, error) {
	if wf, ok := s.workflows[id]; ok {
		copy := *wf
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *workflowRepoStub) List(ctx context.Context, filter models.WorkflowFilter) ([]models.ApprovalWorkflow, error) {
	s.filter = filter
	result := make([]models.ApprovalWorkflow, 0, len(s.workflows))
	for _, wf := range s.workflows {
		result = append(result, *wf)
	}
	return result, nil
}

func (s *workflowRepoStub) Update(ctx context.Context, id string, params repository.UpdateWorkflowParams) error {
	wf, ok := s.workflows[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Title != nil {
		wf.Title = *params.Title
	}
	if params.Description != nil {
		wf.Description = params.Description
	}
	if params.Priority != nil {
		wf.Priority = *params.Priority
	}
	if params.DueDate != nil {
		wf.DueDate = params.DueDate
	}
	wf.UpdatedAt = time.Now().UTC().Add(time.Millisecond)
	return nil
}

func (s *workflowRepoStub) UpdateStatusWithHistory(ctx context.Context, id string, status models.WorkflowStatus, actingUserID string) error {
	wf, ok := s.workflows[id]
	if !ok {
		return sql.ErrNoRows
	}
	wf.Status = status
	wf.UpdatedAt = wf.UpdatedAt.Add(time.Millisecond)
	s.history = append(s.history, models.WorkflowHistory{
		WorkflowID: id,
		UserID:     actingUserID,
		Action:     models.StatusChangeAction(status),
	})
	return nil
}

func (s *workflowRepoStub) DeleteCascade(ctx context.Context, id string) (bool, error) {
	if _, ok := s.workflows[id]; !ok {
		return false, nil
	}
	delete(s.workflows, id)
	delete(s.reviewers, id)
	delete(s.stakeholders, id)
	remaining := s.history[:0]
	for _, h := range s.history {
		if h.WorkflowID != id {
			remaining = append(remaining, h)
		}
	}
	s.history = remaining
	return true, nil
}

func createRequest() dto.CreateWorkflowRequest {
	return dto.CreateWorkflowRequest{
		Title:       "Sponsor ACME for KubeCon",
		ItemType:    models.ItemTypeSponsorship,
		ItemID:      42,
		Priority:    models.PriorityHigh,
		ReviewerIDs: []string{"user-11"},
	}
}

func TestWorkflowServiceCreate(t *testing.T) {
	repo := newWorkflowRepoStub()
	svc := NewWorkflowService(repo, nil, nil)

	wf, err := svc.Create(context.Background(), createRequest(), "user-7")
	require.NoError(t, err)
	require.Equal(t, models.WorkflowStatusPending, wf.Status)
	require.Equal(t, models.PriorityHigh, wf.Priority)
	require.Equal(t, wf.CreatedAt, wf.UpdatedAt)
	require.Equal(t, "user-7", wf.RequesterID)
	require.Equal(t, []string{"user-11"}, repo.reviewers[wf.ID])
	require.Empty(t, repo.history, "creation must not write a ledger row")
}

func TestWorkflowServiceCreateDefaultsPriority(t *testing.T) {
	repo := newWorkflowRepoStub()
	svc := NewWorkflowService(repo, nil, nil)

	req := createRequest()
	req.Priority = "urgent"
	wf, err := svc.Create(context.Background(), req, "user-7")
	require.NoError(t, err)
	require.Equal(t, models.PriorityMedium, wf.Priority)

	req.Priority = ""
	wf, err = svc.Create(context.Background(), req, "user-7")
	require.NoError(t, err)
	require.Equal(t, models.PriorityMedium, wf.Priority)
}

func TestWorkflowServiceCreateRejectsUnknownItemType(t *testing.T) {
	repo := newWorkflowRepoStub()
	svc := NewWorkflowService(repo, nil, nil)

	req := createRequest()
	req.ItemType = "event_karaoke"
	_, err := svc.Create(context.Background(), req, "user-7")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestWorkflowServiceCreateRequiresReviewer(t *testing.T) {
	repo := newWorkflowRepoStub()
	svc := NewWorkflowService(repo, nil, nil)

	req := createRequest()
	req.ReviewerIDs = nil
	_, err := svc.Create(context.Background(), req, "user-7")
	require.Error(t, err)
}

func TestWorkflowServiceGetNotFound(t *testing.T) {
	svc := NewWorkflowService(newWorkflowRepoStub(), nil, nil)
	_, err := svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestWorkflowServiceListRejectsUnknownEnums(t *testing.T) {
	svc := NewWorkflowService(newWorkflowRepoStub(), nil, nil)

	_, err := svc.List(context.Background(), dto.WorkflowQuery{Status: "archived"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.List(context.Background(), dto.WorkflowQuery{ItemType: "event_karaoke"})
	require.Error(t, err)
}

func TestWorkflowServiceListItemPairFilter(t *testing.T) {
	repo := newWorkflowRepoStub()
	svc := NewWorkflowService(repo, nil, nil)

	itemID := int64(42)
	_, err := svc.List(context.Background(), dto.WorkflowQuery{ItemType: string(models.ItemTypeSponsorship), ItemID: &itemID})
	require.NoError(t, err)
	require.Equal(t, models.ItemTypeSponsorship, repo.filter.ItemType)
	require.NotNil(t, repo.filter.ItemID)
	require.Equal(t, int64(42), *repo.filter.ItemID)

	// item_id without item_type must not filter on its own
	_, err = svc.List(context.Background(), dto.WorkflowQuery{ItemID: &itemID})
	require.NoError(t, err)
	require.Nil(t, repo.filter.ItemID)
}

func TestWorkflowServiceUpdateDoesNotTouchStatus(t *testing.T) {
	repo := newWorkflowRepoStub()
	svc := NewWorkflowService(repo, nil, nil)
	wf, err := svc.Create(context.Background(), createRequest(), "user-7")
	require.NoError(t, err)

	title := "Sponsor ACME for KubeCon EU"
	updated, err := svc.Update(context.Background(), wf.ID, dto.UpdateWorkflowRequest{Title: &title})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.Equal(t, models.WorkflowStatusPending, updated.Status)
	require.True(t, updated.UpdatedAt.After(wf.CreatedAt))
	require.Empty(t, repo.history)

	_, err = svc.Update(context.Background(), "missing", dto.UpdateWorkflowRequest{Title: &title})
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestWorkflowServiceUpdateStatusAppendsHistory(t *testing.T) {
	repo := newWorkflowRepoStub()
	svc := NewWorkflowService(repo, nil, nil)
	wf, err := svc.Create(context.Background(), createRequest(), "user-7")
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), wf.ID, models.WorkflowStatusApproved, "user-9")
	require.NoError(t, err)
	require.Equal(t, models.WorkflowStatusApproved, updated.Status)
	require.True(t, updated.UpdatedAt.After(wf.UpdatedAt))
	require.Len(t, repo.history, 1)
	require.Equal(t, "Status changed to approved", repo.history[0].Action)
	require.Equal(t, "user-9", repo.history[0].UserID)
}

func TestWorkflowServiceUpdateStatusUnknownStatus(t *testing.T) {
	svc := NewWorkflowService(newWorkflowRepoStub(), nil, nil)
	_, err := svc.UpdateStatus(context.Background(), "wf-1", "archived", "user-9")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestWorkflowServiceUpdateStatusNotFound(t *testing.T) {
	svc := NewWorkflowService(newWorkflowRepoStub(), nil, nil)
	_, err := svc.UpdateStatus(context.Background(), "missing", models.WorkflowStatusApproved, "user-9")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestWorkflowServiceTransitionPolicy(t *testing.T) {
	repo := newWorkflowRepoStub()
	policy := TransitionPolicy{
		models.WorkflowStatusPending: {
			models.WorkflowStatusApproved,
			models.WorkflowStatusRejected,
			models.WorkflowStatusChangesRequested,
		},
		models.WorkflowStatusChangesRequested: {
			models.WorkflowStatusPending,
			models.WorkflowStatusApproved,
			models.WorkflowStatusRejected,
		},
	}
	svc := NewWorkflowService(repo, nil, nil, WithTransitionPolicy(policy))
	wf, err := svc.Create(context.Background(), createRequest(), "user-7")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), wf.ID, models.WorkflowStatusApproved, "user-9")
	require.NoError(t, err)

	// approved is terminal under this policy
	_, err = svc.UpdateStatus(context.Background(), wf.ID, models.WorkflowStatusPending, "user-9")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	require.Len(t, repo.history, 1)
}

func TestWorkflowServiceDelete(t *testing.T) {
	repo := newWorkflowRepoStub()
	svc := NewWorkflowService(repo, nil, nil)
	wf, err := svc.Create(context.Background(), createRequest(), "user-7")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), wf.ID, models.WorkflowStatusApproved, "user-9")
	require.NoError(t, err)

	deleted, err := svc.Delete(context.Background(), wf.ID)
	require.NoError(t, err)
	require.True(t, deleted)
	require.Empty(t, repo.history, "cascade must remove ledger rows")

	_, err = svc.Get(context.Background(), wf.ID)
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	deleted, err = svc.Delete(context.Background(), wf.ID)
	require.NoError(t, err)
	require.False(t, deleted)
}
