package handler

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/confera/approvals-api/internal/models"
	appErrors "github.com/confera/approvals-api/pkg/errors"
)

type stakeholderServiceMock struct {
	stakeholders map[string]*models.WorkflowStakeholder
}

func newStakeholderServiceMock() *stakeholderServiceMock {
	return &stakeholderServiceMock{
		stakeholders: map[string]*models.WorkflowStakeholder{
			"stk-1": {ID: "stk-1", WorkflowID: "wf-1", StakeholderID: "user-5"},
		},
	}
}

func (m *stakeholderServiceMock) Add(ctx context.Context, workflowID, stakeholderID string) (*models.WorkflowStakeholder, error) {
	if workflowID == "missing" {
		return nil, appErrors.ErrNotFound
	}
	st := &models.WorkflowStakeholder{ID: "stk-new", WorkflowID: workflowID, StakeholderID: stakeholderID}
	m.stakeholders[st.ID] = st
	return st, nil
}

func (m *stakeholderServiceMock) ListForWorkflow(ctx context.Context, workflowID string) ([]models.WorkflowStakeholder, error) {
	var out []models.WorkflowStakeholder
	for _, st := range m.stakeholders {
		if st.WorkflowID == workflowID {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (m *stakeholderServiceMock) ListForUser(ctx context.Context, stakeholderID string) ([]models.WorkflowStakeholder, error) {
	var out []models.WorkflowStakeholder
	for _, st := range m.stakeholders {
		if st.StakeholderID == stakeholderID {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (m *stakeholderServiceMock) Remove(ctx context.Context, id string) (bool, error) {
	if _, ok := m.stakeholders[id]; !ok {
		return false, nil
	}
	delete(m.stakeholders, id)
	return true, nil
}

func buildStakeholderRouter(mock *stakeholderServiceMock, ledger *historyRecorderMock) *gin.Engine {
	h := NewStakeholderHandler(mock, ledger)
	return testRouter(func(r *gin.Engine) {
		r.POST("/workflows/:id/stakeholders", h.Add)
		r.GET("/workflows/:id/stakeholders", h.ListForWorkflow)
		r.DELETE("/workflows/:id/stakeholders/:stakeholderId", h.Remove)
		r.GET("/users/:id/stakes", h.ListForUser)
	})
}

func TestStakeholderHandlerAddRecordsHistory(t *testing.T) {
	ledger := &historyRecorderMock{}
	router := buildStakeholderRouter(newStakeholderServiceMock(), ledger)

	req, _ := http.NewRequest(http.MethodPost, "/workflows/wf-1/stakeholders", bytes.NewBufferString(`{"stakeholder_id":"user-9"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleOrganizer))
	resp := perform(router, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	require.Contains(t, resp.Body.String(), `"stakeholder_id":"user-9"`)
	require.Equal(t, []string{models.HistoryStakeholderAdded}, ledger.actions)
}

func TestStakeholderHandlerAddWorkflowMissing(t *testing.T) {
	ledger := &historyRecorderMock{}
	router := buildStakeholderRouter(newStakeholderServiceMock(), ledger)

	req, _ := http.NewRequest(http.MethodPost, "/workflows/missing/stakeholders", bytes.NewBufferString(`{"stakeholder_id":"user-9"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleOrganizer))
	resp := perform(router, req)

	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Empty(t, ledger.actions)
}

func TestStakeholderHandlerRemove(t *testing.T) {
	ledger := &historyRecorderMock{}
	mock := newStakeholderServiceMock()
	router := buildStakeholderRouter(mock, ledger)

	req, _ := http.NewRequest(http.MethodDelete, "/workflows/wf-1/stakeholders/stk-1", nil)
	req.Header.Set("X-Test-Role", string(models.RoleOrganizer))
	resp := perform(router, req)
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Equal(t, []string{models.HistoryStakeholderRemoved}, ledger.actions)

	req, _ = http.NewRequest(http.MethodDelete, "/workflows/wf-1/stakeholders/stk-1", nil)
	req.Header.Set("X-Test-Role", string(models.RoleOrganizer))
	resp = perform(router, req)
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Len(t, ledger.actions, 1)
}

func TestStakeholderHandlerListForUser(t *testing.T) {
	router := buildStakeholderRouter(newStakeholderServiceMock(), &historyRecorderMock{})

	req, _ := http.NewRequest(http.MethodGet, "/users/user-5/stakes", nil)
	resp := perform(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"workflow_id":"wf-1"`)
}
