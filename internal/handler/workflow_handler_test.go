package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/confera/approvals-api/internal/dto"
	internalmiddleware "github.com/confera/approvals-api/internal/middleware"
	"github.com/confera/approvals-api/internal/models"
	appErrors "github.com/confera/approvals-api/pkg/errors"
)

func testRouter(register func(r *gin.Engine)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
				RealmAccess:      models.RealmAccess{Roles: []string{role}},
			})
		}
		c.Next()
	})
	register(router)
	return router
}

func perform(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type workflowServiceMock struct {
	workflows map[string]*models.ApprovalWorkflow
	deleted   []string
}

func newWorkflowServiceMock() *workflowServiceMock {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &workflowServiceMock{
		workflows: map[string]*models.ApprovalWorkflow{
			"wf-1": {
				ID:          "wf-1",
				Title:       "Budget approval",
				ItemType:    models.ItemTypeBudgetRequest,
				ItemID:      42,
				RequesterID: "user-1",
				Status:      models.WorkflowStatusPending,
				Priority:    models.PriorityMedium,
				CreatedAt:   now,
				UpdatedAt:   now,
			},
		},
	}
}

func (m *workflowServiceMock) Create(ctx context.Context, req dto.CreateWorkflowRequest, requesterID string) (*models.ApprovalWorkflow, error) {
	return &models.ApprovalWorkflow{
		ID:          "wf-new",
		Title:       req.Title,
		ItemType:    req.ItemType,
		ItemID:      req.ItemID,
		RequesterID: requesterID,
		Status:      models.WorkflowStatusPending,
		Priority:    models.NormalizePriority(req.Priority),
	}, nil
}

func (m *workflowServiceMock) Get(ctx context.Context, id string) (*models.ApprovalWorkflow, error) {
	wf, ok := m.workflows[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return wf, nil
}

func (m *workflowServiceMock) List(ctx context.Context, query dto.WorkflowQuery) ([]models.ApprovalWorkflow, error) {
	out := make([]models.ApprovalWorkflow, 0, len(m.workflows))
	for _, wf := range m.workflows {
		out = append(out, *wf)
	}
	return out, nil
}

func (m *workflowServiceMock) Update(ctx context.Context, id string, req dto.UpdateWorkflowRequest) (*models.ApprovalWorkflow, error) {
	wf, ok := m.workflows[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	if req.Title != nil {
		wf.Title = *req.Title
	}
	return wf, nil
}

func (m *workflowServiceMock) UpdateStatus(ctx context.Context, id string, status models.WorkflowStatus, actingUserID string) (*models.ApprovalWorkflow, error) {
	wf, ok := m.workflows[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	wf.Status = status
	return wf, nil
}

func (m *workflowServiceMock) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.workflows[id]; !ok {
		return false, nil
	}
	delete(m.workflows, id)
	m.deleted = append(m.deleted, id)
	return true, nil
}

func buildWorkflowRouter(mock *workflowServiceMock) *gin.Engine {
	h := NewWorkflowHandler(mock)
	return testRouter(func(r *gin.Engine) {
		r.POST("/workflows", h.Create)
		r.GET("/workflows", h.List)
		r.GET("/workflows/:id", h.Get)
		r.PATCH("/workflows/:id", h.Update)
		r.PUT("/workflows/:id/status", h.UpdateStatus)
		r.DELETE("/workflows/:id", h.Delete)
	})
}

func TestWorkflowHandlerCreate(t *testing.T) {
	router := buildWorkflowRouter(newWorkflowServiceMock())

	payload := `{"title":"CFP review","item_type":"event_cfp_submission","item_id":7,"reviewer_ids":["rev-1"]}`
	req, _ := http.NewRequest(http.MethodPost, "/workflows", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleOrganizer))
	resp := perform(router, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	require.Contains(t, resp.Body.String(), `"status":"pending"`)
	require.Contains(t, resp.Body.String(), `"requester_id":"user-1"`)
}

func TestWorkflowHandlerCreateUnauthenticated(t *testing.T) {
	router := buildWorkflowRouter(newWorkflowServiceMock())

	payload := `{"title":"CFP review","item_type":"event_cfp_submission","item_id":7,"reviewer_ids":["rev-1"]}`
	req, _ := http.NewRequest(http.MethodPost, "/workflows", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := perform(router, req)

	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestWorkflowHandlerCreateMalformedBody(t *testing.T) {
	router := buildWorkflowRouter(newWorkflowServiceMock())

	req, _ := http.NewRequest(http.MethodPost, "/workflows", bytes.NewBufferString(`{"title":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleOrganizer))
	resp := perform(router, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "VALIDATION_ERROR")
}

func TestWorkflowHandlerGet(t *testing.T) {
	router := buildWorkflowRouter(newWorkflowServiceMock())

	req, _ := http.NewRequest(http.MethodGet, "/workflows/wf-1", nil)
	resp := perform(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"title":"Budget approval"`)

	req, _ = http.NewRequest(http.MethodGet, "/workflows/missing", nil)
	resp = perform(router, req)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestWorkflowHandlerUpdateStatus(t *testing.T) {
	router := buildWorkflowRouter(newWorkflowServiceMock())

	req, _ := http.NewRequest(http.MethodPut, "/workflows/wf-1/status", bytes.NewBufferString(`{"status":"approved"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleOrganizer))
	resp := perform(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"status":"approved"`)
}

func TestWorkflowHandlerDelete(t *testing.T) {
	mock := newWorkflowServiceMock()
	router := buildWorkflowRouter(mock)

	req, _ := http.NewRequest(http.MethodDelete, "/workflows/wf-1", nil)
	resp := perform(router, req)
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Equal(t, []string{"wf-1"}, mock.deleted)

	req, _ = http.NewRequest(http.MethodDelete, "/workflows/wf-1", nil)
	resp = perform(router, req)
	require.Equal(t, http.StatusNotFound, resp.Code)
}
