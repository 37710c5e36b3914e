package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/confera/approvals-api/internal/dto"
	"github.com/confera/approvals-api/internal/models"
	appErrors "github.com/confera/approvals-api/pkg/errors"
	"github.com/confera/approvals-api/pkg/response"
)

type workflowService interface {
	Create(ctx context.Context, req dto.CreateWorkflowRequest, requesterID string) (*models.ApprovalWorkflow, error)
	Get(ctx context.Context, id string) (*models.ApprovalWorkflow, error)
	List(ctx context.Context, query dto.WorkflowQuery) ([]models.ApprovalWorkflow, error)
	Update(ctx context.Context, id string, req dto.UpdateWorkflowRequest) (*models.ApprovalWorkflow, error)
	UpdateStatus(ctx context.Context, id string, status models.WorkflowStatus, actingUserID string) (*models.ApprovalWorkflow, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// WorkflowHandler exposes REST endpoints for approval workflows.
type WorkflowHandler struct {
	service workflowService
}

// NewWorkflowHandler constructs the handler.
func NewWorkflowHandler(service workflowService) *WorkflowHandler {
	return &WorkflowHandler{service: service}
}

// Create godoc
// @Summary Open an approval workflow
// @Tags Workflows
// @Accept json
// @Produce json
// @Param payload body dto.CreateWorkflowRequest true "Workflow payload"
// @Success 201 {object} response.Envelope
// @Router /workflows [post]
func (h *WorkflowHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid workflow payload"))
		return
	}
	wf, err := h.service.Create(c.Request.Context(), req, claims.UserID())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, wf)
}

// List godoc
// @Summary List approval workflows
// @Tags Workflows
// @Produce json
// @Param status query string false "Workflow status"
// @Param item_type query string false "Item type"
// @Param item_id query integer false "Item id (requires item_type)"
// @Param requester_id query string false "Requester id"
// @Success 200 {object} response.Envelope
// @Router /workflows [get]
func (h *WorkflowHandler) List(c *gin.Context) {
	var query dto.WorkflowQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid workflow query"))
		return
	}
	workflows, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workflows, nil)
}

// Get godoc
// @Summary Get workflow detail
// @Tags Workflows
// @Produce json
// @Param id path string true "Workflow ID"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id} [get]
func (h *WorkflowHandler) Get(c *gin.Context) {
	wf, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, wf, nil)
}

// Update godoc
// @Summary Partially update a workflow
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Workflow ID"
// @Param payload body dto.UpdateWorkflowRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id} [patch]
func (h *WorkflowHandler) Update(c *gin.Context) {
	var req dto.UpdateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid update payload"))
		return
	}
	wf, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, wf, nil)
}

// UpdateStatus godoc
// @Summary Change workflow status
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Workflow ID"
// @Param payload body dto.UpdateStatusRequest true "New status"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/status [put]
func (h *WorkflowHandler) UpdateStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status payload"))
		return
	}
	wf, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, claims.UserID())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, wf, nil)
}

// Delete godoc
// @Summary Delete a workflow and all its dependents
// @Tags Workflows
// @Param id path string true "Workflow ID"
// @Success 204
// @Router /workflows/{id} [delete]
func (h *WorkflowHandler) Delete(c *gin.Context) {
	deleted, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !deleted {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	response.NoContent(c)
}
