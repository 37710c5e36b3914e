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

type stakeholderService interface {
	Add(ctx context.Context, workflowID, stakeholderID string) (*models.WorkflowStakeholder, error)
	ListForWorkflow(ctx context.Context, workflowID string) ([]models.WorkflowStakeholder, error)
	ListForUser(ctx context.Context, stakeholderID string) ([]models.WorkflowStakeholder, error)
	Remove(ctx context.Context, id string) (bool, error)
}

// StakeholderHandler manages stakeholder subscriptions on workflows.
type StakeholderHandler struct {
	service stakeholderService
	history historyRecorder
}

// NewStakeholderHandler constructs the handler. history may be nil.
func NewStakeholderHandler(service stakeholderService, history historyRecorder) *StakeholderHandler {
	return &StakeholderHandler{service: service, history: history}
}

func (h *StakeholderHandler) record(c *gin.Context, workflowID, action string) {
	if h.history == nil {
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	_, _ = h.history.Append(c.Request.Context(), workflowID, claims.UserID(), action)
}

// Add godoc
// @Summary Subscribe a stakeholder to a workflow
// @Tags Stakeholders
// @Accept json
// @Produce json
// @Param id path string true "Workflow ID"
// @Param payload body dto.AddStakeholderRequest true "Stakeholder payload"
// @Success 201 {object} response.Envelope
// @Router /workflows/{id}/stakeholders [post]
func (h *StakeholderHandler) Add(c *gin.Context) {
	var req dto.AddStakeholderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid stakeholder payload"))
		return
	}
	stakeholder, err := h.service.Add(c.Request.Context(), c.Param("id"), req.StakeholderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.record(c, stakeholder.WorkflowID, models.HistoryStakeholderAdded)
	response.Created(c, stakeholder)
}

// ListForWorkflow godoc
// @Summary List stakeholders of a workflow
// @Tags Stakeholders
// @Produce json
// @Param id path string true "Workflow ID"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/stakeholders [get]
func (h *StakeholderHandler) ListForWorkflow(c *gin.Context) {
	stakeholders, err := h.service.ListForWorkflow(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stakeholders, nil)
}

// ListForUser godoc
// @Summary List workflow subscriptions for a user
// @Tags Stakeholders
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/stakes [get]
func (h *StakeholderHandler) ListForUser(c *gin.Context) {
	stakes, err := h.service.ListForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stakes, nil)
}

// Remove godoc
// @Summary Unsubscribe a stakeholder from a workflow
// @Tags Stakeholders
// @Param id path string true "Workflow ID"
// @Param stakeholderId path string true "Stakeholder subscription ID"
// @Success 204
// @Router /workflows/{id}/stakeholders/{stakeholderId} [delete]
func (h *StakeholderHandler) Remove(c *gin.Context) {
	removed, err := h.service.Remove(c.Request.Context(), c.Param("stakeholderId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !removed {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	h.record(c, c.Param("id"), models.HistoryStakeholderRemoved)
	response.NoContent(c)
}
