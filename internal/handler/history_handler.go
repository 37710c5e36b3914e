package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/confera/approvals-api/internal/models"
	"github.com/confera/approvals-api/pkg/response"
)

type historyService interface {
	ListForWorkflow(ctx context.Context, workflowID string) ([]models.WorkflowHistory, error)
}

// HistoryHandler serves the read-only audit ledger of a workflow.
type HistoryHandler struct {
	service historyService
}

// NewHistoryHandler constructs the handler.
func NewHistoryHandler(service historyService) *HistoryHandler {
	return &HistoryHandler{service: service}
}

// ListForWorkflow godoc
// @Summary List the audit ledger of a workflow
// @Tags History
// @Produce json
// @Param id path string true "Workflow ID"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/history [get]
func (h *HistoryHandler) ListForWorkflow(c *gin.Context) {
	entries, err := h.service.ListForWorkflow(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
