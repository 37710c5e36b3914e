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

type commentService interface {
	Add(ctx context.Context, workflowID, userID, content string) (*models.WorkflowComment, error)
	ListForWorkflow(ctx context.Context, workflowID string) ([]models.WorkflowComment, error)
	ListForUser(ctx context.Context, userID string) ([]models.WorkflowComment, error)
	Edit(ctx context.Context, id, content string) error
	Remove(ctx context.Context, id string) (bool, error)
}

// CommentHandler serves the discussion thread attached to a workflow.
type CommentHandler struct {
	service commentService
	history historyRecorder
}

// NewCommentHandler constructs the handler. history may be nil.
func NewCommentHandler(service commentService, history historyRecorder) *CommentHandler {
	return &CommentHandler{service: service, history: history}
}

func (h *CommentHandler) record(c *gin.Context, workflowID, action string) {
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
// @Summary Post a comment on a workflow
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path string true "Workflow ID"
// @Param payload body dto.CommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope
// @Router /workflows/{id}/comments [post]
func (h *CommentHandler) Add(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid comment payload"))
		return
	}
	comment, err := h.service.Add(c.Request.Context(), c.Param("id"), claims.UserID(), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.record(c, comment.WorkflowID, models.HistoryCommentAdded)
	response.Created(c, comment)
}

// ListForWorkflow godoc
// @Summary List comments on a workflow
// @Tags Comments
// @Produce json
// @Param id path string true "Workflow ID"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/comments [get]
func (h *CommentHandler) ListForWorkflow(c *gin.Context) {
	comments, err := h.service.ListForWorkflow(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comments, nil)
}

// ListForUser godoc
// @Summary List comments authored by a user
// @Tags Comments
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/comments [get]
func (h *CommentHandler) ListForUser(c *gin.Context) {
	comments, err := h.service.ListForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comments, nil)
}

// Edit godoc
// @Summary Edit a comment
// @Tags Comments
// @Accept json
// @Param id path string true "Comment ID"
// @Param payload body dto.CommentRequest true "New content"
// @Success 204
// @Router /comments/{id} [put]
func (h *CommentHandler) Edit(c *gin.Context) {
	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid comment payload"))
		return
	}
	if err := h.service.Edit(c.Request.Context(), c.Param("id"), req.Content); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Remove godoc
// @Summary Delete a comment
// @Tags Comments
// @Param id path string true "Comment ID"
// @Success 204
// @Router /comments/{id} [delete]
func (h *CommentHandler) Remove(c *gin.Context) {
	removed, err := h.service.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !removed {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	response.NoContent(c)
}
