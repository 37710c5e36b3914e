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

type reviewerService interface {
	Add(ctx context.Context, workflowID, reviewerID string) (*models.WorkflowReviewer, error)
	ListForWorkflow(ctx context.Context, workflowID string) ([]models.WorkflowReviewer, error)
	ListForUser(ctx context.Context, reviewerID string) ([]models.WorkflowReviewer, error)
	SubmitReview(ctx context.Context, reviewerRowID string, req dto.SubmitReviewRequest) (*models.WorkflowReviewer, error)
	Remove(ctx context.Context, reviewerRowID string) (bool, error)
}

// historyRecorder appends ledger entries after membership changes. Recording
// failures are swallowed so the primary mutation still succeeds.
type historyRecorder interface {
	Append(ctx context.Context, workflowID, userID, action string) (*models.WorkflowHistory, error)
}

// ReviewerHandler manages reviewer assignments and review submissions.
type ReviewerHandler struct {
	service reviewerService
	history historyRecorder
}

// NewReviewerHandler constructs the handler. history may be nil.
func NewReviewerHandler(service reviewerService, history historyRecorder) *ReviewerHandler {
	return &ReviewerHandler{service: service, history: history}
}

func (h *ReviewerHandler) record(c *gin.Context, workflowID, action string) {
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
// @Summary Assign a reviewer to a workflow
// @Tags Reviewers
// @Accept json
// @Produce json
// @Param id path string true "Workflow ID"
// @Param payload body dto.AddReviewerRequest true "Reviewer payload"
// @Success 201 {object} response.Envelope
// @Router /workflows/{id}/reviewers [post]
func (h *ReviewerHandler) Add(c *gin.Context) {
	var req dto.AddReviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid reviewer payload"))
		return
	}
	reviewer, err := h.service.Add(c.Request.Context(), c.Param("id"), req.ReviewerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.record(c, reviewer.WorkflowID, models.HistoryReviewerAdded)
	response.Created(c, reviewer)
}

// ListForWorkflow godoc
// @Summary List reviewers of a workflow
// @Tags Reviewers
// @Produce json
// @Param id path string true "Workflow ID"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/reviewers [get]
func (h *ReviewerHandler) ListForWorkflow(c *gin.Context) {
	reviewers, err := h.service.ListForWorkflow(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviewers, nil)
}

// ListForUser godoc
// @Summary List review assignments for a user
// @Tags Reviewers
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/reviews [get]
func (h *ReviewerHandler) ListForUser(c *gin.Context) {
	reviews, err := h.service.ListForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}

// SubmitReview godoc
// @Summary Submit a review verdict
// @Tags Reviewers
// @Accept json
// @Produce json
// @Param id path string true "Reviewer assignment ID"
// @Param payload body dto.SubmitReviewRequest true "Review verdict"
// @Success 200 {object} response.Envelope
// @Router /reviewers/{id} [put]
func (h *ReviewerHandler) SubmitReview(c *gin.Context) {
	var req dto.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
		return
	}
	reviewer, err := h.service.SubmitReview(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.record(c, reviewer.WorkflowID, models.HistoryReviewSubmitted)
	response.JSON(c, http.StatusOK, reviewer, nil)
}

// Remove godoc
// @Summary Unassign a reviewer from a workflow
// @Tags Reviewers
// @Param id path string true "Workflow ID"
// @Param reviewerId path string true "Reviewer assignment ID"
// @Success 204
// @Router /workflows/{id}/reviewers/{reviewerId} [delete]
func (h *ReviewerHandler) Remove(c *gin.Context) {
	removed, err := h.service.Remove(c.Request.Context(), c.Param("reviewerId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !removed {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	h.record(c, c.Param("id"), models.HistoryReviewerRemoved)
	response.NoContent(c)
}
