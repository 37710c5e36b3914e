package dto

import (
	"time"

	"github.com/confera/approvals-api/internal/models"
)

// CreateWorkflowRequest is the payload for opening an approval workflow.
// The caller must supply at least one reviewer.
type CreateWorkflowRequest struct {
	Title          string                  `json:"title" validate:"required"`
	Description    *string                 `json:"description"`
	ItemType       models.WorkflowItemType `json:"item_type" validate:"required"`
	ItemID         int64                   `json:"item_id" validate:"required"`
	Priority       models.WorkflowPriority `json:"priority"`
	DueDate        *time.Time              `json:"due_date"`
	ReviewerIDs    []string                `json:"reviewer_ids" validate:"required,min=1,dive,required"`
	StakeholderIDs []string                `json:"stakeholder_ids" validate:"omitempty,dive,required"`
}

// UpdateWorkflowRequest applies a partial update; nil fields stay untouched.
// Status is deliberately absent, it only changes through the status endpoint.
type UpdateWorkflowRequest struct {
	Title       *string                  `json:"title" validate:"omitempty,min=1"`
	Description *string                  `json:"description"`
	Priority    *models.WorkflowPriority `json:"priority"`
	DueDate     *time.Time               `json:"due_date"`
}

// UpdateStatusRequest drives a workflow status transition.
type UpdateStatusRequest struct {
	Status models.WorkflowStatus `json:"status" validate:"required"`
}

// WorkflowQuery mirrors the supported listing filters.
type WorkflowQuery struct {
	Status      string `form:"status"`
	ItemType    string `form:"item_type"`
	ItemID      *int64 `form:"item_id"`
	RequesterID string `form:"requester_id"`
}

// AddReviewerRequest assigns an approver to a workflow.
type AddReviewerRequest struct {
	ReviewerID string `json:"reviewer_id" validate:"required"`
}

// SubmitReviewRequest records a reviewer's vote on their assignment row.
type SubmitReviewRequest struct {
	Status   models.ReviewerStatus `json:"status" validate:"required"`
	Comments *string               `json:"comments"`
}

// AddStakeholderRequest attaches a non-voting party to a workflow.
type AddStakeholderRequest struct {
	StakeholderID string `json:"stakeholder_id" validate:"required"`
}

// CommentRequest carries the content for creating or editing a comment.
type CommentRequest struct {
	Content string `json:"content" validate:"required"`
}
