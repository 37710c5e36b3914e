package models

import "time"

// ReviewerStatus is the per-reviewer vote, independent of the workflow status.
type ReviewerStatus string

const (
	ReviewerStatusPending  ReviewerStatus = "pending"
	ReviewerStatusApproved ReviewerStatus = "approved"
	ReviewerStatusRejected ReviewerStatus = "rejected"
)

// Valid reports whether the reviewer status belongs to the accepted set.
func (s ReviewerStatus) Valid() bool {
	switch s {
	case ReviewerStatusPending, ReviewerStatusApproved, ReviewerStatusRejected:
		return true
	}
	return false
}

// WorkflowReviewer is one assigned approver on a workflow. ReviewedAt stays
// nil until a review is actually submitted.
type WorkflowReviewer struct {
	ID         string         `db:"id" json:"id"`
	WorkflowID string         `db:"workflow_id" json:"workflow_id"`
	ReviewerID string         `db:"reviewer_id" json:"reviewer_id"`
	Status     ReviewerStatus `db:"status" json:"status"`
	Comments   *string        `db:"comments" json:"comments,omitempty"`
	ReviewedAt *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

// WorkflowStakeholder is a party with visibility on a workflow but no vote.
type WorkflowStakeholder struct {
	ID            string `db:"id" json:"id"`
	WorkflowID    string `db:"workflow_id" json:"workflow_id"`
	StakeholderID string `db:"stakeholder_id" json:"stakeholder_id"`
}
