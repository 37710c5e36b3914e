package models

import "time"

// History action texts recorded outside updateStatus. Status changes use
// StatusChangeAction instead.
const (
	HistoryReviewerAdded      = "Reviewer added"
	HistoryReviewerRemoved    = "Reviewer removed"
	HistoryReviewSubmitted    = "Review submitted"
	HistoryStakeholderAdded   = "Stakeholder added"
	HistoryStakeholderRemoved = "Stakeholder removed"
	HistoryCommentAdded       = "Comment added"
)

// StatusChangeAction builds the ledger entry text for a status transition.
func StatusChangeAction(status WorkflowStatus) string {
	return "Status changed to " + string(status)
}

// WorkflowHistory is one append-only audit record. Rows are never updated or
// individually deleted; they disappear only with the whole workflow.
type WorkflowHistory struct {
	ID         string    `db:"id" json:"id"`
	WorkflowID string    `db:"workflow_id" json:"workflow_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Action     string    `db:"action" json:"action"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
