package models

import "time"

// WorkflowItemType identifies the kind of event entity a workflow approves.
type WorkflowItemType string

const (
	ItemTypeEventAttendance WorkflowItemType = "event_attendance"
	ItemTypeCFPSubmission   WorkflowItemType = "event_cfp_submission"
	ItemTypeSpeaking        WorkflowItemType = "event_speaking"
	ItemTypeSponsorship     WorkflowItemType = "event_sponsorship"
	ItemTypeBudgetRequest   WorkflowItemType = "event_budget_request"
)

// Valid reports whether the item type is one of the supported kinds.
func (t WorkflowItemType) Valid() bool {
	switch t {
	case ItemTypeEventAttendance, ItemTypeCFPSubmission, ItemTypeSpeaking, ItemTypeSponsorship, ItemTypeBudgetRequest:
		return true
	}
	return false
}

// WorkflowStatus captures the overall state of an approval workflow.
type WorkflowStatus string

const (
	WorkflowStatusPending          WorkflowStatus = "pending"
	WorkflowStatusApproved         WorkflowStatus = "approved"
	WorkflowStatusRejected         WorkflowStatus = "rejected"
	WorkflowStatusChangesRequested WorkflowStatus = "changes_requested"
)

// Valid reports whether the status belongs to the accepted set.
func (s WorkflowStatus) Valid() bool {
	switch s {
	case WorkflowStatusPending, WorkflowStatusApproved, WorkflowStatusRejected, WorkflowStatusChangesRequested:
		return true
	}
	return false
}

// WorkflowPriority orders workflows for reviewers.
type WorkflowPriority string

const (
	PriorityLow    WorkflowPriority = "low"
	PriorityMedium WorkflowPriority = "medium"
	PriorityHigh   WorkflowPriority = "high"
)

// NormalizePriority maps unknown priority values to the default instead of
// rejecting them.
func NormalizePriority(p WorkflowPriority) WorkflowPriority {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p
	}
	return PriorityMedium
}

// ApprovalWorkflow represents a single multi-party approval request.
type ApprovalWorkflow struct {
	ID          string           `db:"id" json:"id"`
	Title       string           `db:"title" json:"title"`
	Description *string          `db:"description" json:"description,omitempty"`
	ItemType    WorkflowItemType `db:"item_type" json:"item_type"`
	ItemID      int64            `db:"item_id" json:"item_id"`
	Priority    WorkflowPriority `db:"priority" json:"priority"`
	Status      WorkflowStatus   `db:"status" json:"status"`
	DueDate     *time.Time       `db:"due_date" json:"due_date,omitempty"`
	RequesterID string           `db:"requester_id" json:"requester_id"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// WorkflowFilter constrains workflow listing queries. ItemID only applies
// when ItemType is also set (the pair filters with AND semantics).
type WorkflowFilter struct {
	Status      WorkflowStatus
	ItemType    WorkflowItemType
	ItemID      *int64
	RequesterID string
}
