package models

import "time"

// WorkflowComment is a free-form discussion entry attached to a workflow.
type WorkflowComment struct {
	ID         string    `db:"id" json:"id"`
	WorkflowID string    `db:"workflow_id" json:"workflow_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
