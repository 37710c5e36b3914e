package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/confera/approvals-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func workflowRows(wf *models.ApprovalWorkflow) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "description", "item_type", "item_id", "priority", "status", "due_date", "requester_id", "created_at", "updated_at"}).
		AddRow(wf.ID, wf.Title, wf.Description, wf.ItemType, wf.ItemID, wf.Priority, wf.Status, wf.DueDate, wf.RequesterID, wf.CreatedAt, wf.UpdatedAt)
}

func TestWorkflowRepositoryCreateInsertsParticipants(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWorkflowRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO approval_workflows")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workflow_reviewers")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workflow_reviewers")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workflow_stakeholders")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	wf := &models.ApprovalWorkflow{
		Title:       "Sponsor ACME for KubeCon",
		ItemType:    models.ItemTypeSponsorship,
		ItemID:      42,
		Priority:    models.PriorityHigh,
		Status:      models.WorkflowStatusPending,
		RequesterID: "user-7",
	}
	err := repo.Create(context.Background(), wf, []string{"user-11", "user-12"}, []string{"user-20"})
	require.NoError(t, err)
	require.NotEmpty(t, wf.ID)
	require.Equal(t, wf.CreatedAt, wf.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWorkflowRepository(db)
	now := time.Now()
	wf := &models.ApprovalWorkflow{
		ID:          "wf-1",
		Title:       "CFP: Observability deep dive",
		ItemType:    models.ItemTypeCFPSubmission,
		ItemID:      9,
		Priority:    models.PriorityMedium,
		Status:      models.WorkflowStatusPending,
		RequesterID: "user-3",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, item_type")).
		WithArgs("wf-1").
		WillReturnRows(workflowRows(wf))

	found, err := repo.GetByID(context.Background(), "wf-1")
	require.NoError(t, err)
	require.Equal(t, "wf-1", found.ID)
	require.Equal(t, models.ItemTypeCFPSubmission, found.ItemType)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, item_type")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryListByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWorkflowRepository(db)
	now := time.Now()
	wf := &models.ApprovalWorkflow{
		ID: "wf-1", Title: "Budget for venue", ItemType: models.ItemTypeBudgetRequest, ItemID: 4,
		Priority: models.PriorityLow, Status: models.WorkflowStatusApproved, RequesterID: "user-2",
		CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectQuery(regexp.QuoteMeta("FROM approval_workflows WHERE status = $1 ORDER BY created_at DESC")).
		WithArgs(string(models.WorkflowStatusApproved)).
		WillReturnRows(workflowRows(wf))

	list, err := repo.List(context.Background(), models.WorkflowFilter{Status: models.WorkflowStatusApproved})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, models.WorkflowStatusApproved, list[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryListByItemPair(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWorkflowRepository(db)
	now := time.Now()
	wf := &models.ApprovalWorkflow{
		ID: "wf-2", Title: "Sponsor ACME", ItemType: models.ItemTypeSponsorship, ItemID: 42,
		Priority: models.PriorityHigh, Status: models.WorkflowStatusPending, RequesterID: "user-7",
		CreatedAt: now, UpdatedAt: now,
	}
	itemID := int64(42)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE item_type = $1 AND item_id = $2")).
		WithArgs(string(models.ItemTypeSponsorship), itemID).
		WillReturnRows(workflowRows(wf))

	list, err := repo.List(context.Background(), models.WorkflowFilter{
		ItemType: models.ItemTypeSponsorship,
		ItemID:   &itemID,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int64(42), list[0].ItemID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWorkflowRepository(db)
	title := "Renamed"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE approval_workflows SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "missing", UpdateWorkflowParams{Title: &title})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryUpdateStatusWithHistory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWorkflowRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE approval_workflows SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workflow_history")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.UpdateStatusWithHistory(context.Background(), "wf-1", models.WorkflowStatusApproved, "user-9")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryUpdateStatusRollsBackWhenMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWorkflowRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE approval_workflows SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.UpdateStatusWithHistory(context.Background(), "missing", models.WorkflowStatusRejected, "user-9")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryDeleteCascadeOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWorkflowRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM workflow_reviewers")).
		WithArgs("wf-1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM workflow_stakeholders")).
		WithArgs("wf-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM workflow_comments")).
		WithArgs("wf-1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM workflow_history")).
		WithArgs("wf-1").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM approval_workflows")).
		WithArgs("wf-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := repo.DeleteCascade(context.Background(), "wf-1")
	require.NoError(t, err)
	require.True(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryDeleteCascadeMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWorkflowRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM workflow_reviewers")).
		WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM workflow_stakeholders")).
		WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM workflow_comments")).
		WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM workflow_history")).
		WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM approval_workflows")).
		WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	deleted, err := repo.DeleteCascade(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
