package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/confera/approvals-api/internal/models"
)

func TestReviewerRepositoryCreateDefaultsPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReviewerRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workflow_reviewers")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	reviewer := &models.WorkflowReviewer{WorkflowID: "wf-1", ReviewerID: "user-11"}
	require.NoError(t, repo.Create(context.Background(), reviewer))
	require.NotEmpty(t, reviewer.ID)
	require.Equal(t, models.ReviewerStatusPending, reviewer.Status)
	require.Nil(t, reviewer.ReviewedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewerRepositoryListByWorkflow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReviewerRepository(db)
	rows := sqlmock.NewRows([]string{"id", "workflow_id", "reviewer_id", "status", "comments", "reviewed_at"}).
		AddRow("rev-1", "wf-1", "user-11", "pending", nil, nil).
		AddRow("rev-2", "wf-1", "user-12", "approved", "lgtm", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM workflow_reviewers WHERE workflow_id = $1")).
		WithArgs("wf-1").
		WillReturnRows(rows)

	reviewers, err := repo.ListByWorkflow(context.Background(), "wf-1")
	require.NoError(t, err)
	require.Len(t, reviewers, 2)
	require.Equal(t, "user-11", reviewers[0].ReviewerID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewerRepositorySubmitReview(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReviewerRepository(db)
	comments := "Budget too high"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE workflow_reviewers SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SubmitReview(context.Background(), "rev-1", models.ReviewerStatusRejected, &comments))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE workflow_reviewers SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.SubmitReview(context.Background(), "missing", models.ReviewerStatusApproved, nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewerRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReviewerRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM workflow_reviewers WHERE id = $1")).
		WithArgs("rev-1").WillReturnResult(sqlmock.NewResult(0, 1))
	removed, err := repo.Delete(context.Background(), "rev-1")
	require.NoError(t, err)
	require.True(t, removed)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM workflow_reviewers WHERE id = $1")).
		WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))
	removed, err = repo.Delete(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}
