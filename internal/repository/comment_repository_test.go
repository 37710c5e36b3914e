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

func TestCommentRepositoryCreateAndList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCommentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workflow_comments")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	comment := &models.WorkflowComment{WorkflowID: "wf-1", UserID: "user-3", Content: "Looks reasonable"}
	require.NoError(t, repo.Create(context.Background(), comment))
	require.NotEmpty(t, comment.ID)
	require.False(t, comment.CreatedAt.IsZero())

	rows := sqlmock.NewRows([]string{"id", "workflow_id", "user_id", "content", "created_at"}).
		AddRow("c-2", "wf-1", "user-4", "Second", time.Now()).
		AddRow("c-1", "wf-1", "user-3", "First", time.Now().Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM workflow_comments WHERE workflow_id = $1 ORDER BY created_at DESC")).
		WithArgs("wf-1").
		WillReturnRows(rows)

	comments, err := repo.ListByWorkflow(context.Background(), "wf-1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.Equal(t, "c-2", comments[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepositoryUpdateContentMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCommentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE workflow_comments SET content = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateContent(context.Background(), "missing", "edited")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepositoryAppendAndList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewHistoryRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workflow_history")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.WorkflowHistory{WorkflowID: "wf-1", UserID: "user-9", Action: models.HistoryReviewerAdded}
	require.NoError(t, repo.Create(context.Background(), entry))
	require.NotEmpty(t, entry.ID)

	rows := sqlmock.NewRows([]string{"id", "workflow_id", "user_id", "action", "created_at"}).
		AddRow("h-2", "wf-1", "user-9", "Status changed to approved", time.Now()).
		AddRow("h-1", "wf-1", "user-7", "Reviewer added", time.Now().Add(-time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("FROM workflow_history WHERE workflow_id = $1 ORDER BY created_at DESC")).
		WithArgs("wf-1").
		WillReturnRows(rows)

	history, err := repo.ListByWorkflow(context.Background(), "wf-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "Status changed to approved", history[0].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}
