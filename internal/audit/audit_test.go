package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuditRepo(t *testing.T) (*Repository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewRepository(db), mock, db
}

func TestRepository_Record(t *testing.T) {
	repo, mock, db := setupAuditRepo(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("inserts entry and assigns id", func(t *testing.T) {
		created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`INSERT INTO export_audit`).
			WithArgs(sqlmock.AnyArg(), "html", "guest", "考察", 3, "admin", "exports/2024-05-01/x.html").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

		e := &Entry{Kind: "html", Permission: "guest", Title: "考察", ProjectCount: 3, UserID: "admin", ArchiveKey: "exports/2024-05-01/x.html"}
		require.NoError(t, repo.Record(ctx, e))
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, created, e.CreatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("anonymous export stores null user", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO export_audit`).
			WithArgs("fixed-id", "pdf", "guest", "t", 0, nil, nil).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		e := &Entry{ID: "fixed-id", Kind: "pdf", Permission: "guest", Title: "t"}
		require.NoError(t, repo.Record(ctx, e))
		assert.Equal(t, "fixed-id", e.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps database errors", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO export_audit`).WillReturnError(errors.New("connection reset"))

		err := repo.Record(ctx, &Entry{Kind: "json", Permission: "admin"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to record export")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_List(t *testing.T) {
	repo, mock, db := setupAuditRepo(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT (.+) FROM export_audit`).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "permission", "title", "project_count", "user_id", "archive_key", "created_at"}).
			AddRow("a", "html", "admin", "t1", 5, "admin", "exports/k", now).
			AddRow("b", "json", "admin", "t2", 9, nil, nil, now.Add(-time.Hour)))

	entries, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "admin", entries[0].UserID)
	assert.Equal(t, "", entries[1].UserID)
	assert.Equal(t, 9, entries[1].ProjectCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_EnsureSchema(t *testing.T) {
	repo, mock, db := setupAuditRepo(t)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS export_audit`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	e := &Entry{Kind: "json"}
	require.NoError(t, r.Record(context.Background(), e))
	assert.False(t, e.CreatedAt.IsZero())

	list, err := r.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
