package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/notekeeper/models"
	"github.com/upb/notekeeper/repositories"
	"go.uber.org/zap"
)

var noteCols = []string{"id", "user_id", "title", "description", "tags", "date", "created_at", "updated_at"}

func TestNoteRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNoteRepository(db, zap.NewNop())
	owner := uuid.New()
	note := models.NewNote(owner, "Groceries", "milk", []models.Tag{{Name: "home", Color: "#00ff00"}}, time.Time{})

	mock.ExpectExec("INSERT INTO notes").
		WithArgs(note.ID, owner, "Groceries", "milk", `[{"name":"home","color":"#00ff00"}]`, note.Date, note.CreatedAt, note.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), note))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepository_ListByOwner(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	now := time.Now().UTC()

	t.Run("scopes query to owner", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewNoteRepository(db, zap.NewNop())
		first, second := uuid.New(), uuid.New()

		mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1")).
			WithArgs(owner).
			WillReturnRows(sqlmock.NewRows(noteCols).
				AddRow(first.String(), owner.String(), "one", "d1", []byte(`[{"name":"a","color":"red"}]`), now, now, now).
				AddRow(second.String(), owner.String(), "two", "d2", []byte(`[]`), now, now, now))

		notes, err := repo.ListByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, first, notes[0].ID)
		assert.Equal(t, owner, notes[0].UserID)
		assert.Equal(t, []models.Tag{{Name: "a", Color: "red"}}, notes[0].Tags)
		assert.Empty(t, notes[1].Tags)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty list is not nil", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewNoteRepository(db, zap.NewNop())

		mock.ExpectQuery("FROM notes").WithArgs(owner).WillReturnRows(sqlmock.NewRows(noteCols))

		notes, err := repo.ListByOwner(ctx, owner)
		require.NoError(t, err)
		assert.NotNil(t, notes)
		assert.Empty(t, notes)
	})

	t.Run("corrupt tags fail the scan", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewNoteRepository(db, zap.NewNop())

		mock.ExpectQuery("FROM notes").
			WithArgs(owner).
			WillReturnRows(sqlmock.NewRows(noteCols).
				AddRow(uuid.NewString(), owner.String(), "one", "d1", []byte(`{not json`), now, now, now))

		_, err := repo.ListByOwner(ctx, owner)
		assert.Error(t, err)
	})
}

func TestNoteRepository_UpdateByIDAndOwner(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	id := uuid.New()
	now := time.Now().UTC()
	title := "Renamed"

	t.Run("partial update in one statement", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewNoteRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND user_id = $2")).
			WithArgs(id, owner, "Renamed", nil, nil, nil, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(noteCols).
				AddRow(id.String(), owner.String(), "Renamed", "d", []byte(`[]`), now, now, now))

		note, err := repo.UpdateByIDAndOwner(ctx, id, owner, models.NotePatch{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", note.Title)
		assert.Equal(t, owner, note.UserID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tags are encoded", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewNoteRepository(db, zap.NewNop())
		tags := []models.Tag{{Name: "x", Color: "blue"}}

		mock.ExpectQuery("UPDATE notes").
			WithArgs(id, owner, nil, nil, `[{"name":"x","color":"blue"}]`, nil, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(noteCols).
				AddRow(id.String(), owner.String(), "t", "d", []byte(`[{"name":"x","color":"blue"}]`), now, now, now))

		note, err := repo.UpdateByIDAndOwner(ctx, id, owner, models.NotePatch{Tags: &tags})
		require.NoError(t, err)
		assert.Equal(t, tags, note.Tags)
	})

	t.Run("no matching row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewNoteRepository(db, zap.NewNop())

		mock.ExpectQuery("UPDATE notes").WillReturnRows(sqlmock.NewRows(noteCols))

		_, err := repo.UpdateByIDAndOwner(ctx, id, owner, models.NotePatch{Title: &title})
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestNoteRepository_DeleteByIDAndOwner(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	id := uuid.New()
	now := time.Now().UTC()

	t.Run("returns deleted note", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewNoteRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM notes WHERE id = $1 AND user_id = $2")).
			WithArgs(id, owner).
			WillReturnRows(sqlmock.NewRows(noteCols).
				AddRow(id.String(), owner.String(), "t", "d", []byte(`[]`), now, now, now))

		note, err := repo.DeleteByIDAndOwner(ctx, id, owner)
		require.NoError(t, err)
		assert.Equal(t, id, note.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other owner sees not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewNoteRepository(db, zap.NewNop())
		intruder := uuid.New()

		mock.ExpectQuery("DELETE FROM notes").
			WithArgs(id, intruder).
			WillReturnRows(sqlmock.NewRows(noteCols))

		_, err := repo.DeleteByIDAndOwner(ctx, id, intruder)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestDB_InitSchemaAndHealthCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("schema", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, db.InitSchema(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("health check", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer sqlDB.Close()
		db := NewDBFromConn(sqlDB, zap.NewNop())

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		require.NoError(t, db.HealthCheck(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
