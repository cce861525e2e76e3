package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/upb/notekeeper/models"
	"github.com/upb/notekeeper/repositories"
	"go.uber.org/zap"
)

const noteColumns = `id, user_id, title, description, tags, date, created_at, updated_at`

// NoteRepository implements the repositories.NoteRepository interface
type NoteRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *DB, logger *zap.Logger) repositories.NoteRepository {
	return &NoteRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new note
func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	query := `
		INSERT INTO notes (` + noteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	tags, err := encodeTags(note.Tags)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		note.ID,
		note.UserID,
		note.Title,
		note.Desc,
		tags,
		note.Date,
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	r.logger.Debug("note created",
		zap.String("id", note.ID.String()),
		zap.String("user_id", note.UserID.String()))
	return nil
}

// ListByOwner retrieves all notes for an owner
func (r *NoteRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Note, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE user_id = $1
		ORDER BY date ASC, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	notes := []*models.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating note rows: %w", err)
	}

	return notes, nil
}

// UpdateByIDAndOwner updates the set fields of a note in one statement.
// Unset patch fields are passed as NULL and keep their current value.
func (r *NoteRepository) UpdateByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID, patch models.NotePatch) (*models.Note, error) {
	query := `
		UPDATE notes
		SET title = COALESCE($3, title),
		    description = COALESCE($4, description),
		    tags = COALESCE($5::jsonb, tags),
		    date = COALESCE($6, date),
		    updated_at = $7
		WHERE id = $1 AND user_id = $2
		RETURNING ` + noteColumns

	var tags interface{}
	if patch.Tags != nil {
		encoded, err := encodeTags(*patch.Tags)
		if err != nil {
			return nil, err
		}
		tags = encoded
	}

	note, err := scanNote(r.db.QueryRowContext(ctx, query,
		id,
		ownerID,
		nullableString(patch.Title),
		nullableString(patch.Desc),
		tags,
		nullableTime(patch.Date),
		time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("note %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	r.logger.Debug("note updated", zap.String("id", id.String()))
	return note, nil
}

// DeleteByIDAndOwner deletes a note and returns the removed row
func (r *NoteRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Note, error) {
	query := `
		DELETE FROM notes
		WHERE id = $1 AND user_id = $2
		RETURNING ` + noteColumns

	note, err := scanNote(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("note %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete note: %w", err)
	}

	r.logger.Debug("note deleted", zap.String("id", id.String()))
	return note, nil
}

func scanNote(row rowScanner) (*models.Note, error) {
	note := &models.Note{}
	var tags []byte
	err := row.Scan(
		&note.ID,
		&note.UserID,
		&note.Title,
		&note.Desc,
		&tags,
		&note.Date,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	note.Tags = []models.Tag{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &note.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}
	return note, nil
}

// encodeTags renders tags as a JSON string, which both drivers send as jsonb text
func encodeTags(tags []models.Tag) (string, error) {
	if tags == nil {
		tags = []models.Tag{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(data), nil
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
