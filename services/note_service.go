package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/upb/notekeeper/models"
	"github.com/upb/notekeeper/repositories"
	"go.uber.org/zap"
)

// CreateNoteInput carries the fields of a new note. There is no owner field:
// the owner always comes from the authenticated principal.
type CreateNoteInput struct {
	Title string
	Desc  string
	Tags  []models.Tag
	Date  time.Time
}

// NoteService implements owner-scoped note operations
type NoteService struct {
	notes  repositories.NoteRepository
	logger *zap.Logger
}

// NewNoteService creates a new NoteService
func NewNoteService(notes repositories.NoteRepository, logger *zap.Logger) *NoteService {
	return &NoteService{
		notes:  notes,
		logger: logger,
	}
}

// Create stores a new note owned by ownerID
func (s *NoteService) Create(ctx context.Context, ownerID uuid.UUID, in CreateNoteInput) (*models.Note, error) {
	note := models.NewNote(ownerID, in.Title, in.Desc, in.Tags, in.Date)
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, WrapInternal("failed to create note", err)
	}

	s.logger.Debug("note created",
		zap.String("note_id", note.ID.String()),
		zap.String("user_id", ownerID.String()))
	return note, nil
}

// List returns every note owned by ownerID
func (s *NoteService) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Note, error) {
	notes, err := s.notes.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, WrapInternal("failed to list notes", err)
	}
	return notes, nil
}

// Update applies patch to the note if ownerID owns it. A missing note and a
// note owned by someone else both yield ErrNoteNotFound.
func (s *NoteService) Update(ctx context.Context, ownerID, noteID uuid.UUID, patch models.NotePatch) (*models.Note, error) {
	note, err := s.notes.UpdateByIDAndOwner(ctx, noteID, ownerID, patch)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, WrapInternal("failed to update note", err)
	}
	return note, nil
}

// Delete removes the note if ownerID owns it and returns what was removed
func (s *NoteService) Delete(ctx context.Context, ownerID, noteID uuid.UUID) (*models.Note, error) {
	note, err := s.notes.DeleteByIDAndOwner(ctx, noteID, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, WrapInternal("failed to delete note", err)
	}

	s.logger.Debug("note deleted",
		zap.String("note_id", noteID.String()),
		zap.String("user_id", ownerID.String()))
	return note, nil
}
