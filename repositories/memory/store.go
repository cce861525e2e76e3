// Package memory is an in-process implementation of the repositories for
// development and tests. All state is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/upb/notekeeper/models"
	"github.com/upb/notekeeper/repositories"
)

// Store holds users and notes behind a single lock so that email uniqueness
// and the user to notes cascade are atomic
type Store struct {
	mu     sync.RWMutex
	users  map[uuid.UUID]*models.User
	emails map[string]uuid.UUID
	notes  map[uuid.UUID]*models.Note
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:  make(map[uuid.UUID]*models.User),
		emails: make(map[string]uuid.UUID),
		notes:  make(map[uuid.UUID]*models.Note),
	}
}

// NewRepositories returns repositories backed by s
func (s *Store) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Users: &UserRepository{store: s},
		Notes: &NoteRepository{store: s},
	}
}

// HealthCheck always succeeds
func (s *Store) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}

// UserRepository implements repositories.UserRepository on a Store
type UserRepository struct {
	store *Store
}

// Create inserts user unless its email is taken
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[user.Email]; taken {
		return fmt.Errorf("failed to create user: %w", repositories.ErrDuplicate)
	}
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("failed to create user: %w", repositories.ErrDuplicate)
	}

	stored := *user
	s.users[user.ID] = &stored
	s.emails[user.Email] = user.ID
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
	}
	found := *user
	return &found, nil
}

// GetByEmail retrieves a user by exact email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, fmt.Errorf("user with email: %w", repositories.ErrNotFound)
	}
	found := *s.users[id]
	return &found, nil
}

// Update persists name, email and updated_at
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return fmt.Errorf("user %s: %w", user.ID, repositories.ErrNotFound)
	}
	if owner, taken := s.emails[user.Email]; taken && owner != user.ID {
		return fmt.Errorf("failed to update user: %w", repositories.ErrDuplicate)
	}

	delete(s.emails, current.Email)
	current.Name = user.Name
	current.Email = user.Email
	current.UpdatedAt = user.UpdatedAt
	s.emails[current.Email] = current.ID
	return nil
}

// Delete removes the user and every note the user owns
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
	}

	for noteID, note := range s.notes {
		if note.UserID == id {
			delete(s.notes, noteID)
		}
	}
	delete(s.emails, user.Email)
	delete(s.users, id)
	return nil
}

// NoteRepository implements repositories.NoteRepository on a Store
type NoteRepository struct {
	store *Store
}

// Create inserts a note. The owner must exist.
func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[note.UserID]; !ok {
		return fmt.Errorf("failed to create note: owner %s does not exist", note.UserID)
	}
	if _, exists := s.notes[note.ID]; exists {
		return fmt.Errorf("failed to create note: %w", repositories.ErrDuplicate)
	}

	s.notes[note.ID] = cloneNote(note)
	return nil
}

// ListByOwner returns the owner's notes ordered by date
func (r *NoteRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	notes := []*models.Note{}
	for _, note := range s.notes {
		if note.UserID == ownerID {
			notes = append(notes, cloneNote(note))
		}
	}

	sort.Slice(notes, func(i, j int) bool {
		if !notes[i].Date.Equal(notes[j].Date) {
			return notes[i].Date.Before(notes[j].Date)
		}
		return notes[i].CreatedAt.Before(notes[j].CreatedAt)
	})
	return notes, nil
}

// UpdateByIDAndOwner applies patch to the owner's note
func (r *NoteRepository) UpdateByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID, patch models.NotePatch) (*models.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	note, ok := s.notes[id]
	if !ok || note.UserID != ownerID {
		return nil, fmt.Errorf("note %s: %w", id, repositories.ErrNotFound)
	}

	patch.Apply(note)
	return cloneNote(note), nil
}

// DeleteByIDAndOwner removes the owner's note and returns it
func (r *NoteRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	note, ok := s.notes[id]
	if !ok || note.UserID != ownerID {
		return nil, fmt.Errorf("note %s: %w", id, repositories.ErrNotFound)
	}

	delete(s.notes, id)
	return note, nil
}

func cloneNote(note *models.Note) *models.Note {
	out := *note
	out.Tags = append([]models.Tag{}, note.Tags...)
	return &out
}
