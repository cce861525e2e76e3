package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/notekeeper/models"
)

var (
	// ErrNotFound is returned when no row matches the lookup (including an owner mismatch)
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a write violates a uniqueness constraint
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository handles user data operations
type UserRepository interface {
	// Create inserts a new user. Returns ErrDuplicate if the email is taken.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by exact email
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Update persists name, email and updated_at. Returns ErrDuplicate if the
	// new email belongs to another user.
	Update(ctx context.Context, user *models.User) error

	// Delete removes a user together with every note the user owns
	Delete(ctx context.Context, id uuid.UUID) error
}

// NoteRepository handles note data operations. Every call except Create is
// scoped to an owner; a note owned by someone else behaves as absent.
type NoteRepository interface {
	// Create inserts a new note
	Create(ctx context.Context, note *models.Note) error

	// ListByOwner returns the owner's notes ordered by date
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Note, error)

	// UpdateByIDAndOwner applies patch to the note matching both id and owner
	// and returns the updated note
	UpdateByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID, patch models.NotePatch) (*models.Note, error)

	// DeleteByIDAndOwner removes the note matching both id and owner and
	// returns it
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Note, error)
}

// Repositories holds all repository instances
type Repositories struct {
	Users UserRepository
	Notes NoteRepository
}

// HealthChecker is implemented by stores that can report their own readiness
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
