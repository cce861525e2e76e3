package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/upb/notekeeper/auth"
	"github.com/upb/notekeeper/models"
	"github.com/upb/notekeeper/repositories"
	"go.uber.org/zap"
)

// RegisterInput carries the fields of a new account
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// AuthService owns accounts: registration, login, principal resolution and
// self-service profile operations
type AuthService struct {
	users  repositories.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenService
	logger *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(users repositories.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates an account and returns a session token for it.
// A taken email yields ErrEmailExists, also when two registrations race.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	_, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, ErrEmailExists
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, WrapInternal("failed to look up user", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(in.Name, in.Email, hash)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, WrapInternal("failed to create user", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

// Login checks credentials and returns a fresh session token.
// An unknown email yields ErrUserNotFound, a wrong password ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal("failed to look up user", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Warn("login rejected", zap.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// ResolvePrincipal loads the user a verified token refers to
func (s *AuthService) ResolvePrincipal(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.GetProfile(ctx, id)
}

// GetProfile returns the user with the given id
func (s *AuthService) GetProfile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal("failed to get user", err)
	}
	return user, nil
}

// UpdateProfile changes the name and/or email of the user
func (s *AuthService) UpdateProfile(ctx context.Context, id uuid.UUID, update models.UserUpdate) (*models.User, error) {
	user, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	update.Apply(user)
	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, ErrEmailExists
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, WrapInternal("failed to update user", err)
		}
	}

	s.logger.Info("profile updated", zap.String("user_id", id.String()))
	return user, nil
}

// DeleteAccount removes the user and all of the user's notes. Tokens already
// issued stay signed but resolve to ErrUserNotFound from then on.
func (s *AuthService) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return WrapInternal("failed to delete user", err)
	}

	s.logger.Info("account deleted", zap.String("user_id", id.String()))
	return nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, claims, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, WrapInternal("failed to issue token", err)
	}
	return &AuthResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	}, nil
}
