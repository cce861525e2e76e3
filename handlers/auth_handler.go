package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/upb/notekeeper/auth"
	"github.com/upb/notekeeper/middleware"
	"github.com/upb/notekeeper/models"
	"github.com/upb/notekeeper/services"
	"github.com/upb/notekeeper/utils"
	"go.uber.org/zap"
)

// RegisterRequest represents a request to create an account
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

// UpdateProfileRequest represents a partial profile update
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthService defines the account operations the auth handler needs
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update models.UserUpdate) (*models.User, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

// AuthHandler handles account HTTP requests
type AuthHandler struct {
	service AuthService
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// HandleRegister handles POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	if !passwordFits(w, req.Password) {
		return
	}

	result, err := h.service.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "Account created successfully", authPayload(result))
}

// HandleLogin handles POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "Login successful", authPayload(result))
}

// HandleGetProfile handles GET /api/auth/profile
func (h *AuthHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	user, err := h.service.GetProfile(r.Context(), principal.ID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "", utils.Payload{"user": toUserResponse(user)})
}

// HandleUpdateProfile handles PUT /api/auth/profile
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	var req UpdateProfileRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), principal.ID, models.UserUpdate{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "Profile updated successfully", utils.Payload{"user": toUserResponse(user)})
}

// HandleDeleteProfile handles DELETE /api/auth/profile
func (h *AuthHandler) HandleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	if err := h.service.DeleteAccount(r.Context(), principal.ID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("account deleted",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("user_id", principal.ID.String()))
	_ = utils.WriteOK(w, "Account deleted successfully", nil)
}

// passwordFits rejects passwords bcrypt would have to truncate. The validator
// counts runes, bcrypt counts bytes.
func passwordFits(w http.ResponseWriter, password string) bool {
	if len(password) <= auth.MaxPasswordBytes {
		return true
	}
	_ = utils.WriteBadRequest(w, "Validation failed", map[string]interface{}{
		"password": "password must be at most 72 bytes",
	})
	return false
}

func authPayload(result *services.AuthResult) utils.Payload {
	return utils.Payload{
		"token":     result.Token,
		"expiresAt": result.ExpiresAt,
		"user":      toUserResponse(result.User),
	}
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
