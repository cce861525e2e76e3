package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/notekeeper/auth"
	"github.com/upb/notekeeper/internal/observability"
	"github.com/upb/notekeeper/models"
	"github.com/upb/notekeeper/services"
	"github.com/upb/notekeeper/utils"
	"go.uber.org/zap"
)

// TokenVerifier verifies session tokens
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// PrincipalResolver loads the user a verified token refers to
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	verifier TokenVerifier
	resolver PrincipalResolver
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware. metrics may be nil.
func NewAuthMiddleware(verifier TokenVerifier, resolver PrincipalResolver, metrics *observability.Metrics, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		resolver: resolver,
		metrics:  metrics,
		logger:   logger,
	}
}

// RequireAuth admits a request only if it carries a valid bearer token whose
// subject still exists, and attaches that user as the request's Principal
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		header := r.Header.Get("Authorization")
		if header == "" {
			m.reject(w, requestID, "no_token", services.ErrNoToken)
			return
		}

		token, ok := extractBearerToken(header)
		if !ok {
			m.reject(w, requestID, "malformed_header", services.ErrInvalidToken)
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			switch auth.TokenErrorKind(err) {
			case auth.TokenExpired:
				m.reject(w, requestID, auth.TokenExpired.String(), services.ErrTokenExpired)
			case auth.TokenInvalid:
				m.reject(w, requestID, auth.TokenInvalid.String(), services.ErrInvalidToken)
			default:
				m.logger.Error("token verification failed",
					zap.String("request_id", requestID),
					zap.Error(err))
				m.reject(w, requestID, auth.TokenUnexpected.String(), services.ErrAuthFailed)
			}
			return
		}

		principalID, err := claims.PrincipalID()
		if err != nil {
			m.reject(w, requestID, auth.TokenInvalid.String(), services.ErrInvalidToken)
			return
		}

		user, err := m.resolver.ResolvePrincipal(ctx, principalID)
		if err != nil {
			if services.IsNotFoundError(err) {
				m.reject(w, requestID, "user_missing", services.ErrUserNotFound)
				return
			}
			m.logger.Error("principal resolution failed",
				zap.String("request_id", requestID),
				zap.String("user_id", principalID.String()),
				zap.Error(err))
			m.reject(w, requestID, "resolve_failed", services.ErrAuthFailed)
			return
		}

		ctx = WithPrincipal(ctx, &Principal{ID: user.ID, Name: user.Name})

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("user_id", user.ID.String()))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// reject answers the request with the status matching err's type
func (m *AuthMiddleware) reject(w http.ResponseWriter, requestID, reason string, err *services.DomainError) {
	m.metrics.AuthFailure(reason)
	m.logger.Warn("request rejected by auth guard",
		zap.String("request_id", requestID),
		zap.String("reason", reason))

	var writeErr error
	switch err.Type {
	case services.ErrorTypeUnauthorized:
		writeErr = utils.WriteUnauthorized(w, err.Message)
	case services.ErrorTypeForbidden:
		writeErr = utils.WriteForbidden(w, err.Message)
	case services.ErrorTypeNotFound:
		writeErr = utils.WriteNotFound(w, err.Message)
	default:
		writeErr = utils.WriteInternalServerError(w, err.Message)
	}
	if writeErr != nil {
		m.logger.Error("failed to write auth response", zap.Error(writeErr))
	}
}

// extractBearerToken returns the token of an "Authorization: Bearer <token>"
// header value
func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
