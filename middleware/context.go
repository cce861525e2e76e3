package middleware

import (
	"context"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Context key type to avoid collisions
type contextKey string

const (
	// PrincipalKey is the context key for the authenticated principal
	PrincipalKey contextKey = "principal"
)

// Principal is the authenticated user a request acts on behalf of
type Principal struct {
	ID   uuid.UUID
	Name string
}

// GetRequestIDFromContext retrieves the chi request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	return chimiddleware.GetReqID(ctx)
}

// WithPrincipal adds the principal to the context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// GetPrincipalFromContext retrieves the principal from context
func GetPrincipalFromContext(ctx context.Context) *Principal {
	if val := ctx.Value(PrincipalKey); val != nil {
		if p, ok := val.(*Principal); ok {
			return p
		}
	}
	return nil
}
