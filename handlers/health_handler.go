package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/upb/notekeeper/repositories"
	"github.com/upb/notekeeper/utils"
	"go.uber.org/zap"
)

const readinessTimeout = 5 * time.Second

var errStoreNotConfigured = errors.New("storage not configured")

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	store  repositories.HealthChecker
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. A nil store is reported as
// not ready.
func NewHealthHandler(store repositories.HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		store:  store,
		logger: logger,
	}
}

// HandleHealth handles GET /healthz
// Basic liveness check - always returns 200 if the process is serving
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz. A failed check answers 503 with the
// error envelope, carrying the per-check map in details.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	var writeErr error
	if err := h.checkStore(ctx); err != nil {
		h.logger.Warn("storage readiness check failed", zap.Error(err))
		writeErr = utils.WriteServiceUnavailable(w, "Service not ready", map[string]interface{}{
			"status": "not_ready",
			"checks": map[string]string{"storage": "unhealthy"},
		})
	} else {
		writeErr = utils.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:    "ready",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    map[string]string{"storage": "healthy"},
		})
	}
	if writeErr != nil {
		h.logger.Error("failed to write readiness response", zap.Error(writeErr))
	}
}

func (h *HealthHandler) checkStore(ctx context.Context) error {
	if h.store == nil {
		return errStoreNotConfigured
	}
	return h.store.HealthCheck(ctx)
}
