package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/notekeeper/repositories/memory"
	"github.com/upb/notekeeper/repositories/postgres"
	"go.uber.org/zap"
)

func TestHandleHealth(t *testing.T) {
	handler := NewHealthHandler(nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.HandleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "ok", response.Status)
	assert.NotEmpty(t, response.Timestamp)
}

func TestHandleReadiness(t *testing.T) {
	logger := zap.NewNop()

	readiness := func(handler *HealthHandler) (int, map[string]interface{}) {
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		w := httptest.NewRecorder()
		handler.HandleReadiness(w, req)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		return w.Code, response
	}

	assertNotReady := func(t *testing.T, code int, response map[string]interface{}) {
		t.Helper()
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, false, response["success"])
		assert.Equal(t, "unavailable", response["error"])
		assert.Equal(t, "Service not ready", response["message"])

		details := response["details"].(map[string]interface{})
		assert.Equal(t, "not_ready", details["status"])
		assert.Equal(t, "unhealthy", details["checks"].(map[string]interface{})["storage"])
	}

	t.Run("ready when database is available", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		code, response := readiness(NewHealthHandler(postgres.NewDBFromConn(db, logger), logger))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ready", response["status"])
		assert.Equal(t, "healthy", response["checks"].(map[string]interface{})["storage"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not ready when database ping fails", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		code, response := readiness(NewHealthHandler(postgres.NewDBFromConn(db, logger), logger))

		assertNotReady(t, code, response)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ready with memory store", func(t *testing.T) {
		code, response := readiness(NewHealthHandler(memory.NewStore(), logger))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response["checks"].(map[string]interface{})["storage"])
	})

	t.Run("not ready without store", func(t *testing.T) {
		code, response := readiness(NewHealthHandler(nil, logger))

		assertNotReady(t, code, response)
	})
}
