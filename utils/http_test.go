package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteJSON(t *testing.T) {
	t.Run("successful write", func(t *testing.T) {
		w := httptest.NewRecorder()
		data := map[string]string{"message": "test"}

		err := WriteJSON(w, http.StatusOK, data)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response map[string]string
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)
		assert.Equal(t, "test", response["message"])
	})

	t.Run("nil data", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteJSON(w, http.StatusNoContent, nil)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestWriteOK(t *testing.T) {
	t.Run("flattens payload into envelope", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteOK(w, "Login successful", Payload{"token": "abc"})
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Login successful", body["message"])
		assert.Equal(t, "abc", body["token"])
	})

	t.Run("message omitted when empty", func(t *testing.T) {
		w := httptest.NewRecorder()

		require.NoError(t, WriteOK(w, "", nil))

		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.NotContains(t, body, "message")
	})

	t.Run("payload cannot override success", func(t *testing.T) {
		w := httptest.NewRecorder()

		require.NoError(t, WriteOK(w, "", Payload{"success": false}))

		assert.Equal(t, true, decodeBody(t, w)["success"])
	})
}

func TestWriteCreated(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteCreated(w, "Note created", Payload{"note": map[string]string{"title": "t"}})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "t", body["note"].(map[string]interface{})["title"])
}

func TestErrorWriters(t *testing.T) {
	tests := []struct {
		name        string
		write       func(w http.ResponseWriter) error
		wantStatus  int
		wantKind    string
		wantMessage string
	}{
		{
			name:        "bad request",
			write:       func(w http.ResponseWriter) error { return WriteBadRequest(w, "Validation failed", nil) },
			wantStatus:  http.StatusBadRequest,
			wantKind:    "bad_request",
			wantMessage: "Validation failed",
		},
		{
			name:        "unauthorized default message",
			write:       func(w http.ResponseWriter) error { return WriteUnauthorized(w, "") },
			wantStatus:  http.StatusUnauthorized,
			wantKind:    "unauthorized",
			wantMessage: "Authentication required",
		},
		{
			name:        "forbidden",
			write:       func(w http.ResponseWriter) error { return WriteForbidden(w, "Invalid token. Please login again.") },
			wantStatus:  http.StatusForbidden,
			wantKind:    "forbidden",
			wantMessage: "Invalid token. Please login again.",
		},
		{
			name:        "not found",
			write:       func(w http.ResponseWriter) error { return WriteNotFound(w, "User not found") },
			wantStatus:  http.StatusNotFound,
			wantKind:    "not_found",
			wantMessage: "User not found",
		},
		{
			name:        "conflict",
			write:       func(w http.ResponseWriter) error { return WriteConflict(w, "User already exists", nil) },
			wantStatus:  http.StatusConflict,
			wantKind:    "conflict",
			wantMessage: "User already exists",
		},
		{
			name:        "internal default message",
			write:       func(w http.ResponseWriter) error { return WriteInternalServerError(w, "") },
			wantStatus:  http.StatusInternalServerError,
			wantKind:    "internal_error",
			wantMessage: "Internal server error",
		},
		{
			name:        "service unavailable",
			write:       func(w http.ResponseWriter) error { return WriteServiceUnavailable(w, "not ready", nil) },
			wantStatus:  http.StatusServiceUnavailable,
			wantKind:    "unavailable",
			wantMessage: "not ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, tt.write(w))

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantKind, body["error"])
			assert.Equal(t, tt.wantMessage, body["message"])
		})
	}
}

func TestWriteError_Details(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteError(w, http.StatusBadRequest, "Validation failed", map[string]interface{}{"email": "email is required"})
	require.NoError(t, err)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.False(t, response.Success)
	assert.Equal(t, "email is required", response.Details["email"])
}

func TestErrorKind_Unknown(t *testing.T) {
	assert.Equal(t, "method_not_allowed", ErrorKind(http.StatusMethodNotAllowed))
	assert.Equal(t, "payload_too_large", ErrorKind(http.StatusRequestEntityTooLarge))
	assert.Equal(t, "internal_error", ErrorKind(http.StatusTeapot))
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"single object", `{"name":"alice"}`, false},
		{"malformed", `{"name":`, true},
		{"trailing object", `{"name":"a"}{"name":"b"}`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.input))
			var dst body
			err := DecodeJSON(httptest.NewRecorder(), req, &dst)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "alice", dst.Name)
			}
		})
	}
}

func TestDecodeJSON_BodyLimit(t *testing.T) {
	type body struct {
		Desc string `json:"desc"`
	}

	t.Run("body under the limit decodes", func(t *testing.T) {
		desc := strings.Repeat("a", MaxBodyBytes-64)
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"desc":"`+desc+`"}`))

		var dst body
		require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &dst))
		assert.Len(t, dst.Desc, len(desc))
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		desc := strings.Repeat("a", MaxBodyBytes)
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"desc":"`+desc+`"}`))

		var dst body
		err := DecodeJSON(httptest.NewRecorder(), req, &dst)
		var tooLarge *http.MaxBytesError
		require.ErrorAs(t, err, &tooLarge)
		assert.EqualValues(t, MaxBodyBytes, tooLarge.Limit)
	})
}
