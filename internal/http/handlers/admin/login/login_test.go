package login

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/archive-delivery/internal/lib/jwt"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/password"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	logger := newNoopLogger()
	maker := jwt.NewJWTMaker("test-secret-key", time.Hour)

	adminHash, err := password.GetHash("supersecret")
	require.NoError(t, err)

	handler := New(logger, maker, adminHash)

	tests := []struct {
		name           string
		requestBody    interface{}
		wantStatusCode int
		wantError      string
		wantStatus     string
		wantToken      bool
	}{
		{
			name:           "valid login",
			requestBody:    Request{Username: "admin", Password: "supersecret"},
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
			wantToken:      true,
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
			wantStatus:     "Error",
		},
		{
			name:           "validation error - missing password",
			requestBody:    Request{Username: "admin"},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field Password is a required field",
			wantStatus:     "Error",
		},
		{
			name:           "wrong password",
			requestBody:    Request{Username: "admin", Password: "wrongpass"},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "invalid credentials",
			wantStatus:     "Error",
		},
		{
			name:           "wrong username",
			requestBody:    Request{Username: "intruder", Password: "supersecret"},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "invalid credentials",
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var bodyBytes []byte
			var err error
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				bodyBytes, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err = json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantError != "" {
				errStr, ok := got["error"].(string)
				assert.True(t, ok)
				assert.Equal(t, tt.wantError, errStr)
			} else {
				assert.Nil(t, got["error"])
			}

			if tt.wantToken {
				data, ok := got["data"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "admin", data["role"])
				assert.Equal(t, "admin", data["username"])

				token, ok := data["token"].(string)
				require.True(t, ok)
				claims, err := maker.ParseToken(token)
				require.NoError(t, err)
				assert.Equal(t, "admin", claims.Username)
				assert.Equal(t, "admin", claims.Role)
			}
		})
	}
}
