package middlewarectx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lead-forge/internal/models"
)

type stubAuthService struct {
	user  *models.User
	role  string
	valid bool
	err   error
}

func (s stubAuthService) ValidateToken(ctx context.Context, token string) (*models.User, string, bool, error) {
	return s.user, s.role, s.valid, s.err
}

func TestJWTMiddleware(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cases := []struct {
		name           string
		header         string
		service        stubAuthService
		expectedStatus int
		expectUsername string
	}{
		{
			name:           "валидный токен пропускается",
			header:         "Bearer good-token",
			service:        stubAuthService{user: &models.User{Username: "alice"}, role: "user", valid: true},
			expectedStatus: http.StatusOK,
			expectUsername: "alice",
		},
		{
			name:           "без заголовка — 401",
			header:         "",
			service:        stubAuthService{},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "не Bearer — 401",
			header:         "Basic abc",
			service:        stubAuthService{},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "просроченный токен — 401",
			header:         "Bearer stale",
			service:        stubAuthService{err: errors.New("token is expired")},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotUsername string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUsername, _ = Username(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			JWTMiddleware(tc.service, log)(next).ServeHTTP(rec, req)

			require.Equal(t, tc.expectedStatus, rec.Code)
			if tc.expectUsername != "" {
				assert.Equal(t, tc.expectUsername, gotUsername)
			}
		})
	}
}
