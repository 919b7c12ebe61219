package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/library-ledger/pkg/auth"
)

func okHandler(t *testing.T, wantActor string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := r.Context().Value(ActorIDKey).(string)
		assert.Equal(t, wantActor, actor)
		w.WriteHeader(http.StatusOK)
	}
}

func TestAuthMiddleware(t *testing.T) {
	token, err := auth.GenerateToken("member-1", "alice", auth.RoleMember, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "valid token", authHeader: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "missing header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", authHeader: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", authHeader: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(okHandler(t, "member-1"))(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAuthMiddleware_RejectsExpiredToken(t *testing.T) {
	token, err := auth.GenerateToken("member-1", "alice", auth.RoleMember, -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	AuthMiddleware(okHandler(t, "member-1"))(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleMiddleware(t *testing.T) {
	storekeeper, err := auth.GenerateToken("sk-1", "bob", auth.RoleStorekeeper, time.Hour)
	require.NoError(t, err)
	member, err := auth.GenerateToken("member-1", "alice", auth.RoleMember, time.Hour)
	require.NoError(t, err)

	protected := RoleMiddleware(auth.RoleAdmin, auth.RoleStorekeeper)

	t.Run("allowed role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/books", nil)
		req.Header.Set("Authorization", "Bearer "+storekeeper)
		rec := httptest.NewRecorder()

		protected(okHandler(t, "sk-1"))(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("forbidden role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/books", nil)
		req.Header.Set("Authorization", "Bearer "+member)
		rec := httptest.NewRecorder()

		protected(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run for a forbidden role")
		})(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
