package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-be/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityEcho(t *testing.T, got *user.Identity, found *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := user.FromContext(r.Context())
		*got = id
		*found = ok
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	t.Run("ValidToken", func(t *testing.T) {
		token, err := user.GenerateJWT("u1", "alice", user.RoleAdmin)
		require.NoError(t, err)

		var got user.Identity
		var found bool
		handler := Authenticate(identityEcho(t, &got, &found))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.True(t, found)
		assert.Equal(t, "u1", got.UserID)
		assert.Equal(t, user.RoleAdmin, got.Role)
	})

	t.Run("NoHeaderPassesThroughAnonymous", func(t *testing.T) {
		var got user.Identity
		var found bool
		handler := Authenticate(identityEcho(t, &got, &found))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, found)
	})

	t.Run("GarbageTokenPassesThroughAnonymous", func(t *testing.T) {
		var got user.Identity
		var found bool
		handler := Authenticate(identityEcho(t, &got, &found))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, found)
	})
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth(next)

	t.Run("Authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := user.NewContext(req.Context(), user.Identity{UserID: "u1", Role: user.RoleUser})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireRole(user.RoleAdmin)(next)

	tests := []struct {
		name     string
		identity *user.Identity
		want     int
	}{
		{"Admin", &user.Identity{UserID: "a1", Role: user.RoleAdmin}, http.StatusOK},
		{"Plain user", &user.Identity{UserID: "u1", Role: user.RoleUser}, http.StatusForbidden},
		{"Anonymous", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.identity != nil {
				req = req.WithContext(user.NewContext(req.Context(), *tt.identity))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
