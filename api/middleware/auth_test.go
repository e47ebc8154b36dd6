package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuthConfig = config.AuthConfig{JWTSecret: "secret", Audience: "authenticated"}

func newTestValidator(t *testing.T) *auth.Validator {
	t.Helper()
	v, err := auth.NewValidator(testAuthConfig)
	require.NoError(t, err)
	return v
}

func TestAuthRejectsMissingOrInvalidToken(t *testing.T) {
	handler := Auth(newTestValidator(t), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, header := range []string{"", "Bearer ", "Bearer invalid"} {
		req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, "header %q", header)
	}
}

func TestAuthSeedsIdentity(t *testing.T) {
	user := uuid.New()
	token, err := auth.Mint(testAuthConfig, time.Now(), time.Hour, auth.Identity{UserID: user, Email: "u@example.com"})
	require.NoError(t, err)

	var got auth.Identity
	handler := Auth(newTestValidator(t), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = IdentityFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, user.String(), UserIDFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, user, got.UserID)
	assert.Equal(t, "u@example.com", got.Email)
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	token, err := auth.Mint(testAuthConfig, time.Now().Add(-2*time.Hour), time.Hour, auth.Identity{UserID: uuid.New()})
	require.NoError(t, err)

	handler := Auth(newTestValidator(t), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
