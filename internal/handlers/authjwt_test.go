package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendystore/authserver/internal/auth"
)

func TestProbeRoutes_Public(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api-auth/test", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Test Auth!", messageOf(t, rec))

	rec = api.do(t, http.MethodGet, "/api-auth/test/all", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Public Content.", rec.Body.String())
}

func TestVerifyToken_Missing(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api-auth/test/user", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "No token provided! Need to add header!", messageOf(t, rec))
}

func TestVerifyToken_Invalid(t *testing.T) {
	api := newTestAPI(t)
	user := api.register(t, "alice")

	other, err := auth.NewTokenIssuer("other-secret", time.Hour)
	require.NoError(t, err)
	forged, err := other.Issue(user.ID)
	require.NoError(t, err)

	for _, token := range []string{"garbage", forged} {
		rec := api.do(t, http.MethodGet, "/api-auth/test/user", nil, TokenHeader, token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unauthorized!", messageOf(t, rec))
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	api := newTestAPI(t)
	user := api.register(t, "alice")

	past := func() time.Time { return time.Now().Add(-25 * time.Hour) }
	issuer, err := auth.NewTokenIssuer("handler-secret", 24*time.Hour, auth.WithClock(past))
	require.NoError(t, err)
	stale, err := issuer.Issue(user.ID)
	require.NoError(t, err)

	rec := api.do(t, http.MethodGet, "/api-auth/test/user", nil, TokenHeader, stale)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleGates(t *testing.T) {
	api := newTestAPI(t)
	plain := api.register(t, "plain")
	mod := api.register(t, "mod", "moderator")
	admin := api.register(t, "boss", "admin")

	tests := []struct {
		path    string
		userID  int
		status  int
		message string
		body    string
	}{
		{"/api-auth/test/user", plain.ID, http.StatusOK, "", "User Content."},
		{"/api-auth/test/admin", plain.ID, http.StatusForbidden, "Require Admin Role!", ""},
		{"/api-auth/test/mod", plain.ID, http.StatusForbidden, "Require Moderator Role!", ""},
		{"/api-auth/test/staff", plain.ID, http.StatusForbidden, "Require Moderator or Admin Role!", ""},
		{"/api-auth/test/mod", mod.ID, http.StatusOK, "", "Moderator Content."},
		{"/api-auth/test/staff", mod.ID, http.StatusOK, "", "Staff Content."},
		{"/api-auth/test/admin", mod.ID, http.StatusForbidden, "Require Admin Role!", ""},
		{"/api-auth/test/admin", admin.ID, http.StatusOK, "", "Admin Content."},
		{"/api-auth/test/staff", admin.ID, http.StatusOK, "", "Staff Content."},
		{"/api-auth/test/admin", 999, http.StatusForbidden, "Access denied, user no longer exists.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := api.do(t, http.MethodGet, tt.path, nil, TokenHeader, api.token(t, tt.userID))
			assert.Equal(t, tt.status, rec.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, messageOf(t, rec))
			} else {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}
