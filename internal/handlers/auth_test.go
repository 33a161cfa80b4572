package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignIn_Success(t *testing.T) {
	api := newTestAPI(t)
	user := api.register(t, "alice")

	rec := api.do(t, http.MethodPost, "/api-auth/auth/signin", map[string]string{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(user.ID), body["id"])
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, []any{"ROLE_USER"}, body["roles"])

	subject, err := api.tokens.Verify(body["accessToken"].(string))
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)
}

func TestSignIn_UnknownUser(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api-auth/auth/signin", map[string]string{"username": "ghost", "password": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User Not found.", messageOf(t, rec))
}

func TestSignIn_WrongPassword(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice")

	rec := api.do(t, http.MethodPost, "/api-auth/auth/signin", map[string]string{"username": "alice", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"accessToken":null,"message":"Invalid Password!","loginAttemptsCount":1}`, rec.Body.String())
}

func TestSignIn_Exceeded(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice")

	for i := 0; i < 5; i++ {
		rec := api.do(t, http.MethodPost, "/api-auth/auth/signin", map[string]string{"username": "alice", "password": "nope"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := api.do(t, http.MethodPost, "/api-auth/auth/signin", map[string]string{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Exceeded maximum number of login attempts. Please reset your password."}`, rec.Body.String())
}

func TestSignIn_Deactivated(t *testing.T) {
	api := newTestAPI(t)
	user := api.register(t, "alice")
	require.NoError(t, api.store.Users().SetActive(context.Background(), user.ID, false))

	rec := api.do(t, http.MethodPost, "/api-auth/auth/signin", map[string]string{"username": "alice", "password": "secret1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied, account is deactivated.", messageOf(t, rec))
}

func TestSignIn_MalformedBody(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api-auth/auth/signin", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegistration(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api-auth/auth/registration", map[string]any{
		"username": "boss",
		"email":    "boss@example.com",
		"password": "secret1",
		"phone":    "+375 29 123-45-67",
		"roles":    []string{"admin"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User was registered successfully!", messageOf(t, rec))

	user, err := api.store.Users().GetByUsername(context.Background(), "boss")
	require.NoError(t, err)
	assert.Equal(t, "+375291234567", user.Phone)
	roles, err := api.store.Roles().ListByUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "admin", roles[0].Name)
}

func TestRegistration_ChainOrder(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice")

	// Unknown roles are reported before the username conflict.
	rec := api.do(t, http.MethodPost, "/api-auth/auth/registration", map[string]any{
		"username": "alice",
		"password": "secret1",
		"roles":    []string{"root"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Failed! Role(s) do(es) not exist: root", messageOf(t, rec))

	rec = api.do(t, http.MethodPost, "/api-auth/auth/registration", map[string]any{
		"username": "alice",
		"password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Failed! Username is already in use!", messageOf(t, rec))

	rec = api.do(t, http.MethodPost, "/api-auth/auth/registration", map[string]any{
		"username": "a",
		"password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `"username" should have a minimum length of 2`, messageOf(t, rec))
}
