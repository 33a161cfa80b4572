package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/trendystore/authserver/internal/auth"
	"github.com/trendystore/authserver/internal/logging"
	"github.com/trendystore/authserver/internal/services"
	"github.com/trendystore/authserver/internal/store/memstore"
	"github.com/trendystore/authserver/types"
)

type testAPI struct {
	router http.Handler
	store  *memstore.Store
	tokens *auth.TokenIssuer
	users  *services.UserService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	st := memstore.NewSeeded()
	hasher := auth.NewBcryptHasher(4)
	tokens, err := auth.NewTokenIssuer("handler-secret", 24*time.Hour)
	require.NoError(t, err)
	log := logging.Nop()

	authService := services.NewAuthService(st.Users(), st.Roles(), hasher, tokens, 5)
	userService := services.NewUserService(st.Users(), st.Roles(), hasher)
	roleService := services.NewRoleService(st.Roles())
	checks := NewPreChecks(userService, roleService, log)
	gate := NewGate(tokens, authService, log)

	r := chi.NewRouter()
	r.Route("/api-auth", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) { AuthRouter(r, authService, userService, checks, log) })
		r.Route("/user", func(r chi.Router) { UserRouter(r, userService, checks, log) })
		r.Route("/role", func(r chi.Router) { RoleRouter(r, roleService, checks, log) })
		r.Route("/test", func(r chi.Router) { TestRouter(r, gate) })
	})

	return &testAPI{router: r, store: st, tokens: tokens, users: userService}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) register(t *testing.T, username string, roles ...string) types.User {
	t.Helper()
	user, err := a.users.Register(context.Background(), types.UserInput{
		Username: username,
		Password: "secret1",
		Email:    username + "@example.com",
		Roles:    roles,
	})
	require.NoError(t, err)
	return user
}

func (a *testAPI) token(t *testing.T, userID int) string {
	t.Helper()
	token, err := a.tokens.Issue(userID)
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	msg, _ := decodeBody(t, rec)["message"].(string)
	return msg
}
