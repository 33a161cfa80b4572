package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/trendystore/authserver/internal/logging"
	"github.com/trendystore/authserver/internal/services"
)

// TokenHeader carries the access token on authenticated requests.
const TokenHeader = "x-access-token"

const (
	msgNoToken      = "No token provided! Need to add header!"
	msgUnauthorized = "Unauthorized!"
)

// TokenVerifier resolves a token to its user id.
type TokenVerifier interface {
	Verify(token string) (int, error)
}

// Gate holds the token and role middlewares applied to protected routes.
type Gate struct {
	tokens TokenVerifier
	auth   *services.AuthService
	log    logging.Logger
}

func NewGate(tokens TokenVerifier, authService *services.AuthService, log logging.Logger) *Gate {
	return &Gate{tokens: tokens, auth: authService, log: log}
}

// VerifyToken rejects requests without a valid token and stores the
// token subject in the request context.
func (g *Gate) VerifyToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get(TokenHeader))
		if token == "" {
			writeMessage(w, r, http.StatusForbidden, msgNoToken)
			return
		}

		userID, err := g.tokens.Verify(token)
		if err != nil {
			g.log.Debug(r.Context(), "token rejected", "error", err)
			writeMessage(w, r, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), contextSubjectKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return g.require(services.AdminPolicy)(next)
}

func (g *Gate) RequireModerator(next http.Handler) http.Handler {
	return g.require(services.ModeratorPolicy)(next)
}

func (g *Gate) RequireModeratorOrAdmin(next http.Handler) http.Handler {
	return g.require(services.ModeratorOrAdminPolicy)(next)
}

// require must run after VerifyToken.
func (g *Gate) require(policy services.RolePolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := userIDFromContext(r.Context())
			if err != nil {
				writeMessage(w, r, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			if err := g.auth.Authorize(r.Context(), userID, policy); err != nil {
				writeServiceError(w, r, g.log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
