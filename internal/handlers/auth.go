package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trendystore/authserver/internal/logging"
	"github.com/trendystore/authserver/internal/services"
	"github.com/trendystore/authserver/types"
)

const msgRegistered = "User was registered successfully!"

// AuthHandler provides registration and sign-in endpoints.
type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
	log         logging.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService, userService *services.UserService, log logging.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		log:         log,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, authService *services.AuthService, userService *services.UserService, checks *PreChecks, log logging.Logger) {
	handler := NewAuthHandler(authService, userService, log)

	r.With(decodeUserInput, checks.CheckRolesExisted, checks.CheckInputUserValue, validateUser).
		Post("/registration", handler.Register)
	r.Post("/signin", handler.SignIn)
}

// Register creates a user holding the requested roles, or the default role.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	in := userInputFromContext(r.Context())

	if _, err := h.userService.Register(r.Context(), in); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeMessage(w, r, http.StatusOK, msgRegistered)
}

// SignInFailure is returned for a wrong password below the attempt limit.
type SignInFailure struct {
	AccessToken        *string `json:"accessToken"`
	Message            string  `json:"message"`
	LoginAttemptsCount int     `json:"loginAttemptsCount"`
}

// SignIn verifies credentials and returns a token with the user's authorities.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req types.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}

	resp, err := h.authService.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		var pwdErr *services.InvalidPasswordError
		if errors.As(err, &pwdErr) {
			writeJSON(w, r, http.StatusUnauthorized, SignInFailure{
				Message:            pwdErr.Error(),
				LoginAttemptsCount: pwdErr.Attempts,
			})
			return
		}
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, r, http.StatusOK, resp)
}
