package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/trendystore/authserver/internal/logging"
	"github.com/trendystore/authserver/internal/services"
	"github.com/trendystore/authserver/types"
)

type contextKey string

const (
	contextSubjectKey   contextKey = "sub"
	contextUserInputKey contextKey = "user_input"
	contextRoleInputKey contextKey = "role_input"
)

const msgInvalidBody = "Invalid request body"

// MessageResponse is the payload of every non-entity response.
type MessageResponse struct {
	Message string `json:"message"`
}

func userIDFromContext(ctx context.Context) (int, error) {
	subject, ok := ctx.Value(contextSubjectKey).(int)
	if !ok {
		return 0, errors.New("missing subject")
	}
	if subject < 1 {
		return 0, errors.New("invalid subject")
	}
	return subject, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, value any) {
	render.Status(r, status)
	render.JSON(w, r, value)
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, MessageResponse{Message: message})
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindBadRequest:
		return http.StatusBadRequest
	case services.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError maps err to its status and message. Internal errors
// are logged with the underlying cause.
func writeServiceError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	status := statusFor(services.KindOf(err))
	if status == http.StatusInternalServerError {
		log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeMessage(w, r, status, services.MessageOf(err))
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "ok")
}

func parseID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 1 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// parsePageQuery reads the zero-based page, the size and the search
// parameter named searchParam.
func parsePageQuery(r *http.Request, searchParam string) (types.PageQuery, error) {
	query := r.URL.Query()
	q := types.PageQuery{Search: strings.TrimSpace(query.Get(searchParam))}

	if raw := strings.TrimSpace(query.Get("size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 0 || size > services.MaxPageSize {
			return types.PageQuery{}, fmt.Errorf("invalid size, must be between 0 and %d", services.MaxPageSize)
		}
		q.Size = size
	}
	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 || page > services.MaxPage(q.Size) {
			return types.PageQuery{}, errors.New("invalid page")
		}
		q.Page = page
	}
	return q, nil
}

// decodeUserInput parses the JSON body once and stores it in the request
// context for the pre-checks, validation and handler that follow.
func decodeUserInput(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in types.UserInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeMessage(w, r, http.StatusBadRequest, msgInvalidBody)
			return
		}
		ctx := context.WithValue(r.Context(), contextUserInputKey, in)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func decodeRoleInput(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in types.RoleInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeMessage(w, r, http.StatusBadRequest, msgInvalidBody)
			return
		}
		ctx := context.WithValue(r.Context(), contextRoleInputKey, in)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userInputFromContext(ctx context.Context) types.UserInput {
	in, _ := ctx.Value(contextUserInputKey).(types.UserInput)
	return in
}

func roleInputFromContext(ctx context.Context) types.RoleInput {
	in, _ := ctx.Value(contextRoleInputKey).(types.RoleInput)
	return in
}
