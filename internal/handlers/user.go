package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trendystore/authserver/internal/logging"
	"github.com/trendystore/authserver/internal/services"
)

// UserHandler provides user management endpoints.
type UserHandler struct {
	userService *services.UserService
	log         logging.Logger
}

func NewUserHandler(userService *services.UserService, log logging.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, userService *services.UserService, checks *PreChecks, log logging.Logger) {
	handler := NewUserHandler(userService, log)

	r.With(decodeUserInput, checks.CheckInputUserValue, checks.CheckRolesExisted, validateUser).
		Post("/", handler.Create)
	r.Get("/", handler.List)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.With(decodeUserInput, checks.CheckInputUserValueOnUpdate, checks.CheckRolesExisted).
			Put("/", handler.Update)
		r.Patch("/", handler.ToggleActive)
	})
}

// Create is the public registration: requested roles are ignored and the
// default role is assigned.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	in := userInputFromContext(r.Context())
	in.Roles = nil

	if _, err := h.userService.Register(r.Context(), in); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeMessage(w, r, http.StatusOK, msgRegistered)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parsePageQuery(r, "search")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.userService.List(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, page)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.userService.Update(r.Context(), id, userInputFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if !updated {
		writeMessage(w, r, http.StatusOK, fmt.Sprintf("Cannot update User with id=%d. Maybe User was not found or req.body is empty or provided data is the same as the existing data!", id))
		return
	}
	writeMessage(w, r, http.StatusOK, "User was updated successfully.")
}

func (h *UserHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	active, err := h.userService.ToggleActive(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	state := "deactivated"
	if active {
		state = "activated"
	}
	writeMessage(w, r, http.StatusOK, fmt.Sprintf("User was %s successfully.", state))
}
