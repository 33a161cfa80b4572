package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trendystore/authserver/internal/logging"
	"github.com/trendystore/authserver/internal/services"
)

// RoleHandler provides role management endpoints.
type RoleHandler struct {
	roleService *services.RoleService
	log         logging.Logger
}

func NewRoleHandler(roleService *services.RoleService, log logging.Logger) *RoleHandler {
	return &RoleHandler{roleService: roleService, log: log}
}

// RoleRouter registers role routes on the given router.
func RoleRouter(r chi.Router, roleService *services.RoleService, checks *PreChecks, log logging.Logger) {
	handler := NewRoleHandler(roleService, log)

	r.Get("/", handler.List)
	r.With(decodeRoleInput, checks.CheckRolesNotExisted, validateRole).Post("/", handler.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.With(decodeRoleInput, checks.CheckRoleNameOnUpdate, validateRole).Put("/", handler.Update)
	})
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parsePageQuery(r, "name")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.roleService.List(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, page)
}

func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	role, err := h.roleService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, role)
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	role, err := h.roleService.Create(r.Context(), roleInputFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, r, http.StatusOK, role)
}

func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.roleService.Update(r.Context(), id, roleInputFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if !updated {
		writeMessage(w, r, http.StatusOK, fmt.Sprintf("Cannot update Role with id=%d. Maybe Role was not found or req.body is empty or provided data is the same as the existing data!", id))
		return
	}
	writeMessage(w, r, http.StatusOK, "Role was updated successfully.")
}
