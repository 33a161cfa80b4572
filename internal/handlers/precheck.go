package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/trendystore/authserver/internal/logging"
	"github.com/trendystore/authserver/internal/services"
)

// PreChecks are read-only uniqueness and existence checks run before user
// and role writes. Each expects the body already decoded into the context.
type PreChecks struct {
	users *services.UserService
	roles *services.RoleService
	log   logging.Logger
}

func NewPreChecks(users *services.UserService, roles *services.RoleService, log logging.Logger) *PreChecks {
	return &PreChecks{users: users, roles: roles, log: log}
}

// CheckInputUserValue rejects a username, phone or email already in use.
func (p *PreChecks) CheckInputUserValue(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		in := userInputFromContext(r.Context())
		if err := p.users.CheckConflicts(r.Context(), in, 0); err != nil {
			writeServiceError(w, r, p.log, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CheckInputUserValueOnUpdate is CheckInputUserValue ignoring the user being
// updated. A missing target user is 404.
func (p *PreChecks) CheckInputUserValueOnUpdate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			writeMessage(w, r, http.StatusBadRequest, err.Error())
			return
		}

		if _, err := p.users.Get(r.Context(), id); err != nil {
			if services.KindOf(err) == services.KindNotFound {
				writeMessage(w, r, http.StatusNotFound, fmt.Sprintf("User not found with id=%d", id))
				return
			}
			writeServiceError(w, r, p.log, err)
			return
		}

		in := userInputFromContext(r.Context())
		if err := p.users.CheckConflicts(r.Context(), in, id); err != nil {
			writeServiceError(w, r, p.log, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CheckRolesExisted rejects role names that match no role.
func (p *PreChecks) CheckRolesExisted(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		in := userInputFromContext(r.Context())
		if len(in.Roles) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		missing, err := p.users.MissingRoles(r.Context(), in.Roles)
		if err != nil {
			writeServiceError(w, r, p.log, err)
			return
		}
		if len(missing) > 0 {
			writeMessage(w, r, http.StatusBadRequest, "Failed! Role(s) do(es) not exist: "+strings.Join(missing, ", "))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CheckRolesNotExisted rejects creating a role whose name is taken.
func (p *PreChecks) CheckRolesNotExisted(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		in := roleInputFromContext(r.Context())
		if in.Name == "" {
			next.ServeHTTP(w, r)
			return
		}

		exists, err := p.roles.Exists(r.Context(), in.Name)
		if err != nil {
			writeServiceError(w, r, p.log, err)
			return
		}
		if exists {
			writeMessage(w, r, http.StatusBadRequest, "Failed! Role already exists: "+in.Name)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CheckRoleNameOnUpdate rejects renaming a role to another role's name.
func (p *PreChecks) CheckRoleNameOnUpdate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		in := roleInputFromContext(r.Context())
		if in.Name == "" {
			next.ServeHTTP(w, r)
			return
		}

		id, err := parseID(r)
		if err != nil {
			writeMessage(w, r, http.StatusBadRequest, err.Error())
			return
		}

		if _, err := p.roles.Get(r.Context(), id); err != nil {
			if services.KindOf(err) == services.KindNotFound {
				writeMessage(w, r, http.StatusNotFound, fmt.Sprintf("Role not found with id=%d", id))
				return
			}
			writeServiceError(w, r, p.log, err)
			return
		}

		taken, err := p.roles.NameTakenByOther(r.Context(), id, in.Name)
		if err != nil {
			writeServiceError(w, r, p.log, err)
			return
		}
		if taken {
			writeMessage(w, r, http.StatusBadRequest, "Failed! Role name already exists: "+in.Name)
			return
		}
		next.ServeHTTP(w, r)
	})
}
