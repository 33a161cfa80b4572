package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/trendystore/authserver/internal/mq"
	"github.com/trendystore/authserver/internal/store"
	"github.com/trendystore/authserver/types"
)

// RoleRepository defines persistence operations for roles.
type RoleRepository interface {
	GetByID(ctx context.Context, id int) (types.Role, error)
	GetByName(ctx context.Context, name string) (types.Role, error)
	List(ctx context.Context, name string, offset, limit int) ([]types.Role, int, error)
	Create(ctx context.Context, role types.Role) (types.Role, error)
	Update(ctx context.Context, role types.Role) (types.Role, error)
}

// RoleService encapsulates role use-cases.
type RoleService struct {
	repo RoleRepository
	options
}

func NewRoleService(repo RoleRepository, opts ...Option) *RoleService {
	return &RoleService{repo: repo, options: buildOptions(opts)}
}

func (s *RoleService) Get(ctx context.Context, id int) (types.Role, error) {
	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Role{}, newError(KindNotFound, fmt.Sprintf("Cannot find Role with id=%d.", id))
		}
		return types.Role{}, &Error{Kind: KindInternal, Message: fmt.Sprintf("Error retrieving Role with id=%d", id), Err: err}
	}
	return role, nil
}

// List returns one page of roles whose name contains q.Search.
func (s *RoleService) List(ctx context.Context, q types.PageQuery) (types.RolePage, error) {
	offset, limit := pageBounds(q.Page, q.Size)
	roles, total, err := s.repo.List(ctx, q.Search, offset, limit)
	if err != nil {
		return types.RolePage{}, wrapInternal(err)
	}
	return types.RolePage{
		TotalItems:  total,
		Roles:       roles,
		TotalPages:  totalPages(total, limit),
		CurrentPage: max(q.Page, 0),
	}, nil
}

// Exists reports whether a role named name exists.
func (s *RoleService) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.repo.GetByName(ctx, name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return false, wrapInternal(err)
}

// NameTakenByOther reports whether a role other than id is named name.
func (s *RoleService) NameTakenByOther(ctx context.Context, id int, name string) (bool, error) {
	role, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, wrapInternal(err)
	}
	return role.ID != id, nil
}

func (s *RoleService) Create(ctx context.Context, in types.RoleInput) (types.Role, error) {
	name := strings.TrimSpace(in.Name)
	role, err := s.repo.Create(ctx, types.Role{Name: name})
	if err != nil {
		if store.IsDuplicateKey(err) {
			return types.Role{}, &Error{Kind: KindInternal, Message: fmt.Sprintf("Duplicate entry %q for key", name), Err: err}
		}
		return types.Role{}, wrapInternal(err)
	}

	s.emit(ctx, mq.Event{Type: mq.EventRoleCreated, RoleID: role.ID, RoleName: role.Name})
	return role, nil
}

// Update renames role id. It reports false when the role does not exist or
// the name is unchanged.
func (s *RoleService) Update(ctx context.Context, id int, in types.RoleInput) (bool, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, updateRoleError(id, err)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" || name == current.Name {
		return false, nil
	}

	current.Name = name
	if _, err := s.repo.Update(ctx, current); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, updateRoleError(id, err)
	}

	s.emit(ctx, mq.Event{Type: mq.EventRoleUpdated, RoleID: id, RoleName: name})
	return true, nil
}

func updateRoleError(id int, err error) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf("Error updating Role with id=%d", id), Err: err}
}
