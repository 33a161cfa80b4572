// Package memstore is a mutex-guarded in-memory implementation of the user
// and role repositories, used by tests and the in-memory dev mode.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/trendystore/authserver/internal/store"
	"github.com/trendystore/authserver/types"
)

// SeedRoles mirrors the roles inserted by the seed migration.
var SeedRoles = []string{"user", "moderator", "admin"}

// Store holds users, roles and the links between them.
type Store struct {
	mu sync.RWMutex

	users      map[int]types.User
	roles      map[int]types.Role
	userRoles  map[int]map[int]struct{}
	nextUserID int
	nextRoleID int
	now        func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:      make(map[int]types.User),
		roles:      make(map[int]types.Role),
		userRoles:  make(map[int]map[int]struct{}),
		nextUserID: 1,
		nextRoleID: 1,
		now:        time.Now,
	}
}

// NewSeeded returns a store holding the default roles with ids 1, 2, 3.
func NewSeeded() *Store {
	s := New()
	for _, name := range SeedRoles {
		_, _ = s.Roles().Create(context.Background(), types.Role{Name: name})
	}
	return s
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

func (s *Store) Roles() *RoleRepository {
	return &RoleRepository{s: s}
}

// UserRepository is the in-memory counterpart of store.UserRepository.
type UserRepository struct {
	s *Store
}

func (r *UserRepository) GetByID(_ context.Context, id int) (types.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (types.User, error) {
	return r.find(func(u types.User) bool { return u.Username == username })
}

func (r *UserRepository) UsernameTaken(_ context.Context, username string, excludeID int) (bool, error) {
	return r.taken(excludeID, func(u types.User) bool { return u.Username == username }), nil
}

func (r *UserRepository) EmailTaken(_ context.Context, email string, excludeID int) (bool, error) {
	return r.taken(excludeID, func(u types.User) bool { return email != "" && u.Email == email }), nil
}

func (r *UserRepository) PhoneTaken(_ context.Context, phone string, excludeID int) (bool, error) {
	return r.taken(excludeID, func(u types.User) bool { return phone != "" && u.Phone == phone }), nil
}

func (r *UserRepository) Create(_ context.Context, user types.User, roleIDs []int) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkUnique(user, 0); err != nil {
		return types.User{}, err
	}
	for _, id := range roleIDs {
		if _, ok := r.s.roles[id]; !ok {
			return types.User{}, store.ErrNotFound
		}
	}

	now := r.s.now()
	user.ID = r.s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.nextUserID++
	r.s.users[user.ID] = user
	r.s.link(user.ID, roleIDs)
	return user, nil
}

func (r *UserRepository) Update(_ context.Context, user types.User) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.users[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	if err := r.s.checkUnique(user, user.ID); err != nil {
		return types.User{}, err
	}

	current.FirstName = user.FirstName
	current.LastName = user.LastName
	current.Email = user.Email
	current.Username = user.Username
	current.Phone = user.Phone
	current.PasswordHash = user.PasswordHash
	current.UpdatedAt = r.s.now()
	r.s.users[user.ID] = current
	return current, nil
}

func (r *UserRepository) IncrementLoginAttempts(_ context.Context, id, ceiling int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok || !user.IsActive || user.LoginAttemptsCount > ceiling {
		return 0, store.ErrNotFound
	}
	user.LoginAttemptsCount++
	user.UpdatedAt = r.s.now()
	r.s.users[id] = user
	return user.LoginAttemptsCount, nil
}

func (r *UserRepository) ResetLoginAttempts(_ context.Context, id int) error {
	return r.mutate(id, func(u *types.User) { u.LoginAttemptsCount = 0 })
}

func (r *UserRepository) SetActive(_ context.Context, id int, active bool) error {
	return r.mutate(id, func(u *types.User) { u.IsActive = active })
}

func (r *UserRepository) SetRoles(_ context.Context, userID int, roleIDs []int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return store.ErrNotFound
	}
	delete(r.s.userRoles, userID)
	r.s.link(userID, roleIDs)
	return nil
}

func (r *UserRepository) List(_ context.Context, search string, offset, limit int) ([]types.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search = strings.ToLower(strings.TrimSpace(search))
	matched := make([]types.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if search == "" || containsFold(search, u.Username, u.FirstName, u.LastName, u.Phone, u.Email) {
			matched = append(matched, u)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return window(matched, offset, limit), len(matched), nil
}

func (r *UserRepository) find(match func(types.User) bool) (types.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepository) taken(excludeID int, match func(types.User) bool) bool {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for id, u := range r.s.users {
		if id != excludeID && match(u) {
			return true
		}
	}
	return false
}

func (r *UserRepository) mutate(id int, fn func(*types.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	fn(&user)
	user.UpdatedAt = r.s.now()
	r.s.users[id] = user
	return nil
}

// RoleRepository is the in-memory counterpart of store.RoleRepository.
type RoleRepository struct {
	s *Store
}

func (r *RoleRepository) GetByID(_ context.Context, id int) (types.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	role, ok := r.s.roles[id]
	if !ok {
		return types.Role{}, store.ErrNotFound
	}
	return role, nil
}

func (r *RoleRepository) GetByName(_ context.Context, name string) (types.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, role := range r.s.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return types.Role{}, store.ErrNotFound
}

func (r *RoleRepository) ListByNames(_ context.Context, names []string) ([]types.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}
	roles := []types.Role{}
	for _, role := range r.s.roles {
		if _, ok := wanted[role.Name]; ok {
			roles = append(roles, role)
		}
	}
	sortRoles(roles)
	return roles, nil
}

func (r *RoleRepository) ListByUser(_ context.Context, userID int) ([]types.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	roles := []types.Role{}
	for roleID := range r.s.userRoles[userID] {
		if role, ok := r.s.roles[roleID]; ok {
			roles = append(roles, role)
		}
	}
	sortRoles(roles)
	return roles, nil
}

func (r *RoleRepository) List(_ context.Context, name string, offset, limit int) ([]types.Role, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	name = strings.ToLower(strings.TrimSpace(name))
	matched := make([]types.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		if containsFold(name, role.Name) {
			matched = append(matched, role)
		}
	}
	sortRoles(matched)
	return window(matched, offset, limit), len(matched), nil
}

func (r *RoleRepository) Create(_ context.Context, role types.Role) (types.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.roleNameTaken(role.Name, 0) {
		return types.Role{}, &store.DuplicateKeyError{Field: "name"}
	}
	now := r.s.now()
	role.ID = r.s.nextRoleID
	role.CreatedAt = now
	role.UpdatedAt = now
	r.s.nextRoleID++
	r.s.roles[role.ID] = role
	return role, nil
}

func (r *RoleRepository) Update(_ context.Context, role types.Role) (types.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.roles[role.ID]
	if !ok {
		return types.Role{}, store.ErrNotFound
	}
	if r.s.roleNameTaken(role.Name, role.ID) {
		return types.Role{}, &store.DuplicateKeyError{Field: "name"}
	}
	current.Name = role.Name
	current.UpdatedAt = r.s.now()
	r.s.roles[role.ID] = current
	return current, nil
}

// checkUnique must be called with mu held.
func (s *Store) checkUnique(user types.User, excludeID int) error {
	for id, u := range s.users {
		if id == excludeID {
			continue
		}
		switch {
		case u.Username == user.Username:
			return &store.DuplicateKeyError{Field: "username"}
		case user.Email != "" && u.Email == user.Email:
			return &store.DuplicateKeyError{Field: "email"}
		case user.Phone != "" && u.Phone == user.Phone:
			return &store.DuplicateKeyError{Field: "phone"}
		}
	}
	return nil
}

func (s *Store) roleNameTaken(name string, excludeID int) bool {
	for id, role := range s.roles {
		if id != excludeID && role.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) link(userID int, roleIDs []int) {
	if len(roleIDs) == 0 {
		return
	}
	set, ok := s.userRoles[userID]
	if !ok {
		set = make(map[int]struct{}, len(roleIDs))
		s.userRoles[userID] = set
	}
	for _, id := range roleIDs {
		set[id] = struct{}{}
	}
}

func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func sortRoles(roles []types.Role) {
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
}

func window[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return items[offset:end]
}
