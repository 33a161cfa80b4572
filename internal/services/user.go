package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jinzhu/copier"

	"github.com/trendystore/authserver/internal/mq"
	"github.com/trendystore/authserver/internal/store"
	"github.com/trendystore/authserver/types"
)

// DefaultRole is assigned to users registered without explicit roles.
const DefaultRole = "user"

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	UsernameTaken(ctx context.Context, username string, excludeID int) (bool, error)
	EmailTaken(ctx context.Context, email string, excludeID int) (bool, error)
	PhoneTaken(ctx context.Context, phone string, excludeID int) (bool, error)
	Create(ctx context.Context, user types.User, roleIDs []int) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	SetActive(ctx context.Context, id int, active bool) error
	SetRoles(ctx context.Context, userID int, roleIDs []int) error
	List(ctx context.Context, search string, offset, limit int) ([]types.User, int, error)
}

// RoleLookup resolves role names.
type RoleLookup interface {
	GetByName(ctx context.Context, name string) (types.Role, error)
	ListByNames(ctx context.Context, names []string) ([]types.Role, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo   UserRepository
	roles  RoleLookup
	hasher PasswordHasher
	options
}

func NewUserService(repo UserRepository, roles RoleLookup, hasher PasswordHasher, opts ...Option) *UserService {
	return &UserService{
		repo:    repo,
		roles:   roles,
		hasher:  hasher,
		options: buildOptions(opts),
	}
}

func (s *UserService) Get(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, newError(KindNotFound, fmt.Sprintf("Cannot find User with id=%d.", id))
		}
		return types.User{}, &Error{Kind: KindInternal, Message: fmt.Sprintf("Error retrieving User with id=%d", id), Err: err}
	}
	return user, nil
}

// List returns one page of users matching search.
func (s *UserService) List(ctx context.Context, q types.PageQuery) (types.UserPage, error) {
	offset, limit := pageBounds(q.Page, q.Size)
	users, total, err := s.repo.List(ctx, q.Search, offset, limit)
	if err != nil {
		return types.UserPage{}, wrapInternal(err)
	}
	return types.UserPage{
		TotalItems:  total,
		Users:       users,
		TotalPages:  totalPages(total, limit),
		CurrentPage: max(q.Page, 0),
	}, nil
}

// Register creates an active user. Roles named in in.Roles are linked;
// with none the default role is used.
func (s *UserService) Register(ctx context.Context, in types.UserInput) (types.User, error) {
	if strings.TrimSpace(in.Username) == "" {
		return types.User{}, newError(KindBadRequest, `"username" is a required field`)
	}
	if in.Password == "" {
		return types.User{}, newError(KindBadRequest, `"password" is a required field`)
	}

	roleIDs, err := s.resolveRoles(ctx, in.Roles)
	if err != nil {
		return types.User{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return types.User{}, wrapInternal(err)
	}

	user := types.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		Phone:        NormalizePhone(in.Phone),
		PasswordHash: hash,
		IsActive:     true,
	}

	created, err := s.repo.Create(ctx, user, roleIDs)
	if err != nil {
		return types.User{}, duplicateUserError(err)
	}

	s.log.Info(ctx, "user registered", "user_id", created.ID)
	s.emit(ctx, mq.Event{Type: mq.EventUserRegistered, UserID: created.ID, Username: created.Username})
	return created, nil
}

// Update applies the non-empty fields of in to user id. The password is
// re-hashed, the phone normalized and roles replaced when supplied. It
// reports false when the user does not exist or nothing changed.
func (s *UserService) Update(ctx context.Context, id int, in types.UserInput) (bool, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, updateUserError(id, err)
	}

	patch := in
	patch.Phone = NormalizePhone(in.Phone)

	next := current
	if err := copier.CopyWithOption(&next, &patch, copier.Option{IgnoreEmpty: true}); err != nil {
		return false, updateUserError(id, err)
	}
	if in.Password != "" {
		next.PasswordHash, err = s.hasher.Hash(in.Password)
		if err != nil {
			return false, updateUserError(id, err)
		}
	}

	changed := profileChanged(current, next)
	if changed {
		if _, err := s.repo.Update(ctx, next); err != nil {
			if store.IsDuplicateKey(err) {
				return false, duplicateUserError(err)
			}
			return false, updateUserError(id, err)
		}
	}

	if len(in.Roles) > 0 {
		roleIDs, err := s.resolveRoles(ctx, in.Roles)
		if err != nil {
			return false, err
		}
		if err := s.repo.SetRoles(ctx, id, roleIDs); err != nil {
			return false, updateUserError(id, err)
		}
		changed = true
	}

	if changed {
		s.emit(ctx, mq.Event{Type: mq.EventUserUpdated, UserID: id, Username: next.Username})
	}
	return changed, nil
}

// ToggleActive flips the active flag of user id and returns the new value.
func (s *UserService) ToggleActive(ctx context.Context, id int) (bool, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, newError(KindNotFound, fmt.Sprintf("Cannot find User with id=%d.", id))
		}
		return false, updateUserError(id, err)
	}

	active := !user.IsActive
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return false, updateUserError(id, err)
	}

	s.log.Info(ctx, "user status changed", "user_id", id, "active", active)
	s.emit(ctx, mq.Event{
		Type:     mq.EventUserStatusChanged,
		UserID:   id,
		Username: user.Username,
		Details:  map[string]string{"isActive": fmt.Sprint(active)},
	})
	return active, nil
}

// CheckConflicts reports the first of username, phone and email already
// held by a user other than excludeID. An excludeID of 0 checks all users.
// Empty fields are skipped and the phone is compared normalized.
func (s *UserService) CheckConflicts(ctx context.Context, in types.UserInput, excludeID int) error {
	checks := []struct {
		field string
		value string
		taken func(context.Context, string, int) (bool, error)
	}{
		{"Username", strings.TrimSpace(in.Username), s.repo.UsernameTaken},
		{"Phone", NormalizePhone(in.Phone), s.repo.PhoneTaken},
		{"Email", strings.TrimSpace(in.Email), s.repo.EmailTaken},
	}

	for _, c := range checks {
		if c.value == "" {
			continue
		}
		taken, err := c.taken(ctx, c.value, excludeID)
		if err != nil {
			return wrapInternal(err)
		}
		if taken {
			return newError(KindBadRequest, fmt.Sprintf("Failed! %s is already in use!", c.field))
		}
	}
	return nil
}

// MissingRoles returns the names in names that match no role, in input order.
func (s *UserService) MissingRoles(ctx context.Context, names []string) ([]string, error) {
	found, err := s.roles.ListByNames(ctx, names)
	if err != nil {
		return nil, wrapInternal(err)
	}
	known := make(map[string]struct{}, len(found))
	for _, role := range found {
		known[role.Name] = struct{}{}
	}

	var missing []string
	for _, name := range names {
		if _, ok := known[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

func (s *UserService) resolveRoles(ctx context.Context, names []string) ([]int, error) {
	if len(names) == 0 {
		role, err := s.roles.GetByName(ctx, DefaultRole)
		if err != nil {
			return nil, wrapInternal(fmt.Errorf("resolve default role: %w", err))
		}
		return []int{role.ID}, nil
	}

	missing, err := s.MissingRoles(ctx, names)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, missingRolesError(missing)
	}

	roles, err := s.roles.ListByNames(ctx, names)
	if err != nil {
		return nil, wrapInternal(err)
	}
	ids := make([]int, 0, len(roles))
	for _, role := range roles {
		ids = append(ids, role.ID)
	}
	sort.Ints(ids)
	return ids, nil
}

func missingRolesError(missing []string) *Error {
	return newError(KindBadRequest, "Failed! Role(s) do(es) not exist: "+strings.Join(missing, ", "))
}

func duplicateUserError(err error) error {
	var dup *store.DuplicateKeyError
	if errors.As(err, &dup) {
		field := dup.Field
		if field != "" {
			field = strings.ToUpper(field[:1]) + field[1:]
		}
		return &Error{Kind: KindConflict, Message: fmt.Sprintf("Failed! %s is already in use!", field), Err: err}
	}
	return wrapInternal(err)
}

func updateUserError(id int, err error) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf("Error updating User with id=%d", id), Err: err}
}

func profileChanged(a, b types.User) bool {
	return a.FirstName != b.FirstName ||
		a.LastName != b.LastName ||
		a.Username != b.Username ||
		a.Email != b.Email ||
		a.Phone != b.Phone ||
		a.PasswordHash != b.PasswordHash
}
