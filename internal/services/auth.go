package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/trendystore/authserver/internal/auth"
	"github.com/trendystore/authserver/internal/mq"
	"github.com/trendystore/authserver/internal/store"
	"github.com/trendystore/authserver/types"
)

const defaultMaxLoginAttempts = 5

// CredentialRepository is the user persistence needed to authenticate.
type CredentialRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	IncrementLoginAttempts(ctx context.Context, id, ceiling int) (int, error)
	ResetLoginAttempts(ctx context.Context, id int) error
}

// UserRoleLister resolves the roles held by a user.
type UserRoleLister interface {
	ListByUser(ctx context.Context, userID int) ([]types.Role, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

type TokenIssuer interface {
	Issue(userID int) (string, error)
}

// RolePolicy admits a subject holding at least one of Roles. Message is
// returned to rejected callers.
type RolePolicy struct {
	Roles   []string
	Message string
}

var (
	AdminPolicy            = RolePolicy{Roles: []string{"admin"}, Message: "Require Admin Role!"}
	ModeratorPolicy        = RolePolicy{Roles: []string{"moderator"}, Message: "Require Moderator Role!"}
	ModeratorOrAdminPolicy = RolePolicy{Roles: []string{"moderator", "admin"}, Message: "Require Moderator or Admin Role!"}
)

// Admits reports whether any of roles matches the policy by exact name.
func (p RolePolicy) Admits(roles []types.Role) bool {
	for _, role := range roles {
		for _, want := range p.Roles {
			if role.Name == want {
				return true
			}
		}
	}
	return false
}

// AuthService verifies credentials, throttles failed attempts and checks
// role membership of token subjects.
type AuthService struct {
	users       CredentialRepository
	roles       UserRoleLister
	hasher      PasswordHasher
	tokens      TokenIssuer
	maxAttempts int
	options
}

// NewAuthService builds the service. A maxAttempts below 1 uses the default of 5.
func NewAuthService(users CredentialRepository, roles UserRoleLister, hasher PasswordHasher, tokens TokenIssuer, maxAttempts int, opts ...Option) *AuthService {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxLoginAttempts
	}
	return &AuthService{
		users:       users,
		roles:       roles,
		hasher:      hasher,
		tokens:      tokens,
		maxAttempts: maxAttempts,
		options:     buildOptions(opts),
	}
}

// SignIn authenticates username and password. On success the attempt
// counter is reset and a token plus the user's authorities are returned.
//
// Errors: ErrUserNotFound, ErrAccountDeactivated, *InvalidPasswordError,
// ErrLoginAttemptsExceeded, or an internal *Error.
func (s *AuthService) SignIn(ctx context.Context, username, password string) (types.SignInResponse, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.SignInResponse{}, ErrUserNotFound
		}
		return types.SignInResponse{}, wrapInternal(err)
	}

	if !user.IsActive {
		s.log.Warn(ctx, "sign-in rejected for deactivated account", "user_id", user.ID)
		return types.SignInResponse{}, ErrAccountDeactivated
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return types.SignInResponse{}, wrapInternal(err)
	}
	if !ok {
		return types.SignInResponse{}, s.recordFailure(ctx, user)
	}

	if err := s.users.ResetLoginAttempts(ctx, user.ID); err != nil {
		return types.SignInResponse{}, wrapInternal(err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return types.SignInResponse{}, wrapInternal(err)
	}

	roles, err := s.roles.ListByUser(ctx, user.ID)
	if err != nil {
		return types.SignInResponse{}, wrapInternal(err)
	}

	s.log.Info(ctx, "user signed in", "user_id", user.ID)
	s.emit(ctx, mq.Event{Type: mq.EventUserSignedIn, UserID: user.ID, Username: user.Username})

	return types.SignInResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Roles:       auth.Authorities(roles),
		AccessToken: token,
	}, nil
}

// recordFailure counts one failed password in a single atomic write. The
// counter stops at maxAttempts+1; when no row is updated the user is
// re-read to tell a vanished or deactivated account from one already locked.
func (s *AuthService) recordFailure(ctx context.Context, user types.User) error {
	attempts, err := s.users.IncrementLoginAttempts(ctx, user.ID, s.maxAttempts)
	if err == nil {
		return s.failureOutcome(ctx, user, attempts)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return wrapInternal(err)
	}

	current, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return wrapInternal(err)
	}
	if !current.IsActive {
		return ErrAccountDeactivated
	}
	s.log.Warn(ctx, "login attempts exceeded", "user_id", user.ID, "attempts", current.LoginAttemptsCount)
	return ErrLoginAttemptsExceeded
}

func (s *AuthService) failureOutcome(ctx context.Context, user types.User, attempts int) error {
	details := map[string]string{"attempts": strconv.Itoa(attempts)}

	if attempts > s.maxAttempts {
		s.log.Warn(ctx, "login attempts exceeded", "user_id", user.ID, "attempts", attempts)
		if attempts == s.maxAttempts+1 {
			s.emit(ctx, mq.Event{Type: mq.EventUserLocked, UserID: user.ID, Username: user.Username, Details: details})
		}
		return ErrLoginAttemptsExceeded
	}

	s.log.Warn(ctx, "invalid password", "user_id", user.ID, "attempts", attempts)
	s.emit(ctx, mq.Event{Type: mq.EventUserSignInFailed, UserID: user.ID, Username: user.Username, Details: details})
	return &InvalidPasswordError{Attempts: attempts}
}

// Authorize loads the subject and its roles and checks them against policy.
func (s *AuthService) Authorize(ctx context.Context, userID int, policy RolePolicy) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Warn(ctx, "token subject no longer exists", "user_id", userID)
			return ErrSubjectNotFound
		}
		return wrapInternal(err)
	}

	roles, err := s.roles.ListByUser(ctx, userID)
	if err != nil {
		return wrapInternal(err)
	}

	if !policy.Admits(roles) {
		s.log.Warn(ctx, "role check failed", "user_id", userID, "required", policy.Roles)
		return newError(KindForbidden, policy.Message)
	}
	return nil
}
