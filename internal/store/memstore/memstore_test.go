package memstore

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendystore/authserver/internal/store"
	"github.com/trendystore/authserver/types"
)

func TestNewSeeded(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	for i, name := range SeedRoles {
		role, err := s.Roles().GetByName(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, i+1, role.ID)
	}
}

func TestUserRepository_CreateAndRoles(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	user, err := s.Users().Create(ctx, types.User{Username: "alice", Email: "a@example.com"}, []int{1, 3})
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)

	roles, err := s.Roles().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "user", roles[0].Name)
	assert.Equal(t, "admin", roles[1].Name)

	require.NoError(t, s.Users().SetRoles(ctx, user.ID, []int{2}))
	roles, err = s.Roles().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "moderator", roles[0].Name)
}

func TestUserRepository_Duplicates(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	_, err := s.Users().Create(ctx, types.User{Username: "alice", Phone: "+375291112233"}, nil)
	require.NoError(t, err)

	_, err = s.Users().Create(ctx, types.User{Username: "alice"}, nil)
	var dup *store.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "username", dup.Field)

	_, err = s.Users().Create(ctx, types.User{Username: "bob", Phone: "+375291112233"}, nil)
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "phone", dup.Field)

	// Empty emails never collide.
	_, err = s.Users().Create(ctx, types.User{Username: "carol"}, nil)
	require.NoError(t, err)
}

func TestUserRepository_Taken_ExcludesSelf(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	user, err := s.Users().Create(ctx, types.User{Username: "alice"}, nil)
	require.NoError(t, err)

	taken, err := s.Users().UsernameTaken(ctx, "alice", user.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = s.Users().UsernameTaken(ctx, "alice", 0)
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestUserRepository_IncrementLoginAttempts(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	user, err := s.Users().Create(ctx, types.User{Username: "alice", IsActive: true, LoginAttemptsCount: 4}, nil)
	require.NoError(t, err)

	attempts, err := s.Users().IncrementLoginAttempts(ctx, user.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, attempts)

	attempts, err = s.Users().IncrementLoginAttempts(ctx, user.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 6, attempts)

	// past the ceiling the counter stays put
	_, err = s.Users().IncrementLoginAttempts(ctx, user.ID, 5)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.LoginAttemptsCount)

	require.NoError(t, s.Users().SetActive(ctx, user.ID, false))
	require.NoError(t, s.Users().ResetLoginAttempts(ctx, user.ID))
	_, err = s.Users().IncrementLoginAttempts(ctx, user.ID, 5)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().IncrementLoginAttempts(ctx, 999, 5)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserRepository_ListHugeWindow(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	for _, name := range []string{"a1", "a2", "a3"} {
		_, err := s.Users().Create(ctx, types.User{Username: name}, nil)
		require.NoError(t, err)
	}

	users, total, err := s.Users().List(ctx, "", 1, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, users, 2)
}

func TestUserRepository_ListSearchAndWindow(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	for _, name := range []string{"alina", "boris", "ALIce", "dmitry"} {
		_, err := s.Users().Create(ctx, types.User{Username: name}, nil)
		require.NoError(t, err)
	}

	users, total, err := s.Users().List(ctx, "ali", 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, users, 2)
	assert.Equal(t, "alina", users[0].Username)

	users, total, err = s.Users().List(ctx, "", 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, users, 1)
	assert.Equal(t, "dmitry", users[0].Username)

	users, _, err = s.Users().List(ctx, "", 9, 3)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestRoleRepository_CreateUpdate(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	_, err := s.Roles().Create(ctx, types.Role{Name: "admin"})
	assert.True(t, store.IsDuplicateKey(err))

	role, err := s.Roles().Create(ctx, types.Role{Name: "editor"})
	require.NoError(t, err)
	assert.Equal(t, 4, role.ID)

	_, err = s.Roles().Update(ctx, types.Role{ID: 4, Name: "user"})
	assert.True(t, store.IsDuplicateKey(err))

	_, err = s.Roles().Update(ctx, types.Role{ID: 42, Name: "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	roles, err := s.Roles().ListByNames(ctx, []string{"editor", "ghost"})
	require.NoError(t, err)
	require.Len(t, roles, 1)
}
