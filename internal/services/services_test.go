package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trendystore/authserver/internal/auth"
	"github.com/trendystore/authserver/internal/mq"
	"github.com/trendystore/authserver/internal/store/memstore"
	"github.com/trendystore/authserver/types"
)

const testSecret = "test-secret"

type recordedEvents struct {
	mu     sync.Mutex
	events []mq.Event
}

func (r *recordedEvents) Publish(_ context.Context, event mq.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordedEvents) kinds() []mq.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]mq.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store  *memstore.Store
	hasher *auth.BcryptHasher
	tokens *auth.TokenIssuer
	events *recordedEvents
	auth   *AuthService
	users  *UserService
	roles  *RoleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := memstore.NewSeeded()
	hasher := auth.NewBcryptHasher(4)
	tokens, err := auth.NewTokenIssuer(testSecret, 24*time.Hour)
	require.NoError(t, err)
	events := &recordedEvents{}

	return &fixture{
		store:  st,
		hasher: hasher,
		tokens: tokens,
		events: events,
		auth:   NewAuthService(st.Users(), st.Roles(), hasher, tokens, 5, WithEvents(events)),
		users:  NewUserService(st.Users(), st.Roles(), hasher, WithEvents(events)),
		roles:  NewRoleService(st.Roles(), WithEvents(events)),
	}
}

func (f *fixture) register(t *testing.T, username, password string, roles ...string) types.User {
	t.Helper()
	user, err := f.users.Register(context.Background(), types.UserInput{
		Username: username,
		Password: password,
		Email:    username + "@example.com",
		Roles:    roles,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) attempts(t *testing.T, id int) int {
	t.Helper()
	user, err := f.store.Users().GetByID(context.Background(), id)
	require.NoError(t, err)
	return user.LoginAttemptsCount
}
