package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendystore/authserver/internal/logging"
	"github.com/trendystore/authserver/internal/mq"
)

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	puts    int
	failPut error
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if m.failPut != nil {
		return m.failPut
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	m.puts++
	return nil
}

func (m *memObjects) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

type replaySubscriber struct {
	messages []mq.Message
	errs     []error
	channel  string
}

func (s *replaySubscriber) Subscribe(ctx context.Context, channel string, handler mq.Handler) error {
	s.channel = channel
	for _, msg := range s.messages {
		s.errs = append(s.errs, handler(ctx, msg))
	}
	return context.Canceled
}

func eventMessage(t *testing.T, event mq.Event) mq.Message {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return mq.Message{ID: event.ID, Data: data, Attributes: map[string]string{mq.AttrEventID: event.ID}}
}

func TestObjectKey(t *testing.T) {
	event := mq.Event{
		ID:         "e-1",
		OccurredAt: time.Date(2026, 3, 7, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*3600)),
	}
	assert.Equal(t, "audit/2026/03/08/e-1.json", ObjectKey(event))
}

func TestArchiver_RunArchivesEachEvent(t *testing.T) {
	at := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	sub := &replaySubscriber{messages: []mq.Message{
		eventMessage(t, mq.Event{ID: "a", Type: mq.EventUserRegistered, UserID: 1, OccurredAt: at}),
		eventMessage(t, mq.Event{ID: "b", Type: mq.EventUserLocked, UserID: 1, OccurredAt: at}),
	}}
	objects := newMemObjects()

	err := NewArchiver(sub, objects, "account-events", logging.Nop()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "account-events", sub.channel)
	assert.Equal(t, []error{nil, nil}, sub.errs)
	require.Contains(t, objects.objects, "audit/2026/01/02/a.json")
	require.Contains(t, objects.objects, "audit/2026/01/02/b.json")
	assert.Equal(t, "application/json", objects.types["audit/2026/01/02/a.json"])

	var stored mq.Event
	require.NoError(t, json.Unmarshal(objects.objects["audit/2026/01/02/b.json"], &stored))
	assert.Equal(t, mq.EventUserLocked, stored.Type)
	assert.Equal(t, 1, stored.UserID)
}

func TestArchiver_HandleSkipsRedelivery(t *testing.T) {
	objects := newMemObjects()
	a := NewArchiver(nil, objects, "c", nil)
	msg := eventMessage(t, mq.Event{ID: "dup", Type: mq.EventRoleCreated, OccurredAt: time.Now()})

	require.NoError(t, a.Handle(context.Background(), msg))
	require.NoError(t, a.Handle(context.Background(), msg))
	assert.Equal(t, 1, objects.puts)
}

func TestArchiver_HandleDropsGarbage(t *testing.T) {
	objects := newMemObjects()
	a := NewArchiver(nil, objects, "c", nil)

	assert.NoError(t, a.Handle(context.Background(), mq.Message{ID: "x", Data: []byte("not json")}))
	assert.NoError(t, a.Handle(context.Background(), mq.Message{Data: []byte(`{"type":"user.updated"}`)}))
	assert.Empty(t, objects.objects)
}

func TestArchiver_HandleReturnsPutErrorForRetry(t *testing.T) {
	objects := newMemObjects()
	objects.failPut = errors.New("bucket offline")
	a := NewArchiver(nil, objects, "c", nil)

	err := a.Handle(context.Background(), eventMessage(t, mq.Event{ID: "r", Type: mq.EventUserUpdated, OccurredAt: time.Now()}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket offline")
}
