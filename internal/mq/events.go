package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names an account lifecycle event.
type EventType string

const (
	EventUserRegistered    EventType = "user.registered"
	EventUserSignedIn      EventType = "user.signed_in"
	EventUserSignInFailed  EventType = "user.signin_failed"
	EventUserLocked        EventType = "user.locked"
	EventUserUpdated       EventType = "user.updated"
	EventUserStatusChanged EventType = "user.status_changed"
	EventRoleCreated       EventType = "role.created"
	EventRoleUpdated       EventType = "role.updated"
)

// Message attribute keys set on every published event.
const (
	AttrEventID   = "event_id"
	AttrEventType = "event_type"
)

// Event is the JSON body published for account changes.
type Event struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	UserID     int               `json:"userId,omitempty"`
	Username   string            `json:"username,omitempty"`
	RoleID     int               `json:"roleId,omitempty"`
	RoleName   string            `json:"roleName,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// Publisher is the subset of MQ used by EventPublisher.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// EventPublisher serializes events onto a single channel.
type EventPublisher struct {
	pub     Publisher
	channel string
	now     func() time.Time
}

func NewEventPublisher(pub Publisher, channel string) *EventPublisher {
	return &EventPublisher{pub: pub, channel: channel, now: time.Now}
}

// Publish fills in the event id and timestamp when missing and sends it.
func (p *EventPublisher) Publish(ctx context.Context, event Event) error {
	if event.Type == "" {
		return errors.New("event type is required")
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	attrs := map[string]string{
		AttrEventID:   event.ID,
		AttrEventType: string(event.Type),
	}
	if _, err := p.pub.Publish(ctx, p.channel, data, attrs); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// DecodeEvent parses a message published by EventPublisher.
func DecodeEvent(msg Message) (Event, error) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if event.ID == "" {
		event.ID = msg.ID
	}
	return event, nil
}
