// Package audit copies account events from the message bus into object storage.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/trendystore/authserver/internal/logging"
	"github.com/trendystore/authserver/internal/mq"
)

const (
	keyPrefix   = "audit"
	contentType = "application/json"
)

// Subscriber consumes a channel until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler mq.Handler) error
}

// ObjectWriter is the part of object storage the archiver writes through.
type ObjectWriter interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Archiver stores every event it receives as one JSON object.
type Archiver struct {
	sub     Subscriber
	objects ObjectWriter
	channel string
	log     logging.Logger
}

func NewArchiver(sub Subscriber, objects ObjectWriter, channel string, log logging.Logger) *Archiver {
	if log == nil {
		log = logging.Nop()
	}
	return &Archiver{sub: sub, objects: objects, channel: channel, log: log}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (a *Archiver) Run(ctx context.Context) error {
	a.log.Info(ctx, "audit archiver started", "channel", a.channel)
	err := a.sub.Subscribe(ctx, a.channel, a.Handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Handle archives one message. Redelivered events already archived are
// acknowledged without rewriting. Undecodable messages are dropped.
func (a *Archiver) Handle(ctx context.Context, msg mq.Message) error {
	event, err := mq.DecodeEvent(msg)
	if err != nil {
		a.log.Warn(ctx, "dropping undecodable event", "message_id", msg.ID, "error", err)
		return nil
	}
	if event.ID == "" {
		a.log.Warn(ctx, "dropping event without id", "type", event.Type)
		return nil
	}

	key := ObjectKey(event)
	exists, err := a.objects.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check %s: %w", key, err)
	}
	if exists {
		a.log.Debug(ctx, "event already archived", "key", key)
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	if err := a.objects.Put(ctx, key, bytes.NewReader(body), int64(len(body)), contentType); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	a.log.Debug(ctx, "event archived", "key", key, "type", event.Type)
	return nil
}

// ObjectKey returns audit/YYYY/MM/DD/<id>.json for the event's UTC date.
func ObjectKey(event mq.Event) string {
	at := event.OccurredAt.UTC()
	return path.Join(keyPrefix, at.Format("2006"), at.Format("01"), at.Format("02"), event.ID+".json")
}
