package services

import (
	"context"

	"github.com/trendystore/authserver/internal/logging"
	"github.com/trendystore/authserver/internal/mq"
)

// EventPublisher sends account events. mq.EventPublisher satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, event mq.Event) error
}

type options struct {
	events EventPublisher
	log    logging.Logger
}

// Option configures a service.
type Option func(*options)

// WithEvents publishes account events through pub.
func WithEvents(pub EventPublisher) Option {
	return func(o *options) {
		o.events = pub
	}
}

func WithLogger(log logging.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

func buildOptions(opts []Option) options {
	o := options{log: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// emit publishes event if a publisher is configured. Failures are logged only.
func (o options) emit(ctx context.Context, event mq.Event) {
	if o.events == nil {
		return
	}
	if err := o.events.Publish(ctx, event); err != nil {
		o.log.Warn(ctx, "publish account event failed", "type", event.Type, "error", err)
	}
}
