package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cloudpost/mailmirror/internal/db"
	"github.com/cloudpost/mailmirror/internal/models"
)

// EventStore persists webhook events before processing and tracks which
// have been applied.
type EventStore interface {
	// Enqueue inserts the event, ignoring duplicates on the provider
	// event id. Returns true when a new row was written.
	Enqueue(ctx context.Context, ev models.WebhookEvent) (bool, error)
	MarkProcessed(ctx context.Context, id string) error
	ListUnprocessed(ctx context.Context, olderThan time.Time, limit int) ([]models.WebhookEvent, error)
}

// HandlerFunc applies one event type's object payload to local state.
type HandlerFunc func(ctx context.Context, object json.RawMessage) error

const (
	DefaultHandlerTimeout = 12 * time.Second
	DefaultSlowThreshold  = 3 * time.Second
)

// Dispatcher routes decoded envelopes to type-specific handlers.
// Unknown types are logged and ignored. Every invocation runs under a
// timeout; processing duration is measured and slow handlers are logged
// even when they succeed.
type Dispatcher struct {
	handlers      map[string]HandlerFunc
	events        EventStore
	timeout       time.Duration
	slowThreshold time.Duration
	logger        *logrus.Logger
}

func NewDispatcher(events EventStore, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		handlers:      make(map[string]HandlerFunc),
		events:        events,
		timeout:       DefaultHandlerTimeout,
		slowThreshold: DefaultSlowThreshold,
		logger:        logger,
	}
}

// SetTimeouts overrides the handler timeout and slow-processing
// threshold. Zero values keep the defaults.
func (d *Dispatcher) SetTimeouts(timeout, slowThreshold time.Duration) {
	if timeout > 0 {
		d.timeout = timeout
	}
	if slowThreshold > 0 {
		d.slowThreshold = slowThreshold
	}
}

// Register binds a handler to an event type.
func (d *Dispatcher) Register(eventType string, h HandlerFunc) {
	d.handlers[eventType] = h
}

// Dispatch runs the handler for env's type and marks the event
// processed on success. Failures and timeouts leave the queued row
// unprocessed for the reprocessing worker; nothing is retried inline.
func (d *Dispatcher) Dispatch(ctx context.Context, env Envelope) {
	handler, ok := d.handlers[env.Type]
	if !ok {
		d.logger.WithFields(logrus.Fields{
			"event_id":   env.ID,
			"event_type": env.Type,
		}).Info("ignoring event with unhandled type")
		return
	}

	handlerCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := handler(handlerCtx, env.Data.Object)
	elapsed := time.Since(start)

	fields := logrus.Fields{
		"event_id":    env.ID,
		"event_type":  env.Type,
		"duration_ms": elapsed.Milliseconds(),
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(handlerCtx.Err(), context.DeadlineExceeded) {
			d.logger.WithFields(fields).Warn("event handler timed out, leaving event queued")
		} else {
			fields["error_kind"] = db.Classify(err).String()
			d.logger.WithFields(fields).WithError(err).Error("event handler failed, leaving event queued")
		}
		return
	}

	if elapsed > d.slowThreshold {
		d.logger.WithFields(fields).Warn("event processed slowly")
	}

	if err := d.events.MarkProcessed(ctx, env.ID); err != nil {
		d.logger.WithFields(fields).WithError(err).Error("failed to mark event processed")
	}
}
