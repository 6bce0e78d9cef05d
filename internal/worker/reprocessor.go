package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cloudpost/mailmirror/internal/models"
	"github.com/cloudpost/mailmirror/internal/webhook"
)

const (
	DefaultPollInterval = 30 * time.Second
	DefaultMinAge       = 1 * time.Minute
	DefaultBatchSize    = 50
)

// Reprocessor drains webhook events that were queued but never marked
// processed: crashed handlers, dispatch timeouts, or a restart between
// ack and apply. It polls the queue and re-dispatches a bounded batch
// per tick; the minimum age keeps it from racing events still in
// flight on the live path.
type Reprocessor struct {
	events     webhook.EventStore
	dispatcher *webhook.Dispatcher
	interval   time.Duration
	minAge     time.Duration
	batchSize  int
	logger     *logrus.Logger
}

func NewReprocessor(events webhook.EventStore, dispatcher *webhook.Dispatcher, logger *logrus.Logger) *Reprocessor {
	return &Reprocessor{
		events:     events,
		dispatcher: dispatcher,
		interval:   DefaultPollInterval,
		minAge:     DefaultMinAge,
		batchSize:  DefaultBatchSize,
		logger:     logger,
	}
}

// SetSchedule overrides poll interval, minimum event age, and batch
// size. Zero values keep the defaults.
func (r *Reprocessor) SetSchedule(interval, minAge time.Duration, batchSize int) {
	if interval > 0 {
		r.interval = interval
	}
	if minAge > 0 {
		r.minAge = minAge
	}
	if batchSize > 0 {
		r.batchSize = batchSize
	}
}

// Run polls until ctx is cancelled.
func (r *Reprocessor) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce re-dispatches one batch of stale unprocessed events.
func (r *Reprocessor) RunOnce(ctx context.Context) {
	olderThan := time.Now().Add(-r.minAge)

	events, err := r.events.ListUnprocessed(ctx, olderThan, r.batchSize)
	if err != nil {
		r.logger.WithError(err).Error("failed to load unprocessed events")
		return
	}
	if len(events) == 0 {
		return
	}

	r.logger.WithField("count", len(events)).Info("reprocessing queued events")

	for _, ev := range events {
		select {
		case <-ctx.Done():
			return
		default:
		}

		env, err := r.envelopeFor(ev)
		if err != nil {
			r.logger.WithFields(logrus.Fields{
				"event_id":   ev.ID,
				"event_type": ev.EventType,
			}).WithError(err).Error("queued payload no longer decodes, skipping")
			continue
		}

		r.dispatcher.Dispatch(ctx, env)
	}
}

// envelopeFor reconstructs the dispatch envelope from a queued row.
// Email events persist the full envelope body; SMS events persist the
// bare object payload.
func (r *Reprocessor) envelopeFor(ev models.WebhookEvent) (webhook.Envelope, error) {
	if ev.EventType == models.EventSMSReceived {
		env := webhook.Envelope{ID: ev.ID, Type: ev.EventType}
		env.Data.Object = ev.Payload
		return env, nil
	}
	return webhook.DecodeEnvelope(ev.Payload)
}
