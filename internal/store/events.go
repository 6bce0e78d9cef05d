package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudpost/mailmirror/internal/db"
	"github.com/cloudpost/mailmirror/internal/models"
)

// Events is the pgx-backed webhook event queue.
type Events struct{}

func NewEvents() *Events {
	return &Events{}
}

// Enqueue inserts the event row, keyed by the provider event id.
// Redelivered events hit the conflict clause and report inserted=false.
func (e *Events) Enqueue(ctx context.Context, ev models.WebhookEvent) (bool, error) {
	query := `
		INSERT INTO webhook_events (id, event_type, payload, processed, received_at)
		VALUES ($1, $2, $3, false, $4)
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := db.Pool.Exec(ctx, query, ev.ID, ev.EventType, ev.Payload, ev.ReceivedAt)
	if err != nil {
		return false, fmt.Errorf("failed to enqueue webhook event: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (e *Events) MarkProcessed(ctx context.Context, id string) error {
	query := `UPDATE webhook_events SET processed = true WHERE id = $1`

	if _, err := db.Pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// ListUnprocessed returns queued events received before olderThan,
// oldest first, for the reprocessing worker.
func (e *Events) ListUnprocessed(ctx context.Context, olderThan time.Time, limit int) ([]models.WebhookEvent, error) {
	query := `
		SELECT id, event_type, payload, processed, received_at
		FROM webhook_events
		WHERE processed = false AND received_at < $1
		ORDER BY received_at ASC
		LIMIT $2
	`

	rows, err := db.Pool.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed events: %w", err)
	}
	defer rows.Close()

	var events []models.WebhookEvent
	for rows.Next() {
		var ev models.WebhookEvent
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.Payload, &ev.Processed, &ev.ReceivedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}
