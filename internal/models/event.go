package models

import "time"

// Webhook event types delivered by the sync provider.
const (
	EventMessageCreated = "message.created"
	EventMessageUpdated = "message.updated"
	EventMessageDeleted = "message.deleted"
	EventFolderCreated  = "folder.created"
	EventFolderUpdated  = "folder.updated"
)

// EventSMSReceived is the synthetic type assigned to inbound SMS
// notifications so they share the webhook event queue.
const EventSMSReceived = "sms.received"

// WebhookEvent is one received provider notification, persisted before
// any processing. ID is the provider-assigned event id and doubles as
// the idempotency key: redelivered events collapse onto the same row.
type WebhookEvent struct {
	ID         string    `db:"id"`
	EventType  string    `db:"event_type"`
	Payload    []byte    `db:"payload"`
	Processed  bool      `db:"processed"`
	ReceivedAt time.Time `db:"received_at"`
}
