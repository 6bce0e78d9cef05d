package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is the local mirror of one remote email message.
// At most one row exists per (account, provider message id).
type Message struct {
	ID                uuid.UUID `db:"id"`
	AccountID         uuid.UUID `db:"account_id"`
	ProviderMessageID string    `db:"provider_message_id"`
	ThreadID          string    `db:"thread_id"`
	Subject           string    `db:"subject"`
	Snippet           string    `db:"snippet"`
	Sender            string    `db:"sender"`
	Recipients        []string  `db:"recipients"`
	Unread            bool      `db:"unread"`
	Starred           bool      `db:"starred"`
	Folder            string    `db:"folder"`
	ReceivedAt        time.Time `db:"received_at"`
	Raw               []byte    `db:"raw"`
}

// Folder is the local mirror of one remote folder/label.
type Folder struct {
	ID               uuid.UUID `db:"id"`
	AccountID        uuid.UUID `db:"account_id"`
	ProviderFolderID string    `db:"provider_folder_id"`
	DisplayName      string    `db:"display_name"`
	FolderType       string    `db:"folder_type"`
	SyncedAt         time.Time `db:"synced_at"`
}
