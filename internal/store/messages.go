package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cloudpost/mailmirror/internal/db"
	"github.com/cloudpost/mailmirror/internal/models"
)

// Messages is the pgx-backed mirrored message store.
type Messages struct{}

func NewMessages() *Messages {
	return &Messages{}
}

func (m *Messages) Exists(ctx context.Context, accountID uuid.UUID, providerMessageID string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM messages WHERE account_id = $1 AND provider_message_id = $2
	)`

	var exists bool
	if err := db.Pool.QueryRow(ctx, query, accountID, providerMessageID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check message existence: %w", err)
	}
	return exists, nil
}

// Insert writes the mirror row. The conflict clause on
// (account_id, provider_message_id) makes redelivered creates no-ops.
func (m *Messages) Insert(ctx context.Context, msg models.Message) error {
	query := `
		INSERT INTO messages (
			id, account_id, provider_message_id, thread_id, subject, snippet,
			sender, recipients, unread, starred, folder, received_at, raw
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (account_id, provider_message_id) DO NOTHING
	`

	_, err := db.Pool.Exec(ctx, query,
		msg.ID,
		msg.AccountID,
		msg.ProviderMessageID,
		msg.ThreadID,
		msg.Subject,
		msg.Snippet,
		msg.Sender,
		msg.Recipients,
		msg.Unread,
		msg.Starred,
		msg.Folder,
		msg.ReceivedAt,
		msg.Raw,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (m *Messages) Update(ctx context.Context, providerMessageID string, unread, starred bool, folderType string) (bool, error) {
	query := `
		UPDATE messages
		SET unread = $2, starred = $3, folder = $4
		WHERE provider_message_id = $1
	`

	tag, err := db.Pool.Exec(ctx, query, providerMessageID, unread, starred, folderType)
	if err != nil {
		return false, fmt.Errorf("failed to update message: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete hard-deletes the mirror row. The provider already reflects the
// remote deletion; keeping the row would resurrect the message on the
// next full sync.
func (m *Messages) Delete(ctx context.Context, providerMessageID string) (bool, error) {
	query := `DELETE FROM messages WHERE provider_message_id = $1`

	tag, err := db.Pool.Exec(ctx, query, providerMessageID)
	if err != nil {
		return false, fmt.Errorf("failed to delete message: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
