package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cloudpost/mailmirror/internal/db"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Setup database and create a development account",
	Long:  "Creates database tables and inserts a development account record for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		// Initialize database
		if err := db.Init(ctx); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		// Run migrations
		fmt.Println("Running migrations...")
		migrationSQL := `
			-- Connected mailboxes; grant_id is the sync provider's
			-- identifier for the authorized connection
			CREATE TABLE IF NOT EXISTS accounts (
			    id UUID PRIMARY KEY,
			    grant_id VARCHAR(255) NOT NULL UNIQUE,
			    email VARCHAR(255) NOT NULL,
			    provider VARCHAR(32) NOT NULL,
			    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
			);

			-- Durable webhook event queue; id is the provider event id
			-- and acts as the idempotency key
			CREATE TABLE IF NOT EXISTS webhook_events (
			    id TEXT PRIMARY KEY,
			    event_type VARCHAR(64) NOT NULL,
			    payload JSONB NOT NULL,
			    processed BOOLEAN NOT NULL DEFAULT false,
			    received_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_webhook_events_unprocessed
			    ON webhook_events(received_at) WHERE processed = false;

			-- Mirrored messages
			CREATE TABLE IF NOT EXISTS messages (
			    id UUID PRIMARY KEY,
			    account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			    provider_message_id VARCHAR(255) NOT NULL,
			    thread_id VARCHAR(255),
			    subject TEXT,
			    snippet TEXT,
			    sender VARCHAR(320),
			    recipients JSONB,
			    unread BOOLEAN NOT NULL DEFAULT true,
			    starred BOOLEAN NOT NULL DEFAULT false,
			    folder VARCHAR(32) NOT NULL,
			    received_at TIMESTAMP WITH TIME ZONE NOT NULL,
			    raw JSONB,
			    UNIQUE (account_id, provider_message_id)
			);

			CREATE INDEX IF NOT EXISTS idx_messages_provider_message_id ON messages(provider_message_id);
			CREATE INDEX IF NOT EXISTS idx_messages_account_folder ON messages(account_id, folder);

			-- Mirrored folders/labels
			CREATE TABLE IF NOT EXISTS folders (
			    id UUID PRIMARY KEY,
			    account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			    provider_folder_id VARCHAR(255) NOT NULL,
			    display_name VARCHAR(255) NOT NULL,
			    folder_type VARCHAR(32) NOT NULL,
			    synced_at TIMESTAMP WITH TIME ZONE NOT NULL,
			    UNIQUE (account_id, provider_folder_id)
			);
		`

		if _, err := db.Pool.Exec(ctx, migrationSQL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		// Insert development account
		fmt.Println("Inserting development account...")
		devAccountID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
		insertAccountSQL := `
			INSERT INTO accounts (id, grant_id, email, provider)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (grant_id) DO UPDATE SET email = EXCLUDED.email, provider = EXCLUDED.provider
		`

		if _, err := db.Pool.Exec(ctx, insertAccountSQL, devAccountID, "g1", "dev@example.com", "google"); err != nil {
			return fmt.Errorf("failed to insert development account: %w", err)
		}

		fmt.Printf("✓ Database setup complete. Development account: %s (grant g1)\n", devAccountID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
