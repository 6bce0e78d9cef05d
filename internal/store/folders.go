package store

import (
	"context"
	"fmt"

	"github.com/cloudpost/mailmirror/internal/db"
	"github.com/cloudpost/mailmirror/internal/models"
)

// Folders is the pgx-backed mirrored folder store.
type Folders struct{}

func NewFolders() *Folders {
	return &Folders{}
}

func (f *Folders) Upsert(ctx context.Context, fo models.Folder) error {
	query := `
		INSERT INTO folders (id, account_id, provider_folder_id, display_name, folder_type, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_id, provider_folder_id)
		DO UPDATE SET display_name = EXCLUDED.display_name,
			folder_type = EXCLUDED.folder_type,
			synced_at = EXCLUDED.synced_at
	`

	_, err := db.Pool.Exec(ctx, query,
		fo.ID,
		fo.AccountID,
		fo.ProviderFolderID,
		fo.DisplayName,
		fo.FolderType,
		fo.SyncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert folder: %w", err)
	}
	return nil
}
