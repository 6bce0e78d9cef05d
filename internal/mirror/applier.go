package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cloudpost/mailmirror/internal/db"
	"github.com/cloudpost/mailmirror/internal/folder"
	"github.com/cloudpost/mailmirror/internal/models"
	"github.com/cloudpost/mailmirror/internal/webhook"
)

// AccountStore resolves the owning account for inbound events.
type AccountStore interface {
	GetByGrantID(ctx context.Context, grantID string) (models.Account, error)
}

// MessageStore is the mirror's message table contract. Insert must be
// idempotent on (account, provider message id); Update and Delete
// report whether a row matched so no-ops stay silent.
type MessageStore interface {
	Exists(ctx context.Context, accountID uuid.UUID, providerMessageID string) (bool, error)
	Insert(ctx context.Context, msg models.Message) error
	Update(ctx context.Context, providerMessageID string, unread, starred bool, folderType string) (bool, error)
	Delete(ctx context.Context, providerMessageID string) (bool, error)
}

// FolderStore upserts mirrored folders keyed by (account, provider
// folder id).
type FolderStore interface {
	Upsert(ctx context.Context, f models.Folder) error
}

// Applier mutates the local mirror to reflect remote webhook events.
// Handlers are written defensively: events for the same message may
// arrive in any order, so creation skips existing rows and updates and
// deletes tolerate missing ones.
type Applier struct {
	accounts AccountStore
	messages MessageStore
	folders  FolderStore
	logger   *logrus.Logger
}

func NewApplier(accounts AccountStore, messages MessageStore, folders FolderStore, logger *logrus.Logger) *Applier {
	return &Applier{
		accounts: accounts,
		messages: messages,
		folders:  folders,
		logger:   logger,
	}
}

// Register binds the applier's handlers onto the dispatcher.
func (a *Applier) Register(d *webhook.Dispatcher) {
	d.Register(models.EventMessageCreated, a.MessageCreated)
	d.Register(models.EventMessageUpdated, a.MessageUpdated)
	d.Register(models.EventMessageDeleted, a.MessageDeleted)
	d.Register(models.EventFolderCreated, a.FolderUpserted)
	d.Register(models.EventFolderUpdated, a.FolderUpserted)
}

// MessageCreated inserts the mirror row for a newly synced message.
func (a *Applier) MessageCreated(ctx context.Context, object json.RawMessage) error {
	obj, err := webhook.DecodeMessageObject(object)
	if err != nil {
		return err
	}

	account, ok, err := a.resolveAccount(ctx, obj.GrantID, obj.ID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	exists, err := a.messages.Exists(ctx, account.ID, obj.ID)
	if err != nil {
		return fmt.Errorf("failed to check for existing message: %w", err)
	}
	if exists {
		// Already mirrored through another path, typically the send
		// flow recording its own copy before the webhook lands.
		a.logger.WithFields(logrus.Fields{
			"provider_message_id": obj.ID,
			"account_id":          account.ID,
		}).Debug("message already mirrored, skipping insert")
		return nil
	}

	folderType := folder.NormalizeAll(obj.Folders)

	// The send flow already recorded the local copy of outbound mail;
	// inserting the provider's sent-folder echo would duplicate it.
	if folderType == folder.TypeSent && obj.SenderEmail() == account.Email {
		a.logger.WithFields(logrus.Fields{
			"provider_message_id": obj.ID,
			"account_id":          account.ID,
		}).Debug("suppressing self-sent message echo")
		return nil
	}

	msg := models.Message{
		ID:                uuid.New(),
		AccountID:         account.ID,
		ProviderMessageID: obj.ID,
		ThreadID:          obj.ThreadID,
		Subject:           obj.Subject,
		Snippet:           obj.Snippet,
		Sender:            obj.SenderEmail(),
		Recipients:        obj.RecipientEmails(),
		Unread:            obj.Unread,
		Starred:           obj.Starred,
		Folder:            folderType,
		ReceivedAt:        obj.ReceivedAt(),
		Raw:               object,
	}

	if err := a.messages.Insert(ctx, msg); err != nil {
		// The store inserts with ON CONFLICT DO NOTHING; a conflict
		// surfacing anyway means a concurrent insert won the race.
		if db.Classify(err) == db.KindConflict {
			return nil
		}
		return fmt.Errorf("failed to insert mirrored message: %w", err)
	}

	return nil
}

// MessageUpdated syncs read/starred flags and folder assignment.
func (a *Applier) MessageUpdated(ctx context.Context, object json.RawMessage) error {
	obj, err := webhook.DecodeMessageObject(object)
	if err != nil {
		return err
	}

	folderType := folder.NormalizeAll(obj.Folders)

	matched, err := a.messages.Update(ctx, obj.ID, obj.Unread, obj.Starred, folderType)
	if err != nil {
		return fmt.Errorf("failed to update mirrored message: %w", err)
	}
	if !matched {
		a.logger.WithField("provider_message_id", obj.ID).Debug("update for unknown message, ignoring")
	}
	return nil
}

// MessageDeleted hard-deletes the mirror row. The remote provider
// already reflects the deletion; removing the row keeps a later full
// sync from resurrecting deleted mail.
func (a *Applier) MessageDeleted(ctx context.Context, object json.RawMessage) error {
	obj, err := webhook.DecodeMessageObject(object)
	if err != nil {
		return err
	}

	matched, err := a.messages.Delete(ctx, obj.ID)
	if err != nil {
		return fmt.Errorf("failed to delete mirrored message: %w", err)
	}
	if !matched {
		a.logger.WithField("provider_message_id", obj.ID).Debug("delete for unknown message, ignoring")
	}
	return nil
}

// FolderUpserted handles folder.created and folder.updated, which share
// upsert semantics.
func (a *Applier) FolderUpserted(ctx context.Context, object json.RawMessage) error {
	obj, err := webhook.DecodeFolderObject(object)
	if err != nil {
		return err
	}

	account, ok, err := a.resolveAccount(ctx, obj.GrantID, obj.ID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	f := models.Folder{
		ID:               uuid.New(),
		AccountID:        account.ID,
		ProviderFolderID: obj.ID,
		DisplayName:      obj.Name,
		FolderType:       folder.Normalize(obj.Name),
		SyncedAt:         time.Now().UTC(),
	}

	if err := a.folders.Upsert(ctx, f); err != nil {
		return fmt.Errorf("failed to upsert mirrored folder: %w", err)
	}
	return nil
}

// resolveAccount looks up the account owning a grant. An unknown grant
// is a routing failure: logged as an error and the event dropped, since
// retrying cannot make the account appear.
func (a *Applier) resolveAccount(ctx context.Context, grantID, objectID string) (models.Account, bool, error) {
	account, err := a.accounts.GetByGrantID(ctx, grantID)
	if err != nil {
		if db.Classify(err) == db.KindNotFound {
			a.logger.WithFields(logrus.Fields{
				"grant_id":  grantID,
				"object_id": objectID,
			}).Error("no account for grant, dropping event")
			return models.Account{}, false, nil
		}
		return models.Account{}, false, fmt.Errorf("failed to resolve account: %w", err)
	}
	return account, true, nil
}
