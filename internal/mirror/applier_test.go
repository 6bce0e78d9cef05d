package mirror

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/cloudpost/mailmirror/internal/folder"
	"github.com/cloudpost/mailmirror/internal/models"
)

type fakeAccounts struct {
	byGrant map[string]models.Account
}

func (f *fakeAccounts) GetByGrantID(_ context.Context, grantID string) (models.Account, error) {
	acc, ok := f.byGrant[grantID]
	if !ok {
		return models.Account{}, pgx.ErrNoRows
	}
	return acc, nil
}

type fakeMessages struct {
	mu   sync.Mutex
	rows map[string]models.Message // keyed by provider message id
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{rows: make(map[string]models.Message)}
}

func (f *fakeMessages) Exists(_ context.Context, accountID uuid.UUID, providerMessageID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[providerMessageID]
	return ok && row.AccountID == accountID, nil
}

func (f *fakeMessages) Insert(_ context.Context, msg models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[msg.ProviderMessageID]; ok {
		return nil // idempotent insert: conflict is a no-op
	}
	f.rows[msg.ProviderMessageID] = msg
	return nil
}

func (f *fakeMessages) Update(_ context.Context, providerMessageID string, unread, starred bool, folderType string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[providerMessageID]
	if !ok {
		return false, nil
	}
	row.Unread = unread
	row.Starred = starred
	row.Folder = folderType
	f.rows[providerMessageID] = row
	return true, nil
}

func (f *fakeMessages) Delete(_ context.Context, providerMessageID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[providerMessageID]; !ok {
		return false, nil
	}
	delete(f.rows, providerMessageID)
	return true, nil
}

func (f *fakeMessages) get(providerMessageID string) (models.Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[providerMessageID]
	return row, ok
}

func (f *fakeMessages) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeFolders struct {
	mu      sync.Mutex
	upserts []models.Folder
}

func (f *fakeFolders) Upsert(_ context.Context, fo models.Folder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, fo)
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testApplier() (*Applier, *fakeAccounts, *fakeMessages, *fakeFolders) {
	accounts := &fakeAccounts{byGrant: map[string]models.Account{
		"g1": {ID: uuid.New(), GrantID: "g1", Email: "owner@x.com"},
	}}
	messages := newFakeMessages()
	folders := &fakeFolders{}
	return NewApplier(accounts, messages, folders, quietLogger()), accounts, messages, folders
}

func messageObject(t *testing.T, overrides map[string]any) json.RawMessage {
	t.Helper()
	obj := map[string]any{
		"id":       "m1",
		"grant_id": "g1",
		"subject":  "Hi",
		"from":     []map[string]string{{"email": "a@x.com"}},
		"date":     1700000000,
		"folders":  []string{"INBOX"},
	}
	for k, v := range overrides {
		obj[k] = v
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshal object: %v", err)
	}
	return raw
}

func TestMessageCreated(t *testing.T) {
	applier, _, messages, _ := testApplier()

	if err := applier.MessageCreated(context.Background(), messageObject(t, nil)); err != nil {
		t.Fatalf("MessageCreated: %v", err)
	}

	row, ok := messages.get("m1")
	if !ok {
		t.Fatal("expected mirrored message row")
	}
	if row.Folder != folder.TypeInbox {
		t.Fatalf("folder = %q, want inbox", row.Folder)
	}
	if row.Subject != "Hi" || row.Sender != "a@x.com" {
		t.Fatalf("unexpected row: %+v", row)
	}
}

func TestMessageCreatedIdempotent(t *testing.T) {
	applier, _, messages, _ := testApplier()
	obj := messageObject(t, nil)

	for i := 0; i < 2; i++ {
		if err := applier.MessageCreated(context.Background(), obj); err != nil {
			t.Fatalf("MessageCreated #%d: %v", i+1, err)
		}
	}

	if messages.count() != 1 {
		t.Fatalf("expected exactly one row, got %d", messages.count())
	}
}

func TestMessageCreatedSkipsExisting(t *testing.T) {
	applier, accounts, messages, _ := testApplier()
	messages.rows["m1"] = models.Message{
		AccountID:         accounts.byGrant["g1"].ID,
		ProviderMessageID: "m1",
		Subject:           "already here",
	}

	if err := applier.MessageCreated(context.Background(), messageObject(t, nil)); err != nil {
		t.Fatalf("MessageCreated: %v", err)
	}

	row, _ := messages.get("m1")
	if row.Subject != "already here" {
		t.Fatalf("existing row was overwritten: %+v", row)
	}
}

func TestMessageCreatedSuppressesSelfSent(t *testing.T) {
	applier, _, messages, _ := testApplier()
	obj := messageObject(t, map[string]any{
		"from":    []map[string]string{{"email": "owner@x.com"}},
		"folders": []string{"Gesendete Elemente"},
	})

	if err := applier.MessageCreated(context.Background(), obj); err != nil {
		t.Fatalf("MessageCreated: %v", err)
	}
	if messages.count() != 0 {
		t.Fatal("self-sent echo must not be inserted")
	}
}

func TestMessageCreatedSentFromOtherSenderInserted(t *testing.T) {
	applier, _, messages, _ := testApplier()
	obj := messageObject(t, map[string]any{"folders": []string{"Sent"}})

	if err := applier.MessageCreated(context.Background(), obj); err != nil {
		t.Fatalf("MessageCreated: %v", err)
	}
	if messages.count() != 1 {
		t.Fatal("sent-folder message from a different sender should be mirrored")
	}
}

func TestMessageCreatedUnknownGrantDropped(t *testing.T) {
	applier, _, messages, _ := testApplier()
	obj := messageObject(t, map[string]any{"grant_id": "missing"})

	if err := applier.MessageCreated(context.Background(), obj); err != nil {
		t.Fatalf("unknown grant must not be an error, got %v", err)
	}
	if messages.count() != 0 {
		t.Fatal("no row expected for unknown grant")
	}
}

func TestMessageUpdated(t *testing.T) {
	applier, accounts, messages, _ := testApplier()
	messages.rows["m1"] = models.Message{
		AccountID:         accounts.byGrant["g1"].ID,
		ProviderMessageID: "m1",
		Unread:            true,
		Folder:            folder.TypeInbox,
	}

	obj := messageObject(t, map[string]any{
		"unread":  false,
		"starred": true,
		"folders": []string{"Archive"},
	})
	if err := applier.MessageUpdated(context.Background(), obj); err != nil {
		t.Fatalf("MessageUpdated: %v", err)
	}

	row, _ := messages.get("m1")
	if row.Unread || !row.Starred || row.Folder != folder.TypeArchive {
		t.Fatalf("flags not applied: %+v", row)
	}
}

func TestMessageUpdatedMissingRowIsNoop(t *testing.T) {
	applier, _, _, _ := testApplier()

	if err := applier.MessageUpdated(context.Background(), messageObject(t, nil)); err != nil {
		t.Fatalf("update of missing row must be a no-op, got %v", err)
	}
}

func TestMessageDeleted(t *testing.T) {
	applier, accounts, messages, _ := testApplier()
	messages.rows["m1"] = models.Message{
		AccountID:         accounts.byGrant["g1"].ID,
		ProviderMessageID: "m1",
	}

	if err := applier.MessageDeleted(context.Background(), messageObject(t, nil)); err != nil {
		t.Fatalf("MessageDeleted: %v", err)
	}
	if messages.count() != 0 {
		t.Fatal("row should be hard-deleted")
	}

	// Deleting again is a no-op, not an error.
	if err := applier.MessageDeleted(context.Background(), messageObject(t, nil)); err != nil {
		t.Fatalf("second delete must be a no-op, got %v", err)
	}
}

func TestFolderUpserted(t *testing.T) {
	applier, _, _, folders := testApplier()
	raw := json.RawMessage(`{"id":"f1","grant_id":"g1","name":"Entwürfe"}`)

	if err := applier.FolderUpserted(context.Background(), raw); err != nil {
		t.Fatalf("FolderUpserted: %v", err)
	}

	if len(folders.upserts) != 1 {
		t.Fatalf("expected one upsert, got %d", len(folders.upserts))
	}
	f := folders.upserts[0]
	if f.ProviderFolderID != "f1" || f.FolderType != folder.TypeDrafts || f.DisplayName != "Entwürfe" {
		t.Fatalf("unexpected folder: %+v", f)
	}
}

func TestFolderUpsertedUnknownGrantDropped(t *testing.T) {
	applier, _, _, folders := testApplier()
	raw := json.RawMessage(`{"id":"f1","grant_id":"missing","name":"X"}`)

	if err := applier.FolderUpserted(context.Background(), raw); err != nil {
		t.Fatalf("unknown grant must not be an error, got %v", err)
	}
	if len(folders.upserts) != 0 {
		t.Fatal("no upsert expected for unknown grant")
	}
}
