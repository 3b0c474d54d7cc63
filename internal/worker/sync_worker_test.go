package worker

import (
	"context"
	"path/filepath"
	"testing"

	"budgetbox/internal/events"
	"budgetbox/internal/services"
	"budgetbox/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

// A request naming a user that no longer exists must be dropped, not
// returned as an error: the consumer requeues errored messages, and a
// request for a deleted user would redeliver forever.
func TestHandleSyncRequestUnknownUserDropped(t *testing.T) {
	repo := newTestRepo(t)
	w := NewSyncWorker(repo, services.NewSyncService(repo, nil, nil), nil, 1)

	msg := &events.SyncRequestMessage{UserID: 424242}
	if err := w.HandleSyncRequest(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncRequest returned error for unknown user: %v", err)
	}
}

func TestHandleSyncRequestNoAccountsDropped(t *testing.T) {
	repo := newTestRepo(t)
	user, _, err := repo.GetOrCreateUserByClerkID(context.Background(), "user_worker")
	if err != nil {
		t.Fatalf("GetOrCreateUserByClerkID: %v", err)
	}

	w := NewSyncWorker(repo, services.NewSyncService(repo, nil, nil), nil, 1)

	msg := &events.SyncRequestMessage{UserID: user.ID}
	if err := w.HandleSyncRequest(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncRequest returned error for user without accounts: %v", err)
	}
}
