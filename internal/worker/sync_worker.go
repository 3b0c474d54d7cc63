// Package worker runs background transaction syncs, driven by queued
// sync requests and a periodic sweep over users with linked accounts.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"budgetbox/internal/core"
	"budgetbox/internal/events"
	"budgetbox/internal/services"
	"budgetbox/internal/storage"
)

// SyncWorker consumes sync requests and executes the per-user sync.
type SyncWorker struct {
	storage     *storage.SQLiteRepository
	sync        *services.SyncService
	events      *events.Client
	concurrency int
}

func NewSyncWorker(storage *storage.SQLiteRepository, sync *services.SyncService, events *events.Client, concurrency int) *SyncWorker {
	return &SyncWorker{
		storage:     storage,
		sync:        sync,
		events:      events,
		concurrency: concurrency,
	}
}

// HandleSyncRequest processes one queued sync request. A missing user or
// a user without linked accounts is not an error; returning one would
// requeue the message, and no redelivery can make such a request
// succeed.
func (w *SyncWorker) HandleSyncRequest(ctx context.Context, msg *events.SyncRequestMessage) error {
	slog.InfoContext(ctx, "Processing sync request", "user_id", msg.UserID)

	user, err := w.storage.GetUser(ctx, msg.UserID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Sync request for unknown user, dropping", "user_id", msg.UserID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	result, err := w.sync.SyncUser(ctx, user)
	if errors.Is(err, services.ErrNoLinkedAccounts) {
		slog.InfoContext(ctx, "No linked accounts, skipping", "user_id", msg.UserID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("sync user %d: %w", msg.UserID, err)
	}

	slog.InfoContext(ctx, "Sync request completed",
		"user_id", msg.UserID,
		"added", result.Added,
		"modified", result.Modified,
		"removed", result.Removed,
		"warnings", len(result.Warnings))
	return nil
}

// EnqueueDueUsers publishes a sync request for every user with at least
// one active linked account. Requests fan out with bounded concurrency.
func (w *SyncWorker) EnqueueDueUsers(ctx context.Context) error {
	userIDs, err := w.storage.ListUserIDsWithActiveAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list users with active accounts: %w", err)
	}
	if len(userIDs) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Enqueueing sync requests", "users", len(userIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, userID := range userIDs {
		g.Go(func() error {
			if err := w.events.PublishSyncRequest(gctx, userID); err != nil {
				return fmt.Errorf("publish sync request for user %d: %w", userID, err)
			}
			return nil
		})
	}
	return g.Wait()
}
