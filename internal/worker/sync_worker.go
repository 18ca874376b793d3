// Package worker mirrors logged activities from SQLite to the supervisor
// spreadsheet, driven by AMQP messages with a periodic sweep as backup.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"horas/internal/amqp"
	"horas/internal/core"
	"horas/internal/sheets"
	"horas/internal/storage"
)

// SyncStore is the slice of the repository the worker needs.
type SyncStore interface {
	GetActivityRow(ctx context.Context, id int64) (sheets.ActivityRow, error)
	GetPendingSyncActivities(ctx context.Context, limit int) ([]storage.PendingSyncActivity, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

type SyncWorker struct {
	storage   SyncStore
	sheets    sheets.ActivityWriter
	batchSize int
}

func NewSyncWorker(storage SyncStore, sheets sheets.ActivityWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		sheets:    sheets,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single activity sync message from AMQP.
// An activity deleted before its message arrives is acked and skipped.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ActivitySyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	row, err := w.storage.GetActivityRow(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Activity gone before sync, skipping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get activity from storage: %w", err)
	}

	return w.syncActivityToSheets(ctx, msg.ID, row)
}

// ProcessPendingActivities sweeps activities that never got synced. This is a
// backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingActivities(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncActivities(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending activities: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending activities", "count", len(pending))

	for _, p := range pending {
		row, err := w.storage.GetActivityRow(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get activity", "id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}

		if err := w.syncActivityToSheets(ctx, p.ID, row); err != nil {
			slog.ErrorContext(ctx, "Failed to sync activity", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck drains the pending backlog once at worker startup. This
// recovers from missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncActivities(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending activities for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending activities found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending activities on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		row, err := w.storage.GetActivityRow(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get activity for startup sync",
				"id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			errorCount++
			continue
		}

		if err := w.syncActivityToSheets(ctx, p.ID, row); err != nil {
			slog.ErrorContext(ctx, "Failed to sync activity during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}

		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) syncActivityToSheets(ctx context.Context, id int64, row sheets.ActivityRow) error {
	ref, err := w.sheets.Append(ctx, row)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		// The append itself worked; the sweep will retry the mark
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced activity",
		"id", id,
		"sheets_ref", ref,
		"hours", row.Hours)

	return nil
}
