// Package services orchestrates business operations across storage and the
// sync queue.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"horas/internal/amqp"
	"horas/internal/core"
	"horas/internal/storage"
	"horas/internal/store"
)

// ActivityService writes activities to SQLite first, then publishes a sync
// message so the worker mirrors them to the supervisor spreadsheet. Publish
// failures never fail the request; the row stays pending and the periodic
// sweep picks it up.
type ActivityService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

var _ store.ActivityStore = (*ActivityService)(nil)

func NewActivityService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *ActivityService {
	return &ActivityService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

func (s *ActivityService) ListActivities(ctx context.Context, f core.ActivityFilter) ([]core.Activity, error) {
	return s.storage.ListActivities(ctx, f)
}

// CreateActivity saves locally and publishes a sync message.
func (s *ActivityService) CreateActivity(ctx context.Context, a core.Activity) (core.Activity, error) {
	created, err := s.storage.CreateActivity(ctx, a)
	if err != nil {
		return core.Activity{}, fmt.Errorf("save activity: %w", err)
	}

	if err := s.publishSyncMessage(ctx, created.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", created.ID, "error", err)
	}

	return created, nil
}

// UpdateActivity merges the patch locally and republishes with a bumped
// version.
func (s *ActivityService) UpdateActivity(ctx context.Context, id int64, p store.ActivityPatch) (core.Activity, error) {
	updated, err := s.storage.UpdateActivity(ctx, id, p)
	if err != nil {
		return core.Activity{}, err
	}

	if err := s.publishSyncMessage(ctx, id, 2); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "error", err)
	}

	return updated, nil
}

func (s *ActivityService) DeleteActivity(ctx context.Context, id int64) error {
	if err := s.storage.DeleteActivity(ctx, id); err != nil {
		return err
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.PublishActivityDelete(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete message",
				"id", id, "error", err)
		}
	}

	return nil
}

func (s *ActivityService) publishSyncMessage(ctx context.Context, id, version int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.amqpClient.PublishActivitySync(ctx, id, version)
}

// Close closes both storage and AMQP connections
func (s *ActivityService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close activity service: %v", errs)
	}

	return nil
}
