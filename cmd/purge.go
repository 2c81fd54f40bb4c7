package cmd

import (
	"context"

	"court-booking/internal/usecase"

	"go.uber.org/zap"
)

// Purge runs one retention pass for schedulers that prefer a process over
// POST /api/maintenance/purge.
func Purge(ctx context.Context, deletion usecase.DeletionService, log *zap.Logger) error {
	result, err := deletion.PurgeExpired(ctx)
	if err != nil {
		return err
	}

	log.Info(result.Message, zap.Int64("deleted_count", result.DeletedCount))
	return nil
}
