package repository

import (
	"context"
	"fmt"

	"court-booking/internal/data/entity"
	"court-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HistoryRepository is insert and read only.
type HistoryRepository interface {
	Create(ctx context.Context, entry *entity.HistoryEntry) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.HistoryEntry, error)
}

type historyRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewHistoryRepository(db database.Querier, log *zap.Logger) HistoryRepository {
	return &historyRepository{
		db:  db,
		log: log.With(zap.String("repository", "history")),
	}
}

func (r *historyRepository) Create(ctx context.Context, entry *entity.HistoryEntry) error {
	query := `
		INSERT INTO booking_history (
			id, booking_id, action, changed_by, slot_number, slot_value,
			field_name, old_value, new_value, deletion_reason, deletion_details, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.BookingID,
		entry.Action,
		entry.ChangedBy,
		entry.SlotNumber,
		entry.SlotValue,
		entry.FieldName,
		entry.OldValue,
		entry.NewValue,
		entry.DeletionReason,
		entry.DeletionDetails,
		entry.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create history entry",
			zap.Error(err),
			zap.String("booking_id", entry.BookingID.String()),
			zap.String("action", string(entry.Action)),
		)
		return fmt.Errorf("create %s history entry for booking %s: %w", entry.Action, entry.BookingID.String(), err)
	}

	return nil
}

func (r *historyRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.HistoryEntry, error) {
	query := `
		SELECT id, booking_id, action, changed_by, slot_number, slot_value,
		       field_name, old_value, new_value, deletion_reason, deletion_details, created_at
		FROM booking_history
		WHERE booking_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find history by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find history for booking %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	entries := make([]*entity.HistoryEntry, 0)
	for rows.Next() {
		var entry entity.HistoryEntry
		err := rows.Scan(
			&entry.ID,
			&entry.BookingID,
			&entry.Action,
			&entry.ChangedBy,
			&entry.SlotNumber,
			&entry.SlotValue,
			&entry.FieldName,
			&entry.OldValue,
			&entry.NewValue,
			&entry.DeletionReason,
			&entry.DeletionDetails,
			&entry.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan history row", zap.Error(err))
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}

	return entries, nil
}
