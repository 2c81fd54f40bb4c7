package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"court-booking/internal/data/entity"
	"court-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindAll(ctx context.Context, filter entity.BookingFilter) ([]*entity.Booking, error)
	Update(ctx context.Context, id uuid.UUID, changes entity.BookingChanges) error

	// Slot writes touch exactly one slot column.
	ClaimSlot(ctx context.Context, id uuid.UUID, slot int, name string) (bool, error)
	ReleaseSlot(ctx context.Context, id uuid.UUID, slot int) (*string, error)

	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

const bookingColumns = `id, location, start_time, end_time, slot_1, slot_2, slot_3, slot_4, created_by, created_at, cost, deleted_at`

var slotColumns = [entity.SlotCount]string{"slot_1", "slot_2", "slot_3", "slot_4"}

func slotColumn(slot int) (string, error) {
	if !entity.ValidSlot(slot) {
		return "", fmt.Errorf("invalid slot number %d", slot)
	}
	return slotColumns[slot-1], nil
}

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.Location,
		&booking.StartTime,
		&booking.EndTime,
		&booking.Slot1,
		&booking.Slot2,
		&booking.Slot3,
		&booking.Slot4,
		&booking.CreatedBy,
		&booking.CreatedAt,
		&booking.Cost,
		&booking.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.Location,
		booking.StartTime,
		booking.EndTime,
		booking.Slot1,
		booking.Slot2,
		booking.Slot3,
		booking.Slot4,
		booking.CreatedBy,
		booking.CreatedAt,
		booking.Cost,
		booking.DeletedAt,
	)
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("created_by", booking.CreatedBy),
		)
		return fmt.Errorf("create booking %s: %w", booking.ID.String(), err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findByID(ctx, id, "")
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findByID(ctx, id, "FOR UPDATE")
}

func (r *bookingRepository) findByID(ctx context.Context, id uuid.UUID, lock string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 ` + lock

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindAll(ctx context.Context, filter entity.BookingFilter) ([]*entity.Booking, error) {
	var (
		conditions []string
		args       []any
	)
	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}
	if !filter.IncludePast {
		args = append(args, filter.Now)
		conditions = append(conditions, fmt.Sprintf("end_time > $%d", len(args)))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY start_time ASC, created_at ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find bookings",
			zap.Error(err),
			zap.Bool("include_past", filter.IncludePast),
			zap.Bool("include_deleted", filter.IncludeDeleted),
		)
		return nil, fmt.Errorf("find bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*entity.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

// Update writes only the columns present in changes, so concurrent edits of
// other columns are left alone.
func (r *bookingRepository) Update(ctx context.Context, id uuid.UUID, changes entity.BookingChanges) error {
	if changes.Empty() {
		return nil
	}

	args := []any{id}
	var sets []string
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if changes.Location != nil {
		set("location", *changes.Location)
	}
	if changes.StartTime != nil {
		set("start_time", *changes.StartTime)
	}
	if changes.EndTime != nil {
		set("end_time", *changes.EndTime)
	}
	if changes.Cost != nil {
		set("cost", *changes.Cost)
	}

	query := `UPDATE bookings SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to update booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return fmt.Errorf("update booking %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", id.String(), ErrNotFound)
	}

	return nil
}

// ClaimSlot is the compare-and-set: the slot is written only if it is still
// empty at write time. false means the condition did not hold (slot taken,
// booking deleted or missing).
func (r *bookingRepository) ClaimSlot(ctx context.Context, id uuid.UUID, slot int, name string) (bool, error) {
	column, err := slotColumn(slot)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`
		UPDATE bookings
		SET %[1]s = $2
		WHERE id = $1 AND %[1]s IS NULL AND deleted_at IS NULL
	`, column)

	result, err := r.db.Exec(ctx, query, id, name)
	if err != nil {
		r.log.Error("Failed to claim slot",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.Int("slot", slot),
		)
		return false, fmt.Errorf("claim slot %d of booking %s: %w", slot, id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

// ReleaseSlot empties the slot and returns whoever held it right before the
// write, read under the same row lock.
func (r *bookingRepository) ReleaseSlot(ctx context.Context, id uuid.UUID, slot int) (*string, error) {
	column, err := slotColumn(slot)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE bookings AS b
		SET %[1]s = NULL
		FROM (SELECT id, %[1]s AS prior FROM bookings WHERE id = $1 FOR UPDATE) AS old
		WHERE b.id = old.id
		RETURNING old.prior
	`, column)

	var prior *string
	err = r.db.QueryRow(ctx, query, id).Scan(&prior)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("booking %s: %w", id.String(), ErrNotFound)
	}
	if err != nil {
		r.log.Error("Failed to release slot",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.Int("slot", slot),
		)
		return nil, fmt.Errorf("release slot %d of booking %s: %w", slot, id.String(), err)
	}

	return prior, nil
}

func (r *bookingRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE bookings SET deleted_at = $2 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		r.log.Error("Failed to soft delete booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return fmt.Errorf("soft delete booking %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", id.String(), ErrNotFound)
	}

	return nil
}

// PurgeDeletedBefore physically removes soft-deleted bookings; their history
// goes with them through the foreign key cascade.
func (r *bookingRepository) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM bookings WHERE deleted_at IS NOT NULL AND deleted_at < $1`

	result, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		r.log.Error("Failed to purge deleted bookings",
			zap.Error(err),
			zap.Time("cutoff", cutoff),
		)
		return 0, fmt.Errorf("purge bookings deleted before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	return result.RowsAffected(), nil
}
