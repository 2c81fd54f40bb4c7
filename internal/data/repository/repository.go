package repository

import (
	"context"
	"errors"

	"court-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ErrNotFound is returned by mutations whose target row does not exist.
var ErrNotFound = errors.New("record not found")

type Repository struct {
	Booking BookingRepository
	History HistoryRepository

	db  database.PgxIface
	log *zap.Logger
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Booking: NewBookingRepository(db, log),
		History: NewHistoryRepository(db, log),
		db:      db,
		log:     log,
	}
}

// WithTx runs fn with repositories bound to a single transaction. Calls made
// on an already transactional Repository, or on one assembled from test
// doubles, run fn directly.
func (r *Repository) WithTx(ctx context.Context, fn func(repo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}

	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&Repository{
			Booking: NewBookingRepository(tx, r.log),
			History: NewHistoryRepository(tx, r.log),
			log:     r.log,
		})
	})
}
