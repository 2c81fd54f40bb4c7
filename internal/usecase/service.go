package usecase

import (
	"context"
	"time"

	"court-booking/internal/data/repository"
	"court-booking/pkg/notify"
	"court-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Clock is injected so tests can pin "now".
type Clock func() time.Time

type Service struct {
	Booking  BookingService
	Slot     SlotService
	Deletion DeletionService
	History  HistoryService
}

// Notifier is the change feed as seen by the core: publish after writes,
// subscribe for pending-claim guards.
type Notifier interface {
	notify.Publisher
	notify.Feed
}

func NewService(repo *repository.Repository, notifier Notifier, config *utils.Config, log *zap.Logger, clock Clock) *Service {
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		Booking:  NewBookingService(repo, notifier, log, clock),
		Slot:     NewSlotService(repo, notifier, log, clock),
		Deletion: NewDeletionService(repo, notifier, config.Booking.PurgeAfter, log, clock),
		History:  NewHistoryService(repo, log),
	}
}

// publishChange is best effort: a lost signal only delays a refresh.
func publishChange(ctx context.Context, pub notify.Publisher, log *zap.Logger, bookingID uuid.UUID, action string) {
	if pub == nil {
		return
	}

	change := notify.Change{Action: action, At: time.Now().UTC()}
	if bookingID != uuid.Nil {
		change.BookingID = bookingID.String()
	}

	if err := pub.Publish(ctx, change); err != nil {
		log.Warn("Failed to publish change",
			zap.Error(err),
			zap.String("booking_id", change.BookingID),
			zap.String("action", action),
		)
	}
}

// inTx runs fn in one transaction. Failing to begin or commit it counts as a
// store failure; errors returned by fn pass through untouched.
func inTx(ctx context.Context, repo *repository.Repository, fn func(tx *repository.Repository) error) error {
	var fnErr error
	err := repo.WithTx(ctx, func(tx *repository.Repository) error {
		fnErr = fn(tx)
		return fnErr
	})
	if err != nil && fnErr == nil {
		return storeError("transaction", err)
	}
	return err
}
