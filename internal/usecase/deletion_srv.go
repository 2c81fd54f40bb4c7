package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"court-booking/internal/data/entity"
	"court-booking/internal/data/repository"
	"court-booking/internal/dto/request"
	"court-booking/internal/dto/response"
	"court-booking/pkg/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultPurgeAfter = 45 * 24 * time.Hour

type DeletionService interface {
	SoftDelete(ctx context.Context, bookingID string, req *request.DeleteBookingRequest) (*response.BookingResponse, error)
	PurgeExpired(ctx context.Context) (*response.PurgeResponse, error)
}

type deletionService struct {
	repo       *repository.Repository
	pub        notify.Publisher
	history    historyRecorder
	purgeAfter time.Duration
	clock      Clock
	log        *zap.Logger
}

func NewDeletionService(repo *repository.Repository, pub notify.Publisher, purgeAfter time.Duration, log *zap.Logger, clock Clock) DeletionService {
	if purgeAfter <= 0 {
		purgeAfter = DefaultPurgeAfter
	}

	return &deletionService{
		repo:       repo,
		pub:        pub,
		history:    historyRecorder{clock: clock},
		purgeAfter: purgeAfter,
		clock:      clock,
		log:        log.With(zap.String("service", "deletion")),
	}
}

// SoftDelete stamps the booking deleted. Repeating it moves the timestamp.
// Only a deletion with a reason is written to history.
func (s *deletionService) SoftDelete(ctx context.Context, bookingID string, req *request.DeleteBookingRequest) (*response.BookingResponse, error) {
	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}

	if verr := validationFromStruct(req); verr != nil {
		return nil, verr
	}

	reason := strings.TrimSpace(req.Reason)
	details := ""
	if reason != "" {
		details = strings.TrimSpace(req.Details)
	}
	actor := strings.TrimSpace(req.Actor)
	now := s.clock().UTC()

	var deleted *entity.Booking
	err = inTx(ctx, s.repo, func(tx *repository.Repository) error {
		if err := tx.Booking.SoftDelete(ctx, id, now); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrBookingNotFound
			}
			return storeError("soft delete booking", err)
		}

		if reason != "" {
			if err := s.history.deleted(ctx, tx.History, id, reason, details, actor); err != nil {
				return err
			}
		}

		booking, err := tx.Booking.FindByID(ctx, id)
		if err != nil {
			return storeError("find booking", err)
		}
		if booking == nil {
			return ErrBookingNotFound
		}
		deleted = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Booking deleted",
		zap.String("booking_id", bookingID),
		zap.String("reason", reason),
		zap.String("actor", actor),
	)
	publishChange(ctx, s.pub, s.log, id, string(entity.HistoryActionDeleted))

	resp := response.BookingToResponse(deleted)
	return &resp, nil
}

// PurgeExpired physically removes bookings soft-deleted longer ago than the
// retention window. Failures are reported, never retried here.
func (s *deletionService) PurgeExpired(ctx context.Context) (*response.PurgeResponse, error) {
	cutoff := s.clock().UTC().Add(-s.purgeAfter)

	count, err := s.repo.Booking.PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		s.log.Error("Failed to purge deleted bookings", zap.Error(err), zap.Time("cutoff", cutoff))
		return &response.PurgeResponse{
			Success: false,
			Error:   err.Error(),
		}, storeError("purge bookings", err)
	}

	days := int(s.purgeAfter.Hours() / 24)
	s.log.Info("Purged deleted bookings", zap.Int64("deleted_count", count), zap.Time("cutoff", cutoff))

	if count > 0 {
		publishChange(ctx, s.pub, s.log, uuid.Nil, "purged")
	}

	return &response.PurgeResponse{
		Success:      true,
		DeletedCount: count,
		Message:      fmt.Sprintf("Deleted %d bookings older than %d days", count, days),
	}, nil
}
