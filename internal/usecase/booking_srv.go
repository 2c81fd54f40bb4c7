package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"court-booking/internal/data/entity"
	"court-booking/internal/data/repository"
	"court-booking/internal/dto/request"
	"court-booking/internal/dto/response"
	"court-booking/pkg/notify"
	"court-booking/pkg/utils"

	"go.uber.org/zap"
)

type BookingService interface {
	CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	ListBookings(ctx context.Context, req *request.ListBookingsRequest) ([]response.BookingResponse, error)
	UpdateBooking(ctx context.Context, bookingID string, req *request.UpdateBookingRequest) (*response.BookingResponse, error)
}

type bookingService struct {
	repo    *repository.Repository
	pub     notify.Publisher
	history historyRecorder
	clock   Clock
	log     *zap.Logger
}

func NewBookingService(repo *repository.Repository, pub notify.Publisher, log *zap.Logger, clock Clock) BookingService {
	return &bookingService{
		repo:    repo,
		pub:     pub,
		history: historyRecorder{clock: clock},
		clock:   clock,
		log:     log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	req.CreatedBy = strings.TrimSpace(req.CreatedBy)
	req.Location = strings.TrimSpace(req.Location)

	if verr := validationFromStruct(req); verr != nil {
		s.log.Warn("Create booking validation failed", zap.Any("errors", verr.Fields))
		return nil, verr
	}

	location := entity.Location(req.Location)
	if !location.Valid() {
		return nil, newValidationError("location", "Unknown location")
	}

	now := s.clock()
	if !req.EndTime.After(now) {
		return nil, newValidationError("end_time", "Must be in the future")
	}

	booking := &entity.Booking{
		BaseSoftDelete: entity.BaseSoftDelete{
			ID:        utils.GenerateUUID(),
			CreatedAt: now.UTC(),
		},
		Location:  location,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		CreatedBy: req.CreatedBy,
		Cost:      roundCost(req.Cost),
	}
	if req.ClaimsSlot1() {
		creator := req.CreatedBy
		booking.Slot1 = &creator
	}

	err := inTx(ctx, s.repo, func(tx *repository.Repository) error {
		if err := tx.Booking.Create(ctx, booking); err != nil {
			return storeError("create booking", err)
		}
		return s.history.created(ctx, tx.History, booking)
	})
	if err != nil {
		s.log.Error("Failed to create booking", zap.Error(err), zap.String("created_by", booking.CreatedBy))
		return nil, err
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("location", string(booking.Location)),
		zap.String("created_by", booking.CreatedBy),
		zap.Bool("slot_1_claimed", booking.Slot1 != nil),
	)

	publishChange(ctx, s.pub, s.log, booking.ID, string(entity.HistoryActionCreated))

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("find booking", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// ListBookings returns the working set ordered by start time. By default only
// active bookings that have not ended are included.
func (s *bookingService) ListBookings(ctx context.Context, req *request.ListBookingsRequest) ([]response.BookingResponse, error) {
	filter := entity.BookingFilter{
		IncludePast:    req.IncludePast,
		IncludeDeleted: req.IncludeDeleted,
		Now:            s.clock().UTC(),
	}

	bookings, err := s.repo.Booking.FindAll(ctx, filter)
	if err != nil {
		s.log.Error("Failed to list bookings", zap.Error(err))
		return nil, storeError("list bookings", err)
	}

	return response.BookingsToResponse(bookings), nil
}

type fieldChange struct {
	field, oldValue, newValue string
}

// UpdateBooking writes only the fields that actually change and records one
// history entry per changed field.
func (s *bookingService) UpdateBooking(ctx context.Context, bookingID string, req *request.UpdateBookingRequest) (*response.BookingResponse, error) {
	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}

	if verr := validationFromStruct(req); verr != nil {
		s.log.Warn("Update booking validation failed", zap.Any("errors", verr.Fields))
		return nil, verr
	}

	if req.Location != nil && !entity.Location(strings.TrimSpace(*req.Location)).Valid() {
		return nil, newValidationError("location", "Unknown location")
	}

	actor := strings.TrimSpace(req.Actor)
	var updated *entity.Booking
	var recorded []fieldChange

	err = inTx(ctx, s.repo, func(tx *repository.Repository) error {
		booking, err := tx.Booking.FindByIDForUpdate(ctx, id)
		if err != nil {
			return storeError("find booking", err)
		}
		if booking == nil {
			return ErrBookingNotFound
		}
		if booking.IsDeleted() {
			return ErrBookingDeleted
		}

		changes, diff, verr := s.diff(booking, req)
		if verr != nil {
			return verr
		}
		if changes.Empty() {
			updated = booking
			return nil
		}

		if err := tx.Booking.Update(ctx, id, changes); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrBookingNotFound
			}
			return storeError("update booking", err)
		}

		for _, c := range diff {
			if err := s.history.updated(ctx, tx.History, id, c.field, c.oldValue, c.newValue, actor); err != nil {
				return err
			}
		}

		updated = booking
		recorded = diff
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(recorded) > 0 {
		fields := make([]string, len(recorded))
		for i, c := range recorded {
			fields[i] = c.field
		}
		s.log.Info("Booking updated",
			zap.String("booking_id", bookingID),
			zap.Strings("fields", fields),
			zap.String("actor", actor),
		)
		publishChange(ctx, s.pub, s.log, id, string(entity.HistoryActionUpdated))
	}

	resp := response.BookingToResponse(updated)
	return &resp, nil
}

// diff applies req to booking in memory and reports the column changes and
// their history form. The merged booking is revalidated.
func (s *bookingService) diff(booking *entity.Booking, req *request.UpdateBookingRequest) (entity.BookingChanges, []fieldChange, *ValidationError) {
	var (
		changes entity.BookingChanges
		diff    []fieldChange
	)

	if req.Location != nil {
		location := entity.Location(strings.TrimSpace(*req.Location))
		if location != booking.Location {
			diff = append(diff, fieldChange{"location", string(booking.Location), string(location)})
			changes.Location = &location
			booking.Location = location
		}
	}

	timesChanged := false
	if req.StartTime != nil {
		start := req.StartTime.UTC()
		if !start.Equal(booking.StartTime) {
			diff = append(diff, fieldChange{"start_time", formatTime(booking.StartTime), formatTime(start)})
			changes.StartTime = &start
			booking.StartTime = start
			timesChanged = true
		}
	}
	if req.EndTime != nil {
		end := req.EndTime.UTC()
		if !end.Equal(booking.EndTime) {
			diff = append(diff, fieldChange{"end_time", formatTime(booking.EndTime), formatTime(end)})
			changes.EndTime = &end
			booking.EndTime = end
			timesChanged = true
		}
	}

	if !booking.StartTime.Before(booking.EndTime) {
		return changes, nil, newValidationError("end_time", "Must be after start_time")
	}
	if timesChanged && !booking.EndTime.After(s.clock()) {
		return changes, nil, newValidationError("end_time", "Must be in the future")
	}

	if req.Cost != nil {
		cost := roundCost(*req.Cost)
		if cost != booking.Cost {
			diff = append(diff, fieldChange{"cost", utils.FormatAmount(booking.Cost), utils.FormatAmount(cost)})
			changes.Cost = &cost
			booking.Cost = cost
		}
	}

	return changes, diff, nil
}

// roundCost matches the two decimal places the store keeps.
func roundCost(cost float64) float64 {
	return math.Round(cost*100) / 100
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
