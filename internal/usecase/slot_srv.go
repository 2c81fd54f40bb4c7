package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"court-booking/internal/data/entity"
	"court-booking/internal/data/repository"
	"court-booking/internal/dto/request"
	"court-booking/internal/dto/response"

	"go.uber.org/zap"
)

type SlotService interface {
	ClaimSlot(ctx context.Context, bookingID string, slot int, req *request.ClaimSlotRequest) (*response.BookingResponse, error)
	ReleaseSlot(ctx context.Context, bookingID string, slot int, actor string) (*response.BookingResponse, error)
	OpenClaim(ctx context.Context, bookingID string, slot int) (*PendingClaim, error)
}

// SlotTakenError reports a lost claim together with the state the caller
// should refresh to.
type SlotTakenError struct {
	Slot    int
	Holder  string
	Current *response.BookingResponse
}

func (e *SlotTakenError) Error() string {
	if e.Holder == "" {
		return fmt.Sprintf("slot %d already taken", e.Slot)
	}
	return fmt.Sprintf("slot %d already taken by %s", e.Slot, e.Holder)
}

func (e *SlotTakenError) Is(target error) bool {
	return target == ErrSlotAlreadyTaken
}

func newSlotTakenError(booking *entity.Booking, slot int) *SlotTakenError {
	e := &SlotTakenError{Slot: slot}
	if booking == nil {
		return e
	}
	if holder := booking.Slot(slot); holder != nil {
		e.Holder = *holder
	}
	current := response.BookingToResponse(booking)
	e.Current = &current
	return e
}

type slotService struct {
	repo    *repository.Repository
	feed    Notifier
	history historyRecorder
	log     *zap.Logger
}

func NewSlotService(repo *repository.Repository, notifier Notifier, log *zap.Logger, clock Clock) SlotService {
	return &slotService{
		repo:    repo,
		feed:    notifier,
		history: historyRecorder{clock: clock},
		log:     log.With(zap.String("service", "slot")),
	}
}

func validateSlot(slot int) error {
	if !entity.ValidSlot(slot) {
		return newValidationError("slot", fmt.Sprintf("Must be between 1 and %d", entity.SlotCount))
	}
	return nil
}

// classify explains why a conditional write matched no row.
func classify(booking *entity.Booking, slot int) error {
	switch {
	case booking == nil:
		return ErrBookingNotFound
	case booking.IsDeleted():
		return ErrBookingDeleted
	default:
		return newSlotTakenError(booking, slot)
	}
}

// ClaimSlot writes name into the slot only if the slot is still empty when
// the write lands. Losing a race is reported as ErrSlotAlreadyTaken.
func (s *slotService) ClaimSlot(ctx context.Context, bookingID string, slot int, req *request.ClaimSlotRequest) (*response.BookingResponse, error) {
	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}
	if err := validateSlot(slot); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if verr := validationFromStruct(req); verr != nil {
		return nil, verr
	}

	var claimed *entity.Booking
	err = inTx(ctx, s.repo, func(tx *repository.Repository) error {
		ok, err := tx.Booking.ClaimSlot(ctx, id, slot, req.Name)
		if err != nil {
			return storeError("claim slot", err)
		}

		if !ok {
			current, err := tx.Booking.FindByID(ctx, id)
			if err != nil {
				return storeError("find booking", err)
			}
			return classify(current, slot)
		}

		if err := s.history.slotFilled(ctx, tx.History, id, slot, req.Name); err != nil {
			return err
		}

		claimed, err = tx.Booking.FindByID(ctx, id)
		if err != nil {
			return storeError("find booking", err)
		}
		if claimed == nil {
			return ErrBookingNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSlotAlreadyTaken) {
			s.log.Info("Slot claim lost",
				zap.String("booking_id", bookingID),
				zap.Int("slot", slot),
				zap.String("name", req.Name),
			)
			// Views that showed the slot as free are stale
			publishChange(ctx, s.feed, s.log, id, "claim_conflict")
		}
		return nil, err
	}

	s.log.Info("Slot claimed",
		zap.String("booking_id", bookingID),
		zap.Int("slot", slot),
		zap.String("name", req.Name),
	)
	publishChange(ctx, s.feed, s.log, id, string(entity.HistoryActionSlotFilled))

	resp := response.BookingToResponse(claimed)
	return &resp, nil
}

// ReleaseSlot empties the slot whatever it holds. Releasing an empty slot
// changes nothing and records nothing.
func (s *slotService) ReleaseSlot(ctx context.Context, bookingID string, slot int, actor string) (*response.BookingResponse, error) {
	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}
	if err := validateSlot(slot); err != nil {
		return nil, err
	}

	actor = strings.TrimSpace(actor)
	var (
		released *entity.Booking
		prior    *string
	)

	err = inTx(ctx, s.repo, func(tx *repository.Repository) error {
		prior, err = tx.Booking.ReleaseSlot(ctx, id, slot)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBookingNotFound
		}
		if err != nil {
			return storeError("release slot", err)
		}

		if prior != nil {
			if err := s.history.slotRemoved(ctx, tx.History, id, slot, *prior, actor); err != nil {
				return err
			}
		}

		released, err = tx.Booking.FindByID(ctx, id)
		if err != nil {
			return storeError("find booking", err)
		}
		if released == nil {
			return ErrBookingNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if prior != nil {
		s.log.Info("Slot released",
			zap.String("booking_id", bookingID),
			zap.Int("slot", slot),
			zap.String("prior", *prior),
			zap.String("actor", actor),
		)
		publishChange(ctx, s.feed, s.log, id, string(entity.HistoryActionSlotRemoved))
	}

	resp := response.BookingToResponse(released)
	return &resp, nil
}

// OpenClaim starts watching an empty slot on behalf of someone filling in a
// name. The claim is cancelled as soon as the change feed shows the slot
// taken by someone else or the booking gone.
func (s *slotService) OpenClaim(ctx context.Context, bookingID string, slot int) (*PendingClaim, error) {
	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}
	if err := validateSlot(slot); err != nil {
		return nil, err
	}

	// Subscribe first so nothing written after the read below is missed.
	changes, unsubscribe := s.feed.Subscribe()

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		unsubscribe()
		return nil, storeError("find booking", err)
	}
	if booking == nil || booking.IsDeleted() || booking.Slot(slot) != nil {
		unsubscribe()
		return nil, classify(booking, slot)
	}

	claimCtx, cancel := context.WithCancelCause(ctx)
	claim := &PendingClaim{
		ctx:         claimCtx,
		cancel:      cancel,
		unsubscribe: unsubscribe,
		svc:         s,
		bookingID:   id,
		slot:        slot,
		log:         s.log.With(zap.String("booking_id", bookingID), zap.Int("slot", slot)),
	}
	go claim.watch(changes)

	return claim, nil
}
