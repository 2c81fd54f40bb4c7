package usecase

import (
	"context"
	"strings"

	"court-booking/internal/data/entity"
	"court-booking/internal/data/repository"
	"court-booking/internal/dto/response"
	"court-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HistoryService interface {
	ListHistory(ctx context.Context, bookingID string) ([]response.HistoryResponse, error)
}

type historyService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewHistoryService(repo *repository.Repository, log *zap.Logger) HistoryService {
	return &historyService{
		repo: repo,
		log:  log.With(zap.String("service", "history")),
	}
}

// ListHistory returns every entry of a booking, newest first.
func (s *historyService) ListHistory(ctx context.Context, bookingID string) ([]response.HistoryResponse, error) {
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

	entries, err := s.repo.History.FindByBookingID(ctx, id)
	if err != nil {
		s.log.Error("Failed to list history", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, storeError("list history", err)
	}

	out := make([]response.HistoryResponse, len(entries))
	for i, e := range entries {
		out[i] = response.HistoryToResponse(e)
	}
	return out, nil
}

// historyRecorder builds one entry per recorded change. Callers invoke it
// inside the transaction of the mutation it describes, after that mutation
// succeeded.
type historyRecorder struct {
	clock Clock
}

func (h historyRecorder) record(ctx context.Context, repo repository.HistoryRepository, entry *entity.HistoryEntry) error {
	entry.ID = utils.GenerateUUID()
	entry.CreatedAt = h.clock().UTC()
	if err := repo.Create(ctx, entry); err != nil {
		return storeError("record history", err)
	}
	return nil
}

func (h historyRecorder) created(ctx context.Context, repo repository.HistoryRepository, booking *entity.Booking) error {
	return h.record(ctx, repo, &entity.HistoryEntry{
		BookingID: booking.ID,
		Action:    entity.HistoryActionCreated,
		ChangedBy: optional(booking.CreatedBy),
	})
}

func (h historyRecorder) slotFilled(ctx context.Context, repo repository.HistoryRepository, bookingID uuid.UUID, slot int, name string) error {
	return h.record(ctx, repo, &entity.HistoryEntry{
		BookingID:  bookingID,
		Action:     entity.HistoryActionSlotFilled,
		ChangedBy:  optional(name),
		SlotNumber: &slot,
		SlotValue:  optional(name),
	})
}

func (h historyRecorder) slotRemoved(ctx context.Context, repo repository.HistoryRepository, bookingID uuid.UUID, slot int, prior, actor string) error {
	if actor == "" {
		actor = prior
	}
	return h.record(ctx, repo, &entity.HistoryEntry{
		BookingID:  bookingID,
		Action:     entity.HistoryActionSlotRemoved,
		ChangedBy:  optional(actor),
		SlotNumber: &slot,
		SlotValue:  optional(prior),
	})
}

func (h historyRecorder) updated(ctx context.Context, repo repository.HistoryRepository, bookingID uuid.UUID, field, oldValue, newValue, actor string) error {
	return h.record(ctx, repo, &entity.HistoryEntry{
		BookingID: bookingID,
		Action:    entity.HistoryActionUpdated,
		ChangedBy: optional(actor),
		FieldName: &field,
		OldValue:  &oldValue,
		NewValue:  &newValue,
	})
}

func (h historyRecorder) deleted(ctx context.Context, repo repository.HistoryRepository, bookingID uuid.UUID, reason, details, actor string) error {
	return h.record(ctx, repo, &entity.HistoryEntry{
		BookingID:       bookingID,
		Action:          entity.HistoryActionDeleted,
		ChangedBy:       optional(actor),
		DeletionReason:  &reason,
		DeletionDetails: optional(details),
	})
}

// optional maps blank strings to NULL.
func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
