package response

import (
	"time"

	"court-booking/internal/data/entity"
)

type BookingResponse struct {
	ID          string          `json:"id"`
	Location    entity.Location `json:"location"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	Slot1       *string         `json:"slot_1"`
	Slot2       *string         `json:"slot_2"`
	Slot3       *string         `json:"slot_3"`
	Slot4       *string         `json:"slot_4"`
	FilledSlots int             `json:"filled_slots"`
	IsFull      bool            `json:"is_full"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	Cost        float64         `json:"cost"`
	IsDeleted   bool            `json:"is_deleted"`
	DeletedAt   *time.Time      `json:"deleted_at"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	filled := b.FilledSlots()
	return BookingResponse{
		ID:          b.ID.String(),
		Location:    b.Location,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		Slot1:       b.Slot1,
		Slot2:       b.Slot2,
		Slot3:       b.Slot3,
		Slot4:       b.Slot4,
		FilledSlots: filled,
		IsFull:      filled == entity.SlotCount,
		CreatedBy:   b.CreatedBy,
		CreatedAt:   b.CreatedAt,
		Cost:        b.Cost,
		IsDeleted:   b.IsDeleted(),
		DeletedAt:   b.DeletedAt,
	}
}

func BookingsToResponse(bookings []*entity.Booking) []BookingResponse {
	out := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = BookingToResponse(b)
	}
	return out
}

type PurgeResponse struct {
	Success      bool   `json:"success"`
	DeletedCount int64  `json:"deleted_count"`
	Message      string `json:"message,omitempty"`
	Error        string `json:"error,omitempty"`
}
