package request

import "time"

type CreateBookingRequest struct {
	Location  string    `json:"location" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	CreatedBy string    `json:"created_by" validate:"required,max=100"`
	Cost      float64   `json:"cost" validate:"gte=0"`
	// Defaults to true, like the "add me to slot 1" checkbox
	AddToSlot1 *bool `json:"add_to_slot_1,omitempty"`
}

func (r CreateBookingRequest) ClaimsSlot1() bool {
	return r.AddToSlot1 == nil || *r.AddToSlot1
}

type UpdateBookingRequest struct {
	Location  *string    `json:"location,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Cost      *float64   `json:"cost,omitempty" validate:"omitempty,gte=0"`
	Actor     string     `json:"actor,omitempty" validate:"max=100"`
}

type DeleteBookingRequest struct {
	Reason  string `json:"reason,omitempty" validate:"max=200"`
	Details string `json:"details,omitempty" validate:"max=1000"`
	Actor   string `json:"actor,omitempty" validate:"max=100"`
}

type ListBookingsRequest struct {
	IncludePast    bool `json:"include_past"`
	IncludeDeleted bool `json:"include_deleted"`
}
