package response

import (
	"time"

	"court-booking/internal/data/entity"
)

type HistoryResponse struct {
	ID              string               `json:"id"`
	BookingID       string               `json:"booking_id"`
	Action          entity.HistoryAction `json:"action"`
	ChangedBy       *string              `json:"changed_by"`
	SlotNumber      *int                 `json:"slot_number,omitempty"`
	SlotValue       *string              `json:"slot_value,omitempty"`
	FieldName       *string              `json:"field_name,omitempty"`
	OldValue        *string              `json:"old_value,omitempty"`
	NewValue        *string              `json:"new_value,omitempty"`
	DeletionReason  *string              `json:"deletion_reason,omitempty"`
	DeletionDetails *string              `json:"deletion_details,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

func HistoryToResponse(e *entity.HistoryEntry) HistoryResponse {
	return HistoryResponse{
		ID:              e.ID.String(),
		BookingID:       e.BookingID.String(),
		Action:          e.Action,
		ChangedBy:       e.ChangedBy,
		SlotNumber:      e.SlotNumber,
		SlotValue:       e.SlotValue,
		FieldName:       e.FieldName,
		OldValue:        e.OldValue,
		NewValue:        e.NewValue,
		DeletionReason:  e.DeletionReason,
		DeletionDetails: e.DeletionDetails,
		CreatedAt:       e.CreatedAt,
	}
}
