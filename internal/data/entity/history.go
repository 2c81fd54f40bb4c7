package entity

import (
	"github.com/google/uuid"
)

type HistoryAction string

const (
	HistoryActionCreated     HistoryAction = "created"
	HistoryActionSlotFilled  HistoryAction = "slot_filled"
	HistoryActionSlotRemoved HistoryAction = "slot_removed"
	HistoryActionUpdated     HistoryAction = "updated"
	HistoryActionDeleted     HistoryAction = "deleted"
)

// HistoryEntry is an append-only audit record; rows are never updated.
type HistoryEntry struct {
	BaseSimple
	BookingID       uuid.UUID     `db:"booking_id"`
	Action          HistoryAction `db:"action"`
	ChangedBy       *string       `db:"changed_by"`
	SlotNumber      *int          `db:"slot_number"`
	SlotValue       *string       `db:"slot_value"`
	FieldName       *string       `db:"field_name"`
	OldValue        *string       `db:"old_value"`
	NewValue        *string       `db:"new_value"`
	DeletionReason  *string       `db:"deletion_reason"`
	DeletionDetails *string       `db:"deletion_details"`
}
