package entity

import (
	"time"
)

// SlotCount is the fixed number of participation slots per booking.
const SlotCount = 4

type Location string

const (
	LocationPadelboxWeiden   Location = "Padelbox Weiden"
	LocationPadelboxLovenich Location = "Padelbox Lövenich"
	LocationUniKoln          Location = "Uni Köln"
)

var Locations = []Location{
	LocationPadelboxWeiden,
	LocationPadelboxLovenich,
	LocationUniKoln,
}

func (l Location) Valid() bool {
	for _, known := range Locations {
		if l == known {
			return true
		}
	}
	return false
}

type Booking struct {
	BaseSoftDelete
	Location  Location  `db:"location"`
	StartTime time.Time `db:"start_time"`
	EndTime   time.Time `db:"end_time"`
	Slot1     *string   `db:"slot_1"`
	Slot2     *string   `db:"slot_2"`
	Slot3     *string   `db:"slot_3"`
	Slot4     *string   `db:"slot_4"`
	CreatedBy string    `db:"created_by"`
	Cost      float64   `db:"cost"`
}

// ValidSlot reports whether n addresses one of the booking's slots.
func ValidSlot(n int) bool {
	return n >= 1 && n <= SlotCount
}

// Slot returns the occupant of slot n (1-based), nil when empty or out of range.
func (b *Booking) Slot(n int) *string {
	switch n {
	case 1:
		return b.Slot1
	case 2:
		return b.Slot2
	case 3:
		return b.Slot3
	case 4:
		return b.Slot4
	}
	return nil
}

func (b *Booking) Slots() [SlotCount]*string {
	return [SlotCount]*string{b.Slot1, b.Slot2, b.Slot3, b.Slot4}
}

func (b *Booking) FilledSlots() int {
	filled := 0
	for _, s := range b.Slots() {
		if s != nil {
			filled++
		}
	}
	return filled
}

func (b *Booking) IsDeleted() bool {
	return b.DeletedAt != nil
}

// BookingFilter drives the read path. The zero value is the default view:
// active bookings that have not ended yet.
type BookingFilter struct {
	IncludePast    bool
	IncludeDeleted bool
	Now            time.Time
}

// BookingChanges holds the columns an edit touches; nil means unchanged.
type BookingChanges struct {
	Location  *Location
	StartTime *time.Time
	EndTime   *time.Time
	Cost      *float64
}

func (c BookingChanges) Empty() bool {
	return c.Location == nil && c.StartTime == nil && c.EndTime == nil && c.Cost == nil
}
