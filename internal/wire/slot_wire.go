package wire

import (
	"court-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// wireSlot mounts under /api/bookings/{id}/slots/{slot}
func wireSlot(r chi.Router, slotHandler *adaptor.SlotHandler) {
	r.Put("/", slotHandler.ClaimSlot)
	r.Delete("/", slotHandler.ReleaseSlot)
	// GET .../watch - event stream cancelling a pending claim
	r.Get("/watch", slotHandler.WatchSlot)
}
