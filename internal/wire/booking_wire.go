package wire

import (
	"court-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler, historyHandler *adaptor.HistoryHandler, slotHandler *adaptor.SlotHandler) {
	r.Route("/api/bookings", func(r chi.Router) {
		// GET /api/bookings?include_past=&include_deleted= - working set, by start time
		r.Get("/", bookingHandler.ListBookings)
		r.Post("/", bookingHandler.CreateBooking)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", bookingHandler.GetBooking)
			r.Patch("/", bookingHandler.UpdateBooking)
			// DELETE is a soft delete, the row stays until purged
			r.Delete("/", bookingHandler.DeleteBooking)
			r.Get("/history", historyHandler.ListHistory)
			r.Route("/slots/{slot}", func(r chi.Router) {
				wireSlot(r, slotHandler)
			})
		})
	})
}
