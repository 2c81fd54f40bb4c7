package wire

import (
	"court-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireFeed(r chi.Router, feedHandler *adaptor.FeedHandler) {
	r.Get("/api/feed", feedHandler.Stream)
}

func wireMaintenance(r chi.Router, maintenanceHandler *adaptor.MaintenanceHandler) {
	// POST /api/maintenance/purge - called by an external scheduler
	r.Post("/api/maintenance/purge", maintenanceHandler.Purge)
}
