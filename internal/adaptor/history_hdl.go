package adaptor

import (
	"net/http"

	"court-booking/internal/usecase"
	"court-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type HistoryHandler struct {
	service usecase.HistoryService
	log     *zap.Logger
}

func NewHistoryHandler(service usecase.HistoryService, log *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		log:     log.With(zap.String("handler", "history")),
	}
}

// ListHistory handles GET /api/bookings/{id}/history
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "list history")
		return
	}

	utils.ResponseSuccess(w, "success", entries)
}
