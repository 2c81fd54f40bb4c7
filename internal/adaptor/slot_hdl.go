package adaptor

import (
	"errors"
	"net/http"
	"time"

	"court-booking/internal/dto/request"
	"court-booking/internal/dto/response"
	"court-booking/internal/usecase"
	"court-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SlotHandler struct {
	service usecase.SlotService
	log     *zap.Logger
}

func NewSlotHandler(service usecase.SlotService, log *zap.Logger) *SlotHandler {
	return &SlotHandler{
		service: service,
		log:     log.With(zap.String("handler", "slot")),
	}
}

func slotParam(r *http.Request) int {
	return utils.ParseInt(chi.URLParam(r, "slot"), 0)
}

// ClaimSlot handles PUT /api/bookings/{id}/slots/{slot}, body {name}
func (h *SlotHandler) ClaimSlot(w http.ResponseWriter, r *http.Request) {
	var req request.ClaimSlotRequest
	if err := decodeBody(r, &req, false); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.ClaimSlot(r.Context(), chi.URLParam(r, "id"), slotParam(r), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "claim slot")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// ReleaseSlot handles DELETE /api/bookings/{id}/slots/{slot}?actor=
func (h *SlotHandler) ReleaseSlot(w http.ResponseWriter, r *http.Request) {
	actor := r.URL.Query().Get("actor")

	booking, err := h.service.ReleaseSlot(r.Context(), chi.URLParam(r, "id"), slotParam(r), actor)
	if err != nil {
		handleServiceError(w, h.log, err, "release slot")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

type claimEvent struct {
	BookingID string                    `json:"booking_id"`
	Slot      int                       `json:"slot"`
	Reason    string                    `json:"reason,omitempty"`
	Message   string                    `json:"message,omitempty"`
	Booking   *response.BookingResponse `json:"booking,omitempty"`
}

// WatchSlot handles GET /api/bookings/{id}/slots/{slot}/watch. It streams
// "open" while a name form is shown and "cancelled" once the slot can no
// longer be claimed, so the form can be closed before submitting.
func (h *SlotHandler) WatchSlot(w http.ResponseWriter, r *http.Request) {
	claim, err := h.service.OpenClaim(r.Context(), chi.URLParam(r, "id"), slotParam(r))
	if err != nil {
		handleServiceError(w, h.log, err, "watch slot")
		return
	}
	defer claim.Close()

	stream, err := startSSE(w)
	if err != nil {
		h.log.Error("Failed to start event stream", zap.Error(err))
		return
	}

	base := claimEvent{BookingID: claim.BookingID(), Slot: claim.Slot()}
	if err := stream.event("open", base); err != nil {
		return
	}

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := stream.ping(); err != nil {
				return
			}
		case <-claim.Done():
			if r.Context().Err() != nil {
				return
			}
			_ = stream.event("cancelled", cancelledEvent(base, claim.Err()))
			return
		}
	}
}

func cancelledEvent(base claimEvent, cause error) claimEvent {
	var taken *usecase.SlotTakenError

	switch {
	case errors.As(cause, &taken):
		base.Reason = "slot_taken"
		base.Message = slotTakenMessage
		base.Booking = taken.Current
	case errors.Is(cause, usecase.ErrBookingDeleted):
		base.Reason = "booking_deleted"
		base.Message = "Booking has been deleted"
	case errors.Is(cause, usecase.ErrBookingNotFound):
		base.Reason = "booking_not_found"
		base.Message = "Booking not found"
	default:
		base.Reason = "closed"
	}
	return base
}
