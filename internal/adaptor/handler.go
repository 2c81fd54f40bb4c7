package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"court-booking/internal/usecase"
	"court-booking/pkg/notify"
	"court-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Booking     *BookingHandler
	Slot        *SlotHandler
	History     *HistoryHandler
	Maintenance *MaintenanceHandler
	Feed        *FeedHandler
}

func NewHandler(service *usecase.Service, feed notify.Feed, log *zap.Logger) *Handler {
	return &Handler{
		Booking:     NewBookingHandler(service.Booking, service.Deletion, log),
		Slot:        NewSlotHandler(service.Slot, log),
		History:     NewHistoryHandler(service.History, log),
		Maintenance: NewMaintenanceHandler(service.Deletion, log),
		Feed:        NewFeedHandler(feed, log),
	}
}

const slotTakenMessage = "Slot already taken, please pick another slot"

// handleServiceError maps usecase errors to responses
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var (
		validationErr *usecase.ValidationError
		takenErr      *usecase.SlotTakenError
	)

	switch {
	case errors.As(err, &validationErr):
		log.Warn(operation+" validation failed",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, "Validation failed", validationErr.Fields)

	case errors.As(err, &takenErr):
		log.Info(operation+" failed - slot already taken",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, slotTakenMessage, takenErr.Current)

	case errors.Is(err, usecase.ErrSlotAlreadyTaken):
		utils.ResponseConflict(w, slotTakenMessage, nil)

	case errors.Is(err, usecase.ErrBookingNotFound):
		log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, "Booking not found")

	case errors.Is(err, usecase.ErrBookingDeleted):
		log.Warn(operation+" failed - booking deleted",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, "Booking has been deleted", nil)

	case errors.Is(err, usecase.ErrStoreUnavailable):
		log.Error("Failed to "+operation+" - store unavailable",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseServiceUnavailable(w, "Service temporarily unavailable, please try again")

	default:
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// decodeBody decodes a JSON body. An empty body leaves dst untouched when
// optional is set.
func decodeBody(r *http.Request, dst any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
