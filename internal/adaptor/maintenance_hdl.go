package adaptor

import (
	"net/http"

	"court-booking/internal/dto/response"
	"court-booking/internal/usecase"
	"court-booking/pkg/utils"

	"go.uber.org/zap"
)

type MaintenanceHandler struct {
	deletion usecase.DeletionService
	log      *zap.Logger
}

func NewMaintenanceHandler(deletion usecase.DeletionService, log *zap.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		deletion: deletion,
		log:      log.With(zap.String("handler", "maintenance")),
	}
}

// Purge handles POST /api/maintenance/purge. The scheduler calling it reads
// the plain {success, deleted_count, message} body and owns retries.
func (h *MaintenanceHandler) Purge(w http.ResponseWriter, r *http.Request) {
	result, err := h.deletion.PurgeExpired(r.Context())
	if err != nil {
		h.log.Error("Purge failed", zap.Error(err))
		if result == nil {
			result = &response.PurgeResponse{Error: err.Error()}
		}
		utils.WriteJSON(w, http.StatusInternalServerError, result)
		return
	}

	utils.WriteJSON(w, http.StatusOK, result)
}
