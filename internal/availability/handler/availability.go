package handler

import (
	"net/http"

	"detailbook/internal/availability/service"
	httputil "detailbook/pkg/http"
	"detailbook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type AvailabilityHandler struct {
	slots service.SlotCalculator
	log   *logger.Logger
}

func NewAvailabilityHandler(slots service.SlotCalculator, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		slots: slots,
		log:   log,
	}
}

func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	date, err := httputil.RequiredQuery(r, "date")
	if err != nil {
		h.writeError(w, err)
		return
	}

	variantID, err := httputil.OptionalInt64Query(r, "variant_id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	availability, err := h.slots.Compute(r.Context(), date, variantID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, availability); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/availability", h.Get)
}
