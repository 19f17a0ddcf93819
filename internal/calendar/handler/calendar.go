package handler

import (
	"net/http"

	"detailbook/internal/calendar/service"
	httputil "detailbook/pkg/http"
	"detailbook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type CalendarHandler struct {
	policy service.Policy
	log    *logger.Logger
}

func NewCalendarHandler(policy service.Policy, log *logger.Logger) *CalendarHandler {
	return &CalendarHandler{
		policy: policy,
		log:    log,
	}
}

func (h *CalendarHandler) GetDay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	status, err := h.policy.IsOpen(r.Context(), ps.ByName("date"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetDay", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, status); err != nil {
		h.log.Error("failed to write success response", "handler", "GetDay", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CalendarHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/calendar/:date", h.GetDay)
}
