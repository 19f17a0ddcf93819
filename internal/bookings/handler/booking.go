package handler

import (
	"net/http"

	"detailbook/internal/bookings/service"
	httputil "detailbook/pkg/http"
	"detailbook/pkg/logger"
	"detailbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Reserve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ReservationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Reserve", err)
		return
	}

	result, err := h.service.Reserve(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Reserve", err)
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "Reserve", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ListByDate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	date, err := httputil.RequiredQuery(r, "date")
	if err != nil {
		h.writeError(w, "ListByDate", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListByDate", err)
		return
	}

	bookings, total, err := h.service.ListByDate(r.Context(), date, limit, offset)
	if err != nil {
		h.writeError(w, "ListByDate", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListByDate", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) ChangeStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.StatusChangeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "ChangeStatus", err)
		return
	}

	booking, err := h.service.ChangeStatus(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "ChangeStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "ChangeStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Reserve)
	router.GET("/api/v1/bookings", h.ListByDate)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.POST("/api/v1/bookings/id/:id/status", h.ChangeStatus)
}
