package handler

import (
	"io"
	"net/http"

	"detailbook/internal/payments/gateway"
	"detailbook/internal/payments/service"
	httputil "detailbook/pkg/http"
	"detailbook/pkg/logger"
	"detailbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	WebhookPath       = "/webhooks/payments"
)

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.PaymentIntentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(h.log, w, "CreateIntent", err)
		return
	}

	result, err := h.service.CreateIntent(r.Context(), ps.ByName("id"), &req, r.Header.Get(IdempotencyHeader))
	if err != nil {
		writeError(h.log, w, "CreateIntent", err)
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateIntent", "operation", "WriteCreated", "error", err)
	}
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings/id/:id/payments", h.CreateIntent)
}

// WebhookHandler receives gateway events. It is mounted outside the public
// middleware chain so rate limits never cause the gateway to back off.
type WebhookHandler struct {
	reconciler service.Reconciler
	log        *logger.Logger
}

func NewWebhookHandler(reconciler service.Reconciler, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		log:        log,
	}
}

type webhookAck struct {
	Received bool `json:"received"`
}

// Receive answers 2xx whenever the event is settled, including duplicates
// and unknown intents, so the gateway stops redelivering. Store failures
// answer 503 to ask for redelivery.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(h.log, w, "Receive", err)
		return
	}

	if _, err := h.reconciler.HandleEvent(r.Context(), payload, r.Header.Get(gateway.SignatureHeader)); err != nil {
		writeError(h.log, w, "Receive", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, webhookAck{Received: true}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Receive", "operation", "WriteJSON", "error", err)
	}
}

func (h *WebhookHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(WebhookPath, h.Receive)
}

func writeError(log *logger.Logger, w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
