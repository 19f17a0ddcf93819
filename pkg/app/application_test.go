package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"detailbook/pkg/client"
	"detailbook/pkg/config"
	"detailbook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type routeHandler struct {
	method, path string
}

func (h routeHandler) RegisterRoutes(router *httprouter.Router) {
	router.Handle(h.method, h.path, func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})
}

func newTestApp(t *testing.T) *Application {
	t.Helper()
	cfg := &config.Config{
		Port:              "8080",
		RateLimitRequests: 1,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    1024,
		ShutdownTimeout:   time.Second,
		Log:               logger.New(logger.Config{Level: logger.ERROR, Format: logger.JSON, Output: io.Discard}),
		Client:            client.NewClient(),
	}

	a := NewApplication()
	a.SetApp(cfg,
		routeHandler{http.MethodPost, "/webhooks/payments"},
		"/webhooks/payments",
		"Stripe-Signature",
		routeHandler{http.MethodGet, "/api/v1/availability"},
	)
	t.Cleanup(func() {
		a.idempotencyStore.Stop()
		a.rateLimiter.Stop()
	})
	return a
}

func TestApplication_RateLimitsOnlyTheAPI(t *testing.T) {
	handler := newTestApp(t).Handler()

	call := func(req *http.Request) int {
		req.RemoteAddr = "198.51.100.7:4000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := call(httptest.NewRequest(http.MethodGet, "/api/v1/availability", nil)); code != http.StatusOK {
		t.Fatalf("first api call = %d", code)
	}
	if code := call(httptest.NewRequest(http.MethodGet, "/api/v1/availability", nil)); code != http.StatusTooManyRequests {
		t.Errorf("second api call = %d, want 429", code)
	}

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", strings.NewReader(`{}`))
		req.Header.Set("Stripe-Signature", "t=1,v1=abc")
		if code := call(req); code != http.StatusOK {
			t.Errorf("webhook call %d = %d, want 200", i, code)
		}
	}
}

func TestApplication_WebhookRequiresSignatureHeader(t *testing.T) {
	handler := newTestApp(t).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/payments", strings.NewReader(`{}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestApplication_HealthBypassesAPIChain(t *testing.T) {
	handler := newTestApp(t).Handler()

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("health call %d = %d", i, rec.Code)
		}
	}
}
