package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"detailbook/pkg/logger"
	"detailbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockSlotCalculator struct {
	computeFunc func(ctx context.Context, date string, variantID *int64) (*model.Availability, error)
}

func (m *mockSlotCalculator) Compute(ctx context.Context, date string, variantID *int64) (*model.Availability, error) {
	return m.computeFunc(ctx, date, variantID)
}

func newTestRouter(calc *mockSlotCalculator) *httprouter.Router {
	log := logger.New(logger.Config{
		Level:   logger.ERROR,
		Format:  logger.JSON,
		Output:  io.Discard,
		Service: "test",
	})
	router := httprouter.New()
	NewAvailabilityHandler(calc, log).RegisterRoutes(router)
	return router
}

func TestGet_ReturnsSlots(t *testing.T) {
	var gotVariant *int64
	calc := &mockSlotCalculator{
		computeFunc: func(_ context.Context, date string, variantID *int64) (*model.Availability, error) {
			gotVariant = variantID
			return &model.Availability{
				Date:        date,
				Available:   true,
				DurationMin: 60,
				Slots:       []model.Slot{model.NewSlot(540), model.NewSlot(660)},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(calc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/availability?date=2026-03-02&variant_id=11", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if gotVariant == nil || *gotVariant != 11 {
		t.Errorf("variant passed to calculator = %v", gotVariant)
	}

	var body struct {
		Data struct {
			Available bool         `json:"available"`
			Reason    string       `json:"reason"`
			Slots     []model.Slot `json:"slots"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Data.Available || len(body.Data.Slots) != 2 {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if body.Data.Slots[1].Time != "11:00" || body.Data.Slots[1].Formatted != "11:00 AM" {
		t.Errorf("slot = %+v", body.Data.Slots[1])
	}
}

func TestGet_ClosedDayHasEmptyArray(t *testing.T) {
	calc := &mockSlotCalculator{
		computeFunc: func(_ context.Context, date string, _ *int64) (*model.Availability, error) {
			return &model.Availability{Date: date, Reason: model.ReasonClosed, Slots: []model.Slot{}}, nil
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(calc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/availability?date=2026-03-01", nil))

	var body map[string]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	slots, ok := body["data"]["slots"].([]any)
	if !ok || len(slots) != 0 {
		t.Errorf("slots should be an empty array, got %v", body["data"]["slots"])
	}
	if body["data"]["reason"] != "closed" {
		t.Errorf("reason = %v", body["data"]["reason"])
	}
}

func TestGet_InvalidQuery(t *testing.T) {
	calc := &mockSlotCalculator{
		computeFunc: func(context.Context, string, *int64) (*model.Availability, error) {
			t.Fatal("calculator must not be called for invalid input")
			return nil, nil
		},
	}

	for _, target := range []string{
		"/api/v1/availability",
		"/api/v1/availability?date=2026-03-02&variant_id=abc",
	} {
		rec := httptest.NewRecorder()
		newTestRouter(calc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: status = %d, want 422", target, rec.Code)
		}
	}
}
