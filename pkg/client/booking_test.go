package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"detailbook/pkg/model"
)

func TestBookingClient_ReserveSendsIdempotencyKey(t *testing.T) {
	var gotKey, gotContentType string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/bookings" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotKey = r.Header.Get(IdempotencyHeader)
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"booking":{"id":"b1","status":"pending_deposit","deposit_required":35.00},"deposit_required":35.00}}`))
	}))
	defer server.Close()

	c := NewBookingClient(server.URL)
	resp, err := c.Reserve(context.Background(), map[string]any{"variant_id": 11}, "key-1")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if gotKey != "key-1" || gotContentType != "application/json" {
		t.Errorf("headers: key=%q content-type=%q", gotKey, gotContentType)
	}
	if gotBody["variant_id"] != float64(11) {
		t.Errorf("body = %v", gotBody)
	}

	result, err := c.DecodeReservation(resp)
	if err != nil {
		t.Fatalf("DecodeReservation: %v", err)
	}
	if result.Booking.ID != "b1" || result.Booking.Status != model.StatusPendingDeposit {
		t.Errorf("booking = %+v", result.Booking.Booking)
	}
	if result.DepositRequired.String() != "35.00" {
		t.Errorf("deposit = %s", result.DepositRequired)
	}
}

func TestBookingClient_QueryEncoding(t *testing.T) {
	var gotURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.RequestURI()
		_, _ = w.Write([]byte(`{"data":[{"id":"b1"}],"total_count":7,"limit":5,"offset":5}`))
	}))
	defer server.Close()

	c := NewBookingClient(server.URL)
	variant := int64(12)
	if _, err := c.Availability(context.Background(), "2026-03-02", &variant); err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if gotURL != "/api/v1/availability?date=2026-03-02&variant_id=12" {
		t.Errorf("availability url = %s", gotURL)
	}

	resp, err := c.ListByDate(context.Background(), "2026-03-02", 5, 5)
	if err != nil {
		t.Fatalf("ListByDate: %v", err)
	}
	bookings, meta, err := c.DecodeBookings(resp)
	if err != nil {
		t.Fatalf("DecodeBookings: %v", err)
	}
	if len(bookings) != 1 || meta.TotalCount != 7 || meta.Offset != 5 {
		t.Errorf("bookings=%d meta=%+v", len(bookings), meta)
	}
}

func TestGetErrorMessage(t *testing.T) {
	resp := &Response{
		Response: &http.Response{StatusCode: http.StatusConflict},
		Body:     []byte(`{"code":"CONFLICT","message":"The requested time slot is no longer available"}`),
	}
	if got := GetErrorCode(resp); got != "CONFLICT" {
		t.Errorf("code = %q", got)
	}
	if got := GetErrorMessage(resp); got != "The requested time slot is no longer available" {
		t.Errorf("message = %q", got)
	}
}
