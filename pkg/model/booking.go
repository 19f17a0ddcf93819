package model

import (
	"encoding/json"
	"time"

	"detailbook/pkg/money"
)

type Vehicle struct {
	Year  int    `json:"year" bson:"year"`
	Make  string `json:"make" bson:"make"`
	Model string `json:"model" bson:"model"`
}

// Booking holds a reserved window on one calendar date. Duration and total
// are captured at creation and never re-resolved from the catalog.
type Booking struct {
	ID              string        `json:"id,omitempty" bson:"_id,omitempty"`
	CustomerID      string        `json:"customer_id" bson:"customer_id"`
	ServiceID       int64         `json:"service_id" bson:"service_id"`
	VariantID       int64         `json:"variant_id" bson:"variant_id"`
	Vehicle         Vehicle       `json:"vehicle" bson:"vehicle"`
	AppointmentDate string        `json:"appointment_date" bson:"appointment_date"`
	AppointmentTime string        `json:"appointment_time" bson:"appointment_time"`
	StartMinute     int           `json:"start_minute" bson:"start_minute"`
	EndMinute       int           `json:"end_minute" bson:"end_minute"`
	DurationMin     int           `json:"duration_min" bson:"duration_min"`
	Status          BookingStatus `json:"status" bson:"status"`
	DepositCents    int64         `json:"deposit_cents" bson:"deposit_cents"`
	TotalCents      int64         `json:"total_cents" bson:"total_cents"`
	Notes           string        `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" bson:"updated_at"`
	CheckedInAt     *time.Time    `json:"checked_in_at,omitempty" bson:"checked_in_at,omitempty"`
	StartedAt       *time.Time    `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CancelledAt     *time.Time    `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	// LedgerVersion increments with every accepted payment.
	LedgerVersion int64 `json:"-" bson:"ledger_version,omitempty"`
}

// Overlaps uses half-open windows, so back-to-back bookings do not collide.
func (b *Booking) Overlaps(start, end int) bool {
	return Overlaps(b.StartMinute, b.EndMinute, start, end)
}

func Overlaps(start1, end1, start2, end2 int) bool {
	return start1 < end2 && start2 < end1
}

// TimestampField names the lifecycle timestamp set when entering status.
func TimestampField(status BookingStatus) string {
	switch status {
	case StatusCheckedIn:
		return "checked_in_at"
	case StatusInProgress:
		return "started_at"
	case StatusCompleted:
		return "completed_at"
	case StatusCancelled:
		return "cancelled_at"
	}
	return ""
}

// ReservationRequest is the public booking form. VariantID stays raw so a
// non-integer value surfaces as a field error instead of a decode failure.
type ReservationRequest struct {
	Email        string          `json:"email" validate:"required,email,max=254"`
	Phone        string          `json:"phone" validate:"required,min=7,max=32"`
	FirstName    string          `json:"first_name" validate:"required,max=100"`
	LastName     string          `json:"last_name" validate:"required,max=100"`
	VariantID    json.RawMessage `json:"variant_id" validate:"required"`
	VehicleYear  int             `json:"vehicle_year" validate:"required,vehicle_year"`
	VehicleMake  string          `json:"vehicle_make" validate:"required,max=50"`
	VehicleModel string          `json:"vehicle_model" validate:"required,max=50"`
	Date         string          `json:"appointment_date" validate:"required,isodate"`
	Time         string          `json:"appointment_time" validate:"required,hhmm"`
	Notes        string          `json:"notes,omitempty" validate:"max=1000"`
}

// Reservation is a validated, normalized ReservationRequest.
type Reservation struct {
	Email       string
	Phone       string
	FirstName   string
	LastName    string
	VariantID   int64
	Vehicle     Vehicle
	Date        string
	StartMinute int
	Notes       string
}

type StatusChangeRequest struct {
	Status string `json:"status" validate:"required"`
}

// BookingView is the API representation of a booking and its ledger.
type BookingView struct {
	*Booking
	DepositRequired json.Number    `json:"deposit_required"`
	TotalAmount     json.Number    `json:"total_amount"`
	AmountPaid      json.Number    `json:"amount_paid"`
	BalanceDue      json.Number    `json:"balance_due"`
	Payments        []*PaymentView `json:"payments,omitempty"`
}

func NewBookingView(b *Booking, payments []*Payment) *BookingView {
	var paid int64
	views := make([]*PaymentView, 0, len(payments))
	for _, p := range payments {
		if p.Status == PaymentSucceeded {
			paid += p.AmountCents
		}
		views = append(views, NewPaymentView(p))
	}
	balance := b.TotalCents - paid
	if balance < 0 {
		balance = 0
	}
	return &BookingView{
		Booking:         b,
		DepositRequired: money.Number(b.DepositCents),
		TotalAmount:     money.Number(b.TotalCents),
		AmountPaid:      money.Number(paid),
		BalanceDue:      money.Number(balance),
		Payments:        views,
	}
}

type ReservationResult struct {
	Booking         *BookingView `json:"booking"`
	DepositRequired json.Number  `json:"deposit_required"`
}
