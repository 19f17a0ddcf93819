package model

type BookingStatus string

const (
	StatusPendingDeposit BookingStatus = "pending_deposit"
	StatusConfirmed      BookingStatus = "confirmed"
	StatusPaid           BookingStatus = "paid"
	StatusCheckedIn      BookingStatus = "checked_in"
	StatusInProgress     BookingStatus = "in_progress"
	StatusCompleted      BookingStatus = "completed"
	StatusCancelled      BookingStatus = "cancelled"
	StatusNoShow         BookingStatus = "no_show"
)

var AllBookingStatuses = []BookingStatus{
	StatusPendingDeposit,
	StatusConfirmed,
	StatusPaid,
	StatusCheckedIn,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
}

// InactiveBookingStatuses no longer occupy their time window.
var InactiveBookingStatuses = []BookingStatus{StatusCancelled, StatusNoShow}

// Trigger says who is allowed to drive a booking transition.
type Trigger string

const (
	TriggerPayment Trigger = "payment"
	TriggerStaff   Trigger = "staff"
)

var bookingTransitions = map[BookingStatus]map[BookingStatus]Trigger{
	StatusPendingDeposit: {
		StatusConfirmed: TriggerPayment,
		StatusPaid:      TriggerPayment,
		StatusCheckedIn: TriggerStaff,
		StatusCancelled: TriggerStaff,
		StatusNoShow:    TriggerStaff,
	},
	StatusConfirmed: {
		StatusPaid:      TriggerPayment,
		StatusCheckedIn: TriggerStaff,
		StatusCancelled: TriggerStaff,
		StatusNoShow:    TriggerStaff,
	},
	StatusPaid: {
		StatusCheckedIn: TriggerStaff,
		StatusCancelled: TriggerStaff,
		StatusNoShow:    TriggerStaff,
	},
	StatusCheckedIn: {
		StatusInProgress: TriggerStaff,
		StatusCancelled:  TriggerStaff,
	},
	StatusInProgress: {
		StatusCompleted: TriggerStaff,
	},
}

func ParseBookingStatus(s string) (BookingStatus, bool) {
	for _, status := range AllBookingStatuses {
		if string(status) == s {
			return status, true
		}
	}
	return "", false
}

// IsActive reports whether the booking still holds its slot.
func (s BookingStatus) IsActive() bool {
	return s != StatusCancelled && s != StatusNoShow
}

func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// CanTransition checks the transition table for the given trigger.
func (s BookingStatus) CanTransition(to BookingStatus, by Trigger) bool {
	trigger, ok := bookingTransitions[s][to]
	return ok && trigger == by
}

// AwaitingPayment reports whether payment events may still move the booking.
func (s BookingStatus) AwaitingPayment() bool {
	return s == StatusPendingDeposit || s == StatusConfirmed
}

// StaffTargets lists the statuses staff may move a booking to from s.
func (s BookingStatus) StaffTargets() []BookingStatus {
	var targets []BookingStatus
	for _, to := range AllBookingStatuses {
		if s.CanTransition(to, TriggerStaff) {
			targets = append(targets, to)
		}
	}
	return targets
}

// PaymentTarget derives the booking status implied by the ledger after a
// payment of paymentType succeeded and the succeeded total reached paidCents.
// The result depends only on the current status and the ledger, so replays
// and reordered events converge on the same state.
func PaymentTarget(current BookingStatus, paymentType PaymentType, paidCents, totalCents int64) (BookingStatus, bool) {
	if !current.AwaitingPayment() {
		return current, false
	}
	if paidCents >= totalCents {
		return StatusPaid, true
	}
	if paymentType == PaymentTypeDeposit && current == StatusPendingDeposit {
		return StatusConfirmed, true
	}
	return current, false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) IsFinal() bool {
	return s == PaymentSucceeded || s == PaymentFailed
}

type PaymentType string

const (
	PaymentTypeDeposit     PaymentType = "deposit"
	PaymentTypeFullPayment PaymentType = "full_payment"
)

func ParsePaymentType(s string) (PaymentType, bool) {
	switch PaymentType(s) {
	case PaymentTypeDeposit, PaymentTypeFullPayment:
		return PaymentType(s), true
	}
	return "", false
}
