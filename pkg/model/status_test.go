package model

import "testing"

func TestBookingStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from BookingStatus
		to   BookingStatus
		by   Trigger
		want bool
	}{
		{StatusPendingDeposit, StatusConfirmed, TriggerPayment, true},
		{StatusPendingDeposit, StatusConfirmed, TriggerStaff, false},
		{StatusPendingDeposit, StatusPaid, TriggerPayment, true},
		{StatusConfirmed, StatusPaid, TriggerPayment, true},
		{StatusPaid, StatusConfirmed, TriggerPayment, false},
		{StatusPaid, StatusPendingDeposit, TriggerPayment, false},
		{StatusPaid, StatusCheckedIn, TriggerStaff, true},
		{StatusCheckedIn, StatusInProgress, TriggerStaff, true},
		{StatusInProgress, StatusCompleted, TriggerStaff, true},
		{StatusCheckedIn, StatusCompleted, TriggerStaff, false},
		{StatusCompleted, StatusCancelled, TriggerStaff, false},
		{StatusCancelled, StatusConfirmed, TriggerPayment, false},
		{StatusNoShow, StatusCheckedIn, TriggerStaff, false},
		{StatusConfirmed, StatusNoShow, TriggerStaff, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to)+"/"+string(tt.by), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to, tt.by); got != tt.want {
				t.Errorf("CanTransition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBookingStatus_IsActive(t *testing.T) {
	for _, s := range AllBookingStatuses {
		want := s != StatusCancelled && s != StatusNoShow
		if got := s.IsActive(); got != want {
			t.Errorf("%s.IsActive() = %v, want %v", s, got, want)
		}
	}
}

func TestBookingStatus_Terminal(t *testing.T) {
	for _, s := range []BookingStatus{StatusCompleted, StatusCancelled, StatusNoShow} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	if StatusPaid.IsTerminal() {
		t.Errorf("paid should not be terminal")
	}
}

func TestParseBookingStatus(t *testing.T) {
	if s, ok := ParseBookingStatus("checked_in"); !ok || s != StatusCheckedIn {
		t.Errorf("expected checked_in, got %q %v", s, ok)
	}
	if _, ok := ParseBookingStatus("archived"); ok {
		t.Errorf("unknown status should not parse")
	}
}

func TestPaymentTarget(t *testing.T) {
	tests := []struct {
		name        string
		current     BookingStatus
		paymentType PaymentType
		paid        int64
		total       int64
		want        BookingStatus
		changed     bool
	}{
		{"deposit confirms", StatusPendingDeposit, PaymentTypeDeposit, 3500, 20000, StatusConfirmed, true},
		{"deposit on confirmed is no-op", StatusConfirmed, PaymentTypeDeposit, 3500, 20000, StatusConfirmed, false},
		{"full payment settles", StatusConfirmed, PaymentTypeFullPayment, 20000, 20000, StatusPaid, true},
		{"partial full payment stays", StatusConfirmed, PaymentTypeFullPayment, 15000, 20000, StatusConfirmed, false},
		{"full before deposit stays pending", StatusPendingDeposit, PaymentTypeFullPayment, 16500, 20000, StatusPendingDeposit, false},
		{"deposit completing the total settles", StatusPendingDeposit, PaymentTypeDeposit, 20000, 20000, StatusPaid, true},
		{"paid never regresses", StatusPaid, PaymentTypeDeposit, 3500, 20000, StatusPaid, false},
		{"operational state untouched", StatusCheckedIn, PaymentTypeFullPayment, 20000, 20000, StatusCheckedIn, false},
		{"cancelled untouched", StatusCancelled, PaymentTypeDeposit, 3500, 20000, StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := PaymentTarget(tt.current, tt.paymentType, tt.paid, tt.total)
			if got != tt.want || changed != tt.changed {
				t.Errorf("PaymentTarget() = (%s, %v), want (%s, %v)", got, changed, tt.want, tt.changed)
			}
		})
	}
}

func TestPaymentTarget_OrderIndependent(t *testing.T) {
	const total = 20000
	type step struct {
		paymentType PaymentType
		amount      int64
	}
	apply := func(steps []step) BookingStatus {
		status := StatusPendingDeposit
		var paid int64
		for _, s := range steps {
			paid += s.amount
			if next, ok := PaymentTarget(status, s.paymentType, paid, total); ok {
				status = next
			}
		}
		return status
	}

	deposit := step{PaymentTypeDeposit, 3500}
	balance := step{PaymentTypeFullPayment, 16500}

	inOrder := apply([]step{deposit, balance})
	reversed := apply([]step{balance, deposit})
	if inOrder != StatusPaid || reversed != StatusPaid {
		t.Errorf("expected paid regardless of order, got %s and %s", inOrder, reversed)
	}
}

func TestStaffTargets(t *testing.T) {
	targets := StatusInProgress.StaffTargets()
	if len(targets) != 1 || targets[0] != StatusCompleted {
		t.Errorf("in_progress staff targets = %v, want [completed]", targets)
	}
	for _, to := range StatusPendingDeposit.StaffTargets() {
		if to == StatusConfirmed || to == StatusPaid {
			t.Errorf("staff must not drive payment status %s", to)
		}
	}
}
