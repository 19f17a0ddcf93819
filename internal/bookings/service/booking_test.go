package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"detailbook/internal/bookings/validator"
	calendarservice "detailbook/internal/calendar/service"
	catalogservice "detailbook/internal/catalog/service"
	"detailbook/internal/events"
	"detailbook/pkg/config"
	mongotx "detailbook/pkg/db/mongo"
	apperrors "detailbook/pkg/errors"
	"detailbook/pkg/logger"
	"detailbook/pkg/model"
	"detailbook/test/memstore"
)

// 2026-03-02 is a Monday.
const testDate = "2026-03-02"

func newTestConfig() *config.Config {
	return &config.Config{
		Log:                logger.New(logger.Config{Level: "error", Format: "json", Output: io.Discard}),
		SlotStepMin:        30,
		DefaultDurationMin: 60,
		DepositCents:       3500,
		Currency:           "usd",
		BookingLockTTL:     5 * time.Second,
	}
}

func intPtr(v int) *int { return &v }

func seededStore() *memstore.Store {
	store := memstore.New()
	store.SetHours(model.BusinessHours{Weekday: 1, OpenTime: "09:00", CloseTime: "17:00"})
	store.AddService(model.Service{
		ID:     1,
		Name:   "Full Detail",
		Active: true,
		Variants: []model.ServiceVariant{
			{ID: 11, Name: "Sedan", PriceCents: 20000, DurationMin: intPtr(60)},
			{ID: 12, Name: "SUV", PriceCents: 2500, DurationMin: intPtr(120)},
		},
	})
	return store
}

func newTestService(store *memstore.Store, publisher events.Publisher) BookingService {
	cfg := newTestConfig()
	return NewBookingService(
		store.Bookings(),
		store.Locks(),
		store.Customers(),
		catalogservice.NewCatalogService(store.Catalog(), cfg),
		calendarservice.NewCalendarPolicy(store.Calendar(), cfg),
		store.Payments(),
		validator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)
}

func reservationRequest(variantID string, date, at string) *model.ReservationRequest {
	return &model.ReservationRequest{
		Email:        "Jane.Doe@Example.com",
		Phone:        "+1 415 555 2671",
		FirstName:    "Jane",
		LastName:     "Doe",
		VariantID:    json.RawMessage(variantID),
		VehicleYear:  2021,
		VehicleMake:  "Toyota",
		VehicleModel: "Camry",
		Date:         date,
		Time:         at,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !apperrors.HasCode(err, code) {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestReserve_Success(t *testing.T) {
	store := seededStore()
	recorder := &memstore.Recorder{}
	svc := newTestService(store, recorder)

	result, err := svc.Reserve(context.Background(), reservationRequest("11", testDate, "10:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	booking := result.Booking.Booking
	if booking.ID == "" || booking.CustomerID == "" {
		t.Fatalf("expected persisted booking with customer, got %+v", booking)
	}
	if booking.Status != model.StatusPendingDeposit {
		t.Errorf("status = %s, want pending_deposit", booking.Status)
	}
	if booking.StartMinute != 600 || booking.EndMinute != 660 || booking.DurationMin != 60 {
		t.Errorf("window = %d-%d (%d min), want 600-660 (60 min)", booking.StartMinute, booking.EndMinute, booking.DurationMin)
	}
	if booking.TotalCents != 20000 || booking.DepositCents != 3500 {
		t.Errorf("amounts total=%d deposit=%d, want 20000/3500", booking.TotalCents, booking.DepositCents)
	}
	if result.DepositRequired != "35.00" {
		t.Errorf("deposit_required = %s, want 35.00", result.DepositRequired)
	}

	customers := store.AllCustomers()
	if len(customers) != 1 || customers[0].Email != "jane.doe@example.com" {
		t.Fatalf("expected one normalized customer, got %+v", customers)
	}
	if store.LockCount() != 0 {
		t.Errorf("date lock was not released")
	}
	if types := recorder.Types(); len(types) != 1 || types[0] != events.BookingCreated {
		t.Errorf("published %v, want [booking.created]", types)
	}
}

func TestReserve_DepositCappedAtPrice(t *testing.T) {
	store := seededStore()
	svc := newTestService(store, events.NopPublisher{})

	result, err := svc.Reserve(context.Background(), reservationRequest("12", testDate, "13:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Booking.DepositCents != 2500 {
		t.Errorf("deposit = %d, want capped at price 2500", result.Booking.DepositCents)
	}
	if result.Booking.EndMinute != 15*60 {
		t.Errorf("end minute = %d, want %d", result.Booking.EndMinute, 15*60)
	}
}

func TestReserve_UnknownVariantWritesNothing(t *testing.T) {
	store := seededStore()
	svc := newTestService(store, events.NopPublisher{})

	_, err := svc.Reserve(context.Background(), reservationRequest("999", testDate, "10:00"))
	assertCode(t, err, apperrors.CodeNotFound)

	if n := len(store.AllCustomers()); n != 0 {
		t.Errorf("customers = %d, want 0", n)
	}
	if n := len(store.AllBookings()); n != 0 {
		t.Errorf("bookings = %d, want 0", n)
	}
}

func TestReserve_RollsBackCustomerWhenBookingInsertFails(t *testing.T) {
	store := seededStore()
	store.FailNext(memstore.OpCreateBooking, errors.New("write failed"))
	svc := newTestService(store, events.NopPublisher{})

	_, err := svc.Reserve(context.Background(), reservationRequest("11", testDate, "10:00"))
	assertCode(t, err, apperrors.CodeInternal)

	if n := len(store.AllCustomers()); n != 0 {
		t.Errorf("customer row survived a failed reservation: %d rows", n)
	}
	if store.LockCount() != 0 {
		t.Errorf("date lock was not released after failure")
	}
}

func TestReserve_TransientStoreFailureIsRetryable(t *testing.T) {
	store := seededStore()
	store.FailNext(memstore.OpFindActive, context.DeadlineExceeded)
	svc := newTestService(store, events.NopPublisher{})

	_, err := svc.Reserve(context.Background(), reservationRequest("11", testDate, "10:00"))
	assertCode(t, err, apperrors.CodeUnavailable)
}

// stalledBookingRepo delays inserts past the caller's deadline and records
// the deadline each transaction ran under.
type stalledBookingRepo struct {
	*memstore.BookingRepo
	delay    time.Duration
	deadline time.Time
}

func (r *stalledBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	time.Sleep(r.delay)
	return r.BookingRepo.Create(ctx, booking)
}

func (r *stalledBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	r.deadline, _ = ctx.Deadline()
	return r.BookingRepo.ExecuteTransaction(ctx, fn)
}

type recordingLockRepo struct {
	*memstore.LockRepo
	expiresAt time.Time
}

func (r *recordingLockRepo) Create(ctx context.Context, lock *model.BookingLock) error {
	err := r.LockRepo.Create(ctx, lock)
	if err == nil {
		r.expiresAt = lock.ExpiresAt
	}
	return err
}

func newServiceWithRepos(store *memstore.Store, bookings *stalledBookingRepo, locks *recordingLockRepo, ttl time.Duration) BookingService {
	cfg := newTestConfig()
	cfg.BookingLockTTL = ttl
	return NewBookingService(
		bookings,
		locks,
		store.Customers(),
		catalogservice.NewCatalogService(store.Catalog(), cfg),
		calendarservice.NewCalendarPolicy(store.Calendar(), cfg),
		store.Payments(),
		validator.NewBookingValidator(cfg.Log),
		events.NopPublisher{},
		cfg,
	)
}

func TestReserve_TransactionEndsBeforeLockExpires(t *testing.T) {
	store := seededStore()
	bookings := &stalledBookingRepo{BookingRepo: store.Bookings()}
	locks := &recordingLockRepo{LockRepo: store.Locks()}
	svc := newServiceWithRepos(store, bookings, locks, 5*time.Second)

	if _, err := svc.Reserve(context.Background(), reservationRequest("11", testDate, "10:00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bookings.deadline.IsZero() || locks.expiresAt.IsZero() {
		t.Fatalf("deadline %v or lock expiry %v not recorded", bookings.deadline, locks.expiresAt)
	}
	if slack := locks.expiresAt.Sub(bookings.deadline); slack < lockExpiryMargin(5*time.Second) {
		t.Errorf("transaction deadline is %s before lock expiry, want at least %s", slack, lockExpiryMargin(5*time.Second))
	}
}

func TestReserve_TransactionOutlivingLockAborts(t *testing.T) {
	store := seededStore()
	bookings := &stalledBookingRepo{BookingRepo: store.Bookings(), delay: 400 * time.Millisecond}
	locks := &recordingLockRepo{LockRepo: store.Locks()}
	svc := newServiceWithRepos(store, bookings, locks, 200*time.Millisecond)

	_, err := svc.Reserve(context.Background(), reservationRequest("11", testDate, "10:00"))
	assertCode(t, err, apperrors.CodeUnavailable)

	if n := len(store.AllBookings()); n != 0 {
		t.Errorf("booking committed after the date lock expired: %d rows", n)
	}
	if n := len(store.AllCustomers()); n != 0 {
		t.Errorf("customer committed after the date lock expired: %d rows", n)
	}
	if store.LockCount() != 0 {
		t.Errorf("date lock was not released after abort")
	}
}

func TestLockExpiryMargin(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want time.Duration
	}{
		{200 * time.Millisecond, 50 * time.Millisecond},
		{5 * time.Second, 1250 * time.Millisecond},
		{time.Minute, maxLockExpiryMargin},
	}
	for _, tt := range tests {
		if got := lockExpiryMargin(tt.ttl); got != tt.want {
			t.Errorf("lockExpiryMargin(%s) = %s, want %s", tt.ttl, got, tt.want)
		}
	}
}

func TestReserve_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*memstore.Store)
		req   *model.ReservationRequest
		code  string
	}{
		{
			name: "invalid fields",
			req: func() *model.ReservationRequest {
				r := reservationRequest(`"abc"`, "2026-13-40", "25:00")
				r.Email = "nope"
				return r
			}(),
			code: apperrors.CodeValidation,
		},
		{
			name: "closed weekday",
			req:  reservationRequest("11", "2026-03-01", "10:00"),
			code: apperrors.CodeValidation,
		},
		{
			name:  "blocked date",
			setup: func(s *memstore.Store) { s.BlockDate(testDate, "Holiday") },
			req:   reservationRequest("11", testDate, "10:00"),
			code:  apperrors.CodeValidation,
		},
		{
			name: "off the slot grid",
			req:  reservationRequest("11", testDate, "10:15"),
			code: apperrors.CodeValidation,
		},
		{
			name: "runs past closing",
			req:  reservationRequest("12", testDate, "16:00"),
			code: apperrors.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore()
			if tt.setup != nil {
				tt.setup(store)
			}
			svc := newTestService(store, events.NopPublisher{})

			_, err := svc.Reserve(context.Background(), tt.req)
			assertCode(t, err, tt.code)
			if n := len(store.AllBookings()); n != 0 {
				t.Errorf("bookings = %d, want 0", n)
			}
		})
	}
}

func TestReserve_OverlapConflicts(t *testing.T) {
	store := seededStore()
	svc := newTestService(store, events.NopPublisher{})
	ctx := context.Background()

	if _, err := svc.Reserve(ctx, reservationRequest("11", testDate, "10:00")); err != nil {
		t.Fatalf("first reservation failed: %v", err)
	}

	_, err := svc.Reserve(ctx, reservationRequest("12", testDate, "09:30"))
	assertCode(t, err, apperrors.CodeConflict)

	// Back-to-back windows do not overlap.
	if _, err := svc.Reserve(ctx, reservationRequest("11", testDate, "11:00")); err != nil {
		t.Fatalf("adjacent reservation failed: %v", err)
	}
}

func TestReserve_CancelledBookingFreesSlot(t *testing.T) {
	store := seededStore()
	svc := newTestService(store, events.NopPublisher{})
	ctx := context.Background()

	first, err := svc.Reserve(ctx, reservationRequest("11", testDate, "10:00"))
	if err != nil {
		t.Fatalf("first reservation failed: %v", err)
	}
	if _, err := svc.ChangeStatus(ctx, first.Booking.ID, &model.StatusChangeRequest{Status: "cancelled"}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := svc.Reserve(ctx, reservationRequest("11", testDate, "10:00")); err != nil {
		t.Fatalf("rebooking a cancelled slot failed: %v", err)
	}
}

func TestReserve_ConcurrentIdenticalRequests(t *testing.T) {
	store := seededStore()
	svc := newTestService(store, events.NopPublisher{})

	const workers = 2
	errs := make([]error, workers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Reserve(context.Background(), reservationRequest("11", testDate, "10:00"))
		}(i)
	}
	close(start)
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperrors.HasCode(err, apperrors.CodeConflict):
			conflicted++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Fatalf("succeeded=%d conflicted=%d, want 1/1", succeeded, conflicted)
	}

	var active int
	for _, b := range store.AllBookings() {
		if b.Status.IsActive() && b.AppointmentDate == testDate && b.StartMinute == 600 {
			active++
		}
	}
	if active != 1 {
		t.Errorf("active bookings for the window = %d, want 1", active)
	}
}

func TestReserve_ReclaimsExpiredLock(t *testing.T) {
	store := seededStore()
	store.Locks().Put(model.BookingLock{
		ID:        model.DateLockID(testDate),
		Owner:     "crashed-holder",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	svc := newTestService(store, events.NopPublisher{})

	if _, err := svc.Reserve(context.Background(), reservationRequest("11", testDate, "10:00")); err != nil {
		t.Fatalf("expected stale lock to be reclaimed, got %v", err)
	}
	if store.LockCount() != 0 {
		t.Errorf("lock left behind after reclaim")
	}
}

func TestReserve_ReturningCustomerIsUpdated(t *testing.T) {
	store := seededStore()
	svc := newTestService(store, events.NopPublisher{})
	ctx := context.Background()

	first, err := svc.Reserve(ctx, reservationRequest("11", testDate, "10:00"))
	if err != nil {
		t.Fatalf("first reservation failed: %v", err)
	}

	again := reservationRequest("11", testDate, "14:00")
	again.Phone = "+1 415 555 0000"
	again.FirstName = "Janet"
	second, err := svc.Reserve(ctx, again)
	if err != nil {
		t.Fatalf("second reservation failed: %v", err)
	}

	if first.Booking.CustomerID != second.Booking.CustomerID {
		t.Errorf("expected the same customer for the same email")
	}
	customers := store.AllCustomers()
	if len(customers) != 1 {
		t.Fatalf("customers = %d, want 1", len(customers))
	}
	if customers[0].FirstName != "Janet" || customers[0].Phone != "+14155550000" {
		t.Errorf("customer not refreshed: %+v", customers[0])
	}
}

func TestChangeStatus(t *testing.T) {
	store := seededStore()
	recorder := &memstore.Recorder{}
	svc := newTestService(store, recorder)
	ctx := context.Background()

	result, err := svc.Reserve(ctx, reservationRequest("11", testDate, "10:00"))
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	id := result.Booking.ID

	_, err = svc.ChangeStatus(ctx, id, &model.StatusChangeRequest{Status: "paid"})
	assertCode(t, err, apperrors.CodeConflict)

	_, err = svc.ChangeStatus(ctx, id, &model.StatusChangeRequest{Status: "finished"})
	assertCode(t, err, apperrors.CodeValidation)

	for _, next := range []string{"checked_in", "in_progress", "completed"} {
		view, err := svc.ChangeStatus(ctx, id, &model.StatusChangeRequest{Status: next})
		if err != nil {
			t.Fatalf("move to %s failed: %v", next, err)
		}
		if string(view.Status) != next {
			t.Fatalf("status = %s, want %s", view.Status, next)
		}
	}

	view, err := svc.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if view.CheckedInAt == nil || view.StartedAt == nil || view.CompletedAt == nil {
		t.Errorf("lifecycle timestamps not recorded: %+v", view.Booking)
	}

	_, err = svc.ChangeStatus(ctx, id, &model.StatusChangeRequest{Status: "cancelled"})
	assertCode(t, err, apperrors.CodeConflict)

	types := recorder.Types()
	if len(types) != 4 {
		t.Fatalf("published %v, want created plus three transitions", types)
	}
	for _, typ := range types[1:] {
		if typ != events.BookingStatusChanged {
			t.Errorf("transition published as %s", typ)
		}
	}
}

func TestGetByID_Errors(t *testing.T) {
	svc := newTestService(seededStore(), events.NopPublisher{})
	ctx := context.Background()

	_, err := svc.GetByID(ctx, "not-an-id")
	assertCode(t, err, apperrors.CodeInvalidInput)

	_, err = svc.GetByID(ctx, "65f1c0ffee0000000000abcd")
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestListByDate(t *testing.T) {
	store := seededStore()
	svc := newTestService(store, events.NopPublisher{})
	ctx := context.Background()

	for _, at := range []string{"14:00", "09:00", "11:00"} {
		if _, err := svc.Reserve(ctx, reservationRequest("11", testDate, at)); err != nil {
			t.Fatalf("reserve %s failed: %v", at, err)
		}
	}

	bookings, total, err := svc.ListByDate(ctx, testDate, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || len(bookings) != 2 {
		t.Fatalf("total=%d page=%d, want 3/2", total, len(bookings))
	}
	if bookings[0].AppointmentTime != "09:00" || bookings[1].AppointmentTime != "11:00" {
		t.Errorf("page not ordered by start: %s, %s", bookings[0].AppointmentTime, bookings[1].AppointmentTime)
	}

	_, _, err = svc.ListByDate(ctx, "03/02/2026", 10, 0)
	assertCode(t, err, apperrors.CodeValidation)
}
