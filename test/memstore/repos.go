package memstore

import (
	"context"
	"sort"
	"time"

	bookingserrors "detailbook/internal/bookings/errors"
	catalogerrors "detailbook/internal/catalog/errors"
	customerserrors "detailbook/internal/customers/errors"
	paymentserrors "detailbook/internal/payments/errors"
	mongotx "detailbook/pkg/db/mongo"
	"detailbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CatalogRepo struct{ s *Store }

func (r *CatalogRepo) FindServiceByVariant(_ context.Context, variantID int64) (*model.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpFindService); err != nil {
		return nil, err
	}
	for _, svc := range r.s.services {
		if !svc.Active {
			continue
		}
		for _, v := range svc.Variants {
			if v.ID == variantID {
				out := svc
				return &out, nil
			}
		}
	}
	return nil, catalogerrors.ErrVariantNotFound
}

type CalendarRepo struct{ s *Store }

func (r *CalendarRepo) FindHours(_ context.Context, weekday int) (*model.BusinessHours, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h, ok := r.s.hours[weekday]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (r *CalendarRepo) FindBlockedDate(_ context.Context, date string) (*model.BlockedDate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpFindBlockedDate); err != nil {
		return nil, err
	}
	b, ok := r.s.blocked[date]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

type CustomerRepo struct{ s *Store }

func (r *CustomerRepo) UpsertByEmail(_ context.Context, customer *model.Customer) (*model.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpUpsertCustomer); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for id, existing := range r.s.customers {
		if existing.Email != customer.Email {
			continue
		}
		existing.Phone = customer.Phone
		existing.FirstName = customer.FirstName
		existing.LastName = customer.LastName
		existing.UpdatedAt = now
		r.s.customers[id] = existing
		return &existing, nil
	}

	stored := *customer
	stored.ID = newID()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.s.customers[stored.ID] = stored
	return &stored, nil
}

func (r *CustomerRepo) FindByID(_ context.Context, id string) (*model.Customer, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, customerserrors.ErrInvalidID
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, customerserrors.ErrNotFound
	}
	return &c, nil
}

type BookingRepo struct{ s *Store }

func (r *BookingRepo) Create(_ context.Context, booking *model.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpCreateBooking); err != nil {
		return err
	}

	now := time.Now().UTC()
	booking.ID = newID()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	r.s.bookings[booking.ID] = *booking
	return nil
}

func (r *BookingRepo) FindByID(_ context.Context, id string) (*model.Booking, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, bookingserrors.ErrInvalidID
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return &b, nil
}

func (r *BookingRepo) FindActiveByDate(_ context.Context, date string) ([]*model.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpFindActive); err != nil {
		return nil, err
	}
	return r.filter(func(b model.Booking) bool {
		return b.AppointmentDate == date && b.Status.IsActive()
	}), nil
}

func (r *BookingRepo) FindByDate(_ context.Context, date string, limit int, offset int64) ([]*model.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.filter(func(b model.Booking) bool { return b.AppointmentDate == date })
	if offset >= int64(len(all)) {
		return []*model.Booking{}, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *BookingRepo) CountByDate(_ context.Context, date string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, b := range r.s.bookings {
		if b.AppointmentDate == date {
			n++
		}
	}
	return n, nil
}

func (r *BookingRepo) UpdateStatus(_ context.Context, id string, from, to model.BookingStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpUpdateBooking); err != nil {
		return err
	}

	b, ok := r.s.bookings[id]
	if !ok || b.Status != from {
		return bookingserrors.ErrStatusChanged
	}
	at = at.UTC()
	b.Status = to
	b.UpdatedAt = at
	switch model.TimestampField(to) {
	case "checked_in_at":
		b.CheckedInAt = &at
	case "started_at":
		b.StartedAt = &at
	case "completed_at":
		b.CompletedAt = &at
	case "cancelled_at":
		b.CancelledAt = &at
	}
	r.s.bookings[id] = b
	return nil
}

func (r *BookingRepo) BumpLedgerVersion(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	b.LedgerVersion++
	b.UpdatedAt = at.UTC()
	r.s.bookings[id] = b
	return nil
}

func (r *BookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.s.ExecuteTransaction(ctx, fn)
}

// filter must be called with s.mu held. Results are sorted by start.
func (r *BookingRepo) filter(keep func(model.Booking) bool) []*model.Booking {
	out := []*model.Booking{}
	for _, b := range r.s.bookings {
		if keep(b) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartMinute != out[j].StartMinute {
			return out[i].StartMinute < out[j].StartMinute
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type LockRepo struct{ s *Store }

func (r *LockRepo) Create(_ context.Context, lock *model.BookingLock) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpCreateLock); err != nil {
		return err
	}
	if _, held := r.s.locks[lock.ID]; held {
		return bookingserrors.ErrLockHeld
	}
	lock.CreatedAt = time.Now().UTC()
	r.s.locks[lock.ID] = *lock
	return nil
}

func (r *LockRepo) DeleteExpired(_ context.Context, lockID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lock, ok := r.s.locks[lockID]
	if !ok || !lock.ExpiresAt.Before(time.Now()) {
		return false, nil
	}
	delete(r.s.locks, lockID)
	return true, nil
}

func (r *LockRepo) Release(_ context.Context, lockID, owner string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if lock, ok := r.s.locks[lockID]; ok && lock.Owner == owner {
		delete(r.s.locks, lockID)
	}
	return nil
}

// Put stores a lock as-is, for simulating a crashed holder.
func (r *LockRepo) Put(lock model.BookingLock) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.locks[lock.ID] = lock
}

type PaymentRepo struct{ s *Store }

func (r *PaymentRepo) Create(_ context.Context, payment *model.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpCreatePayment); err != nil {
		return err
	}
	if _, exists := r.s.payments[payment.IntentID]; exists {
		return paymentserrors.ErrDuplicateIntent
	}

	now := time.Now().UTC()
	payment.ID = newID()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	r.s.payments[payment.IntentID] = *payment
	return nil
}

func (r *PaymentRepo) FindByIntentID(_ context.Context, intentID string) (*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpFindPayment); err != nil {
		return nil, err
	}
	p, ok := r.s.payments[intentID]
	if !ok {
		return nil, paymentserrors.ErrNotFound
	}
	return &p, nil
}

func (r *PaymentRepo) ListByBooking(_ context.Context, bookingID string) ([]*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.Payment{}
	for _, p := range r.s.payments {
		if p.BookingID == bookingID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *PaymentRepo) MarkStatus(_ context.Context, intentID string, from, to model.PaymentStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpMarkPayment); err != nil {
		return err
	}
	p, ok := r.s.payments[intentID]
	if !ok || p.Status != from {
		return paymentserrors.ErrStatusChanged
	}
	p.Status = to
	p.UpdatedAt = at.UTC()
	r.s.payments[intentID] = p
	return nil
}

func (r *PaymentRepo) SumSucceeded(_ context.Context, bookingID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total int64
	for _, p := range r.s.payments {
		if p.BookingID == bookingID && p.Status == model.PaymentSucceeded {
			total += p.AmountCents
		}
	}
	return total, nil
}
