// Package memstore is an in-memory stand-in for the Mongo repositories.
// Transactions are serialized and roll back on error, which is enough to
// exercise the atomicity and conflict rules of the services in unit tests.
package memstore

import (
	"context"
	"fmt"
	"sync"

	mongotx "detailbook/pkg/db/mongo"
	"detailbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type txKey struct{}

type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	services  map[int64]model.Service
	hours     map[int]model.BusinessHours
	blocked   map[string]model.BlockedDate
	customers map[string]model.Customer
	bookings  map[string]model.Booking
	payments  map[string]model.Payment
	locks     map[string]model.BookingLock

	failures map[string]error
}

func New() *Store {
	return &Store{
		services:  make(map[int64]model.Service),
		hours:     make(map[int]model.BusinessHours),
		blocked:   make(map[string]model.BlockedDate),
		customers: make(map[string]model.Customer),
		bookings:  make(map[string]model.Booking),
		payments:  make(map[string]model.Payment),
		locks:     make(map[string]model.BookingLock),
		failures:  make(map[string]error),
	}
}

// Operation names accepted by FailNext.
const (
	OpUpsertCustomer  = "customers.upsert"
	OpCreateBooking   = "bookings.create"
	OpFindActive      = "bookings.find_active"
	OpUpdateBooking   = "bookings.update_status"
	OpCreatePayment   = "payments.create"
	OpMarkPayment     = "payments.mark_status"
	OpFindPayment     = "payments.find_by_intent"
	OpFindService     = "catalog.find_service"
	OpFindBlockedDate = "calendar.find_blocked"
	OpCreateLock      = "locks.create"
)

// FailNext makes the next call of op return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// failure must be called with s.mu held.
func (s *Store) failure(op string) error {
	err, ok := s.failures[op]
	if !ok {
		return nil
	}
	delete(s.failures, op)
	return err
}

// ExecuteTransaction runs fn with exclusive access to the transactional
// collections and restores them if fn fails or ctx ends before commit. Locks are not transactional,
// matching the Mongo lock collection which is written outside sessions.
func (s *Store) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.snapshot()
	s.mu.Unlock()

	err := fn(context.WithValue(ctx, txKey{}, true))
	if err == nil && ctx.Err() != nil {
		// Commit runs under ctx, so an expired deadline aborts the transaction.
		err = mongotx.ClassifyError("transaction failed", fmt.Errorf("commit: %w", ctx.Err()))
	}
	if err != nil {
		s.mu.Lock()
		s.restore(snapshot)
		s.mu.Unlock()
		return err
	}
	return nil
}

type snapshot struct {
	customers map[string]model.Customer
	bookings  map[string]model.Booking
	payments  map[string]model.Payment
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		customers: copyMap(s.customers),
		bookings:  copyMap(s.bookings),
		payments:  copyMap(s.payments),
	}
}

func (s *Store) restore(snap snapshot) {
	s.customers = snap.customers
	s.bookings = snap.bookings
	s.payments = snap.payments
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

// Seeding helpers.

func (s *Store) AddService(service model.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[service.ID] = service
}

func (s *Store) SetHours(hours ...model.BusinessHours) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range hours {
		s.hours[h.Weekday] = h
	}
}

func (s *Store) BlockDate(date, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked[date] = model.BlockedDate{Date: date, Reason: reason}
}

// Inspection helpers.

func (s *Store) AllCustomers() []model.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	return out
}

func (s *Store) AllBookings() []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	return out
}

func (s *Store) AllPayments() []model.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, p)
	}
	return out
}

func (s *Store) LockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

// Repository views. Each satisfies the matching repository interface.

func (s *Store) Catalog() *CatalogRepo    { return &CatalogRepo{s} }
func (s *Store) Calendar() *CalendarRepo  { return &CalendarRepo{s} }
func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{s} }
func (s *Store) Bookings() *BookingRepo   { return &BookingRepo{s} }
func (s *Store) Locks() *LockRepo         { return &LockRepo{s} }
func (s *Store) Payments() *PaymentRepo   { return &PaymentRepo{s} }
