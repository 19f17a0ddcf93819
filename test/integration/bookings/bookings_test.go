//go:build integration

package bookings

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"detailbook/pkg/client"
	"detailbook/pkg/model"
	"detailbook/test/integration/testutil"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

func setup(t *testing.T) (*testutil.MongoHelper, *client.BookingClient, string) {
	t.Helper()
	env := testutil.NewTestEnv()
	mongo, c := env.Setup(t)
	t.Cleanup(func() { env.Cleanup(t, mongo) })

	mongo.Seed(t, testutil.StandardCatalog(), testutil.WeekdayHours(), nil)
	return mongo, c, testutil.NextWeekday(time.Monday)
}

func uniqueEmail() string {
	return "it-" + uuid.NewString()[:8] + "@example.com"
}

func assertStatus(t *testing.T, resp *client.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("status = %d, want %d: %s", resp.StatusCode, want, resp.ToString())
	}
}

func TestReserve_CreatesBookingAndBlocksSlot(t *testing.T) {
	mongo, c, date := setup(t)
	ctx := context.Background()

	resp, err := c.Reserve(ctx, testutil.ValidReservation(uniqueEmail(), date, "10:00", testutil.VariantSedan), "")
	if err != nil {
		t.Fatal(err)
	}
	assertStatus(t, resp, http.StatusCreated)

	result, err := c.DecodeReservation(resp)
	if err != nil {
		t.Fatal(err)
	}
	if result.Booking.Status != model.StatusPendingDeposit {
		t.Errorf("status = %s, want pending_deposit", result.Booking.Status)
	}
	if result.DepositRequired.String() != "35.00" {
		t.Errorf("deposit = %s, want 35.00", result.DepositRequired)
	}

	variant := testutil.VariantSedan
	resp, err = c.Availability(ctx, date, &variant)
	if err != nil {
		t.Fatal(err)
	}
	assertStatus(t, resp, http.StatusOK)
	availability, err := c.DecodeAvailability(resp)
	if err != nil {
		t.Fatal(err)
	}
	for _, slot := range availability.Slots {
		if slot.Time == "10:00" || slot.Time == "09:30" || slot.Time == "10:30" {
			t.Errorf("overlapping slot %s still offered", slot.Time)
		}
	}

	if n := mongo.CountDocuments(t, "Booking_locks", nil); n != 0 {
		t.Errorf("%d date locks left behind", n)
	}
}

func TestReserve_UnknownVariantWritesNothing(t *testing.T) {
	mongo, c, date := setup(t)

	resp, err := c.Reserve(context.Background(), testutil.ValidReservation(uniqueEmail(), date, "10:00", 999), "")
	if err != nil {
		t.Fatal(err)
	}
	assertStatus(t, resp, http.StatusNotFound)

	for _, name := range []string{"Customers", "Bookings", "Booking_locks"} {
		if n := mongo.CountDocuments(t, name, nil); n != 0 {
			t.Errorf("%s has %d documents after a rejected reservation", name, n)
		}
	}
}

func TestReserve_ConcurrentRequestsForOneSlot(t *testing.T) {
	mongo, c, date := setup(t)

	const clients = 5
	statuses := make([]int, clients)
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := c.Reserve(context.Background(), testutil.ValidReservation(uniqueEmail(), date, "13:00", testutil.VariantSedan), "")
			if err != nil {
				t.Errorf("request %d: %v", i, err)
				return
			}
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	created := 0
	for _, s := range statuses {
		switch s {
		case http.StatusCreated:
			created++
		case http.StatusConflict, http.StatusTooManyRequests:
		default:
			t.Errorf("unexpected status %d", s)
		}
	}
	if created != 1 {
		t.Errorf("%d reservations succeeded, want exactly 1", created)
	}
	if n := mongo.CountDocuments(t, "Bookings", bson.M{"appointment_date": date}); n != 1 {
		t.Errorf("%d bookings stored, want 1", n)
	}
}

func TestReserve_IdempotencyKeyReplays(t *testing.T) {
	mongo, c, date := setup(t)
	ctx := context.Background()
	body := testutil.ValidReservation(uniqueEmail(), date, "15:00", testutil.VariantSedan)

	key := "it-key-" + uuid.NewString()

	first, err := c.Reserve(ctx, body, key)
	if err != nil {
		t.Fatal(err)
	}
	assertStatus(t, first, http.StatusCreated)

	second, err := c.Reserve(ctx, body, key)
	if err != nil {
		t.Fatal(err)
	}
	assertStatus(t, second, http.StatusCreated)
	if second.Header.Get("Idempotent-Replayed") != "true" {
		t.Errorf("second response was not a replay")
	}
	if n := mongo.CountDocuments(t, "Bookings", nil); n != 1 {
		t.Errorf("%d bookings stored, want 1", n)
	}
}

func TestChangeStatus_CancelFreesSlot(t *testing.T) {
	_, c, date := setup(t)
	ctx := context.Background()

	resp, err := c.Reserve(ctx, testutil.ValidReservation(uniqueEmail(), date, "11:00", testutil.VariantSedan), "")
	if err != nil {
		t.Fatal(err)
	}
	assertStatus(t, resp, http.StatusCreated)
	result, err := c.DecodeReservation(resp)
	if err != nil {
		t.Fatal(err)
	}

	resp, err = c.ChangeStatus(ctx, result.Booking.ID, model.StatusCancelled)
	if err != nil {
		t.Fatal(err)
	}
	assertStatus(t, resp, http.StatusOK)

	resp, err = c.ChangeStatus(ctx, result.Booking.ID, model.StatusCheckedIn)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusConflict && resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("transition out of cancelled: %s", resp.ToString())
	}

	resp, err = c.Reserve(ctx, testutil.ValidReservation(uniqueEmail(), date, "11:00", testutil.VariantSedan), "")
	if err != nil {
		t.Fatal(err)
	}
	assertStatus(t, resp, http.StatusCreated)
}

func TestCalendar_WeekendClosed(t *testing.T) {
	_, c, _ := setup(t)

	resp, err := c.CalendarDay(context.Background(), testutil.NextWeekday(time.Sunday))
	if err != nil {
		t.Fatal(err)
	}
	assertStatus(t, resp, http.StatusOK)
	if !strings.Contains(string(resp.Body), `"open":false`) {
		t.Errorf("sunday reported open: %s", resp.Body)
	}
}

func TestWebhook_RejectsUnsignedEvents(t *testing.T) {
	_, c, _ := setup(t)

	resp, err := c.HTTP().POSTRaw(context.Background(), "/webhooks/payments", []byte(`{"id":"evt_1"}`), map[string]string{
		"Stripe-Signature": "t=1,v1=forged",
	})
	if err != nil {
		t.Fatal(err)
	}
	assertStatus(t, resp, http.StatusUnauthorized)
	if code := client.GetErrorCode(resp); code != "UNAUTHORIZED" {
		t.Errorf("code = %s", code)
	}
}

func TestPaymentIntent_Deposit(t *testing.T) {
	if os.Getenv("TEST_STRIPE_ENABLED") == "" {
		t.Skip("TEST_STRIPE_ENABLED not set; the service needs a Stripe test key")
	}
	_, c, date := setup(t)
	ctx := context.Background()

	resp, err := c.Reserve(ctx, testutil.ValidReservation(uniqueEmail(), date, "14:00", testutil.VariantSedan), "")
	if err != nil {
		t.Fatal(err)
	}
	assertStatus(t, resp, http.StatusCreated)
	result, err := c.DecodeReservation(resp)
	if err != nil {
		t.Fatal(err)
	}

	resp, err = c.CreatePaymentIntent(ctx, result.Booking.ID, model.PaymentTypeDeposit, "it-pay-"+uuid.NewString())
	if err != nil {
		t.Fatal(err)
	}
	assertStatus(t, resp, http.StatusCreated)
	intent, err := c.DecodePaymentIntent(resp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(intent.IntentID, "pi_") || intent.Amount.String() != "35.00" {
		t.Errorf("intent = %+v", intent)
	}
}
