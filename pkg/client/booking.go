package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"detailbook/pkg/model"
)

const IdempotencyHeader = "Idempotency-Key"

// BookingClient calls the public booking API. It is used by integration
// tests and by operator tooling.
type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseUrl string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *BookingClient) HTTP() *HttpClient {
	return c.httpClient
}

func (c *BookingClient) Availability(ctx context.Context, date string, variantID *int64) (*Response, error) {
	q := url.Values{}
	q.Set("date", date)
	if variantID != nil {
		q.Set("variant_id", strconv.FormatInt(*variantID, 10))
	}
	return c.httpClient.GET(ctx, "/api/v1/availability?"+q.Encode())
}

func (c *BookingClient) CalendarDay(ctx context.Context, date string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/calendar/"+url.PathEscape(date))
}

// Reserve posts a reservation. An empty idempotencyKey sends none.
func (c *BookingClient) Reserve(ctx context.Context, body any, idempotencyKey string) (*Response, error) {
	return c.httpClient.POSTWithHeaders(ctx, "/api/v1/bookings", body, idempotencyHeaders(idempotencyKey))
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
}

func (c *BookingClient) ListByDate(ctx context.Context, date string, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	q.Set("date", date)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.FormatInt(offset, 10))
	return c.httpClient.GET(ctx, "/api/v1/bookings?"+q.Encode())
}

func (c *BookingClient) ChangeStatus(ctx context.Context, id string, status model.BookingStatus) (*Response, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id) + "/status"
	return c.httpClient.POST(ctx, path, map[string]string{"status": string(status)})
}

func (c *BookingClient) CreatePaymentIntent(ctx context.Context, bookingID string, paymentType model.PaymentType, idempotencyKey string) (*Response, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(bookingID) + "/payments"
	body := map[string]string{"payment_type": string(paymentType)}
	return c.httpClient.POSTWithHeaders(ctx, path, body, idempotencyHeaders(idempotencyKey))
}

func idempotencyHeaders(key string) map[string]string {
	if key == "" {
		return nil
	}
	return map[string]string{IdempotencyHeader: key}
}

func decodeData(resp *Response, target any) error {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return fmt.Errorf("could not decode response wrapper:\n%s\n%w", resp.ToString(), err)
	}
	if err := json.Unmarshal(wrapper.Data, target); err != nil {
		return fmt.Errorf("could not decode response data:\n%s\n%w", resp.ToString(), err)
	}
	return nil
}

func (c *BookingClient) DecodeReservation(resp *Response) (*model.ReservationResult, error) {
	var result model.ReservationResult
	if err := decodeData(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *BookingClient) DecodeBooking(resp *Response) (*model.BookingView, error) {
	var booking model.BookingView
	if err := decodeData(resp, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *BookingClient) DecodeAvailability(resp *Response) (*model.Availability, error) {
	var availability model.Availability
	if err := decodeData(resp, &availability); err != nil {
		return nil, err
	}
	return &availability, nil
}

func (c *BookingClient) DecodePaymentIntent(resp *Response) (*model.PaymentIntentResult, error) {
	var intent model.PaymentIntentResult
	if err := decodeData(resp, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *BookingClient) DecodeBookings(resp *Response) ([]*model.Booking, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%s\n%w", resp.ToString(), err)
	}

	var bookings []*model.Booking
	if err := json.Unmarshal(wrapper.Data, &bookings); err != nil {
		return nil, nil, fmt.Errorf("could not decode booking list:\n%s\n%w", resp.ToString(), err)
	}

	return bookings, &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}, nil
}
