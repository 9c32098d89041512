package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickshow/movie-ticket-booking/internal/model"
	"github.com/quickshow/movie-ticket-booking/internal/payment"
	"github.com/quickshow/movie-ticket-booking/internal/queue"
	"github.com/quickshow/movie-ticket-booking/internal/repository"
	"github.com/quickshow/movie-ticket-booking/internal/service/booking"
)

// Minimal stubs backing a real booking.Service for handler tests.

type stubShows struct{}

func (stubShows) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	return &model.Show{ID: id, Title: "Dune", StartsAt: time.Now().UTC().Add(time.Hour)}, nil
}

func (stubShows) OccupiedSeats(ctx context.Context, showID uint64) ([]string, error) {
	return nil, nil
}

type stubBookings struct {
	paid map[uint64]bool
}

func (s *stubBookings) CreateWithSeats(ctx context.Context, b *model.Booking) error { return nil }
func (s *stubBookings) Cancel(ctx context.Context, id uint64) error                 { return nil }
func (s *stubBookings) SetPaymentLink(ctx context.Context, id uint64, link string) error {
	return nil
}

func (s *stubBookings) MarkPaid(ctx context.Context, id uint64) (bool, error) {
	if s.paid == nil {
		return false, repository.ErrBookingNotFound
	}
	if s.paid[id] {
		return false, nil
	}
	s.paid[id] = true
	return true, nil
}

func (s *stubBookings) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	return &model.Booking{ID: id, UserID: 7, ShowID: 1, Seats: []string{"A1"}, Paid: true}, nil
}

func (s *stubBookings) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return nil, nil
}

func (s *stubBookings) ReclaimExpiredByShow(ctx context.Context, showID uint64, now time.Time) (int, error) {
	return 0, nil
}

func (s *stubBookings) ReclaimExpiredByUser(ctx context.Context, userID uint64, now time.Time) (int, error) {
	return 0, nil
}

func (s *stubBookings) ReclaimBooking(ctx context.Context, id uint64, now time.Time) (bool, error) {
	return false, nil
}

type stubPayments struct{ status *payment.SessionStatus }

func (s stubPayments) CreateCheckoutSession(ctx context.Context, bookingID uint64, amountCents int64, productName, origin string) (*payment.CheckoutSession, error) {
	return &payment.CheckoutSession{ID: "cs_1", URL: "https://checkout.test/cs_1"}, nil
}

func (s stubPayments) SessionStatus(ctx context.Context, sessionID string) (*payment.SessionStatus, error) {
	if s.status == nil {
		return nil, errors.New("no such session")
	}
	return s.status, nil
}

type stubEvents struct {
	confirmed []queue.BookingConfirmedEvent
	orphaned  []queue.PaymentOrphanedEvent
}

func (s *stubEvents) PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
	s.confirmed = append(s.confirmed, ev)
	return nil
}

func (s *stubEvents) PublishPaymentOrphaned(ctx context.Context, ev queue.PaymentOrphanedEvent) error {
	s.orphaned = append(s.orphaned, ev)
	return nil
}

type stubScheduler struct{}

func (stubScheduler) ScheduleSeatRelease(ctx context.Context, bookingID, showID uint64, delay time.Duration) error {
	return nil
}

// stubVerifier stands in for signature verification so the decoded
// event can be injected directly.
type stubVerifier struct {
	event *payment.CheckoutEvent
	err   error
}

func (v stubVerifier) VerifyWebhook(payload []byte, sigHeader string) (*payment.CheckoutEvent, error) {
	return v.event, v.err
}

func newTestService(bookings *stubBookings, pay stubPayments, events *stubEvents) *booking.Service {
	return booking.NewService(stubShows{}, bookings, pay, events, stubScheduler{}, 10*time.Minute)
}

func postJSON(e *echo.Echo, target, body string, header http.Header) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	// A real client so the actual signature check runs.
	client := payment.NewClient("sk_test_x", "whsec_test_secret", "")
	events := &stubEvents{}
	h := NewPaymentHandler(client, newTestService(&stubBookings{paid: map[uint64]bool{}}, stubPayments{}, events))

	e := echo.New()
	hdr := http.Header{}
	hdr.Set("Stripe-Signature", "t=1,v1=deadbeef")
	c, rec := postJSON(e, "/v1/payments/stripe/webhook", `{"type":"checkout.session.completed"}`, hdr)

	require.NoError(t, h.StripeWebhook(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, events.confirmed)
}

func TestStripeWebhookFinalizesCompletedSession(t *testing.T) {
	bookings := &stubBookings{paid: map[uint64]bool{}}
	events := &stubEvents{}
	verifier := stubVerifier{event: &payment.CheckoutEvent{
		Type:      "checkout.session.completed",
		SessionID: "cs_1",
		BookingID: 42,
	}}
	h := NewPaymentHandler(verifier, newTestService(bookings, stubPayments{}, events))

	e := echo.New()
	c, rec := postJSON(e, "/v1/payments/stripe/webhook", `{}`, nil)

	require.NoError(t, h.StripeWebhook(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bookings.paid[42])
	require.Len(t, events.confirmed, 1)
	assert.Equal(t, uint64(42), events.confirmed[0].BookingID)

	// Redelivery of the same event is acknowledged without a second
	// confirmation.
	c, rec = postJSON(e, "/v1/payments/stripe/webhook", `{}`, nil)
	require.NoError(t, h.StripeWebhook(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, events.confirmed, 1)
}

func TestStripeWebhookIgnoresOtherEventTypes(t *testing.T) {
	bookings := &stubBookings{paid: map[uint64]bool{}}
	events := &stubEvents{}
	verifier := stubVerifier{event: &payment.CheckoutEvent{Type: "invoice.created"}}
	h := NewPaymentHandler(verifier, newTestService(bookings, stubPayments{}, events))

	e := echo.New()
	c, rec := postJSON(e, "/v1/payments/stripe/webhook", `{}`, nil)

	require.NoError(t, h.StripeWebhook(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, bookings.paid)
	assert.Empty(t, events.confirmed)
}

func TestVerifyPaymentReportsUnpaidSession(t *testing.T) {
	bookings := &stubBookings{paid: map[uint64]bool{}}
	events := &stubEvents{}
	pay := stubPayments{status: &payment.SessionStatus{BookingID: 42, Paid: false}}
	h := NewPaymentHandler(stubVerifier{}, newTestService(bookings, pay, events))

	e := echo.New()
	c, rec := postJSON(e, "/v1/payments/verify", `{"session_id":"cs_1"}`, nil)

	require.NoError(t, h.VerifyPayment(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"verified":false}`, rec.Body.String())
	assert.Empty(t, bookings.paid)
}

func TestVerifyPaymentFinalizesPaidSession(t *testing.T) {
	bookings := &stubBookings{paid: map[uint64]bool{}}
	events := &stubEvents{}
	pay := stubPayments{status: &payment.SessionStatus{BookingID: 42, Paid: true}}
	h := NewPaymentHandler(stubVerifier{}, newTestService(bookings, pay, events))

	e := echo.New()
	c, rec := postJSON(e, "/v1/payments/verify", `{"session_id":"cs_1"}`, nil)

	require.NoError(t, h.VerifyPayment(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"verified":true,"status":"confirmed"}`, rec.Body.String())
	assert.True(t, bookings.paid[42])
}

func TestVerifyPaymentRequiresSessionID(t *testing.T) {
	h := NewPaymentHandler(stubVerifier{}, newTestService(&stubBookings{paid: map[uint64]bool{}}, stubPayments{}, &stubEvents{}))

	e := echo.New()
	c, rec := postJSON(e, "/v1/payments/verify", `{}`, nil)

	require.NoError(t, h.VerifyPayment(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
