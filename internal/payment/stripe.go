// Package payment wraps the Stripe API surface the booking engine
// depends on: creating checkout sessions, retrieving their
// authoritative payment status, and verifying webhook signatures.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// External checkout sessions expire on Stripe's side after this long.
// It is a backstop only; the 10-minute reservation window is the sole
// timeout the engine relies on for correctness.
const sessionExpiry = 30 * time.Minute

// metadataBookingID is the session metadata key carrying the booking id.
const metadataBookingID = "booking_id"

// CheckoutSession is the subset of a created session the engine needs:
// the redirect URL handed to the client and the session id used later
// for pull verification.
type CheckoutSession struct {
	ID  string
	URL string
}

// SessionStatus is the authoritative state of a checkout session as
// reported by Stripe, never by the client.
type SessionStatus struct {
	BookingID uint64
	Paid      bool
}

// CheckoutEvent is a verified webhook event reduced to what the
// payment reconciler acts on.
type CheckoutEvent struct {
	Type      string
	SessionID string
	BookingID uint64
}

// Client talks to Stripe.  All calls run under a bounded timeout so no
// request path blocks indefinitely on the payment processor.
type Client struct {
	webhookSecret string
	defaultOrigin string
	timeout       time.Duration
}

// NewClient configures the global Stripe key and returns a Client.
// defaultOrigin is used for redirect URLs when a request carries no
// Origin header.
func NewClient(secretKey, webhookSecret, defaultOrigin string) *Client {
	stripe.Key = secretKey
	return &Client{
		webhookSecret: webhookSecret,
		defaultOrigin: defaultOrigin,
		timeout:       10 * time.Second,
	}
}

// CreateCheckoutSession creates a Stripe Checkout session for one
// booking: a single line item priced at the booking amount, the
// booking id in the session metadata, and success/cancel URLs on the
// caller's origin.
func (c *Client) CreateCheckoutSession(ctx context.Context, bookingID uint64, amountCents int64, productName, origin string) (*CheckoutSession, error) {
	if origin == "" {
		origin = c.defaultOrigin
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(origin + "/loading/my-bookings?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(origin + "/my-bookings"),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(amountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(productName),
				},
			},
		}},
		ExpiresAt: stripe.Int64(time.Now().Add(sessionExpiry).Unix()),
	}
	params.Context = ctx
	params.AddMetadata(metadataBookingID, strconv.FormatUint(bookingID, 10))

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// SessionStatus retrieves a checkout session from Stripe and reports
// whether it has been paid, together with the booking id from its
// metadata.  Client-supplied success flags are never trusted; this
// query is the authority on the pull path.
func (c *Client) SessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}
	bookingID, err := bookingIDFromMetadata(s.Metadata)
	if err != nil {
		return nil, err
	}
	return &SessionStatus{
		BookingID: bookingID,
		Paid:      s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}, nil
}

// VerifyWebhook checks the Stripe-Signature header against the shared
// webhook secret before trusting the payload, then reduces the event
// to the fields the reconciler needs.  For event types other than
// checkout completion the returned event carries only the type.
func (c *Client) VerifyWebhook(payload []byte, sigHeader string) (*CheckoutEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification: %w", err)
	}
	ev := &CheckoutEvent{Type: string(event.Type)}
	if ev.Type != "checkout.session.completed" {
		return ev, nil
	}
	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	ev.SessionID = s.ID
	bookingID, err := bookingIDFromMetadata(s.Metadata)
	if err != nil {
		return nil, err
	}
	ev.BookingID = bookingID
	return ev, nil
}

func bookingIDFromMetadata(md map[string]string) (uint64, error) {
	raw := md[metadataBookingID]
	if raw == "" {
		return 0, fmt.Errorf("session metadata missing %s", metadataBookingID)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s in session metadata: %q", metadataBookingID, raw)
	}
	return id, nil
}
