package handler

import (
	"errors"    // for errors.Is comparisons
	"io"        // reading the raw webhook payload
	"net/http"  // HTTP status codes and MaxBytesReader

	"github.com/labstack/echo/v4"                                        // Echo web framework
	"github.com/quickshow/movie-ticket-booking/internal/payment"         // payment processor types
	"github.com/quickshow/movie-ticket-booking/internal/service/booking" // booking lifecycle engine
)

// webhookMaxBytes bounds the webhook payload size before signature
// verification, matching Stripe's own example handlers.
const webhookMaxBytes = int64(65536)

// WebhookVerifier checks a raw webhook payload against its signature
// header and decodes the event.  *payment.Client satisfies it.
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, sigHeader string) (*payment.CheckoutEvent, error)
}

// PaymentHandler exposes the two payment confirmation paths: the
// processor's server-to-server webhook and the client-side verify
// endpoint.  Both converge on the same idempotent finalization, so
// they may arrive in any order or both.
type PaymentHandler struct {
	Verifier WebhookVerifier  // webhook signature verification
	Svc      *booking.Service // booking lifecycle engine
}

// NewPaymentHandler constructs a PaymentHandler.  Both dependencies
// must be non-nil.
func NewPaymentHandler(verifier WebhookVerifier, svc *booking.Service) *PaymentHandler {
	if verifier == nil || svc == nil {
		panic("nil dependency passed to NewPaymentHandler")
	}
	return &PaymentHandler{Verifier: verifier, Svc: svc}
}

// StripeWebhook handles POST /v1/payments/stripe/webhook.  It verifies
// the Stripe-Signature header over the raw payload, rejects anything
// unsigned or tampered with 400, and finalizes the referenced booking
// on checkout.session.completed.  Event types the service does not
// care about are acknowledged with 200 so the processor stops
// delivering them.  A booking that expired before the webhook arrived
// is also acknowledged; the mismatch is queued for reconciliation
// rather than surfaced as a delivery failure.
func (h *PaymentHandler) StripeWebhook(c echo.Context) error {
	req := c.Request()
	payload, err := io.ReadAll(http.MaxBytesReader(c.Response(), req.Body, webhookMaxBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read payload"})
	}
	event, err := h.Verifier.VerifyWebhook(payload, req.Header.Get("Stripe-Signature"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}
	if event.Type != "checkout.session.completed" || event.BookingID == 0 {
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}
	if _, err := h.Svc.Finalize(req.Context(), event.BookingID); err != nil {
		// 500 makes the processor retry the delivery later.
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to finalize booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

// VerifyPayment handles POST /v1/payments/verify.  The client calls it
// after returning from checkout with a "session_id" in the body.  The
// processor is queried for the session's authoritative status; a
// session that is not paid changes nothing and reports verified=false,
// so the client may poll.  A paid session finalizes the booking the
// same way the webhook does.
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := c.Bind(&body); err != nil || body.SessionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id is required"})
	}
	outcome, err := h.Svc.VerifySession(c.Request().Context(), body.SessionID)
	if err != nil {
		if errors.Is(err, booking.ErrPaymentNotCompleted) {
			return c.JSON(http.StatusOK, echo.Map{"verified": false})
		}
		if errors.Is(err, booking.ErrPaymentUnavailable) {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify payment"})
	}
	status := "confirmed"
	switch outcome {
	case booking.OutcomeAlreadyPaid:
		status = "already_confirmed"
	case booking.OutcomeReservationExpired:
		status = "expired"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"verified": true,
		"status":   status,
	})
}
