package handler

import (
	"errors"   // for errors.Is comparisons against sentinel values
	"net/http" // HTTP status codes
	"time"     // formatting reservation deadlines

	"github.com/labstack/echo/v4"                                        // Echo web framework
	"github.com/quickshow/movie-ticket-booking/internal/repository"      // repository sentinel errors
	"github.com/quickshow/movie-ticket-booking/internal/service/booking" // booking lifecycle engine
)

// BookingHandler exposes the customer-facing booking endpoints.  All
// methods assume that JWT authentication and role validation has
// already been performed by middleware.  Methods may return 401
// Unauthorized if the user ID cannot be extracted from the context.
type BookingHandler struct {
	Svc           *booking.Service // booking lifecycle engine
	DefaultOrigin string           // frontend origin used when the request carries none
}

// NewBookingHandler constructs a BookingHandler.  The service must be
// non-nil.
func NewBookingHandler(svc *booking.Service, defaultOrigin string) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc, DefaultOrigin: defaultOrigin}
}

// CreateBooking handles POST /v1/bookings.  The request body must
// contain a JSON object with a "show_id" and a non-empty "seats" array
// of seat labels such as "A1".  On success it returns 201 Created with
// the booking ID, the total amount and the checkout URL the client
// must redirect to.  If any requested seat is already taken it returns
// 409 Conflict; if the payment processor cannot be reached the
// reservation is rolled back and 502 is returned.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ShowID uint64   `json:"show_id"`
		Seats  []string `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ShowID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "show_id is required"})
	}
	if len(body.Seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats is required"})
	}
	origin := c.Request().Header.Get("Origin")
	if origin == "" {
		origin = h.DefaultOrigin
	}
	b, err := h.Svc.Reserve(c.Request().Context(), userID, body.ShowID, body.Seats, origin)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrInvalidSeats):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat labels"})
		case errors.Is(err, repository.ErrShowNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		case errors.Is(err, repository.ErrSeatsUnavailable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "some seats are unavailable"})
		case errors.Is(err, booking.ErrPaymentUnavailable):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}
	resp := echo.Map{
		"booking_id":   b.ID,
		"seats":        b.Seats,
		"amount_cents": b.AmountCents,
		"payment_url":  b.PaymentLink,
	}
	if b.ReservedUntil != nil {
		resp["reserved_until"] = b.ReservedUntil.Format(time.RFC3339)
	}
	return c.JSON(http.StatusCreated, resp)
}

// GetOccupiedSeats handles GET /v1/shows/:id/seats.  It returns the
// seat labels currently taken for a show, after expired reservations
// have been reclaimed, so a free seat never shows up as occupied.
func (h *BookingHandler) GetOccupiedSeats(c echo.Context) error {
	showID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	seats, err := h.Svc.OccupiedSeats(c.Request().Context(), showID)
	if err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load occupied seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"show_id":        showID,
		"occupied_seats": seats,
	})
}

// BookingItem is the JSON shape for booking listings.
type BookingItem struct {
	ID            uint64   `json:"id"`
	ShowID        uint64   `json:"show_id"`
	Seats         []string `json:"seats"`
	AmountCents   uint32   `json:"amount_cents"`
	Paid          bool     `json:"paid"`
	PaymentURL    string   `json:"payment_url,omitempty"`
	ReservedUntil *string  `json:"reserved_until,omitempty"`
}

// ListMyBookings handles GET /v1/my-bookings.  It returns all bookings
// created by the current user, newest first.  When no bookings exist
// it returns an empty array.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.Svc.MyBookings(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	items := make([]BookingItem, 0, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		item := BookingItem{
			ID:          b.ID,
			ShowID:      b.ShowID,
			Seats:       b.Seats,
			AmountCents: b.AmountCents,
			Paid:        b.Paid,
		}
		if !b.Paid {
			item.PaymentURL = b.PaymentLink
			if b.ReservedUntil != nil {
				until := b.ReservedUntil.Format(time.RFC3339)
				item.ReservedUntil = &until
			}
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
	})
}
