package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework used for routing

	"github.com/quickshow/movie-ticket-booking/internal/handler"    // handlers implementing the endpoints
	"github.com/quickshow/movie-ticket-booking/internal/middleware" // JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated show catalogue.  The
// optional cache middleware (nil to disable) is applied only here:
// catalogue data tolerates a short staleness window, seat occupancy
// does not.
func RegisterPublic(e *echo.Echo, s *handler.ShowHandler, b *handler.BookingHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("/shows", s.ListShows)
	g.GET("/shows/:id", s.GetShow)

	// Occupancy is registered outside the cached group: it must always
	// reflect the live occupancy map, including lazy expiry.
	e.GET("/v1/shows/:id/seats", b.GetOccupiedSeats)
}

// RegisterCustomer registers the booking endpoints.  All of them
// require a valid access token with the CUSTOMER or ADMIN role.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(middleware.RoleCustomer, middleware.RoleAdmin))
	g.POST("/bookings", b.CreateBooking)
	g.GET("/my-bookings", b.ListMyBookings)
}

// RegisterPayments registers the payment confirmation endpoints.  The
// webhook is authenticated by its signature, not by a JWT: the payment
// processor calls it server-to-server.  The verify endpoint is safe to
// expose without a session because a session ID only finalizes a
// booking the processor already reports as paid.
func RegisterPayments(e *echo.Echo, p *handler.PaymentHandler) {
	g := e.Group("/v1/payments")
	g.POST("/stripe/webhook", p.StripeWebhook)
	g.POST("/verify", p.VerifyPayment)
}

// RegisterAdmin registers the show management endpoints under
// /v1/admin, restricted to the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(middleware.RoleAdmin))
	g.POST("/shows", a.CreateShow)
	g.DELETE("/shows/:id", a.DeleteShow)
}
