package main // Entry point package

import (
	"log"  // Logging library
	"time" // Reservation window arithmetic

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/quickshow/movie-ticket-booking/internal/config"
	"github.com/quickshow/movie-ticket-booking/internal/database"
	"github.com/quickshow/movie-ticket-booking/internal/handler"
	"github.com/quickshow/movie-ticket-booking/internal/middleware"
	"github.com/quickshow/movie-ticket-booking/internal/payment"
	"github.com/quickshow/movie-ticket-booking/internal/queue"
	"github.com/quickshow/movie-ticket-booking/internal/repository"
	"github.com/quickshow/movie-ticket-booking/internal/router"
	queuepub "github.com/quickshow/movie-ticket-booking/internal/service"
	"github.com/quickshow/movie-ticket-booking/internal/service/booking"
)

func main() {
	// Load .env when present; real deployments set env vars directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	showRepo := repository.NewShowRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	publisher := queuepub.New()
	stripeClient := payment.NewClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.FrontendURL)

	window := time.Duration(cfg.ReservationWindowMin) * time.Minute
	svc := booking.NewService(showRepo, bookingRepo, stripeClient, publisher, publisher, window)

	// Background consumers: the durable seat-release schedule and the
	// confirmation fan-out.  Both reconnect on broker failure.
	go queue.StartSeatReleaseConsumer(svc)
	go queue.StartBookingConfirmedConsumer()

	e := echo.New()
	e.HideBanner = true

	// Redis-backed rate limiting and catalogue caching.  A nil client
	// disables both; the booking flow itself never touches Redis.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis: unavailable, rate limiting and caching disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	showHandler := handler.NewShowHandler(showRepo)
	bookingHandler := handler.NewBookingHandler(svc, cfg.FrontendURL)
	paymentHandler := handler.NewPaymentHandler(stripeClient, svc)
	adminHandler := handler.NewAdminHandler(showRepo)

	router.RegisterRoutes(e)
	router.RegisterPublic(e, showHandler, bookingHandler, cacheMW)
	router.RegisterCustomer(e, bookingHandler, cfg.JWTSecret)
	router.RegisterPayments(e, paymentHandler)
	router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
