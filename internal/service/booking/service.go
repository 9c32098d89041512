// Package booking implements the seat-reservation and booking-lifecycle
// engine: deciding whether a seat request succeeds, holding seats
// exclusively for a bounded window, reconciling payment completion from
// two independent racing notification paths, and reclaiming inventory
// on timeout or failure.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/quickshow/movie-ticket-booking/internal/model"
	"github.com/quickshow/movie-ticket-booking/internal/payment"
	"github.com/quickshow/movie-ticket-booking/internal/queue"
	"github.com/quickshow/movie-ticket-booking/internal/repository"
)

// DefaultReservationWindow is how long an unpaid booking holds its
// seats before the expiry reclaimer may release them.
const DefaultReservationWindow = 10 * time.Minute

// ErrInvalidSeats is returned when the request contains a malformed or
// empty seat list.
var ErrInvalidSeats = errors.New("invalid seat selection")

// ErrPaymentNotCompleted is returned by the pull verification path
// when the payment processor reports the session as not paid.  No
// state changes; the caller may poll again.
var ErrPaymentNotCompleted = errors.New("payment not completed")

// ErrPaymentUnavailable is returned when the payment processor cannot
// be reached while creating a checkout session.  The reservation is
// rolled back entirely before this error is reported.
var ErrPaymentUnavailable = errors.New("payment provider unavailable")

// ShowStore is the show-side persistence the engine depends on.
type ShowStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Show, error)
	OccupiedSeats(ctx context.Context, showID uint64) ([]string, error)
}

// BookingStore is the booking-side persistence.  Every method is
// atomic on its own; CreateWithSeats in particular must fail the whole
// operation, persisting nothing, when any seat was claimed since the
// caller's availability check.
type BookingStore interface {
	CreateWithSeats(ctx context.Context, b *model.Booking) error
	Cancel(ctx context.Context, bookingID uint64) error
	SetPaymentLink(ctx context.Context, bookingID uint64, link string) error
	MarkPaid(ctx context.Context, bookingID uint64) (bool, error)
	GetByID(ctx context.Context, bookingID uint64) (*model.Booking, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	ReclaimExpiredByShow(ctx context.Context, showID uint64, now time.Time) (int, error)
	ReclaimExpiredByUser(ctx context.Context, userID uint64, now time.Time) (int, error)
	ReclaimBooking(ctx context.Context, bookingID uint64, now time.Time) (bool, error)
}

// PaymentProvider is the external payment processor at its contract
// boundary.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, bookingID uint64, amountCents int64, productName, origin string) (*payment.CheckoutSession, error)
	SessionStatus(ctx context.Context, sessionID string) (*payment.SessionStatus, error)
}

// EventPublisher emits domain events for downstream consumers.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	PublishPaymentOrphaned(ctx context.Context, ev queue.PaymentOrphanedEvent) error
}

// ReleaseScheduler submits one durable delayed seat-release task per
// reservation, to fire after the reservation window regardless of
// process restarts.
type ReleaseScheduler interface {
	ScheduleSeatRelease(ctx context.Context, bookingID, showID uint64, delay time.Duration) error
}

// FinalizeOutcome describes what a payment-finalization attempt did.
type FinalizeOutcome int

const (
	// OutcomeConfirmed: this attempt performed the unpaid→paid
	// transition and the confirmation event was published.
	OutcomeConfirmed FinalizeOutcome = iota
	// OutcomeAlreadyPaid: a racing confirmation path got there first;
	// nothing changed.
	OutcomeAlreadyPaid
	// OutcomeReservationExpired: the booking was reclaimed before the
	// confirmation arrived.  Non-fatal; the gap is queued for manual
	// reconciliation.
	OutcomeReservationExpired
)

// Service is the booking-lifecycle engine.  All state lives behind the
// store interfaces; the service itself is stateless and safe for
// concurrent use.
type Service struct {
	shows    ShowStore
	bookings BookingStore
	payments PaymentProvider
	events   EventPublisher
	releases ReleaseScheduler
	window   time.Duration
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.  Used by tests to move a
// booking past its deadline without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the engine.  A non-positive window falls back to
// DefaultReservationWindow.
func NewService(shows ShowStore, bookings BookingStore, payments PaymentProvider, events EventPublisher, releases ReleaseScheduler, window time.Duration, opts ...Option) *Service {
	if shows == nil || bookings == nil || payments == nil || events == nil || releases == nil {
		panic("nil dependency passed to NewService")
	}
	if window <= 0 {
		window = DefaultReservationWindow
	}
	s := &Service{
		shows:    shows,
		bookings: bookings,
		payments: payments,
		events:   events,
		releases: releases,
		window:   window,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OccupiedSeats returns the seat labels currently held for a show,
// after lazily reclaiming any bookings whose deadline has passed.
// Without the reclaim pass, seats held by an already-expired
// reservation would show up as taken.
func (s *Service) OccupiedSeats(ctx context.Context, showID uint64) ([]string, error) {
	if _, err := s.shows.GetByID(ctx, showID); err != nil {
		return nil, err
	}
	if _, err := s.bookings.ReclaimExpiredByShow(ctx, showID, s.now()); err != nil {
		return nil, fmt.Errorf("reclaim expired bookings: %w", err)
	}
	return s.shows.OccupiedSeats(ctx, showID)
}

// Reserve creates an unpaid booking for the requested seats, claims
// them in the show's occupancy map, opens a checkout session with the
// payment processor and schedules the deferred seat release.  The
// returned booking carries the checkout URL in PaymentLink.
//
// The availability check and the occupancy write are not one critical
// section; the store's atomic claim is what decides races.  Two
// requests that both pass the check here still serialize at
// CreateWithSeats, where exactly one wins and the other gets
// repository.ErrSeatsUnavailable with nothing persisted.  If the
// processor call fails after the booking was persisted, the
// reservation is rolled back rather than left dangling.
func (s *Service) Reserve(ctx context.Context, userID, showID uint64, seats []string, origin string) (*model.Booking, error) {
	normalized, ok := normalizeSeats(seats)
	if !ok || len(normalized) == 0 {
		return nil, ErrInvalidSeats
	}

	// Lazy expiry first, so stale holds do not cause false contention.
	if _, err := s.bookings.ReclaimExpiredByShow(ctx, showID, s.now()); err != nil {
		return nil, fmt.Errorf("reclaim expired bookings: %w", err)
	}

	show, err := s.shows.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}

	occupied, err := s.shows.OccupiedSeats(ctx, showID)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(occupied))
	for _, seat := range occupied {
		taken[seat] = struct{}{}
	}
	for _, seat := range normalized {
		if _, ok := taken[seat]; ok {
			return nil, repository.ErrSeatsUnavailable
		}
	}

	deadline := s.now().Add(s.window)
	b := &model.Booking{
		UserID:        userID,
		ShowID:        showID,
		Seats:         normalized,
		AmountCents:   amountFor(show, normalized),
		ReservedUntil: &deadline,
	}
	if err := s.bookings.CreateWithSeats(ctx, b); err != nil {
		return nil, err
	}

	sess, err := s.payments.CreateCheckoutSession(ctx, b.ID, int64(b.AmountCents), show.Title, origin)
	if err != nil {
		// Nothing may dangle: no checkout session means no reservation.
		if cancelErr := s.bookings.Cancel(ctx, b.ID); cancelErr != nil {
			log.Printf("booking: rollback of booking %d failed: %v", b.ID, cancelErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}
	if err := s.bookings.SetPaymentLink(ctx, b.ID, sess.URL); err != nil {
		log.Printf("booking: store payment link for booking %d failed: %v", b.ID, err)
	}
	b.PaymentLink = sess.URL

	// The scheduled release is a backstop; lazy expiry on read/write
	// paths keeps the system correct even when scheduling fails, so a
	// failure here does not fail the reservation.
	if err := s.releases.ScheduleSeatRelease(ctx, b.ID, showID, s.window); err != nil {
		log.Printf("booking: schedule seat release for booking %d failed: %v", b.ID, err)
	}
	return b, nil
}

// Finalize performs the idempotent unpaid→paid transition for a
// booking and publishes the confirmation event exactly once logically.
// Both confirmation paths (webhook push and client pull) call it; they
// may race each other and the expiry reclaimer in any order.
func (s *Service) Finalize(ctx context.Context, bookingID uint64) (FinalizeOutcome, error) {
	newlyPaid, err := s.bookings.MarkPaid(ctx, bookingID)
	if errors.Is(err, repository.ErrBookingNotFound) {
		// Payment verified but the reservation was already reclaimed.
		// Reported as success so the processor stops retrying; the
		// funds-vs-inventory mismatch goes to manual reconciliation.
		log.Printf("booking: payment confirmed for booking %d after its reservation expired", bookingID)
		orphan := queue.PaymentOrphanedEvent{
			BookingID:  bookingID,
			VerifiedAt: s.now().Format(time.RFC3339),
		}
		if pubErr := s.events.PublishPaymentOrphaned(ctx, orphan); pubErr != nil {
			log.Printf("booking: publish payment.orphaned for booking %d failed: %v", bookingID, pubErr)
		}
		return OutcomeReservationExpired, nil
	}
	if err != nil {
		return 0, err
	}
	if !newlyPaid {
		return OutcomeAlreadyPaid, nil
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		log.Printf("booking: load confirmed booking %d failed: %v", bookingID, err)
		return OutcomeConfirmed, nil
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:   b.ID,
		UserID:      b.UserID,
		ShowID:      b.ShowID,
		Seats:       b.Seats,
		AmountCents: b.AmountCents,
		ConfirmedAt: s.now().Format(time.RFC3339),
	}
	if show, showErr := s.shows.GetByID(ctx, b.ShowID); showErr == nil {
		ev.MovieTitle = show.Title
		ev.StartsAt = show.StartsAt.Format(time.RFC3339)
	}
	if err := s.events.PublishBookingConfirmed(ctx, ev); err != nil {
		log.Printf("booking: publish booking.confirmed for booking %d failed: %v", b.ID, err)
	}
	return OutcomeConfirmed, nil
}

// VerifySession is the pull confirmation path: the client returns from
// checkout with a session reference, and the processor is queried for
// that session's authoritative status.  Anything other than paid
// leaves all state untouched.
func (s *Service) VerifySession(ctx context.Context, sessionID string) (FinalizeOutcome, error) {
	status, err := s.payments.SessionStatus(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}
	if !status.Paid {
		return 0, ErrPaymentNotCompleted
	}
	return s.Finalize(ctx, status.BookingID)
}

// ReleaseBooking is the scheduled-task entry point for the expiry
// reclaimer.  It re-checks paid status and the deadline inside the
// store, so it is a no-op when the booking became paid in the interim
// or was already reclaimed by the lazy path.
func (s *Service) ReleaseBooking(ctx context.Context, bookingID uint64) error {
	reclaimed, err := s.bookings.ReclaimBooking(ctx, bookingID, s.now())
	if err != nil {
		return fmt.Errorf("reclaim booking %d: %w", bookingID, err)
	}
	if reclaimed {
		log.Printf("booking: released unpaid booking %d after reservation window", bookingID)
	}
	return nil
}

// MyBookings lists a user's bookings newest first, after reclaiming
// any of their unpaid bookings whose deadline has passed.
func (s *Service) MyBookings(ctx context.Context, userID uint64) ([]model.Booking, error) {
	if _, err := s.bookings.ReclaimExpiredByUser(ctx, userID, s.now()); err != nil {
		return nil, fmt.Errorf("reclaim expired bookings: %w", err)
	}
	return s.bookings.ListByUser(ctx, userID)
}
