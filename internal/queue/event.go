// Package queue defines message payloads exchanged over the message broker
// and the background consumers that process them.
package queue

// Queue names used by the publisher and the consumers.  booking.release.wait
// is the delay queue: messages sit there for the reservation window and are
// dead-lettered into booking.release when their TTL elapses.
const (
	BookingConfirmedQueue = "booking.confirmed"
	PaymentOrphanedQueue  = "payment.orphaned"
	SeatReleaseQueue      = "booking.release"
	SeatReleaseWaitQueue  = "booking.release.wait"
)

// BookingConfirmedEvent is published exactly once when a booking
// transitions to paid.  It carries enough information for downstream
// consumers (receipt delivery, analytics) without querying the primary
// database.
type BookingConfirmedEvent struct {
	BookingID   uint64   `json:"booking_id"`
	UserID      uint64   `json:"user_id"`
	ShowID      uint64   `json:"show_id"`
	MovieTitle  string   `json:"movie_title"`
	StartsAt    string   `json:"starts_at"`
	Seats       []string `json:"seats"`
	AmountCents uint32   `json:"amount_cents"`
	ConfirmedAt string   `json:"confirmed_at"`
}

// SeatReleaseTask is the durable deferred task submitted once per
// reservation.  It is published with a per-message TTL equal to the
// reservation window and consumed after that delay; the consumer
// re-checks paid status before reclaiming anything.
type SeatReleaseTask struct {
	BookingID uint64 `json:"booking_id"`
	ShowID    uint64 `json:"show_id"`
}

// PaymentOrphanedEvent records a confirmed payment whose booking had
// already been reclaimed.  The seats are gone, the money is not; the
// event is queued for manual funds reconciliation instead of being
// silently dropped.
type PaymentOrphanedEvent struct {
	BookingID  uint64 `json:"booking_id"`
	VerifiedAt string `json:"verified_at"`
}
