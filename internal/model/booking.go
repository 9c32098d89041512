package model

import "time"

// Booking records one user's reservation attempt for specific seats on
// a specific show.  While Paid is false and ReservedUntil lies in the
// future, the booking exclusively owns its seats in the show's
// occupancy map.  Once Paid flips to true the booking is permanent:
// the expiry reclaimer never touches it and its seats stay occupied.
// An unpaid booking whose deadline has passed is deleted together with
// its occupancy rows as a single atomic unit.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – user who made the reservation.
//  ShowID        – show being reserved.
//  Seats         – seat labels claimed in the show's occupancy map, in
//                  the order they were requested (stored, not re-derived).
//  AmountCents   – total price computed once at creation from the
//                  section price of each seat; never recomputed, even
//                  if show prices change later.
//  Paid          – monotonic false→true, set by the payment reconciler.
//  PaymentLink   – external checkout URL, cleared once paid.
//  ReservedUntil – absolute expiry deadline.  Nil means "no deadline":
//                  paid bookings created before deadlines existed must
//                  never auto-expire.
//  CreatedAt     – row creation timestamp.
type Booking struct {
	ID            uint64     // bookings.id
	UserID        uint64     // bookings.user_id
	ShowID        uint64     // bookings.show_id
	Seats         []string   // booking_seats.seat_label, insertion order
	AmountCents   uint32     // bookings.amount_cents
	Paid          bool       // bookings.is_paid
	PaymentLink   string     // bookings.payment_link (empty once paid)
	ReservedUntil *time.Time // bookings.reserved_until (nullable)
	CreatedAt     time.Time  // bookings.created_at
}

// Expired reports whether the booking's reservation window has passed
// at the given instant.  Paid bookings and bookings without a deadline
// never expire.
func (b *Booking) Expired(now time.Time) bool {
	if b.Paid || b.ReservedUntil == nil {
		return false
	}
	return !b.ReservedUntil.After(now)
}
