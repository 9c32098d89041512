package model

import "time"

// Show represents one scheduled screening of a movie.  Pricing is split
// into three sections derived from a seat's row letter: rows A–B are
// premium, rows C–F are gold and everything else is silver.  A section
// price of zero means the section falls back to BasePriceCents, which
// mirrors shows created before section pricing existed.
//
// The seats currently claimed for a show live in the occupied_seats
// table (seat label → holding user), not on the Show itself.  A seat
// appears there exactly as long as an unpaid-or-paid booking claims it.
//
// Fields:
//  ID                – primary key identifier.
//  Title             – movie title shown on checkout and confirmations.
//  StartsAt          – when the screening begins (UTC).
//  BasePriceCents    – flat fallback price in cents.
//  PremiumPriceCents – price for rows A–B (0 = use base price).
//  GoldPriceCents    – price for rows C–F (0 = use base price).
//  SilverPriceCents  – price for all remaining rows (0 = use base price).
//  CreatedAt         – row creation timestamp.
type Show struct {
	ID                uint64    // shows.id
	Title             string    // shows.title
	StartsAt          time.Time // shows.starts_at
	BasePriceCents    uint32    // shows.base_price_cents
	PremiumPriceCents uint32    // shows.premium_price_cents
	GoldPriceCents    uint32    // shows.gold_price_cents
	SilverPriceCents  uint32    // shows.silver_price_cents
	CreatedAt         time.Time // shows.created_at
}
