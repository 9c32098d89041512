package booking

import (
	"strings"

	"github.com/quickshow/movie-ticket-booking/internal/model"
)

// Seat sections by row letter.  The section is derived from the first
// character of the seat label: rows A–B are premium, C–F are gold and
// everything from G on is silver.
const (
	SectionPremium = "premium"
	SectionGold    = "gold"
	SectionSilver  = "silver"
)

// SectionFor returns the pricing section for a seat label such as
// "A12".  Labels are case-insensitive.
func SectionFor(seat string) string {
	if seat == "" {
		return SectionSilver
	}
	switch row := strings.ToUpper(seat)[0]; {
	case row == 'A' || row == 'B':
		return SectionPremium
	case row >= 'C' && row <= 'F':
		return SectionGold
	default:
		return SectionSilver
	}
}

// seatPrice returns the price in cents for one seat of the show.  A
// section price of zero means the show predates section pricing and
// the flat base price applies.
func seatPrice(show *model.Show, seat string) uint32 {
	var tier uint32
	switch SectionFor(seat) {
	case SectionPremium:
		tier = show.PremiumPriceCents
	case SectionGold:
		tier = show.GoldPriceCents
	default:
		tier = show.SilverPriceCents
	}
	if tier == 0 {
		return show.BasePriceCents
	}
	return tier
}

// amountFor computes the total booking amount from the section price
// of each requested seat.  The result is stored on the booking at
// creation time and never recomputed, even if show prices change
// later.
func amountFor(show *model.Show, seats []string) uint32 {
	var total uint32
	for _, seat := range seats {
		total += seatPrice(show, seat)
	}
	return total
}

// normalizeSeats upper-cases, trims and deduplicates the requested
// seat labels while preserving request order, and reports whether
// every label looks like a row letter followed by a seat number.
func normalizeSeats(raw []string) ([]string, bool) {
	seats := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, s := range raw {
		label := strings.ToUpper(strings.TrimSpace(s))
		if !validSeatLabel(label) {
			return nil, false
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		seats = append(seats, label)
	}
	return seats, true
}

func validSeatLabel(label string) bool {
	if len(label) < 2 {
		return false
	}
	if label[0] < 'A' || label[0] > 'Z' {
		return false
	}
	for i := 1; i < len(label); i++ {
		if label[i] < '0' || label[i] > '9' {
			return false
		}
	}
	return true
}
