package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quickshow/movie-ticket-booking/internal/model"
)

func TestSectionFor(t *testing.T) {
	cases := map[string]string{
		"A1":  SectionPremium,
		"b12": SectionPremium,
		"C1":  SectionGold,
		"F9":  SectionGold,
		"G1":  SectionSilver,
		"Z99": SectionSilver,
	}
	for seat, want := range cases {
		assert.Equal(t, want, SectionFor(seat), "seat %s", seat)
	}
}

func TestSeatPriceFallsBackToBase(t *testing.T) {
	show := &model.Show{BasePriceCents: 250, PremiumPriceCents: 300}

	assert.Equal(t, uint32(300), seatPrice(show, "A1"))
	// Gold and silver are unset on this show, so the flat price applies.
	assert.Equal(t, uint32(250), seatPrice(show, "D1"))
	assert.Equal(t, uint32(250), seatPrice(show, "H1"))
}

func TestAmountFor(t *testing.T) {
	show := &model.Show{
		BasePriceCents:    250,
		PremiumPriceCents: 300,
		GoldPriceCents:    300,
		SilverPriceCents:  200,
	}
	assert.Equal(t, uint32(800), amountFor(show, []string{"A1", "C1", "G1"}))
	assert.Equal(t, uint32(0), amountFor(show, nil))
}

func TestNormalizeSeats(t *testing.T) {
	seats, ok := normalizeSeats([]string{" a1 ", "A1", "c12"})
	assert.True(t, ok)
	assert.Equal(t, []string{"A1", "C12"}, seats)

	for _, bad := range []string{"", "A", "1A", "A1B", "aa1"} {
		_, ok := normalizeSeats([]string{bad})
		assert.False(t, ok, "label %q should be rejected", bad)
	}
}
