package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(-time.Minute)

	unpaid := Booking{ReservedUntil: &deadline}
	assert.True(t, unpaid.Expired(now))
	assert.False(t, unpaid.Expired(now.Add(-2*time.Minute)))

	// The deadline itself counts as expired.
	atDeadline := Booking{ReservedUntil: &now}
	assert.True(t, atDeadline.Expired(now))

	paid := Booking{Paid: true, ReservedUntil: &deadline}
	assert.False(t, paid.Expired(now))

	legacy := Booking{}
	assert.False(t, legacy.Expired(now))
}
