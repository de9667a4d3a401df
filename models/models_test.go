package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountAmountOff(t *testing.T) {
	percentage := DiscountCode{Type: DiscountPercentage, Value: 10}
	assert.Equal(t, int64(100), percentage.AmountOff(1000))
	assert.Equal(t, int64(0), percentage.AmountOff(0))

	fixed := DiscountCode{Type: DiscountFixed, Value: 300}
	assert.Equal(t, int64(300), fixed.AmountOff(1000))

	// A fixed discount larger than the price clamps; the subtotal never
	// goes negative.
	assert.Equal(t, int64(200), fixed.AmountOff(200))

	unknown := DiscountCode{Type: "bogus", Value: 50}
	assert.Equal(t, int64(0), unknown.AmountOff(1000))
}

func TestDiscountExpiryAndCap(t *testing.T) {
	now := time.Now()
	d := DiscountCode{ExpiresAt: now.Add(time.Minute), MaxUses: 2, UsedCount: 1}

	assert.False(t, d.Expired(now))
	assert.True(t, d.Expired(now.Add(2*time.Minute)))

	assert.False(t, d.Exhausted())
	d.UsedCount = 2
	assert.True(t, d.Exhausted())
}

func TestTicketTypeByName(t *testing.T) {
	ev := Event{TicketTypes: []TicketType{
		{Name: "Regular", Price: 2000, Available: 10},
		{Name: "VIP", Price: 10000, Available: 2},
	}}

	tt := ev.TicketTypeByName("VIP")
	require.NotNil(t, tt)
	assert.Equal(t, int64(10000), tt.Price)

	// The pointer aliases the event's slice so inventory mutations stick.
	tt.Available--
	assert.Equal(t, 1, ev.TicketTypes[1].Available)

	assert.Nil(t, ev.TicketTypeByName("Table"))
}

func TestReferralHasReferred(t *testing.T) {
	r := ReferralLedger{ReferredUsers: []string{"u1", "u2"}}
	assert.True(t, r.HasReferred("u1"))
	assert.False(t, r.HasReferred("u3"))

	var empty ReferralLedger
	assert.False(t, empty.HasReferred("u1"))
}
