package models

import (
	"time"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// DiscountCode is scoped to a single event. Validation of expiry and
// usage cap is advisory at request time; the authoritative used_count
// increment happens inside the settlement transaction.
type DiscountCode struct {
	ID        string       `json:"id"`
	EventID   string       `json:"event_id"`
	Code      string       `json:"code"`
	Type      DiscountType `json:"discount_type"`
	Value     int64        `json:"discount_value"` // percent or kobo depending on Type
	MaxUses   int          `json:"max_uses"`
	UsedCount int          `json:"used_count"`
	ExpiresAt time.Time    `json:"expiry_date"`
}

// AmountOff returns the kobo discount for the given price. Fixed
// discounts are clamped to the price so the subtotal never goes
// negative.
func (d *DiscountCode) AmountOff(price int64) int64 {
	switch d.Type {
	case DiscountPercentage:
		return price * d.Value / 100
	case DiscountFixed:
		if d.Value > price {
			return price
		}
		return d.Value
	}
	return 0
}

// Expired reports whether the code is past its expiry at the given time.
func (d *DiscountCode) Expired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}

// Exhausted reports whether the usage cap has been reached.
func (d *DiscountCode) Exhausted() bool {
	return d.UsedCount >= d.MaxUses
}
