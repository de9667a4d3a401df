package models

import (
	"time"
)

// Purpose says what a payment reference is paying for.
type Purpose string

const (
	PurposeTicket Purpose = "ticket"
	PurposeVote   Purpose = "vote"
	PurposeMerch  Purpose = "merch"
)

// PaymentMethod is the rail the payer charged through.
type PaymentMethod string

const (
	MethodPaystack PaymentMethod = "paystack"
	MethodMonnify  PaymentMethod = "monnify"
	MethodWallet   PaymentMethod = "wallet"
	MethodAgent    PaymentMethod = "agent"
	MethodBitcoin  PaymentMethod = "bitcoin"
)

// PaymentReference records an intent to pay. It is created before the
// gateway is invoked and is never deleted; settlement is the only writer
// of the settled/settled_at/ticket_id fields.
type PaymentReference struct {
	Reference      string        `json:"reference"`
	PayerID        string        `json:"payer_id"` // empty for guest checkout
	Amount         int64         `json:"amount"`   // kobo, immutable after creation
	Purpose        Purpose       `json:"purpose"`
	EventID        string        `json:"event_id"`
	EventCreatorID string        `json:"event_creator_id"`
	TicketType     string        `json:"ticket_type"`
	ContestantID   string        `json:"contestant_id,omitempty"`
	DiscountCode   string        `json:"discount_code,omitempty"`
	Method         PaymentMethod `json:"payment_method"`
	Settled        bool          `json:"settled"`
	SettledAt      *time.Time    `json:"settled_at,omitempty"`
	TicketID       string        `json:"ticket_id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}
