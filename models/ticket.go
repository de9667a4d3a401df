package models

import (
	"time"
)

// Ticket is one paid-or-free admission right. Owner name and email are
// denormalized from the user record so organizers can read attendee lists
// without joins.
type Ticket struct {
	ID             string        `json:"ticket_id"` // SPTX-TX-XXXXXXXXXX
	OwnerID        string        `json:"owner_id"`
	OwnerName      string        `json:"owner_name"`
	OwnerEmail     string        `json:"owner_email"`
	EventID        string        `json:"event_id"`
	EventName      string        `json:"event_name"`
	EventCreatorID string        `json:"event_creator_id"`
	TicketType     string        `json:"ticket_type"`
	Price          int64         `json:"price"`          // kobo, after discount
	OriginalPrice  int64         `json:"original_price"` // kobo, before discount
	TransactionFee int64         `json:"transaction_fee"`
	TotalAmount    int64         `json:"total_amount"`
	Method         PaymentMethod `json:"payment_method"`

	// PaymentReference is unique across tickets; it is the
	// double-issuance guard.
	PaymentReference string `json:"payment_reference"`

	// Verified is the event-day check-in flag, not payment settlement.
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"purchase_date"`
}
