package status

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// Settlement preconditions.
	ErrReferenceNotFound  = errors.New("settlement: payment reference not found")
	ErrUserNotFound       = errors.New("settlement: user not found")
	ErrEventNotFound      = errors.New("settlement: event not found")
	ErrTicketTypeNotFound = errors.New("settlement: ticket type not found")
	ErrInsufficientFunds  = errors.New("settlement: insufficient wallet balance")
	ErrInventoryExhausted = errors.New("settlement: no tickets left for this type")
	ErrStorageConflict    = errors.New("settlement: storage conflict, retry")
	ErrUnsupportedPurpose = errors.New("settlement: reference purpose is not ticket")
	ErrAmountMismatch     = errors.New("settlement: provider-reported amount below amount due")

	// Gateway outcomes.
	ErrPaymentFailed = errors.New("payment: gateway reported the charge failed")
	ErrPollTimeout   = errors.New("payment: verification timed out, contact support with your reference")

	// Webhook.
	ErrInvalidSignature = errors.New("webhook: invalid signature")

	// Discounts and referrals.
	ErrDiscountNotFound     = errors.New("discount: code not found for event")
	ErrDiscountExpired      = errors.New("discount: code expired")
	ErrDiscountLimitReached = errors.New("discount: usage limit reached")
	ErrReferralNotFound     = errors.New("referral: code not found")
	ErrWithdrawTooLarge     = errors.New("referral: withdrawal exceeds available gain")

	// Wallet PIN guard.
	ErrPinLocked   = errors.New("pin: too many failed attempts, try again later")
	ErrPinMismatch = errors.New("pin: incorrect pin")
	ErrPinNotSet   = errors.New("pin: wallet pin not set")
)

// Transaction is a confirmed payment pushed by the agent rail over its
// realtime channel.
type Transaction struct {
	Reference string          `json:"reference"`
	AgentID   string          `json:"agent_id"`
	Payer     string          `json:"payer"`
	Amount    decimal.Decimal `json:"amount"` // naira
	Channel   string          `json:"channel"`
	PaidAt    time.Time       `json:"paid_at"`
}
