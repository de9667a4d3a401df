package gateway

import (
	"context"

	"spotix/internal/status"
)

// Provider identifies a payment rail.
type Provider string

const (
	ProviderPaystack Provider = "paystack"
	ProviderMonnify  Provider = "monnify"
	ProviderWallet   Provider = "wallet"
	ProviderAgent    Provider = "agent"
)

// VerifyState is the normalized tri-state outcome of a verify call.
// Providers disagree on response shape; adapters map everything onto
// this.
type VerifyState int

const (
	StatePending VerifyState = iota
	StateSettled
	StateFailed
)

func (s VerifyState) String() string {
	switch s {
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	}
	return "pending"
}

// ChargeMetadata is the explicit record carried through the gateway and
// echoed back on webhooks. No open maps; settlement preconditions are
// typed.
type ChargeMetadata struct {
	PayerID        string `json:"payer_id"`
	PayerName      string `json:"payer_name"`
	EventID        string `json:"event_id"`
	EventCreatorID string `json:"event_creator_id"`
	TicketType     string `json:"ticket_type"`
	Purpose        string `json:"purpose"`
}

// InitializeRequest starts a charge. Amount is in kobo.
type InitializeRequest struct {
	Amount      int64
	Email       string
	Reference   string
	CallbackURL string
	Metadata    ChargeMetadata
}

type InitializeResult struct {
	Reference   string
	RedirectURL string
	AccessCode  string
}

// VerifyResult is the normalized verify outcome. A Pending state with a
// Message indicates a retryable condition (timeout, ambiguous payload),
// never a terminal failure.
type VerifyResult struct {
	Reference string
	State     VerifyState
	Amount    int64 // kobo as reported by the provider, 0 if absent
	Message   string
	Channel   string
}

// GatewayInterface is the common surface of every payment rail. Verify
// never writes anything; settlement is the only writer.
type GatewayInterface interface {
	GetProvider() Provider

	Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResult, error)

	Verify(ctx context.Context, reference string) (*VerifyResult, error)

	// SetTransactionChannel registers a sink for push-confirmed
	// transactions on rails that support it; others ignore it.
	SetTransactionChannel(ch chan *status.Transaction)

	Close(ctx context.Context) error
}
