package gateway

import (
	"context"
	"fmt"

	"spotix/internal/services/gateway/monnify"
	"spotix/internal/status"
	"spotix/utils"
)

// MonnifyAdapter maps the Monnify client onto GatewayInterface.
type MonnifyAdapter struct {
	client *monnify.Client
	cb     *utils.CircuitBreaker
}

func NewMonnifyAdapter(ctx context.Context, cfg *monnify.Config) (*MonnifyAdapter, error) {
	client, err := monnify.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create monnify client: %w", err)
	}
	return &MonnifyAdapter{
		client: client,
		cb:     utils.NewCircuitBreaker("monnify"),
	}, nil
}

func (a *MonnifyAdapter) GetProvider() Provider {
	return ProviderMonnify
}

func (a *MonnifyAdapter) Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResult, error) {
	// Monnify shows customerName on the checkout page; fall back to the
	// email for guest charges.
	name := req.Metadata.PayerName
	if name == "" {
		name = req.Email
	}
	res, err := a.cb.Execute(ctx, func() (any, error) {
		return a.client.Initialize(ctx, req.Amount, req.Email, name, req.Reference, req.CallbackURL)
	})
	if err != nil {
		return nil, err
	}
	init := res.(*monnify.InitResult)
	return &InitializeResult{
		Reference:   req.Reference,
		RedirectURL: init.CheckoutURL,
		AccessCode:  init.TransactionReference,
	}, nil
}

func (a *MonnifyAdapter) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	res, err := a.cb.Execute(ctx, func() (any, error) {
		return a.client.Verify(ctx, reference)
	})
	if err != nil {
		return nil, fmt.Errorf("monnify verify: %w", err)
	}

	tx := res.(*monnify.TransactionStatus)
	result := &VerifyResult{
		Reference: reference,
		Amount:    tx.AmountKobo,
		Message:   tx.PaymentStatus,
		Channel:   tx.PaymentMethod,
	}
	switch monnify.NormalizeStatus(tx.PaymentStatus) {
	case "settled":
		result.State = StateSettled
	case "failed":
		result.State = StateFailed
	default:
		result.State = StatePending
	}
	return result, nil
}

func (a *MonnifyAdapter) SetTransactionChannel(chan *status.Transaction) {
	// Monnify pushes via webhook, not a channel.
}

func (a *MonnifyAdapter) Close(context.Context) error {
	return nil
}
