package gateway

import (
	"context"

	"spotix/internal/status"
)

// WalletRail is the internal rail: there is no external charge to
// verify, the debit itself happens inside the settlement transaction
// where the balance check lives. Verify therefore always reports
// Settled and settlement enforces sufficiency.
type WalletRail struct{}

func NewWalletRail() *WalletRail {
	return &WalletRail{}
}

func (w *WalletRail) GetProvider() Provider {
	return ProviderWallet
}

func (w *WalletRail) Initialize(_ context.Context, req *InitializeRequest) (*InitializeResult, error) {
	// Nothing to redirect to; the reference is chargeable immediately.
	return &InitializeResult{Reference: req.Reference}, nil
}

func (w *WalletRail) Verify(_ context.Context, reference string) (*VerifyResult, error) {
	return &VerifyResult{
		Reference: reference,
		State:     StateSettled,
		Message:   "wallet rail, settled at debit time",
	}, nil
}

func (w *WalletRail) SetTransactionChannel(chan *status.Transaction) {}

func (w *WalletRail) Close(context.Context) error { return nil }
