package gateway

import (
	"context"
	"errors"
	"fmt"

	"spotix/internal/services/gateway/paystack"
	"spotix/internal/status"
	"spotix/utils"
)

// PaystackAdapter maps the Paystack client onto GatewayInterface and
// runs outbound calls behind a circuit breaker.
type PaystackAdapter struct {
	client *paystack.Client
	cb     *utils.CircuitBreaker
}

func NewPaystackAdapter(cfg *paystack.Config) *PaystackAdapter {
	return &PaystackAdapter{
		client: paystack.New(cfg),
		cb:     utils.NewCircuitBreaker("paystack"),
	}
}

func (a *PaystackAdapter) GetProvider() Provider {
	return ProviderPaystack
}

func (a *PaystackAdapter) Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResult, error) {
	res, err := a.cb.Execute(ctx, func() (any, error) {
		return a.client.Initialize(ctx, req.Amount, req.Email, req.Reference, req.CallbackURL, req.Metadata)
	})
	if err != nil {
		return nil, err
	}
	init := res.(*paystack.InitResult)
	return &InitializeResult{
		Reference:   init.Reference,
		RedirectURL: init.AuthorizationURL,
		AccessCode:  init.AccessCode,
	}, nil
}

func (a *PaystackAdapter) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	res, err := a.cb.Execute(ctx, func() (any, error) {
		return a.client.Verify(ctx, reference)
	})
	if err != nil {
		// A timeout is retryable: surface Pending, not Failed.
		if errors.Is(err, paystack.ErrTimeout) {
			return &VerifyResult{
				Reference: reference,
				State:     StatePending,
				Message:   "gateway timed out, retry verification",
			}, nil
		}
		return nil, fmt.Errorf("paystack verify: %w", err)
	}

	payload := res.(*paystack.VerifyPayload)
	result := &VerifyResult{
		Reference: reference,
		Amount:    payload.Data.Amount,
		Message:   payload.Data.GatewayResponse,
		Channel:   payload.Data.Channel,
	}
	switch paystack.Normalize(payload) {
	case paystack.OutcomeSettled:
		result.State = StateSettled
	case paystack.OutcomeFailed:
		result.State = StateFailed
	default:
		result.State = StatePending
		if result.Message == "" {
			result.Message = payload.Message
		}
	}
	return result, nil
}

func (a *PaystackAdapter) SetTransactionChannel(chan *status.Transaction) {
	// Paystack pushes via webhook, not a channel.
}

func (a *PaystackAdapter) Close(context.Context) error {
	return nil
}
