package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"spotix/config"
	"spotix/internal/services/gateway"
	"spotix/internal/status"
	"spotix/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGateway replays a fixed sequence of verify outcomes.
type scriptedGateway struct {
	provider gateway.Provider
	states   []gateway.VerifyState
	calls    atomic.Int32
}

func (g *scriptedGateway) GetProvider() gateway.Provider { return g.provider }

func (g *scriptedGateway) Initialize(context.Context, *gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	return &gateway.InitializeResult{}, nil
}

func (g *scriptedGateway) Verify(_ context.Context, reference string) (*gateway.VerifyResult, error) {
	n := int(g.calls.Add(1)) - 1
	state := g.states[len(g.states)-1]
	if n < len(g.states) {
		state = g.states[n]
	}
	return &gateway.VerifyResult{Reference: reference, State: state, Amount: 2150}, nil
}

func (g *scriptedGateway) SetTransactionChannel(chan *status.Transaction) {}
func (g *scriptedGateway) Close(context.Context) error                   { return nil }

// recordingSettler counts settle calls without touching a store.
type recordingSettler struct {
	calls atomic.Int32
	last  *SettleContext
}

func (s *recordingSettler) Settle(_ context.Context, reference string, sc *SettleContext) (*SettleResult, error) {
	s.calls.Add(1)
	s.last = sc
	return &SettleResult{Ticket: &models.Ticket{ID: "SPTX-TX-TEST", PaymentReference: reference}}, nil
}

func pollConfig() *config.Config {
	return &config.Config{
		PollInterval: 5 * time.Millisecond,
		PollTimeout:  60 * time.Millisecond,
	}
}

func TestPollUntilSettledHandsOffToSettler(t *testing.T) {
	gw := &scriptedGateway{
		provider: gateway.ProviderPaystack,
		states:   []gateway.VerifyState{gateway.StatePending, gateway.StatePending, gateway.StateSettled},
	}
	registry := gateway.NewRegistry()
	registry.RegisterGateway(gw)
	settler := &recordingSettler{}

	svc := NewVerifyService(registry, settler, nil, pollConfig())
	res, err := svc.PollUntilSettled(context.Background(), gateway.ProviderPaystack, "SPTX-TX-1A234567B8")
	require.NoError(t, err)
	assert.Equal(t, "SPTX-TX-TEST", res.Ticket.ID)
	assert.Equal(t, int32(1), settler.calls.Load())
	require.NotNil(t, settler.last)
	assert.Equal(t, models.MethodPaystack, settler.last.Method)
	assert.Equal(t, int64(2150), settler.last.AmountPaid)
}

func TestPollUntilSettledTimesOutWhilePending(t *testing.T) {
	gw := &scriptedGateway{
		provider: gateway.ProviderPaystack,
		states:   []gateway.VerifyState{gateway.StatePending},
	}
	registry := gateway.NewRegistry()
	registry.RegisterGateway(gw)
	settler := &recordingSettler{}

	svc := NewVerifyService(registry, settler, nil, pollConfig())
	_, err := svc.PollUntilSettled(context.Background(), gateway.ProviderPaystack, "SPTX-TX-1A234567B8")
	require.ErrorIs(t, err, status.ErrPollTimeout)

	// A timeout is not a failure: the settler must never have run.
	assert.Equal(t, int32(0), settler.calls.Load())
	assert.GreaterOrEqual(t, gw.calls.Load(), int32(2), "should have retried while pending")
}

func TestPollUntilSettledStopsOnFailure(t *testing.T) {
	gw := &scriptedGateway{
		provider: gateway.ProviderPaystack,
		states:   []gateway.VerifyState{gateway.StateFailed},
	}
	registry := gateway.NewRegistry()
	registry.RegisterGateway(gw)
	settler := &recordingSettler{}

	svc := NewVerifyService(registry, settler, nil, pollConfig())
	_, err := svc.PollUntilSettled(context.Background(), gateway.ProviderPaystack, "SPTX-TX-1A234567B8")
	require.ErrorIs(t, err, status.ErrPaymentFailed)
	assert.Equal(t, int32(0), settler.calls.Load())
	assert.Equal(t, int32(1), gw.calls.Load(), "terminal failure should not be retried")
}

// slowSettler records the state of its context after the poll deadline
// has long passed.
type slowSettler struct {
	delay  time.Duration
	ctxErr error
}

func (s *slowSettler) Settle(ctx context.Context, reference string, _ *SettleContext) (*SettleResult, error) {
	time.Sleep(s.delay)
	s.ctxErr = ctx.Err()
	return &SettleResult{Ticket: &models.Ticket{ID: "SPTX-TX-TEST", PaymentReference: reference}}, nil
}

func TestPollSettlementOutlivesPollDeadline(t *testing.T) {
	gw := &scriptedGateway{
		provider: gateway.ProviderPaystack,
		states:   []gateway.VerifyState{gateway.StateSettled},
	}
	registry := gateway.NewRegistry()
	registry.RegisterGateway(gw)

	cfg := pollConfig() // 60ms poll deadline
	settler := &slowSettler{delay: 3 * cfg.PollTimeout}

	svc := NewVerifyService(registry, settler, nil, cfg)
	res, err := svc.PollUntilSettled(context.Background(), gateway.ProviderPaystack, "SPTX-TX-1A234567B8")
	require.NoError(t, err)
	require.NotNil(t, res.Ticket)

	// A confirmed charge settles on its own clock, not the poll's.
	assert.NoError(t, settler.ctxErr, "poll deadline must not cancel a confirmed settlement")
}

func TestPollUnknownProvider(t *testing.T) {
	svc := NewVerifyService(gateway.NewRegistry(), &recordingSettler{}, nil, pollConfig())
	_, err := svc.PollUntilSettled(context.Background(), gateway.ProviderMonnify, "SPTX-TX-1A234567B8")
	require.Error(t, err)
}
