package gateway

import (
	"context"

	"spotix/internal/services/gateway/agent"
	"spotix/internal/status"
)

// AgentAdapter conforms the agent confirmation rail to
// GatewayInterface. The rail is push-only: confirmations arrive on the
// transaction channel and Verify reports Pending until settlement has
// consumed one.
type AgentAdapter struct {
	rail *agent.Rail
}

func NewAgentAdapter(ctx context.Context, cfg *agent.Config) (*AgentAdapter, error) {
	rail, err := agent.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &AgentAdapter{rail: rail}, nil
}

func (a *AgentAdapter) GetProvider() Provider {
	return ProviderAgent
}

func (a *AgentAdapter) Initialize(_ context.Context, req *InitializeRequest) (*InitializeResult, error) {
	// Payer hands the reference to a field agent; nothing to redirect to.
	return &InitializeResult{Reference: req.Reference}, nil
}

func (a *AgentAdapter) Verify(_ context.Context, reference string) (*VerifyResult, error) {
	return &VerifyResult{
		Reference: reference,
		State:     StatePending,
		Message:   "awaiting agent confirmation",
	}, nil
}

func (a *AgentAdapter) SetTransactionChannel(ch chan *status.Transaction) {
	a.rail.SetTranChannel(ch)
}

func (a *AgentAdapter) Close(ctx context.Context) error {
	return a.rail.Close(ctx)
}
