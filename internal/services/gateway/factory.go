package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"spotix/internal/services/gateway/agent"
	"spotix/internal/services/gateway/monnify"
	"spotix/internal/services/gateway/paystack"
)

// Factory builds rails from their provider-specific configs.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// CreateGateway instantiates the rail named by provider. config must be
// the matching provider config; the wallet rail takes none.
func (f *Factory) CreateGateway(ctx context.Context, provider Provider, config any) (GatewayInterface, error) {
	switch provider {
	case ProviderPaystack:
		cfg, ok := config.(*paystack.Config)
		if !ok {
			return nil, fmt.Errorf("invalid config type for paystack gateway")
		}
		return NewPaystackAdapter(cfg), nil

	case ProviderMonnify:
		cfg, ok := config.(*monnify.Config)
		if !ok {
			return nil, fmt.Errorf("invalid config type for monnify gateway")
		}
		return NewMonnifyAdapter(ctx, cfg)

	case ProviderAgent:
		cfg, ok := config.(*agent.Config)
		if !ok {
			return nil, fmt.Errorf("invalid config type for agent gateway")
		}
		return NewAgentAdapter(ctx, cfg)

	case ProviderWallet:
		return NewWalletRail(), nil

	default:
		return nil, fmt.Errorf("unsupported payment provider: %s", provider)
	}
}

// Registry holds the active rails keyed by provider.
type Registry struct {
	mu       sync.RWMutex
	gateways map[Provider]GatewayInterface
	primary  Provider
}

func NewRegistry() *Registry {
	return &Registry{
		gateways: make(map[Provider]GatewayInterface),
		primary:  ProviderPaystack,
	}
}

func (r *Registry) RegisterGateway(gw GatewayInterface) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[gw.GetProvider()] = gw
	slog.Info("registered payment gateway", "provider", gw.GetProvider())
}

// GetGateway returns the rail for provider, or an error listing what is
// configured.
func (r *Registry) GetGateway(provider Provider) (GatewayInterface, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gw, ok := r.gateways[provider]
	if !ok {
		return nil, fmt.Errorf("payment provider %q is not configured", provider)
	}
	return gw, nil
}

// Primary returns the default redirect rail.
func (r *Registry) Primary() (GatewayInterface, error) {
	return r.GetGateway(r.primary)
}

// Close shuts down every registered rail.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for provider, gw := range r.gateways {
		if err := gw.Close(ctx); err != nil {
			slog.Error("closing payment gateway", "provider", provider, "error", err)
		}
	}
}
