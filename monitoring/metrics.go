// Package monitoring exposes Prometheus metrics for the settlement
// pipeline and a background collector for gauge-style readings.
package monitoring

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spotix_settlements_total",
		Help: "Settlement attempts by payment method and outcome",
	}, []string{"method", "status"})

	GatewayVerifyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spotix_gateway_verify_duration_seconds",
		Help:    "Latency of gateway verification calls",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30, 45},
	}, []string{"provider"})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spotix_webhook_events_total",
		Help: "Webhook deliveries by provider and result",
	}, []string{"provider", "result"})

	ActivePolls = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spotix_active_verification_polls",
		Help: "Verification polls currently in flight",
	})

	TicketsIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spotix_tickets_issued_total",
		Help: "Tickets issued by payment method",
	}, []string{"method"})

	WalletDebitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spotix_wallet_debits_total",
		Help: "Wallet debits performed by settlement",
	})

	RedisUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spotix_redis_up",
		Help: "1 when the redis ping succeeds",
	})
)

// TrackSettlement records one settlement attempt outcome.
func TrackSettlement(method, status string) {
	SettlementsTotal.WithLabelValues(method, status).Inc()
}

// TrackVerify times a gateway verification call.
func TrackVerify(provider string, start time.Time) {
	GatewayVerifyDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

// TrackWebhook records one webhook delivery result.
func TrackWebhook(provider, result string) {
	WebhookEventsTotal.WithLabelValues(provider, result).Inc()
}

// TrackTicketIssued records one issued ticket.
func TrackTicketIssued(method string) {
	TicketsIssuedTotal.WithLabelValues(method).Inc()
}

// Monitor samples infrastructure health on a timer.
type Monitor struct {
	redis *redis.Client
}

func NewMonitor(rdb *redis.Client) *Monitor {
	return &Monitor{redis: rdb}
}

// Start runs the sampling loop until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collect(ctx)
		}
	}
}

func (m *Monitor) collect(ctx context.Context) {
	if m.redis == nil {
		return
	}
	if err := m.redis.Ping(ctx).Err(); err != nil {
		RedisUp.Set(0)
		slog.Warn("monitor: redis ping failed", "error", err)
		return
	}
	RedisUp.Set(1)
}
