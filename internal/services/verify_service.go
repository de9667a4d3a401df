package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spotix/config"
	"spotix/internal/services/gateway"
	"spotix/internal/status"
	"spotix/models"
	"spotix/monitoring"

	"github.com/redis/go-redis/v9"
)

// VerifyService is the polling fallback for when the webhook does not
// arrive: it re-checks the gateway on an interval until the charge
// resolves or the deadline passes.
type VerifyService struct {
	registry *gateway.Registry
	settler  Settler
	redis    *redis.Client

	interval time.Duration
	timeout  time.Duration
}

func NewVerifyService(registry *gateway.Registry, settler Settler, rdb *redis.Client, cfg *config.Config) *VerifyService {
	return &VerifyService{
		registry: registry,
		settler:  settler,
		redis:    rdb,
		interval: cfg.PollInterval,
		timeout:  cfg.PollTimeout,
	}
}

// VerifyOnce asks the rail for the current charge state without
// settling anything.
func (s *VerifyService) VerifyOnce(ctx context.Context, provider gateway.Provider, reference string) (*gateway.VerifyResult, error) {
	gw, err := s.registry.GetGateway(provider)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := gw.Verify(ctx, reference)
	monitoring.TrackVerify(string(provider), start)
	return res, err
}

// PollUntilSettled polls the rail until the charge settles, fails, or
// the poll deadline passes. A settled charge is handed to the settler;
// a deadline returns ErrPollTimeout, which is not a payment failure.
func (s *VerifyService) PollUntilSettled(ctx context.Context, provider gateway.Provider, reference string) (*SettleResult, error) {
	gw, err := s.registry.GetGateway(provider)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.trackPollStart(ctx, reference)
	defer s.trackPollStop(reference)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	attempt := 0
	for {
		attempt++
		start := time.Now()
		res, err := gw.Verify(ctx, reference)
		monitoring.TrackVerify(string(provider), start)
		switch {
		case err != nil:
			// Transport errors are retryable within the deadline.
			slog.Warn("verify poll attempt failed",
				"reference", reference, "attempt", attempt, "error", err)

		case res.State == gateway.StateSettled:
			// The charge is confirmed; the poll deadline must not cancel
			// the settlement mid-write.
			sctx, scancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer scancel()
			return s.settler.Settle(sctx, reference, &SettleContext{
				AmountPaid: res.Amount,
				Channel:    res.Channel,
				Method:     models.PaymentMethod(provider),
			})

		case res.State == gateway.StateFailed:
			return nil, fmt.Errorf("%w: %s", status.ErrPaymentFailed, res.Message)
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				slog.Warn("verify poll deadline passed",
					"reference", reference, "attempts", attempt)
				return nil, status.ErrPollTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// trackPollStart marks the reference as actively polled so a second
// request for the same reference can be spotted in redis.
func (s *VerifyService) trackPollStart(ctx context.Context, reference string) {
	monitoring.ActivePolls.Inc()
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, "poll:"+reference, time.Now().Unix(), s.timeout+time.Minute).Err(); err != nil {
		slog.Debug("verify: poll tracking set failed", "reference", reference, "error", err)
	}
}

func (s *VerifyService) trackPollStop(reference string) {
	monitoring.ActivePolls.Dec()
	if s.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.redis.Del(ctx, "poll:"+reference).Err(); err != nil {
		slog.Debug("verify: poll tracking del failed", "reference", reference, "error", err)
	}
}
