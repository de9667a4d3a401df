// Package security holds the wallet PIN guard: bcrypt at rest, a
// redis-backed attempt counter and a lockout window so a stolen session
// cannot brute force the PIN.
package security

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spotix/internal/status"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

type PinGuard struct {
	redis *redis.Client

	maxAttempts   int
	attemptWindow time.Duration
	lockout       time.Duration
}

func NewPinGuard(rdb *redis.Client, maxAttempts int, attemptWindow, lockout time.Duration) *PinGuard {
	return &PinGuard{
		redis:         rdb,
		maxAttempts:   maxAttempts,
		attemptWindow: attemptWindow,
		lockout:       lockout,
	}
}

// HashPin returns the bcrypt hash to store on the user record.
func HashPin(pin string) (string, error) {
	if len(pin) < 4 {
		return "", fmt.Errorf("pin must be at least 4 digits")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(hash), nil
}

// Check verifies pin against the stored hash for userID, enforcing the
// lockout. A correct pin resets the counter; a wrong one increments it
// and trips the lock at the cap.
func (g *PinGuard) Check(ctx context.Context, userID, pin, storedHash string) error {
	if storedHash == "" {
		return status.ErrPinNotSet
	}

	locked, err := g.isLocked(ctx, userID)
	if err != nil {
		// Redis being down must not freeze every wallet purchase; fall
		// through to the bcrypt check and log it.
		slog.Error("pin guard: lockout check failed", "user", userID, "error", err)
	} else if locked {
		return status.ErrPinLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(pin)) != nil {
		g.recordFailure(ctx, userID)
		return status.ErrPinMismatch
	}

	g.reset(ctx, userID)
	return nil
}

func (g *PinGuard) isLocked(ctx context.Context, userID string) (bool, error) {
	if g.redis == nil {
		return false, nil
	}
	err := g.redis.Get(ctx, lockKey(userID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (g *PinGuard) recordFailure(ctx context.Context, userID string) {
	if g.redis == nil {
		return
	}
	key := attemptsKey(userID)
	count, err := g.redis.Incr(ctx, key).Result()
	if err != nil {
		slog.Error("pin guard: attempt count failed", "user", userID, "error", err)
		return
	}
	if count == 1 {
		// First failure opens the window.
		if err := g.redis.Expire(ctx, key, g.attemptWindow).Err(); err != nil {
			slog.Error("pin guard: attempt window failed", "user", userID, "error", err)
		}
	}
	if int(count) >= g.maxAttempts {
		if err := g.redis.Set(ctx, lockKey(userID), time.Now().Unix(), g.lockout).Err(); err != nil {
			slog.Error("pin guard: lock set failed", "user", userID, "error", err)
			return
		}
		slog.Warn("wallet pin locked", "user", userID, "attempts", count)
	}
}

func (g *PinGuard) reset(ctx context.Context, userID string) {
	if g.redis == nil {
		return
	}
	if err := g.redis.Del(ctx, attemptsKey(userID)).Err(); err != nil {
		slog.Debug("pin guard: attempt reset failed", "user", userID, "error", err)
	}
}

func attemptsKey(userID string) string { return "pin:attempts:" + userID }
func lockKey(userID string) string     { return "pin:lock:" + userID }
