package security

import (
	"context"
	"testing"
	"time"

	"spotix/internal/status"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPin(t *testing.T) {
	hash, err := HashPin("4321")
	require.NoError(t, err)
	assert.NotEqual(t, "4321", hash)

	_, err = HashPin("12")
	require.Error(t, err, "too short")
}

func TestCheckCorrectPinResetsAttempts(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	guard := NewPinGuard(rdb, 5, 10*time.Minute, 30*time.Minute)

	hash, err := HashPin("4321")
	require.NoError(t, err)

	mock.ExpectGet("pin:lock:u1").RedisNil()
	mock.ExpectDel("pin:attempts:u1").SetVal(1)

	require.NoError(t, guard.Check(context.Background(), "u1", "4321", hash))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckWrongPinCountsAttempt(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	guard := NewPinGuard(rdb, 5, 10*time.Minute, 30*time.Minute)

	hash, err := HashPin("4321")
	require.NoError(t, err)

	mock.ExpectGet("pin:lock:u1").RedisNil()
	mock.ExpectIncr("pin:attempts:u1").SetVal(1)
	mock.ExpectExpire("pin:attempts:u1", 10*time.Minute).SetVal(true)

	err = guard.Check(context.Background(), "u1", "0000", hash)
	require.ErrorIs(t, err, status.ErrPinMismatch)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckTripsLockAtCap(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	guard := NewPinGuard(rdb, 3, 10*time.Minute, 30*time.Minute)

	hash, err := HashPin("4321")
	require.NoError(t, err)

	mock.ExpectGet("pin:lock:u1").RedisNil()
	mock.ExpectIncr("pin:attempts:u1").SetVal(3)
	mock.Regexp().ExpectSet("pin:lock:u1", `\d+`, 30*time.Minute).SetVal("OK")

	err = guard.Check(context.Background(), "u1", "0000", hash)
	require.ErrorIs(t, err, status.ErrPinMismatch)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckLockedShortCircuits(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	guard := NewPinGuard(rdb, 5, 10*time.Minute, 30*time.Minute)

	hash, err := HashPin("4321")
	require.NoError(t, err)

	mock.ExpectGet("pin:lock:u1").SetVal("1756300000")

	// Even the correct pin is rejected while locked.
	err = guard.Check(context.Background(), "u1", "4321", hash)
	require.ErrorIs(t, err, status.ErrPinLocked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckUnsetPin(t *testing.T) {
	guard := NewPinGuard(nil, 5, 10*time.Minute, 30*time.Minute)
	err := guard.Check(context.Background(), "u1", "4321", "")
	require.ErrorIs(t, err, status.ErrPinNotSet)
}
