package services

import (
	"context"
	"testing"
	"time"

	"spotix/internal/status"
	"spotix/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDiscount(t *testing.T, st *memStore, d models.DiscountCode) {
	t.Helper()
	require.NoError(t, st.SaveDiscount(context.Background(), &d))
}

func TestValidateDiscount(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	svc := NewDiscountService(st, testConfig())

	seedDiscount(t, st, models.DiscountCode{
		ID: "d1", EventID: "ev1", Code: "SAVE10",
		Type: models.DiscountPercentage, Value: 10,
		MaxUses: 10, UsedCount: 3,
		ExpiresAt: time.Now().Add(time.Hour),
	})

	preview, err := svc.ValidateDiscount(ctx, "ev1", "SAVE10", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), preview.OriginalPrice)
	assert.Equal(t, int64(100), preview.AmountOff)
	assert.Equal(t, int64(900), preview.Subtotal)
}

func TestValidateDiscountErrorOrder(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	svc := NewDiscountService(st, testConfig())

	_, err := svc.ValidateDiscount(ctx, "ev1", "MISSING", 1000)
	require.ErrorIs(t, err, status.ErrDiscountNotFound)

	// Expired beats exhausted when both hold.
	seedDiscount(t, st, models.DiscountCode{
		ID: "d2", EventID: "ev1", Code: "OLD",
		Type: models.DiscountFixed, Value: 100,
		MaxUses: 1, UsedCount: 1,
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	_, err = svc.ValidateDiscount(ctx, "ev1", "OLD", 1000)
	require.ErrorIs(t, err, status.ErrDiscountExpired)

	seedDiscount(t, st, models.DiscountCode{
		ID: "d3", EventID: "ev1", Code: "FULL",
		Type: models.DiscountFixed, Value: 100,
		MaxUses: 1, UsedCount: 1,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	_, err = svc.ValidateDiscount(ctx, "ev1", "FULL", 1000)
	require.ErrorIs(t, err, status.ErrDiscountLimitReached)
}

func TestCreditReferralIsIdempotentPerUser(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	cfg := testConfig()
	svc := NewDiscountService(st, cfg)

	require.NoError(t, st.SaveReferral(ctx, &models.ReferralLedger{
		Code: "ada-ref", OwnerID: "u1",
	}))

	require.NoError(t, svc.CreditReferral(ctx, "ada-ref", "newuser"))
	require.NoError(t, svc.CreditReferral(ctx, "ada-ref", "newuser"))

	ledger, err := st.ReferralByCode(ctx, "ada-ref")
	require.NoError(t, err)
	assert.Equal(t, cfg.ReferralBonus, ledger.RefGain, "double signup event must credit once")
	assert.Equal(t, []string{"newuser"}, ledger.ReferredUsers)

	require.NoError(t, svc.CreditReferral(ctx, "ada-ref", "another"))
	ledger, _ = st.ReferralByCode(ctx, "ada-ref")
	assert.Equal(t, 2*cfg.ReferralBonus, ledger.RefGain)
}

func TestCreditReferralUnknownCode(t *testing.T) {
	svc := NewDiscountService(newMemStore(), testConfig())
	err := svc.CreditReferral(context.Background(), "nope", "u9")
	require.ErrorIs(t, err, status.ErrReferralNotFound)
}

func TestWithdrawReferralGain(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	svc := NewDiscountService(st, testConfig())

	require.NoError(t, st.SaveReferral(ctx, &models.ReferralLedger{
		Code: "ada-ref", OwnerID: "u1",
		RefGain: 60000, TotalWithdrawn: 10000,
	}))
	require.NoError(t, st.SaveWallet(ctx, &models.Wallet{UserID: "u1", Balance: 500}))

	wallet, err := svc.WithdrawReferralGain(ctx, "ada-ref", 20000)
	require.NoError(t, err)
	assert.Equal(t, int64(20500), wallet.Balance)

	ledger, _ := st.ReferralByCode(ctx, "ada-ref")
	assert.Equal(t, int64(60000), ledger.RefGain, "gain itself is untouched")
	assert.Equal(t, int64(30000), ledger.TotalWithdrawn)

	require.Len(t, st.data.walletTx, 1)
	assert.Equal(t, models.WalletCredit, st.data.walletTx[0].Direction)
}

func TestWithdrawReferralGainTooLarge(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	svc := NewDiscountService(st, testConfig())

	require.NoError(t, st.SaveReferral(ctx, &models.ReferralLedger{
		Code: "ada-ref", OwnerID: "u1",
		RefGain: 60000, TotalWithdrawn: 50000,
	}))

	_, err := svc.WithdrawReferralGain(ctx, "ada-ref", 20000)
	require.ErrorIs(t, err, status.ErrWithdrawTooLarge)

	// Nothing moved.
	ledger, _ := st.ReferralByCode(ctx, "ada-ref")
	assert.Equal(t, int64(50000), ledger.TotalWithdrawn)
	wallet, _ := st.WalletByUser(ctx, "u1")
	assert.Equal(t, int64(0), wallet.Balance)

	_, err = svc.WithdrawReferralGain(ctx, "ada-ref", 0)
	require.ErrorIs(t, err, status.ErrWithdrawTooLarge)
}
