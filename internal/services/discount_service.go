package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spotix/config"
	"spotix/internal/status"
	"spotix/internal/store"
	"spotix/models"
)

// DiscountService validates discount codes at request time and keeps
// the referral ledger. The authoritative used_count increment lives in
// settlement; validation here is advisory so buyers get an early error.
type DiscountService struct {
	store store.Store
	cfg   *config.Config

	now func() time.Time
}

func NewDiscountService(st store.Store, cfg *config.Config) *DiscountService {
	return &DiscountService{store: st, cfg: cfg, now: time.Now}
}

// PricePreview is the quoted price for a ticket type with a discount
// applied.
type PricePreview struct {
	OriginalPrice int64 `json:"original_price"`
	AmountOff     int64 `json:"amount_off"`
	Subtotal      int64 `json:"subtotal"`
}

// ValidateDiscount checks a code against its event and returns the
// quoted price. Checks run in a fixed order so the buyer always sees
// the most specific error: unknown, then expired, then exhausted.
func (s *DiscountService) ValidateDiscount(ctx context.Context, eventID, code string, price int64) (*PricePreview, error) {
	d, err := s.store.DiscountByCode(ctx, eventID, code)
	if err != nil {
		return nil, err
	}
	if d.Expired(s.now()) {
		return nil, status.ErrDiscountExpired
	}
	if d.Exhausted() {
		return nil, status.ErrDiscountLimitReached
	}
	off := d.AmountOff(price)
	return &PricePreview{
		OriginalPrice: price,
		AmountOff:     off,
		Subtotal:      price - off,
	}, nil
}

// CreditReferral pays the signup bonus to the owner of the referral
// code the new user signed up with. Crediting is idempotent per
// referred user: a second signup event for the same user is a no-op.
func (s *DiscountService) CreditReferral(ctx context.Context, code, newUserID string) error {
	return s.store.RunInTransaction(ctx, func(tx store.Store) error {
		ledger, err := tx.ReferralByCode(ctx, code)
		if err != nil {
			return err
		}
		if ledger.HasReferred(newUserID) {
			return nil
		}
		ledger.ReferredUsers = append(ledger.ReferredUsers, newUserID)
		ledger.RefGain += s.cfg.ReferralBonus
		if err := tx.SaveReferral(ctx, ledger); err != nil {
			return err
		}
		slog.Info("referral credited",
			"code", code, "referred", newUserID, "bonus", s.cfg.ReferralBonus)
		return nil
	})
}

// WithdrawReferralGain moves amount from the referral ledger into the
// owner's wallet. The move is zero sum and atomic: gain down, withdrawn
// up, wallet up, history appended, all in one transaction.
func (s *DiscountService) WithdrawReferralGain(ctx context.Context, code string, amount int64) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", status.ErrWithdrawTooLarge)
	}

	var wallet *models.Wallet
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		ledger, err := tx.ReferralByCode(ctx, code)
		if err != nil {
			return err
		}
		available := ledger.RefGain - ledger.TotalWithdrawn
		if amount > available {
			return fmt.Errorf("%w: available %d, requested %d", status.ErrWithdrawTooLarge, available, amount)
		}

		ledger.TotalWithdrawn += amount
		if err := tx.SaveReferral(ctx, ledger); err != nil {
			return err
		}

		wallet, err = tx.WalletByUser(ctx, ledger.OwnerID)
		if err != nil {
			return err
		}
		wallet.Balance += amount
		if err := tx.SaveWallet(ctx, wallet); err != nil {
			return err
		}

		return tx.AppendWalletTransaction(ctx, &models.WalletTransaction{
			UserID:      ledger.OwnerID,
			Amount:      amount,
			Direction:   models.WalletCredit,
			Reference:   "referral:" + code,
			Description: "Referral earnings withdrawal",
			CreatedAt:   s.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}
