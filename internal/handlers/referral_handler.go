package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"spotix/internal/services"
	"spotix/internal/status"
	"spotix/internal/store"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type ReferralHandler struct {
	store           store.Store
	discountService *services.DiscountService
}

func NewReferralHandler(st store.Store, ds *services.DiscountService) *ReferralHandler {
	return &ReferralHandler{store: st, discountService: ds}
}

// Withdraw handles POST /api/v1/referrals/withdraw: move earned
// referral gain into the caller's wallet.
func (h *ReferralHandler) Withdraw(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Code   string `json:"code"`
		Amount int64  `json:"amount"` // kobo
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Code == "" {
		return apis.NewBadRequestError("code is required", nil)
	}

	ctx := e.Request.Context()
	ledger, err := h.store.ReferralByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, status.ErrReferralNotFound) {
			return apis.NewNotFoundError("Referral code not found", nil)
		}
		return apis.NewInternalServerError("Failed to load referral ledger", err)
	}
	if ledger.OwnerID != e.Auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}

	wallet, err := h.discountService.WithdrawReferralGain(ctx, req.Code, req.Amount)
	if err != nil {
		if errors.Is(err, status.ErrWithdrawTooLarge) {
			return apis.NewBadRequestError("Withdrawal exceeds available referral gain", nil)
		}
		slog.Error("referral withdrawal", "code", req.Code, "error", err)
		return apis.NewInternalServerError("Failed to withdraw referral gain", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"balance": wallet.Balance,
	})
}

// Ledger handles GET /api/v1/referrals/{code}: the caller's own ledger.
func (h *ReferralHandler) Ledger(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	code := e.Request.PathValue("code")
	ctx := e.Request.Context()

	ledger, err := h.store.ReferralByCode(ctx, code)
	if err != nil {
		if errors.Is(err, status.ErrReferralNotFound) {
			return apis.NewNotFoundError("Referral code not found", nil)
		}
		return apis.NewInternalServerError("Failed to load referral ledger", err)
	}
	if ledger.OwnerID != e.Auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"code":            ledger.Code,
		"referred_count":  len(ledger.ReferredUsers),
		"ref_gain":        ledger.RefGain,
		"total_withdrawn": ledger.TotalWithdrawn,
		"available":       ledger.RefGain - ledger.TotalWithdrawn,
	})
}
