package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"spotix/internal/services"
	"spotix/internal/services/gateway"
	"spotix/internal/status"
	"spotix/internal/store"
	"spotix/models"
	"spotix/security"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type TicketHandler struct {
	store         store.Store
	settler       services.Settler
	verifyService *services.VerifyService
	pinGuard      *security.PinGuard
}

func NewTicketHandler(st store.Store, settler services.Settler, vs *services.VerifyService, pg *security.PinGuard) *TicketHandler {
	return &TicketHandler{store: st, settler: settler, verifyService: vs, pinGuard: pg}
}

// CompletePurchase handles POST /api/v1/tickets: turn an initialized
// reference into a ticket. Wallet references settle directly after the
// PIN check; redirect rails are polled until the gateway confirms.
func (h *TicketHandler) CompletePurchase(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Reference string `json:"reference"`
		WalletPin string `json:"wallet_pin,omitempty"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Reference == "" {
		return apis.NewBadRequestError("reference is required", nil)
	}

	ctx := e.Request.Context()
	ref, err := h.store.ReferenceByID(ctx, req.Reference)
	if err != nil {
		if errors.Is(err, status.ErrReferenceNotFound) {
			return apis.NewNotFoundError("Payment reference not found", nil)
		}
		return apis.NewInternalServerError("Failed to load reference", err)
	}
	if ref.PayerID != e.Auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}

	var result *services.SettleResult
	switch ref.Method {
	case models.MethodWallet:
		user, err := h.store.UserByID(ctx, e.Auth.Id)
		if err != nil {
			return apis.NewInternalServerError("Failed to load user", err)
		}
		if err := h.pinGuard.Check(ctx, user.ID, req.WalletPin, user.WalletPin); err != nil {
			return pinError(e, err)
		}
		result, err = h.settler.Settle(ctx, req.Reference, &services.SettleContext{Method: models.MethodWallet})
		if err != nil {
			return settleError(e, req.Reference, err)
		}

	case models.MethodAgent:
		// Agent confirmations arrive on the realtime channel; nothing to
		// poll. Report the current state.
		if !ref.Settled {
			return e.JSON(http.StatusAccepted, map[string]any{
				"reference": ref.Reference,
				"status":    "pending",
				"message":   "Awaiting agent confirmation",
			})
		}
		ticket, err := h.store.TicketByID(ctx, ref.TicketID)
		if err != nil {
			return apis.NewInternalServerError("Failed to load ticket", err)
		}
		result = &services.SettleResult{Ticket: ticket, AlreadySettled: true}

	default:
		result, err = h.verifyService.PollUntilSettled(ctx, gateway.Provider(ref.Method), req.Reference)
		if err != nil {
			return settleError(e, req.Reference, err)
		}
	}

	code := http.StatusCreated
	if result.AlreadySettled {
		code = http.StatusOK
	}
	return e.JSON(code, map[string]any{
		"status": "success",
		"ticket": result.Ticket,
	})
}

// GetTicket handles GET /api/v1/tickets/{ticketId}. Visible to the
// ticket owner and the event creator only.
func (h *TicketHandler) GetTicket(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	ticketID := e.Request.PathValue("ticketId")
	ctx := e.Request.Context()

	ticket, err := h.store.TicketByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, status.ErrReferenceNotFound) {
			return apis.NewNotFoundError("Ticket not found", nil)
		}
		return apis.NewInternalServerError("Failed to load ticket", err)
	}
	if ticket.OwnerID != e.Auth.Id && ticket.EventCreatorID != e.Auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}
	return e.JSON(http.StatusOK, ticket)
}

func settleError(e *core.RequestEvent, reference string, err error) error {
	switch {
	case errors.Is(err, status.ErrInsufficientFunds):
		return apis.NewBadRequestError("Insufficient wallet balance", nil)
	case errors.Is(err, status.ErrInventoryExhausted):
		return apis.NewBadRequestError("This ticket type is sold out", nil)
	case errors.Is(err, status.ErrAmountMismatch):
		return apis.NewBadRequestError("Paid amount is below the amount due", nil)
	case errors.Is(err, status.ErrReferenceNotFound):
		return apis.NewNotFoundError("Payment reference not found", nil)
	case errors.Is(err, status.ErrPaymentFailed):
		return apis.NewBadRequestError("Payment failed", nil)
	case errors.Is(err, status.ErrPollTimeout):
		return e.JSON(http.StatusRequestTimeout, map[string]any{
			"error":     "Payment verification timed out, contact support with your reference",
			"reference": reference,
		})
	default:
		slog.Error("complete purchase", "reference", reference, "error", err)
		return apis.NewInternalServerError("Failed to complete purchase", err)
	}
}

func pinError(e *core.RequestEvent, err error) error {
	switch {
	case errors.Is(err, status.ErrPinNotSet):
		return apis.NewBadRequestError("Set a wallet PIN before paying with wallet", nil)
	case errors.Is(err, status.ErrPinMismatch):
		return apis.NewForbiddenError("Incorrect wallet PIN", nil)
	case errors.Is(err, status.ErrPinLocked):
		return e.JSON(http.StatusTooManyRequests, map[string]any{
			"error": "Too many failed PIN attempts, try again later",
		})
	default:
		return apis.NewInternalServerError("PIN check failed", err)
	}
}
