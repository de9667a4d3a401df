package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"spotix/internal/services"
	"spotix/internal/services/gateway"
	"spotix/internal/services/gateway/paystack"
	"spotix/internal/status"
	"spotix/internal/store"
	"spotix/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type PaymentHandler struct {
	store          store.Store
	paymentService *services.PaymentService
	verifyService  *services.VerifyService
}

func NewPaymentHandler(st store.Store, ps *services.PaymentService, vs *services.VerifyService) *PaymentHandler {
	return &PaymentHandler{store: st, paymentService: ps, verifyService: vs}
}

// InitializePayment handles POST /api/v1/payments. Guests may pay by
// redirect rail; wallet and agent need an authenticated payer.
func (h *PaymentHandler) InitializePayment(e *core.RequestEvent) error {
	var req services.InitializeRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if e.Auth != nil {
		req.PayerID = e.Auth.Id
		if req.Email == "" {
			req.Email = e.Auth.GetString("email")
		}
	}
	if req.PayerID == "" && (req.Method == models.MethodWallet || req.Method == models.MethodAgent) {
		return apis.NewUnauthorizedError("Sign in to pay with wallet or agent", nil)
	}
	if req.EventID == "" || req.TicketType == "" {
		return apis.NewBadRequestError("event_id and ticket_type are required", nil)
	}

	ctx := e.Request.Context()
	res, err := h.paymentService.InitializePayment(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, status.ErrEventNotFound):
			return apis.NewNotFoundError("Event not found", nil)
		case errors.Is(err, status.ErrDiscountNotFound):
			return apis.NewBadRequestError("Discount code not found for this event", nil)
		case errors.Is(err, status.ErrDiscountExpired):
			return apis.NewBadRequestError("Discount code has expired", nil)
		case errors.Is(err, status.ErrDiscountLimitReached):
			return apis.NewBadRequestError("Discount code has reached its usage limit", nil)
		case errors.Is(err, paystack.ErrTimeout):
			return e.JSON(http.StatusRequestTimeout, map[string]any{
				"error": "Payment gateway timed out, please retry",
			})
		default:
			slog.Error("initialize payment", "event", req.EventID, "error", err)
			return apis.NewInternalServerError("Failed to initialize payment", err)
		}
	}
	return e.JSON(http.StatusOK, res)
}

// VerifyPayment handles GET /api/v1/payments/verify?reference=. It is a
// read-only probe of the gateway; settlement stays with webhooks and
// the purchase flow.
func (h *PaymentHandler) VerifyPayment(e *core.RequestEvent) error {
	reference := e.Request.URL.Query().Get("reference")
	if reference == "" {
		return apis.NewBadRequestError("reference is required", nil)
	}
	ctx := e.Request.Context()

	ref, err := h.store.ReferenceByID(ctx, reference)
	if err != nil {
		if errors.Is(err, status.ErrReferenceNotFound) {
			return apis.NewNotFoundError("Payment reference not found", nil)
		}
		return apis.NewInternalServerError("Failed to load reference", err)
	}

	if ref.Settled {
		return e.JSON(http.StatusOK, map[string]any{
			"reference": ref.Reference,
			"status":    "settled",
			"ticket_id": ref.TicketID,
		})
	}

	res, err := h.verifyService.VerifyOnce(ctx, gateway.Provider(ref.Method), reference)
	if err != nil {
		if errors.Is(err, paystack.ErrTimeout) {
			return e.JSON(http.StatusRequestTimeout, map[string]any{
				"error": "Payment gateway timed out, please retry",
			})
		}
		slog.Error("verify payment", "reference", reference, "error", err)
		return apis.NewInternalServerError("Failed to verify payment", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"reference": reference,
		"status":    res.State.String(),
		"message":   res.Message,
	})
}

// GetPaymentSession handles GET /api/v1/payments/{reference}: the
// cached checkout session for resuming a pending payment.
func (h *PaymentHandler) GetPaymentSession(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	reference := e.Request.PathValue("reference")
	ctx := e.Request.Context()

	session, err := h.paymentService.Session(ctx, reference)
	if err != nil {
		return apis.NewInternalServerError("Failed to load payment session", err)
	}
	if session == nil {
		return apis.NewNotFoundError("Payment session not found or expired", nil)
	}
	if session["payer_id"] != e.Auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}
	return e.JSON(http.StatusOK, session)
}
