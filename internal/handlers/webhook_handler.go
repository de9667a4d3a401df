package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"spotix/config"
	"spotix/internal/services"
	"spotix/internal/services/gateway/monnify"
	"spotix/internal/services/gateway/paystack"
	"spotix/internal/status"
	"spotix/models"
	"spotix/monitoring"

	"github.com/pocketbase/pocketbase/core"
)

// WebhookHandler receives provider callbacks. Signature verification
// happens on the raw body before any JSON parsing; an invalid signature
// is rejected without touching the settlement path.
type WebhookHandler struct {
	settler services.Settler
	cfg     *config.Config
}

func NewWebhookHandler(settler services.Settler, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{settler: settler, cfg: cfg}
}

// Paystack handles POST /api/v1/webhooks/paystack.
func (h *WebhookHandler) Paystack(e *core.RequestEvent) error {
	raw, err := io.ReadAll(e.Request.Body)
	if err != nil {
		return e.JSON(http.StatusBadRequest, map[string]any{"error": "Unreadable body"})
	}
	signature := e.Request.Header.Get("x-paystack-signature")
	code, body := h.processPaystack(e.Request.Context(), raw, signature)
	return e.JSON(code, body)
}

// processPaystack is the transport-free core of the Paystack webhook.
func (h *WebhookHandler) processPaystack(ctx context.Context, raw []byte, signature string) (int, map[string]any) {
	if !paystack.VerifySignature(raw, signature, h.cfg.Paystack.WebhookSecret) {
		monitoring.TrackWebhook("paystack", "invalid_signature")
		slog.Warn("paystack webhook rejected", "reason", status.ErrInvalidSignature)
		return http.StatusUnauthorized, map[string]any{"error": "Invalid signature"}
	}

	var event struct {
		Event string `json:"event"`
		Data  struct {
			Reference string `json:"reference"`
			Amount    int64  `json:"amount"`
			Channel   string `json:"channel"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		monitoring.TrackWebhook("paystack", "bad_payload")
		return http.StatusBadRequest, map[string]any{"error": "Invalid payload"}
	}

	if event.Event != "charge.success" {
		// Other events are acknowledged so Paystack stops retrying.
		slog.Info("paystack webhook ignored", "event", event.Event)
		monitoring.TrackWebhook("paystack", "ignored")
		return http.StatusOK, map[string]any{"status": "success"}
	}

	return h.settle(ctx, "paystack", event.Data.Reference, &services.SettleContext{
		AmountPaid: event.Data.Amount,
		Channel:    event.Data.Channel,
		Method:     models.MethodPaystack,
	})
}

// Monnify handles POST /api/v1/webhooks/monnify.
func (h *WebhookHandler) Monnify(e *core.RequestEvent) error {
	raw, err := io.ReadAll(e.Request.Body)
	if err != nil {
		return e.JSON(http.StatusBadRequest, map[string]any{"error": "Unreadable body"})
	}
	signature := e.Request.Header.Get("monnify-signature")
	code, body := h.processMonnify(e.Request.Context(), raw, signature)
	return e.JSON(code, body)
}

func (h *WebhookHandler) processMonnify(ctx context.Context, raw []byte, signature string) (int, map[string]any) {
	if !monnify.VerifySignature(raw, signature, h.cfg.Monnify.WebhookSecret) {
		monitoring.TrackWebhook("monnify", "invalid_signature")
		slog.Warn("monnify webhook rejected", "reason", status.ErrInvalidSignature)
		return http.StatusUnauthorized, map[string]any{"error": "Invalid signature"}
	}

	var event struct {
		EventType string `json:"eventType"`
		EventData struct {
			PaymentReference string `json:"paymentReference"`
			PaymentStatus    string `json:"paymentStatus"`
			PaymentMethod    string `json:"paymentMethod"`
		} `json:"eventData"`
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		monitoring.TrackWebhook("monnify", "bad_payload")
		return http.StatusBadRequest, map[string]any{"error": "Invalid payload"}
	}

	if event.EventType != "SUCCESSFUL_TRANSACTION" {
		slog.Info("monnify webhook ignored", "event", event.EventType)
		monitoring.TrackWebhook("monnify", "ignored")
		return http.StatusOK, map[string]any{"status": "success"}
	}

	return h.settle(ctx, "monnify", event.EventData.PaymentReference, &services.SettleContext{
		Channel: event.EventData.PaymentMethod,
		Method:  models.MethodMonnify,
	})
}

func (h *WebhookHandler) settle(ctx context.Context, provider, reference string, sc *services.SettleContext) (int, map[string]any) {
	res, err := h.settler.Settle(ctx, reference, sc)
	if err != nil {
		monitoring.TrackWebhook(provider, "settle_failed")
		slog.Error("webhook settlement failed",
			"provider", provider, "reference", reference, "error", err)
		// 500 makes the provider retry; settlement is idempotent so the
		// retry is safe.
		return http.StatusInternalServerError, map[string]any{"error": "Failed to process webhook"}
	}

	if res.AlreadySettled {
		monitoring.TrackWebhook(provider, "replay")
	} else {
		monitoring.TrackWebhook(provider, "settled")
	}
	return http.StatusOK, map[string]any{"status": "success"}
}
