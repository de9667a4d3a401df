package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"spotix/config"
	"spotix/internal/services"
	"spotix/internal/services/gateway/monnify"
	"spotix/internal/services/gateway/paystack"
	"spotix/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettler struct {
	calls          atomic.Int32
	lastReference  string
	lastContext    *services.SettleContext
	err            error
	alreadySettled bool
}

func (f *fakeSettler) Settle(_ context.Context, reference string, sc *services.SettleContext) (*services.SettleResult, error) {
	f.calls.Add(1)
	f.lastReference = reference
	f.lastContext = sc
	if f.err != nil {
		return nil, f.err
	}
	return &services.SettleResult{
		Ticket:         &models.Ticket{ID: "SPTX-TX-TEST", PaymentReference: reference},
		AlreadySettled: f.alreadySettled,
	}, nil
}

func webhookConfig() *config.Config {
	return &config.Config{
		Paystack: config.PaystackConfig{WebhookSecret: "whsec_paystack"},
		Monnify:  config.MonnifyConfig{WebhookSecret: "whsec_monnify"},
	}
}

func TestPaystackWebhookRejectsBadSignature(t *testing.T) {
	settler := &fakeSettler{}
	h := NewWebhookHandler(settler, webhookConfig())

	body := []byte(`{"event":"charge.success","data":{"reference":"SPTX-TX-1A234567B8"}}`)
	code, resp := h.processPaystack(context.Background(), body, "deadbeef")

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, map[string]any{"error": "Invalid signature"}, resp)
	assert.Equal(t, int32(0), settler.calls.Load(), "settlement must not run on a forged webhook")
}

func TestPaystackWebhookSettlesChargeSuccess(t *testing.T) {
	settler := &fakeSettler{}
	h := NewWebhookHandler(settler, webhookConfig())

	body := []byte(`{"event":"charge.success","data":{"reference":"SPTX-TX-1A234567B8","amount":2150,"channel":"card"}}`)
	sig := paystack.Signature(body, []byte("whsec_paystack"))

	code, resp := h.processPaystack(context.Background(), body, sig)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"status": "success"}, resp)

	require.Equal(t, int32(1), settler.calls.Load())
	assert.Equal(t, "SPTX-TX-1A234567B8", settler.lastReference)
	assert.Equal(t, models.MethodPaystack, settler.lastContext.Method)
	assert.Equal(t, int64(2150), settler.lastContext.AmountPaid)
}

func TestPaystackWebhookIgnoresOtherEvents(t *testing.T) {
	settler := &fakeSettler{}
	h := NewWebhookHandler(settler, webhookConfig())

	body := []byte(`{"event":"transfer.success","data":{"reference":"SPTX-TX-1A234567B8"}}`)
	sig := paystack.Signature(body, []byte("whsec_paystack"))

	code, resp := h.processPaystack(context.Background(), body, sig)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, int32(0), settler.calls.Load())
}

func TestPaystackWebhookReplayIsAcknowledged(t *testing.T) {
	settler := &fakeSettler{alreadySettled: true}
	h := NewWebhookHandler(settler, webhookConfig())

	body := []byte(`{"event":"charge.success","data":{"reference":"SPTX-TX-1A234567B8"}}`)
	sig := paystack.Signature(body, []byte("whsec_paystack"))

	// A redelivered webhook is a success, not an error: the settler
	// replay contract returns the existing ticket.
	code, resp := h.processPaystack(context.Background(), body, sig)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", resp["status"])
}

func TestPaystackWebhookSettleFailure(t *testing.T) {
	settler := &fakeSettler{err: errors.New("storage down")}
	h := NewWebhookHandler(settler, webhookConfig())

	body := []byte(`{"event":"charge.success","data":{"reference":"SPTX-TX-1A234567B8"}}`)
	sig := paystack.Signature(body, []byte("whsec_paystack"))

	code, resp := h.processPaystack(context.Background(), body, sig)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, map[string]any{"error": "Failed to process webhook"}, resp)
}

func TestMonnifyWebhookSettlesSuccessfulTransaction(t *testing.T) {
	settler := &fakeSettler{}
	h := NewWebhookHandler(settler, webhookConfig())

	body := []byte(`{"eventType":"SUCCESSFUL_TRANSACTION","eventData":{"paymentReference":"SPTX-TX-1A234567B8","paymentStatus":"PAID","paymentMethod":"ACCOUNT_TRANSFER"}}`)
	sig := monnify.Signature(body, []byte("whsec_monnify"))

	code, resp := h.processMonnify(context.Background(), body, sig)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", resp["status"])

	require.Equal(t, int32(1), settler.calls.Load())
	assert.Equal(t, models.MethodMonnify, settler.lastContext.Method)
	assert.Equal(t, "ACCOUNT_TRANSFER", settler.lastContext.Channel)
}

func TestMonnifyWebhookRejectsBadSignature(t *testing.T) {
	settler := &fakeSettler{}
	h := NewWebhookHandler(settler, webhookConfig())

	body := []byte(`{"eventType":"SUCCESSFUL_TRANSACTION"}`)
	code, resp := h.processMonnify(context.Background(), body, "nope")

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, map[string]any{"error": "Invalid signature"}, resp)
	assert.Equal(t, int32(0), settler.calls.Load())
}
