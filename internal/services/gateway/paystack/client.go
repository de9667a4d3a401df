// Package paystack is a thin client for the Paystack REST API: charge
// initialization, verification by reference and webhook signature
// verification. It never touches the ledger.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"
)

type Config struct {
	SecretKey     string `json:"secretKey" mapstructure:"secret_key"`
	WebhookSecret string `json:"webhookSecret" mapstructure:"webhook_secret"`
	BaseURL       string `json:"baseUrl" mapstructure:"base_url"`
	CallbackURL   string `json:"callbackUrl" mapstructure:"callback_url"`

	// Timeout is the steady-state deadline; ColdStartTimeout covers the
	// first call after boot, when the provider edge may be cold.
	Timeout          time.Duration `json:"timeout" mapstructure:"timeout"`
	ColdStartTimeout time.Duration `json:"coldStartTimeout" mapstructure:"cold_start_timeout"`
}

type Client struct {
	baseURL   string
	secretKey string
	hc        *http.Client

	steadyTimeout time.Duration
	coldTimeout   time.Duration
	warm          atomic.Bool
}

func New(cfg *Config) *Client {
	steady := cfg.Timeout
	if steady == 0 {
		steady = 15 * time.Second
	}
	cold := cfg.ColdStartTimeout
	if cold == 0 {
		cold = 45 * time.Second
	}
	return &Client{
		baseURL:       cfg.BaseURL,
		secretKey:     cfg.SecretKey,
		steadyTimeout: steady,
		coldTimeout:   cold,
		hc:            &http.Client{},
	}
}

// timeout returns the cold-start deadline until the first successful
// round trip.
func (c *Client) timeout() time.Duration {
	if c.warm.Load() {
		return c.steadyTimeout
	}
	return c.coldTimeout
}

type initRequest struct {
	Amount      int64  `json:"amount"` // kobo
	Email       string `json:"email"`
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url,omitempty"`
	Metadata    any    `json:"metadata,omitempty"`
}

type initReply struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type InitResult struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

// Initialize creates a charge and returns the redirect URL.
func (c *Client) Initialize(ctx context.Context, amount int64, email, reference, callbackURL string, metadata any) (*InitResult, error) {
	body, err := json.Marshal(initRequest{
		Amount:      amount,
		Email:       email,
		Reference:   reference,
		CallbackURL: callbackURL,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("paystack initialize: marshal: %w", err)
	}

	var reply initReply
	if err := c.post(ctx, "/transaction/initialize", body, &reply); err != nil {
		return nil, err
	}
	if !reply.Status {
		return nil, fmt.Errorf("paystack initialize: %s", reply.Message)
	}
	return &InitResult{
		Reference:        reply.Data.Reference,
		AuthorizationURL: reply.Data.AuthorizationURL,
		AccessCode:       reply.Data.AccessCode,
	}, nil
}

// Verify fetches the raw charge state for a reference. Timeouts are
// reported as ErrTimeout so the caller can keep polling instead of
// failing the charge.
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	base, _ := url.Parse(c.baseURL)
	endpoint := fmt.Sprintf("%s/transaction/verify/%s", base.String(), url.PathEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("paystack verify: http.NewReq: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("paystack verify: http.Do: %w", err)
	}
	defer resp.Body.Close()
	c.warm.Store(true)

	var payload VerifyPayload
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("paystack verify: json.Decode: %w", err)
	}
	payload.HTTPStatus = resp.StatusCode
	return &payload, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	base, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base.String()+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("paystack: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		if isTimeout(err) {
			return ErrTimeout
		}
		return fmt.Errorf("paystack: http.Do: %w", err)
	}
	defer resp.Body.Close()
	c.warm.Store(true)

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("paystack: json.Decode: %w", err)
	}
	return nil
}

// ErrTimeout marks a retryable network timeout, distinct from an
// explicit provider failure.
var ErrTimeout = errors.New("paystack: request timed out")

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Signature computes the webhook signature Paystack sends in
// x-paystack-signature: hex HMAC-SHA512 of the raw body under the
// shared secret.
func Signature(body, secret []byte) string {
	mac := hmac.New(sha512.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares in constant time.
func VerifySignature(body []byte, signature, secret string) bool {
	expected := Signature(body, []byte(secret))
	return hmac.Equal([]byte(signature), []byte(expected))
}
