// Package monnify is a client for the Monnify merchant API. Monnify
// issues short-lived bearer tokens from a basic-auth login endpoint, so
// the client keeps a token refresher running in the background.
package monnify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	APIKey       string `json:"apiKey" mapstructure:"api_key"`
	SecretKey    string `json:"secretKey" mapstructure:"secret_key"`
	ContractCode string `json:"contractCode" mapstructure:"contract_code"`
	BaseURL      string `json:"baseUrl" mapstructure:"base_url"`

	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

type Client struct {
	baseURL      string
	apiKey       string
	secretKey    string
	contractCode string

	accessToken string
	mu          sync.Mutex

	// toggleTokenRefresher wakes the refresher early on a 401.
	toggleTokenRefresher chan struct{}

	hc *http.Client
}

// New connects to Monnify and starts the token refresher.
func New(ctx context.Context, cfg *Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL:              cfg.BaseURL,
		apiKey:               cfg.APIKey,
		secretKey:            cfg.SecretKey,
		contractCode:         cfg.ContractCode,
		toggleTokenRefresher: make(chan struct{}, 1),
		hc:                   &http.Client{Timeout: timeout},
	}

	token, err := c.login(ctx)
	if err != nil {
		return nil, err
	}
	c.setAccessToken(token)

	go c.refreshTokenLoop(ctx)

	return c, nil
}

// refreshTokenLoop renews the bearer token on a timer or when a request
// hits a 401, with exponential backoff on login failure.
func (c *Client) refreshTokenLoop(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Minute)
	for {
		select {
		case <-ctx.Done():
			ticker.Stop()
			return

		case <-ticker.C:

		case <-c.toggleTokenRefresher:
			log.Println("monnify: refreshing token after 401")
		}

		backOff := time.Second

	Retry:
		for {
			token, err := c.login(ctx)
			switch err {
			case nil:
				c.setAccessToken(token)
				break Retry

			default:
				log.Printf("monnify: login: %v", err)
				select {
				case <-ctx.Done():
					return

				case <-time.After(backOff):
					backOff *= 2
				}
			}
		}
	}
}

func (c *Client) setAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
}

func (c *Client) getAccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) login(ctx context.Context) (string, error) {
	base, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		base.String()+"/api/v1/auth/login", nil)
	if err != nil {
		return "", fmt.Errorf("monnify login: http.NewReq: %w", err)
	}
	creds := base64.StdEncoding.EncodeToString([]byte(c.apiKey + ":" + c.secretKey))
	req.Header.Set("Authorization", "Basic "+creds)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("monnify login: http.Do: %w", err)
	}
	defer resp.Body.Close()

	var reply struct {
		RequestSuccessful bool   `json:"requestSuccessful"`
		ResponseMessage   string `json:"responseMessage"`
		ResponseBody      struct {
			AccessToken string `json:"accessToken"`
			ExpiresIn   int64  `json:"expiresIn"`
		} `json:"responseBody"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return "", fmt.Errorf("monnify login: json.Decode: %w", err)
	}
	if !reply.RequestSuccessful {
		return "", fmt.Errorf("monnify login: %s", reply.ResponseMessage)
	}
	return reply.ResponseBody.AccessToken, nil
}

type InitResult struct {
	TransactionReference string
	CheckoutURL          string
}

// Initialize creates a Monnify transaction. Amount is kobo; Monnify
// wants decimal naira, hence the division.
func (c *Client) Initialize(ctx context.Context, amountKobo int64, email, name, reference, redirectURL string) (*InitResult, error) {
	naira := decimal.NewFromInt(amountKobo).Div(decimal.NewFromInt(100))

	body, err := json.Marshal(map[string]any{
		"amount":             naira,
		"customerEmail":      email,
		"customerName":       name,
		"paymentReference":   reference,
		"paymentDescription": "Spotix ticket purchase",
		"currencyCode":       "NGN",
		"contractCode":       c.contractCode,
		"redirectUrl":        redirectURL,
	})
	if err != nil {
		return nil, fmt.Errorf("monnify initialize: marshal: %w", err)
	}

	var reply struct {
		RequestSuccessful bool   `json:"requestSuccessful"`
		ResponseMessage   string `json:"responseMessage"`
		ResponseBody      struct {
			TransactionReference string `json:"transactionReference"`
			CheckoutURL          string `json:"checkoutUrl"`
		} `json:"responseBody"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/merchant/transactions/init-transaction", body, &reply); err != nil {
		return nil, err
	}
	if !reply.RequestSuccessful {
		return nil, fmt.Errorf("monnify initialize: %s", reply.ResponseMessage)
	}
	return &InitResult{
		TransactionReference: reply.ResponseBody.TransactionReference,
		CheckoutURL:          reply.ResponseBody.CheckoutURL,
	}, nil
}

// TransactionStatus is Monnify's paymentStatus vocabulary.
type TransactionStatus struct {
	PaymentReference string
	PaymentStatus    string // PAID, PENDING, OVERPAID, PARTIALLY_PAID, FAILED, EXPIRED, CANCELLED
	AmountKobo       int64
	PaymentMethod    string
}

// Verify queries a transaction by the merchant payment reference.
func (c *Client) Verify(ctx context.Context, reference string) (*TransactionStatus, error) {
	path := "/api/v2/merchant/transactions/query?paymentReference=" + url.QueryEscape(reference)

	var reply struct {
		RequestSuccessful bool   `json:"requestSuccessful"`
		ResponseMessage   string `json:"responseMessage"`
		ResponseBody      struct {
			PaymentReference string          `json:"paymentReference"`
			PaymentStatus    string          `json:"paymentStatus"`
			AmountPaid       decimal.Decimal `json:"amountPaid"`
			PaymentMethod    string          `json:"paymentMethod"`
		} `json:"responseBody"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &reply); err != nil {
		return nil, err
	}
	if !reply.RequestSuccessful {
		return nil, fmt.Errorf("monnify verify: %s", reply.ResponseMessage)
	}

	kobo := reply.ResponseBody.AmountPaid.Mul(decimal.NewFromInt(100)).IntPart()
	return &TransactionStatus{
		PaymentReference: reply.ResponseBody.PaymentReference,
		PaymentStatus:    reply.ResponseBody.PaymentStatus,
		AmountKobo:       kobo,
		PaymentMethod:    reply.ResponseBody.PaymentMethod,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	base, _ := url.Parse(c.baseURL)
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, base.String()+path, reader)
	if err != nil {
		return fmt.Errorf("monnify: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.getAccessToken())

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("monnify: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		select {
		case c.toggleTokenRefresher <- struct{}{}:
		default:
		}
		return errors.New("monnify: 401 unauthorized, token refresh queued")
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("monnify: json.Decode: %w", err)
	}
	return nil
}

// NormalizeStatus maps Monnify's paymentStatus vocabulary onto the
// shared tri-state. Unknown values stay pending so callers keep
// polling rather than failing a live charge.
func NormalizeStatus(paymentStatus string) string {
	switch paymentStatus {
	case "PAID", "OVERPAID":
		return "settled"
	case "FAILED", "EXPIRED", "CANCELLED":
		return "failed"
	default:
		return "pending"
	}
}
