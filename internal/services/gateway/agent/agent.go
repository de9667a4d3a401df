// Package agent receives payment confirmations from Spotix field
// agents. Agents confirm cash/transfer payments in their own app, which
// publishes the confirmation on a PubNub channel; this package turns
// those messages into settlement triggers.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"spotix/internal/status"

	pubnub "github.com/pubnub/go/v7"
	"github.com/shopspring/decimal"
)

type Config struct {
	SubscribeKey string `json:"subscribeKey" mapstructure:"subscribe_key"`
	SecretKey    string `json:"secretKey" mapstructure:"secret_key"`
	UUID         string `json:"uuid" mapstructure:"uuid"`
	Channel      string `json:"channel" mapstructure:"channel"`
	CipherKey    string `json:"cipherKey" mapstructure:"cipher_key"`
}

// Rail is the agent confirmation listener. It has no initialize/verify
// API of its own; confirmed transactions arrive on the channel set via
// SetTranChannel.
type Rail struct {
	channel string

	pn  *pubnub.PubNub
	lis *pubnub.Listener
	ch  chan *status.Transaction
}

type payload struct {
	Reference string          `json:"reference"`
	AgentID   string          `json:"agentId"`
	Payer     string          `json:"payerName"`
	Amount    decimal.Decimal `json:"amount"`
	Channel   string          `json:"paymentChannel"`
	PaidAt    string          `json:"paidAt"`
}

// New subscribes to the agent confirmation channel.
func New(ctx context.Context, cfg *Config) (*Rail, error) {
	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.UUID))
	pnCfg.SubscribeKey = cfg.SubscribeKey
	pnCfg.SecretKey = cfg.SecretKey
	pnCfg.CipherKey = cfg.CipherKey

	r := &Rail{
		channel: cfg.Channel,
		pn:      pubnub.NewPubNub(pnCfg),
		lis:     pubnub.NewListener(),
	}

	r.pn.AddListener(r.lis)

	go r.processSubscription(ctx)

	// Replay the last two minutes so confirmations published during a
	// restart are not lost.
	tt := time.Now().Add(-2*time.Minute).Unix() * 10000
	r.pn.Subscribe().Channels([]string{r.channel}).Timetoken(tt).Execute()

	return r, nil
}

func (r *Rail) SetTranChannel(ch chan *status.Transaction) {
	r.ch = ch
}

func (r *Rail) processSubscription(ctx context.Context) {
	for {
		select {
		case st := <-r.lis.Status:
			switch st.Category {
			case pubnub.PNConnectedCategory:
				log.Println("agent rail: connected to pubnub")
			case pubnub.PNReconnectedCategory:
				log.Println("agent rail: reconnected to pubnub")
			case pubnub.PNDisconnectedCategory:
				log.Println("agent rail: disconnected from pubnub")
			case pubnub.PNAccessDeniedCategory:
				log.Println("agent rail: pubnub access denied")
			default:
				slog.Debug("agent rail: pubnub status", "category", st.Category)
			}

		case message := <-r.lis.Message:
			raw, ok := message.Message.(string)
			if !ok {
				// Some publishers send objects instead of strings.
				b, err := json.Marshal(message.Message)
				if err != nil {
					slog.Error("agent rail: unreadable message", "error", err)
					continue
				}
				raw = string(b)
			}

			var p payload
			dec := json.NewDecoder(strings.NewReader(raw))
			if err := dec.Decode(&p); err != nil {
				slog.Error("agent rail: decode confirmation", "error", err)
				continue
			}

			tran, err := p.toDomain()
			if err != nil {
				slog.Error("agent rail: invalid confirmation", "error", err)
				continue
			}
			if r.ch != nil {
				r.ch <- tran
			}

		case <-ctx.Done():
			log.Println("agent rail: closing subscription")
			return
		}
	}
}

func (p *payload) toDomain() (*status.Transaction, error) {
	if p.Reference == "" {
		return nil, fmt.Errorf("agent confirmation without reference")
	}
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", p.PaidAt, time.Local)
	if err != nil {
		ts = time.Now()
	}
	return &status.Transaction{
		Reference: p.Reference,
		AgentID:   p.AgentID,
		Payer:     p.Payer,
		Amount:    p.Amount,
		Channel:   p.Channel,
		PaidAt:    ts,
	}, nil
}

// Close unsubscribes from the confirmation channel.
func (r *Rail) Close(_ context.Context) error {
	r.pn.Unsubscribe().Channels([]string{r.channel}).Execute()
	return nil
}
