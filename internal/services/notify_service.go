package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"

	"spotix/models"

	pubnub "github.com/pubnub/go"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/mailer"
)

// Notifier is what settlement calls after commit. Delivery is best
// effort; failures are logged and never unwind a settlement.
type Notifier interface {
	TicketIssued(ctx context.Context, t *models.Ticket)
}

// NotifyService pushes a realtime message on the buyer's channel and
// sends the ticket email.
type NotifyService struct {
	app core.App
	pn  *pubnub.PubNub
}

func NewNotifyService(app core.App, publishKey, subscribeKey, secretKey string) *NotifyService {
	s := &NotifyService{app: app}
	if publishKey != "" {
		cfg := pubnub.NewConfig()
		cfg.PublishKey = publishKey
		cfg.SubscribeKey = subscribeKey
		cfg.SecretKey = secretKey
		s.pn = pubnub.NewPubNub(cfg)
	}
	return s
}

func (s *NotifyService) TicketIssued(ctx context.Context, t *models.Ticket) {
	s.publish(t)
	s.email(t)
}

func (s *NotifyService) publish(t *models.Ticket) {
	if s.pn == nil || t.OwnerID == "" {
		return
	}
	_, st, err := s.pn.Publish().
		Channel("user-" + t.OwnerID).
		Message(map[string]any{
			"type":      "ticket_issued",
			"ticket_id": t.ID,
			"event":     t.EventName,
			"reference": t.PaymentReference,
		}).
		Execute()
	if err != nil {
		slog.Error("notify: pubnub publish", "ticket", t.ID, "error", err)
		return
	}
	if st.Error != nil {
		slog.Error("notify: pubnub publish status", "ticket", t.ID, "error", st.Error)
	}
}

func (s *NotifyService) email(t *models.Ticket) {
	if t.OwnerEmail == "" {
		return
	}
	msg := &mailer.Message{
		From: mail.Address{
			Name:    s.app.Settings().Meta.SenderName,
			Address: s.app.Settings().Meta.SenderAddress,
		},
		To:      []mail.Address{{Name: t.OwnerName, Address: t.OwnerEmail}},
		Subject: fmt.Sprintf("Your ticket for %s", t.EventName),
		HTML: fmt.Sprintf(
			`<p>Hi %s,</p>
			<p>Your payment is confirmed and your ticket is ready.</p>
			<p><strong>Ticket ID:</strong> %s<br>
			<strong>Event:</strong> %s<br>
			<strong>Type:</strong> %s</p>
			<p>Show the ticket ID at the gate for check in.</p>`,
			t.OwnerName, t.ID, t.EventName, t.TicketType),
	}
	if err := s.app.NewMailClient().Send(msg); err != nil {
		slog.Error("notify: ticket email", "ticket", t.ID, "error", err)
	}
}
