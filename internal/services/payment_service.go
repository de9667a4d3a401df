package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spotix/config"
	"spotix/internal/services/gateway"
	"spotix/internal/store"
	"spotix/models"
	"spotix/utils"

	"github.com/redis/go-redis/v9"
)

// PaymentService owns the reference lifecycle up to the gateway
// redirect: generate the reference, persist the intent, initialize the
// charge and cache the session.
type PaymentService struct {
	store     store.Store
	registry  *gateway.Registry
	discounts *DiscountService
	redis     *redis.Client
	cfg       *config.Config

	now func() time.Time
}

func NewPaymentService(st store.Store, registry *gateway.Registry, discounts *DiscountService, rdb *redis.Client, cfg *config.Config) *PaymentService {
	return &PaymentService{
		store:     st,
		registry:  registry,
		discounts: discounts,
		redis:     rdb,
		cfg:       cfg,
		now:       time.Now,
	}
}

// InitializeRequest is the buyer's intent to pay.
type InitializeRequest struct {
	PayerID      string               `json:"payer_id"`
	Email        string               `json:"email"`
	EventID      string               `json:"event_id"`
	TicketType   string               `json:"ticket_type"`
	DiscountCode string               `json:"discount_code,omitempty"`
	Method       models.PaymentMethod `json:"payment_method"`
}

// InitializeResult is what the client needs to complete payment.
type InitializeResult struct {
	Reference   string `json:"reference"`
	RedirectURL string `json:"redirect_url,omitempty"`
	AccessCode  string `json:"access_code,omitempty"`
	Amount      int64  `json:"amount"`
}

// InitializePayment creates the reference record, then asks the rail
// for a checkout session. The reference is persisted before the
// gateway call so a crash between the two leaves a traceable intent,
// never an orphan charge.
func (s *PaymentService) InitializePayment(ctx context.Context, req *InitializeRequest) (*InitializeResult, error) {
	if req.Method == "" {
		primary, err := s.registry.Primary()
		if err != nil {
			return nil, err
		}
		req.Method = models.PaymentMethod(primary.GetProvider())
	}

	event, err := s.store.EventByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	tt := event.TicketTypeByName(req.TicketType)
	if tt == nil {
		return nil, fmt.Errorf("unknown ticket type %q for event %s", req.TicketType, req.EventID)
	}

	subtotal := tt.Price
	if req.DiscountCode != "" {
		// Expired or exhausted codes are rejected here, before any
		// reference exists; settlement trusts the priced reference.
		preview, err := s.discounts.ValidateDiscount(ctx, req.EventID, req.DiscountCode, tt.Price)
		if err != nil {
			return nil, err
		}
		subtotal = preview.Subtotal
	}
	total := subtotal
	if subtotal > 0 {
		total = subtotal + subtotal*int64(s.cfg.TransactionFeeRate)/100 + s.cfg.TransactionFeeFlat
	}

	payerName := ""
	if req.PayerID != "" {
		if payer, err := s.store.UserByID(ctx, req.PayerID); err == nil {
			payerName = payer.FullName
		}
	}

	reference, err := utils.GenerateReference()
	if err != nil {
		return nil, fmt.Errorf("generate payment reference: %w", err)
	}

	ref := &models.PaymentReference{
		Reference:      reference,
		PayerID:        req.PayerID,
		Amount:         total,
		Purpose:        models.PurposeTicket,
		EventID:        event.ID,
		EventCreatorID: event.CreatorID,
		TicketType:     req.TicketType,
		DiscountCode:   req.DiscountCode,
		Method:         req.Method,
		CreatedAt:      s.now(),
	}
	if err := s.store.SaveReference(ctx, ref); err != nil {
		return nil, err
	}

	gw, err := s.registry.GetGateway(gateway.Provider(req.Method))
	if err != nil {
		return nil, err
	}
	init, err := gw.Initialize(ctx, &gateway.InitializeRequest{
		Amount:      total,
		Email:       req.Email,
		Reference:   reference,
		CallbackURL: s.cfg.Paystack.CallbackURL,
		Metadata: gateway.ChargeMetadata{
			PayerID:        req.PayerID,
			PayerName:      payerName,
			EventID:        event.ID,
			EventCreatorID: event.CreatorID,
			TicketType:     req.TicketType,
			Purpose:        string(models.PurposeTicket),
		},
	})
	if err != nil {
		return nil, err
	}

	s.cacheSession(ctx, ref, init)

	slog.Info("payment initialized",
		"reference", reference,
		"method", req.Method,
		"event", event.ID,
		"amount", total)

	return &InitializeResult{
		Reference:   reference,
		RedirectURL: init.RedirectURL,
		AccessCode:  init.AccessCode,
		Amount:      total,
	}, nil
}

// cacheSession writes the checkout session to redis so the client can
// resume a pending payment without a new gateway call. Best effort.
func (s *PaymentService) cacheSession(ctx context.Context, ref *models.PaymentReference, init *gateway.InitializeResult) {
	if s.redis == nil {
		return
	}
	key := "payment:" + ref.Reference
	err := s.redis.HSet(ctx, key, map[string]any{
		"payer_id":     ref.PayerID,
		"event_id":     ref.EventID,
		"ticket_type":  ref.TicketType,
		"amount":       ref.Amount,
		"method":       string(ref.Method),
		"redirect_url": init.RedirectURL,
		"access_code":  init.AccessCode,
		"created_at":   ref.CreatedAt.Unix(),
	}).Err()
	if err != nil {
		slog.Warn("payment session cache write failed", "reference", ref.Reference, "error", err)
		return
	}
	if err := s.redis.Expire(ctx, key, s.cfg.PaymentSessionTTL).Err(); err != nil {
		slog.Warn("payment session cache expire failed", "reference", ref.Reference, "error", err)
	}
}

// Session returns the cached checkout session, or nil when it expired.
func (s *PaymentService) Session(ctx context.Context, reference string) (map[string]string, error) {
	if s.redis == nil {
		return nil, nil
	}
	fields, err := s.redis.HGetAll(ctx, "payment:"+reference).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}
