package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spotix/config"
	"spotix/internal/status"
	"spotix/internal/store"
	"spotix/models"
	"spotix/monitoring"
	"spotix/utils"
)

// SettleContext carries what the triggering rail knows about the
// payment. A nil SettleContext means "derive everything from the stored
// reference", which is what the polling verifier and the admin
// reconciler use.
type SettleContext struct {
	// AmountPaid is the kobo amount the provider reported, 0 when the
	// trigger does not carry one.
	AmountPaid int64
	Channel    string
	// Method overrides the reference's stored rail, e.g. when an agent
	// confirms a transfer for a reference initialized on another rail.
	Method models.PaymentMethod
}

// SettleResult is the outcome of a settlement attempt.
type SettleResult struct {
	Ticket *models.Ticket
	// AlreadySettled is true when a prior settlement won and this call
	// was a no-op replay.
	AlreadySettled bool
}

// Settler is the single entry point into settlement. Webhooks, the
// polling verifier, the wallet purchase path and the agent consumer all
// funnel through it.
type Settler interface {
	Settle(ctx context.Context, reference string, sc *SettleContext) (*SettleResult, error)
}

// SettlementService converts a confirmed payment into exactly one
// ticket. Every mutation happens inside one store transaction; the
// settled flag on the reference plus the unique payment_reference on
// tickets guard against double issuance.
type SettlementService struct {
	store    store.Store
	cfg      *config.Config
	notifier Notifier

	now func() time.Time
}

func NewSettlementService(st store.Store, cfg *config.Config, notifier Notifier) *SettlementService {
	return &SettlementService{
		store:    st,
		cfg:      cfg,
		notifier: notifier,
		now:      time.Now,
	}
}

// Settle issues the ticket for reference. Replays return the existing
// ticket with AlreadySettled set and write nothing.
func (s *SettlementService) Settle(ctx context.Context, reference string, sc *SettleContext) (*SettleResult, error) {
	var result SettleResult

	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		ref, err := tx.ReferenceByID(ctx, reference)
		if err != nil {
			return err
		}

		// Re-check inside the transaction: two concurrent triggers for
		// the same reference must resolve to one winner.
		if ref.Settled {
			ticket, err := s.settledTicket(ctx, tx, ref)
			if err != nil {
				return err
			}
			result = SettleResult{Ticket: ticket, AlreadySettled: true}
			return nil
		}

		if ref.Purpose != models.PurposeTicket {
			return fmt.Errorf("%w: %s", status.ErrUnsupportedPurpose, ref.Purpose)
		}

		method := ref.Method
		if sc != nil && sc.Method != "" {
			method = sc.Method
		}

		var payer *models.User
		if ref.PayerID != "" {
			payer, err = tx.UserByID(ctx, ref.PayerID)
			if err != nil {
				return err
			}
		} else if method == models.MethodWallet {
			return status.ErrUserNotFound
		}

		event, err := tx.EventByID(ctx, ref.EventID)
		if err != nil {
			return err
		}
		tt := event.TicketTypeByName(ref.TicketType)
		if tt == nil {
			return fmt.Errorf("%w: %q on event %s", status.ErrTicketTypeNotFound, ref.TicketType, ref.EventID)
		}
		if tt.Available <= 0 {
			return fmt.Errorf("%w: %q on event %s", status.ErrInventoryExhausted, ref.TicketType, ref.EventID)
		}

		// Price the ticket. The discount reduces the subtotal; the fee
		// is charged on what the buyer actually pays.
		originalPrice := tt.Price
		subtotal := originalPrice
		var discount *models.DiscountCode
		if ref.DiscountCode != "" {
			discount, err = tx.DiscountByCode(ctx, ref.EventID, ref.DiscountCode)
			if err != nil {
				return err
			}
			subtotal -= discount.AmountOff(originalPrice)
		}
		fee := s.transactionFee(subtotal)
		total := subtotal + fee

		// Cross-check the provider-reported amount. Underpayment never
		// settles; overpayment does (Monnify reports OVERPAID as paid).
		if sc != nil && sc.AmountPaid > 0 && sc.AmountPaid < total {
			return fmt.Errorf("%w: reported %d, due %d on %s",
				status.ErrAmountMismatch, sc.AmountPaid, total, ref.Reference)
		}

		if method == models.MethodWallet {
			if err := s.debitWallet(ctx, tx, payer.ID, total, ref.Reference, event.Name); err != nil {
				return err
			}
		}

		ticket := &models.Ticket{
			ID:               utils.MustGenerateReference(),
			EventID:          event.ID,
			EventName:        event.Name,
			EventCreatorID:   event.CreatorID,
			TicketType:       tt.Name,
			Price:            subtotal,
			OriginalPrice:    originalPrice,
			TransactionFee:   fee,
			TotalAmount:      total,
			Method:           method,
			PaymentReference: ref.Reference,
			CreatedAt:        s.now(),
		}
		if payer != nil {
			ticket.OwnerID = payer.ID
			ticket.OwnerName = payer.FullName
			ticket.OwnerEmail = payer.Email
		}

		// Dual write: attendees feeds the organizer's live list,
		// ticket_history is the buyer's permanent record.
		if err := tx.SaveAttendee(ctx, ticket); err != nil {
			return err
		}
		if err := tx.SaveTicketHistory(ctx, ticket); err != nil {
			return err
		}

		tt.Available--
		event.TicketsSold++
		event.TotalRevenue += subtotal
		if err := tx.SaveEvent(ctx, event); err != nil {
			return err
		}

		if discount != nil {
			discount.UsedCount++
			if err := tx.SaveDiscount(ctx, discount); err != nil {
				return err
			}
		}

		settledAt := s.now()
		ref.Settled = true
		ref.SettledAt = &settledAt
		ref.TicketID = ticket.ID
		ref.Method = method
		if err := tx.SaveReference(ctx, ref); err != nil {
			return err
		}

		result = SettleResult{Ticket: ticket}
		return nil
	})
	if err != nil {
		monitoring.TrackSettlement(methodLabel(sc), settleErrLabel(err))
		return nil, err
	}

	if result.AlreadySettled {
		monitoring.TrackSettlement(string(result.Ticket.Method), "replay")
		slog.Info("settlement replayed, returning existing ticket",
			"reference", reference, "ticket", result.Ticket.ID)
		return &result, nil
	}

	monitoring.TrackSettlement(string(result.Ticket.Method), "settled")
	monitoring.TrackTicketIssued(string(result.Ticket.Method))
	slog.Info("reference settled",
		"reference", reference,
		"ticket", result.Ticket.ID,
		"event", result.Ticket.EventID,
		"total", result.Ticket.TotalAmount)

	// Fire and forget: notification failure never unwinds a settlement.
	if s.notifier != nil {
		ticket := result.Ticket
		go func() {
			nctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			s.notifier.TicketIssued(nctx, ticket)
		}()
	}

	return &result, nil
}

// settledTicket resolves the existing ticket of an already settled
// reference, preferring the stored ticket id over the idempotency
// lookup.
func (s *SettlementService) settledTicket(ctx context.Context, tx store.Store, ref *models.PaymentReference) (*models.Ticket, error) {
	if ref.TicketID != "" {
		t, err := tx.TicketByID(ctx, ref.TicketID)
		if err == nil {
			return t, nil
		}
	}
	return tx.TicketByReference(ctx, ref.Reference)
}

func (s *SettlementService) debitWallet(ctx context.Context, tx store.Store, userID string, amount int64, reference, eventName string) error {
	wallet, err := tx.WalletByUser(ctx, userID)
	if err != nil {
		return err
	}
	if wallet.Balance < amount {
		return fmt.Errorf("%w: balance %d, need %d", status.ErrInsufficientFunds, wallet.Balance, amount)
	}
	wallet.Balance -= amount
	if err := tx.SaveWallet(ctx, wallet); err != nil {
		return err
	}
	monitoring.WalletDebitsTotal.Inc()
	return tx.AppendWalletTransaction(ctx, &models.WalletTransaction{
		UserID:      userID,
		Amount:      amount,
		Direction:   models.WalletDebit,
		Reference:   reference,
		Description: "Ticket purchase: " + eventName,
		CreatedAt:   s.now(),
	})
}

// transactionFee is rate percent of the subtotal plus the flat part.
// Free tickets carry no fee.
func (s *SettlementService) transactionFee(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	return subtotal*int64(s.cfg.TransactionFeeRate)/100 + s.cfg.TransactionFeeFlat
}

func methodLabel(sc *SettleContext) string {
	if sc != nil && sc.Method != "" {
		return string(sc.Method)
	}
	return "unknown"
}

func settleErrLabel(err error) string {
	switch {
	case errors.Is(err, status.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, status.ErrInventoryExhausted):
		return "sold_out"
	case errors.Is(err, status.ErrAmountMismatch):
		return "amount_mismatch"
	case errors.Is(err, status.ErrReferenceNotFound):
		return "reference_not_found"
	case errors.Is(err, status.ErrStorageConflict):
		return "conflict"
	default:
		return "error"
	}
}
