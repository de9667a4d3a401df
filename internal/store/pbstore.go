package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"spotix/internal/status"
	"spotix/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// Collection names. The Firestore layout of the original frontend maps
// subcollections onto flat collections with relation fields.
const (
	colReferences = "references"
	colEvents     = "events"
	colAttendees  = "attendees"
	colHistory    = "ticket_history"
	colDiscounts  = "discounts"
	colReferrals  = "referrals"
	colWallets    = "wallets"
	colWalletTx   = "wallet_transactions"
	colUsers      = "users"
)

// PBStore is the PocketBase-backed Store. Inside RunInTransaction it
// wraps the transactional core.App, so the settled re-check and the
// settlement writes share one atomic unit.
type PBStore struct {
	app core.App
}

func NewPBStore(app core.App) *PBStore {
	return &PBStore{app: app}
}

func (s *PBStore) RunInTransaction(_ context.Context, fn func(tx Store) error) error {
	err := s.app.RunInTransaction(func(txApp core.App) error {
		return fn(&PBStore{app: txApp})
	})
	if err != nil && isConflict(err) {
		return fmt.Errorf("%w: %v", status.ErrStorageConflict, err)
	}
	return err
}

// isConflict matches sqlite contention so callers can retry the whole
// settle call.
func isConflict(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// --- references ---

func (s *PBStore) ReferenceByID(_ context.Context, reference string) (*models.PaymentReference, error) {
	rec, err := s.app.FindFirstRecordByFilter(colReferences,
		"reference = {:ref}", dbx.Params{"ref": reference})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrReferenceNotFound
		}
		return nil, err
	}
	return referenceFromRecord(rec), nil
}

func (s *PBStore) SaveReference(_ context.Context, ref *models.PaymentReference) error {
	rec, err := s.app.FindFirstRecordByFilter(colReferences,
		"reference = {:ref}", dbx.Params{"ref": ref.Reference})
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		collection, err := s.app.FindCollectionByNameOrId(colReferences)
		if err != nil {
			return err
		}
		rec = core.NewRecord(collection)
	}

	rec.Set("reference", ref.Reference)
	rec.Set("payer", ref.PayerID)
	rec.Set("amount", ref.Amount)
	rec.Set("purpose", string(ref.Purpose))
	rec.Set("event", ref.EventID)
	rec.Set("event_creator", ref.EventCreatorID)
	rec.Set("ticket_type", ref.TicketType)
	rec.Set("contestant", ref.ContestantID)
	rec.Set("discount_code", ref.DiscountCode)
	rec.Set("payment_method", string(ref.Method))
	rec.Set("settled", ref.Settled)
	if ref.SettledAt != nil {
		rec.Set("settled_at", *ref.SettledAt)
	}
	rec.Set("ticket_id", ref.TicketID)
	return s.app.Save(rec)
}

func (s *PBStore) StaleReferences(_ context.Context, cutoff time.Time) ([]*models.PaymentReference, error) {
	recs, err := s.app.FindRecordsByFilter(colReferences,
		"settled = false && created < {:cutoff}", "created", 200, 0,
		dbx.Params{"cutoff": cutoff.UTC().Format("2006-01-02 15:04:05.000Z")})
	if err != nil {
		return nil, err
	}
	refs := make([]*models.PaymentReference, 0, len(recs))
	for _, rec := range recs {
		refs = append(refs, referenceFromRecord(rec))
	}
	return refs, nil
}

func referenceFromRecord(rec *core.Record) *models.PaymentReference {
	ref := &models.PaymentReference{
		Reference:      rec.GetString("reference"),
		PayerID:        rec.GetString("payer"),
		Amount:         int64(rec.GetInt("amount")),
		Purpose:        models.Purpose(rec.GetString("purpose")),
		EventID:        rec.GetString("event"),
		EventCreatorID: rec.GetString("event_creator"),
		TicketType:     rec.GetString("ticket_type"),
		ContestantID:   rec.GetString("contestant"),
		DiscountCode:   rec.GetString("discount_code"),
		Method:         models.PaymentMethod(rec.GetString("payment_method")),
		Settled:        rec.GetBool("settled"),
		TicketID:       rec.GetString("ticket_id"),
		CreatedAt:      rec.GetDateTime("created").Time(),
	}
	if dt := rec.GetDateTime("settled_at"); !dt.IsZero() {
		t := dt.Time()
		ref.SettledAt = &t
	}
	return ref
}

// --- users ---

func (s *PBStore) UserByID(_ context.Context, id string) (*models.User, error) {
	rec, err := s.app.FindRecordById(colUsers, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrUserNotFound
		}
		return nil, err
	}
	return &models.User{
		ID:         rec.Id,
		FullName:   rec.GetString("name"),
		Email:      rec.GetString("email"),
		WalletPin:  rec.GetString("wallet_pin"),
		ReferredBy: rec.GetString("referred_by"),
	}, nil
}

// --- events ---

func (s *PBStore) EventByID(_ context.Context, eventID string) (*models.Event, error) {
	rec, err := s.app.FindRecordById(colEvents, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrEventNotFound
		}
		return nil, err
	}
	ev := &models.Event{
		ID:           rec.Id,
		CreatorID:    rec.GetString("creator"),
		Name:         rec.GetString("name"),
		Venue:        rec.GetString("venue"),
		StartsAt:     rec.GetDateTime("starts_at").Time(),
		Status:       rec.GetString("status"),
		TicketsSold:  rec.GetInt("tickets_sold"),
		TotalRevenue: int64(rec.GetInt("total_revenue")),
	}
	if raw := rec.GetString("ticket_types"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &ev.TicketTypes); err != nil {
			return nil, fmt.Errorf("event %s: decode ticket_types: %w", eventID, err)
		}
	}
	return ev, nil
}

func (s *PBStore) SaveEvent(_ context.Context, ev *models.Event) error {
	rec, err := s.app.FindRecordById(colEvents, ev.ID)
	if err != nil {
		return err
	}
	types, err := json.Marshal(ev.TicketTypes)
	if err != nil {
		return err
	}
	rec.Set("tickets_sold", ev.TicketsSold)
	rec.Set("total_revenue", ev.TotalRevenue)
	rec.Set("ticket_types", string(types))
	return s.app.Save(rec)
}

// --- discounts ---

func (s *PBStore) DiscountByCode(_ context.Context, eventID, code string) (*models.DiscountCode, error) {
	rec, err := s.app.FindFirstRecordByFilter(colDiscounts,
		"event = {:event} && code = {:code}",
		dbx.Params{"event": eventID, "code": code})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrDiscountNotFound
		}
		return nil, err
	}
	return &models.DiscountCode{
		ID:        rec.Id,
		EventID:   rec.GetString("event"),
		Code:      rec.GetString("code"),
		Type:      models.DiscountType(rec.GetString("discount_type")),
		Value:     int64(rec.GetInt("discount_value")),
		MaxUses:   rec.GetInt("max_uses"),
		UsedCount: rec.GetInt("used_count"),
		ExpiresAt: rec.GetDateTime("expiry_date").Time(),
	}, nil
}

func (s *PBStore) SaveDiscount(_ context.Context, d *models.DiscountCode) error {
	rec, err := s.app.FindRecordById(colDiscounts, d.ID)
	if err != nil {
		return err
	}
	rec.Set("used_count", d.UsedCount)
	return s.app.Save(rec)
}

// --- referrals ---

func (s *PBStore) ReferralByCode(_ context.Context, code string) (*models.ReferralLedger, error) {
	rec, err := s.app.FindFirstRecordByFilter(colReferrals,
		"code = {:code}", dbx.Params{"code": code})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrReferralNotFound
		}
		return nil, err
	}
	ledger := &models.ReferralLedger{
		Code:           rec.GetString("code"),
		OwnerID:        rec.GetString("owner"),
		RefGain:        int64(rec.GetInt("ref_gain")),
		TotalWithdrawn: int64(rec.GetInt("total_withdrawn")),
	}
	if raw := rec.GetString("referred_users"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &ledger.ReferredUsers); err != nil {
			return nil, fmt.Errorf("referral %s: decode referred_users: %w", code, err)
		}
	}
	return ledger, nil
}

func (s *PBStore) SaveReferral(_ context.Context, r *models.ReferralLedger) error {
	rec, err := s.app.FindFirstRecordByFilter(colReferrals,
		"code = {:code}", dbx.Params{"code": r.Code})
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		collection, err := s.app.FindCollectionByNameOrId(colReferrals)
		if err != nil {
			return err
		}
		rec = core.NewRecord(collection)
		rec.Set("code", r.Code)
		rec.Set("owner", r.OwnerID)
	}
	referred, err := json.Marshal(r.ReferredUsers)
	if err != nil {
		return err
	}
	rec.Set("referred_users", string(referred))
	rec.Set("ref_gain", r.RefGain)
	rec.Set("total_withdrawn", r.TotalWithdrawn)
	return s.app.Save(rec)
}

// --- wallets ---

func (s *PBStore) WalletByUser(_ context.Context, userID string) (*models.Wallet, error) {
	rec, err := s.app.FindFirstRecordByFilter(colWallets,
		"user = {:user}", dbx.Params{"user": userID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.Wallet{UserID: userID}, nil
		}
		return nil, err
	}
	return &models.Wallet{
		UserID:  rec.GetString("user"),
		Balance: int64(rec.GetInt("balance")),
	}, nil
}

func (s *PBStore) SaveWallet(_ context.Context, w *models.Wallet) error {
	rec, err := s.app.FindFirstRecordByFilter(colWallets,
		"user = {:user}", dbx.Params{"user": w.UserID})
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		collection, err := s.app.FindCollectionByNameOrId(colWallets)
		if err != nil {
			return err
		}
		rec = core.NewRecord(collection)
		rec.Set("user", w.UserID)
	}
	rec.Set("balance", w.Balance)
	return s.app.Save(rec)
}

func (s *PBStore) AppendWalletTransaction(_ context.Context, t *models.WalletTransaction) error {
	collection, err := s.app.FindCollectionByNameOrId(colWalletTx)
	if err != nil {
		return err
	}
	rec := core.NewRecord(collection)
	rec.Set("user", t.UserID)
	rec.Set("amount", t.Amount)
	rec.Set("direction", string(t.Direction))
	rec.Set("reference", t.Reference)
	rec.Set("description", t.Description)
	return s.app.Save(rec)
}

// --- tickets ---

func (s *PBStore) TicketByID(_ context.Context, ticketID string) (*models.Ticket, error) {
	rec, err := s.app.FindFirstRecordByFilter(colAttendees,
		"ticket_id = {:id}", dbx.Params{"id": ticketID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrReferenceNotFound
		}
		return nil, err
	}
	return ticketFromRecord(rec), nil
}

func (s *PBStore) TicketByReference(_ context.Context, reference string) (*models.Ticket, error) {
	rec, err := s.app.FindFirstRecordByFilter(colAttendees,
		"payment_reference = {:ref}", dbx.Params{"ref": reference})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrReferenceNotFound
		}
		return nil, err
	}
	return ticketFromRecord(rec), nil
}

func (s *PBStore) SaveAttendee(_ context.Context, t *models.Ticket) error {
	return s.saveTicket(colAttendees, t)
}

func (s *PBStore) SaveTicketHistory(_ context.Context, t *models.Ticket) error {
	return s.saveTicket(colHistory, t)
}

func (s *PBStore) saveTicket(collectionName string, t *models.Ticket) error {
	collection, err := s.app.FindCollectionByNameOrId(collectionName)
	if err != nil {
		return err
	}
	rec := core.NewRecord(collection)
	rec.Set("ticket_id", t.ID)
	rec.Set("owner", t.OwnerID)
	rec.Set("owner_name", t.OwnerName)
	rec.Set("owner_email", t.OwnerEmail)
	rec.Set("event", t.EventID)
	rec.Set("event_name", t.EventName)
	rec.Set("event_creator", t.EventCreatorID)
	rec.Set("ticket_type", t.TicketType)
	rec.Set("price", t.Price)
	rec.Set("original_price", t.OriginalPrice)
	rec.Set("transaction_fee", t.TransactionFee)
	rec.Set("total_amount", t.TotalAmount)
	rec.Set("payment_method", string(t.Method))
	rec.Set("payment_reference", t.PaymentReference)
	rec.Set("verified", t.Verified)
	return s.app.Save(rec)
}

func ticketFromRecord(rec *core.Record) *models.Ticket {
	return &models.Ticket{
		ID:               rec.GetString("ticket_id"),
		OwnerID:          rec.GetString("owner"),
		OwnerName:        rec.GetString("owner_name"),
		OwnerEmail:       rec.GetString("owner_email"),
		EventID:          rec.GetString("event"),
		EventName:        rec.GetString("event_name"),
		EventCreatorID:   rec.GetString("event_creator"),
		TicketType:       rec.GetString("ticket_type"),
		Price:            int64(rec.GetInt("price")),
		OriginalPrice:    int64(rec.GetInt("original_price")),
		TransactionFee:   int64(rec.GetInt("transaction_fee")),
		TotalAmount:      int64(rec.GetInt("total_amount")),
		Method:           models.PaymentMethod(rec.GetString("payment_method")),
		PaymentReference: rec.GetString("payment_reference"),
		Verified:         rec.GetBool("verified"),
		CreatedAt:        rec.GetDateTime("created").Time(),
	}
}
