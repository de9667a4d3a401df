// Package store abstracts the document store behind the settlement
// pipeline. The production implementation wraps PocketBase; tests use
// an in-memory fake. RunInTransaction is the store's atomic unit: every
// read inside the callback sees the transaction's own writes, and
// nothing persists if the callback returns an error.
package store

import (
	"context"
	"time"

	"spotix/models"
)

type Store interface {
	// RunInTransaction executes fn against a transactional view of the
	// store. All-or-nothing.
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	ReferenceByID(ctx context.Context, reference string) (*models.PaymentReference, error)
	SaveReference(ctx context.Context, ref *models.PaymentReference) error
	// StaleReferences lists unsettled references created before the
	// cutoff, for operator reconciliation.
	StaleReferences(ctx context.Context, cutoff time.Time) ([]*models.PaymentReference, error)

	UserByID(ctx context.Context, id string) (*models.User, error)

	EventByID(ctx context.Context, eventID string) (*models.Event, error)
	SaveEvent(ctx context.Context, ev *models.Event) error

	DiscountByCode(ctx context.Context, eventID, code string) (*models.DiscountCode, error)
	SaveDiscount(ctx context.Context, d *models.DiscountCode) error

	ReferralByCode(ctx context.Context, code string) (*models.ReferralLedger, error)
	SaveReferral(ctx context.Context, r *models.ReferralLedger) error

	// WalletByUser returns a zero-balance wallet when none exists yet;
	// SaveWallet upserts.
	WalletByUser(ctx context.Context, userID string) (*models.Wallet, error)
	SaveWallet(ctx context.Context, w *models.Wallet) error
	AppendWalletTransaction(ctx context.Context, t *models.WalletTransaction) error

	TicketByID(ctx context.Context, ticketID string) (*models.Ticket, error)
	// TicketByReference is the idempotency lookup: the attendee record
	// whose payment_reference matches, or ErrReferenceNotFound.
	TicketByReference(ctx context.Context, reference string) (*models.Ticket, error)
	// SaveAttendee and SaveTicketHistory are the intentional dual write
	// of the same ticket payload; both run inside the settlement
	// transaction.
	SaveAttendee(ctx context.Context, t *models.Ticket) error
	SaveTicketHistory(ctx context.Context, t *models.Ticket) error
}
