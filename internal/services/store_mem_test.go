package services

import (
	"context"
	"sync"
	"time"

	"spotix/internal/status"
	"spotix/internal/store"
	"spotix/models"
)

// memStore is an in-memory store.Store for service tests. Reads return
// copies and saves store copies, so transaction rollback only needs to
// restore the map snapshots. The mutex is held for the whole
// transaction, which also mirrors sqlite's single-writer behavior.
type memStore struct {
	mu   *sync.Mutex
	data *memData
	inTx bool
}

type memData struct {
	refs      map[string]*models.PaymentReference
	users     map[string]*models.User
	events    map[string]*models.Event
	discounts map[string]*models.DiscountCode // eventID + "/" + code
	referrals map[string]*models.ReferralLedger
	wallets   map[string]*models.Wallet
	walletTx  []*models.WalletTransaction
	attendees map[string]*models.Ticket // by payment reference
	history   map[string]*models.Ticket
}

func newMemStore() *memStore {
	return &memStore{
		mu: &sync.Mutex{},
		data: &memData{
			refs:      map[string]*models.PaymentReference{},
			users:     map[string]*models.User{},
			events:    map[string]*models.Event{},
			discounts: map[string]*models.DiscountCode{},
			referrals: map[string]*models.ReferralLedger{},
			wallets:   map[string]*models.Wallet{},
			attendees: map[string]*models.Ticket{},
			history:   map[string]*models.Ticket{},
		},
	}
}

func (m *memStore) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *memStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.data.snapshot()
	tx := &memStore{mu: m.mu, data: m.data, inTx: true}
	if err := fn(tx); err != nil {
		*m.data = *snap
		return err
	}
	return nil
}

// snapshot copies the maps shallowly; values are never mutated in
// place because every save stores a fresh copy.
func (d *memData) snapshot() *memData {
	s := &memData{
		refs:      map[string]*models.PaymentReference{},
		users:     map[string]*models.User{},
		events:    map[string]*models.Event{},
		discounts: map[string]*models.DiscountCode{},
		referrals: map[string]*models.ReferralLedger{},
		wallets:   map[string]*models.Wallet{},
		walletTx:  append([]*models.WalletTransaction(nil), d.walletTx...),
		attendees: map[string]*models.Ticket{},
		history:   map[string]*models.Ticket{},
	}
	for k, v := range d.refs {
		s.refs[k] = v
	}
	for k, v := range d.users {
		s.users[k] = v
	}
	for k, v := range d.events {
		s.events[k] = v
	}
	for k, v := range d.discounts {
		s.discounts[k] = v
	}
	for k, v := range d.referrals {
		s.referrals[k] = v
	}
	for k, v := range d.wallets {
		s.wallets[k] = v
	}
	for k, v := range d.attendees {
		s.attendees[k] = v
	}
	for k, v := range d.history {
		s.history[k] = v
	}
	return s
}

func copyRef(r *models.PaymentReference) *models.PaymentReference {
	c := *r
	if r.SettledAt != nil {
		t := *r.SettledAt
		c.SettledAt = &t
	}
	return &c
}

func copyEvent(e *models.Event) *models.Event {
	c := *e
	c.TicketTypes = append([]models.TicketType(nil), e.TicketTypes...)
	return &c
}

func copyLedger(l *models.ReferralLedger) *models.ReferralLedger {
	c := *l
	c.ReferredUsers = append([]string(nil), l.ReferredUsers...)
	return &c
}

func (m *memStore) ReferenceByID(_ context.Context, reference string) (*models.PaymentReference, error) {
	defer m.lock()()
	r, ok := m.data.refs[reference]
	if !ok {
		return nil, status.ErrReferenceNotFound
	}
	return copyRef(r), nil
}

func (m *memStore) SaveReference(_ context.Context, ref *models.PaymentReference) error {
	defer m.lock()()
	m.data.refs[ref.Reference] = copyRef(ref)
	return nil
}

func (m *memStore) StaleReferences(_ context.Context, cutoff time.Time) ([]*models.PaymentReference, error) {
	defer m.lock()()
	var out []*models.PaymentReference
	for _, r := range m.data.refs {
		if !r.Settled && r.CreatedAt.Before(cutoff) {
			out = append(out, copyRef(r))
		}
	}
	return out, nil
}

func (m *memStore) UserByID(_ context.Context, id string) (*models.User, error) {
	defer m.lock()()
	u, ok := m.data.users[id]
	if !ok {
		return nil, status.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (m *memStore) EventByID(_ context.Context, eventID string) (*models.Event, error) {
	defer m.lock()()
	e, ok := m.data.events[eventID]
	if !ok {
		return nil, status.ErrEventNotFound
	}
	return copyEvent(e), nil
}

func (m *memStore) SaveEvent(_ context.Context, ev *models.Event) error {
	defer m.lock()()
	m.data.events[ev.ID] = copyEvent(ev)
	return nil
}

func (m *memStore) DiscountByCode(_ context.Context, eventID, code string) (*models.DiscountCode, error) {
	defer m.lock()()
	d, ok := m.data.discounts[eventID+"/"+code]
	if !ok {
		return nil, status.ErrDiscountNotFound
	}
	c := *d
	return &c, nil
}

func (m *memStore) SaveDiscount(_ context.Context, d *models.DiscountCode) error {
	defer m.lock()()
	c := *d
	m.data.discounts[d.EventID+"/"+d.Code] = &c
	return nil
}

func (m *memStore) ReferralByCode(_ context.Context, code string) (*models.ReferralLedger, error) {
	defer m.lock()()
	l, ok := m.data.referrals[code]
	if !ok {
		return nil, status.ErrReferralNotFound
	}
	return copyLedger(l), nil
}

func (m *memStore) SaveReferral(_ context.Context, r *models.ReferralLedger) error {
	defer m.lock()()
	m.data.referrals[r.Code] = copyLedger(r)
	return nil
}

func (m *memStore) WalletByUser(_ context.Context, userID string) (*models.Wallet, error) {
	defer m.lock()()
	w, ok := m.data.wallets[userID]
	if !ok {
		return &models.Wallet{UserID: userID}, nil
	}
	c := *w
	return &c, nil
}

func (m *memStore) SaveWallet(_ context.Context, w *models.Wallet) error {
	defer m.lock()()
	c := *w
	m.data.wallets[w.UserID] = &c
	return nil
}

func (m *memStore) AppendWalletTransaction(_ context.Context, t *models.WalletTransaction) error {
	defer m.lock()()
	c := *t
	m.data.walletTx = append(m.data.walletTx, &c)
	return nil
}

func (m *memStore) TicketByID(_ context.Context, ticketID string) (*models.Ticket, error) {
	defer m.lock()()
	for _, t := range m.data.attendees {
		if t.ID == ticketID {
			c := *t
			return &c, nil
		}
	}
	return nil, status.ErrReferenceNotFound
}

func (m *memStore) TicketByReference(_ context.Context, reference string) (*models.Ticket, error) {
	defer m.lock()()
	t, ok := m.data.attendees[reference]
	if !ok {
		return nil, status.ErrReferenceNotFound
	}
	c := *t
	return &c, nil
}

func (m *memStore) SaveAttendee(_ context.Context, t *models.Ticket) error {
	defer m.lock()()
	c := *t
	m.data.attendees[t.PaymentReference] = &c
	return nil
}

func (m *memStore) SaveTicketHistory(_ context.Context, t *models.Ticket) error {
	defer m.lock()()
	c := *t
	m.data.history[t.PaymentReference] = &c
	return nil
}
