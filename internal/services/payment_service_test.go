package services

import (
	"context"
	"testing"
	"time"

	"spotix/internal/services/gateway"
	"spotix/internal/status"
	"spotix/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturingGateway records the initialize request it receives.
type capturingGateway struct {
	provider gateway.Provider
	lastInit *gateway.InitializeRequest
}

func (g *capturingGateway) GetProvider() gateway.Provider { return g.provider }

func (g *capturingGateway) Initialize(_ context.Context, req *gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	g.lastInit = req
	return &gateway.InitializeResult{
		Reference:   req.Reference,
		RedirectURL: "https://checkout.example/" + req.Reference,
	}, nil
}

func (g *capturingGateway) Verify(_ context.Context, reference string) (*gateway.VerifyResult, error) {
	return &gateway.VerifyResult{Reference: reference, State: gateway.StatePending}, nil
}

func (g *capturingGateway) SetTransactionChannel(chan *status.Transaction) {}
func (g *capturingGateway) Close(context.Context) error                   { return nil }

func newPaymentFixture(t *testing.T) (*PaymentService, *memStore, *capturingGateway) {
	t.Helper()
	st := newMemStore()
	ctx := context.Background()

	st.data.users["u1"] = &models.User{ID: "u1", FullName: "Ada Obi", Email: "ada@example.com"}
	require.NoError(t, st.SaveEvent(ctx, &models.Event{
		ID:        "ev1",
		CreatorID: "creator1",
		Name:      "Lagos Tech Fest",
		Status:    "published",
		TicketTypes: []models.TicketType{
			{Name: "Regular", Price: 2000, Available: 10},
		},
	}))

	gw := &capturingGateway{provider: gateway.ProviderPaystack}
	registry := gateway.NewRegistry()
	registry.RegisterGateway(gw)

	cfg := testConfig()
	svc := NewPaymentService(st, registry, NewDiscountService(st, cfg), nil, cfg)
	return svc, st, gw
}

func TestInitializePaymentPricesAndPersistsIntent(t *testing.T) {
	ctx := context.Background()
	svc, st, gw := newPaymentFixture(t)

	res, err := svc.InitializePayment(ctx, &InitializeRequest{
		PayerID:    "u1",
		Email:      "ada@example.com",
		EventID:    "ev1",
		TicketType: "Regular",
		Method:     models.MethodPaystack,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2150), res.Amount) // 2000 + 5% + 50
	assert.NotEmpty(t, res.RedirectURL)

	stored, err := st.ReferenceByID(ctx, res.Reference)
	require.NoError(t, err)
	assert.False(t, stored.Settled)
	assert.Equal(t, int64(2150), stored.Amount)

	require.NotNil(t, gw.lastInit)
	assert.Equal(t, "Ada Obi", gw.lastInit.Metadata.PayerName)
	assert.Equal(t, "u1", gw.lastInit.Metadata.PayerID)
}

func TestInitializePaymentRejectsExpiredDiscount(t *testing.T) {
	ctx := context.Background()
	svc, st, gw := newPaymentFixture(t)

	require.NoError(t, st.SaveDiscount(ctx, &models.DiscountCode{
		ID:        "d1",
		EventID:   "ev1",
		Code:      "OLD10",
		Type:      models.DiscountPercentage,
		Value:     10,
		MaxUses:   20,
		ExpiresAt: time.Now().Add(-24 * time.Hour),
	}))

	_, err := svc.InitializePayment(ctx, &InitializeRequest{
		PayerID:      "u1",
		Email:        "ada@example.com",
		EventID:      "ev1",
		TicketType:   "Regular",
		DiscountCode: "OLD10",
		Method:       models.MethodPaystack,
	})
	require.ErrorIs(t, err, status.ErrDiscountExpired)

	// Rejected before any intent exists.
	assert.Empty(t, st.data.refs)
	assert.Nil(t, gw.lastInit)
}

func TestInitializePaymentRejectsExhaustedDiscount(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newPaymentFixture(t)

	require.NoError(t, st.SaveDiscount(ctx, &models.DiscountCode{
		ID:        "d1",
		EventID:   "ev1",
		Code:      "GONE10",
		Type:      models.DiscountPercentage,
		Value:     10,
		MaxUses:   1,
		UsedCount: 1,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}))

	_, err := svc.InitializePayment(ctx, &InitializeRequest{
		EventID:      "ev1",
		TicketType:   "Regular",
		Email:        "guest@example.com",
		DiscountCode: "GONE10",
		Method:       models.MethodPaystack,
	})
	require.ErrorIs(t, err, status.ErrDiscountLimitReached)
	assert.Empty(t, st.data.refs)
}

func TestInitializePaymentAppliesValidDiscount(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newPaymentFixture(t)

	require.NoError(t, st.SaveDiscount(ctx, &models.DiscountCode{
		ID:        "d1",
		EventID:   "ev1",
		Code:      "SAVE10",
		Type:      models.DiscountPercentage,
		Value:     10,
		MaxUses:   20,
		UsedCount: 5,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}))

	res, err := svc.InitializePayment(ctx, &InitializeRequest{
		PayerID:      "u1",
		Email:        "ada@example.com",
		EventID:      "ev1",
		TicketType:   "Regular",
		DiscountCode: "SAVE10",
		Method:       models.MethodPaystack,
	})
	require.NoError(t, err)
	// 2000 - 10% = 1800 subtotal; fee = 1800*5/100 + 50 = 140.
	assert.Equal(t, int64(1940), res.Amount)

	// Validation is advisory: the count moves at settlement, not here.
	d, err := st.DiscountByCode(ctx, "ev1", "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 5, d.UsedCount)
}

func TestInitializePaymentDefaultsToPrimaryRail(t *testing.T) {
	ctx := context.Background()
	svc, st, gw := newPaymentFixture(t)

	res, err := svc.InitializePayment(ctx, &InitializeRequest{
		Email:      "guest@example.com",
		EventID:    "ev1",
		TicketType: "Regular",
	})
	require.NoError(t, err)
	require.NotNil(t, gw.lastInit)

	stored, err := st.ReferenceByID(ctx, res.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.MethodPaystack, stored.Method)
}

func TestInitializePaymentUnknownEvent(t *testing.T) {
	svc, _, _ := newPaymentFixture(t)
	_, err := svc.InitializePayment(context.Background(), &InitializeRequest{
		EventID:    "missing",
		TicketType: "Regular",
		Method:     models.MethodPaystack,
	})
	require.ErrorIs(t, err, status.ErrEventNotFound)
}
