package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/logger"
	"quickbite/internal/models"
	"quickbite/internal/notify"
)

type stubMenu map[int64]models.MenuItem

func (m stubMenu) GetMenuItem(_ context.Context, id int64) (*models.MenuItem, error) {
	item, ok := m[id]
	if !ok {
		return nil, models.ErrMenuItemNotFound
	}
	return &item, nil
}

type memoryOrders struct {
	created []*models.Order
	err     error
}

func (o *memoryOrders) CreateOrder(_ context.Context, order *models.Order) error {
	if o.err != nil {
		return o.err
	}
	order.ID = int64(len(o.created) + 100)
	o.created = append(o.created, order)
	return nil
}

type memoryCart struct {
	mu       sync.Mutex
	lines    []models.CartLine
	cleared  bool
	clearErr error
}

func (c *memoryCart) AddToCart(context.Context, models.MenuItem, int, string) error { return nil }
func (c *memoryCart) RemoveFromCart(context.Context, models.MenuItem) error         { return nil }

func (c *memoryCart) ClearCart(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clearErr != nil {
		return c.clearErr
	}
	c.cleared = true
	c.lines = nil
	return nil
}

func (c *memoryCart) Lines(context.Context) ([]models.CartLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.CartLine(nil), c.lines...), nil
}

type recordingPublisher struct {
	events []notify.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e notify.Event) error {
	r.events = append(r.events, e)
	return nil
}

func createTestService(t *testing.T, orders *memoryOrders, pub *recordingPublisher) *Service {
	menu := stubMenu{
		1: {ID: 1, Name: "Classic Burger", Price: 13.9},
		6: {ID: 6, Name: "Iced Tea", Price: 4.5},
	}
	return NewService(menu, orders, nil, pub, logger.NewZapAdapter(zaptest.NewLogger(t)))
}

func member() Request {
	return Request{UserIdentifier: "alice", Role: models.RoleMember}
}

func TestService_Checkout(t *testing.T) {
	orders := &memoryOrders{}
	pub := &recordingPublisher{}
	svc := createTestService(t, orders, pub)

	cart := &memoryCart{lines: []models.CartLine{
		{MenuItemID: 1, Name: "Classic Burger", UnitPrice: 12.9, Quantity: 2, Personalization: "no onions"},
		{MenuItemID: 6, Name: "Iced Tea", UnitPrice: 4.5, Quantity: 1},
	}}

	req := member()
	req.DeliveryNote = "  ring twice "
	order, err := svc.Checkout(context.Background(), req, cart)
	require.NoError(t, err)

	assert.Equal(t, int64(100), order.ID)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.InDelta(t, 32.3, order.Total, 0.001, "lines are repriced at the current menu price")
	assert.True(t, strings.HasPrefix(order.PaymentRef, "pay_"))
	assert.Equal(t, "ring twice", order.DeliveryNote)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "no onions", order.Items[0].Personalization)

	assert.True(t, cart.cleared)
	require.Len(t, pub.events, 1)
	assert.Equal(t, notify.EventOrderPlaced, pub.events[0].Type)
	assert.Equal(t, 2, pub.events[0].Payload.(notify.OrderPlaced).ItemCount)
}

func TestService_CheckoutErrors(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		lines    []models.CartLine
		orderErr error
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "guest",
			req:      Request{Role: models.RoleGuest},
			lines:    []models.CartLine{{MenuItemID: 1, Quantity: 1}},
			wantCode: apperrors.ErrCodeAuthorizationDenied,
		},
		{
			name:     "empty cart",
			req:      member(),
			wantCode: apperrors.ErrCodeEmptyCart,
		},
		{
			name:     "item removed from menu",
			req:      member(),
			lines:    []models.CartLine{{MenuItemID: 99, Name: "Ghost Pepper Wings", Quantity: 1}},
			wantCode: apperrors.ErrCodeLookupMiss,
		},
		{
			name:     "note too long",
			req:      Request{UserIdentifier: "alice", Role: models.RoleMember, DeliveryNote: strings.Repeat("x", 501)},
			lines:    []models.CartLine{{MenuItemID: 1, Quantity: 1}},
			wantCode: apperrors.ErrCodeInvalidRequest,
		},
		{
			name:     "database failure",
			req:      member(),
			lines:    []models.CartLine{{MenuItemID: 1, Quantity: 1}},
			orderErr: errors.New("insert failed"),
			wantCode: apperrors.ErrCodeCheckoutFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &memoryOrders{err: tt.orderErr}
			pub := &recordingPublisher{}
			svc := createTestService(t, orders, pub)
			cart := &memoryCart{lines: tt.lines}

			_, err := svc.Checkout(context.Background(), tt.req, cart)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
			assert.False(t, cart.cleared)
			assert.Empty(t, pub.events)
		})
	}
}

func TestService_CartClearFailureStillPlacesOrder(t *testing.T) {
	orders := &memoryOrders{}
	svc := createTestService(t, orders, &recordingPublisher{})
	cart := &memoryCart{
		lines:    []models.CartLine{{MenuItemID: 6, Name: "Iced Tea", Quantity: 3}},
		clearErr: errors.New("redis down"),
	}

	order, err := svc.Checkout(context.Background(), member(), cart)
	require.NoError(t, err)
	assert.InDelta(t, 13.5, order.Total, 0.001)
	assert.Len(t, orders.created, 1)
}
