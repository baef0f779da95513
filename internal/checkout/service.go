// Package checkout turns a session cart into a persisted order.
package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/lucsky/cuid"
	"golang.org/x/sync/errgroup"

	"quickbite/internal/chat"
	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/logger"
	"quickbite/internal/common/metrics"
	"quickbite/internal/models"
	"quickbite/internal/notify"
)

const maxDeliveryNote = 500

type MenuLookup interface {
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
}

// PaymentAuthorizer approves a charge and returns its reference.
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, userIdentifier string, amount float64) (string, error)
}

// StubAuthorizer approves every charge.
type StubAuthorizer struct{}

func (StubAuthorizer) Authorize(context.Context, string, float64) (string, error) {
	return "pay_" + cuid.New(), nil
}

type Request struct {
	UserIdentifier string
	Role           models.Role
	DeliveryNote   string
}

type Service struct {
	menu      MenuLookup
	orders    OrderStore
	payments  PaymentAuthorizer
	publisher notify.Publisher
	logger    logger.Logger
}

func NewService(menu MenuLookup, orders OrderStore, payments PaymentAuthorizer, publisher notify.Publisher, log logger.Logger) *Service {
	if payments == nil {
		payments = StubAuthorizer{}
	}
	if publisher == nil {
		publisher = notify.NoopPublisher{}
	}
	return &Service{
		menu:      menu,
		orders:    orders,
		payments:  payments,
		publisher: publisher,
		logger:    log.With(map[string]interface{}{"component": "checkout"}),
	}
}

// Checkout prices every cart line at the current menu price, authorises the
// payment, stores the order and empties the cart.
func (s *Service) Checkout(ctx context.Context, req Request, cart chat.Cart) (*models.Order, error) {
	if !req.Role.IsAuthenticated() {
		return nil, apperrors.NewAuthorizationDeniedError(string(req.Role), "check out")
	}
	note := strings.TrimSpace(req.DeliveryNote)
	if len([]rune(note)) > maxDeliveryNote {
		return nil, apperrors.NewInvalidRequestError("delivery note is too long")
	}

	lines, err := cart.Lines(ctx)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperrors.NewEmptyCartError()
	}

	items, err := s.price(ctx, lines)
	if err != nil {
		return nil, err
	}

	var cents int64
	for _, it := range items {
		cents += models.Cents(it.UnitPrice) * int64(it.Quantity)
	}
	total := float64(cents) / 100

	paymentRef, err := s.payments.Authorize(ctx, req.UserIdentifier, total)
	if err != nil {
		return nil, apperrors.NewCheckoutFailedError(err)
	}

	order := &models.Order{
		UserIdentifier: req.UserIdentifier,
		Status:         models.OrderStatusPaid,
		Total:          total,
		PaymentRef:     paymentRef,
		DeliveryNote:   note,
		Items:          items,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, apperrors.NewCheckoutFailedError(err)
	}
	metrics.OrdersPlaced.Inc()

	if err := cart.ClearCart(ctx); err != nil {
		s.logger.Warn("order placed but cart not cleared", map[string]interface{}{
			"orderId": order.ID,
			"error":   err.Error(),
		})
	}

	event := notify.NewEvent(notify.EventOrderPlaced, notify.OrderPlaced{
		OrderID:        order.ID,
		UserIdentifier: order.UserIdentifier,
		Total:          order.Total,
		PaymentRef:     order.PaymentRef,
		ItemCount:      len(order.Items),
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("order placed event not published", map[string]interface{}{
			"orderId": order.ID,
			"error":   err.Error(),
		})
	}

	s.logger.Info("order placed", map[string]interface{}{
		"orderId":        order.ID,
		"userIdentifier": order.UserIdentifier,
		"total":          order.Total,
	})
	return order, nil
}

// price looks every line up concurrently; any missing item fails the whole
// checkout.
func (s *Service) price(ctx context.Context, lines []models.CartLine) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			item, err := s.menu.GetMenuItem(gctx, line.MenuItemID)
			if errors.Is(err, models.ErrMenuItemNotFound) {
				return apperrors.NewLookupMissError(line.Name)
			}
			if err != nil {
				return err
			}
			items[i] = models.OrderItem{
				MenuItemID:      item.ID,
				Name:            item.Name,
				Quantity:        line.Quantity,
				UnitPrice:       item.Price,
				Personalization: line.Personalization,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}
