package repository

import (
	"context"
	"database/sql"
	"errors"

	"quickbite/internal/common/database"
	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/logger"
	"quickbite/internal/models"
)

const orderColumns = `id, user_identifier, status, total, COALESCE(payment_ref, ''), COALESCE(delivery_note, ''), created_at`

type OrderRepository struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewOrderRepository(db *database.PostgresClient, log logger.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: log.With(map[string]interface{}{"repository": "orders"}),
	}
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var status string
	if err := row.Scan(&o.ID, &o.UserIdentifier, &status, &o.Total, &o.PaymentRef, &o.DeliveryNote, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	return &o, nil
}

// FindRecentOrders returns the user's newest orders first, without items.
func (r *OrderRepository) FindRecentOrders(ctx context.Context, userIdentifier string, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_identifier = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		userIdentifier, limit)
	if err != nil {
		return nil, apperrors.NewPersistenceFailureError("find recent orders", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, apperrors.NewPersistenceFailureError("scan order", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceFailureError("find recent orders", err)
	}
	return orders, nil
}

// FindOrderByID loads an order with its items.
func (r *OrderRepository) FindOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, apperrors.NewPersistenceFailureError("find order", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT menu_item_id, name, quantity, unit_price, COALESCE(personalization, '')
		FROM order_items WHERE order_id = $1 ORDER BY menu_item_id`, id)
	if err != nil {
		return nil, apperrors.NewPersistenceFailureError("find order items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.MenuItemID, &it.Name, &it.Quantity, &it.UnitPrice, &it.Personalization); err != nil {
			return nil, apperrors.NewPersistenceFailureError("scan order item", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceFailureError("find order items", err)
	}
	return o, nil
}

// CreateOrder stores the order and its items in one transaction and fills in
// the generated id and timestamp.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO orders (user_identifier, status, total, payment_ref, delivery_note)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
			RETURNING id, created_at`,
			order.UserIdentifier, string(order.Status), order.Total, order.PaymentRef, order.DeliveryNote)
		if err := row.Scan(&order.ID, &order.CreatedAt); err != nil {
			return err
		}

		for _, it := range order.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, menu_item_id, name, quantity, unit_price, personalization)
				VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))`,
				order.ID, it.MenuItemID, it.Name, it.Quantity, it.UnitPrice, it.Personalization); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.NewPersistenceFailureError("create order", err)
	}

	r.logger.Info("order created", map[string]interface{}{
		"orderId":        order.ID,
		"userIdentifier": order.UserIdentifier,
		"items":          len(order.Items),
	})
	return nil
}
