// internal/models/order.go
package models

import "time"

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// Label is the human readable status used in chat replies.
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPending:
		return "pending"
	case OrderStatusPaid:
		return "paid"
	case OrderStatusPreparing:
		return "being prepared"
	case OrderStatusOutForDelivery:
		return "out for delivery"
	case OrderStatusDelivered:
		return "delivered"
	case OrderStatusCancelled:
		return "cancelled"
	default:
		return string(s)
	}
}

type Order struct {
	ID             int64       `json:"id" db:"id"`
	UserIdentifier string      `json:"userIdentifier" db:"user_identifier"`
	Status         OrderStatus `json:"status" db:"status"`
	Total          float64     `json:"total" db:"total"`
	PaymentRef     string      `json:"paymentRef,omitempty" db:"payment_ref"`
	DeliveryNote   string      `json:"deliveryNote,omitempty" db:"delivery_note"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	Items          []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	MenuItemID      int64   `json:"menuItemId" db:"menu_item_id"`
	Name            string  `json:"name" db:"name"`
	Quantity        int     `json:"quantity" db:"quantity"`
	UnitPrice       float64 `json:"unitPrice" db:"unit_price"`
	Personalization string  `json:"personalization,omitempty" db:"personalization"`
}

// LineTotal returns quantity times unit price.
func (i OrderItem) LineTotal() float64 {
	return float64(i.Quantity) * i.UnitPrice
}
