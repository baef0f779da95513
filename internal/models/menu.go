// internal/models/menu.go
package models

import (
	"errors"
	"math"
	"time"
)

var (
	ErrMenuItemNotFound = errors.New("MENU_ITEM_NOT_FOUND")
	ErrOrderNotFound    = errors.New("ORDER_NOT_FOUND")
)

// MenuItem is a catalog entry. Name is the lookup key for chat commands.
type MenuItem struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	PhotoURL    string    `json:"photoUrl,omitempty" db:"photo_url"`
	Category    string    `json:"category,omitempty" db:"category"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Cents converts a decimal amount to integer cents.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// SamePrice compares two amounts to the cent.
func SamePrice(a, b float64) bool {
	return Cents(a) == Cents(b)
}
