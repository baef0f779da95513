// internal/models/cart.go
package models

// CartLine is one item in a session cart.
type CartLine struct {
	MenuItemID      int64   `json:"menuItemId"`
	Name            string  `json:"name"`
	UnitPrice       float64 `json:"unitPrice"`
	Quantity        int     `json:"quantity"`
	Personalization string  `json:"personalization,omitempty"`
}

func (l CartLine) LineTotal() float64 {
	return float64(l.Quantity) * l.UnitPrice
}

// CartTotal sums line totals in cents to avoid float drift.
func CartTotal(lines []CartLine) float64 {
	var cents int64
	for _, l := range lines {
		cents += Cents(l.UnitPrice) * int64(l.Quantity)
	}
	return float64(cents) / 100
}
