package chat

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// PriceEditRequest is a proposed catalog price change.
type PriceEditRequest struct {
	ItemName string  `json:"itemName"`
	NewPrice float64 `json:"newPrice"`
}

// Valid reports whether both fields are usable.
func (r PriceEditRequest) Valid() bool {
	return strings.TrimSpace(r.ItemName) != "" && r.NewPrice > 0
}

var (
	// "change the price of Classic Burger to RM 15.00"
	priceOfTemplate = regexp.MustCompile(`(?i)\b(?:modify|change|update|set)\s+(?:the\s+)?price\s+of\s+(.+?)\s+to\s+rm\s*(\S+)`)
	// "Margherita Pizza price to RM 18", optionally led by one of the verbs.
	itemPriceTemplate = regexp.MustCompile(`(?i)^\s*(?:(?:modify|change|update|set)\s+(?:the\s+)?)?(.+?)\s+price\s+to\s+rm\s*(\S+)`)

	// Politeness and the command verb in front of the item name.
	priceNameFiller = regexp.MustCompile(`(?i)^(?:(?:please|pls|kindly|can|could|would|you|i|want|to|let's|the)\s+)*(?:(?:modify|change|update|set)\s+(?:the\s+)?)?`)
)

// ExtractPriceEdit parses an admin price command. When nothing parses, or the
// price is not a positive decimal, it returns an empty request and false.
func ExtractPriceEdit(text string) (PriceEditRequest, bool) {
	for _, template := range []*regexp.Regexp{priceOfTemplate, itemPriceTemplate} {
		m := template.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(priceNameFiller.ReplaceAllString(strings.TrimSpace(m[1]), ""))
		price, err := strconv.ParseFloat(strings.TrimRight(m[2], ".,!?;"), 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 || name == "" {
			return PriceEditRequest{}, false
		}
		return PriceEditRequest{ItemName: name, NewPrice: price}, true
	}
	return PriceEditRequest{}, false
}
