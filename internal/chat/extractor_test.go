package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractOrderItems(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []ExtractedOrderItem
	}{
		{
			name: "digits followed by to cart",
			text: "add 3 caesar salad to my cart",
			want: []ExtractedOrderItem{{Name: "caesar salad", Quantity: 3}},
		},
		{
			name: "word number",
			text: "order two pudding",
			want: []ExtractedOrderItem{{Name: "pudding", Quantity: 2}},
		},
		{
			name: "several numeric items",
			text: "add 2 Classic Burger and 1 Iced Tea to my cart",
			want: []ExtractedOrderItem{
				{Name: "Classic Burger", Quantity: 2},
				{Name: "Iced Tea", Quantity: 1},
			},
		},
		{
			name: "multiplier notation",
			text: "2x cheeseburger please",
			want: []ExtractedOrderItem{{Name: "cheeseburger", Quantity: 2}},
		},
		{
			name: "article without a verb falls back to known names",
			text: "I'd like a Cola",
			want: []ExtractedOrderItem{{Name: "Cola", Quantity: 1}},
		},
		{
			name: "article straight after the verb counts as one",
			text: "get an iced tea and two puddings",
			want: []ExtractedOrderItem{
				{Name: "iced tea", Quantity: 1},
				{Name: "puddings", Quantity: 2},
			},
		},
		{
			name: "article inside a personalization is not a quantity",
			text: "order pudding with a cherry on top",
			want: []ExtractedOrderItem{{Name: "pudding", Quantity: 1, Personalization: "with a cherry on top"}},
		},
		{
			name: "bare items joined by and",
			text: "get me the chicken wings and a cola",
			want: []ExtractedOrderItem{
				{Name: "chicken wings", Quantity: 1},
				{Name: "cola", Quantity: 1},
			},
		},
		{
			name: "bare item after the last ordering verb",
			text: "I want to order pudding please",
			want: []ExtractedOrderItem{{Name: "pudding", Quantity: 1}},
		},
		{
			name: "zero quantity clamps to one",
			text: "add 0 pudding to cart",
			want: []ExtractedOrderItem{{Name: "pudding", Quantity: 1}},
		},
		{
			name: "personalization is split off",
			text: "add 1 classic burger with extra cheese",
			want: []ExtractedOrderItem{{Name: "classic burger", Quantity: 1, Personalization: "with extra cheese"}},
		},
		{
			name: "known names scan",
			text: "Nasi Lemak tonight?",
			want: []ExtractedOrderItem{{Name: "Nasi Lemak", Quantity: 1}},
		},
		{
			name: "nothing to extract",
			text: "hmm nothing here",
			want: nil,
		},
		{
			name: "empty",
			text: "  ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractOrderItems(tt.text))
		})
	}
}

func TestExtractOrderItems_QuantityAlwaysPositive(t *testing.T) {
	inputs := []string{
		"add 0 pudding", "order some fries", "get an iced tea", "buy twelve cola",
		"add 7 nasi lemak to my cart", "want pudding",
	}
	for _, in := range inputs {
		for _, item := range ExtractOrderItems(in) {
			assert.GreaterOrEqual(t, item.Quantity, 1, in)
			assert.NotEmpty(t, item.Name, in)
		}
	}
}

func TestExtractOrderItems_RejectsPlaceholderNames(t *testing.T) {
	assert.Empty(t, ExtractOrderItems("add to cart"))
	assert.Empty(t, ExtractOrderItems("place my order"))
}
