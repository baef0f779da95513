package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPriceEdit(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   PriceEditRequest
		wantOK bool
	}{
		{"price of template", "modify the price of Classic Burger to RM 15.00", PriceEditRequest{"Classic Burger", 15.00}, true},
		{"item price template", "set Margherita Pizza price to RM 18", PriceEditRequest{"Margherita Pizza", 18}, true},
		{"item price template without verb", "Iced Tea price to RM 5.5", PriceEditRequest{"Iced Tea", 5.5}, true},
		{"polite lead-in", "please set Margherita Pizza price to RM 18", PriceEditRequest{"Margherita Pizza", 18}, true},
		{"question lead-in", "can you update the Iced Tea price to RM 5", PriceEditRequest{"Iced Tea", 5}, true},
		{"no space after currency", "Change the price of Pudding to rm7.50.", PriceEditRequest{"Pudding", 7.5}, true},
		{"update verb", "update price of Cola to RM 3", PriceEditRequest{"Cola", 3}, true},
		{"not a number", "change the price of Pudding to RM abc", PriceEditRequest{}, false},
		{"zero price", "change the price of Pudding to RM 0", PriceEditRequest{}, false},
		{"negative price", "change the price of Pudding to RM -3", PriceEditRequest{}, false},
		{"nan", "set Pudding price to RM NaN", PriceEditRequest{}, false},
		{"missing price", "change the price of pudding", PriceEditRequest{}, false},
		{"unrelated", "hello", PriceEditRequest{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractPriceEdit(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriceEditRequest_Valid(t *testing.T) {
	assert.True(t, PriceEditRequest{ItemName: "Pudding", NewPrice: 1}.Valid())
	assert.False(t, PriceEditRequest{ItemName: " ", NewPrice: 1}.Valid())
	assert.False(t, PriceEditRequest{ItemName: "Pudding"}.Valid())
}
