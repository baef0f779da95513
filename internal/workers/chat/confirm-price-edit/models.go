// internal/workers/chat/confirm-price-edit/models.go
package confirmpriceedit

type Input struct {
	Role           string  `json:"role"`
	UserIdentifier string  `json:"userIdentifier"`
	ItemName       string  `json:"itemName"`
	NewPrice       float64 `json:"newPrice"`
}

type Output struct {
	Replies     []string `json:"replies"`
	Suggestions []string `json:"suggestions"`
}
