package chat

import (
	"context"

	"quickbite/internal/models"
)

// MenuCatalog looks up menu items. Lookups that find nothing return
// models.ErrMenuItemNotFound.
type MenuCatalog interface {
	FindMenuItemByExactName(ctx context.Context, name string) (*models.MenuItem, error)
	FindMenuItemBySubstring(ctx context.Context, name string) (*models.MenuItem, error)
	ListMenuItems(ctx context.Context) ([]models.MenuItem, error)
}

// OrderHistory reads persisted orders. FindOrderByID returns
// models.ErrOrderNotFound for unknown ids.
type OrderHistory interface {
	FindRecentOrders(ctx context.Context, userIdentifier string, limit int) ([]models.Order, error)
	FindOrderByID(ctx context.Context, id int64) (*models.Order, error)
}

// Cart is a session-scoped cart.
type Cart interface {
	AddToCart(ctx context.Context, item models.MenuItem, quantity int, personalization string) error
	RemoveFromCart(ctx context.Context, item models.MenuItem) error
	ClearCart(ctx context.Context) error
	Lines(ctx context.Context) ([]models.CartLine, error)
}

type CartProvider interface {
	ForSession(sessionID string) Cart
}

// PriceUpdater commits a price. Unknown names yield models.ErrMenuItemNotFound.
type PriceUpdater interface {
	UpdateMenuItemPrice(ctx context.Context, itemName string, newPrice float64) error
}

// VisionClient returns descriptive tags for an uploaded image.
type VisionClient interface {
	Tags(ctx context.Context, imageRef string) ([]string, error)
}

// PendingEdits holds the last proposed price edit per admin. Take returns
// nil when nothing is pending and removes what it returns.
type PendingEdits interface {
	Propose(ctx context.Context, owner string, edit PriceEditRequest) error
	Take(ctx context.Context, owner string) (*PriceEditRequest, error)
}

// PriceObserver is notified after a price commit. Failures are the
// observer's concern and never affect the reply.
type PriceObserver interface {
	PriceChanged(ctx context.Context, itemName string, newPrice float64)
}
