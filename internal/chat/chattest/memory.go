// Package chattest provides in-memory collaborators for driving a
// chat.Assistant in tests outside the chat package.
package chattest

import (
	"context"
	"strings"
	"sync"

	"quickbite/internal/chat"
	"quickbite/internal/common/logger"
	"quickbite/internal/models"
)

// Catalog is a MenuCatalog and PriceUpdater over a fixed slice.
type Catalog struct {
	mu    sync.Mutex
	items []models.MenuItem
}

func NewCatalog(items ...models.MenuItem) *Catalog {
	return &Catalog{items: append([]models.MenuItem(nil), items...)}
}

func (c *Catalog) FindMenuItemByExactName(_ context.Context, name string) (*models.MenuItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if strings.EqualFold(item.Name, name) {
			found := item
			return &found, nil
		}
	}
	return nil, models.ErrMenuItemNotFound
}

func (c *Catalog) FindMenuItemBySubstring(_ context.Context, name string) (*models.MenuItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, models.ErrMenuItemNotFound
	}
	for _, item := range c.items {
		name := strings.ToLower(item.Name)
		if strings.Contains(name, needle) || strings.Contains(needle, name) {
			found := item
			return &found, nil
		}
	}
	return nil, models.ErrMenuItemNotFound
}

func (c *Catalog) ListMenuItems(context.Context) ([]models.MenuItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.MenuItem(nil), c.items...), nil
}

func (c *Catalog) UpdateMenuItemPrice(_ context.Context, itemName string, newPrice float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if strings.EqualFold(c.items[i].Name, itemName) {
			c.items[i].Price = newPrice
			return nil
		}
	}
	return models.ErrMenuItemNotFound
}

// Price returns the current price of name, or 0.
func (c *Catalog) Price(name string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if strings.EqualFold(item.Name, name) {
			return item.Price
		}
	}
	return 0
}

// Orders is an OrderHistory over a fixed slice, newest first.
type Orders struct {
	List []models.Order
}

func (o *Orders) FindRecentOrders(_ context.Context, userIdentifier string, limit int) ([]models.Order, error) {
	var out []models.Order
	for _, order := range o.List {
		if order.UserIdentifier != userIdentifier {
			continue
		}
		out = append(out, order)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (o *Orders) FindOrderByID(_ context.Context, id int64) (*models.Order, error) {
	for _, order := range o.List {
		if order.ID == id {
			found := order
			return &found, nil
		}
	}
	return nil, models.ErrOrderNotFound
}

// Carts keeps one Cart per session id.
type Carts struct {
	mu       sync.Mutex
	sessions map[string]*Cart
}

func NewCarts() *Carts {
	return &Carts{sessions: make(map[string]*Cart)}
}

func (p *Carts) ForSession(sessionID string) chat.Cart {
	return p.Session(sessionID)
}

// Session returns the concrete cart for sessionID, creating it if needed.
func (p *Carts) Session(sessionID string) *Cart {
	p.mu.Lock()
	defer p.mu.Unlock()
	cart, ok := p.sessions[sessionID]
	if !ok {
		cart = &Cart{}
		p.sessions[sessionID] = cart
	}
	return cart
}

type Cart struct {
	mu    sync.Mutex
	lines []models.CartLine
}

func (c *Cart) AddToCart(_ context.Context, item models.MenuItem, quantity int, personalization string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].MenuItemID == item.ID {
			c.lines[i].Quantity += quantity
			if personalization != "" {
				c.lines[i].Personalization = personalization
			}
			return nil
		}
	}
	c.lines = append(c.lines, models.CartLine{
		MenuItemID:      item.ID,
		Name:            item.Name,
		UnitPrice:       item.Price,
		Quantity:        quantity,
		Personalization: personalization,
	})
	return nil
}

func (c *Cart) RemoveFromCart(_ context.Context, item models.MenuItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].MenuItemID == item.ID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			break
		}
	}
	return nil
}

func (c *Cart) ClearCart(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	return nil
}

func (c *Cart) Lines(context.Context) ([]models.CartLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.CartLine(nil), c.lines...), nil
}

// Pending is a PendingEdits map keyed by owner.
type Pending struct {
	mu    sync.Mutex
	edits map[string]chat.PriceEditRequest
}

func NewPending() *Pending {
	return &Pending{edits: make(map[string]chat.PriceEditRequest)}
}

func (p *Pending) Propose(_ context.Context, owner string, edit chat.PriceEditRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.edits[owner] = edit
	return nil
}

func (p *Pending) Take(_ context.Context, owner string) (*chat.PriceEditRequest, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	edit, ok := p.edits[owner]
	if !ok {
		return nil, nil
	}
	delete(p.edits, owner)
	return &edit, nil
}

// Vision returns fixed tags.
type Vision struct {
	Labels []string
	Err    error
}

func (v *Vision) Tags(context.Context, string) ([]string, error) {
	return v.Labels, v.Err
}

// Menu is a small fixed menu.
func Menu() []models.MenuItem {
	return []models.MenuItem{
		{ID: 1, Name: "Classic Burger", Description: "Beef patty with lettuce and tomato", Price: 12.90, Category: "mains"},
		{ID: 2, Name: "Caesar Salad", Description: "Romaine, parmesan and croutons", Price: 10.00, Category: "salads"},
		{ID: 3, Name: "Iced Tea", Description: "Fresh brewed lemon tea", Price: 4.50, Category: "drinks"},
	}
}

// Fixture bundles an assistant with its in-memory collaborators.
type Fixture struct {
	Catalog   *Catalog
	Orders    *Orders
	Carts     *Carts
	Pending   *Pending
	Vision    *Vision
	Assistant *chat.Assistant
}

// NewFixture builds an assistant over Menu() that always picks the first
// reply variant.
func NewFixture(log logger.Logger) *Fixture {
	f := &Fixture{
		Catalog: NewCatalog(Menu()...),
		Orders:  &Orders{},
		Carts:   NewCarts(),
		Pending: NewPending(),
		Vision:  &Vision{Labels: []string{"burger"}},
	}
	f.Assistant = chat.NewAssistant(&chat.Config{
		Currency: "$",
		Selector: chat.FirstSelector{},
	}, chat.Dependencies{
		Catalog: f.Catalog,
		Orders:  f.Orders,
		Carts:   f.Carts,
		Prices:  f.Catalog,
		Vision:  f.Vision,
		Pending: f.Pending,
	}, log)
	return f
}
