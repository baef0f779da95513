package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"quickbite/internal/models"
)

// ==========================
// In-memory collaborators
// ==========================

type memoryCatalog struct {
	mu     sync.Mutex
	items  []models.MenuItem
	calls  []string
	err    error
	failOn string
}

func newMemoryCatalog(items ...models.MenuItem) *memoryCatalog {
	return &memoryCatalog{items: items}
}

func (c *memoryCatalog) FindMenuItemByExactName(_ context.Context, name string) (*models.MenuItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "exact:"+name)
	if c.err != nil && (c.failOn == "" || c.failOn == "exact") {
		return nil, c.err
	}
	for _, item := range c.items {
		if strings.EqualFold(item.Name, name) {
			found := item
			return &found, nil
		}
	}
	return nil, models.ErrMenuItemNotFound
}

func (c *memoryCatalog) FindMenuItemBySubstring(_ context.Context, name string) (*models.MenuItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "substring:"+name)
	if c.err != nil && (c.failOn == "" || c.failOn == "substring") {
		return nil, c.err
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, models.ErrMenuItemNotFound
	}
	for _, item := range c.items {
		lower := strings.ToLower(item.Name)
		if strings.Contains(lower, needle) || strings.Contains(needle, lower) {
			found := item
			return &found, nil
		}
	}
	return nil, models.ErrMenuItemNotFound
}

func (c *memoryCatalog) ListMenuItems(context.Context) ([]models.MenuItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil && c.failOn == "list" {
		return nil, c.err
	}
	return append([]models.MenuItem(nil), c.items...), nil
}

func (c *memoryCatalog) UpdateMenuItemPrice(_ context.Context, itemName string, newPrice float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil && c.failOn == "update" {
		return c.err
	}
	for i := range c.items {
		if strings.EqualFold(c.items[i].Name, itemName) {
			c.items[i].Price = newPrice
			return nil
		}
	}
	return models.ErrMenuItemNotFound
}

func (c *memoryCatalog) price(name string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.Name == name {
			return item.Price
		}
	}
	return 0
}

type memoryCart struct {
	mu    sync.Mutex
	lines []models.CartLine
	err   error
}

func (c *memoryCart) AddToCart(_ context.Context, item models.MenuItem, quantity int, personalization string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	for i := range c.lines {
		if c.lines[i].MenuItemID == item.ID {
			c.lines[i].Quantity += quantity
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

func (c *memoryCart) RemoveFromCart(_ context.Context, item models.MenuItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].MenuItemID == item.ID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (c *memoryCart) ClearCart(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	return nil
}

func (c *memoryCart) Lines(context.Context) ([]models.CartLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.CartLine(nil), c.lines...), nil
}

type memoryCarts struct {
	mu       sync.Mutex
	sessions map[string]*memoryCart
	err      error
}

func newMemoryCarts() *memoryCarts {
	return &memoryCarts{sessions: make(map[string]*memoryCart)}
}

func (p *memoryCarts) ForSession(sessionID string) Cart {
	p.mu.Lock()
	defer p.mu.Unlock()
	cart, ok := p.sessions[sessionID]
	if !ok {
		cart = &memoryCart{err: p.err}
		p.sessions[sessionID] = cart
	}
	return cart
}

func (p *memoryCarts) touched() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

type memoryOrders struct {
	orders []models.Order
	err    error
}

func (o *memoryOrders) FindRecentOrders(_ context.Context, userIdentifier string, limit int) ([]models.Order, error) {
	if o.err != nil {
		return nil, o.err
	}
	var out []models.Order
	for _, order := range o.orders {
		if order.UserIdentifier == userIdentifier {
			out = append(out, order)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (o *memoryOrders) FindOrderByID(_ context.Context, id int64) (*models.Order, error) {
	if o.err != nil {
		return nil, o.err
	}
	for _, order := range o.orders {
		if order.ID == id {
			found := order
			return &found, nil
		}
	}
	return nil, models.ErrOrderNotFound
}

type stubVision struct {
	tags []string
	err  error
}

func (v *stubVision) Tags(context.Context, string) ([]string, error) {
	return v.tags, v.err
}

type memoryPending struct {
	mu    sync.Mutex
	edits map[string]PriceEditRequest
}

func newMemoryPending() *memoryPending {
	return &memoryPending{edits: make(map[string]PriceEditRequest)}
}

func (p *memoryPending) Propose(_ context.Context, owner string, edit PriceEditRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.edits[owner] = edit
	return nil
}

func (p *memoryPending) Take(_ context.Context, owner string) (*PriceEditRequest, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	edit, ok := p.edits[owner]
	if !ok {
		return nil, nil
	}
	delete(p.edits, owner)
	return &edit, nil
}

type recordingObserver struct {
	mu      sync.Mutex
	changes []PriceEditRequest
}

func (o *recordingObserver) PriceChanged(_ context.Context, itemName string, newPrice float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.changes = append(o.changes, PriceEditRequest{ItemName: itemName, NewPrice: newPrice})
}

type panickingCarts struct{}

func (panickingCarts) ForSession(string) Cart { panic("cart backend exploded") }

var errBackend = errors.New("connection refused")

// ==========================
// Fixtures
// ==========================

func testMenu() []models.MenuItem {
	return []models.MenuItem{
		{ID: 1, Name: "Classic Burger", Description: "Beef patty with lettuce and tomato", Price: 12.90},
		{ID: 2, Name: "Cheeseburger", Description: "Beef patty with cheddar", Price: 14.50},
		{ID: 3, Name: "Caesar Salad", Description: "Romaine, parmesan and croutons", Price: 10.00},
		{ID: 4, Name: "Pudding", Description: "Caramel custard dessert", Price: 6.00},
		{ID: 5, Name: "Margherita Pizza", Description: "Tomato, mozzarella and basil", Price: 22.00},
		{ID: 6, Name: "Iced Tea", Description: "Fresh brewed lemon tea", Price: 4.50},
	}
}
