package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"quickbite/internal/cart"
	"quickbite/internal/chat"
	"quickbite/internal/checkout"
	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/logger"
	"quickbite/internal/models"
	"quickbite/internal/pricing"
	"quickbite/internal/session"
)

// ==========================
// Test doubles
// ==========================

type memoryMenu struct {
	mu    sync.Mutex
	items []models.MenuItem
}

func newMemoryMenu() *memoryMenu {
	return &memoryMenu{items: []models.MenuItem{
		{ID: 1, Name: "Classic Burger", Description: "beef patty", Price: 12.9},
		{ID: 2, Name: "Cheeseburger", Description: "double cheese", Price: 14.5},
		{ID: 3, Name: "Pudding", Description: "caramel pudding", Price: 6},
		{ID: 4, Name: "Iced Tea", Description: "lemon tea", Price: 4.5},
	}}
}

func (m *memoryMenu) find(match func(models.MenuItem) bool) (*models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if match(item) {
			it := item
			return &it, nil
		}
	}
	return nil, models.ErrMenuItemNotFound
}

func (m *memoryMenu) FindMenuItemByExactName(_ context.Context, name string) (*models.MenuItem, error) {
	return m.find(func(i models.MenuItem) bool { return strings.EqualFold(i.Name, name) })
}

func (m *memoryMenu) FindMenuItemBySubstring(_ context.Context, needle string) (*models.MenuItem, error) {
	return m.find(func(i models.MenuItem) bool {
		name, n := strings.ToLower(i.Name), strings.ToLower(needle)
		return n != "" && (strings.Contains(name, n) || strings.Contains(n, name))
	})
}

func (m *memoryMenu) GetMenuItem(_ context.Context, id int64) (*models.MenuItem, error) {
	return m.find(func(i models.MenuItem) bool { return i.ID == id })
}

func (m *memoryMenu) ListMenuItems(context.Context) ([]models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.MenuItem(nil), m.items...), nil
}

func (m *memoryMenu) UpdateMenuItemPrice(_ context.Context, name string, price float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if strings.EqualFold(m.items[i].Name, name) {
			m.items[i].Price = price
			return nil
		}
	}
	return models.ErrMenuItemNotFound
}

type memoryOrders struct {
	mu     sync.Mutex
	orders []models.Order
}

func (o *memoryOrders) CreateOrder(_ context.Context, order *models.Order) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	order.ID = int64(len(o.orders) + 1)
	order.CreatedAt = time.Now()
	o.orders = append(o.orders, *order)
	return nil
}

func (o *memoryOrders) FindRecentOrders(_ context.Context, user string, limit int) ([]models.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []models.Order
	for i := len(o.orders) - 1; i >= 0 && len(out) < limit; i-- {
		if o.orders[i].UserIdentifier == user {
			out = append(out, o.orders[i])
		}
	}
	return out, nil
}

func (o *memoryOrders) FindOrderByID(_ context.Context, id int64) (*models.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, order := range o.orders {
		if order.ID == id {
			ord := order
			return &ord, nil
		}
	}
	return nil, models.ErrOrderNotFound
}

type stubImages struct {
	url string
	got string
}

func (s *stubImages) Upload(_ context.Context, owner, contentType string, body io.Reader, _ int64) (string, error) {
	data, _ := io.ReadAll(body)
	s.got = contentType + ":" + string(data)
	return s.url, nil
}

type stubVision struct {
	tags []string
}

func (s stubVision) Tags(context.Context, string) ([]string, error) {
	return s.tags, nil
}

// ==========================
// Test harness
// ==========================

type testServer struct {
	router http.Handler
	menu   *memoryMenu
	orders *memoryOrders
	images *stubImages
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := logger.NewZapAdapter(zaptest.NewLogger(t))
	menu := newMemoryMenu()
	orders := &memoryOrders{}
	carts := cart.NewStore(rdb, time.Hour, log)
	images := &stubImages{url: "https://cdn.test/burger.jpg"}

	assistant := chat.NewAssistant(&chat.Config{Currency: "RM", Selector: chat.FirstSelector{}}, chat.Dependencies{
		Catalog: menu,
		Orders:  orders,
		Carts:   carts,
		Prices:  menu,
		Vision:  stubVision{tags: []string{"burger"}},
		Pending: pricing.NewPendingStore(rdb, 10*time.Minute),
	}, log)

	srv := NewServer(Config{
		Mode:            "test",
		MaxUploadBytes:  1 << 10,
		AdminIdentities: []string{"root", "Admin@QuickBite.my"},
	}, Dependencies{
		Assistant: assistant,
		Sessions:  session.NewManager(rdb, time.Hour, log),
		Carts:     carts,
		Menu:      menu,
		Orders:    orders,
		Images:    images,
		Checkout:  checkout.NewService(menu, orders, nil, nil, log),
		Readiness: []Checker{{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }}},
	}, log)

	return &testServer{router: srv.Router(), menu: menu, orders: orders, images: images}
}

// client keeps the session cookie between requests.
type client struct {
	t      *testing.T
	srv    *testServer
	cookie *http.Cookie
}

func (ts *testServer) client(t *testing.T) *client {
	return &client{t: t, srv: ts}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.srv.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "qb_session" {
			if ck.MaxAge < 0 {
				c.cookie = nil
			} else {
				c.cookie = ck
			}
		}
	}
	return w
}

func (c *client) json(method, path string, body interface{}) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *client) login(user, role string) {
	w := c.json(http.MethodPost, "/api/session/login", map[string]string{"userIdentifier": user, "role": role})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
}

func (c *client) say(text string) chat.TranscriptView {
	w := c.json(http.MethodPost, "/api/chat/messages", map[string]string{"text": text})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	var view chat.TranscriptView
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &view))
	return view
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// ==========================
// Tests
// ==========================

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)

	w := c.json(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = c.json(http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"ok"`)

	w = c.json(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuestSessionIsIssued(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)

	w := c.json(http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, c.cookie)

	var sess models.Session
	decode(t, w, &sess)
	assert.Equal(t, models.RoleGuest, sess.Role)
	assert.Equal(t, c.cookie.Value, sess.ID)
}

func TestChat_GuestCannotOrder(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)

	view := c.say("add 2 classic burgers")
	require.NotEmpty(t, view.Replies)
	assert.NotContains(t, view.Replies[0], "Added to your cart")

	w := c.json(http.MethodGet, "/api/cart", nil)
	assert.Contains(t, w.Body.String(), `"lines":[]`)
}

func TestChat_MemberOrdersAndChecksOut(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)
	c.login("alice@example.com", "member")

	view := c.say("add 2 classic burgers and 1 iced tea")
	require.NotEmpty(t, view.Replies)
	assert.Contains(t, view.Replies[0], "Added to your cart")

	w := c.json(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cartBody struct {
		Lines []models.CartLine `json:"lines"`
		Total float64           `json:"total"`
	}
	decode(t, w, &cartBody)
	require.Len(t, cartBody.Lines, 2)
	assert.InDelta(t, 30.3, cartBody.Total, 0.001)

	w = c.json(http.MethodPost, "/api/checkout", map[string]string{"deliveryNote": "lobby"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	decode(t, w, &order)
	assert.Equal(t, "alice@example.com", order.UserIdentifier)
	assert.InDelta(t, 30.3, order.Total, 0.001)

	w = c.json(http.MethodPost, "/api/checkout", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = c.json(http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userIdentifier":"alice@example.com"`)

	w = c.json(http.MethodGet, "/api/orders/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOrders_OwnershipAndAuth(t *testing.T) {
	ts := newTestServer(t)
	ts.orders.orders = []models.Order{{ID: 1, UserIdentifier: "bob", Status: models.OrderStatusPaid, Total: 6}}

	guest := ts.client(t)
	w := guest.json(http.MethodGet, "/api/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	alice := ts.client(t)
	alice.login("alice", "member")
	w = alice.json(http.MethodGet, "/api/orders/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = alice.json(http.MethodGet, "/api/orders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	admin := ts.client(t)
	admin.login("root", "admin")
	w = admin.json(http.MethodGet, "/api/orders/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChat_AdminPriceEditRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)
	c.login("admin@quickbite.my", "admin")

	view := c.say("change the price of pudding to RM 7.50")
	require.NotNil(t, view.Confirmation, view.Replies)
	payload := view.Confirmation.Payload
	assert.Equal(t, "Pudding", payload.ItemName)
	assert.Equal(t, 7.5, payload.NewPrice)

	w := c.json(http.MethodPost, "/api/chat/price-edits/confirm", payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Done!")

	item, err := ts.menu.FindMenuItemByExactName(context.Background(), "Pudding")
	require.NoError(t, err)
	assert.Equal(t, 7.5, item.Price)

	w = c.json(http.MethodPost, "/api/chat/price-edits/confirm", payload)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "doesn't match")
}

func TestLogin_AdminRoleNeedsAllowedIdentity(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)

	w := c.json(http.MethodPost, "/api/session/login", map[string]string{"userIdentifier": "mallory", "role": "admin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sess models.Session
	decode(t, w, &sess)
	assert.Equal(t, models.RoleMember, sess.Role)

	view := c.say("change the price of pudding to RM 1")
	assert.Nil(t, view.Confirmation)

	w = c.json(http.MethodPost, "/api/chat/price-edits/confirm", chat.ConfirmationPayload{
		Action: chat.ActionConfirmPriceEdit, ItemName: "Pudding", NewPrice: 1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	item, _ := ts.menu.FindMenuItemByExactName(context.Background(), "Pudding")
	assert.Equal(t, 6.0, item.Price)

	admin := ts.client(t)
	w = admin.json(http.MethodPost, "/api/session/login", map[string]string{"userIdentifier": "admin@quickbite.my", "role": "Admin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &sess)
	assert.Equal(t, models.RoleAdmin, sess.Role)
}

func TestChat_MemberCannotConfirmPriceEdit(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)
	c.login("alice", "member")

	w := c.json(http.MethodPost, "/api/chat/price-edits/confirm", chat.ConfirmationPayload{
		Action: chat.ActionConfirmPriceEdit, ItemName: "Pudding", NewPrice: 1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	item, _ := ts.menu.FindMenuItemByExactName(context.Background(), "Pudding")
	assert.Equal(t, 6.0, item.Price)
}

func TestValidation(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)

	tests := []struct {
		name string
		path string
		body interface{}
	}{
		{"empty chat text", "/api/chat/messages", map[string]string{"text": ""}},
		{"extra chat field", "/api/chat/messages", map[string]interface{}{"text": "hi", "role": "Admin"}},
		{"guest login", "/api/session/login", map[string]string{"userIdentifier": "x", "role": "Guest"}},
		{"non-positive price", "/api/chat/price-edits/confirm", map[string]interface{}{"itemName": "Pudding", "newPrice": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := c.json(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/chat/messages", nil)
	w := c.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func multipartImage(t *testing.T, field, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="photo"`}
	h["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestChat_ImageUpload(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)
	c.login("alice", "member")

	body, ct := multipartImage(t, "image", "image/jpeg", []byte("jpeg"))
	req := httptest.NewRequest(http.MethodPost, "/api/chat/images", body)
	req.Header.Set("Content-Type", ct)
	w := c.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/jpeg:jpeg", ts.images.got)
	assert.Contains(t, w.Body.String(), "Classic Burger")
}

func TestChat_ImageUploadErrors(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/images", strings.NewReader(""))
	w := c.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, ct := multipartImage(t, "image", "image/png", bytes.Repeat([]byte("x"), 4<<10))
	req = httptest.NewRequest(http.MethodPost, "/api/chat/images", body)
	req.Header.Set("Content-Type", ct)
	w = c.do(req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestMenuAndSearch(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)

	w := c.json(http.MethodGet, "/api/menu", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var menu struct {
		Items []models.MenuItem `json:"items"`
	}
	decode(t, w, &menu)
	assert.Len(t, menu.Items, 4)

	w = c.json(http.MethodGet, "/api/menu/search?q=pudd", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Pudding")

	w = c.json(http.MethodGet, "/api/menu/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)
	c.login("alice", "member")

	w := c.json(http.MethodPost, "/api/session/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Nil(t, c.cookie)

	w = c.json(http.MethodGet, "/api/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := map[apperrors.ErrorCode]int{
		apperrors.ErrCodeInvalidRequest:      http.StatusBadRequest,
		apperrors.ErrCodeAuthorizationDenied: http.StatusForbidden,
		apperrors.ErrCodeEmptyCart:           http.StatusUnprocessableEntity,
		apperrors.ErrCodeCartUnavailable:     http.StatusServiceUnavailable,
		apperrors.ErrCodeVisionAPITimeout:    http.StatusBadGateway,
		apperrors.ErrCodeInternal:            http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, statusFor(code), string(code))
	}
}
