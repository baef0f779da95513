// Package api exposes the assistant and the ordering flow over HTTP.
package api

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quickbite/internal/chat"
	"quickbite/internal/checkout"
	"quickbite/internal/common/logger"
	"quickbite/internal/common/observability"
	"quickbite/internal/models"
	"quickbite/internal/search"
	"quickbite/internal/storage"
)

type SessionStore interface {
	Resolve(ctx context.Context, id string) (*models.Session, bool, error)
	Login(ctx context.Context, previousID, userIdentifier string, role models.Role) (*models.Session, error)
	Logout(ctx context.Context, id string) error
	TTL() time.Duration
}

type MenuReader interface {
	ListMenuItems(ctx context.Context) ([]models.MenuItem, error)
}

type OrderReader interface {
	FindRecentOrders(ctx context.Context, userIdentifier string, limit int) ([]models.Order, error)
	FindOrderByID(ctx context.Context, id int64) (*models.Order, error)
}

type MenuSearcher interface {
	Search(ctx context.Context, query string, size int) ([]search.Hit, error)
}

type CheckoutService interface {
	Checkout(ctx context.Context, req checkout.Request, cart chat.Cart) (*models.Order, error)
}

// Checker is one readiness probe.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

type Config struct {
	CookieName     string
	SecureCookies  bool
	MaxUploadBytes int64
	RequestTimeout time.Duration
	AllowedOrigins []string
	TrustedProxies []string
	// AdminIdentities may log in as Admin; anyone else asking for it gets
	// a Member session.
	AdminIdentities []string
	Mode            string // gin mode: debug | release | test
}

// Dependencies wires the handlers. Search, Images, Observability and
// Readiness are optional.
type Dependencies struct {
	Assistant     *chat.Assistant
	Sessions      SessionStore
	Carts         chat.CartProvider
	Menu          MenuReader
	Orders        OrderReader
	Search        MenuSearcher
	Images        storage.ImageStore
	Checkout      CheckoutService
	Observability *observability.Observability
	Readiness     []Checker
}

type Server struct {
	config Config
	deps   Dependencies
	logger logger.Logger
}

func NewServer(cfg Config, deps Dependencies, log logger.Logger) *Server {
	if cfg.CookieName == "" {
		cfg.CookieName = "qb_session"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5 << 20
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if deps.Search == nil && deps.Menu != nil {
		deps.Search = search.NewFuzzyMenu(deps.Menu)
	}
	return &Server{
		config: cfg,
		deps:   deps,
		logger: log.With(map[string]interface{}{"component": "http-api"}),
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	if s.config.Mode != "" {
		gin.SetMode(s.config.Mode)
	}
	r := gin.New()
	if len(s.config.TrustedProxies) > 0 {
		_ = r.SetTrustedProxies(s.config.TrustedProxies)
	}

	r.Use(gin.CustomRecovery(s.recoverPanic))
	r.Use(s.requestMetrics(), s.requestLog())
	if len(s.config.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", s.withTimeout(), s.withSession())
	{
		api.POST("/chat/messages", s.postMessage)
		api.POST("/chat/images", s.postImage)
		api.POST("/chat/price-edits/confirm", s.confirmPriceEdit)

		api.GET("/menu", s.listMenu)
		api.GET("/menu/search", s.searchMenu)

		api.GET("/cart", s.getCart)
		api.DELETE("/cart", s.clearCart)
		api.POST("/checkout", s.requireMember(), s.postCheckout)

		api.GET("/orders", s.requireMember(), s.listOrders)
		api.GET("/orders/:id", s.requireMember(), s.getOrder)

		api.POST("/session/login", s.login)
		api.POST("/session/logout", s.logout)
		api.GET("/session", s.getSession)
	}
	return r
}
