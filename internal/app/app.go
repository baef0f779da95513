// Package app assembles the QuickBite runtime shared by the API server and
// the worker manager.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"quickbite/internal/api"
	"quickbite/internal/cart"
	"quickbite/internal/chat"
	"quickbite/internal/checkout"
	awsclient "quickbite/internal/common/aws"
	"quickbite/internal/common/config"
	"quickbite/internal/common/database"
	"quickbite/internal/common/logger"
	"quickbite/internal/notify"
	"quickbite/internal/pricing"
	"quickbite/internal/repository"
	"quickbite/internal/search"
	"quickbite/internal/session"
	"quickbite/internal/storage"
	"quickbite/internal/vision"
)

// Components holds every long-lived collaborator. Elastic, MenuIndex and
// Images are nil when the matching feature is disabled.
type Components struct {
	Postgres  *database.PostgresClient
	Redis     *database.RedisClient
	Elastic   *database.ElasticsearchClient
	Menu      *repository.MenuRepository
	Orders    *repository.OrderRepository
	Carts     *cart.Store
	Sessions  *session.Manager
	MenuIndex *search.MenuIndex
	Images    storage.ImageStore
	Publisher notify.Publisher
	Checkout  *checkout.Service
	Assistant *chat.Assistant
}

// RetryWithBackoff runs operation until it succeeds, doubling the delay
// after each failure.
func RetryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// Build connects to the backing stores and wires the assistant. On error
// everything opened so far is closed.
func Build(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (*Components, error) {
	log := logger.NewZapAdapter(zapLog)
	c := &Components{}

	var err error
	if c.Postgres, err = database.NewPostgres(cfg.Database.Postgres); err != nil {
		return nil, err
	}
	err = RetryWithBackoff(func() error {
		return c.Postgres.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		c.Close()
		return nil, err
	}
	zapLog.Info("PostgreSQL connected successfully")

	c.Redis = database.NewRedis(cfg.Database.Redis)
	err = RetryWithBackoff(func() error {
		return c.Redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		c.Close()
		return nil, err
	}
	zapLog.Info("Redis connected successfully")

	var indexer pricing.MenuIndexer
	if cfg.Database.Elasticsearch.Enabled {
		if c.Elastic, err = database.NewElasticsearch(cfg.Database.Elasticsearch); err != nil {
			c.Close()
			return nil, err
		}
		err = RetryWithBackoff(func() error {
			return c.Elastic.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			c.Close()
			return nil, err
		}
		c.MenuIndex = search.NewMenuIndex(c.Elastic.Client, cfg.Database.Elasticsearch.MenuIndex, log)
		if err := c.MenuIndex.EnsureIndex(ctx); err != nil {
			zapLog.Warn("menu index not ready", zap.Error(err))
		}
		indexer = c.MenuIndex
		zapLog.Info("Elasticsearch connected successfully")
	}

	c.Publisher = notify.NoopPublisher{}
	if sns := cfg.Notifications.SNS; sns.Enabled {
		client, err := awsclient.NewSNSClient(ctx, sns.Region)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("sns client: %w", err)
		}
		c.Publisher = notify.NewSNSPublisher(client, sns.TopicARN, log)
	}

	if s3cfg := cfg.Storage.S3; s3cfg.Enabled {
		client, err := awsclient.NewS3Client(ctx, s3cfg.Region, s3cfg.Endpoint, s3cfg.ForcePathStyle)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		c.Images = storage.NewS3Store(client, storage.Config{
			Bucket:        s3cfg.Bucket,
			Region:        s3cfg.Region,
			KeyPrefix:     s3cfg.KeyPrefix,
			PublicBaseURL: s3cfg.PublicBaseURL,
		}, log)
	}

	c.Menu = repository.NewMenuRepository(c.Postgres, log)
	c.Orders = repository.NewOrderRepository(c.Postgres, log)
	c.Carts = cart.NewStore(c.Redis.Client, cfg.Chat.CartDuration(), log)
	c.Sessions = session.NewManager(c.Redis.Client, cfg.HTTP.SessionDuration(), log)
	c.Checkout = checkout.NewService(c.Menu, c.Orders, checkout.StubAuthorizer{}, c.Publisher, log)

	deps := chat.Dependencies{
		Catalog: c.Menu,
		Orders:  c.Orders,
		Carts:   c.Carts,
		Prices:  c.Menu,
		Observers: []chat.PriceObserver{
			pricing.NewPropagator(c.Menu, indexer, c.Publisher, log),
		},
	}
	if ttl := cfg.Chat.PendingEditDuration(); ttl > 0 {
		deps.Pending = pricing.NewPendingStore(c.Redis.Client, ttl)
	}
	if cfg.Vision.BaseURL != "" {
		deps.Vision = vision.NewClient(vision.Config{
			BaseURL:    cfg.Vision.BaseURL,
			APIKey:     cfg.Vision.APIKey,
			Timeout:    config.GetDuration(cfg.Vision.Timeout),
			MaxRetries: cfg.Vision.MaxRetries,
		}, log)
	}

	c.Assistant = chat.NewAssistant(&chat.Config{
		Currency:         cfg.Chat.Currency,
		RecentOrderLimit: cfg.Chat.RecentOrderLimit,
		VisionMatchLimit: cfg.Chat.VisionMatchLimit,
		MaxMessageLength: cfg.Chat.MaxMessageLength,
		Selector:         chat.NewSelector(cfg.Chat.Selector, cfg.Chat.Seed),
	}, deps, log)

	return c, nil
}

// APIDependencies maps the components onto the HTTP server's needs.
func (c *Components) APIDependencies() api.Dependencies {
	deps := api.Dependencies{
		Assistant: c.Assistant,
		Sessions:  c.Sessions,
		Carts:     c.Carts,
		Menu:      c.Menu,
		Orders:    c.Orders,
		Images:    c.Images,
		Checkout:  c.Checkout,
		Readiness: c.Readiness(),
	}
	if c.MenuIndex != nil {
		deps.Search = c.MenuIndex
	}
	return deps
}

// Readiness returns one probe per connected backing store.
func (c *Components) Readiness() []api.Checker {
	checks := []api.Checker{
		{Name: "postgres", Check: c.Postgres.Ping},
		{Name: "redis", Check: c.Redis.Ping},
	}
	if c.Elastic != nil {
		checks = append(checks, api.Checker{Name: "elasticsearch", Check: c.Elastic.Ping})
	}
	return checks
}

func (c *Components) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Postgres != nil {
		_ = c.Postgres.Close()
	}
}
