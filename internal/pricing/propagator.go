package pricing

import (
	"context"
	"time"

	"quickbite/internal/common/logger"
	"quickbite/internal/models"
	"quickbite/internal/notify"
)

type ItemLookup interface {
	FindMenuItemByExactName(ctx context.Context, name string) (*models.MenuItem, error)
}

type MenuIndexer interface {
	Index(ctx context.Context, item models.MenuItem) error
}

// Propagator pushes a committed price to the search index and publishes a
// price.changed event. Failures are logged and never returned.
type Propagator struct {
	lookup    ItemLookup
	indexer   MenuIndexer
	publisher notify.Publisher
	timeout   time.Duration
	logger    logger.Logger
}

// NewPropagator accepts a nil indexer when search is disabled.
func NewPropagator(lookup ItemLookup, indexer MenuIndexer, publisher notify.Publisher, log logger.Logger) *Propagator {
	if publisher == nil {
		publisher = notify.NoopPublisher{}
	}
	return &Propagator{
		lookup:    lookup,
		indexer:   indexer,
		publisher: publisher,
		timeout:   5 * time.Second,
		logger:    log.With(map[string]interface{}{"component": "price-propagator"}),
	}
}

func (p *Propagator) PriceChanged(ctx context.Context, itemName string, newPrice float64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if p.indexer != nil && p.lookup != nil {
		p.reindex(ctx, itemName)
	}

	event := notify.NewEvent(notify.EventPriceChanged, notify.PriceChanged{ItemName: itemName, NewPrice: newPrice})
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.Warn("price change not published", map[string]interface{}{
			"itemName": itemName,
			"error":    err.Error(),
		})
	}
}

func (p *Propagator) reindex(ctx context.Context, itemName string) {
	item, err := p.lookup.FindMenuItemByExactName(ctx, itemName)
	if err != nil {
		p.logger.Warn("price change not reindexed: lookup failed", map[string]interface{}{
			"itemName": itemName,
			"error":    err.Error(),
		})
		return
	}
	if err := p.indexer.Index(ctx, *item); err != nil {
		p.logger.Warn("price change not reindexed", map[string]interface{}{
			"itemName": itemName,
			"error":    err.Error(),
		})
	}
}
