package search

import (
	"context"
	"strings"

	"github.com/sahilm/fuzzy"

	"quickbite/internal/models"
)

type MenuLister interface {
	ListMenuItems(ctx context.Context) ([]models.MenuItem, error)
}

// FuzzyMenu searches menu names in memory. It backs menu search when
// Elasticsearch is disabled.
type FuzzyMenu struct {
	menu MenuLister
}

func NewFuzzyMenu(menu MenuLister) *FuzzyMenu {
	return &FuzzyMenu{menu: menu}
}

func (f *FuzzyMenu) Search(ctx context.Context, query string, size int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if size < 1 {
		size = 10
	}
	if size > maxSize {
		size = maxSize
	}

	items, err := f.menu.ListMenuItems(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = strings.ToLower(item.Name)
	}

	matches := fuzzy.Find(strings.ToLower(query), names)
	hits := make([]Hit, 0, size)
	for _, m := range matches {
		if len(hits) == size {
			break
		}
		hits = append(hits, Hit{Item: items[m.Index], Score: float64(m.Score)})
	}
	return hits, nil
}
