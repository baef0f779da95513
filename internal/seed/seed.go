// Package seed loads the starter menu into Postgres and the search index.
package seed

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/jaswdr/faker"

	"quickbite/internal/common/logger"
	"quickbite/internal/models"
)

type MenuStore interface {
	UpsertMenuItem(ctx context.Context, item models.MenuItem) (*models.MenuItem, error)
}

// Indexer is optional.
type Indexer interface {
	Index(ctx context.Context, item models.MenuItem) error
}

// Catalog is the fixed QuickBite starter menu.
func Catalog() []models.MenuItem {
	return []models.MenuItem{
		{Name: "Classic Burger", Description: "Beef patty with lettuce, tomato and house sauce", Price: 12.90, Category: "burgers"},
		{Name: "Cheeseburger", Description: "Beef patty with melted cheddar", Price: 14.50, Category: "burgers"},
		{Name: "Chicken Burger", Description: "Crispy chicken fillet with coleslaw", Price: 13.50, Category: "burgers"},
		{Name: "Margherita Pizza", Description: "Tomato, mozzarella and fresh basil", Price: 22.00, Category: "pizza"},
		{Name: "Pepperoni Pizza", Description: "Beef pepperoni and mozzarella", Price: 25.00, Category: "pizza"},
		{Name: "Caesar Salad", Description: "Romaine, parmesan and croutons", Price: 10.00, Category: "salads"},
		{Name: "Nasi Lemak", Description: "Coconut rice with sambal, anchovies and egg", Price: 9.50, Category: "local"},
		{Name: "Chicken Satay", Description: "Six skewers with peanut sauce", Price: 11.00, Category: "local"},
		{Name: "French Fries", Description: "Crispy fries with sea salt", Price: 5.50, Category: "sides"},
		{Name: "Pudding", Description: "Caramel custard dessert", Price: 6.00, Category: "desserts"},
		{Name: "Iced Tea", Description: "Fresh brewed lemon tea", Price: 4.50, Category: "drinks"},
		{Name: "Teh Tarik", Description: "Pulled milk tea", Price: 3.50, Category: "drinks"},
	}
}

var generatedStyles = []string{"Bowl", "Wrap", "Salad", "Smoothie", "Tart"}

// Generate invents n extra items named after fruit and vegetables. Names are
// unique within the result.
func Generate(fake faker.Faker, n int) []models.MenuItem {
	items := make([]models.MenuItem, 0, n)
	seen := make(map[string]bool, n)
	for attempts := 0; len(items) < n && attempts < n*20; attempts++ {
		base := fake.Food().Fruit()
		if fake.Bool() {
			base = fake.Food().Vegetable()
		}
		style := generatedStyles[fake.IntBetween(0, len(generatedStyles)-1)]
		name := capitalize(base) + " " + style
		if seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		items = append(items, models.MenuItem{
			Name:        name,
			Description: fake.Lorem().Sentence(8),
			Price:       fake.Float64(2, 4, 30),
			Category:    strings.ToLower(style) + "s",
		})
	}
	return items
}

type Result struct {
	Upserted int
	Indexed  int
}

// Run upserts every item and, when indexer is set, indexes what was stored.
// Index failures are logged and do not stop the run.
func Run(ctx context.Context, store MenuStore, indexer Indexer, items []models.MenuItem, log logger.Logger) (Result, error) {
	var res Result
	for _, item := range items {
		stored, err := store.UpsertMenuItem(ctx, item)
		if err != nil {
			return res, fmt.Errorf("upsert %q: %w", item.Name, err)
		}
		res.Upserted++

		if indexer == nil {
			continue
		}
		if err := indexer.Index(ctx, *stored); err != nil {
			log.Warn("menu item not indexed", map[string]interface{}{
				"item":  stored.Name,
				"error": err.Error(),
			})
			continue
		}
		res.Indexed++
	}
	log.Info("menu seeded", map[string]interface{}{
		"upserted": res.Upserted,
		"indexed":  res.Indexed,
	})
	return res, nil
}

func capitalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
