package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickbite/internal/models"
)

type staticMenu struct {
	items []models.MenuItem
	err   error
}

func (s staticMenu) ListMenuItems(context.Context) ([]models.MenuItem, error) {
	return s.items, s.err
}

func TestFuzzyMenu_Search(t *testing.T) {
	menu := staticMenu{items: []models.MenuItem{
		{ID: 1, Name: "Classic Burger"},
		{ID: 2, Name: "Cheeseburger"},
		{ID: 3, Name: "Iced Tea"},
	}}
	f := NewFuzzyMenu(menu)

	hits, err := f.Search(context.Background(), "BRGR", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.Contains(t, []int64{1, 2}, h.Item.ID)
	}

	hits, err = f.Search(context.Background(), "burger", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = f.Search(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFuzzyMenu_ListError(t *testing.T) {
	f := NewFuzzyMenu(staticMenu{err: errors.New("db down")})
	_, err := f.Search(context.Background(), "tea", 5)
	assert.Error(t, err)
}
