package seed

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/jaswdr/faker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickbite/internal/common/logger"
	"quickbite/internal/models"
)

type memoryStore struct {
	items  map[string]models.MenuItem
	nextID int64
	failOn string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: make(map[string]models.MenuItem)}
}

func (s *memoryStore) UpsertMenuItem(_ context.Context, item models.MenuItem) (*models.MenuItem, error) {
	if item.Name == s.failOn {
		return nil, errors.New("unique violation")
	}
	key := strings.ToLower(item.Name)
	if existing, ok := s.items[key]; ok {
		item.ID = existing.ID
	} else {
		s.nextID++
		item.ID = s.nextID
	}
	s.items[key] = item
	return &item, nil
}

type recordingIndexer struct {
	ids  []int64
	fail bool
}

func (r *recordingIndexer) Index(_ context.Context, item models.MenuItem) error {
	if r.fail {
		return errors.New("es down")
	}
	r.ids = append(r.ids, item.ID)
	return nil
}

func TestCatalog_UniqueNamesAndPositivePrices(t *testing.T) {
	seen := map[string]bool{}
	for _, item := range Catalog() {
		key := strings.ToLower(item.Name)
		assert.False(t, seen[key], item.Name)
		seen[key] = true
		assert.Greater(t, item.Price, 0.0, item.Name)
	}
}

func TestGenerate(t *testing.T) {
	fake := faker.NewWithSeed(rand.NewSource(7))

	items := Generate(fake, 10)
	require.NotEmpty(t, items)
	seen := map[string]bool{}
	for _, item := range items {
		assert.False(t, seen[strings.ToLower(item.Name)], item.Name)
		seen[strings.ToLower(item.Name)] = true
		assert.GreaterOrEqual(t, item.Price, 4.0)
		assert.LessOrEqual(t, item.Price, 30.0)
		assert.NotEmpty(t, item.Category)
	}
}

func TestRun_UpsertsAndIndexes(t *testing.T) {
	store := newMemoryStore()
	indexer := &recordingIndexer{}

	res, err := Run(context.Background(), store, indexer, Catalog(), logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, len(Catalog()), res.Upserted)
	assert.Equal(t, len(Catalog()), res.Indexed)
	assert.Len(t, indexer.ids, len(Catalog()))

	// a second run updates in place
	res, err = Run(context.Background(), store, nil, Catalog(), logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Indexed)
	assert.Len(t, store.items, len(Catalog()))
}

func TestRun_IndexFailureIsNotFatal(t *testing.T) {
	res, err := Run(context.Background(), newMemoryStore(), &recordingIndexer{fail: true}, Catalog()[:2], logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Upserted)
	assert.Equal(t, 0, res.Indexed)
}

func TestRun_StopsOnStoreError(t *testing.T) {
	store := newMemoryStore()
	store.failOn = "Cheeseburger"

	res, err := Run(context.Background(), store, nil, Catalog(), logger.NewTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cheeseburger")
	assert.Equal(t, 1, res.Upserted)
}
