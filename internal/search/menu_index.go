// Package search indexes menu items in Elasticsearch for free-text lookup.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/logger"
	"quickbite/internal/models"
)

const (
	DefaultIndex = "menu_items"
	maxSize      = 50
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "long"},
      "name":        {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "description": {"type": "text"},
      "category":    {"type": "keyword"},
      "price":       {"type": "scaled_float", "scaling_factor": 100},
      "photoUrl":    {"type": "keyword", "index": false}
    }
  }
}`

type document struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price"`
	PhotoURL    string  `json:"photoUrl,omitempty"`
}

type Hit struct {
	Item  models.MenuItem `json:"item"`
	Score float64         `json:"score"`
}

type MenuIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewMenuIndex(client *elasticsearch.Client, index string, log logger.Logger) *MenuIndex {
	if index == "" {
		index = DefaultIndex
	}
	return &MenuIndex{
		client: client,
		index:  index,
		logger: log.With(map[string]interface{}{"component": "menu-search", "index": index}),
	}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (m *MenuIndex) EnsureIndex(ctx context.Context) error {
	res, err := m.client.Indices.Exists([]string{m.index}, m.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return apperrors.NewSearchFailedError(err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return apperrors.NewSearchFailedError(fmt.Errorf("index exists check: %s", res.Status()))
	}

	res, err = m.client.Indices.Create(m.index,
		m.client.Indices.Create.WithContext(ctx),
		m.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return apperrors.NewSearchFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperrors.NewSearchFailedError(fmt.Errorf("create index: %s", res.String()))
	}

	m.logger.Info("menu index created", nil)
	return nil
}

// Index upserts item under its database id.
func (m *MenuIndex) Index(ctx context.Context, item models.MenuItem) error {
	body, err := json.Marshal(document{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Category:    item.Category,
		Price:       item.Price,
		PhotoURL:    item.PhotoURL,
	})
	if err != nil {
		return apperrors.NewSearchFailedError(err)
	}

	req := esapi.IndexRequest{
		Index:      m.index,
		DocumentID: strconv.FormatInt(item.ID, 10),
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}
	res, err := req.Do(ctx, m.client)
	if err != nil {
		return apperrors.NewSearchFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperrors.NewSearchFailedError(fmt.Errorf("index %q: %s", item.Name, res.String()))
	}
	return nil
}

// Search runs a fuzzy match over name, description and category. size is
// clamped to [1, 50].
func (m *MenuIndex) Search(ctx context.Context, query string, size int) ([]Hit, error) {
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

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^3", "description", "category"},
				"fuzziness": "AUTO",
			},
		},
	}); err != nil {
		return nil, apperrors.NewSearchFailedError(err)
	}

	res, err := m.client.Search(
		m.client.Search.WithContext(ctx),
		m.client.Search.WithIndex(m.index),
		m.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, apperrors.NewSearchFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, apperrors.NewSearchFailedError(fmt.Errorf("search: %s", res.String()))
	}

	return decodeHits(res.Body)
}

func decodeHits(body io.Reader) ([]Hit, error) {
	var r struct {
		Hits struct {
			Hits []struct {
				Score  float64  `json:"_score"`
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(body).Decode(&r); err != nil {
		return nil, apperrors.NewSearchFailedError(fmt.Errorf("decode search response: %w", err))
	}

	hits := make([]Hit, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		d := h.Source
		hits = append(hits, Hit{
			Item: models.MenuItem{
				ID:          d.ID,
				Name:        d.Name,
				Description: d.Description,
				Category:    d.Category,
				Price:       d.Price,
				PhotoURL:    d.PhotoURL,
			},
			Score: h.Score,
		})
	}
	return hits, nil
}
