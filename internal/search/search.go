package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/canteen/internal/catalog"
	"github.com/Skotchmaster/canteen/internal/config"
	"github.com/Skotchmaster/canteen/internal/logging"
	"github.com/Skotchmaster/canteen/internal/models"
)

type Searcher interface {
	Search(ctx context.Context, q string, from, size int) (int64, []models.Item, error)
}

func NewClient(ctx context.Context, cfg config.Config) (*elasticsearch.Client, error) {
	l := logging.FromContext(ctx)
	l.Info("es_connecting", "url", cfg.ESURL, "user", cfg.ESUser)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ESURL},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("es: new client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("es: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("es: info: %s: %s", res.Status(), body)
	}

	l.Info("es_connected", "url", cfg.ESURL)
	return client, nil
}

// Index is the menu index in Elasticsearch.
type Index struct {
	ES   *elasticsearch.Client
	Name string
}

// IndexItems writes every item under its catalog id, replacing older copies.
func (ix *Index) IndexItems(ctx context.Context, items []models.Item) error {
	for _, it := range items {
		body, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("es: encode item %d: %w", it.ID, err)
		}

		res, err := ix.ES.Index(ix.Name, bytes.NewReader(body),
			ix.ES.Index.WithContext(ctx),
			ix.ES.Index.WithDocumentID(strconv.FormatUint(uint64(it.ID), 10)),
			ix.ES.Index.WithRefresh("true"),
		)
		if err != nil {
			return fmt.Errorf("es: index item %d: %w", it.ID, err)
		}
		res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("es: index item %d: %s", it.ID, res.Status())
		}
	}
	return nil
}

func (ix *Index) Search(ctx context.Context, q string, from, size int) (int64, []models.Item, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"name"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("es: encode query: %w", err)
	}

	res, err := ix.ES.Search(
		ix.ES.Search.WithContext(ctx),
		ix.ES.Search.WithIndex(ix.Name),
		ix.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("es: search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Item `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("es: decode response: %w", err)
	}

	items := make([]models.Item, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		items[i] = hit.Source
	}
	return r.Hits.Total.Value, items, nil
}

// CatalogSearcher searches the in-memory menu.
type CatalogSearcher struct {
	Catalog *catalog.Catalog
}

func (s CatalogSearcher) Search(_ context.Context, q string, from, size int) (int64, []models.Item, error) {
	found := s.Catalog.Search(q)
	total := int64(len(found))
	if from >= len(found) {
		return total, []models.Item{}, nil
	}
	end := from + size
	if end > len(found) {
		end = len(found)
	}
	return total, found[from:end], nil
}

// Fallback serves from Primary and switches to Secondary when Primary fails.
type Fallback struct {
	Primary   Searcher
	Secondary Searcher
}

func (f Fallback) Search(ctx context.Context, q string, from, size int) (int64, []models.Item, error) {
	total, items, err := f.Primary.Search(ctx, q, from, size)
	if err == nil {
		return total, items, nil
	}
	logging.FromContext(ctx).Warn("search_fallback", "reason", "primary search failed", "error", err)
	return f.Secondary.Search(ctx, q, from, size)
}
