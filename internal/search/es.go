package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
	"github.com/google/uuid"

	"github.com/Skotchmaster/minishop/internal/models"
)

const maxHits = 50

// NewClient connects to Elasticsearch and checks the cluster answers.
func NewClient(ctx context.Context, url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
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
		return nil, responseError("info", res)
	}
	return client, nil
}

// ESIndex keeps one document per item, keyed by item id.
type ESIndex struct {
	Client *elasticsearch.Client
	Index  string
}

type document struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
}

// EnsureIndex creates the index with text mappings when it does not exist.
func (x *ESIndex) EnsureIndex(ctx context.Context) error {
	es := x.Client
	res, err := es.Indices.Exists([]string{x.Index}, es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	mapping := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"name":        map[string]any{"type": "text"},
				"description": map[string]any{"type": "text"},
				"price":       map[string]any{"type": "keyword"},
				"stock":       map[string]any{"type": "integer"},
			},
		},
	}
	body, err := encode(mapping)
	if err != nil {
		return err
	}

	res, err = es.Indices.Create(x.Index,
		es.Indices.Create.WithContext(ctx),
		es.Indices.Create.WithBody(body),
	)
	if err != nil {
		return fmt.Errorf("es: create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res)
	}
	return nil
}

func (x *ESIndex) IndexItem(ctx context.Context, it models.Item) error {
	body, err := encode(document{
		Name:        it.Name,
		Description: it.Description,
		Price:       it.Price.String(),
		Stock:       it.Stock,
	})
	if err != nil {
		return err
	}

	es := x.Client
	res, err := es.Index(x.Index, body,
		es.Index.WithDocumentID(it.ID.String()),
		es.Index.WithContext(ctx),
		es.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("es: index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res)
	}
	return nil
}

// RemoveItem deletes the item's document. A missing document is not an error.
func (x *ESIndex) RemoveItem(ctx context.Context, id uuid.UUID) error {
	es := x.Client
	res, err := es.Delete(x.Index, id.String(),
		es.Delete.WithContext(ctx),
		es.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("es: delete: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res)
	}
	return nil
}

// Search returns matching item ids, best match first.
func (x *ESIndex) Search(ctx context.Context, q string) ([]uuid.UUID, error) {
	body, err := encode(map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"size":    maxHits,
		"_source": false,
	})
	if err != nil {
		return nil, err
	}

	es := x.Client
	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(x.Index),
		es.Search.WithBody(body),
	)
	if err != nil {
		return nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search", res)
	}

	var r struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("es: decode search: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func encode(v any) (io.Reader, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("es: encode: %w", err)
	}
	return &buf, nil
}

func responseError(op string, res *esapi.Response) error {
	b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("es: %s: %s: %s", op, res.Status(), bytes.TrimSpace(b))
}
