package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/minishop/internal/models"
	"github.com/Skotchmaster/minishop/internal/repo"
	"github.com/Skotchmaster/minishop/pkg/logging"
)

// ItemIndex mirrors items into a search engine.
type ItemIndex interface {
	IndexItem(ctx context.Context, it models.Item) error
	RemoveItem(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, q string) ([]uuid.UUID, error)
}

// NewItem is the input of CreateItem. A nil Price means the client sent none.
type NewItem struct {
	Name        string
	Price       *decimal.Decimal
	Image       string
	Description string
	Stock       int
}

type CatalogService struct {
	Repo   repo.Repository
	Events Publisher
	Index  ItemIndex
}

func (s *CatalogService) ListItems(ctx context.Context) ([]models.Item, error) {
	return s.Repo.ListItems(ctx)
}

func (s *CatalogService) GetItem(ctx context.Context, id uuid.UUID) (models.Item, error) {
	it, err := s.Repo.GetItem(ctx, id)
	if errors.Is(err, repo.ErrItemNotFound) {
		return models.Item{}, NotFound(MsgItemNotFound)
	}
	return it, err
}

func (s *CatalogService) CreateItem(ctx context.Context, in NewItem) (models.Item, error) {
	if in.Name == "" || in.Price == nil {
		return models.Item{}, Validation(MsgNameAndPriceRequired)
	}
	if in.Price.IsNegative() {
		return models.Item{}, Validation("price must be a non-negative number")
	}
	if in.Stock < 0 {
		in.Stock = 0
	}

	it := models.Item{
		Name:        in.Name,
		Price:       *in.Price,
		Image:       in.Image,
		Description: in.Description,
		Stock:       in.Stock,
	}
	if err := s.Repo.CreateItem(ctx, &it); err != nil {
		return models.Item{}, fmt.Errorf("create item: %w", err)
	}

	s.index(ctx, it)
	publish(ctx, s.Events, TopicItemEvents, it.ID.String(), map[string]any{
		"type":   "item_created",
		"itemID": it.ID,
		"name":   it.Name,
		"price":  it.Price,
	})
	return it, nil
}

func (s *CatalogService) UpdateItem(ctx context.Context, id uuid.UUID, patch models.ItemPatch) (models.Item, error) {
	if patch.Name != nil && *patch.Name == "" {
		return models.Item{}, Validation("name must not be empty")
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return models.Item{}, Validation("price must be a non-negative number")
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return models.Item{}, Validation("stock must be a non-negative integer")
	}

	it, err := s.Repo.UpdateItem(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repo.ErrItemNotFound) {
			return models.Item{}, NotFound(MsgItemNotFound)
		}
		return models.Item{}, fmt.Errorf("update item: %w", err)
	}

	s.index(ctx, it)
	publish(ctx, s.Events, TopicItemEvents, it.ID.String(), map[string]any{
		"type":   "item_updated",
		"itemID": it.ID,
		"name":   it.Name,
		"price":  it.Price,
	})
	return it, nil
}

// DeleteItem removes the item and every cart line referencing it.
func (s *CatalogService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	removed, err := s.Repo.DeleteItem(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrItemNotFound) {
			return NotFound(MsgItemNotFound)
		}
		return fmt.Errorf("delete item: %w", err)
	}

	if s.Index != nil {
		if err := s.Index.RemoveItem(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("unindex_item_failed", "item_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, TopicItemEvents, id.String(), map[string]any{
		"type":         "item_deleted",
		"itemID":       id,
		"removedLines": removed,
	})
	return nil
}

// SearchItems matches q against item names and descriptions. Results
// always come from the store, so items deleted after indexing never show.
func (s *CatalogService) SearchItems(ctx context.Context, q string) ([]models.Item, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, Validation(MsgQueryRequired)
	}

	items, err := s.Repo.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	if s.Index != nil {
		ids, err := s.Index.Search(ctx, q)
		if err == nil {
			return resolveHits(items, ids), nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "error", err)
	}

	return matchItems(items, q), nil
}

func resolveHits(items []models.Item, ids []uuid.UUID) []models.Item {
	byID := make(map[uuid.UUID]models.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	out := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			out = append(out, it)
		}
	}
	return out
}

func matchItems(items []models.Item, q string) []models.Item {
	q = strings.ToLower(q)
	out := make([]models.Item, 0)
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), q) || strings.Contains(strings.ToLower(it.Description), q) {
			out = append(out, it)
		}
	}
	return out
}

func (s *CatalogService) index(ctx context.Context, it models.Item) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexItem(ctx, it); err != nil {
		logging.FromContext(ctx).Warn("index_item_failed", "item_id", it.ID, "error", err)
	}
}
