package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/minishop/internal/models"
	"github.com/Skotchmaster/minishop/internal/repo"
)

type CartService struct {
	Repo   repo.Repository
	Events Publisher
}

// ListDetailed joins every cart line with its item.
func (s *CartService) ListDetailed(ctx context.Context) ([]models.DetailedCartLine, error) {
	lines, err := s.Repo.ListCart(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	items, err := s.Repo.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return Project(lines, items), nil
}

// Project joins lines with items by id. A line whose item is missing gets a
// nil Item instead of failing the whole view.
func Project(lines []models.CartLine, items []models.Item) []models.DetailedCartLine {
	byID := make(map[uuid.UUID]models.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	out := make([]models.DetailedCartLine, 0, len(lines))
	for _, l := range lines {
		d := models.DetailedCartLine{ID: l.ID, ItemID: l.ItemID, Qty: l.Qty}
		if it, ok := byID[l.ItemID]; ok {
			d.Item = &it
		}
		out = append(out, d)
	}
	return out
}

// Line returns one cart line.
func (s *CartService) Line(ctx context.Context, lineID uuid.UUID) (models.CartLine, error) {
	line, err := s.Repo.GetCartLine(ctx, lineID)
	if errors.Is(err, repo.ErrLineNotFound) {
		return models.CartLine{}, NotFound(MsgLineNotFound)
	}
	return line, err
}

// Add puts qty units of the item in the cart, merging into the item's line
// when there is one. qty <= 0 counts as 1.
func (s *CartService) Add(ctx context.Context, itemID uuid.UUID, qty int) ([]models.DetailedCartLine, error) {
	if itemID == uuid.Nil {
		return nil, Validation(MsgItemIDRequired)
	}
	if qty <= 0 {
		qty = 1
	}

	line, err := s.Repo.AddToCart(ctx, itemID, qty)
	if err != nil {
		if errors.Is(err, repo.ErrItemNotFound) {
			return nil, NotFound(MsgItemNotFound)
		}
		return nil, fmt.Errorf("add to cart: %w", err)
	}

	publish(ctx, s.Events, TopicCartEvents, line.ID.String(), map[string]any{
		"type":   "cart_line_added",
		"lineID": line.ID,
		"itemID": line.ItemID,
		"added":  qty,
		"qty":    line.Qty,
	})
	return s.ListDetailed(ctx)
}

// SetQty sets an absolute quantity; qty <= 0 removes the line.
func (s *CartService) SetQty(ctx context.Context, lineID uuid.UUID, qty int) ([]models.DetailedCartLine, error) {
	line, removed, err := s.Repo.SetCartQty(ctx, lineID, qty)
	if err != nil {
		if errors.Is(err, repo.ErrLineNotFound) {
			return nil, NotFound(MsgLineNotFound)
		}
		return nil, fmt.Errorf("set cart qty: %w", err)
	}

	if removed {
		s.publishRemoved(ctx, line)
	} else {
		publish(ctx, s.Events, TopicCartEvents, line.ID.String(), map[string]any{
			"type":   "cart_line_updated",
			"lineID": line.ID,
			"itemID": line.ItemID,
			"qty":    line.Qty,
		})
	}
	return s.ListDetailed(ctx)
}

func (s *CartService) Remove(ctx context.Context, lineID uuid.UUID) ([]models.DetailedCartLine, error) {
	line, err := s.Repo.DeleteCartLine(ctx, lineID)
	if err != nil {
		if errors.Is(err, repo.ErrLineNotFound) {
			return nil, NotFound(MsgLineNotFound)
		}
		return nil, fmt.Errorf("remove cart line: %w", err)
	}
	s.publishRemoved(ctx, line)
	return s.ListDetailed(ctx)
}

func (s *CartService) publishRemoved(ctx context.Context, line models.CartLine) {
	publish(ctx, s.Events, TopicCartEvents, line.ID.String(), map[string]any{
		"type":   "cart_line_removed",
		"lineID": line.ID,
		"itemID": line.ItemID,
	})
}
