// Package repo holds the item and cart stores. Every Repository keeps the
// cart referentially valid: deleting an item removes its cart lines in the
// same step, and a cart never holds two lines for one item.
package repo

import (
	"context"
	"errors"

	"github.com/Skotchmaster/minishop/internal/models"
	"github.com/google/uuid"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrLineNotFound = errors.New("cart line not found")
	ErrInvalidQty   = errors.New("quantity must be positive")
)

type Repository interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (models.Item, error)
	// CreateItem assigns ID (when nil) and Seq on it and appends it.
	CreateItem(ctx context.Context, it *models.Item) error
	UpdateItem(ctx context.Context, id uuid.UUID, patch models.ItemPatch) (models.Item, error)
	// DeleteItem removes the item together with every cart line that
	// references it and returns how many lines went with it.
	DeleteItem(ctx context.Context, id uuid.UUID) (int, error)
	// SeedItems inserts items only when the store holds no item at all.
	SeedItems(ctx context.Context, items []models.Item) (bool, error)

	ListCart(ctx context.Context) ([]models.CartLine, error)
	GetCartLine(ctx context.Context, lineID uuid.UUID) (models.CartLine, error)
	// AddToCart merges qty into the line for itemID, creating it if needed.
	AddToCart(ctx context.Context, itemID uuid.UUID, qty int) (models.CartLine, error)
	// SetCartQty sets an absolute quantity. qty <= 0 deletes the line and
	// reports removed=true.
	SetCartQty(ctx context.Context, lineID uuid.UUID, qty int) (line models.CartLine, removed bool, err error)
	DeleteCartLine(ctx context.Context, lineID uuid.UUID) (models.CartLine, error)
}
