package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/minishop/internal/models"
	"github.com/Skotchmaster/minishop/pkg/logging"
)

// DemoItems returns the catalog a fresh server starts with.
func DemoItems() []models.Item {
	return []models.Item{
		{Name: "Fresh Milk", Price: decimal.NewFromInt(39), Description: "1L full cream milk", Stock: 10},
		{Name: "Brown Bread", Price: decimal.NewFromInt(29), Description: "Whole wheat bread", Stock: 20},
		{Name: "Eggs (12)", Price: decimal.NewFromInt(99), Description: "Free-range eggs dozen", Stock: 30},
	}
}

// Seed fills an empty catalog with DemoItems. It does nothing when any item
// already exists.
func (s *CatalogService) Seed(ctx context.Context) (bool, error) {
	items := DemoItems()
	seeded, err := s.Repo.SeedItems(ctx, items)
	if err != nil {
		return false, fmt.Errorf("seed items: %w", err)
	}
	if !seeded {
		return false, nil
	}
	for _, it := range items {
		s.index(ctx, it)
	}
	logging.FromContext(ctx).Info("catalog_seeded", "items", len(items))
	return true, nil
}
