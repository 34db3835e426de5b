package repo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/minishop/internal/models"
	pkgdb "github.com/Skotchmaster/minishop/pkg/db"
)

type backend struct {
	name string
	new  func(t *testing.T) Repository
}

func backends() []backend {
	return []backend{
		{name: "memory", new: func(t *testing.T) Repository { return NewMemoryRepo() }},
		{name: "gorm_sqlite", new: newSQLiteRepo},
	}
}

func newSQLiteRepo(t *testing.T) Repository {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString())

	db, err := pkgdb.Open(context.Background(), "sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkgdb.Close(db) })

	r := &GormRepo{DB: db}
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func eachBackend(t *testing.T, fn func(t *testing.T, r Repository)) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.new(t))
		})
	}
}

func mustCreate(t *testing.T, r Repository, name string, price int64) models.Item {
	t.Helper()
	it := models.Item{Name: name, Price: decimal.NewFromInt(price)}
	require.NoError(t, r.CreateItem(context.Background(), &it))
	require.NotEqual(t, uuid.Nil, it.ID)
	return it
}

func TestRepository_ItemsKeepInsertionOrder(t *testing.T) {
	eachBackend(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		a := mustCreate(t, r, "a", 1)
		b := mustCreate(t, r, "b", 2)
		c := mustCreate(t, r, "c", 3)

		items, err := r.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, []uuid.UUID{items[0].ID, items[1].ID, items[2].ID})

		_, err = r.DeleteItem(ctx, b.ID)
		require.NoError(t, err)
		d := mustCreate(t, r, "d", 4)

		items, err = r.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, []uuid.UUID{a.ID, c.ID, d.ID}, []uuid.UUID{items[0].ID, items[1].ID, items[2].ID})
	})
}

func TestRepository_UpdateItem(t *testing.T) {
	eachBackend(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		orig := models.Item{Name: "Tea", Price: decimal.RequireFromString("50.5"), Image: "tea.png", Description: "green", Stock: 4}
		require.NoError(t, r.CreateItem(ctx, &orig))

		same, err := r.UpdateItem(ctx, orig.ID, models.ItemPatch{})
		require.NoError(t, err)
		assert.Equal(t, orig.Name, same.Name)
		assert.True(t, orig.Price.Equal(same.Price))
		assert.Equal(t, orig.Image, same.Image)
		assert.Equal(t, orig.Description, same.Description)
		assert.Equal(t, orig.Stock, same.Stock)

		name := "Black tea"
		stock := 9
		updated, err := r.UpdateItem(ctx, orig.ID, models.ItemPatch{Name: &name, Stock: &stock})
		require.NoError(t, err)
		assert.Equal(t, "Black tea", updated.Name)
		assert.Equal(t, 9, updated.Stock)
		assert.True(t, orig.Price.Equal(updated.Price))
		assert.Equal(t, "green", updated.Description)

		got, err := r.GetItem(ctx, orig.ID)
		require.NoError(t, err)
		assert.Equal(t, "Black tea", got.Name)

		_, err = r.UpdateItem(ctx, uuid.New(), models.ItemPatch{Name: &name})
		assert.ErrorIs(t, err, ErrItemNotFound)
	})
}

func TestRepository_AddToCartMerges(t *testing.T) {
	eachBackend(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		it := mustCreate(t, r, "Tea", 50)

		first, err := r.AddToCart(ctx, it.ID, 2)
		require.NoError(t, err)
		second, err := r.AddToCart(ctx, it.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 5, second.Qty)

		lines, err := r.ListCart(ctx)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, 5, lines[0].Qty)
		assert.Equal(t, it.ID, lines[0].ItemID)
	})
}

func TestRepository_AddToCartErrors(t *testing.T) {
	eachBackend(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		_, err := r.AddToCart(ctx, uuid.New(), 1)
		assert.ErrorIs(t, err, ErrItemNotFound)

		it := mustCreate(t, r, "Tea", 50)
		_, err = r.AddToCart(ctx, it.ID, 0)
		assert.ErrorIs(t, err, ErrInvalidQty)

		lines, err := r.ListCart(ctx)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})
}

func TestRepository_ConcurrentAddsKeepOneLine(t *testing.T) {
	eachBackend(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		it := mustCreate(t, r, "Tea", 50)

		const workers = 16
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := r.AddToCart(ctx, it.ID, 1)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		lines, err := r.ListCart(ctx)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, workers, lines[0].Qty)
	})
}

func TestRepository_AddRacingDeleteLeavesNoDanglingLine(t *testing.T) {
	eachBackend(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		for round := 0; round < 20; round++ {
			it := mustCreate(t, r, fmt.Sprintf("item-%d", round), 1)

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, err := r.AddToCart(ctx, it.ID, 1)
				if err != nil {
					assert.ErrorIs(t, err, ErrItemNotFound)
				}
			}()
			go func() {
				defer wg.Done()
				_, err := r.DeleteItem(ctx, it.ID)
				assert.NoError(t, err)
			}()
			wg.Wait()
		}

		lines, err := r.ListCart(ctx)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})
}

func TestRepository_ConcurrentCreatesGetDistinctSeq(t *testing.T) {
	eachBackend(t, func(t *testing.T, r Repository) {
		ctx := context.Background()

		const workers = 12
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				it := models.Item{Name: fmt.Sprintf("item-%d", i), Price: decimal.NewFromInt(1)}
				assert.NoError(t, r.CreateItem(ctx, &it))
			}()
		}
		wg.Wait()

		items, err := r.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, workers)
		seen := make(map[int64]bool, workers)
		for i, it := range items {
			assert.False(t, seen[it.Seq], "duplicate seq %d", it.Seq)
			seen[it.Seq] = true
			if i > 0 {
				assert.Less(t, items[i-1].Seq, it.Seq)
			}
		}
	})
}

func TestRepository_GetCartLine(t *testing.T) {
	eachBackend(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		it := mustCreate(t, r, "Tea", 50)
		line, err := r.AddToCart(ctx, it.ID, 2)
		require.NoError(t, err)

		got, err := r.GetCartLine(ctx, line.ID)
		require.NoError(t, err)
		assert.Equal(t, it.ID, got.ItemID)
		assert.Equal(t, 2, got.Qty)

		_, err = r.GetCartLine(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrLineNotFound)
	})
}

func TestRepository_DeleteItemCascades(t *testing.T) {
	eachBackend(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		keep := mustCreate(t, r, "keep", 1)
		drop := mustCreate(t, r, "drop", 2)

		_, err := r.AddToCart(ctx, keep.ID, 1)
		require.NoError(t, err)
		_, err = r.AddToCart(ctx, drop.ID, 4)
		require.NoError(t, err)

		removed, err := r.DeleteItem(ctx, drop.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		lines, err := r.ListCart(ctx)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, keep.ID, lines[0].ItemID)

		_, err = r.GetItem(ctx, drop.ID)
		assert.ErrorIs(t, err, ErrItemNotFound)

		_, err = r.DeleteItem(ctx, drop.ID)
		assert.ErrorIs(t, err, ErrItemNotFound)

		// the item can be added again after a cascade freed its slot
		again := mustCreate(t, r, "again", 3)
		_, err = r.AddToCart(ctx, again.ID, 1)
		require.NoError(t, err)
	})
}

func TestRepository_SetCartQty(t *testing.T) {
	eachBackend(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		it := mustCreate(t, r, "Tea", 50)
		line, err := r.AddToCart(ctx, it.ID, 2)
		require.NoError(t, err)

		got, removed, err := r.SetCartQty(ctx, line.ID, 7)
		require.NoError(t, err)
		assert.False(t, removed)
		assert.Equal(t, 7, got.Qty)

		lines, err := r.ListCart(ctx)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, 7, lines[0].Qty)

		_, removed, err = r.SetCartQty(ctx, line.ID, 0)
		require.NoError(t, err)
		assert.True(t, removed)

		lines, err = r.ListCart(ctx)
		require.NoError(t, err)
		assert.Empty(t, lines)

		_, _, err = r.SetCartQty(ctx, line.ID, 1)
		assert.ErrorIs(t, err, ErrLineNotFound)

		// a removed line frees the item for a fresh line
		fresh, err := r.AddToCart(ctx, it.ID, 1)
		require.NoError(t, err)
		assert.NotEqual(t, line.ID, fresh.ID)
		assert.Equal(t, 1, fresh.Qty)
	})
}

func TestRepository_NegativeQtyRemovesLine(t *testing.T) {
	eachBackend(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		it := mustCreate(t, r, "Tea", 50)
		line, err := r.AddToCart(ctx, it.ID, 2)
		require.NoError(t, err)

		_, removed, err := r.SetCartQty(ctx, line.ID, -3)
		require.NoError(t, err)
		assert.True(t, removed)

		lines, err := r.ListCart(ctx)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})
}

func TestRepository_DeleteCartLine(t *testing.T) {
	eachBackend(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		a := mustCreate(t, r, "a", 1)
		b := mustCreate(t, r, "b", 1)
		la, err := r.AddToCart(ctx, a.ID, 1)
		require.NoError(t, err)
		lb, err := r.AddToCart(ctx, b.ID, 1)
		require.NoError(t, err)

		deleted, err := r.DeleteCartLine(ctx, la.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, deleted.ItemID)

		lines, err := r.ListCart(ctx)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, lb.ID, lines[0].ID)

		_, err = r.DeleteCartLine(ctx, la.ID)
		assert.ErrorIs(t, err, ErrLineNotFound)
	})
}

func TestRepository_SeedItemsIsIdempotent(t *testing.T) {
	eachBackend(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		seed := func() []models.Item {
			return []models.Item{
				{Name: "one", Price: decimal.NewFromInt(1)},
				{Name: "two", Price: decimal.NewFromInt(2)},
			}
		}

		ok, err := r.SeedItems(ctx, seed())
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.SeedItems(ctx, seed())
		require.NoError(t, err)
		assert.False(t, ok)

		items, err := r.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "one", items[0].Name)
		assert.Equal(t, "two", items[1].Name)

		mustCreate(t, r, "three", 3)
		items, err = r.ListItems(ctx)
		require.NoError(t, err)
		assert.Equal(t, "three", items[2].Name)
	})
}

func TestRepository_SeedSkippedWhenNotEmpty(t *testing.T) {
	eachBackend(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		mustCreate(t, r, "existing", 1)

		ok, err := r.SeedItems(ctx, []models.Item{{Name: "seed", Price: decimal.NewFromInt(1)}})
		require.NoError(t, err)
		assert.False(t, ok)

		items, err := r.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
	})
}

func TestMemoryRepo_ReturnsCopies(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	it := mustCreate(t, r, "Tea", 50)

	items, err := r.ListItems(ctx)
	require.NoError(t, err)
	items[0].Name = "mutated"

	got, err := r.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tea", got.Name)
}
