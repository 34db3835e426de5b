package repo

import (
	"context"
	"errors"

	"github.com/Skotchmaster/minishop/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepo stores items and cart lines in SQL. Every mutation runs in one
// transaction; the unique index on cart_lines.item_id backs the
// one-line-per-item rule.
type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(&models.Item{}, &models.CartLine{})
}

// maxAttempts bounds retries of writes that lost a race on a unique index.
const maxAttempts = 5

// nextSeq reads MAX(seq)+1. Two transactions may read the same value; the
// unique index on seq rejects the second insert and the caller retries.
func nextSeq(tx *gorm.DB, model any) (int64, error) {
	var last int64
	if err := tx.Model(model).Select("COALESCE(MAX(seq), 0)").Scan(&last).Error; err != nil {
		return 0, err
	}
	return last + 1, nil
}

func retryOnConflict(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return err
}

func (r *GormRepo) ListItems(ctx context.Context) ([]models.Item, error) {
	items := []models.Item{}
	if err := r.DB.WithContext(ctx).Order("seq ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetItem(ctx context.Context, id uuid.UUID) (models.Item, error) {
	var it models.Item
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&it).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Item{}, ErrItemNotFound
		}
		return models.Item{}, err
	}
	return it, nil
}

func (r *GormRepo) CreateItem(ctx context.Context, it *models.Item) error {
	return retryOnConflict(func() error {
		return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			seq, err := nextSeq(tx, &models.Item{})
			if err != nil {
				return err
			}
			it.Seq = seq
			return tx.Create(it).Error
		})
	})
}

func (r *GormRepo) UpdateItem(ctx context.Context, id uuid.UUID, patch models.ItemPatch) (models.Item, error) {
	var it models.Item
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&it).Error; err != nil {
			return err
		}
		patch.Apply(&it)
		return tx.Save(&it).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Item{}, ErrItemNotFound
	}
	if err != nil {
		return models.Item{}, err
	}
	return it, nil
}

func (r *GormRepo) DeleteItem(ctx context.Context, id uuid.UUID) (int, error) {
	var removed int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the row lock makes a concurrent AddToCart wait, so no line for
		// this item can commit between the two deletes
		var it models.Item
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&it).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		res := tx.Where("item_id = ?", id).Delete(&models.CartLine{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected

		res = tx.Where("id = ?", id).Delete(&models.Item{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrItemNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

func (r *GormRepo) SeedItems(ctx context.Context, items []models.Item) (bool, error) {
	seeded := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Item{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 || len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].Seq = int64(i + 1)
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		seeded = true
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// another process seeded first
		return false, nil
	}
	return seeded, err
}

func (r *GormRepo) ListCart(ctx context.Context) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	if err := r.DB.WithContext(ctx).Order("seq ASC").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *GormRepo) GetCartLine(ctx context.Context, lineID uuid.UUID) (models.CartLine, error) {
	var line models.CartLine
	if err := r.DB.WithContext(ctx).Where("id = ?", lineID).First(&line).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CartLine{}, ErrLineNotFound
		}
		return models.CartLine{}, err
	}
	return line, nil
}

func (r *GormRepo) AddToCart(ctx context.Context, itemID uuid.UUID, qty int) (models.CartLine, error) {
	if qty <= 0 {
		return models.CartLine{}, ErrInvalidQty
	}

	var line models.CartLine
	// a concurrent insert for the same item loses on the unique index;
	// the retry then takes the update path
	err := retryOnConflict(func() error {
		var err error
		line, err = r.addToCart(ctx, itemID, qty)
		return err
	})
	return line, err
}

func (r *GormRepo) addToCart(ctx context.Context, itemID uuid.UUID, qty int) (models.CartLine, error) {
	var line models.CartLine
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// a shared lock on the item holds off DeleteItem until the line
		// is committed, so its cascade sees the line
		var it models.Item
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Where("id = ?", itemID).First(&it).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		res := tx.Model(&models.CartLine{}).
			Where("item_id = ?", itemID).
			Update("qty", gorm.Expr("qty + ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("item_id = ?", itemID).First(&line).Error
		}

		seq, err := nextSeq(tx, &models.CartLine{})
		if err != nil {
			return err
		}
		line = models.CartLine{ItemID: itemID, Qty: qty, Seq: seq}
		return tx.Create(&line).Error
	})
	if err != nil {
		return models.CartLine{}, err
	}
	return line, nil
}

func (r *GormRepo) SetCartQty(ctx context.Context, lineID uuid.UUID, qty int) (models.CartLine, bool, error) {
	var line models.CartLine
	removed := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", lineID).First(&line).Error; err != nil {
			return err
		}
		if qty <= 0 {
			removed = true
			return tx.Delete(&line).Error
		}
		line.Qty = qty
		return tx.Model(&line).Update("qty", qty).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CartLine{}, false, ErrLineNotFound
	}
	if err != nil {
		return models.CartLine{}, false, err
	}
	return line, removed, nil
}

func (r *GormRepo) DeleteCartLine(ctx context.Context, lineID uuid.UUID) (models.CartLine, error) {
	var line models.CartLine
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", lineID).First(&line).Error; err != nil {
			return err
		}
		return tx.Delete(&line).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CartLine{}, ErrLineNotFound
	}
	if err != nil {
		return models.CartLine{}, err
	}
	return line, nil
}
