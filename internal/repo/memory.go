package repo

import (
	"context"
	"slices"
	"sync"

	"github.com/Skotchmaster/minishop/internal/models"
	"github.com/google/uuid"
)

// MemoryRepo keeps items and cart lines in process memory. A single lock
// covers both collections since cascade delete and add-to-cart span them.
type MemoryRepo struct {
	mu  sync.RWMutex
	seq int64

	itemOrder []uuid.UUID
	items     map[uuid.UUID]models.Item

	lineOrder  []uuid.UUID
	lines      map[uuid.UUID]models.CartLine
	lineByItem map[uuid.UUID]uuid.UUID
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		items:      make(map[uuid.UUID]models.Item),
		lines:      make(map[uuid.UUID]models.CartLine),
		lineByItem: make(map[uuid.UUID]uuid.UUID),
	}
}

func (r *MemoryRepo) nextSeq() int64 {
	r.seq++
	return r.seq
}

func (r *MemoryRepo) ListItems(ctx context.Context) ([]models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Item, 0, len(r.itemOrder))
	for _, id := range r.itemOrder {
		out = append(out, r.items[id])
	}
	return out, nil
}

func (r *MemoryRepo) GetItem(ctx context.Context, id uuid.UUID) (models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return models.Item{}, ErrItemNotFound
	}
	return it, nil
}

func (r *MemoryRepo) CreateItem(ctx context.Context, it *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertItem(it)
	return nil
}

func (r *MemoryRepo) insertItem(it *models.Item) {
	for it.ID == uuid.Nil {
		id := uuid.New()
		if _, taken := r.items[id]; !taken {
			it.ID = id
		}
	}
	it.Seq = r.nextSeq()
	r.items[it.ID] = *it
	r.itemOrder = append(r.itemOrder, it.ID)
}

func (r *MemoryRepo) UpdateItem(ctx context.Context, id uuid.UUID, patch models.ItemPatch) (models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return models.Item{}, ErrItemNotFound
	}
	patch.Apply(&it)
	r.items[id] = it
	return it, nil
}

func (r *MemoryRepo) DeleteItem(ctx context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return 0, ErrItemNotFound
	}
	delete(r.items, id)
	r.itemOrder = slices.DeleteFunc(r.itemOrder, func(v uuid.UUID) bool { return v == id })

	// at most one line per item, reachable through the reverse index
	lineID, ok := r.lineByItem[id]
	if !ok {
		return 0, nil
	}
	r.removeLine(lineID)
	return 1, nil
}

func (r *MemoryRepo) SeedItems(ctx context.Context, items []models.Item) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) > 0 {
		return false, nil
	}
	for i := range items {
		r.insertItem(&items[i])
	}
	return true, nil
}

func (r *MemoryRepo) ListCart(ctx context.Context) ([]models.CartLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.CartLine, 0, len(r.lineOrder))
	for _, id := range r.lineOrder {
		out = append(out, r.lines[id])
	}
	return out, nil
}

func (r *MemoryRepo) GetCartLine(ctx context.Context, lineID uuid.UUID) (models.CartLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	line, ok := r.lines[lineID]
	if !ok {
		return models.CartLine{}, ErrLineNotFound
	}
	return line, nil
}

func (r *MemoryRepo) AddToCart(ctx context.Context, itemID uuid.UUID, qty int) (models.CartLine, error) {
	if qty <= 0 {
		return models.CartLine{}, ErrInvalidQty
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[itemID]; !ok {
		return models.CartLine{}, ErrItemNotFound
	}

	if lineID, ok := r.lineByItem[itemID]; ok {
		line := r.lines[lineID]
		line.Qty += qty
		r.lines[lineID] = line
		return line, nil
	}

	line := models.CartLine{ItemID: itemID, Qty: qty, Seq: r.nextSeq()}
	for line.ID == uuid.Nil {
		id := uuid.New()
		if _, taken := r.lines[id]; !taken {
			line.ID = id
		}
	}
	r.lines[line.ID] = line
	r.lineOrder = append(r.lineOrder, line.ID)
	r.lineByItem[itemID] = line.ID
	return line, nil
}

func (r *MemoryRepo) SetCartQty(ctx context.Context, lineID uuid.UUID, qty int) (models.CartLine, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	line, ok := r.lines[lineID]
	if !ok {
		return models.CartLine{}, false, ErrLineNotFound
	}
	if qty <= 0 {
		r.removeLine(lineID)
		return line, true, nil
	}
	line.Qty = qty
	r.lines[lineID] = line
	return line, false, nil
}

func (r *MemoryRepo) DeleteCartLine(ctx context.Context, lineID uuid.UUID) (models.CartLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	line, ok := r.lines[lineID]
	if !ok {
		return models.CartLine{}, ErrLineNotFound
	}
	r.removeLine(lineID)
	return line, nil
}

// removeLine expects r.mu held for writing.
func (r *MemoryRepo) removeLine(lineID uuid.UUID) {
	line, ok := r.lines[lineID]
	if !ok {
		return
	}
	delete(r.lines, lineID)
	delete(r.lineByItem, line.ItemID)
	r.lineOrder = slices.DeleteFunc(r.lineOrder, func(v uuid.UUID) bool { return v == lineID })
}
