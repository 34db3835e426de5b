package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// prices go over the wire as bare JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type Item struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"      json:"id"`
	Seq         int64           `gorm:"uniqueIndex:uix_items_seq;not null" json:"-"`
	Name        string          `gorm:"not null"                  json:"name"`
	Price       decimal.Decimal `gorm:"type:numeric;not null"     json:"price"`
	Image       string          `gorm:"not null;default:''"       json:"image"`
	Description string          `gorm:"not null;default:''"       json:"description"`
	Stock       int             `gorm:"not null;default:0"        json:"stock"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (Item) TableName() string {
	return "items"
}

// ItemPatch holds the fields of a partial item update. Nil fields keep
// their current value.
type ItemPatch struct {
	Name        *string
	Price       *decimal.Decimal
	Image       *string
	Description *string
	Stock       *int
}

func (p ItemPatch) Apply(it *Item) {
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Price != nil {
		it.Price = *p.Price
	}
	if p.Image != nil {
		it.Image = *p.Image
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.Stock != nil {
		it.Stock = *p.Stock
	}
}

type CartLine struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	Seq    int64     `gorm:"uniqueIndex:uix_cart_lines_seq;not null" json:"-"`
	ItemID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"itemId"`
	Qty    int       `gorm:"not null;check:qty > 0"        json:"qty"`
}

func (l *CartLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func (CartLine) TableName() string {
	return "cart_lines"
}

// DetailedCartLine is a cart line joined with its item. Item is nil when
// the line references an item that no longer exists.
type DetailedCartLine struct {
	ID     uuid.UUID `json:"id"`
	ItemID uuid.UUID `json:"itemId"`
	Qty    int       `json:"qty"`
	Item   *Item     `json:"item"`
}

// Subtotal is price*qty, or zero for a dangling line.
func (d DetailedCartLine) Subtotal() decimal.Decimal {
	if d.Item == nil {
		return decimal.Zero
	}
	return d.Item.Price.Mul(decimal.NewFromInt(int64(d.Qty)))
}

// CartTotal sums the subtotals of lines. It is meant to be recomputed on
// every view of the cart.
func CartTotal(lines []DetailedCartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
