package transport

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/minishop/internal/models"
	"github.com/Skotchmaster/minishop/internal/service"
)

const (
	MsgInvalidBody  = "invalid body"
	MsgInvalidPrice = "price must be a non-negative number"
	MsgInvalidStock = "stock must be a non-negative integer"
	MsgInvalidQty   = "qty must be a number"
)

var (
	maxInt = decimal.NewFromInt(math.MaxInt32)
	minInt = decimal.NewFromInt(math.MinInt32)
)

// Number accepts a JSON number or a numeric string. Any other JSON value
// decodes without error and leaves Valid false.
type Number struct {
	Value decimal.Decimal
	Valid bool
}

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil
	}

	var s string
	switch v := raw.(type) {
	case json.Number:
		s = v.String()
	case string:
		s = strings.TrimSpace(v)
	default:
		return nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	n.Value, n.Valid = d, true
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(n.Value.String()), nil
}

// Int truncates toward zero. Values outside the int32 range are invalid.
func (n *Number) Int() (int, bool) {
	if n == nil || !n.Valid {
		return 0, false
	}
	t := n.Value.Truncate(0)
	if t.GreaterThan(maxInt) || t.LessThan(minInt) {
		return 0, false
	}
	return int(t.IntPart()), true
}

func (n *Number) Decimal() (decimal.Decimal, bool) {
	if n == nil || !n.Valid {
		return decimal.Zero, false
	}
	return n.Value, true
}

func NumberOf(v int64) *Number {
	return &Number{Value: decimal.NewFromInt(v), Valid: true}
}

type CreateItemRequest struct {
	Name        string  `json:"name"        validate:"required"`
	Price       *Number `json:"price"       validate:"required"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
	Stock       *Number `json:"stock"`
}

func (r CreateItemRequest) Input() (service.NewItem, error) {
	in := service.NewItem{
		Name:        r.Name,
		Image:       r.Image,
		Description: r.Description,
	}
	if r.Price != nil {
		p, ok := r.Price.Decimal()
		if !ok {
			return service.NewItem{}, service.Validation(MsgInvalidPrice)
		}
		in.Price = &p
	}
	if stock, ok := r.Stock.Int(); ok && stock > 0 {
		in.Stock = stock
	}
	return in, nil
}

// PatchItemRequest holds any subset of item fields; absent or null fields
// are left unchanged.
type PatchItemRequest struct {
	Name        *string `json:"name"`
	Price       *Number `json:"price"`
	Image       *string `json:"image"`
	Description *string `json:"description"`
	Stock       *Number `json:"stock"`
}

func (r PatchItemRequest) Patch() (models.ItemPatch, error) {
	p := models.ItemPatch{
		Name:        r.Name,
		Image:       r.Image,
		Description: r.Description,
	}
	if r.Price != nil {
		d, ok := r.Price.Decimal()
		if !ok || d.IsNegative() {
			return models.ItemPatch{}, service.Validation(MsgInvalidPrice)
		}
		p.Price = &d
	}
	if r.Stock != nil {
		s, ok := r.Stock.Int()
		if !ok || s < 0 {
			return models.ItemPatch{}, service.Validation(MsgInvalidStock)
		}
		p.Stock = &s
	}
	return p, nil
}

type AddToCartRequest struct {
	ItemID string  `json:"itemId"`
	Qty    *Number `json:"qty"`
}

// Input returns the referenced item and the requested quantity, 0 when
// the client sent none or an unusable one.
func (r AddToCartRequest) Input() (uuid.UUID, int, error) {
	raw := strings.TrimSpace(r.ItemID)
	if raw == "" {
		return uuid.Nil, 0, service.Validation(service.MsgItemIDRequired)
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, 0, service.NotFound(service.MsgItemNotFound)
	}
	qty, _ := r.Qty.Int()
	return id, qty, nil
}

type UpdateCartRequest struct {
	Qty *Number `json:"qty"`
}

func (r UpdateCartRequest) Quantity() (int, error) {
	qty, ok := r.Qty.Int()
	if !ok {
		return 0, service.Validation(MsgInvalidQty)
	}
	return qty, nil
}

// ParseID reads a path id. An id that cannot exist is reported as not found.
func ParseID(raw, notFoundMsg string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, service.NotFound(notFoundMsg)
	}
	return id, nil
}
