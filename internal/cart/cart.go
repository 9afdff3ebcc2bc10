// Package cart is per-session cart state with derived totals. Nothing here is
// persisted and a Cart is not safe for concurrent use.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/canteen/internal/models"
)

const DeliveryFee int64 = 40

var taxRate = decimal.RequireFromString("0.05")

type Line struct {
	Item     models.Item `json:"item"`
	Quantity int         `json:"quantity"`
}

func (l Line) Total() int64 {
	return l.Item.Price * int64(l.Quantity)
}

type Summary struct {
	Subtotal    int64 `json:"subtotal"`
	DeliveryFee int64 `json:"delivery_fee"`
	Tax         int64 `json:"tax"`
	Total       int64 `json:"total"`
}

type Cart struct {
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

func (c *Cart) index(itemID uint) int {
	for i := range c.lines {
		if c.lines[i].Item.ID == itemID {
			return i
		}
	}
	return -1
}

// AddItem adds one unit of item, merging with an existing line.
func (c *Cart) AddItem(item models.Item) {
	c.AddItems(item, 1)
}

// AddItems adds n units of item. n <= 0 is a no-op. A line never holds more
// than models.MaxLineQuantity units.
func (c *Cart) AddItems(item models.Item, n int) {
	if n <= 0 {
		return
	}
	if i := c.index(item.ID); i >= 0 {
		c.lines[i].Quantity = clampQuantity(c.lines[i].Quantity, n)
		return
	}
	c.lines = append(c.lines, Line{Item: item, Quantity: clampQuantity(0, n)})
}

func clampQuantity(have, add int) int {
	if add >= models.MaxLineQuantity-have {
		return models.MaxLineQuantity
	}
	return have + add
}

func (c *Cart) RemoveItem(itemID uint) {
	i := c.index(itemID)
	if i < 0 {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

// SetQuantity replaces the line quantity; qty <= 0 drops the line and larger
// values are capped at models.MaxLineQuantity.
func (c *Cart) SetQuantity(itemID uint, qty int) {
	if qty <= 0 {
		c.RemoveItem(itemID)
		return
	}
	if i := c.index(itemID); i >= 0 {
		c.lines[i].Quantity = clampQuantity(0, qty)
	}
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) Total() int64 {
	var total int64
	for _, l := range c.lines {
		total += l.Total()
	}
	return total
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Summary is the checkout display: subtotal, flat delivery fee and 5% tax
// rounded half up to a whole currency unit.
func (c *Cart) Summary() Summary {
	if c.IsEmpty() {
		return Summary{}
	}
	sub := c.Total()
	tax := decimal.NewFromInt(sub).Mul(taxRate).Round(0).IntPart()
	return Summary{
		Subtotal:    sub,
		DeliveryFee: DeliveryFee,
		Tax:         tax,
		Total:       sub + DeliveryFee + tax,
	}
}

// OrderLines converts the cart into checkout input.
func (c *Cart) OrderLines() []models.LineItem {
	out := make([]models.LineItem, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, models.LineItem{ItemID: l.Item.ID, Quantity: l.Quantity})
	}
	return out
}
