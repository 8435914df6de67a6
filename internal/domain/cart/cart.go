// Package cart implements the shopping cart and its pricing pipeline.
//
// A Cart is the sole owner of its line items: items are created by Add,
// mutated in place by UpdateQuantity, and destroyed by Remove or Clear.
// Every line item keeps the invariant TotalPrice == UnitPrice * Quantity;
// any quantity change recomputes TotalPrice in the same step.
package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/smartstore/internal/domain/catalog"
)

// LineItem is one product-quantity pairing inside a cart. UnitPrice is
// captured at add time (the effective price of the product snapshot) and is
// never recomputed from the product afterwards.
type LineItem struct {
	ID         string          `json:"id"`
	Product    catalog.Product `json:"product"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Cart holds the line items for one session.
type Cart struct {
	Items []LineItem `json:"items"`
}

// Add puts a product into the cart. Adding a product that is already present
// bumps the existing line item's quantity instead of creating a duplicate.
// A quantity below 1 is a silent no-op.
func (c *Cart) Add(p catalog.Product, quantity int) {
	if quantity < 1 {
		return
	}

	for i := range c.Items {
		if c.Items[i].Product.ID == p.ID {
			c.setQuantity(i, c.Items[i].Quantity+quantity)
			return
		}
	}

	unit := p.EffectivePrice()
	c.Items = append(c.Items, LineItem{
		ID:         uuid.New().String(),
		Product:    p,
		Quantity:   quantity,
		UnitPrice:  unit,
		TotalPrice: unit.Mul(decimal.NewFromInt(int64(quantity))),
	})
}

// UpdateQuantity replaces the quantity of the matching line item and
// recomputes its total price. Quantities below 1 are rejected silently and an
// unknown itemID is a no-op: UI re-renders can race with removal, so neither
// is an error.
func (c *Cart) UpdateQuantity(itemID string, quantity int) {
	if quantity < 1 {
		return
	}
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.setQuantity(i, quantity)
			return
		}
	}
}

// Remove deletes the matching line item. An unknown itemID is a no-op.
func (c *Cart) Remove(itemID string) {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// Clear removes every line item.
func (c *Cart) Clear() {
	c.Items = nil
}

// Count returns the number of units across all line items.
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// setQuantity updates quantity and total price together so the line item
// invariant holds at every observable point.
func (c *Cart) setQuantity(i, quantity int) {
	c.Items[i].Quantity = quantity
	c.Items[i].TotalPrice = c.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
