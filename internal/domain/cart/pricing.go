package cart

import "github.com/shopspring/decimal"

// DefaultTaxRate is the flat tax rate applied to cart subtotals when the
// configuration does not override it.
var DefaultTaxRate = decimal.RequireFromString("0.10")

// Summary holds the derived pricing figures for a cart. Shipping is a flat
// free policy, so Total is simply Subtotal + Tax.
type Summary struct {
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
	ItemCount int
}

// Pricer computes cart summaries with a configurable tax rate.
type Pricer struct {
	taxRate decimal.Decimal
}

// NewPricer returns a Pricer with the given tax rate, e.g. 0.10 for 10%.
func NewPricer(taxRate decimal.Decimal) Pricer {
	return Pricer{taxRate: taxRate}
}

// TaxRate returns the configured tax rate.
func (p Pricer) TaxRate() decimal.Decimal {
	return p.taxRate
}

// Summarize recomputes subtotal, tax, and total from scratch. Carts are
// small, so a full O(n) pass on every call is cheaper than keeping cached
// figures in sync with mutations. No rounding happens here; amounts are
// rounded to cents only when an order is submitted.
func (p Pricer) Summarize(c *Cart) Summary {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.TotalPrice)
	}

	tax := subtotal.Mul(p.taxRate)
	return Summary{
		Subtotal:  subtotal,
		Tax:       tax,
		Total:     subtotal.Add(tax),
		ItemCount: c.Count(),
	}
}
