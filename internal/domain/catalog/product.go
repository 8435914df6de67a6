package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a storefront catalog item. Instances are read-only
// snapshots for the lifetime of a request; nothing in this package mutates
// them.
type Product struct {
	ID            string
	Name          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice decimal.NullDecimal
	CategoryID    string
	CategoryName  string
	Image         string
	Images        []string
	Rating        float64
	NumReviews    int
	Stock         int
	Available     bool
	Featured      bool
	Trending      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EffectivePrice returns the discount price when one is set, otherwise the
// base price. This is the unit price a buyer actually pays.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice.Valid {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}

// OnSale reports whether the product currently has a discount price.
func (p Product) OnSale() bool {
	return p.DiscountPrice.Valid
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
