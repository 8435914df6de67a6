// Package promo implements percentage promo codes applied at order
// submission. Codes come from the promo_codes table, populated by seed-db
// and the bulk promo-ingest tool.
package promo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a promo code does not exist or is inactive.
	ErrNotFound = errors.New("promo code not found")
	// ErrExpired is returned when a promo code is past its expiry.
	ErrExpired = errors.New("promo code expired")
	// ErrMinSubtotal is returned when the cart subtotal is below the
	// code's minimum.
	ErrMinSubtotal = errors.New("subtotal below promo code minimum")
)

// Rule is one promo code's discount definition.
type Rule struct {
	Code        string
	Percent     decimal.Decimal
	MinSubtotal decimal.Decimal
	Description string
	ExpiresAt   *time.Time
	Active      bool
}

// Repository provides lookup of promo rules by code.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
}

var hundred = decimal.NewFromInt(100)

// Discount returns the discount amount this rule grants on the given
// subtotal. The amount is capped at the subtotal so a discount can never
// push a total below zero.
func (r *Rule) Discount(subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !r.Active {
		return decimal.Zero, ErrNotFound
	}
	if r.ExpiresAt != nil && now.After(*r.ExpiresAt) {
		return decimal.Zero, ErrExpired
	}
	if subtotal.LessThan(r.MinSubtotal) {
		return decimal.Zero, ErrMinSubtotal
	}

	amount := subtotal.Mul(r.Percent).Div(hundred)
	return decimal.Min(amount, subtotal), nil
}

// ValidCode reports whether a raw ingested code has an acceptable shape:
// 8 to 10 characters, uppercase letters and digits only. The bulk dumps
// contain plenty of garbage lines; this is the first gate.
func ValidCode(code string) bool {
	if len(code) < 8 || len(code) > 10 {
		return false
	}
	for i := range len(code) {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
