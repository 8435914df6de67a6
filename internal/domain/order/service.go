package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/smartstore/internal/domain/cart"
	"github.com/xenking/smartstore/internal/domain/checkout"
	"github.com/xenking/smartstore/internal/domain/promo"
)

// ErrEmptyCart is returned when an order is submitted for a cart with no
// line items.
var ErrEmptyCart = errors.New("cart is empty")

// SubmitRequest holds everything needed to turn a confirmed checkout into an
// order.
type SubmitRequest struct {
	SessionID string
	Cart      *cart.Cart
	Shipping  checkout.ShippingAddress
	Payment   checkout.PaymentMethod
	PromoCode string
}

// Service turns confirmed checkouts into persisted orders.
type Service struct {
	orders Repository
	promos promo.Repository
	pricer cart.Pricer
	events Publisher
	lg     *zap.Logger
	now    func() time.Time
}

// NewService creates an order Service with the required dependencies.
func NewService(orders Repository, promos promo.Repository, pricer cart.Pricer, events Publisher, lg *zap.Logger) *Service {
	return &Service{
		orders: orders,
		promos: promos,
		pricer: pricer,
		events: events,
		lg:     lg,
		now:    time.Now,
	}
}

// Submit prices the cart, applies an optional promo code, persists the order,
// and announces it. Tax is computed on the discounted subtotal; all money is
// rounded to cents here and nowhere earlier. Event publishing is
// fire-and-forget: a delivery failure is logged and the order still succeeds.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Order, error) {
	if req.Cart == nil || len(req.Cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	summary := s.pricer.Summarize(req.Cart)

	discount := decimal.Zero
	if req.PromoCode != "" {
		rule, err := s.promos.FindByCode(ctx, req.PromoCode)
		if err != nil {
			return nil, errors.Wrap(err, "lookup promo code")
		}
		discount, err = rule.Discount(summary.Subtotal, s.now())
		if err != nil {
			return nil, errors.Wrap(err, "apply promo code")
		}
	}

	taxable := summary.Subtotal.Sub(discount)
	tax := taxable.Mul(s.pricer.TaxRate())
	total := taxable.Add(tax)

	items := make([]Item, len(req.Cart.Items))
	for i, li := range req.Cart.Items {
		items[i] = Item{
			ProductID:  li.Product.ID,
			Name:       li.Product.Name,
			Quantity:   li.Quantity,
			UnitPrice:  li.UnitPrice,
			TotalPrice: li.TotalPrice,
		}
	}

	o := &Order{
		ID:            uuid.New().String(),
		SessionID:     req.SessionID,
		Items:         items,
		Subtotal:      summary.Subtotal.Round(2),
		Discount:      discount.Round(2),
		Tax:           tax.Round(2),
		Total:         total.Round(2),
		PromoCode:     req.PromoCode,
		Shipping:      req.Shipping,
		PaymentMethod: req.Payment,
		Status:        StatusPending,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if err := s.events.OrderPlaced(ctx, o); err != nil {
		s.lg.Warn("order event not published",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}

	return o, nil
}
