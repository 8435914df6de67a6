package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/smartstore/internal/domain/checkout"
)

// ErrNotFound is returned when an order does not exist.
var ErrNotFound = errors.New("order not found")

// Status tracks an order through fulfilment. New orders start pending;
// everything after that is driven by external systems.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Order is a submitted order with its pricing snapshot. Money fields are
// rounded to cents at submission time.
type Order struct {
	ID            string
	SessionID     string
	Items         []Item
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	PromoCode     string
	Shipping      checkout.ShippingAddress
	PaymentMethod checkout.PaymentMethod
	Status        Status
	CreatedAt     time.Time
}

// Item is one line of an order, denormalized from the cart so the order
// remains readable after catalog changes.
type Item struct {
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
}

// Publisher announces placed orders to downstream consumers. Publishing is
// fire-and-forget from the order pipeline's perspective: implementations
// must not block order submission on delivery.
type Publisher interface {
	OrderPlaced(ctx context.Context, o *Order) error
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) OrderPlaced(context.Context, *Order) error { return nil }
