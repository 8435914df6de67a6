// Package handler exposes the storefront over HTTP: catalog browsing, the
// per-session cart, the checkout flow, wishlists, and session state.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/smartstore/internal/appstate"
	"github.com/xenking/smartstore/internal/domain/cart"
	"github.com/xenking/smartstore/internal/domain/catalog"
	"github.com/xenking/smartstore/internal/domain/checkout"
	"github.com/xenking/smartstore/internal/domain/order"
	"github.com/xenking/smartstore/internal/session"
)

// CartStore persists carts per session.
type CartStore interface {
	Load(ctx context.Context, sessionID string) (*cart.Cart, error)
	Save(ctx context.Context, sessionID string, c *cart.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// FlowStore persists checkout flows per session.
type FlowStore interface {
	Load(ctx context.Context, sessionID string) (*checkout.Flow, error)
	Save(ctx context.Context, sessionID string, f *checkout.Flow) error
	Delete(ctx context.Context, sessionID string) error
}

// StateStore persists the UI state snapshot per session and applies actions
// to it.
type StateStore interface {
	Load(ctx context.Context, sessionID string) (appstate.State, error)
	Dispatch(ctx context.Context, sessionID string, a appstate.Action) (appstate.State, error)
	Delete(ctx context.Context, sessionID string) error
}

// WishlistStore persists wishlists per session.
type WishlistStore interface {
	Add(ctx context.Context, sessionID, productID string) error
	Remove(ctx context.Context, sessionID, productID string) error
	List(ctx context.Context, sessionID string) ([]string, error)
	Count(ctx context.Context, sessionID string) (int, error)
	Delete(ctx context.Context, sessionID string) error
}

// OrderSubmitter turns a cart plus checkout data into a persisted order.
type OrderSubmitter interface {
	Submit(ctx context.Context, req order.SubmitRequest) (*order.Order, error)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored.
	ImageBaseURL string
}

// Deps bundles the Handler's collaborators.
type Deps struct {
	Products  catalog.Repository
	Carts     CartStore
	Flows     FlowStore
	States    StateStore
	Wishlists WishlistStore
	Orders    OrderSubmitter
	Sessions  session.Provider
	Pricer    cart.Pricer
	Logger    *zap.Logger
	Meter     metric.Meter
	Tracer    trace.Tracer
}

// Handler serves the storefront API.
type Handler struct {
	products  catalog.Repository
	carts     CartStore
	flows     FlowStore
	states    StateStore
	wishlists WishlistStore
	orders    OrderSubmitter
	sessions  session.Provider
	pricer    cart.Pricer

	lg           *zap.Logger
	tracer       trace.Tracer
	ordersPlaced metric.Int64Counter

	imageBaseURL string
}

// NewHandler constructs a Handler with the given dependencies.
func NewHandler(cfg Config, deps Deps) (*Handler, error) {
	ordersPlaced, err := deps.Meter.Int64Counter("store.orders.placed",
		metric.WithDescription("Number of orders placed"))
	if err != nil {
		return nil, errors.Wrap(err, "create orders counter")
	}

	return &Handler{
		products:     deps.Products,
		carts:        deps.Carts,
		flows:        deps.Flows,
		states:       deps.States,
		wishlists:    deps.Wishlists,
		orders:       deps.Orders,
		sessions:     deps.Sessions,
		pricer:       deps.Pricer,
		lg:           deps.Logger,
		tracer:       deps.Tracer,
		ordersPlaced: ordersPlaced,
		imageBaseURL: cfg.ImageBaseURL,
	}, nil
}

// Routes mounts the API under /api. Catalog endpoints are public; everything
// else requires an X-Session-ID header.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{productID}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddCartItem)
				r.Patch("/items/{itemID}", h.UpdateCartItem)
				r.Delete("/items/{itemID}", h.RemoveCartItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", h.GetCheckout)
				r.Put("/shipping", h.SubmitShipping)
				r.Put("/payment", h.SelectPayment)
				r.Post("/back", h.CheckoutBack)
				r.Post("/confirm", h.ConfirmCheckout)
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", h.GetWishlist)
				r.Put("/{productID}", h.AddWishlistItem)
				r.Delete("/{productID}", h.RemoveWishlistItem)
			})

			r.Route("/session", func(r chi.Router) {
				r.Post("/", h.Login)
				r.Delete("/", h.Logout)
				r.Get("/state", h.GetState)
			})
		})
	})

	return r
}

// bumpCartCount refreshes the cart badge in the session state after a cart
// mutation. Failures are logged, not surfaced: the cart write already
// succeeded and the badge heals on the next mutation.
func (h *Handler) bumpCartCount(ctx context.Context, sessionID string, c *cart.Cart) {
	if _, err := h.states.Dispatch(ctx, sessionID, appstate.SetCartCount{Count: c.Count()}); err != nil {
		h.lg.Warn("update cart count", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// bumpWishlistCount refreshes the wishlist badge after a wishlist mutation.
func (h *Handler) bumpWishlistCount(ctx context.Context, sessionID string) {
	n, err := h.wishlists.Count(ctx, sessionID)
	if err == nil {
		_, err = h.states.Dispatch(ctx, sessionID, appstate.SetWishlistCount{Count: n})
	}
	if err != nil {
		h.lg.Warn("update wishlist count", zap.String("session_id", sessionID), zap.Error(err))
	}
}
