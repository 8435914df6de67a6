package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"

	"github.com/xenking/smartstore/internal/domain/cart"
	"github.com/xenking/smartstore/internal/domain/catalog"
)

// GetCart serves GET /api/cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(ctx)

	c, err := h.carts.Load(ctx, sid)
	if err != nil {
		h.lg.Error("load cart", zap.String("session_id", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load cart")
		return
	}

	h.writeCart(w, c)
}

// AddCartItem serves POST /api/cart/items with body
// {"product_id": "...", "quantity": N}. A missing quantity means 1.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}

	productID, quantity, err := decodeAddItemRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if productID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	p, err := h.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.lg.Error("get product", zap.String("product_id", productID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get product")
		return
	}

	h.mutateCart(w, r, func(c *cart.Cart) {
		c.Add(*p, quantity)
	})
}

// UpdateCartItem serves PATCH /api/cart/items/{itemID} with body
// {"quantity": N}. Quantities below 1 and unknown item IDs leave the cart
// unchanged and still return the current cart.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}

	quantity, err := decodeQuantityRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.mutateCart(w, r, func(c *cart.Cart) {
		c.UpdateQuantity(itemID, quantity)
	})
}

// RemoveCartItem serves DELETE /api/cart/items/{itemID}. Removing an unknown
// item is a no-op.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	h.mutateCart(w, r, func(c *cart.Cart) {
		c.Remove(itemID)
	})
}

// ClearCart serves DELETE /api/cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.mutateCart(w, r, func(c *cart.Cart) {
		c.Clear()
	})
}

// mutateCart loads the session cart, applies the mutation, saves the result,
// refreshes the cart badge, and writes the updated cart.
func (h *Handler) mutateCart(w http.ResponseWriter, r *http.Request, mutate func(c *cart.Cart)) {
	ctx := r.Context()
	sid := sessionID(ctx)

	c, err := h.carts.Load(ctx, sid)
	if err != nil {
		h.lg.Error("load cart", zap.String("session_id", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load cart")
		return
	}

	mutate(c)

	if err := h.carts.Save(ctx, sid, c); err != nil {
		h.lg.Error("save cart", zap.String("session_id", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "save cart")
		return
	}

	h.bumpCartCount(ctx, sid, c)
	h.writeCart(w, c)
}

// writeCart responds with the cart's line items and a freshly computed
// summary. The summary is recomputed on every response, never cached.
func (h *Handler) writeCart(w http.ResponseWriter, c *cart.Cart) {
	summary := h.pricer.Summarize(c)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("items")
		e.ArrStart()
		for _, item := range c.Items {
			h.encodeLineItem(e, item)
		}
		e.ArrEnd()
		e.FieldStart("summary")
		h.encodeSummary(e, summary)
		e.ObjEnd()
	})
}

func (h *Handler) encodeLineItem(e *jx.Encoder, item cart.LineItem) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(item.ID)
	e.FieldStart("product")
	h.encodeProduct(e, item.Product)
	e.FieldStart("quantity")
	e.Int(item.Quantity)
	e.FieldStart("price")
	encodeDecimal(e, item.UnitPrice)
	e.FieldStart("total_price")
	encodeDecimal(e, item.TotalPrice)
	e.ObjEnd()
}

func (h *Handler) encodeSummary(e *jx.Encoder, s cart.Summary) {
	e.ObjStart()
	e.FieldStart("subtotal")
	encodeDecimal(e, s.Subtotal)
	e.FieldStart("tax")
	encodeDecimal(e, s.Tax)
	e.FieldStart("total")
	encodeDecimal(e, s.Total)
	e.FieldStart("item_count")
	e.Int(s.ItemCount)
	e.ObjEnd()
}

func decodeAddItemRequest(data []byte) (productID string, quantity int, err error) {
	quantity = 1
	d := jx.DecodeBytes(data)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "product_id":
			v, err := d.Str()
			if err != nil {
				return err
			}
			productID = v
			return nil
		case "quantity":
			v, err := d.Int()
			if err != nil {
				return err
			}
			quantity = v
			return nil
		default:
			return d.Skip()
		}
	})
	return productID, quantity, err
}

func decodeQuantityRequest(data []byte) (quantity int, err error) {
	d := jx.DecodeBytes(data)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "quantity":
			v, err := d.Int()
			if err != nil {
				return err
			}
			quantity = v
			return nil
		default:
			return d.Skip()
		}
	})
	return quantity, err
}
