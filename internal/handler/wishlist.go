package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"

	"github.com/xenking/smartstore/internal/domain/catalog"
)

// GetWishlist serves GET /api/wishlist with the stored products resolved
// against the catalog. IDs whose product has been removed are skipped.
func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(ctx)

	ids, err := h.wishlists.List(ctx, sid)
	if err != nil {
		h.lg.Error("list wishlist", zap.String("session_id", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list wishlist")
		return
	}

	var products []catalog.Product
	if len(ids) > 0 {
		products, err = h.products.GetByIDs(ctx, ids)
		if err != nil {
			h.lg.Error("resolve wishlist products", zap.String("session_id", sid), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "resolve wishlist")
			return
		}
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("products")
		e.ArrStart()
		for _, p := range products {
			h.encodeProduct(e, p)
		}
		e.ArrEnd()
		e.FieldStart("count")
		e.Int(len(products))
		e.ObjEnd()
	})
}

// AddWishlistItem serves PUT /api/wishlist/{productID}. Adding a product that
// is already wishlisted is a no-op.
func (h *Handler) AddWishlistItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(ctx)
	productID := chi.URLParam(r, "productID")

	if _, err := h.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.lg.Error("get product", zap.String("product_id", productID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get product")
		return
	}

	if err := h.wishlists.Add(ctx, sid, productID); err != nil {
		h.lg.Error("add to wishlist", zap.String("session_id", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "add to wishlist")
		return
	}

	h.bumpWishlistCount(ctx, sid)
	w.WriteHeader(http.StatusNoContent)
}

// RemoveWishlistItem serves DELETE /api/wishlist/{productID}. Removing an
// absent product is a no-op.
func (h *Handler) RemoveWishlistItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(ctx)
	productID := chi.URLParam(r, "productID")

	if err := h.wishlists.Remove(ctx, sid, productID); err != nil {
		h.lg.Error("remove from wishlist", zap.String("session_id", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "remove from wishlist")
		return
	}

	h.bumpWishlistCount(ctx, sid)
	w.WriteHeader(http.StatusNoContent)
}
