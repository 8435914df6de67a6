package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/smartstore/internal/domain/catalog"
)

// ListProducts serves GET /api/products. Query parameters select the filter
// pipeline stages: category, min_price/max_price, min_rating, search, sort.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.products.List(r.Context())
	if err != nil {
		h.lg.Error("list products", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list products")
		return
	}

	result := catalog.Apply(products, f)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("products")
		e.ArrStart()
		for _, p := range result {
			h.encodeProduct(e, p)
		}
		e.ArrEnd()
		e.FieldStart("count")
		e.Int(len(result))
		e.ObjEnd()
	})
}

// GetProduct serves GET /api/products/{productID}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.lg.Error("get product", zap.String("product_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get product")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeProduct(e, *p)
	})
}

// parseFilter builds a catalog.Filter from list query parameters. Both price
// bounds must be given together; a lone bound is rejected rather than guessed
// at.
func parseFilter(r *http.Request) (catalog.Filter, error) {
	q := r.URL.Query()

	f := catalog.Filter{
		CategoryID: q.Get("category"),
		Search:     q.Get("search"),
		Sort:       catalog.SortKey(q.Get("sort")),
	}

	minRaw, maxRaw := q.Get("min_price"), q.Get("max_price")
	switch {
	case minRaw == "" && maxRaw == "":
	case minRaw == "" || maxRaw == "":
		return catalog.Filter{}, errors.New("min_price and max_price must be given together")
	default:
		lo, err := decimal.NewFromString(minRaw)
		if err != nil {
			return catalog.Filter{}, errors.New("invalid min_price")
		}
		hi, err := decimal.NewFromString(maxRaw)
		if err != nil {
			return catalog.Filter{}, errors.New("invalid max_price")
		}
		f.PriceRange = &catalog.PriceRange{Min: lo, Max: hi}
	}

	if raw := q.Get("min_rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return catalog.Filter{}, errors.New("invalid min_rating")
		}
		f.MinRating = rating
	}

	return f, nil
}

func (h *Handler) encodeProduct(e *jx.Encoder, p catalog.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("price")
	encodeDecimal(e, p.Price)
	if p.DiscountPrice.Valid {
		e.FieldStart("discount_price")
		encodeDecimal(e, p.DiscountPrice.Decimal)
	}
	e.FieldStart("category_id")
	e.Str(p.CategoryID)
	e.FieldStart("category_name")
	e.Str(p.CategoryName)
	e.FieldStart("image")
	e.Str(h.imageURL(p.Image))
	e.FieldStart("images")
	e.ArrStart()
	for _, img := range p.Images {
		e.Str(h.imageURL(img))
	}
	e.ArrEnd()
	e.FieldStart("rating")
	e.Float64(p.Rating)
	e.FieldStart("num_reviews")
	e.Int(p.NumReviews)
	e.FieldStart("stock")
	e.Int(p.Stock)
	e.FieldStart("is_available")
	e.Bool(p.Available)
	e.FieldStart("is_featured")
	e.Bool(p.Featured)
	e.FieldStart("is_trending")
	e.Bool(p.Trending)
	e.FieldStart("on_sale")
	e.Bool(p.OnSale())
	e.ObjEnd()
}

// imageURL prefixes relative image paths with the configured base URL.
// Absolute URLs pass through unchanged.
func (h *Handler) imageURL(path string) string {
	if path == "" || h.imageBaseURL == "" {
		return path
	}
	if len(path) >= 4 && path[:4] == "http" {
		return path
	}
	return h.imageBaseURL + path
}
