package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/smartstore/internal/appstate"
	"github.com/xenking/smartstore/internal/domain/cart"
	"github.com/xenking/smartstore/internal/domain/catalog"
	"github.com/xenking/smartstore/internal/domain/checkout"
	"github.com/xenking/smartstore/internal/domain/order"
	"github.com/xenking/smartstore/internal/session"
)

// --- Mock implementations ---

type mockProductRepo struct {
	products []catalog.Product
	listErr  error
}

func (m *mockProductRepo) List(_ context.Context) ([]catalog.Product, error) {
	return m.products, m.listErr
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		for i := range m.products {
			if m.products[i].ID == id {
				out = append(out, m.products[i])
			}
		}
	}
	return out, nil
}

type memCartStore struct {
	carts map[string]*cart.Cart
}

func newMemCartStore() *memCartStore {
	return &memCartStore{carts: make(map[string]*cart.Cart)}
}

func (s *memCartStore) Load(_ context.Context, sid string) (*cart.Cart, error) {
	if c, ok := s.carts[sid]; ok {
		return c, nil
	}
	return &cart.Cart{}, nil
}

func (s *memCartStore) Save(_ context.Context, sid string, c *cart.Cart) error {
	s.carts[sid] = c
	return nil
}

func (s *memCartStore) Delete(_ context.Context, sid string) error {
	delete(s.carts, sid)
	return nil
}

type memFlowStore struct {
	flows map[string]*checkout.Flow
}

func newMemFlowStore() *memFlowStore {
	return &memFlowStore{flows: make(map[string]*checkout.Flow)}
}

func (s *memFlowStore) Load(_ context.Context, sid string) (*checkout.Flow, error) {
	if f, ok := s.flows[sid]; ok {
		return f, nil
	}
	return checkout.NewFlow(), nil
}

func (s *memFlowStore) Save(_ context.Context, sid string, f *checkout.Flow) error {
	s.flows[sid] = f
	return nil
}

func (s *memFlowStore) Delete(_ context.Context, sid string) error {
	delete(s.flows, sid)
	return nil
}

type memStateStore struct {
	states map[string]appstate.State
}

func newMemStateStore() *memStateStore {
	return &memStateStore{states: make(map[string]appstate.State)}
}

func (s *memStateStore) Load(_ context.Context, sid string) (appstate.State, error) {
	return s.states[sid], nil
}

func (s *memStateStore) Dispatch(_ context.Context, sid string, a appstate.Action) (appstate.State, error) {
	st := appstate.Reduce(s.states[sid], a)
	s.states[sid] = st
	return st, nil
}

func (s *memStateStore) Delete(_ context.Context, sid string) error {
	delete(s.states, sid)
	return nil
}

type memWishlistStore struct {
	lists map[string]map[string]struct{}
}

func newMemWishlistStore() *memWishlistStore {
	return &memWishlistStore{lists: make(map[string]map[string]struct{})}
}

func (s *memWishlistStore) Add(_ context.Context, sid, productID string) error {
	if s.lists[sid] == nil {
		s.lists[sid] = make(map[string]struct{})
	}
	s.lists[sid][productID] = struct{}{}
	return nil
}

func (s *memWishlistStore) Remove(_ context.Context, sid, productID string) error {
	delete(s.lists[sid], productID)
	return nil
}

func (s *memWishlistStore) List(_ context.Context, sid string) ([]string, error) {
	var ids []string
	for id := range s.lists[sid] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *memWishlistStore) Count(_ context.Context, sid string) (int, error) {
	return len(s.lists[sid]), nil
}

func (s *memWishlistStore) Delete(_ context.Context, sid string) error {
	delete(s.lists, sid)
	return nil
}

type mockSubmitter struct {
	lastReq order.SubmitRequest
	result  *order.Order
	err     error
}

func (m *mockSubmitter) Submit(_ context.Context, req order.SubmitRequest) (*order.Order, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &order.Order{ID: "order-1", Status: order.StatusPending}, nil
}

// --- Helpers ---

type env struct {
	handler   *Handler
	router    http.Handler
	carts     *memCartStore
	flows     *memFlowStore
	states    *memStateStore
	wishlists *memWishlistStore
	submitter *mockSubmitter
	sessions  *session.MemoryProvider
}

func newTestEnv(t *testing.T, products ...catalog.Product) *env {
	t.Helper()

	e := &env{
		carts:     newMemCartStore(),
		flows:     newMemFlowStore(),
		states:    newMemStateStore(),
		wishlists: newMemWishlistStore(),
		submitter: &mockSubmitter{},
		sessions:  session.NewMemoryProvider(),
	}

	h, err := NewHandler(Config{}, Deps{
		Products:  &mockProductRepo{products: products},
		Carts:     e.carts,
		Flows:     e.flows,
		States:    e.states,
		Wishlists: e.wishlists,
		Orders:    e.submitter,
		Sessions:  e.sessions,
		Pricer:    cart.NewPricer(cart.DefaultTaxRate),
		Logger:    zap.NewNop(),
		Meter:     noop.NewMeterProvider().Meter("test"),
		Tracer:    tracenoop.NewTracerProvider().Tracer("test"),
	})
	require.NoError(t, err)

	e.handler = h
	e.router = h.Routes()
	return e
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Session-ID", "sess-1")

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func testProduct(id, name, price string) catalog.Product {
	return catalog.Product{
		ID:         id,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		CategoryID: "1",
		Rating:     4.0,
		Available:  true,
	}
}

type cartResponse struct {
	Items []struct {
		ID       string `json:"id"`
		Quantity int    `json:"quantity"`
		Product  struct {
			ID string `json:"id"`
		} `json:"product"`
		Price      json.Number `json:"price"`
		TotalPrice json.Number `json:"total_price"`
	} `json:"items"`
	Summary struct {
		Subtotal  json.Number `json:"subtotal"`
		Tax       json.Number `json:"tax"`
		Total     json.Number `json:"total"`
		ItemCount int         `json:"item_count"`
	} `json:"summary"`
}

// --- Tests ---

func TestListProducts_Filters(t *testing.T) {
	e := newTestEnv(t,
		testProduct("p1", "Alpha Widget", "10.00"),
		testProduct("p2", "Beta Widget", "20.00"),
		testProduct("p3", "Gamma Gadget", "30.00"),
	)

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"no filter sorts by name", "", []string{"p1", "p2", "p3"}},
		{"price range", "?min_price=15&max_price=25", []string{"p2"}},
		{"search", "?search=widget", []string{"p1", "p2"}},
		{"price desc", "?sort=price-desc", []string{"p3", "p2", "p1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodGet, "/api/products"+tt.query, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp struct {
				Products []struct {
					ID string `json:"id"`
				} `json:"products"`
				Count int `json:"count"`
			}
			decodeBody(t, rec, &resp)

			ids := make([]string, len(resp.Products))
			for i, p := range resp.Products {
				ids[i] = p.ID
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, len(tt.wantIDs), resp.Count)
		})
	}
}

func TestListProducts_BadQuery(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/api/products?min_price=10", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/products?min_price=x&max_price=20", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProduct(t *testing.T) {
	e := newTestEnv(t, testProduct("p1", "Widget", "10.00"))

	rec := e.do(t, http.MethodGet, "/api/products/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ID    string      `json:"id"`
		Name  string      `json:"name"`
		Price json.Number `json:"price"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "p1", resp.ID)
	assert.Equal(t, "Widget", resp.Name)
	assert.Equal(t, "10", resp.Price.String())

	rec = e.do(t, http.MethodGet, "/api/products/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_MissingSession(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCart_AddAndSummarize(t *testing.T) {
	e := newTestEnv(t,
		testProduct("p1", "Widget", "99.99"),
		testProduct("p2", "Gadget", "24.99"),
	)

	rec := e.do(t, http.MethodPost, "/api/cart/items", map[string]any{
		"product_id": "p1", "quantity": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/cart/items", map[string]any{
		"product_id": "p2", "quantity": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp cartResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "149.97", resp.Summary.Subtotal.String())
	assert.Equal(t, "14.997", resp.Summary.Tax.String())
	assert.Equal(t, "164.967", resp.Summary.Total.String())
	assert.Equal(t, 3, resp.Summary.ItemCount)

	// Cart count badge follows the mutation.
	assert.Equal(t, 3, e.states.states["sess-1"].CartCount)
}

func TestCart_AddUnknownProduct(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/cart/items", map[string]any{
		"product_id": "missing",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_UpdateQuantity(t *testing.T) {
	e := newTestEnv(t, testProduct("p1", "Widget", "10.00"))

	rec := e.do(t, http.MethodPost, "/api/cart/items", map[string]any{"product_id": "p1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp cartResponse
	decodeBody(t, rec, &resp)
	itemID := resp.Items[0].ID

	rec = e.do(t, http.MethodPatch, "/api/cart/items/"+itemID, map[string]any{"quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, 5, resp.Items[0].Quantity)
	assert.Equal(t, "50", resp.Items[0].TotalPrice.String())

	// Quantity below 1 and unknown IDs are silent no-ops.
	rec = e.do(t, http.MethodPatch, "/api/cart/items/"+itemID, map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, 5, resp.Items[0].Quantity)

	rec = e.do(t, http.MethodPatch, "/api/cart/items/unknown", map[string]any{"quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, 5, resp.Items[0].Quantity)
}

func TestCart_RemoveAndClear(t *testing.T) {
	e := newTestEnv(t, testProduct("p1", "Widget", "10.00"))

	rec := e.do(t, http.MethodPost, "/api/cart/items", map[string]any{"product_id": "p1"})
	var resp cartResponse
	decodeBody(t, rec, &resp)
	itemID := resp.Items[0].ID

	// Removing an unknown item leaves the cart unchanged.
	rec = e.do(t, http.MethodDelete, "/api/cart/items/unknown", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Len(t, resp.Items, 1)

	rec = e.do(t, http.MethodDelete, "/api/cart/items/"+itemID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Empty(t, resp.Items)
	assert.Equal(t, 0, e.states.states["sess-1"].CartCount)
}

func TestCheckout_FullFlow(t *testing.T) {
	e := newTestEnv(t, testProduct("p1", "Widget", "50.00"))

	rec := e.do(t, http.MethodPost, "/api/cart/items", map[string]any{"product_id": "p1", "quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)

	shipping := map[string]any{
		"full_name": "Ada Lovelace",
		"email":     "ada@example.com",
		"address":   "1 Analytical Way",
		"city":      "London",
		"country":   "UK",
	}

	rec = e.do(t, http.MethodPut, "/api/checkout/shipping", shipping)
	require.Equal(t, http.StatusOK, rec.Code)

	var flow struct {
		Step      string `json:"step"`
		Completed bool   `json:"completed"`
	}
	decodeBody(t, rec, &flow)
	assert.Equal(t, "payment", flow.Step)

	rec = e.do(t, http.MethodPut, "/api/checkout/payment", map[string]any{"payment_method": "card"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &flow)
	assert.Equal(t, "review", flow.Step)

	rec = e.do(t, http.MethodPost, "/api/checkout/confirm", map[string]any{"promo_code": "SAVE10"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Submission carried the flow's data and the session cart.
	assert.Equal(t, "sess-1", e.submitter.lastReq.SessionID)
	assert.Equal(t, "Ada Lovelace", e.submitter.lastReq.Shipping.FullName)
	assert.Equal(t, checkout.PaymentCard, e.submitter.lastReq.Payment)
	assert.Equal(t, "SAVE10", e.submitter.lastReq.PromoCode)
	require.NotNil(t, e.submitter.lastReq.Cart)
	assert.Equal(t, 3, e.submitter.lastReq.Cart.Count())

	// Cart and flow are dropped; the badge resets.
	assert.Empty(t, e.carts.carts)
	assert.Empty(t, e.flows.flows)
	assert.Equal(t, 0, e.states.states["sess-1"].CartCount)
}

func TestCheckout_Validation(t *testing.T) {
	e := newTestEnv(t)

	// Payment before shipping is rejected.
	rec := e.do(t, http.MethodPut, "/api/checkout/payment", map[string]any{"payment_method": "card"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Incomplete shipping form is rejected.
	rec = e.do(t, http.MethodPut, "/api/checkout/shipping", map[string]any{"full_name": "Ada"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Confirm before review is rejected.
	rec = e.do(t, http.MethodPost, "/api/checkout/confirm", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown payment method is rejected.
	rec = e.do(t, http.MethodPut, "/api/checkout/shipping", map[string]any{
		"full_name": "Ada Lovelace",
		"email":     "ada@example.com",
		"address":   "1 Analytical Way",
		"city":      "London",
		"country":   "UK",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodPut, "/api/checkout/payment", map[string]any{"payment_method": "crypto"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCheckout_BackPreservesValues(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPut, "/api/checkout/shipping", map[string]any{
		"full_name": "Ada Lovelace",
		"email":     "ada@example.com",
		"address":   "1 Analytical Way",
		"city":      "London",
		"country":   "UK",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/checkout/back", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var flow struct {
		Step     string `json:"step"`
		Shipping struct {
			FullName string `json:"full_name"`
		} `json:"shipping"`
	}
	decodeBody(t, rec, &flow)
	assert.Equal(t, "shipping", flow.Step)
	assert.Equal(t, "Ada Lovelace", flow.Shipping.FullName)
}

func TestCheckout_EmptyCartConflict(t *testing.T) {
	e := newTestEnv(t)
	e.submitter.err = order.ErrEmptyCart

	rec := e.do(t, http.MethodPut, "/api/checkout/shipping", map[string]any{
		"full_name": "Ada Lovelace",
		"email":     "ada@example.com",
		"address":   "1 Analytical Way",
		"city":      "London",
		"country":   "UK",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodPut, "/api/checkout/payment", map[string]any{"payment_method": "cash"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/checkout/confirm", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// A failed submission does not burn the flow: confirm stays available.
	rec = e.do(t, http.MethodGet, "/api/checkout", nil)
	var flow struct {
		Step      string `json:"step"`
		Completed bool   `json:"completed"`
	}
	decodeBody(t, rec, &flow)
	assert.Equal(t, "review", flow.Step)
	assert.False(t, flow.Completed)

	// Once the underlying failure clears, the same flow confirms.
	e.submitter.err = nil
	rec = e.do(t, http.MethodPost, "/api/checkout/confirm", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestWishlist(t *testing.T) {
	e := newTestEnv(t, testProduct("p1", "Widget", "10.00"))

	rec := e.do(t, http.MethodPut, "/api/wishlist/p1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, e.states.states["sess-1"].WishlistCount)

	// Adding twice stays a single entry.
	rec = e.do(t, http.MethodPut, "/api/wishlist/p1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/wishlist", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Products []struct {
			ID string `json:"id"`
		} `json:"products"`
		Count int `json:"count"`
	}
	decodeBody(t, rec, &resp)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "p1", resp.Products[0].ID)

	rec = e.do(t, http.MethodPut, "/api/wishlist/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodDelete, "/api/wishlist/p1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, e.states.states["sess-1"].WishlistCount)
}

func TestSession_LoginAndLogout(t *testing.T) {
	e := newTestEnv(t, testProduct("p1", "Widget", "10.00"))

	rec := e.do(t, http.MethodPost, "/api/session", map[string]any{
		"access_token":  "acc",
		"refresh_token": "ref",
		"user": map[string]any{
			"id":         "u1",
			"email":      "ada@example.com",
			"first_name": "Ada",
			"last_name":  "Lovelace",
			"is_admin":   true,
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var st struct {
		User *struct {
			ID    string `json:"id"`
			Admin bool   `json:"is_admin"`
		} `json:"user"`
		Authenticated bool `json:"authenticated"`
	}
	decodeBody(t, rec, &st)
	require.NotNil(t, st.User)
	assert.Equal(t, "u1", st.User.ID)
	assert.True(t, st.User.Admin)
	assert.True(t, st.Authenticated)

	// Cart contents survive login.
	rec = e.do(t, http.MethodPost, "/api/cart/items", map[string]any{"product_id": "p1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodDelete, "/api/session", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Logout drops everything the session owned.
	rec = e.do(t, http.MethodGet, "/api/session/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var after struct {
		User          *struct{} `json:"user"`
		CartCount     int       `json:"cart_count"`
		Authenticated bool      `json:"authenticated"`
	}
	decodeBody(t, rec, &after)
	assert.Nil(t, after.User)
	assert.Equal(t, 0, after.CartCount)
	assert.False(t, after.Authenticated)

	rec = e.do(t, http.MethodGet, "/api/cart", nil)
	var cartResp cartResponse
	decodeBody(t, rec, &cartResp)
	assert.Empty(t, cartResp.Items)
}

func TestSession_LoginWithoutToken(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/session", map[string]any{"user": map[string]any{"id": "u1"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSession_ExpiredTokensDowngradeState(t *testing.T) {
	e := newTestEnv(t, testProduct("p1", "Widget", "10.00"))

	rec := e.do(t, http.MethodPost, "/api/session", map[string]any{
		"access_token": "tok",
		"user":         map[string]any{"id": "u1", "email": "u1@example.com"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPut, "/api/wishlist/p1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Drop the tokens behind the state's back, as a TTL expiry would.
	require.NoError(t, e.sessions.Clear(context.Background(), "sess-1"))

	rec = e.do(t, http.MethodGet, "/api/session/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var st struct {
		User          *struct{} `json:"user"`
		WishlistCount int       `json:"wishlist_count"`
		Authenticated bool      `json:"authenticated"`
	}
	decodeBody(t, rec, &st)
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.User)
	assert.Equal(t, 1, st.WishlistCount, "badges survive token expiry")
}
