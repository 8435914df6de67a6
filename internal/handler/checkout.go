package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/smartstore/internal/appstate"
	"github.com/xenking/smartstore/internal/domain/checkout"
	"github.com/xenking/smartstore/internal/domain/order"
	"github.com/xenking/smartstore/internal/domain/promo"
)

// GetCheckout serves GET /api/checkout.
func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(ctx)

	f, err := h.flows.Load(ctx, sid)
	if err != nil {
		h.lg.Error("load checkout flow", zap.String("session_id", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load checkout")
		return
	}

	writeFlow(w, f)
}

// SubmitShipping serves PUT /api/checkout/shipping.
func (h *Handler) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}

	addr, err := decodeShippingRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.advanceFlow(w, r, func(f *checkout.Flow) error {
		return f.SubmitShipping(addr)
	})
}

// SelectPayment serves PUT /api/checkout/payment with body
// {"payment_method": "card"}.
func (h *Handler) SelectPayment(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}

	method, err := decodePaymentRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.advanceFlow(w, r, func(f *checkout.Flow) error {
		return f.SelectPayment(method)
	})
}

// CheckoutBack serves POST /api/checkout/back. Backing up never loses
// entered values and never fails.
func (h *Handler) CheckoutBack(w http.ResponseWriter, r *http.Request) {
	h.advanceFlow(w, r, func(f *checkout.Flow) error {
		f.Back()
		return nil
	})
}

// ConfirmCheckout serves POST /api/checkout/confirm with optional body
// {"promo_code": "..."}. On success the order is persisted, the cart and
// flow are dropped, and the cart badge resets.
func (h *Handler) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(ctx)

	ctx, span := h.tracer.Start(ctx, "checkout.confirm")
	defer span.End()

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}
	promoCode, err := decodeConfirmRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, err := h.flows.Load(ctx, sid)
	if err != nil {
		h.lg.Error("load checkout flow", zap.String("session_id", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load checkout")
		return
	}

	c, err := h.carts.Load(ctx, sid)
	if err != nil {
		h.lg.Error("load cart", zap.String("session_id", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load cart")
		return
	}

	if err := f.Confirm(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	o, err := h.orders.Submit(ctx, order.SubmitRequest{
		SessionID: sid,
		Cart:      c,
		Shipping:  f.Shipping,
		Payment:   f.Payment,
		PromoCode: promoCode,
	})
	if err != nil {
		// Confirmation is durable only once the order exists. Undo it
		// explicitly rather than relying on the store handing out copies, so
		// the buyer can retry from review.
		f.Completed = false
		h.writeSubmitError(w, sid, err)
		return
	}

	// The flow stays confirmed only once the order exists; it is dropped
	// along with the cart so the next checkout starts fresh.
	if err := h.carts.Delete(ctx, sid); err != nil {
		h.lg.Warn("drop cart after order", zap.String("session_id", sid), zap.Error(err))
	}
	if err := h.flows.Delete(ctx, sid); err != nil {
		h.lg.Warn("drop checkout flow after order", zap.String("session_id", sid), zap.Error(err))
	}
	if _, err := h.states.Dispatch(ctx, sid, appstate.SetCartCount{Count: 0}); err != nil {
		h.lg.Warn("reset cart count", zap.String("session_id", sid), zap.Error(err))
	}

	h.ordersPlaced.Add(ctx, 1)
	span.SetAttributes(attribute.String("order.id", o.ID))
	span.AddEvent("order placed", trace.WithAttributes(
		attribute.String("order.total", o.Total.String()),
	))

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

// writeSubmitError maps order submission failures onto API status codes.
func (h *Handler) writeSubmitError(w http.ResponseWriter, sid string, err error) {
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusConflict, "cart is empty")
	case errors.Is(err, promo.ErrNotFound):
		writeError(w, http.StatusUnprocessableEntity, "unknown promo code")
	case errors.Is(err, promo.ErrExpired):
		writeError(w, http.StatusUnprocessableEntity, "promo code expired")
	case errors.Is(err, promo.ErrMinSubtotal):
		writeError(w, http.StatusUnprocessableEntity, "order subtotal below promo minimum")
	default:
		h.lg.Error("submit order", zap.String("session_id", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "submit order")
	}
}

// advanceFlow loads the session flow, applies the step, persists the result,
// and writes the updated flow. Step violations map to 409, incomplete or
// invalid form data to 422.
func (h *Handler) advanceFlow(w http.ResponseWriter, r *http.Request, step func(f *checkout.Flow) error) {
	ctx := r.Context()
	sid := sessionID(ctx)

	f, err := h.flows.Load(ctx, sid)
	if err != nil {
		h.lg.Error("load checkout flow", zap.String("session_id", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load checkout")
		return
	}

	if err := step(f); err != nil {
		switch {
		case errors.Is(err, checkout.ErrShippingIncomplete),
			errors.Is(err, checkout.ErrUnknownPayment):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusConflict, err.Error())
		}
		return
	}

	if err := h.flows.Save(ctx, sid, f); err != nil {
		h.lg.Error("save checkout flow", zap.String("session_id", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "save checkout")
		return
	}

	writeFlow(w, f)
}

func writeFlow(w http.ResponseWriter, f *checkout.Flow) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("step")
		e.Str(string(f.Step()))
		e.FieldStart("shipping")
		encodeShipping(e, f.Shipping)
		e.FieldStart("payment_method")
		e.Str(string(f.Payment))
		e.FieldStart("completed")
		e.Bool(f.Completed)
		e.ObjEnd()
	})
}

func encodeShipping(e *jx.Encoder, a checkout.ShippingAddress) {
	e.ObjStart()
	e.FieldStart("full_name")
	e.Str(a.FullName)
	e.FieldStart("email")
	e.Str(a.Email)
	e.FieldStart("phone")
	e.Str(a.Phone)
	e.FieldStart("address")
	e.Str(a.Address)
	e.FieldStart("city")
	e.Str(a.City)
	e.FieldStart("postal_code")
	e.Str(a.PostalCode)
	e.FieldStart("country")
	e.Str(a.Country)
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("items")
	e.ArrStart()
	for _, item := range o.Items {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Str(item.ProductID)
		e.FieldStart("name")
		e.Str(item.Name)
		e.FieldStart("quantity")
		e.Int(item.Quantity)
		e.FieldStart("price")
		encodeDecimal(e, item.UnitPrice)
		e.FieldStart("total_price")
		encodeDecimal(e, item.TotalPrice)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("subtotal")
	encodeDecimal(e, o.Subtotal)
	e.FieldStart("discount")
	encodeDecimal(e, o.Discount)
	e.FieldStart("tax")
	encodeDecimal(e, o.Tax)
	e.FieldStart("total")
	encodeDecimal(e, o.Total)
	if o.PromoCode != "" {
		e.FieldStart("promo_code")
		e.Str(o.PromoCode)
	}
	e.FieldStart("payment_method")
	e.Str(string(o.PaymentMethod))
	e.FieldStart("shipping")
	encodeShipping(e, o.Shipping)
	e.ObjEnd()
}

func decodeShippingRequest(data []byte) (checkout.ShippingAddress, error) {
	var addr checkout.ShippingAddress
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		target := map[string]*string{
			"full_name":   &addr.FullName,
			"email":       &addr.Email,
			"phone":       &addr.Phone,
			"address":     &addr.Address,
			"city":        &addr.City,
			"postal_code": &addr.PostalCode,
			"country":     &addr.Country,
		}[key]
		if target == nil {
			return d.Skip()
		}
		v, err := d.Str()
		if err != nil {
			return err
		}
		*target = v
		return nil
	})
	return addr, err
}

func decodePaymentRequest(data []byte) (checkout.PaymentMethod, error) {
	var method checkout.PaymentMethod
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "payment_method" {
			return d.Skip()
		}
		v, err := d.Str()
		if err != nil {
			return err
		}
		method = checkout.PaymentMethod(v)
		return nil
	})
	return method, err
}

func decodeConfirmRequest(data []byte) (promoCode string, err error) {
	if len(data) == 0 {
		return "", nil
	}
	d := jx.DecodeBytes(data)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		if key != "promo_code" {
			return d.Skip()
		}
		v, err := d.Str()
		if err != nil {
			return err
		}
		promoCode = v
		return nil
	})
	return promoCode, err
}
