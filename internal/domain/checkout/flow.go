// Package checkout models the three step checkout flow:
// Shipping -> Payment -> Review. The flow is strictly linear going forward;
// moving backward never discards values the buyer already entered.
package checkout

import "github.com/go-faster/errors"

// Step identifies the buyer's position in the checkout flow.
type Step string

const (
	StepShipping Step = "shipping"
	StepPayment  Step = "payment"
	StepReview   Step = "review"
)

// PaymentMethod enumerates the accepted payment options.
type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "card"
	PaymentPaypal PaymentMethod = "paypal"
	PaymentBank   PaymentMethod = "bank"
	PaymentCash   PaymentMethod = "cash"
)

var (
	// ErrNotAtReview is returned when Confirm is called before the buyer
	// has reached the review step.
	ErrNotAtReview = errors.New("checkout not at review step")
	// ErrCompleted is returned when a completed flow is advanced again;
	// confirmation is a terminal, one-shot action.
	ErrCompleted = errors.New("checkout already completed")
	// ErrShippingIncomplete is returned when the shipping form misses
	// required fields.
	ErrShippingIncomplete = errors.New("shipping address incomplete")
	// ErrUnknownPayment is returned for payment methods outside the
	// accepted set.
	ErrUnknownPayment = errors.New("unknown payment method")
)

// ShippingAddress is the shipping form of the checkout flow.
type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (a ShippingAddress) complete() bool {
	return a.FullName != "" && a.Email != "" && a.Address != "" && a.City != "" && a.Country != ""
}

// Flow is one buyer's progress through checkout. Fields are exported so a
// flow can be persisted between requests; mutate it through the methods only.
type Flow struct {
	Current   Step            `json:"step"`
	Shipping  ShippingAddress `json:"shipping"`
	Payment   PaymentMethod   `json:"payment_method"`
	Completed bool            `json:"completed"`
}

// NewFlow returns a flow positioned at the shipping step.
func NewFlow() *Flow {
	return &Flow{Current: StepShipping}
}

// Step returns the buyer's current position.
func (f *Flow) Step() Step {
	return f.Current
}

// SubmitShipping stores the shipping form and advances to the payment step.
// Resubmitting from a later step updates the stored address without moving
// the buyer backward.
func (f *Flow) SubmitShipping(addr ShippingAddress) error {
	if f.Completed {
		return ErrCompleted
	}
	if !addr.complete() {
		return ErrShippingIncomplete
	}

	f.Shipping = addr
	if f.Current == StepShipping {
		f.Current = StepPayment
	}
	return nil
}

// SelectPayment stores the payment method and advances to the review step.
// It fails when shipping has not been submitted yet: the flow only ever
// moves forward one step at a time.
func (f *Flow) SelectPayment(method PaymentMethod) error {
	if f.Completed {
		return ErrCompleted
	}
	switch method {
	case PaymentCard, PaymentPaypal, PaymentBank, PaymentCash:
	default:
		return ErrUnknownPayment
	}
	if f.Current == StepShipping {
		return ErrShippingIncomplete
	}

	f.Payment = method
	if f.Current == StepPayment {
		f.Current = StepReview
	}
	return nil
}

// Back moves one step toward shipping. Entered form values are preserved, so
// returning to a step re-presents what the buyer already typed. Backing up
// from the shipping step is a no-op.
func (f *Flow) Back() {
	if f.Completed {
		return
	}
	switch f.Current {
	case StepReview:
		f.Current = StepPayment
	case StepPayment:
		f.Current = StepShipping
	}
}

// Confirm marks the flow completed. It is only legal at the review step and
// only once; the actual order submission that follows is the caller's
// concern.
func (f *Flow) Confirm() error {
	if f.Completed {
		return ErrCompleted
	}
	if f.Current != StepReview {
		return ErrNotAtReview
	}
	f.Completed = true
	return nil
}
