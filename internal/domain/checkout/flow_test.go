package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress() ShippingAddress {
	return ShippingAddress{
		FullName:   "Ada Lovelace",
		Email:      "ada@example.com",
		Address:    "12 Analytical Engine Way",
		City:       "London",
		PostalCode: "EC1A 1BB",
		Country:    "GB",
	}
}

func TestFlow_HappyPath(t *testing.T) {
	f := NewFlow()
	assert.Equal(t, StepShipping, f.Step())

	require.NoError(t, f.SubmitShipping(testAddress()))
	assert.Equal(t, StepPayment, f.Step())

	require.NoError(t, f.SelectPayment(PaymentCard))
	assert.Equal(t, StepReview, f.Step())

	require.NoError(t, f.Confirm())
	assert.True(t, f.Completed)
}

func TestFlow_ShippingValidation(t *testing.T) {
	f := NewFlow()

	addr := testAddress()
	addr.Email = ""
	err := f.SubmitShipping(addr)

	require.ErrorIs(t, err, ErrShippingIncomplete)
	assert.Equal(t, StepShipping, f.Step())
}

func TestFlow_PaymentRequiresShipping(t *testing.T) {
	f := NewFlow()

	err := f.SelectPayment(PaymentCard)

	require.ErrorIs(t, err, ErrShippingIncomplete)
	assert.Equal(t, StepShipping, f.Step())
}

func TestFlow_UnknownPaymentMethod(t *testing.T) {
	f := NewFlow()
	require.NoError(t, f.SubmitShipping(testAddress()))

	err := f.SelectPayment("bitcoin")

	require.ErrorIs(t, err, ErrUnknownPayment)
	assert.Equal(t, StepPayment, f.Step())
}

func TestFlow_BackPreservesValues(t *testing.T) {
	f := NewFlow()
	addr := testAddress()
	require.NoError(t, f.SubmitShipping(addr))
	require.NoError(t, f.SelectPayment(PaymentPaypal))
	require.Equal(t, StepReview, f.Step())

	f.Back()
	assert.Equal(t, StepPayment, f.Step())
	f.Back()
	assert.Equal(t, StepShipping, f.Step())
	f.Back() // already at the first step
	assert.Equal(t, StepShipping, f.Step())

	// No data loss on the way back.
	assert.Equal(t, addr, f.Shipping)
	assert.Equal(t, PaymentPaypal, f.Payment)
}

func TestFlow_ResubmitShippingFromReview(t *testing.T) {
	f := NewFlow()
	require.NoError(t, f.SubmitShipping(testAddress()))
	require.NoError(t, f.SelectPayment(PaymentCash))

	updated := testAddress()
	updated.City = "Cambridge"
	require.NoError(t, f.SubmitShipping(updated))

	// Editing an earlier form does not move the buyer backward.
	assert.Equal(t, StepReview, f.Step())
	assert.Equal(t, "Cambridge", f.Shipping.City)
}

func TestFlow_ConfirmOnlyAtReview(t *testing.T) {
	f := NewFlow()
	require.ErrorIs(t, f.Confirm(), ErrNotAtReview)

	require.NoError(t, f.SubmitShipping(testAddress()))
	require.ErrorIs(t, f.Confirm(), ErrNotAtReview)
}

func TestFlow_ConfirmIsTerminal(t *testing.T) {
	f := NewFlow()
	require.NoError(t, f.SubmitShipping(testAddress()))
	require.NoError(t, f.SelectPayment(PaymentBank))
	require.NoError(t, f.Confirm())

	assert.ErrorIs(t, f.Confirm(), ErrCompleted)
	assert.ErrorIs(t, f.SubmitShipping(testAddress()), ErrCompleted)
	assert.ErrorIs(t, f.SelectPayment(PaymentCard), ErrCompleted)

	f.Back()
	assert.Equal(t, StepReview, f.Step())
}
