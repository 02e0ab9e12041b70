package domain_test

import (
	"testing"

	"github.com/primer-io/checkout-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.PaymentStatus
	}{
		{"PENDING", domain.StatusPending},
		{"SUCCESS", domain.StatusSuccess},
		{"SETTLED", domain.StatusSettled},
		{"DECLINED", domain.StatusDeclined},
		{"FAILED", domain.StatusFailed},
		{"SOMETHING_NEW", domain.StatusUnknown},
		{"", domain.StatusUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.ParseStatus(tt.raw), "raw=%q", tt.raw)
	}
}

func TestNewPaymentFromStatus(t *testing.T) {
	money, err := domain.NewMoney(5000, "USD")
	require.NoError(t, err)

	t.Run("pending without action is rejected", func(t *testing.T) {
		_, err := domain.NewPaymentFromStatus("pay-1", "order-1", money, domain.StatusPending, nil)
		assert.ErrorIs(t, err, domain.ErrPendingWithoutAction)
	})

	t.Run("pending with action requires resolution", func(t *testing.T) {
		action := &domain.RequiredAction{Name: domain.ActionWebRedirect, ClientToken: "a.b.c"}
		payment, err := domain.NewPaymentFromStatus("pay-1", "order-1", money, domain.StatusPending, action)
		require.NoError(t, err)
		assert.True(t, payment.RequiresAction())
		assert.False(t, payment.Status.IsTerminal())
	})

	t.Run("successful payment drops a stray action", func(t *testing.T) {
		action := &domain.RequiredAction{Name: domain.ActionWebRedirect}
		payment, err := domain.NewPaymentFromStatus("pay-1", "order-1", money, domain.StatusSuccess, action)
		require.NoError(t, err)
		assert.Nil(t, payment.RequiredAction)
		assert.False(t, payment.RequiresAction())
		assert.True(t, payment.IsSuccessful())
	})

	t.Run("declined payment is terminal and distinguishable", func(t *testing.T) {
		payment, err := domain.NewPaymentFromStatus("pay-1", "order-1", money, domain.StatusDeclined, nil)
		require.NoError(t, err)
		assert.True(t, payment.Declined())
		assert.True(t, payment.Status.IsTerminal())
		assert.False(t, payment.IsSuccessful())
	})
}

func TestMoneyFormat(t *testing.T) {
	tests := []struct {
		amount   int64
		currency string
		want     string
	}{
		{1050, "USD", "10.50 USD"},
		{1050, "JPY", "1050 JPY"},
		{1050, "BHD", "1.050 BHD"},
		{5, "EUR", "0.05 EUR"},
	}

	for _, tt := range tests {
		money, err := domain.NewMoney(tt.amount, tt.currency)
		require.NoError(t, err)
		assert.Equal(t, tt.want, money.Format())
	}
}

func TestNewMoney(t *testing.T) {
	_, err := domain.NewMoney(-1, "USD")
	assert.Error(t, err)

	_, err = domain.NewMoney(100, "")
	assert.Error(t, err)

	money, err := domain.NewMoney(100, "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", money.Currency)
}

func TestCheckoutErrorKinds(t *testing.T) {
	t.Run("merchant abort without message uses the default", func(t *testing.T) {
		err := domain.NewMerchantError("")
		assert.Equal(t, domain.DefaultMerchantAbort, err.Message)
		assert.True(t, domain.IsErrorKind(err, domain.ErrKindMerchant))
	})

	t.Run("declined error carries the fixed message and ids", func(t *testing.T) {
		err := domain.NewDeclinedError("pay-9", "order-9")
		assert.Equal(t, domain.DeclinedMessage, err.Message)
		assert.Equal(t, "pay-9", err.PaymentID)
		assert.Equal(t, "order-9", err.OrderID)
	})

	t.Run("unrecognized errors coerce to unknown", func(t *testing.T) {
		err := domain.EnsureCheckoutError(assert.AnError)
		assert.Equal(t, domain.ErrKindUnknown, err.Kind)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("checkout errors pass through unchanged", func(t *testing.T) {
		original := domain.NewDeclinedError("pay-1", "order-1")
		assert.Same(t, original, domain.EnsureCheckoutError(original))
	})
}
