package domain

import (
	"errors"
	"fmt"
	"strings"
)

type Money struct {
	Amount   int64
	Currency string
}

func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, errors.New("amount cannot be negative")
	}
	if currency == "" {
		return Money{}, errors.New("currency is required")
	}
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}, nil
}

// decimalDigits maps ISO currencies that do not use two minor-unit digits.
// Arithmetic always stays in minor units; this table exists for display only.
var decimalDigits = map[string]int{
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "OMR": 3, "TND": 3,
	"JPY": 0, "KRW": 0, "VND": 0, "CLP": 0, "ISK": 0, "UGX": 0,
}

// DecimalDigits returns the display precision for the money's currency.
func (m Money) DecimalDigits() int {
	if d, ok := decimalDigits[m.Currency]; ok {
		return d
	}
	return 2
}

// Format renders the amount for display, e.g. 1050 USD -> "10.50 USD",
// 1050 JPY -> "1050 JPY". Never used for arithmetic.
func (m Money) Format() string {
	digits := m.DecimalDigits()
	if digits == 0 {
		return fmt.Sprintf("%d %s", m.Amount, m.Currency)
	}
	divisor := int64(1)
	for i := 0; i < digits; i++ {
		divisor *= 10
	}
	return fmt.Sprintf("%d.%0*d %s", m.Amount/divisor, digits, m.Amount%divisor, m.Currency)
}

// Order is the merchant's active order for the checkout attempt. Amount and
// currency are mandatory preconditions for every payment method.
type Order struct {
	ID         string
	CustomerID string
	Amount     Money
}
