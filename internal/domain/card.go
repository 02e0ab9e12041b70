package domain

import (
	"errors"
	"time"
)

// FieldValidation is the outcome of validating one card input field. A field
// can be invalid without an error while the user is still typing; Err is set
// only once the input can no longer become valid.
type FieldValidation struct {
	Valid bool
	Err   error
}

var (
	ErrCVVInvalid        = errors.New("CVV must contain only digits of the expected length")
	ErrCardNumberInvalid = errors.New("card number must be 12 to 19 digits")
	ErrExpiryInPast      = errors.New("card expiry date is in the past")
	ErrCardholderMissing = errors.New("cardholder name is required")
)

// ValidateCVV checks a CVV being typed against the expected length for the
// card network. Empty and shorter all-numeric input is invalid but carries
// no error yet; overlong or non-numeric input can never become valid.
func ValidateCVV(raw string, expectedLength int) FieldValidation {
	if raw == "" {
		return FieldValidation{}
	}
	if !allDigits(raw) || len(raw) > expectedLength {
		return FieldValidation{Err: ErrCVVInvalid}
	}
	if len(raw) < expectedLength {
		return FieldValidation{}
	}
	return FieldValidation{Valid: true}
}

// ValidateCardNumber checks digit-only input of plausible PAN length. Scheme
// lookup and checksum stay server-side; this only gates obvious garbage.
func ValidateCardNumber(raw string) FieldValidation {
	if raw == "" {
		return FieldValidation{}
	}
	if !allDigits(raw) || len(raw) > 19 {
		return FieldValidation{Err: ErrCardNumberInvalid}
	}
	if len(raw) < 12 {
		return FieldValidation{}
	}
	return FieldValidation{Valid: true}
}

// ValidateExpiry checks that month/year lie in the future, using the last
// instant of the expiry month.
func ValidateExpiry(month, year int, now time.Time) FieldValidation {
	if month < 1 || month > 12 {
		return FieldValidation{Err: ErrExpiryInPast}
	}
	endOfMonth := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	if !endOfMonth.After(now) {
		return FieldValidation{Err: ErrExpiryInPast}
	}
	return FieldValidation{Valid: true}
}

func ValidateCardholder(name string) FieldValidation {
	if name == "" {
		return FieldValidation{Err: ErrCardholderMissing}
	}
	return FieldValidation{Valid: true}
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
