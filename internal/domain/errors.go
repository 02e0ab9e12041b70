package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a checkout failure for the merchant surface.
type ErrorKind string

const (
	ErrKindValidation    ErrorKind = "VALIDATION"
	ErrKindMerchant      ErrorKind = "MERCHANT"
	ErrKindNetwork       ErrorKind = "NETWORK"
	ErrKindDeclined      ErrorKind = "DECLINED"
	ErrKindPaymentFailed ErrorKind = "PAYMENT_FAILED"
	ErrKindCancelled     ErrorKind = "CANCELLED"
	ErrKindTimeout       ErrorKind = "TIMEOUT"
	ErrKindUnknown       ErrorKind = "UNKNOWN"
)

// Fixed user-facing messages. Declined payments must stay distinguishable
// from generic failures so the host can render different next steps.
const (
	DeclinedMessage       = "payment was declined"
	DefaultMerchantAbort  = "payment was cancelled by the merchant"
	DefaultFailureMessage = "payment failed"
)

// CheckoutError is the single error type surfaced by the orchestration core.
// Kind drives merchant handling; PaymentID/OrderID carry the partially built
// checkout data when the failure happened after payment creation.
type CheckoutError struct {
	Kind          ErrorKind
	Message       string
	PaymentID     string
	OrderID       string
	PaymentMethod PaymentMethodType
	Err           error
}

func (e *CheckoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}

func NewValidationError(format string, args ...any) *CheckoutError {
	return &CheckoutError{Kind: ErrKindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewMerchantError wraps an abort decision from the before-create hook. An
// empty message falls back to the fixed default string.
func NewMerchantError(message string) *CheckoutError {
	if message == "" {
		message = DefaultMerchantAbort
	}
	return &CheckoutError{Kind: ErrKindMerchant, Message: message}
}

func NewNetworkError(err error) *CheckoutError {
	return &CheckoutError{Kind: ErrKindNetwork, Message: "request to the payment backend failed", Err: err}
}

func NewDeclinedError(paymentID, orderID string) *CheckoutError {
	return &CheckoutError{
		Kind:      ErrKindDeclined,
		Message:   DeclinedMessage,
		PaymentID: paymentID,
		OrderID:   orderID,
	}
}

func NewPaymentFailedError(paymentID, orderID, reason string) *CheckoutError {
	if reason == "" {
		reason = DefaultFailureMessage
	}
	return &CheckoutError{
		Kind:      ErrKindPaymentFailed,
		Message:   reason,
		PaymentID: paymentID,
		OrderID:   orderID,
	}
}

// NewCancelledError reports an out-of-band cancellation, tagged with the
// payment method type that was active when the signal arrived.
func NewCancelledError(method PaymentMethodType) *CheckoutError {
	return &CheckoutError{
		Kind:          ErrKindCancelled,
		Message:       "checkout was cancelled",
		PaymentMethod: method,
	}
}

func NewTimeoutError(operation string) *CheckoutError {
	return &CheckoutError{Kind: ErrKindTimeout, Message: fmt.Sprintf("timed out waiting for %s", operation)}
}

func NewUnknownError(err error) *CheckoutError {
	return &CheckoutError{Kind: ErrKindUnknown, Message: "an unexpected error occurred", Err: err}
}

// AsCheckoutError unwraps err into a CheckoutError if one is in the chain.
func AsCheckoutError(err error) (*CheckoutError, bool) {
	var ce *CheckoutError
	ok := errors.As(err, &ce)
	return ce, ok
}

// IsErrorKind checks whether err is a CheckoutError of the given kind.
func IsErrorKind(err error, kind ErrorKind) bool {
	if ce, ok := AsCheckoutError(err); ok {
		return ce.Kind == kind
	}
	return false
}

// EnsureCheckoutError coerces arbitrary errors at the pipeline boundary so
// every failure surfaces with a kind attached.
func EnsureCheckoutError(err error) *CheckoutError {
	if ce, ok := AsCheckoutError(err); ok {
		return ce
	}
	return NewUnknownError(err)
}
