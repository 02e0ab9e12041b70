package gateway

import (
	"errors"
	"fmt"
)

// GatewayError is a structured error returned by the payment backend.
type GatewayError struct {
	Code       string
	Message    string
	StatusCode int
}

type errorResponse struct {
	Err     string `json:"error"`
	Message string `json:"message"`
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

// IsRetryable reports whether the failure is a transport-level one that a
// polling loop may retry. Declined or otherwise rejected requests are not.
func (e *GatewayError) IsRetryable() bool {
	return e.StatusCode >= 500
}

func IsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	ok := errors.As(err, &gwErr)
	return gwErr, ok
}
