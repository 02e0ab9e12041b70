// Package domain holds the checkout entities and the error taxonomy shared
// by the orchestration pipeline, the resolvers and the gateway client.
package domain

import (
	"errors"
	"slices"
)

// PaymentStatus is the backend-reported state of a payment. The set is
// backend-defined and open ended; anything we do not recognize maps to
// StatusUnknown rather than failing to decode.
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "PENDING"
	StatusAuthorized PaymentStatus = "AUTHORIZED"
	StatusSuccess    PaymentStatus = "SUCCESS"
	StatusSettled    PaymentStatus = "SETTLED"
	StatusDeclined   PaymentStatus = "DECLINED"
	StatusFailed     PaymentStatus = "FAILED"
	StatusCancelled  PaymentStatus = "CANCELLED"
	StatusUnknown    PaymentStatus = "UNKNOWN"
)

var knownStatuses = []PaymentStatus{
	StatusPending, StatusAuthorized, StatusSuccess, StatusSettled,
	StatusDeclined, StatusFailed, StatusCancelled,
}

// ParseStatus normalizes a backend status string, falling back to
// StatusUnknown for members we have never seen.
func ParseStatus(raw string) PaymentStatus {
	s := PaymentStatus(raw)
	if slices.Contains(knownStatuses, s) {
		return s
	}
	return StatusUnknown
}

// IsSuccessful reports whether the status finalizes the payment in the
// customer's favor.
func (s PaymentStatus) IsSuccessful() bool {
	switch s {
	case StatusSuccess, StatusSettled, StatusAuthorized:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further backend transition is expected.
func (s PaymentStatus) IsTerminal() bool {
	return s != StatusPending
}

// RequiredActionName tags the follow-up step a pending payment demands.
type RequiredActionName string

const (
	ActionThreeDSAuthentication RequiredActionName = "3DS_AUTHENTICATION"
	ActionWebRedirect           RequiredActionName = "WEB_REDIRECT"
	ActionMandateAcceptance     RequiredActionName = "MANDATE_ACCEPTANCE"
	ActionACHBankCollection     RequiredActionName = "ACH_BANK_COLLECTION"
	ActionQRCode                RequiredActionName = "QR_CODE"
	ActionNewClientToken        RequiredActionName = "NEW_CLIENT_TOKEN"
)

// RequiredAction is the server-declared follow-up step carried by a pending
// payment. The fresh client token routes its resolver: redirect URL, status
// URL and challenge parameters travel inside the token claims. Consumed
// exactly once; never persisted beyond the attempt.
type RequiredAction struct {
	Name        RequiredActionName
	Description string
	ClientToken string
	MandateText string
}

// Payment is a single payment as reported by the backend. Amounts are
// integer minor currency units throughout; a currency's decimal digits
// drive display formatting only.
type Payment struct {
	ID             string
	OrderID        string
	CustomerID     string
	Amount         Money
	Status         PaymentStatus
	RequiredAction *RequiredAction
	FailureReason  string
}

// RequiresAction reports whether the payment is pending on a follow-up step.
func (p *Payment) RequiresAction() bool {
	return p.Status == StatusPending && p.RequiredAction != nil
}

func (p *Payment) Declined() bool {
	return p.Status == StatusDeclined
}

// IsSuccessful reports whether the payment finished in the customer's favor.
func (p *Payment) IsSuccessful() bool {
	return p.Status.IsSuccessful()
}

// ErrPendingWithoutAction signals a backend response that violates the
// pending-implies-required-action invariant.
var ErrPendingWithoutAction = errors.New("pending payment carries no required action")

// NewPaymentFromStatus builds a payment from decoded backend fields,
// enforcing the status/required-action invariants at the decode boundary:
// a pending payment must carry an action, a successful one never does.
func NewPaymentFromStatus(id, orderID string, amount Money, status PaymentStatus, action *RequiredAction) (*Payment, error) {
	if status == StatusPending && action == nil {
		return nil, ErrPendingWithoutAction
	}
	if status.IsSuccessful() {
		action = nil
	}
	return &Payment{
		ID:             id,
		OrderID:        orderID,
		Amount:         amount,
		Status:         status,
		RequiredAction: action,
	}, nil
}

// CheckoutData is the terminal result reported to the merchant. A failed
// payment still reports its ids when they are known.
type CheckoutData struct {
	PaymentID string
	OrderID   string
}
