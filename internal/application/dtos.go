package application

import (
	"github.com/primer-io/checkout-go/internal/domain"
)

// InstrumentType discriminates a tokenization request payload.
type InstrumentType string

const (
	InstrumentCard         InstrumentType = "PAYMENT_CARD"
	InstrumentPayPalVault  InstrumentType = "PAYPAL_BILLING_AGREEMENT"
	InstrumentBankRedirect InstrumentType = "BANK_REDIRECT"
	InstrumentACH          InstrumentType = "ACH"
	InstrumentOffSession   InstrumentType = "OFF_SESSION_PAYMENT"
)

// TokenType says whether a token may be charged more than once.
type TokenType string

const (
	TokenSingleUse TokenType = "SINGLE_USE"
	TokenMultiUse  TokenType = "MULTI_USE"
)

// CardInstrument carries raw card input collected from the user.
type CardInstrument struct {
	Number          string `json:"number"`
	CVV             string `json:"cvv"`
	ExpirationMonth int    `json:"expirationMonth"`
	ExpirationYear  int    `json:"expirationYear"`
	CardholderName  string `json:"cardholderName"`
}

// PayPalInstrument references an approved billing agreement.
type PayPalInstrument struct {
	BillingAgreementID string `json:"paypalBillingAgreementId"`
}

// BankRedirectInstrument carries the chosen bank for a redirect method.
type BankRedirectInstrument struct {
	BankID string `json:"bankId"`
	Method string `json:"paymentMethodType"`
}

// ACHInstrument carries collected bank-account details.
type ACHInstrument struct {
	RoutingNumber string `json:"routingNumber"`
	AccountNumber string `json:"accountNumber"`
	AccountType   string `json:"accountType"`
}

// OffSessionInstrument references a vaulted token being charged again.
type OffSessionInstrument struct {
	VaultedTokenID string `json:"vaultedTokenId"`
	CVV            string `json:"cvv,omitempty"`
}

// TokenizationRequest is the discriminated union sent to the tokenization
// endpoint. Exactly one instrument field matching Instrument is set.
type TokenizationRequest struct {
	Instrument   InstrumentType          `json:"instrumentType"`
	TokenType    TokenType               `json:"tokenType"`
	Card         *CardInstrument         `json:"card,omitempty"`
	PayPal       *PayPalInstrument       `json:"paypal,omitempty"`
	BankRedirect *BankRedirectInstrument `json:"bankRedirect,omitempty"`
	ACH          *ACHInstrument          `json:"ach,omitempty"`
	OffSession   *OffSessionInstrument   `json:"offSession,omitempty"`
}

// ThreeDSAuthentication is the 3DS result a tokenization response may embed.
type ThreeDSAuthentication struct {
	ResponseCode    string `json:"responseCode"`
	ProtocolVersion string `json:"protocolVersion,omitempty"`
}

// PaymentMethodTokenData is one payment-method token as returned by the
// tokenization endpoint: the opaque token plus echoed instrument data.
type PaymentMethodTokenData struct {
	Token          string                 `json:"token"`
	TokenType      TokenType              `json:"tokenType"`
	InstrumentType InstrumentType         `json:"instrumentType"`
	AnalyticsID    string                 `json:"analyticsId,omitempty"`
	ThreeDS        *ThreeDSAuthentication `json:"threeDSecureAuthentication,omitempty"`
}

// CreatePaymentRequest creates a payment from a token. CVV rides along only
// for vaulted-card recapture.
type CreatePaymentRequest struct {
	PaymentMethodToken string `json:"paymentMethodToken"`
	CVV                string `json:"cvv,omitempty"`
}

// PollStatus values of the status endpoint.
const (
	PollPending  = "PENDING"
	PollComplete = "COMPLETE"
)

// PollResponse is one observation of the status endpoint during a redirect
// flow. ID doubles as the resume token once Status is COMPLETE.
type PollResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
	Source string `json:"source"`
}

// PaymentMethodData identifies the method a lifecycle event refers to.
type PaymentMethodData struct {
	Type domain.PaymentMethodType
}

// AdditionalInfo is auxiliary data surfaced mid-flow, e.g. a QR code image
// or a voucher reference the host should display.
type AdditionalInfo struct {
	Kind    string
	Message string
	QRCode  string
}
