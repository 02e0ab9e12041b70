package application

import (
	"github.com/primer-io/checkout-go/internal/domain"
)

// PaymentCreationDecision is the merchant's answer to the before-create
// hook: continue (optionally with an idempotency key) or abort with a
// message. Zero value continues without a key.
type PaymentCreationDecision struct {
	abort          bool
	errorMessage   string
	idempotencyKey string
}

func ContinuePaymentCreation() PaymentCreationDecision {
	return PaymentCreationDecision{}
}

func ContinuePaymentCreationWithKey(idempotencyKey string) PaymentCreationDecision {
	return PaymentCreationDecision{idempotencyKey: idempotencyKey}
}

func AbortPaymentCreation(errorMessage string) PaymentCreationDecision {
	return PaymentCreationDecision{abort: true, errorMessage: errorMessage}
}

func (d PaymentCreationDecision) Aborted() bool        { return d.abort }
func (d PaymentCreationDecision) ErrorMessage() string { return d.errorMessage }
func (d PaymentCreationDecision) IdempotencyKey() string {
	return d.idempotencyKey
}

type resumeDecisionKind int

const (
	resumeComplete resumeDecisionKind = iota
	resumeFail
	resumeNewClientToken
)

// ResumeDecision is the merchant's answer while a payment waits on a resume
// step: declare it complete, fail it, or continue with a fresh client token.
type ResumeDecision struct {
	kind        resumeDecisionKind
	message     string
	clientToken string
}

func ResumeCheckoutComplete() ResumeDecision {
	return ResumeDecision{kind: resumeComplete}
}

func FailResume(message string) ResumeDecision {
	return ResumeDecision{kind: resumeFail, message: message}
}

func ContinueWithNewClientToken(clientToken string) ResumeDecision {
	return ResumeDecision{kind: resumeNewClientToken, clientToken: clientToken}
}

func (d ResumeDecision) Complete() bool  { return d.kind == resumeComplete }
func (d ResumeDecision) Failed() bool    { return d.kind == resumeFail }
func (d ResumeDecision) Message() string { return d.message }
func (d ResumeDecision) NewClientToken() (string, bool) {
	return d.clientToken, d.kind == resumeNewClientToken
}

// Callbacks is the merchant-facing event surface. Every slot is optional;
// the core fires them nil-safely in a fixed relative order per attempt:
// willCreatePayment, tokenization started, (tokenized), (additional info,
// any number of times), then exactly one of completed or failed.
type Callbacks struct {
	OnBeforePaymentCreate func(data PaymentMethodData, decide func(PaymentCreationDecision))
	OnWillCreatePayment   func(data PaymentMethodData)
	OnTokenizationStarted func(methodType domain.PaymentMethodType)
	OnTokenized           func(token PaymentMethodTokenData)
	OnAdditionalInfo      func(info AdditionalInfo)
	OnCheckoutCompleted   func(data domain.CheckoutData)
	OnCheckoutFailed      func(err *domain.CheckoutError, data domain.CheckoutData)
}

func (c *Callbacks) EmitWillCreatePayment(data PaymentMethodData) {
	if c != nil && c.OnWillCreatePayment != nil {
		c.OnWillCreatePayment(data)
	}
}

func (c *Callbacks) EmitTokenizationStarted(methodType domain.PaymentMethodType) {
	if c != nil && c.OnTokenizationStarted != nil {
		c.OnTokenizationStarted(methodType)
	}
}

func (c *Callbacks) EmitTokenized(token PaymentMethodTokenData) {
	if c != nil && c.OnTokenized != nil {
		c.OnTokenized(token)
	}
}

func (c *Callbacks) EmitAdditionalInfo(info AdditionalInfo) {
	if c != nil && c.OnAdditionalInfo != nil {
		c.OnAdditionalInfo(info)
	}
}

func (c *Callbacks) EmitCompleted(data domain.CheckoutData) {
	if c != nil && c.OnCheckoutCompleted != nil {
		c.OnCheckoutCompleted(data)
	}
}

func (c *Callbacks) EmitFailed(err *domain.CheckoutError, data domain.CheckoutData) {
	if c != nil && c.OnCheckoutFailed != nil {
		c.OnCheckoutFailed(err, data)
	}
}
