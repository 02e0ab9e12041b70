// Package application defines the ports, merchant callback surface and
// process-wide session state the checkout orchestration is built on.
package application

import (
	"context"

	"github.com/primer-io/checkout-go/internal/domain"
)

// GatewayClient is the port for the payment backend. Implementations live in
// internal/infrastructure/gateway; the orchestration core only sees this
// interface.
type GatewayClient interface {
	FetchConfiguration(ctx context.Context) (*domain.APIConfiguration, error)
	Tokenize(ctx context.Context, req TokenizationRequest) (*PaymentMethodTokenData, error)
	CreatePayment(ctx context.Context, req CreatePaymentRequest, idempotencyKey string) (*domain.Payment, error)
	ResumePayment(ctx context.Context, paymentID, resumeToken string) (*domain.Payment, error)
	PollStatus(ctx context.Context, statusURL string) (*PollResponse, error)
	ListBanks(ctx context.Context, methodType domain.PaymentMethodType) ([]domain.Bank, error)
	FetchVaultedMethods(ctx context.Context) ([]domain.VaultedPaymentMethod, error)
	DeleteVaultedMethod(ctx context.Context, id string) error
}

// RedirectPresenter is the UI boundary for redirect-style required actions.
// Present must return promptly; completion is observed by polling.
type RedirectPresenter interface {
	Present(ctx context.Context, redirectURL string) error
	Dismiss()
}

// ChallengeResult is delivered by the platform 3DS implementation once a
// challenge finishes.
type ChallengeResult struct {
	AuthCode    ThreeDSAuthCode
	ResumeToken string
	Err         error
}

// ChallengePresenter is the UI boundary for native 3DS challenges. The
// result is delivered asynchronously on the returned channel.
type ChallengePresenter interface {
	PresentChallenge(ctx context.Context, clientToken string) (<-chan ChallengeResult, error)
}

// ThreeDSAuthCode classifies a 3DS authentication outcome.
type ThreeDSAuthCode string

const (
	ThreeDSAuthSuccess      ThreeDSAuthCode = "AUTH_SUCCESS"
	ThreeDSAuthFrictionless ThreeDSAuthCode = "AUTH_FRICTIONLESS"
	ThreeDSNotPerformed     ThreeDSAuthCode = "NOT_PERFORMED"
	ThreeDSAuthFailed       ThreeDSAuthCode = "AUTH_FAILED"
)

// CollectorResult is delivered by a platform bank-account collector.
type CollectorResult struct {
	ResumeToken string
	Err         error
}

// BankAccountCollector is the UI boundary for ACH bank-account collection.
type BankAccountCollector interface {
	Collect(ctx context.Context, clientToken string) (<-chan CollectorResult, error)
}
