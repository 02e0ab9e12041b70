// Package testhelpers provides the fakes shared by the orchestration tests:
// a function-field mock of the gateway port and a client-token factory.
package testhelpers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/primer-io/checkout-go/internal/application"
	"github.com/primer-io/checkout-go/internal/domain"
	"github.com/stretchr/testify/require"
)

// MakeClientToken builds an unsigned JWT-shaped client token from claims.
func MakeClientToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	if _, ok := claims["accessToken"]; !ok {
		claims["accessToken"] = "access-test"
	}
	header, err := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(payload) + "." + enc.EncodeToString([]byte("sig"))
}

// MockGateway implements application.GatewayClient with overridable function
// fields. Unset fields return zero values.
type MockGateway struct {
	FetchConfigurationFn  func(ctx context.Context) (*domain.APIConfiguration, error)
	TokenizeFn            func(ctx context.Context, req application.TokenizationRequest) (*application.PaymentMethodTokenData, error)
	CreatePaymentFn       func(ctx context.Context, req application.CreatePaymentRequest, idempotencyKey string) (*domain.Payment, error)
	ResumePaymentFn       func(ctx context.Context, paymentID, resumeToken string) (*domain.Payment, error)
	PollStatusFn          func(ctx context.Context, statusURL string) (*application.PollResponse, error)
	ListBanksFn           func(ctx context.Context, methodType domain.PaymentMethodType) ([]domain.Bank, error)
	FetchVaultedMethodsFn func(ctx context.Context) ([]domain.VaultedPaymentMethod, error)
	DeleteVaultedMethodFn func(ctx context.Context, id string) error

	TokenizeCalls      int
	CreatePaymentCalls int
	ResumeCalls        int
	PollCalls          int
}

func (m *MockGateway) FetchConfiguration(ctx context.Context) (*domain.APIConfiguration, error) {
	if m.FetchConfigurationFn != nil {
		return m.FetchConfigurationFn(ctx)
	}
	return &domain.APIConfiguration{}, nil
}

func (m *MockGateway) Tokenize(ctx context.Context, req application.TokenizationRequest) (*application.PaymentMethodTokenData, error) {
	m.TokenizeCalls++
	if m.TokenizeFn != nil {
		return m.TokenizeFn(ctx, req)
	}
	return &application.PaymentMethodTokenData{Token: "tok-test", TokenType: application.TokenSingleUse}, nil
}

func (m *MockGateway) CreatePayment(ctx context.Context, req application.CreatePaymentRequest, idempotencyKey string) (*domain.Payment, error) {
	m.CreatePaymentCalls++
	if m.CreatePaymentFn != nil {
		return m.CreatePaymentFn(ctx, req, idempotencyKey)
	}
	return &domain.Payment{ID: "pay-test", OrderID: "order-test", Status: domain.StatusSuccess}, nil
}

func (m *MockGateway) ResumePayment(ctx context.Context, paymentID, resumeToken string) (*domain.Payment, error) {
	m.ResumeCalls++
	if m.ResumePaymentFn != nil {
		return m.ResumePaymentFn(ctx, paymentID, resumeToken)
	}
	return &domain.Payment{ID: paymentID, Status: domain.StatusSuccess}, nil
}

func (m *MockGateway) PollStatus(ctx context.Context, statusURL string) (*application.PollResponse, error) {
	m.PollCalls++
	if m.PollStatusFn != nil {
		return m.PollStatusFn(ctx, statusURL)
	}
	return &application.PollResponse{Status: application.PollComplete, ID: "resume-test"}, nil
}

func (m *MockGateway) ListBanks(ctx context.Context, methodType domain.PaymentMethodType) ([]domain.Bank, error) {
	if m.ListBanksFn != nil {
		return m.ListBanksFn(ctx, methodType)
	}
	return nil, nil
}

func (m *MockGateway) FetchVaultedMethods(ctx context.Context) ([]domain.VaultedPaymentMethod, error) {
	if m.FetchVaultedMethodsFn != nil {
		return m.FetchVaultedMethodsFn(ctx)
	}
	return nil, nil
}

func (m *MockGateway) DeleteVaultedMethod(ctx context.Context, id string) error {
	if m.DeleteVaultedMethodFn != nil {
		return m.DeleteVaultedMethodFn(ctx, id)
	}
	return nil
}

// ScriptedPolls returns a PollStatusFn that plays back the given responses
// in order, repeating the last one if polled again.
func ScriptedPolls(responses ...*application.PollResponse) func(context.Context, string) (*application.PollResponse, error) {
	i := 0
	return func(ctx context.Context, statusURL string) (*application.PollResponse, error) {
		resp := responses[min(i, len(responses)-1)]
		i++
		return resp, nil
	}
}

// NoopRedirectPresenter records the URL it was asked to open.
type NoopRedirectPresenter struct {
	PresentedURL string
	Dismissed    bool
}

func (p *NoopRedirectPresenter) Present(ctx context.Context, redirectURL string) error {
	p.PresentedURL = redirectURL
	return nil
}

func (p *NoopRedirectPresenter) Dismiss() { p.Dismissed = true }
