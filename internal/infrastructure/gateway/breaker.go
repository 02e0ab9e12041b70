package gateway

import (
	"context"

	"github.com/sony/gobreaker/v2"

	"github.com/primer-io/checkout-go/internal/application"
	"github.com/primer-io/checkout-go/internal/config"
	"github.com/primer-io/checkout-go/internal/domain"
)

// BreakerClient decorates a gateway client with a circuit breaker so that a
// backend outage fails checkout attempts fast instead of piling requests
// onto timeouts. All endpoints share one breaker; they hit the same host.
type BreakerClient struct {
	inner   application.GatewayClient
	breaker *gobreaker.CircuitBreaker[any]
}

func NewBreakerClient(inner application.GatewayClient, cfg config.BreakerConfig) *BreakerClient {
	settings := gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.TripThreshold
		},
	}
	return &BreakerClient{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

func execute[T any](b *BreakerClient, op func() (*T, error)) (*T, error) {
	v, err := b.breaker.Execute(func() (any, error) {
		return op()
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

func (b *BreakerClient) FetchConfiguration(ctx context.Context) (*domain.APIConfiguration, error) {
	return execute(b, func() (*domain.APIConfiguration, error) {
		return b.inner.FetchConfiguration(ctx)
	})
}

func (b *BreakerClient) Tokenize(ctx context.Context, req application.TokenizationRequest) (*application.PaymentMethodTokenData, error) {
	return execute(b, func() (*application.PaymentMethodTokenData, error) {
		return b.inner.Tokenize(ctx, req)
	})
}

func (b *BreakerClient) CreatePayment(ctx context.Context, req application.CreatePaymentRequest, idempotencyKey string) (*domain.Payment, error) {
	return execute(b, func() (*domain.Payment, error) {
		return b.inner.CreatePayment(ctx, req, idempotencyKey)
	})
}

func (b *BreakerClient) ResumePayment(ctx context.Context, paymentID, resumeToken string) (*domain.Payment, error) {
	return execute(b, func() (*domain.Payment, error) {
		return b.inner.ResumePayment(ctx, paymentID, resumeToken)
	})
}

func (b *BreakerClient) PollStatus(ctx context.Context, statusURL string) (*application.PollResponse, error) {
	return execute(b, func() (*application.PollResponse, error) {
		return b.inner.PollStatus(ctx, statusURL)
	})
}

func (b *BreakerClient) ListBanks(ctx context.Context, methodType domain.PaymentMethodType) ([]domain.Bank, error) {
	v, err := b.breaker.Execute(func() (any, error) {
		return b.inner.ListBanks(ctx, methodType)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Bank), nil
}

func (b *BreakerClient) FetchVaultedMethods(ctx context.Context) ([]domain.VaultedPaymentMethod, error) {
	v, err := b.breaker.Execute(func() (any, error) {
		return b.inner.FetchVaultedMethods(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.VaultedPaymentMethod), nil
}

func (b *BreakerClient) DeleteVaultedMethod(ctx context.Context, id string) error {
	_, err := b.breaker.Execute(func() (any, error) {
		return nil, b.inner.DeleteVaultedMethod(ctx, id)
	})
	return err
}
