package resolvers

import (
	"context"
	"log/slog"
	"time"

	"github.com/primer-io/checkout-go/internal/application"
	"github.com/primer-io/checkout-go/internal/config"
	"github.com/primer-io/checkout-go/internal/domain"
	"github.com/primer-io/checkout-go/internal/infrastructure/gateway"
)

// RedirectResolver drives web-redirect required actions: it opens the
// redirect URL through the presenter and concurrently polls the status
// endpoint until the flow completes out of band. Pending polls continue;
// transport failures are retried up to a bound; the attempt budget caps the
// total wait.
type RedirectResolver struct {
	client    application.GatewayClient
	presenter application.RedirectPresenter
	cfg       config.PollingConfig
	logger    *slog.Logger
}

func NewRedirectResolver(
	client application.GatewayClient,
	presenter application.RedirectPresenter,
	cfg config.PollingConfig,
	logger *slog.Logger,
) *RedirectResolver {
	return &RedirectResolver{
		client:    client,
		presenter: presenter,
		cfg:       cfg,
		logger:    logger,
	}
}

func (r *RedirectResolver) Resolve(ctx context.Context, action *domain.RequiredAction, paymentID string) (*Resolution, error) {
	token, err := domain.DecodeClientToken(action.ClientToken)
	if err != nil {
		return nil, domain.NewPaymentFailedError(paymentID, "", "required action carried an unusable client token")
	}
	if token.Claims.RedirectURL == "" || token.Claims.StatusURL == "" {
		return nil, domain.NewPaymentFailedError(paymentID, "", "redirect action is missing its redirect or status URL")
	}

	if err := r.presenter.Present(ctx, token.Claims.RedirectURL); err != nil {
		return nil, domain.NewPaymentFailedError(paymentID, "", "could not open the redirect page")
	}
	defer r.presenter.Dismiss()

	return pollUntilComplete(ctx, r.client, token.Claims.StatusURL, r.cfg, r.logger)
}

// pollUntilComplete observes the status endpoint at a fixed interval until
// it reports COMPLETE, yielding the final poll's id as the resume token.
// Shared by the redirect and QR resolvers.
func pollUntilComplete(
	ctx context.Context,
	client application.GatewayClient,
	statusURL string,
	cfg config.PollingConfig,
	logger *slog.Logger,
) (*Resolution, error) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	transportFailures := 0
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		resp, err := client.PollStatus(ctx, statusURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			transportFailures++
			logger.Warn("status poll failed",
				"attempt", attempt,
				"transport_failures", transportFailures,
				"error", err)
			// Non-retryable gateway rejections fail immediately; only
			// transport-level trouble consumes the retry budget.
			if gwErr, ok := gateway.IsGatewayError(err); ok && !gwErr.IsRetryable() {
				return nil, domain.NewNetworkError(err)
			}
			if transportFailures > cfg.TransportRetries {
				return nil, domain.NewNetworkError(err)
			}
			continue
		}
		transportFailures = 0

		switch resp.Status {
		case application.PollComplete:
			return &Resolution{ResumeToken: resp.ID}, nil
		case application.PollPending:
			continue
		default:
			logger.Warn("unexpected poll status", "status", resp.Status)
		}
	}

	return nil, domain.NewTimeoutError("redirect completion")
}
