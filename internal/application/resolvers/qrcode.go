package resolvers

import (
	"context"
	"log/slog"

	"github.com/primer-io/checkout-go/internal/application"
	"github.com/primer-io/checkout-go/internal/config"
	"github.com/primer-io/checkout-go/internal/domain"
)

// QRCodeResolver surfaces a scannable code to the host as additional info,
// then waits on the same status polling a redirect uses: the customer pays
// out of band and the backend flips the status endpoint to complete.
type QRCodeResolver struct {
	client application.GatewayClient
	emit   func(application.AdditionalInfo)
	cfg    config.PollingConfig
	logger *slog.Logger
}

func NewQRCodeResolver(
	client application.GatewayClient,
	emit func(application.AdditionalInfo),
	cfg config.PollingConfig,
	logger *slog.Logger,
) *QRCodeResolver {
	return &QRCodeResolver{client: client, emit: emit, cfg: cfg, logger: logger}
}

func (r *QRCodeResolver) Resolve(ctx context.Context, action *domain.RequiredAction, paymentID string) (*Resolution, error) {
	token, err := domain.DecodeClientToken(action.ClientToken)
	if err != nil {
		return nil, domain.NewPaymentFailedError(paymentID, "", "QR action carried an unusable client token")
	}
	if token.Claims.StatusURL == "" {
		return nil, domain.NewPaymentFailedError(paymentID, "", "QR action is missing its status URL")
	}

	if r.emit != nil {
		r.emit(application.AdditionalInfo{
			Kind:    "QR_CODE",
			Message: action.Description,
			QRCode:  token.Claims.RedirectURL,
		})
	}

	return pollUntilComplete(ctx, r.client, token.Claims.StatusURL, r.cfg, r.logger)
}
