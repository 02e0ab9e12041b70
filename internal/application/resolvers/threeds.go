package resolvers

import (
	"context"

	"github.com/primer-io/checkout-go/internal/application"
	"github.com/primer-io/checkout-go/internal/domain"
)

// ThreeDSResolver presents a native 3DS challenge and waits for its result.
// Outcomes that indicate no challenge was necessary (frictionless or not
// performed) complete the action without a further resume step.
type ThreeDSResolver struct {
	presenter application.ChallengePresenter
}

func NewThreeDSResolver(presenter application.ChallengePresenter) *ThreeDSResolver {
	return &ThreeDSResolver{presenter: presenter}
}

func (r *ThreeDSResolver) Resolve(ctx context.Context, action *domain.RequiredAction, paymentID string) (*Resolution, error) {
	results, err := r.presenter.PresentChallenge(ctx, action.ClientToken)
	if err != nil {
		return nil, domain.NewPaymentFailedError(paymentID, "", "could not present the 3DS challenge")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-results:
		if result.Err != nil {
			return nil, domain.NewPaymentFailedError(paymentID, "", "3DS challenge failed")
		}
		switch result.AuthCode {
		case application.ThreeDSAuthFrictionless, application.ThreeDSNotPerformed:
			if result.ResumeToken != "" {
				return &Resolution{ResumeToken: result.ResumeToken}, nil
			}
			return &Resolution{Completed: true}, nil
		case application.ThreeDSAuthSuccess:
			return &Resolution{ResumeToken: result.ResumeToken}, nil
		default:
			return nil, domain.NewPaymentFailedError(paymentID, "", "3DS authentication was not successful")
		}
	}
}
