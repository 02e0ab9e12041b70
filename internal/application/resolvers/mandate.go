package resolvers

import (
	"context"

	"github.com/primer-io/checkout-go/internal/domain"
)

// MandatePresenter is the UI boundary for direct-debit mandate acceptance.
type MandatePresenter interface {
	ShowMandate(ctx context.Context, mandateText string) error
	Dismiss()
}

type mandateSignal struct {
	accepted bool
}

// MandateResolver presents mandate text and blocks until the user explicitly
// accepts or declines. No polling is involved; AcceptMandate is the sole
// progression trigger.
type MandateResolver struct {
	presenter MandatePresenter
	signals   chan mandateSignal
}

func NewMandateResolver(presenter MandatePresenter) *MandateResolver {
	return &MandateResolver{
		presenter: presenter,
		signals:   make(chan mandateSignal, 1),
	}
}

// AcceptMandate signals that the user accepted the presented mandate.
func (r *MandateResolver) AcceptMandate() {
	select {
	case r.signals <- mandateSignal{accepted: true}:
	default:
	}
}

// DeclineMandate signals that the user refused the mandate.
func (r *MandateResolver) DeclineMandate() {
	select {
	case r.signals <- mandateSignal{accepted: false}:
	default:
	}
}

func (r *MandateResolver) Resolve(ctx context.Context, action *domain.RequiredAction, paymentID string) (*Resolution, error) {
	if err := r.presenter.ShowMandate(ctx, action.MandateText); err != nil {
		return nil, domain.NewPaymentFailedError(paymentID, "", "could not present the mandate")
	}
	defer r.presenter.Dismiss()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case signal := <-r.signals:
		if !signal.accepted {
			return nil, domain.NewCancelledError("")
		}
		// Mandate acceptance resumes with the acceptance token embedded in
		// the action's client token.
		token, err := domain.DecodeClientToken(action.ClientToken)
		if err != nil {
			return nil, domain.NewPaymentFailedError(paymentID, "", "mandate action carried an unusable client token")
		}
		return &Resolution{ResumeToken: token.Claims.AccessToken}, nil
	}
}
