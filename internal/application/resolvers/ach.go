package resolvers

import (
	"context"

	"github.com/primer-io/checkout-go/internal/application"
	"github.com/primer-io/checkout-go/internal/domain"
)

// ACHCollectorResolver delegates bank-account collection to the platform
// collector UI and resumes with the token its completion callback carries.
type ACHCollectorResolver struct {
	collector application.BankAccountCollector
}

func NewACHCollectorResolver(collector application.BankAccountCollector) *ACHCollectorResolver {
	return &ACHCollectorResolver{collector: collector}
}

func (r *ACHCollectorResolver) Resolve(ctx context.Context, action *domain.RequiredAction, paymentID string) (*Resolution, error) {
	results, err := r.collector.Collect(ctx, action.ClientToken)
	if err != nil {
		return nil, domain.NewPaymentFailedError(paymentID, "", "could not start bank account collection")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-results:
		if result.Err != nil {
			return nil, domain.NewPaymentFailedError(paymentID, "", "bank account collection failed")
		}
		return &Resolution{ResumeToken: result.ResumeToken}, nil
	}
}
