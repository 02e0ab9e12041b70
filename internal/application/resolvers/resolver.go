// Package resolvers turns server-declared required actions into resume
// tokens. One resolver strategy exists per action kind; the registry picks
// the strategy for the action a pending payment carries.
package resolvers

import (
	"context"
	"fmt"

	"github.com/primer-io/checkout-go/internal/domain"
)

// Resolution is the successful outcome of a required action. Completed means
// the action finished without needing a resume round trip (e.g. frictionless
// 3DS); otherwise ResumeToken resumes the pending payment.
type Resolution struct {
	ResumeToken string
	Completed   bool
}

// Resolver resolves one kind of required action. Resolve blocks until the
// external interaction finishes, the context is cancelled, or the resolver's
// own budget runs out. Exactly one resolver runs per required action.
type Resolver interface {
	Resolve(ctx context.Context, action *domain.RequiredAction, paymentID string) (*Resolution, error)
}

// Registry maps required-action names to their resolver strategy.
type Registry struct {
	resolvers map[domain.RequiredActionName]Resolver
}

func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[domain.RequiredActionName]Resolver)}
}

func (r *Registry) Register(name domain.RequiredActionName, resolver Resolver) {
	r.resolvers[name] = resolver
}

// For returns the resolver for an action name.
func (r *Registry) For(name domain.RequiredActionName) (Resolver, error) {
	if resolver, ok := r.resolvers[name]; ok {
		return resolver, nil
	}
	return nil, fmt.Errorf("no resolver registered for required action %s", name)
}
