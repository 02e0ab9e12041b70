package checkout

import (
	"context"
	"sync"

	"github.com/primer-io/checkout-go/internal/application"
	"github.com/primer-io/checkout-go/internal/domain"
)

// NavigationKind tags the variant a NavigationState holds.
type NavigationKind string

const (
	NavLoading           NavigationKind = "loading"
	NavMethodSelection   NavigationKind = "payment_method_selection"
	NavPaymentMethod     NavigationKind = "payment_method"
	NavVaultedMethods    NavigationKind = "vaulted_payment_methods"
	NavProcessing        NavigationKind = "processing"
	NavSuccess           NavigationKind = "success"
	NavFailure           NavigationKind = "failure"
	NavDismissed         NavigationKind = "dismissed"
	NavDeleteVaultPrompt NavigationKind = "delete_vault_confirmation"
)

// NavigationState is the single piece of UI-facing state a checkout scope
// exposes. Only the fields matching Kind are meaningful.
type NavigationState struct {
	Kind NavigationKind

	MethodType domain.PaymentMethodType // NavPaymentMethod
	PaymentID  string                   // NavSuccess
	Err        *domain.CheckoutError    // NavFailure
	VaultedID  string                   // NavDeleteVaultPrompt
}

// Equal compares states structurally; failure states compare by error kind
// and message.
func (s NavigationState) Equal(other NavigationState) bool {
	if s.Kind != other.Kind || s.MethodType != other.MethodType ||
		s.PaymentID != other.PaymentID || s.VaultedID != other.VaultedID {
		return false
	}
	switch {
	case s.Err == nil && other.Err == nil:
		return true
	case s.Err == nil || other.Err == nil:
		return false
	default:
		return s.Err.Kind == other.Err.Kind && s.Err.Message == other.Err.Message
	}
}

// Scope owns the navigation state for one checkout presentation plus the
// vaulted-method list backing the vault screen. Rendering code reads state
// through the observer; only orchestrator-driven setters mutate it.
type Scope struct {
	gateway application.GatewayClient

	mu       sync.Mutex
	current  NavigationState
	observer func(NavigationState)

	vaulted    []domain.VaultedPaymentMethod
	selectedID string
}

func NewScope(gateway application.GatewayClient) *Scope {
	return &Scope{
		gateway: gateway,
		current: NavigationState{Kind: NavLoading},
	}
}

// SetObserver installs the UI notification hook. It fires on every state
// change, outside the scope's lock, with the new state.
func (s *Scope) SetObserver(observer func(NavigationState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = observer
}

// Current returns the present navigation state.
func (s *Scope) Current() NavigationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Scope) transition(next NavigationState) {
	s.mu.Lock()
	if s.current.Equal(next) {
		s.mu.Unlock()
		return
	}
	s.current = next
	observer := s.observer
	s.mu.Unlock()

	if observer != nil {
		observer(next)
	}
}

func (s *Scope) ShowLoading()         { s.transition(NavigationState{Kind: NavLoading}) }
func (s *Scope) ShowMethodSelection() { s.transition(NavigationState{Kind: NavMethodSelection}) }
func (s *Scope) ShowProcessing()      { s.transition(NavigationState{Kind: NavProcessing}) }
func (s *Scope) ShowVaultedMethods()  { s.transition(NavigationState{Kind: NavVaultedMethods}) }
func (s *Scope) Dismiss()             { s.transition(NavigationState{Kind: NavDismissed}) }

func (s *Scope) ShowPaymentMethod(t domain.PaymentMethodType) {
	s.transition(NavigationState{Kind: NavPaymentMethod, MethodType: t})
}

func (s *Scope) ShowSuccess(paymentID string) {
	s.transition(NavigationState{Kind: NavSuccess, PaymentID: paymentID})
}

func (s *Scope) ShowFailure(err *domain.CheckoutError) {
	s.transition(NavigationState{Kind: NavFailure, Err: err})
}

// ConfirmVaultDeletion shows the confirmation prompt for one vaulted method.
func (s *Scope) ConfirmVaultDeletion(vaultedID string) {
	s.transition(NavigationState{Kind: NavDeleteVaultPrompt, VaultedID: vaultedID})
}

// RefreshVaultedMethods installs a new vault list. The selection rule is
// order sensitive: replace the list, clear a selection whose id is gone,
// then default to the first entry when nothing is selected.
func (s *Scope) RefreshVaultedMethods(methods []domain.VaultedPaymentMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vaulted = methods

	if s.selectedID != "" {
		found := false
		for _, m := range methods {
			if m.ID == s.selectedID {
				found = true
				break
			}
		}
		if !found {
			s.selectedID = ""
		}
	}

	if s.selectedID == "" && len(methods) > 0 {
		s.selectedID = methods[0].ID
	}
}

// SelectVaultedMethod picks a method by id; unknown ids are ignored.
func (s *Scope) SelectVaultedMethod(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.vaulted {
		if m.ID == id {
			s.selectedID = id
			return
		}
	}
}

// SelectedVaultedMethod returns the current selection, if any.
func (s *Scope) SelectedVaultedMethod() (domain.VaultedPaymentMethod, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.vaulted {
		if m.ID == s.selectedID {
			return m, true
		}
	}
	return domain.VaultedPaymentMethod{}, false
}

// VaultedMethods returns a copy of the current list.
func (s *Scope) VaultedMethods() []domain.VaultedPaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.VaultedPaymentMethod, len(s.vaulted))
	copy(out, s.vaulted)
	return out
}

// DeleteVaultedMethod removes a vaulted method server-side and refreshes the
// local list, re-running the selection rule. Leaves the confirmation state
// for the vault list on success.
func (s *Scope) DeleteVaultedMethod(ctx context.Context, id string) error {
	if err := s.gateway.DeleteVaultedMethod(ctx, id); err != nil {
		return domain.NewNetworkError(err)
	}
	methods, err := s.gateway.FetchVaultedMethods(ctx)
	if err != nil {
		return domain.NewNetworkError(err)
	}
	s.RefreshVaultedMethods(methods)
	s.ShowVaultedMethods()
	return nil
}
