package application

import (
	"sync"

	"github.com/primer-io/checkout-go/internal/domain"
)

// SessionState is an immutable snapshot of the active checkout session.
// Readers always observe one coherent token/configuration pair.
type SessionState struct {
	Token  *domain.ClientToken
	Config *domain.APIConfiguration
	Order  *domain.Order
}

// Session holds the process-wide client token and decoded configuration. A
// required action carrying a new client token replaces both wholesale; a
// concurrent reader sees either the old or the new pair, never a mix.
type Session struct {
	mu    sync.RWMutex
	state SessionState
}

func NewSession() *Session {
	return &Session{}
}

// Start installs the initial client token and configuration for a checkout
// attempt.
func (s *Session) Start(token *domain.ClientToken, config *domain.APIConfiguration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = token
	s.state.Config = config
}

// SetOrder records the merchant's active order.
func (s *Session) SetOrder(order *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Order = order
}

// Replace swaps the token and configuration in one step, keeping the order.
func (s *Session) Replace(token *domain.ClientToken, config *domain.APIConfiguration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = token
	s.state.Config = config
}

// Snapshot returns the current state as one consistent value.
func (s *Session) Snapshot() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// AccessToken returns the backend credential of the active token, or "".
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Token == nil {
		return ""
	}
	return s.state.Token.Claims.AccessToken
}

// Clear discards all session state at checkout completion or dismissal.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SessionState{}
}
