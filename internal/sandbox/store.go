package sandbox

import (
	"sync"

	"github.com/google/uuid"
)

// instrument is what a tokenization call captured, keyed by the issued token.
type instrument struct {
	Kind       string
	CardNumber string
}

// paymentRecord tracks one sandbox payment across create, poll and resume.
type paymentRecord struct {
	ID            string
	OrderID       string
	Amount        int64
	Currency      string
	Status        string
	FailureReason string

	// Redirect flows: the status endpoint reports pending this many more
	// times before flipping to complete.
	PollsRemaining int
	ResumeToken    string
	StatusID       string
}

// vaultEntry is one stored instrument on the vault screen.
type vaultEntry struct {
	ID          string
	Type        string
	Description string
	CVVLength   int
}

// store is the sandbox's in-memory state. Everything resets with the process.
type store struct {
	mu          sync.Mutex
	instruments map[string]instrument
	payments    map[string]*paymentRecord
	byStatusID  map[string]*paymentRecord
	vault       []vaultEntry
	sessions    map[string]bool
}

func newStore() *store {
	return &store{
		instruments: make(map[string]instrument),
		payments:    make(map[string]*paymentRecord),
		byStatusID:  make(map[string]*paymentRecord),
		sessions:    make(map[string]bool),
		vault: []vaultEntry{
			{ID: "vault_" + uuid.NewString(), Type: "PAYMENT_CARD", Description: "Visa •••• 1111", CVVLength: 3},
			{ID: "vault_" + uuid.NewString(), Type: "PAYPAL", Description: "customer@example.com"},
		},
	}
}

func (s *store) addSession(accessToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[accessToken] = true
}

func (s *store) knownSession(accessToken string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[accessToken]
}

func (s *store) saveInstrument(token string, in instrument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instruments[token] = in
}

func (s *store) instrumentFor(token string) (instrument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.instruments[token]
	return in, ok
}

func (s *store) savePayment(p *paymentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = p
	if p.StatusID != "" {
		s.byStatusID[p.StatusID] = p
	}
}

func (s *store) payment(id string) (*paymentRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	return p, ok
}

// poll consumes one pending observation of a status record and reports
// whether the flow has completed, returning the resume token when it has.
func (s *store) poll(statusID string) (done bool, resumeToken string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, found := s.byStatusID[statusID]
	if !found {
		return false, "", false
	}
	if p.PollsRemaining > 0 {
		p.PollsRemaining--
		return false, "", true
	}
	return true, p.ResumeToken, true
}

func (s *store) completePayment(id, resumeToken string) (*paymentRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, found := s.payments[id]
	if !found || p.ResumeToken == "" || p.ResumeToken != resumeToken {
		return nil, false
	}
	p.Status = "SUCCESS"
	p.ResumeToken = ""
	return p, true
}

func (s *store) vaultedMethods() []vaultEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]vaultEntry, len(s.vault))
	copy(out, s.vault)
	return out
}

func (s *store) deleteVaulted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range s.vault {
		if v.ID == id {
			s.vault = append(s.vault[:i], s.vault[i+1:]...)
			return true
		}
	}
	return false
}
