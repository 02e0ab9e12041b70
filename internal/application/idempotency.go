package application

import "sync"

// IdempotencyStore holds the process-wide idempotency key chosen by the most
// recent before-create decision. The next payment-creation call attaches it.
// The store is deliberately not pipeline-scoped; concurrent pipelines
// overwrite each other's key, which callers must not rely on being isolated.
type IdempotencyStore struct {
	mu  sync.Mutex
	key string
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{}
}

// Set overwrites any prior key.
func (s *IdempotencyStore) Set(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
}

// Clear resets the key to empty.
func (s *IdempotencyStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = ""
}

// Current returns the key to attach to the next payment-creation call.
func (s *IdempotencyStore) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}
