package application

import "sync"

// CancellationHub delivers out-of-band cancellation (e.g. a URL-scheme
// cancel signal from a hosted page) to every suspension point that is
// listening. Cancellation is a broadcast: Done() closes for all listeners.
type CancellationHub struct {
	mu        sync.Mutex
	ch        chan struct{}
	reason    string
	cancelled bool
}

func NewCancellationHub() *CancellationHub {
	return &CancellationHub{ch: make(chan struct{})}
}

// Cancel broadcasts the signal. Subsequent calls are no-ops until Reset.
func (h *CancellationHub) Cancel(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled {
		return
	}
	h.cancelled = true
	h.reason = reason
	close(h.ch)
}

// Done returns a channel closed once cancellation has been requested.
func (h *CancellationHub) Done() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ch
}

func (h *CancellationHub) Cancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

func (h *CancellationHub) Reason() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reason
}

// Reset arms the hub for a fresh checkout attempt.
func (h *CancellationHub) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ch = make(chan struct{})
	h.reason = ""
	h.cancelled = false
}
