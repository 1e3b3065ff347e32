package job

import (
	"sort"
	"sync"
)

// Token is a settable-once cancellation signal for one job. Once the job
// seals it on the way to its terminal status, Cancel has no effect.
type Token struct {
	mu     sync.Mutex
	cause  error
	sealed bool
	done   chan struct{}
}

// NewToken returns a live, uncancelled token.
func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel signals the job on behalf of a user. It returns false if the job
// already sealed its outcome.
func (t *Token) Cancel() bool {
	return t.cancel(ErrCancelled)
}

// cancel signals the job with cause. The first cause wins.
func (t *Token) cancel(cause error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed {
		return false
	}
	if t.cause == nil {
		t.cause = cause
		close(t.done)
	}
	return true
}

// Cancelled reports whether a cancellation took effect.
func (t *Token) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cause != nil
}

// Done is closed when the token is cancelled.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// seal stops further cancellation and returns the cause of any that
// arrived first.
func (t *Token) seal() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sealed = true
	return t.cause
}

// Registry routes cancellation signals to live jobs. It is process-local:
// a restart forgets every entry while persisted job status is unaffected.
type Registry struct {
	mu   sync.Mutex
	live map[string]*Token
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{live: make(map[string]*Token)}
}

// Register adds a fresh token for id, replacing any previous one.
func (r *Registry) Register(id string) *Token {
	t := NewToken()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live[id] = t
	return t
}

// Cancel signals the job with id on behalf of a user. It reports whether a
// live job received the signal.
func (r *Registry) Cancel(id string) bool {
	return r.cancel(id, ErrCancelled)
}

func (r *Registry) cancel(id string, cause error) bool {
	r.mu.Lock()
	t, ok := r.live[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	return t.cancel(cause)
}

// Remove forgets id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, id)
}

// IDs returns the ids of live jobs, sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.live))
	for id := range r.live {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
