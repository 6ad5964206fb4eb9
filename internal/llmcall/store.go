package llmcall

import "sync"

// DefaultLimit bounds the in-memory call history.
const DefaultLimit = 200

// Store keeps a bounded, in-memory history of recorded LLM calls.
// Records are transient by design: call history never outlives the process,
// matching the privacy posture of the output snapshot.
type Store struct {
	mu    sync.RWMutex
	calls []Call
	limit int
}

// NewStore creates a store keeping at most limit calls.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{limit: limit}
}

// Record appends a call, evicting the oldest entry when full.
// A nil call is ignored.
func (s *Store) Record(call *Call) {
	if call == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, *call)
	if len(s.calls) > s.limit {
		s.calls = s.calls[len(s.calls)-s.limit:]
	}
}

// Recent returns up to n calls, newest first.
func (s *Store) Recent(n int) []Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.calls) {
		n = len(s.calls)
	}
	out := make([]Call, 0, n)
	for i := len(s.calls) - 1; i >= len(s.calls)-n; i-- {
		out = append(out, s.calls[i])
	}
	return out
}

// Len returns the number of stored calls.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.calls)
}
