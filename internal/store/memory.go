package store

import (
	"context"
	"sync"
)

// Compile-time interface check.
var _ AttemptStore = (*MemoryStore)(nil)

// MemoryStore is an in-process AttemptStore. Attempts live only for the
// lifetime of the process; it serves deployments without a database and as a
// test double.
type MemoryStore struct {
	mu       sync.Mutex
	attempts []Attempt
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveAttempt implements [AttemptStore].
func (s *MemoryStore) SaveAttempt(_ context.Context, attempt *Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *attempt
	cp.Results = make([]TutorResult, len(attempt.Results))
	copy(cp.Results, attempt.Results)
	s.attempts = append(s.attempts, cp)
	return nil
}

// RecentAttempts implements [AttemptStore].
func (s *MemoryStore) RecentAttempts(_ context.Context, userName string, limit int) ([]Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Attempt
	for i := len(s.attempts) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		a := s.attempts[i]
		if userName != "" && a.UserName != userName {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Close implements [AttemptStore]. It is a no-op.
func (s *MemoryStore) Close() {}
