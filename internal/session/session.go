package session

import (
	"sync"

	"github.com/google/uuid"
)

// Session holds the in-memory state of one running shell: the set of
// URLs successfully ingested since process start or the last reset.
// It is never persisted, so the on-disk index can outlive it across
// restarts; that divergence is accepted.
type Session struct {
	id string

	mu        sync.Mutex
	processed []string
	seen      map[string]bool
}

func New() *Session {
	return &Session{
		id:   uuid.NewString(),
		seen: make(map[string]bool),
	}
}

func (s *Session) ID() string { return s.id }

// AddProcessed records URLs as successfully ingested, keeping first
// insertion order and dropping duplicates.
func (s *Session) AddProcessed(urls []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range urls {
		if u == "" || s.seen[u] {
			continue
		}
		s.seen[u] = true
		s.processed = append(s.processed, u)
	}
}

// ProcessedURLs returns a copy of the ingested URL list.
func (s *Session) ProcessedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.processed))
	copy(out, s.processed)
	return out
}

func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.processed)
}

// Reset clears the processed set, as on a database clear.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = nil
	s.seen = make(map[string]bool)
}
