package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry records one spoken exchange: what the user asked and what the
// assistant said back, apology text included.
type Entry struct {
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Store keeps the most recent exchanges in insertion order, bounded to a
// fixed maximum. A single writer (the dispatcher) appends; any goroutine
// may read. Reads return copied slices, never internal state.
type Store struct {
	mu      sync.RWMutex
	max     int
	entries []Entry
}

// NewStore creates a store bounded to max entries.
func NewStore(max int) *Store {
	if max < 1 {
		max = 1
	}
	return &Store{
		max:     max,
		entries: make([]Entry, 0, max),
	}
}

// Append records an exchange, evicting the oldest entry when the bound
// would be exceeded.
func (s *Store) Append(command, response string) Entry {
	entry := Entry{
		ID:        uuid.NewString(),
		Command:   command,
		Response:  response,
		Timestamp: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	if len(s.entries) > s.max {
		over := len(s.entries) - s.max
		s.entries = append(s.entries[:0], s.entries[over:]...)
	}
	return entry
}

// Recent returns up to n entries, oldest first. The result is a copy.
func (s *Store) Recent(n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > len(s.entries) {
		n = len(s.entries)
	}
	if n <= 0 {
		return nil
	}
	out := make([]Entry, n)
	copy(out, s.entries[len(s.entries)-n:])
	return out
}

// Len returns the current number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear empties the store. Used at shutdown or reset only.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
}
