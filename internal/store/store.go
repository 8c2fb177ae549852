// Package store keeps the bounded in-memory window of recent event
// records. The buffer is process-wide: the webhook handler appends and
// the query handlers read, so every operation runs under the store's
// lock and insert-and-evict is a single critical section.
package store

import (
	"sync"

	"stackwatch/internal/model"
)

// DefaultCapacity is the retention window used when none is configured.
const DefaultCapacity = 100

// Store is a fixed-capacity ring of event records, newest first.
type Store struct {
	mu   sync.RWMutex
	buf  []model.EventRecord
	head int
	size int
}

// New creates an empty store with the given retention capacity.
// Non-positive capacities fall back to DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{buf: make([]model.EventRecord, capacity)}
}

// Append inserts each record at the head in batch order, so the last
// record of a batch is the newest. Once the ring is full the oldest
// entries are overwritten in the same locked section, and readers never
// observe an over-capacity state.
func (s *Store) Append(records []model.EventRecord) {
	if len(records) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		s.head = (s.head - 1 + len(s.buf)) % len(s.buf)
		s.buf[s.head] = rec
		if s.size < len(s.buf) {
			s.size++
		}
	}
}

// Recent returns up to limit records, newest first. The limit is
// clamped to the current size, and therefore to the retention capacity,
// regardless of the requested value.
func (s *Store) Recent(limit int) []model.EventRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 0 {
		limit = 0
	}
	if limit > s.size {
		limit = s.size
	}
	return s.snapshot(limit)
}

// All returns a copy of the full current contents, newest first. Used
// for aggregation; not exposed externally.
func (s *Store) All() []model.EventRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(s.size)
}

// Len returns the number of records currently retained.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Capacity returns the retention capacity.
func (s *Store) Capacity() int {
	return len(s.buf)
}

func (s *Store) snapshot(n int) []model.EventRecord {
	out := make([]model.EventRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.buf[(s.head+i)%len(s.buf)])
	}
	return out
}
