package history

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// ring is a fixed-capacity buffer that overwrites its oldest entry.
type ring[T any] struct {
	items []T
	next  int
	full  bool
}

func newRing[T any](size int) *ring[T] {
	return &ring[T]{items: make([]T, size)}
}

func (r *ring[T]) push(v T) {
	r.items[r.next] = v
	r.next = (r.next + 1) % len(r.items)
	if r.next == 0 {
		r.full = true
	}
}

// newest returns up to n entries, newest first.
func (r *ring[T]) newest(n int) []T {
	count := r.next
	if r.full {
		count = len(r.items)
	}
	n = min(n, count)

	out := make([]T, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.items)) % len(r.items)
		out = append(out, r.items[idx])
	}
	return out
}

// find returns the newest entry matching keep.
func (r *ring[T]) find(keep func(T) bool) (T, bool) {
	for _, v := range r.newest(len(r.items)) {
		if keep(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// MemoryStore keeps bounded history in memory.
type MemoryStore struct {
	mu         sync.RWMutex
	detections *ring[Detection]
	searches   *ring[Search]
}

// NewMemoryStore creates a store that keeps the last size records of each
// kind. A non-positive size uses DefaultSize.
func NewMemoryStore(size int) *MemoryStore {
	if size <= 0 {
		size = DefaultSize
	}
	return &MemoryStore{
		detections: newRing[Detection](size),
		searches:   newRing[Search](size),
	}
}

// RecordDetection stores a detection.
func (s *MemoryStore) RecordDetection(_ context.Context, d Detection) error {
	stamp(&d.ID, &d.CreatedAt)
	d.Scores = append([]float32(nil), d.Scores...)

	s.mu.Lock()
	s.detections.push(d)
	s.mu.Unlock()
	return nil
}

// RecordSearch stores a search.
func (s *MemoryStore) RecordSearch(_ context.Context, rec Search) error {
	stamp(&rec.ID, &rec.CreatedAt)

	s.mu.Lock()
	s.searches.push(rec)
	s.mu.Unlock()
	return nil
}

// Recent returns up to limit records of each kind, newest first.
func (s *MemoryStore) Recent(_ context.Context, limit int) (Snapshot, error) {
	limit = ClampLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Detections: s.detections.newest(limit),
		Searches:   s.searches.newest(limit),
	}, nil
}

// Detection returns the stored detection with the given id.
func (s *MemoryStore) Detection(_ context.Context, id uuid.UUID) (Detection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.detections.find(func(d Detection) bool { return d.ID == id })
	if !ok {
		return Detection{}, ErrNotFound
	}
	return d, nil
}

// Search returns the stored search with the given id.
func (s *MemoryStore) Search(_ context.Context, id uuid.UUID) (Search, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.searches.find(func(rec Search) bool { return rec.ID == id })
	if !ok {
		return Search{}, ErrNotFound
	}
	return rec, nil
}
