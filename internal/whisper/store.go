package whisper

import (
	"fmt"
	"sync"
)

// SegmentStore holds the segments of one run in the order they were produced.
// It grows while the run is in progress and is frozen afterwards.
type SegmentStore struct {
	mu       sync.RWMutex
	segments []Segment
	frozen   bool
}

func newSegmentStore() *SegmentStore { return &SegmentStore{} }

func (s *SegmentStore) append(batch ...Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		panic("whisper: append to frozen segment store")
	}
	s.segments = append(s.segments, batch...)
}

func (s *SegmentStore) freeze() {
	s.mu.Lock()
	s.frozen = true
	s.mu.Unlock()
}

// Frozen reports whether the owning run has completed.
func (s *SegmentStore) Frozen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen
}

// Len returns the number of segments.
func (s *SegmentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.segments)
}

// At returns segment i or ErrOutOfRange.
func (s *SegmentStore) At(i int) (Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.segments) {
		return Segment{}, fmt.Errorf("%w: segment index %d not in [0, %d)", ErrOutOfRange, i, len(s.segments))
	}
	return s.segments[i], nil
}

// Snapshot returns a copy of all segments.
func (s *SegmentStore) Snapshot() []Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Segment(nil), s.segments...)
}
