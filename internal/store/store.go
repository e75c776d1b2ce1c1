// Package store provides the fixed-capacity sample history shared by the
// sampling and policy tasks.
package store

import (
	"iter"
	"sync"
	"time"
)

// Sample is a single timestamped temperature reading.
type Sample struct {
	Time  time.Time
	Value float64
}

// Store is a fixed-capacity circular buffer of samples. Once full, each
// Append overwrites the oldest sample.
//
// Store is safe for one writer and concurrent readers. An iteration holds the
// read lock until it finishes, so the yield callback must not call Append.
type Store struct {
	mu       sync.RWMutex
	buf      []Sample
	capacity int
	head     int // next write position
	count    int
	written  uint64
}

// New allocates a store holding at most capacity samples.
func New(capacity int) *Store {
	if capacity < 1 {
		panic("store: capacity must be >= 1")
	}
	return &Store{
		buf:      make([]Sample, capacity),
		capacity: capacity,
	}
}

// Append writes s into the next slot.
func (s *Store) Append(sample Sample) {
	s.mu.Lock()
	s.buf[s.head] = sample
	s.head = (s.head + 1) % s.capacity
	if s.count < s.capacity {
		s.count++
	}
	s.written++
	s.mu.Unlock()
}

// SnapshotSince yields, oldest first, every stored sample whose timestamp lies
// in [now-window, now]. Samples are yielded in write order; out-of-order
// timestamps are filtered individually, never reordered.
func (s *Store) SnapshotSince(now time.Time, window time.Duration) iter.Seq[Sample] {
	from := now.Add(-window)
	return func(yield func(Sample) bool) {
		s.mu.RLock()
		defer s.mu.RUnlock()

		start := (s.head - s.count + s.capacity) % s.capacity
		for i := 0; i < s.count; i++ {
			sample := s.buf[(start+i)%s.capacity]
			if sample.Time.Before(from) || sample.Time.After(now) {
				continue
			}
			if !yield(sample) {
				return
			}
		}
	}
}

// All yields every retained sample, oldest first.
func (s *Store) All() iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		s.mu.RLock()
		defer s.mu.RUnlock()

		start := (s.head - s.count + s.capacity) % s.capacity
		for i := 0; i < s.count; i++ {
			if !yield(s.buf[(start+i)%s.capacity]) {
				return
			}
		}
	}
}

// Len returns the number of retained samples.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Cap returns the fixed capacity.
func (s *Store) Cap() int {
	return s.capacity
}

// Written returns the number of samples appended since New, including those
// since overwritten.
func (s *Store) Written() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.written
}
