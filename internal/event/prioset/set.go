package prioset

import "sort"

// Set is a priority-ordered, insertion-stable collection.
// It is not safe for concurrent writers; owners serialize calls to Add.
type Set[T any] struct {
	items    []T
	priority func(T) int
}

// New creates a set that orders elements by the given priority function.
// Lower priorities come first.
func New[T any](capacity int, priority func(T) int) *Set[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Set[T]{
		items:    make([]T, 0, capacity),
		priority: priority,
	}
}

// Add inserts v after every element whose priority is less than or equal to v's.
func (s *Set[T]) Add(v T) {
	p := s.priority(v)
	idx := sort.Search(len(s.items), func(i int) bool {
		return s.priority(s.items[i]) > p
	})

	next := make([]T, len(s.items)+1, max(cap(s.items), len(s.items)+1))
	copy(next, s.items[:idx])
	next[idx] = v
	copy(next[idx+1:], s.items[idx:])
	s.items = next
}

// Len returns the number of elements.
func (s *Set[T]) Len() int {
	return len(s.items)
}

// Items returns the current elements in order. The returned slice is never
// modified by later writes and must not be modified by the caller.
func (s *Set[T]) Items() []T {
	return s.items
}
