// Copyright 2026 The zktracer Authors
// This file is part of the zktracer library.
//
// The zktracer library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The zktracer library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the zktracer library. If not, see <http://www.gnu.org/licenses/>.

package container

// tier is one generation of a DedupSet: an insertion-ordered set of items.
type tier[K comparable, T Keyed[K]] struct {
	items []T
	index map[K]int
}

func newTier[K comparable, T Keyed[K]]() tier[K, T] {
	return tier[K, T]{index: make(map[K]int)}
}

func (t *tier[K, T]) get(k K) (T, bool) {
	if i, ok := t.index[k]; ok {
		return t.items[i], true
	}
	var zero T
	return zero, false
}

func (t *tier[K, T]) insert(k K, item T) {
	t.index[k] = len(t.items)
	t.items = append(t.items, item)
}

func (t *tier[K, T]) reset() {
	clear(t.items)
	t.items = t.items[:0]
	clear(t.index)
}

// DedupSet is a two-tier set whose items are identified by their operand key.
// An item whose key was already recorded in this conflation, in either tier, is
// not recorded again and its rows are charged only once.
type DedupSet[K comparable, T Keyed[K]] struct {
	freezer
	committed tier[K, T]
	pending   tier[K, T]
	lines     LineCounter
}

// NewDedupSet creates an empty set.
func NewDedupSet[K comparable, T Keyed[K]]() *DedupSet[K, T] {
	return &DedupSet[K, T]{
		committed: newTier[K, T](),
		pending:   newTier[K, T](),
	}
}

// Add records t unless an item with the same key is already known. It reports
// whether t was newly added.
func (s *DedupSet[K, T]) Add(t T) bool {
	s.mutating("add")
	k := t.Key()
	if _, ok := s.committed.index[k]; ok {
		return false
	}
	if _, ok := s.pending.index[k]; ok {
		return false
	}
	s.pending.insert(k, t)
	s.lines.Add(t.LineCount())
	return true
}

// Get returns the recorded item with key k.
func (s *DedupSet[K, T]) Get(k K) (T, bool) {
	if t, ok := s.committed.get(k); ok {
		return t, true
	}
	return s.pending.get(k)
}

// Contains reports whether an item with key k was recorded in either tier.
func (s *DedupSet[K, T]) Contains(k K) bool {
	_, ok := s.Get(k)
	return ok
}

// Enter makes the pending items permanent for this conflation.
func (s *DedupSet[K, T]) Enter() {
	s.mutating("enter")
	for _, t := range s.pending.items {
		s.committed.insert(t.Key(), t)
	}
	s.pending.reset()
	s.lines.Enter()
}

// Pop discards the pending items.
func (s *DedupSet[K, T]) Pop() {
	s.mutating("pop")
	s.pending.reset()
	s.lines.Pop()
}

// FinishConflation flushes the pending tier and freezes the set.
func (s *DedupSet[K, T]) FinishConflation() {
	s.Enter()
	s.frozen = true
}

// All returns every item in first-insertion order. It may only be called once
// the set is frozen.
func (s *DedupSet[K, T]) All() []T {
	s.reading()
	return s.committed.items
}

func (s *DedupSet[K, T]) Size() int { return len(s.committed.items) + len(s.pending.items) }
func (s *DedupSet[K, T]) LineCount() int { return s.lines.LineCount() }
