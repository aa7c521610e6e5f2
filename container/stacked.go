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

import "github.com/zkevm-arith/zktracer/trace"

// Countable is implemented by everything stored in a stacked container: the
// number of trace rows the item expands into must be known when it is recorded.
type Countable interface {
	LineCount() int
}

// Keyed is a Countable identified by an operand key. Two items with the same key
// describe the same computation and are traced once per conflation.
type Keyed[K comparable] interface {
	Countable
	Key() K
}

// freezer holds the conflation-level state shared by every container.
type freezer struct {
	frozen bool
}

func (f *freezer) mutating(op string) {
	if f.frozen {
		trace.Fail("container: %s after conflation was finished", op)
	}
}

func (f *freezer) reading() {
	if !f.frozen {
		trace.Fail("container: read of all items before conflation was finished")
	}
}

// Frozen reports whether FinishConflation has been called.
func (f *freezer) Frozen() bool { return f.frozen }

// StackedList is an ordered two-tier list. Items are never deduplicated.
type StackedList[T Countable] struct {
	freezer
	committed []T
	pending   []T
	lines     LineCounter
}

// NewStackedList creates an empty list.
func NewStackedList[T Countable]() *StackedList[T] {
	return new(StackedList[T])
}

// Add appends t to the pending tier and charges its rows.
func (l *StackedList[T]) Add(t T) {
	l.mutating("add")
	l.pending = append(l.pending, t)
	l.lines.Add(t.LineCount())
}

// Enter makes the pending items permanent for this conflation.
func (l *StackedList[T]) Enter() {
	l.mutating("enter")
	l.committed = append(l.committed, l.pending...)
	l.pending = l.pending[:0]
	l.lines.Enter()
}

// Pop discards the pending items as if they had never been recorded.
func (l *StackedList[T]) Pop() {
	l.mutating("pop")
	clear(l.pending)
	l.pending = l.pending[:0]
	l.lines.Pop()
}

// FinishConflation flushes the pending tier and freezes the list.
func (l *StackedList[T]) FinishConflation() {
	l.Enter()
	l.frozen = true
}

// All returns every item in insertion order. It may only be called once the
// list is frozen.
func (l *StackedList[T]) All() []T {
	l.reading()
	return l.committed
}

// Last returns the most recently added item, if any.
func (l *StackedList[T]) Last() (T, bool) {
	if n := len(l.pending); n > 0 {
		return l.pending[n-1], true
	}
	if n := len(l.committed); n > 0 {
		return l.committed[n-1], true
	}
	var zero T
	return zero, false
}

func (l *StackedList[T]) Size() int { return len(l.committed) + len(l.pending) }
func (l *StackedList[T]) LineCount() int { return l.lines.LineCount() }
