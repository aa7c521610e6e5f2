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

// StackedMap is a two-tier key/value store for auxiliary module state which has
// to roll back together with the operations it was derived from. Writes land in
// the pending tier and shadow the committed value until Enter or Pop.
type StackedMap[K comparable, V any] struct {
	freezer
	committed map[K]V
	pending   map[K]V
}

// NewStackedMap creates an empty map.
func NewStackedMap[K comparable, V any]() *StackedMap[K, V] {
	return &StackedMap[K, V]{
		committed: make(map[K]V),
		pending:   make(map[K]V),
	}
}

// Get returns the current value for k, looking at the pending tier first.
func (m *StackedMap[K, V]) Get(k K) (V, bool) {
	if v, ok := m.pending[k]; ok {
		return v, true
	}
	v, ok := m.committed[k]
	return v, ok
}

// Set records v for k in the pending tier.
func (m *StackedMap[K, V]) Set(k K, v V) {
	m.mutating("set")
	m.pending[k] = v
}

// Enter makes the pending writes permanent.
func (m *StackedMap[K, V]) Enter() {
	m.mutating("enter")
	for k, v := range m.pending {
		m.committed[k] = v
	}
	clear(m.pending)
}

// Pop discards the pending writes.
func (m *StackedMap[K, V]) Pop() {
	m.mutating("pop")
	clear(m.pending)
}

// FinishConflation flushes the pending tier and freezes the map.
func (m *StackedMap[K, V]) FinishConflation() {
	m.Enter()
	m.frozen = true
}

// Len returns the number of distinct keys across both tiers.
func (m *StackedMap[K, V]) Len() int {
	n := len(m.committed)
	for k := range m.pending {
		if _, ok := m.committed[k]; !ok {
			n++
		}
	}
	return n
}
