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

package module

// Stamp numbers the operations of a module in the order they are traced. It is
// owned by a single commit pass; the first stamp is 1.
type Stamp struct {
	n uint64
}

// Next advances the stamp and returns the new value.
func (s *Stamp) Next() uint64 {
	s.n++
	return s.n
}

// Current returns the last stamp handed out, zero before the first.
func (s *Stamp) Current() uint64 { return s.n }
