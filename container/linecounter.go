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

// Package container implements the two-tier speculative buffers modules record
// their operations into. Every container keeps a committed tier, holding what is
// already part of the conflation, and a pending tier, holding what the current
// transaction recorded and what may still be discarded.
package container

import "github.com/zkevm-arith/zktracer/trace"

// LineCounter tracks the number of trace rows a container will produce without
// materializing them. It mirrors the committed/pending split of its container.
type LineCounter struct {
	committed int
	pending   int
}

// Add charges n rows to the pending tier.
func (c *LineCounter) Add(n int) {
	if n < 0 {
		trace.Fail("container: negative line count %d", n)
	}
	c.pending += n
}

// Enter moves the pending rows into the committed tier.
func (c *LineCounter) Enter() {
	c.committed += c.pending
	c.pending = 0
}

// Pop discards the pending rows.
func (c *LineCounter) Pop() {
	c.pending = 0
}

// LineCount returns the total number of rows across both tiers.
func (c *LineCounter) LineCount() int {
	return c.committed + c.pending
}

// Committed returns the rows retained so far.
func (c *LineCounter) Committed() int { return c.committed }

// Pending returns the rows of the current speculative region.
func (c *LineCounter) Pending() int { return c.pending }
