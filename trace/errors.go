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

package trace

import "fmt"

// ConsistencyError is raised, through a panic, when the trace being produced
// would not satisfy the constraints it is generated for: a column written twice
// or not at all, a value wider than its column, a decomposition whose carry
// exceeds its width. These are bugs in the generator and must never be
// clamped; the conflation being traced is abandoned.
type ConsistencyError struct {
	msg string
}

func (e *ConsistencyError) Error() string {
	return "trace consistency failure: " + e.msg
}

// Fail aborts trace generation with a ConsistencyError.
func Fail(format string, args ...any) {
	panic(&ConsistencyError{msg: fmt.Sprintf(format, args...)})
}
