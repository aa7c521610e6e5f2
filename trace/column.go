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

// Package trace implements the columnar output of the tracer: fixed-width
// column buffers written row by row, and the file they are persisted in.
package trace

import "fmt"

// Column is the header of one output column. Name is the fully qualified name
// the proving system binds the column by ("module.COLUMN_NAME"); Width is the
// number of bytes every row of the column occupies.
type Column struct {
	Name  string
	Width int
}

func (c Column) String() string {
	return fmt.Sprintf("%s[%d]", c.Name, c.Width)
}

// Declare qualifies a module's columns with the module name.
func Declare(module string, columns ...Column) []Column {
	out := make([]Column, len(columns))
	for i, c := range columns {
		if c.Width <= 0 {
			panic(fmt.Sprintf("trace: column %s.%s has no width", module, c.Name))
		}
		out[i] = Column{Name: module + "." + c.Name, Width: c.Width}
	}
	return out
}

// Size returns the number of bytes rows rows of the given columns occupy.
func Size(columns []Column, rows int) int {
	var size int
	for _, c := range columns {
		size += c.Width * rows
	}
	return size
}
