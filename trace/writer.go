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

import (
	"encoding/binary"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/holiman/uint256"
)

// Writer fills one fixed-width buffer per column, one row at a time. Every
// column has to be written exactly once before a row is sealed with
// ValidateRow; the write cursor only moves forward.
type Writer struct {
	columns []Column
	regions [][]byte
	filled  *bitset.BitSet

	row      int // index of the row being filled
	capacity int
}

// NewWriter creates a writer over the given column regions. Each region must
// hold the same number of rows of its column.
func NewWriter(columns []Column, regions [][]byte) *Writer {
	if len(columns) != len(regions) {
		Fail("%d columns but %d regions", len(columns), len(regions))
	}
	capacity := -1
	for i, c := range columns {
		if len(regions[i])%c.Width != 0 {
			Fail("region of %s is not a multiple of its width", c.Name)
		}
		rows := len(regions[i]) / c.Width
		if capacity >= 0 && rows != capacity {
			Fail("region of %s holds %d rows, expected %d", c.Name, rows, capacity)
		}
		capacity = rows
	}
	if capacity < 0 {
		capacity = 0
	}
	return &Writer{
		columns:  columns,
		regions:  regions,
		filled:   bitset.New(uint(len(columns))),
		capacity: capacity,
	}
}

// NewMemoryWriter creates a writer backed by freshly allocated buffers.
func NewMemoryWriter(columns []Column, rows int) *Writer {
	regions := make([][]byte, len(columns))
	for i, c := range columns {
		regions[i] = make([]byte, c.Width*rows)
	}
	return NewWriter(columns, regions)
}

// Set writes the big-endian value v into column i of the current row. Leading
// zero bytes are ignored; the value is left-padded to the column width.
func (w *Writer) Set(i int, v []byte) {
	if i < 0 || i >= len(w.columns) {
		Fail("column index %d out of range", i)
	}
	col := w.columns[i]
	if w.filled.Test(uint(i)) {
		Fail("%s written twice in row %d", col.Name, w.row)
	}
	if w.row >= w.capacity {
		Fail("%s: row %d beyond capacity %d", col.Name, w.row, w.capacity)
	}
	for len(v) > 0 && v[0] == 0 {
		v = v[1:]
	}
	if len(v) > col.Width {
		Fail("%s: %d byte value overflows %d byte column", col.Name, len(v), col.Width)
	}
	dst := w.regions[i][w.row*col.Width : (w.row+1)*col.Width]
	pad := col.Width - len(v)
	clear(dst[:pad])
	copy(dst[pad:], v)
	w.filled.Set(uint(i))
}

// SetUint64 writes v into column i of the current row.
func (w *Writer) SetUint64(i int, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	w.Set(i, buf[:])
}

// SetBool writes 1 or 0 into column i of the current row.
func (w *Writer) SetBool(i int, b bool) {
	if b {
		w.Set(i, []byte{1})
	} else {
		w.Set(i, nil)
	}
}

// SetUint256 writes the word v into column i of the current row.
func (w *Writer) SetUint256(i int, v *uint256.Int) {
	b := v.Bytes32()
	w.Set(i, b[:])
}

// SetZero marks column i of the current row as written with zero.
func (w *Writer) SetZero(i int) {
	w.Set(i, nil)
}

// ValidateRow seals the current row. Every column must have been written.
func (w *Writer) ValidateRow() {
	if int(w.filled.Count()) != len(w.columns) {
		var missing []string
		for i, c := range w.columns {
			if !w.filled.Test(uint(i)) {
				missing = append(missing, c.Name)
			}
		}
		Fail("row %d: unset columns %s", w.row, strings.Join(missing, ", "))
	}
	w.filled.ClearAll()
	w.row++
}

// FillAndValidateRow writes zero into every column not yet set and seals the
// row. It is used to pad a table up to the trace height.
func (w *Writer) FillAndValidateRow() {
	for i := range w.columns {
		if !w.filled.Test(uint(i)) {
			w.SetZero(i)
		}
	}
	w.ValidateRow()
}

// Rows returns the number of sealed rows.
func (w *Writer) Rows() int { return w.row }

// Capacity returns the number of rows the buffers can hold.
func (w *Writer) Capacity() int { return w.capacity }

// Columns returns the columns the writer fills, in region order.
func (w *Writer) Columns() []Column { return w.columns }

// Value returns the bytes of column i in a sealed row.
func (w *Writer) Value(i, row int) []byte {
	if row >= w.row {
		Fail("read of unsealed row %d", row)
	}
	width := w.columns[i].Width
	return w.regions[i][row*width : (row+1)*width]
}

func (w *Writer) Uint256(i, row int) *uint256.Int {
	return new(uint256.Int).SetBytes(w.Value(i, row))
}

func (w *Writer) Uint64(i, row int) uint64 {
	v := w.Uint256(i, row)
	if !v.IsUint64() {
		Fail("%s row %d does not fit 64 bits", w.columns[i].Name, row)
	}
	return v.Uint64()
}

func (w *Writer) Bool(i, row int) bool {
	return !w.Uint256(i, row).IsZero()
}
