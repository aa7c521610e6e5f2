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
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/edsrzf/mmap-go"
	"github.com/ethereum/go-ethereum/rlp"
)

// fileMagic prefixes every trace file.
var fileMagic = []byte("zktrace\x01")

var (
	errBadMagic  = errors.New("not a trace file")
	errTruncated = errors.New("trace file truncated")
)

// fileHeader is the RLP encoded description of the column regions following it.
type fileHeader struct {
	Rows    uint64
	Columns []fileColumn
}

type fileColumn struct {
	Name  string
	Width uint64
}

// File is a memory mapped trace file: the magic, a length-prefixed RLP header,
// then every column's rows back to back, each column in its own region.
type File struct {
	path string
	temp string // set while the file is being generated

	dump *os.File
	mem  mmap.MMap

	columns []Column
	rows    int
	regions [][]byte
	index   map[string]int
}

// Create allocates a trace file for rows rows of the given columns and maps it
// for writing. The data lands in a temporary file which Commit moves into place.
func Create(path string, columns []Column, rows int) (*File, error) {
	hdr := fileHeader{Rows: uint64(rows), Columns: make([]fileColumn, len(columns))}
	for i, c := range columns {
		hdr.Columns[i] = fileColumn{Name: c.Name, Width: uint64(c.Width)}
	}
	enc, err := rlp.EncodeToBytes(&hdr)
	if err != nil {
		return nil, err
	}
	prefix := len(fileMagic) + 4 + len(enc)
	size := prefix + Size(columns, rows)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	temp := path + "." + strconv.Itoa(rand.Int())
	dump, err := os.Create(temp)
	if err != nil {
		return nil, err
	}
	if err := dump.Truncate(int64(size)); err != nil {
		dump.Close()
		os.Remove(temp)
		return nil, err
	}
	mem, err := mmap.Map(dump, mmap.RDWR, 0)
	if err != nil {
		dump.Close()
		os.Remove(temp)
		return nil, err
	}
	copy(mem, fileMagic)
	binary.BigEndian.PutUint32(mem[len(fileMagic):], uint32(len(enc)))
	copy(mem[len(fileMagic)+4:], enc)

	f := &File{path: path, temp: temp, dump: dump, mem: mem, columns: columns, rows: rows}
	f.slice(prefix)
	return f, nil
}

// Open maps an existing trace file read-only.
func Open(path string) (*File, error) {
	dump, err := os.OpenFile(path, os.O_RDONLY, 0644)
	if err != nil {
		return nil, err
	}
	mem, err := mmap.Map(dump, mmap.RDONLY, 0)
	if err != nil {
		dump.Close()
		return nil, err
	}
	f := &File{path: path, dump: dump, mem: mem}
	if err := f.parse(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func (f *File) parse() error {
	if len(f.mem) < len(fileMagic)+4 {
		return errTruncated
	}
	if !bytes.Equal(f.mem[:len(fileMagic)], fileMagic) {
		return errBadMagic
	}
	n := int(binary.BigEndian.Uint32(f.mem[len(fileMagic):]))
	start := len(fileMagic) + 4
	if len(f.mem) < start+n {
		return errTruncated
	}
	var hdr fileHeader
	if err := rlp.DecodeBytes(f.mem[start:start+n], &hdr); err != nil {
		return err
	}
	f.rows = int(hdr.Rows)
	f.columns = make([]Column, len(hdr.Columns))
	for i, c := range hdr.Columns {
		if c.Width == 0 {
			return fmt.Errorf("column %s has no width", c.Name)
		}
		f.columns[i] = Column{Name: c.Name, Width: int(c.Width)}
	}
	if len(f.mem) != start+n+Size(f.columns, f.rows) {
		return errTruncated
	}
	f.slice(start + n)
	return nil
}

// slice carves the column regions out of the mapping, starting at offset.
func (f *File) slice(offset int) {
	f.regions = make([][]byte, len(f.columns))
	f.index = make(map[string]int, len(f.columns))
	for i, c := range f.columns {
		size := c.Width * f.rows
		f.regions[i] = f.mem[offset : offset+size : offset+size]
		f.index[c.Name] = i
		offset += size
	}
}

func (f *File) Columns() []Column { return f.columns }
func (f *File) Rows() int { return f.rows }

// Region returns the raw rows of the named column.
func (f *File) Region(name string) ([]byte, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.regions[i], true
}

// Writer returns a writer over the regions of the given columns, all of which
// must be part of the file. Writers over disjoint column sets may be used
// concurrently.
func (f *File) Writer(columns []Column) (*Writer, error) {
	regions := make([][]byte, len(columns))
	for i, c := range columns {
		j, ok := f.index[c.Name]
		if !ok {
			return nil, fmt.Errorf("column %s not in trace file", c.Name)
		}
		if f.columns[j].Width != c.Width {
			return nil, fmt.Errorf("column %s: width %d, file has %d", c.Name, c.Width, f.columns[j].Width)
		}
		regions[i] = f.regions[j]
	}
	return NewWriter(columns, regions), nil
}

// Commit flushes a created file to disk and moves it to its final path.
func (f *File) Commit() error {
	if f.temp == "" {
		return errors.New("trace file not opened for writing")
	}
	if err := f.mem.Flush(); err != nil {
		f.Discard()
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.temp)
		return err
	}
	return os.Rename(f.temp, f.path)
}

// Discard releases a created file without publishing it.
func (f *File) Discard() {
	f.Close()
	if f.temp != "" {
		os.Remove(f.temp)
	}
}

// Close unmaps the file.
func (f *File) Close() error {
	var err error
	if f.mem != nil {
		err = f.mem.Unmap()
		f.mem = nil
	}
	if f.dump != nil {
		if cerr := f.dump.Close(); err == nil {
			err = cerr
		}
		f.dump = nil
	}
	f.regions = nil
	return err
}
