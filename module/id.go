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

import (
	"fmt"
	"strings"
)

// ID names one of the modules the tracer knows about. The set is closed: a
// protocol version defines which modules exist.
type ID int

const (
	Add ID = iota
	Mod
	BlockData
	RomLex
	numIDs
)

var idNames = [numIDs]struct {
	name  string // column prefix
	limit string // key in the traces-limits table
}{
	Add:       {"add", "ADD"},
	Mod:       {"mod", "MOD"},
	BlockData: {"blockdata", "BLOCK_DATA"},
	RomLex:    {"romlex", "ROMLEX"},
}

// All returns every known module ID.
func All() []ID {
	ids := make([]ID, numIDs)
	for i := range ids {
		ids[i] = ID(i)
	}
	return ids
}

func (id ID) valid() bool { return id >= 0 && id < numIDs }

// Name returns the module name, used as the column prefix.
func (id ID) Name() string {
	if !id.valid() {
		return fmt.Sprintf("module(%d)", int(id))
	}
	return idNames[id].name
}

// LimitKey returns the key of the module in a traces-limits table.
func (id ID) LimitKey() string {
	if !id.valid() {
		return ""
	}
	return idNames[id].limit
}

func (id ID) String() string { return id.Name() }

// ParseID resolves a module by its name or limit key, ignoring case.
func ParseID(s string) (ID, error) {
	for i, n := range idNames {
		if strings.EqualFold(s, n.name) || strings.EqualFold(s, n.limit) {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown module %q", s)
}
