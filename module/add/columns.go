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

package add

import (
	"github.com/zkevm-arith/zktracer/module"
	"github.com/zkevm-arith/zktracer/trace"
)

const (
	colStamp = iota
	colCt
	colCtMax
	colInst
	colArg1Hi
	colArg1Lo
	colArg2Hi
	colArg2Lo
	colResHi
	colResLo
	colByte1
	colByte2
	colAcc1
	colAcc2
	colOverflow
	colCarryLo
	numColumns
)

var Name = module.Add.Name()

// Columns of the add table. BYTE_1/ACC_1 decompose RES_HI, BYTE_2/ACC_2
// decompose RES_LO.
var Columns = trace.Declare(Name,
	trace.Column{Name: "STAMP", Width: 4},
	trace.Column{Name: "CT", Width: 1},
	trace.Column{Name: "CT_MAX", Width: 1},
	trace.Column{Name: "INST", Width: 1},
	trace.Column{Name: "ARG_1_HI", Width: 16},
	trace.Column{Name: "ARG_1_LO", Width: 16},
	trace.Column{Name: "ARG_2_HI", Width: 16},
	trace.Column{Name: "ARG_2_LO", Width: 16},
	trace.Column{Name: "RES_HI", Width: 16},
	trace.Column{Name: "RES_LO", Width: 16},
	trace.Column{Name: "BYTE_1", Width: 1},
	trace.Column{Name: "BYTE_2", Width: 1},
	trace.Column{Name: "ACC_1", Width: 16},
	trace.Column{Name: "ACC_2", Width: 16},
	trace.Column{Name: "OVERFLOW", Width: 1},
	trace.Column{Name: "CARRY_LO", Width: 1},
)
