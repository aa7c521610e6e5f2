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

package mod

import (
	"fmt"

	"github.com/zkevm-arith/zktracer/module"
	"github.com/zkevm-arith/zktracer/trace"
)

// limbs is the number of 64-bit limbs of a word in the theta decomposition.
const limbs = 4

// Column indices. The per-limb groups are laid out limb 0 (least significant)
// first.
const (
	colStamp = iota
	colOli
	colMli
	colCt
	colInst
	colSigned
	colDecOutput
	colArg1Hi
	colArg1Lo
	colArg2Hi
	colArg2Lo
	colResHi
	colResLo

	// Everything from here on is derived from the operands and is zero on
	// one-line rows.
	colCmp1
	colCmp2
	colMsb1
	colMsb2
	colAlpha
	colBeta
	colAcc1
	colByte1     = colAcc1 + limbs
	colAcc2      = colByte1 + limbs
	colByte2     = colAcc2 + limbs
	colAccQ      = colByte2 + limbs
	colByteQ     = colAccQ + limbs
	colAccR      = colByteQ + limbs
	colByteR     = colAccR + limbs
	colAccDelta  = colByteR + limbs
	colByteDelta = colAccDelta + limbs
	colAccH      = colByteDelta + limbs
	colByteH     = colAccH + 3
	numColumns   = colByteH + 3
)

// Name of the module, prefix of its columns.
var Name = module.Mod.Name()

// Columns of the mod table.
var Columns = declareColumns()

func declareColumns() []trace.Column {
	cols := make([]trace.Column, numColumns)
	set := func(i int, name string, width int) {
		cols[i] = trace.Column{Name: name, Width: width}
	}
	set(colStamp, "STAMP", 4)
	set(colOli, "OLI", 1)
	set(colMli, "MLI", 1)
	set(colCt, "CT", 1)
	set(colInst, "INST", 1)
	set(colSigned, "SIGNED", 1)
	set(colDecOutput, "DEC_OUTPUT", 1)
	set(colArg1Hi, "ARG_1_HI", 16)
	set(colArg1Lo, "ARG_1_LO", 16)
	set(colArg2Hi, "ARG_2_HI", 16)
	set(colArg2Lo, "ARG_2_LO", 16)
	set(colResHi, "RES_HI", 16)
	set(colResLo, "RES_LO", 16)
	set(colCmp1, "CMP_1", 1)
	set(colCmp2, "CMP_2", 1)
	set(colMsb1, "MSB_1", 1)
	set(colMsb2, "MSB_2", 1)
	set(colAlpha, "ALPHA", 1)
	set(colBeta, "BETA", 1)
	for k := 0; k < limbs; k++ {
		set(colAcc1+k, fmt.Sprintf("ACC_1_%d", k), 8)
		set(colByte1+k, fmt.Sprintf("BYTE_1_%d", k), 1)
		set(colAcc2+k, fmt.Sprintf("ACC_2_%d", k), 8)
		set(colByte2+k, fmt.Sprintf("BYTE_2_%d", k), 1)
		set(colAccQ+k, fmt.Sprintf("ACC_Q_%d", k), 8)
		set(colByteQ+k, fmt.Sprintf("BYTE_Q_%d", k), 1)
		set(colAccR+k, fmt.Sprintf("ACC_R_%d", k), 8)
		set(colByteR+k, fmt.Sprintf("BYTE_R_%d", k), 1)
		set(colAccDelta+k, fmt.Sprintf("ACC_DELTA_%d", k), 8)
		set(colByteDelta+k, fmt.Sprintf("BYTE_DELTA_%d", k), 1)
	}
	for k := 0; k < 3; k++ {
		set(colAccH+k, fmt.Sprintf("ACC_H_%d", k), 8)
		set(colByteH+k, fmt.Sprintf("BYTE_H_%d", k), 1)
	}
	return trace.Declare(Name, cols...)
}
