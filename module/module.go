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

// Package module defines the protocol every trace-producing module follows:
// operations are recorded into stacked containers while blocks execute, and
// expanded into rows once the conflation is over.
package module

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
	"github.com/zkevm-arith/zktracer/trace"
)

// Module is an independent trace-producing unit, one per arithmetization table.
//
// A module is created at the start of a conflation. Transactions are bracketed
// by EnterTransaction and either CommitTransaction or PopTransaction;
// entering a new transaction retains whatever the previous one recorded.
// FinishConflation freezes the module, after which only LineCount and Commit
// are allowed.
type Module interface {
	Name() string
	Columns() []trace.Column

	// LineCount is the number of rows Commit will emit. It is valid at any
	// time and does not expand any operation.
	LineCount() int

	EnterTransaction()
	CommitTransaction()
	PopTransaction()
	FinishConflation()

	// Commit expands every recorded operation into w, in a deterministic
	// order. It must emit exactly LineCount rows.
	Commit(w *trace.Writer)
}

// OpcodeTracer is implemented by modules which record operations from opcode
// executions. TraceOpcode is called before op executes, with the stack as the
// interpreter sees it (top of stack last).
type OpcodeTracer interface {
	Module
	Opcodes() []vm.OpCode
	TraceOpcode(op vm.OpCode, stack []uint256.Int)
}

// BlockTracer is implemented by modules which record per-block data.
type BlockTracer interface {
	Module
	TraceStartBlock(header *types.Header)
}

// FrameTracer is implemented by modules which record call frames.
type FrameTracer interface {
	Module
	TraceFrame(frame Frame)
}

// Frame describes the code executed by a new call frame. For CREATE and
// CREATE2 frames Code is the init code.
type Frame struct {
	Type     vm.OpCode
	Address  common.Address
	Code     []byte
	CodeHash common.Hash
}

// IsDeployment reports whether the frame runs init code.
func (f Frame) IsDeployment() bool {
	return f.Type == vm.CREATE || f.Type == vm.CREATE2
}

// Expand runs f, which must emit exactly lines rows into w.
func Expand(w *trace.Writer, module string, lines int, f func()) {
	start := w.Rows()
	f()
	if got := w.Rows() - start; got != lines {
		trace.Fail("%s: operation declared %d rows, emitted %d", module, lines, got)
	}
}

// Pad seals zero rows until w holds rows rows.
func Pad(w *trace.Writer, rows int) {
	for w.Rows() < rows {
		w.FillAndValidateRow()
	}
}
