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

// Package mod implements the table proving the results of DIV, SDIV, MOD and
// SMOD. Each distinct operation is proven once per conflation.
package mod

import (
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
	"github.com/zkevm-arith/zktracer/container"
	"github.com/zkevm-arith/zktracer/module"
	"github.com/zkevm-arith/zktracer/trace"
)

// Mod is the division and remainder table. Identical operations within a
// conflation share their rows.
type Mod struct {
	operations *container.DedupSet[opKey, *Operation]
}

// New creates an empty MOD module.
func New() *Mod {
	return &Mod{operations: container.NewDedupSet[opKey, *Operation]()}
}

func (m *Mod) Name() string { return Name }
func (m *Mod) Columns() []trace.Column { return Columns }
func (m *Mod) LineCount() int { return m.operations.LineCount() }

func (m *Mod) EnterTransaction() { m.operations.Enter() }
func (m *Mod) CommitTransaction() { m.operations.Enter() }
func (m *Mod) PopTransaction() { m.operations.Pop() }
func (m *Mod) FinishConflation() { m.operations.FinishConflation() }

func (m *Mod) Opcodes() []vm.OpCode {
	return []vm.OpCode{vm.DIV, vm.SDIV, vm.MOD, vm.SMOD}
}

func (m *Mod) TraceOpcode(op vm.OpCode, stack []uint256.Int) {
	arg1, ok1 := module.Peek(stack, 0)
	arg2, ok2 := module.Peek(stack, 1)
	if !ok1 || !ok2 {
		return
	}
	m.Record(op, arg1, arg2)
}

// Record adds an operation and reports whether it had not been seen in this
// conflation before.
func (m *Mod) Record(inst vm.OpCode, arg1, arg2 *uint256.Int) bool {
	return m.operations.Add(NewOperation(inst, arg1, arg2))
}

// Operations returns the operations in trace order. The module must be frozen.
func (m *Mod) Operations() []*Operation {
	return m.operations.All()
}

func (m *Mod) Commit(w *trace.Writer) {
	var stamp module.Stamp
	for _, op := range m.operations.All() {
		module.Expand(w, Name, op.LineCount(), func() {
			op.trace(w, stamp.Next())
		})
	}
}
