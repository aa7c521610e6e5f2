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

// Package add implements the table proving ADD and SUB results with 128-bit
// carries.
package add

import (
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
	"github.com/zkevm-arith/zktracer/container"
	"github.com/zkevm-arith/zktracer/module"
	"github.com/zkevm-arith/zktracer/trace"
)

// Add is the addition and subtraction table.
type Add struct {
	operations *container.DedupSet[opKey, *Operation]
}

// New creates an empty ADD module.
func New() *Add {
	return &Add{operations: container.NewDedupSet[opKey, *Operation]()}
}

func (a *Add) Name() string { return Name }
func (a *Add) Columns() []trace.Column { return Columns }
func (a *Add) LineCount() int { return a.operations.LineCount() }

func (a *Add) EnterTransaction() { a.operations.Enter() }
func (a *Add) CommitTransaction() { a.operations.Enter() }
func (a *Add) PopTransaction() { a.operations.Pop() }
func (a *Add) FinishConflation() { a.operations.FinishConflation() }

func (a *Add) Opcodes() []vm.OpCode { return []vm.OpCode{vm.ADD, vm.SUB} }

func (a *Add) TraceOpcode(op vm.OpCode, stack []uint256.Int) {
	arg1, ok1 := module.Peek(stack, 0)
	arg2, ok2 := module.Peek(stack, 1)
	if ok1 && ok2 {
		a.Record(op, arg1, arg2)
	}
}

func (a *Add) Record(inst vm.OpCode, arg1, arg2 *uint256.Int) bool {
	return a.operations.Add(NewOperation(inst, arg1, arg2))
}

func (a *Add) Operations() []*Operation { return a.operations.All() }

func (a *Add) Commit(w *trace.Writer) {
	var stamp module.Stamp
	for _, op := range a.operations.All() {
		module.Expand(w, Name, op.LineCount(), func() {
			op.trace(w, stamp.Next())
		})
	}
}
