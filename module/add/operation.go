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
	"fmt"
	"math/bits"

	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
	"github.com/zkevm-arith/zktracer/module"
	"github.com/zkevm-arith/zktracer/trace"
)

const halfBytes = 16

type opKey struct {
	inst       vm.OpCode
	arg1, arg2 uint256.Int
}

// Operation is one ADD or SUB execution. Its height depends on the widest of
// the six 128-bit halves involved, so the result is computed up front.
type Operation struct {
	key   opKey
	res   uint256.Int
	lines int
}

// NewOperation evaluates inst on its two operands and sizes its rows from the
// widest byte length of the operands and result.
func NewOperation(inst vm.OpCode, arg1, arg2 *uint256.Int) *Operation {
	op := &Operation{key: opKey{inst: inst, arg1: *arg1, arg2: *arg2}}
	switch inst {
	case vm.ADD:
		op.res.Add(arg1, arg2)
	case vm.SUB:
		op.res.Sub(arg1, arg2)
	default:
		panic(fmt.Sprintf("add: unsupported instruction %v", inst))
	}
	op.lines = 1
	for _, x := range []*uint256.Int{arg1, arg2, &op.res} {
		op.lines = max(op.lines, byteLen(x[3], x[2]), byteLen(x[1], x[0]))
	}
	return op
}

// byteLen is the minimal big-endian byte length of the 128-bit value hi:lo.
func byteLen(hi, lo uint64) int {
	if hi != 0 {
		return 8 + (bits.Len64(hi)+7)/8
	}
	return (bits.Len64(lo) + 7) / 8
}

func (op *Operation) Key() opKey { return op.key }
func (op *Operation) LineCount() int { return op.lines }
func (op *Operation) Result() *uint256.Int { return new(uint256.Int).Set(&op.res) }

// carries returns CARRY_LO and OVERFLOW. With (x, y, z) = (A, B, R) for ADD
// and (R, B, A) for SUB they satisfy
//
//	x_lo + y_lo            = z_lo + 2^128·CARRY_LO
//	x_hi + y_hi + CARRY_LO = z_hi + 2^128·OVERFLOW
func (op *Operation) carries() (carryLo, overflow uint64) {
	x, y, z := &op.key.arg1, &op.key.arg2, &op.res
	if op.key.inst == vm.SUB {
		x, z = z, x
	}
	var s uint256.Int
	var c uint64
	s[0], c = bits.Add64(x[0], y[0], 0)
	s[1], carryLo = bits.Add64(x[1], y[1], c)
	s[2], c = bits.Add64(x[2], y[2], carryLo)
	s[3], overflow = bits.Add64(x[3], y[3], c)
	if s != *z {
		trace.Fail("add: %v(%v, %v) = %v does not satisfy the carry identities", op.key.inst, &op.key.arg1, &op.key.arg2, &op.res)
	}
	return carryLo, overflow
}

func (op *Operation) trace(w *trace.Writer, stamp uint64) {
	carryLo, overflow := op.carries()
	resHi, resLo := module.Hi(&op.res), module.Lo(&op.res)
	var acc1, acc2 uint256.Int
	for i := 0; i < op.lines; i++ {
		b := halfBytes - op.lines + i
		acc1.Lsh(&acc1, 8).Or(&acc1, uint256.NewInt(uint64(resHi[b])))
		acc2.Lsh(&acc2, 8).Or(&acc2, uint256.NewInt(uint64(resLo[b])))

		w.SetUint64(colStamp, stamp)
		w.SetUint64(colCt, uint64(i))
		w.SetUint64(colCtMax, uint64(op.lines-1))
		w.SetUint64(colInst, uint64(op.key.inst))
		w.Set(colArg1Hi, module.Hi(&op.key.arg1))
		w.Set(colArg1Lo, module.Lo(&op.key.arg1))
		w.Set(colArg2Hi, module.Hi(&op.key.arg2))
		w.Set(colArg2Lo, module.Lo(&op.key.arg2))
		w.Set(colResHi, resHi)
		w.Set(colResLo, resLo)
		w.SetUint64(colByte1, uint64(resHi[b]))
		w.SetUint64(colByte2, uint64(resLo[b]))
		w.SetUint256(colAcc1, &acc1)
		w.SetUint256(colAcc2, &acc2)
		w.SetUint64(colOverflow, overflow)
		w.SetUint64(colCarryLo, carryLo)
		w.ValidateRow()
	}
}
