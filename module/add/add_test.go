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
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"github.com/zkevm-arith/zktracer/trace"
	"pgregory.net/rapid"
)

func commit(t require.TestingT, a *Add) *trace.Writer {
	a.FinishConflation()
	w := trace.NewMemoryWriter(Columns, a.LineCount())
	a.Commit(w)
	require.Equal(t, a.LineCount(), w.Rows())
	return w
}

func half(w *trace.Writer, col, row int) *big.Int {
	return w.Uint256(col, row).ToBig()
}

// checkRows verifies the carry identities and accumulators of the only
// operation committed to w.
func checkRows(t require.TestingT, inst vm.OpCode, a, b *uint256.Int, w *trace.Writer) {
	var want uint256.Int
	if inst == vm.ADD {
		want.Add(a, b)
	} else {
		want.Sub(a, b)
	}
	last := w.Rows() - 1
	res := new(uint256.Int).Lsh(w.Uint256(colResHi, 0), 128)
	res.Or(res, w.Uint256(colResLo, 0))
	require.Equal(t, &want, res)

	require.Equal(t, uint64(last), w.Uint64(colCtMax, 0))
	require.True(t, w.Uint256(colAcc1, last).Eq(w.Uint256(colResHi, last)))
	require.True(t, w.Uint256(colAcc2, last).Eq(w.Uint256(colResLo, last)))
	for row := 0; row <= last; row++ {
		require.Equal(t, uint64(row), w.Uint64(colCt, row))
		if row > 0 {
			acc := new(uint256.Int).Lsh(w.Uint256(colAcc1, row-1), 8)
			acc.Add(acc, w.Uint256(colByte1, row))
			require.True(t, acc.Eq(w.Uint256(colAcc1, row)), "ACC_1 row %d", row)
		}
	}

	two128 := new(big.Int).Lsh(big.NewInt(1), 128)
	x := [2]*big.Int{half(w, colArg1Hi, 0), half(w, colArg1Lo, 0)}
	y := [2]*big.Int{half(w, colArg2Hi, 0), half(w, colArg2Lo, 0)}
	z := [2]*big.Int{half(w, colResHi, 0), half(w, colResLo, 0)}
	if inst == vm.SUB {
		x, z = z, x
	}
	carry := new(big.Int).SetUint64(w.Uint64(colCarryLo, 0))
	overflow := new(big.Int).SetUint64(w.Uint64(colOverflow, 0))

	lhs := new(big.Int).Add(x[1], y[1])
	rhs := new(big.Int).Add(z[1], new(big.Int).Mul(carry, two128))
	require.Zero(t, lhs.Cmp(rhs), "low identity")
	lhs = new(big.Int).Add(x[0], y[0])
	lhs.Add(lhs, carry)
	rhs = new(big.Int).Add(z[0], new(big.Int).Mul(overflow, two128))
	require.Zero(t, lhs.Cmp(rhs), "high identity")
}

func TestHeight(t *testing.T) {
	tests := []struct {
		inst  vm.OpCode
		a, b  string
		lines int
	}{
		{vm.ADD, "0x0", "0x0", 1},
		{vm.ADD, "0x1", "0x2", 1},
		{vm.ADD, "0xff", "0x1", 2},
		{vm.ADD, "0xffffffffffffffffffffffffffffffff", "0x1", 16},
		{vm.ADD, "0x100000000000000000000000000000000", "0x0", 1},
		{vm.ADD, "0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff", "0x1", 16},
		{vm.SUB, "0x0", "0x1", 16},
		{vm.SUB, "0x10000", "0x1", 3},
	}
	for _, tt := range tests {
		a, b := uint256.MustFromHex(tt.a), uint256.MustFromHex(tt.b)
		op := NewOperation(tt.inst, a, b)
		require.Equal(t, tt.lines, op.LineCount(), "%v(%s, %s)", tt.inst, tt.a, tt.b)

		m := New()
		m.Record(tt.inst, a, b)
		checkRows(t, tt.inst, a, b, commit(t, m))
	}
}

func TestOverflowAndBorrow(t *testing.T) {
	allOnes := new(uint256.Int).SetAllOne()

	m := New()
	m.Record(vm.ADD, allOnes, uint256.NewInt(1))
	w := commit(t, m)
	require.True(t, w.Bool(colOverflow, 0))
	require.True(t, w.Bool(colCarryLo, 0))

	m = New()
	m.Record(vm.SUB, uint256.NewInt(1), uint256.NewInt(2))
	w = commit(t, m)
	require.True(t, w.Bool(colOverflow, 0))
	require.True(t, w.Uint256(colResLo, 0).Eq(new(uint256.Int).Rsh(allOnes, 128)))

	m = New()
	m.Record(vm.SUB, uint256.NewInt(2), uint256.NewInt(1))
	w = commit(t, m)
	require.False(t, w.Bool(colOverflow, 0))
	require.False(t, w.Bool(colCarryLo, 0))
}

func TestRandomOperands(t *testing.T) {
	operand := rapid.Custom(func(t *rapid.T) *uint256.Int {
		var x uint256.Int
		for k := range x {
			if rapid.Bool().Draw(t, "zero") {
				continue
			}
			x[k] = rapid.Uint64().Draw(t, "limb")
		}
		return &x
	})
	rapid.Check(t, func(rt *rapid.T) {
		inst := rapid.SampledFrom([]vm.OpCode{vm.ADD, vm.SUB}).Draw(rt, "inst")
		a, b := operand.Draw(rt, "a"), operand.Draw(rt, "b")
		m := New()
		m.Record(inst, a, b)
		checkRows(rt, inst, a, b, commit(rt, m))
	})
}

func TestDedupAndStamps(t *testing.T) {
	m := New()
	require.True(t, m.Record(vm.ADD, uint256.NewInt(1), uint256.NewInt(1)))
	require.False(t, m.Record(vm.ADD, uint256.NewInt(1), uint256.NewInt(1)))
	require.True(t, m.Record(vm.SUB, uint256.NewInt(1), uint256.NewInt(1)))
	m.EnterTransaction()
	m.Record(vm.ADD, uint256.NewInt(7), uint256.NewInt(7))
	m.PopTransaction()
	require.Equal(t, 2, m.LineCount())

	w := commit(t, m)
	require.Equal(t, uint64(1), w.Uint64(colStamp, 0))
	require.Equal(t, uint64(2), w.Uint64(colStamp, 1))
	require.Equal(t, uint64(vm.SUB), w.Uint64(colInst, 1))
}

func TestTraceOpcodeReadsStack(t *testing.T) {
	m := New()
	stack := []uint256.Int{*uint256.NewInt(3), *uint256.NewInt(10)}
	m.TraceOpcode(vm.SUB, stack)
	m.TraceOpcode(vm.SUB, nil)
	m.FinishConflation()
	ops := m.Operations()
	require.Len(t, ops, 1)
	require.Equal(t, uint64(7), ops[0].Result().Uint64())
}

func TestUnsupportedInstruction(t *testing.T) {
	require.Panics(t, func() { NewOperation(vm.MUL, new(uint256.Int), new(uint256.Int)) })
}
