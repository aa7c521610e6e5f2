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
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"github.com/zkevm-arith/zktracer/trace"
	"pgregory.net/rapid"
)

var instructions = []vm.OpCode{vm.DIV, vm.SDIV, vm.MOD, vm.SMOD}

// edgeWords are the operands every instruction is checked against pairwise.
var edgeWords = []string{
	"0x0",
	"0x1",
	"0x5",
	"0xffffffffffffffff",
	"0x10000000000000000",
	"0x7ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffe",
	"0x7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
	"0x8000000000000000000000000000000000000000000000000000000000000000",
	"0x8000000000000000000000000000000000000000000000000000000000000001",
	"0xfffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffb",
	"0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
	"0xabcdef090807060504030201ffffffffffffffffffffffffffffffffffffffff",
}

// traceOne expands a single operation into a fresh writer.
func traceOne(t *testing.T, inst vm.OpCode, a, b *uint256.Int) (*Operation, *trace.Writer) {
	t.Helper()
	m := New()
	m.Record(inst, a, b)
	m.FinishConflation()
	w := trace.NewMemoryWriter(Columns, m.LineCount())
	m.Commit(w)
	require.Equal(t, m.LineCount(), w.Rows())
	return m.Operations()[0], w
}

// word reassembles a word from the accumulator columns of the last row of an
// operation.
func word(w *trace.Writer, base, row int) *uint256.Int {
	var x uint256.Int
	for k := 0; k < limbs; k++ {
		x[k] = w.Uint64(base+k, row)
	}
	return &x
}

func signedAbs(x *uint256.Int, signed bool) *uint256.Int {
	z := new(uint256.Int)
	absolute(z, x, signed)
	return z
}

// checkRows verifies an operation's rows against the EVM semantics and the
// identities the table is meant to prove.
func checkRows(t require.TestingT, inst vm.OpCode, a, b *uint256.Int, op *Operation, w *trace.Writer) {
	var want uint256.Int
	switch inst {
	case vm.DIV:
		want.Div(a, b)
	case vm.SDIV:
		want.SDiv(a, b)
	case vm.MOD:
		want.Mod(a, b)
	case vm.SMOD:
		want.SMod(a, b)
	}
	res := new(uint256.Int).Lsh(w.Uint256(colResHi, 0), 128)
	res.Or(res, w.Uint256(colResLo, 0))
	require.Equal(t, &want, res, "result of %v(%v, %v)", inst, a, b)

	if b.IsZero() {
		require.Equal(t, 1, w.Rows())
		require.True(t, w.Bool(colOli, 0))
		require.False(t, w.Bool(colMli, 0))
		for i := colCmp1; i < numColumns; i++ {
			require.True(t, w.Uint256(i, 0).IsZero(), "column %s", Columns[i].Name)
		}
		return
	}
	require.Equal(t, multiLine, w.Rows())

	// Accumulators grow one byte per row.
	for _, base := range []int{colAcc1, colAcc2, colAccQ, colAccR, colAccDelta} {
		for k := 0; k < limbs; k++ {
			var acc uint64
			for row := 0; row < multiLine; row++ {
				acc = acc<<8 | w.Uint64(base+limbs+k, row)
				require.Equal(t, acc, w.Uint64(base+k, row), "%s row %d", Columns[base+k].Name, row)
			}
		}
	}
	last := multiLine - 1
	signed := inst == vm.SDIV || inst == vm.SMOD
	absA, absB := word(w, colAcc1, last), word(w, colAcc2, last)
	quot, rem := word(w, colAccQ, last), word(w, colAccR, last)
	require.Equal(t, signedAbs(a, signed), absA)
	require.Equal(t, signedAbs(b, signed), absB)

	// |B|·Q + R = |A| without wrapping, R < |B|.
	prod, overflow := new(uint256.Int).MulOverflow(absB, quot)
	require.False(t, overflow)
	sum, overflow := new(uint256.Int).AddOverflow(prod, rem)
	require.False(t, overflow)
	require.Equal(t, absA, sum, spew.Sdump(op.derived))
	require.True(t, rem.Lt(absB))

	// Carry identities, recomputed from the emitted limbs.
	limb := func(x *uint256.Int, k int) *big.Int { return new(big.Int).SetUint64(x[k]) }
	mul := func(x, y *big.Int) *big.Int { return new(big.Int).Mul(x, y) }
	two64 := new(big.Int).Lsh(big.NewInt(1), 64)
	two128 := new(big.Int).Lsh(big.NewInt(1), 128)
	h := func(k int) *big.Int { return new(big.Int).SetUint64(w.Uint64(colAccH+k, last)) }
	alpha := new(big.Int).SetUint64(w.Uint64(colAlpha, last))
	beta := new(big.Int).SetUint64(w.Uint64(colBeta, last))

	lhs := new(big.Int).Add(mul(limb(absB, 0), limb(quot, 1)), mul(limb(absB, 1), limb(quot, 0)))
	rhs := new(big.Int).Add(h(0), mul(h(1), two64))
	rhs.Add(rhs, mul(alpha, two128))
	require.Zero(t, lhs.Cmp(rhs), "H_0/H_1/ALPHA")

	lhs = mul(limb(absB, 0), limb(quot, 0))
	lhs.Add(lhs, limb(rem, 0))
	lhs.Add(lhs, mul(new(big.Int).Add(h(0), limb(rem, 1)), two64))
	rhs = new(big.Int).Add(limb(absA, 0), mul(limb(absA, 1), two64))
	rhs.Add(rhs, mul(beta, two128))
	require.Zero(t, lhs.Cmp(rhs), "BETA")

	lhs = new(big.Int)
	for i := 0; i < limbs; i++ {
		lhs.Add(lhs, mul(limb(absB, i), limb(quot, limbs-1-i)))
	}
	require.Zero(t, lhs.Cmp(h(2)), "H_2")

	lhs = new(big.Int)
	for i := 0; i < 3; i++ {
		lhs.Add(lhs, mul(limb(absB, i), limb(quot, 2-i)))
	}
	lhs.Add(lhs, h(1))
	lhs.Add(lhs, beta)
	lhs.Add(lhs, limb(rem, 2))
	high := new(big.Int).Add(h(2), alpha)
	high.Add(high, limb(rem, 3))
	lhs.Add(lhs, mul(high, two64))
	rhs = new(big.Int).Add(limb(absA, 2), mul(limb(absA, 3), two64))
	require.Zero(t, lhs.Cmp(rhs), "H_2/ALPHA/BETA high half")

	for row := 0; row < multiLine; row++ {
		if row < limbs {
			require.Equal(t, absB[row] > rem[row], w.Bool(colCmp1, row))
			require.Equal(t, absB[row] == rem[row], w.Bool(colCmp2, row))
		} else {
			require.False(t, w.Bool(colCmp1, row))
			require.False(t, w.Bool(colCmp2, row))
		}
		require.Equal(t, uint64(row), w.Uint64(colCt, row))
		require.Equal(t, uint64(1), w.Uint64(colStamp, row))
	}
	for k := 0; k < limbs; k++ {
		delta := w.Uint64(colAccDelta+k, last)
		if absB[k] > rem[k] {
			require.Equal(t, absB[k]-rem[k]-1, delta)
		} else {
			require.Equal(t, rem[k]-absB[k], delta)
		}
	}
	// MSB columns spell out the top byte of each argument.
	var msb1, msb2 byte
	for row := 0; row < multiLine; row++ {
		msb1 <<= 1
		msb2 <<= 1
		if w.Bool(colMsb1, row) {
			msb1 |= 1
		}
		if w.Bool(colMsb2, row) {
			msb2 |= 1
		}
	}
	require.Equal(t, a.Bytes32()[0], msb1)
	require.Equal(t, b.Bytes32()[0], msb2)
}

func TestEdgeCases(t *testing.T) {
	for _, inst := range instructions {
		for _, x := range edgeWords {
			for _, y := range edgeWords {
				a, b := uint256.MustFromHex(x), uint256.MustFromHex(y)
				op, w := traceOne(t, inst, a, b)
				checkRows(t, inst, a, b, op, w)
			}
		}
	}
}

func TestDivisionByZeroIsOneLine(t *testing.T) {
	a := uint256.MustFromHex("0x1234")
	for _, inst := range instructions {
		op, w := traceOne(t, inst, a, new(uint256.Int))
		require.Equal(t, 1, op.LineCount())
		require.Nil(t, op.derived, "derived values computed for a one-line operation")
		require.Equal(t, uint64(inst), w.Uint64(colInst, 0))
		require.True(t, op.Result().IsZero())
	}
}

func TestRandomOperands(t *testing.T) {
	operand := rapid.Custom(func(t *rapid.T) *uint256.Int {
		var x uint256.Int
		for k := 0; k < limbs; k++ {
			// Sparse limbs exercise the short-quotient and zero-limb paths.
			if rapid.Bool().Draw(t, "zero") {
				continue
			}
			x[k] = rapid.Uint64().Draw(t, "limb")
		}
		return &x
	})
	rapid.Check(t, func(rt *rapid.T) {
		inst := rapid.SampledFrom(instructions).Draw(rt, "inst")
		a, b := operand.Draw(rt, "a"), operand.Draw(rt, "b")

		m := New()
		m.Record(inst, a, b)
		m.FinishConflation()
		w := trace.NewMemoryWriter(Columns, m.LineCount())
		m.Commit(w)
		checkRows(rt, inst, a, b, m.Operations()[0], w)
	})
}

func TestDedup(t *testing.T) {
	m := New()
	a, b := uint256.NewInt(100), uint256.NewInt(7)
	require.True(t, m.Record(vm.DIV, a, b))
	require.False(t, m.Record(vm.DIV, uint256.NewInt(100), uint256.NewInt(7)))
	require.Equal(t, multiLine, m.LineCount())

	// A different instruction on the same operands is a different operation.
	require.True(t, m.Record(vm.MOD, a, b))
	m.EnterTransaction()
	require.False(t, m.Record(vm.MOD, a, b))
	require.Equal(t, 2*multiLine, m.LineCount())

	m.FinishConflation()
	w := trace.NewMemoryWriter(Columns, m.LineCount())
	m.Commit(w)
	require.Equal(t, 2*multiLine, w.Rows())
	require.Equal(t, uint64(1), w.Uint64(colStamp, 0))
	require.Equal(t, uint64(2), w.Uint64(colStamp, multiLine))
	require.Equal(t, uint64(14), w.Uint256(colResLo, 0).Uint64())
	require.Equal(t, uint64(2), w.Uint256(colResLo, multiLine).Uint64())
}

func TestTransactionLifecycle(t *testing.T) {
	m := New()
	m.EnterTransaction()
	m.Record(vm.SDIV, uint256.NewInt(9), uint256.NewInt(2))
	m.PopTransaction()
	require.Zero(t, m.LineCount())

	m.EnterTransaction()
	m.Record(vm.SDIV, uint256.NewInt(9), uint256.NewInt(2))
	m.CommitTransaction()
	m.EnterTransaction()
	m.Record(vm.SMOD, uint256.NewInt(9), new(uint256.Int))
	m.PopTransaction()
	require.Equal(t, multiLine, m.LineCount())
}

func TestTraceOpcodeReadsStack(t *testing.T) {
	m := New()
	// The dividend is on top of the stack.
	stack := []uint256.Int{*uint256.NewInt(3), *uint256.NewInt(10)}
	m.TraceOpcode(vm.DIV, stack)
	m.TraceOpcode(vm.DIV, stack[:1]) // underflow, ignored
	m.FinishConflation()

	ops := m.Operations()
	require.Len(t, ops, 1)
	require.Equal(t, uint64(3), ops[0].Result().Uint64())
}

func TestCarryProofRejectsWrongQuotient(t *testing.T) {
	d := &derived{}
	d.a.SetUint64(1000)
	d.b.SetUint64(7)
	d.q.SetUint64(143) // off by one
	d.r.SetUint64(6)
	require.Panics(t, d.proveProduct)

	// A product wrapping past 2^256 is caught even if the low limbs agree.
	d = &derived{}
	d.b[1] = 1
	d.q[3] = 1
	require.Panics(t, d.proveProduct)
}

func TestUnsupportedInstruction(t *testing.T) {
	require.Panics(t, func() { NewOperation(vm.ADD, new(uint256.Int), new(uint256.Int)) })
}

func TestColumns(t *testing.T) {
	require.Len(t, Columns, numColumns)
	seen := make(map[string]bool)
	for _, c := range Columns {
		require.False(t, seen[c.Name], "duplicate column %s", c.Name)
		seen[c.Name] = true
	}
	require.True(t, seen["mod.ACC_DELTA_3"])
	require.True(t, seen["mod.BYTE_H_2"])
}
