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
	"math/bits"

	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
	"github.com/zkevm-arith/zktracer/module"
	"github.com/zkevm-arith/zktracer/trace"
)

// multiLine is the height of an operation with a non-zero divisor: one row per
// byte of a 64-bit limb.
const multiLine = 8

// opKey identifies an operation. Derived values are not part of it.
type opKey struct {
	inst       vm.OpCode
	arg1, arg2 uint256.Int
}

// Operation is one DIV, SDIV, MOD or SMOD execution.
type Operation struct {
	key     opKey
	derived *derived
}

// derived holds the decomposition proving |B|·Q + R = |A| with R < |B|. All
// words are unsigned; limb 0 is the least significant.
type derived struct {
	a, b, q, r uint256.Int

	cmp1  [limbs]bool // |B|_k > R_k
	cmp2  [limbs]bool // |B|_k == R_k
	delta [limbs]uint64

	h     [3]uint64
	alpha uint64
	beta  uint64

	res uint256.Int
}

// NewOperation creates an operation for one of the four division opcodes.
func NewOperation(inst vm.OpCode, arg1, arg2 *uint256.Int) *Operation {
	switch inst {
	case vm.DIV, vm.SDIV, vm.MOD, vm.SMOD:
	default:
		panic(fmt.Sprintf("mod: unsupported instruction %v", inst))
	}
	return &Operation{key: opKey{inst: inst, arg1: *arg1, arg2: *arg2}}
}

func (op *Operation) Key() opKey { return op.key }

// LineCount is known from the divisor alone, before anything is computed.
func (op *Operation) LineCount() int {
	if op.oneLine() {
		return 1
	}
	return multiLine
}

func (op *Operation) oneLine() bool {
	return op.key.arg2.IsZero()
}

func (op *Operation) signed() bool {
	return op.key.inst == vm.SDIV || op.key.inst == vm.SMOD
}

func (op *Operation) remainderOutput() bool {
	return op.key.inst == vm.MOD || op.key.inst == vm.SMOD
}

// Result returns the value the instruction pushes on the stack.
func (op *Operation) Result() *uint256.Int {
	if op.oneLine() {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(&op.compute().res)
}

func (op *Operation) compute() *derived {
	if op.derived != nil {
		return op.derived
	}
	d := new(derived)
	absolute(&d.a, &op.key.arg1, op.signed())
	absolute(&d.b, &op.key.arg2, op.signed())
	d.q.Div(&d.a, &d.b)
	d.r.Mod(&d.a, &d.b)
	if !d.r.Lt(&d.b) {
		trace.Fail("mod: remainder %v not below divisor %v", &d.r, &d.b)
	}
	for k := 0; k < limbs; k++ {
		b, r := d.b[k], d.r[k]
		d.cmp1[k] = b > r
		d.cmp2[k] = b == r
		if d.cmp1[k] {
			d.delta[k] = b - r - 1
		} else {
			d.delta[k] = r - b
		}
	}
	d.proveProduct()
	op.result(d)
	op.derived = d
	return d
}

// absolute sets z to x, or to its two's complement absolute value if signed.
func absolute(z, x *uint256.Int, signed bool) {
	if signed && x.Sign() < 0 {
		z.Neg(x)
	} else {
		z.Set(x)
	}
}

// result applies the signs back to the quotient or remainder and checks the
// outcome against the interpreter's own arithmetic.
func (op *Operation) result(d *derived) {
	arg1, arg2 := &op.key.arg1, &op.key.arg2
	if op.remainderOutput() {
		d.res.Set(&d.r)
		if op.signed() && arg1.Sign() < 0 {
			d.res.Neg(&d.res)
		}
	} else {
		d.res.Set(&d.q)
		if op.signed() && (arg1.Sign() < 0) != (arg2.Sign() < 0) {
			d.res.Neg(&d.res)
		}
	}
	var want uint256.Int
	switch op.key.inst {
	case vm.DIV:
		want.Div(arg1, arg2)
	case vm.SDIV:
		want.SDiv(arg1, arg2)
	case vm.MOD:
		want.Mod(arg1, arg2)
	case vm.SMOD:
		want.SMod(arg1, arg2)
	}
	if !d.res.Eq(&want) {
		trace.Fail("mod: %v(%v, %v) traced as %v, expected %v", op.key.inst, arg1, arg2, &d.res, &want)
	}
}

// wide is an unsigned 128-bit accumulator. A carry out of it is fatal.
type wide struct {
	hi, lo uint64
	what   string
}

func (w *wide) add(hi, lo uint64) {
	var c uint64
	w.lo, c = bits.Add64(w.lo, lo, 0)
	w.hi, c = bits.Add64(w.hi, hi, c)
	if c != 0 {
		trace.Fail("mod: %s overflows 128 bits", w.what)
	}
}

// proveProduct computes the carries of |B|·Q + R = |A| using only 64-bit
// multiplications:
//
//	b0·q1 + b1·q0                              = ALPHA·2^128 + H_1·2^64 + H_0
//	b0·q0 + r0 + 2^64·(H_0 + r1)               = a0 + 2^64·a1 + 2^128·BETA
//	b0·q3 + b1·q2 + b2·q1 + b3·q0              = H_2
//	b0·q2 + b1·q1 + b2·q0 + H_1 + BETA + r2
//	                  + 2^64·(H_2 + ALPHA + r3) = a2 + 2^64·a3
//
// and b_i·q_j = 0 whenever i+j >= 4.
func (d *derived) proveProduct() {
	a, b, q, r := &d.a, &d.b, &d.q, &d.r

	for i := 1; i < limbs; i++ {
		for j := limbs - i; j < limbs; j++ {
			if b[i] != 0 && q[j] != 0 {
				trace.Fail("mod: b%d·q%d overflows 256 bits", i, j)
			}
		}
	}

	hi0, lo0 := bits.Mul64(b[0], q[1])
	hi1, lo1 := bits.Mul64(b[1], q[0])
	h0, c := bits.Add64(lo0, lo1, 0)
	h1, alpha := bits.Add64(hi0, hi1, c)

	phi, plo := bits.Mul64(b[0], q[0])
	s0, c0 := bits.Add64(plo, r[0], 0)
	s1, c1 := bits.Add64(phi, h0, c0)
	s1, c2 := bits.Add64(s1, r[1], 0)
	beta := c1 + c2
	if s0 != a[0] || s1 != a[1] {
		trace.Fail("mod: low limbs of b·q+r are %#x %#x, dividend has %#x %#x", s1, s0, a[1], a[0])
	}

	var h2 uint64
	for i := 0; i < limbs; i++ {
		hi, lo := bits.Mul64(b[i], q[limbs-1-i])
		var carry uint64
		h2, carry = bits.Add64(h2, lo, 0)
		if hi != 0 || carry != 0 {
			trace.Fail("mod: H_2 overflows 64 bits")
		}
	}

	mid := wide{what: "middle product"}
	for i := 0; i < 3; i++ {
		mid.add(bits.Mul64(b[i], q[2-i]))
	}
	mid.what = "high half of b·q+r"
	mid.add(0, h1)
	mid.add(0, beta)
	mid.add(0, r[2])
	mid.add(h2, 0)
	mid.add(alpha, 0)
	mid.add(r[3], 0)
	if mid.lo != a[2] || mid.hi != a[3] {
		trace.Fail("mod: high limbs of b·q+r are %#x %#x, dividend has %#x %#x", mid.hi, mid.lo, a[3], a[2])
	}
	if alpha > 1 || beta > 2 {
		trace.Fail("mod: carries out of range, alpha %d beta %d", alpha, beta)
	}
	d.h = [3]uint64{h0, h1, h2}
	d.alpha, d.beta = alpha, beta
}

// trace expands the operation into its rows.
func (op *Operation) trace(w *trace.Writer, stamp uint64) {
	if op.oneLine() {
		op.traceOneLine(w, stamp)
		return
	}
	d := op.compute()
	msb1 := op.key.arg1.Bytes32()[0]
	msb2 := op.key.arg2.Bytes32()[0]
	for i := 0; i < multiLine; i++ {
		op.traceCommon(w, stamp, i, &d.res)
		for k := 0; k < limbs; k++ {
			w.SetUint64(colAcc1+k, module.LimbPrefix(d.a[k], i))
			w.SetUint64(colByte1+k, module.LimbByte(d.a[k], i))
			w.SetUint64(colAcc2+k, module.LimbPrefix(d.b[k], i))
			w.SetUint64(colByte2+k, module.LimbByte(d.b[k], i))
			w.SetUint64(colAccQ+k, module.LimbPrefix(d.q[k], i))
			w.SetUint64(colByteQ+k, module.LimbByte(d.q[k], i))
			w.SetUint64(colAccR+k, module.LimbPrefix(d.r[k], i))
			w.SetUint64(colByteR+k, module.LimbByte(d.r[k], i))
			w.SetUint64(colAccDelta+k, module.LimbPrefix(d.delta[k], i))
			w.SetUint64(colByteDelta+k, module.LimbByte(d.delta[k], i))
		}
		for k := 0; k < 3; k++ {
			w.SetUint64(colAccH+k, module.LimbPrefix(d.h[k], i))
			w.SetUint64(colByteH+k, module.LimbByte(d.h[k], i))
		}
		w.SetBool(colCmp1, i < limbs && d.cmp1[i])
		w.SetBool(colCmp2, i < limbs && d.cmp2[i])
		w.SetBool(colMsb1, msb1>>(7-i)&1 == 1)
		w.SetBool(colMsb2, msb2>>(7-i)&1 == 1)
		w.SetUint64(colAlpha, d.alpha)
		w.SetUint64(colBeta, d.beta)
		w.ValidateRow()
	}
}

func (op *Operation) traceOneLine(w *trace.Writer, stamp uint64) {
	op.traceCommon(w, stamp, 0, new(uint256.Int))
	for i := colCmp1; i < numColumns; i++ {
		w.SetZero(i)
	}
	w.ValidateRow()
}

func (op *Operation) traceCommon(w *trace.Writer, stamp uint64, ct int, res *uint256.Int) {
	w.SetUint64(colStamp, stamp)
	w.SetBool(colOli, op.oneLine())
	w.SetBool(colMli, !op.oneLine())
	w.SetUint64(colCt, uint64(ct))
	w.SetUint64(colInst, uint64(op.key.inst))
	w.SetBool(colSigned, op.signed())
	w.SetBool(colDecOutput, op.remainderOutput())
	w.Set(colArg1Hi, module.Hi(&op.key.arg1))
	w.Set(colArg1Lo, module.Lo(&op.key.arg1))
	w.Set(colArg2Hi, module.Hi(&op.key.arg2))
	w.Set(colArg2Lo, module.Lo(&op.key.arg2))
	w.Set(colResHi, module.Hi(res))
	w.Set(colResLo, module.Lo(res))
}
