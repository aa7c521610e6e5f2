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

import "github.com/holiman/uint256"

// Hi returns the most significant 16 bytes of x, big-endian.
func Hi(x *uint256.Int) []byte {
	b := x.Bytes32()
	return b[:16]
}

// Lo returns the least significant 16 bytes of x, big-endian.
func Lo(x *uint256.Int) []byte {
	b := x.Bytes32()
	return b[16:]
}

// Peek returns the n-th item from the top of stack. ok is false if the stack
// is too shallow, in which case the opcode is about to fail with an underflow.
func Peek(stack []uint256.Int, n int) (x *uint256.Int, ok bool) {
	if n >= len(stack) {
		return nil, false
	}
	return &stack[len(stack)-1-n], true
}

// LimbPrefix returns the value of the first k+1 big-endian bytes of limb.
func LimbPrefix(limb uint64, k int) uint64 {
	return limb >> (8 * (7 - k))
}

// LimbByte returns big-endian byte k of limb.
func LimbByte(limb uint64, k int) uint64 {
	return (limb >> (8 * (7 - k))) & 0xff
}
