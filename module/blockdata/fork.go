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

package blockdata

import (
	"math/big"

	"github.com/ethereum/go-ethereum/consensus/misc/eip4844"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/zkevm-arith/zktracer/trace"
)

// Field is one block-level value exposed to contracts.
type Field int

const (
	Coinbase Field = iota
	Timestamp
	Number
	Difficulty
	PrevRandao
	GasLimit
	ChainID
	BaseFee
	BlobBaseFee
)

// Opcode returns the instruction that reads the field.
func (f Field) Opcode() vm.OpCode {
	switch f {
	case Coinbase:
		return vm.COINBASE
	case Timestamp:
		return vm.TIMESTAMP
	case Number:
		return vm.NUMBER
	case Difficulty:
		return vm.DIFFICULTY
	case PrevRandao:
		return vm.PREVRANDAO
	case GasLimit:
		return vm.GASLIMIT
	case ChainID:
		return vm.CHAINID
	case BaseFee:
		return vm.BASEFEE
	case BlobBaseFee:
		return vm.BLOBBASEFEE
	}
	return vm.STOP
}

// Fork describes the block data rows of one protocol upgrade.
type Fork struct {
	Name   string
	Fields []Field
}

var (
	London = &Fork{
		Name:   "london",
		Fields: []Field{Coinbase, Timestamp, Number, Difficulty, GasLimit, ChainID, BaseFee},
	}
	Paris = &Fork{
		Name:   "paris",
		Fields: []Field{Coinbase, Timestamp, Number, PrevRandao, GasLimit, ChainID, BaseFee},
	}
	Shanghai = &Fork{
		Name:   "shanghai",
		Fields: Paris.Fields,
	}
	Cancun = &Fork{
		Name:   "cancun",
		Fields: []Field{Coinbase, Timestamp, Number, PrevRandao, GasLimit, ChainID, BaseFee, BlobBaseFee},
	}
	Prague = &Fork{
		Name:   "prague",
		Fields: Cancun.Fields,
	}
)

// SelectFork returns the fork active at header. A zero difficulty marks a
// post-merge block.
func SelectFork(config *params.ChainConfig, header *types.Header) *Fork {
	switch {
	case config.IsPrague(header.Number, header.Time):
		return Prague
	case config.IsCancun(header.Number, header.Time):
		return Cancun
	case config.IsShanghai(header.Number, header.Time):
		return Shanghai
	case header.Difficulty == nil || header.Difficulty.Sign() == 0:
		return Paris
	default:
		return London
	}
}

// value reads field f of header.
func value(f Field, config *params.ChainConfig, header *types.Header) *uint256.Int {
	var x uint256.Int
	switch f {
	case Coinbase:
		x.SetBytes20(header.Coinbase.Bytes())
	case Timestamp:
		x.SetUint64(header.Time)
	case Number:
		setBig(&x, header.Number)
	case Difficulty:
		setBig(&x, header.Difficulty)
	case PrevRandao:
		x.SetBytes32(header.MixDigest.Bytes())
	case GasLimit:
		x.SetUint64(header.GasLimit)
	case ChainID:
		setBig(&x, config.ChainID)
	case BaseFee:
		setBig(&x, header.BaseFee)
	case BlobBaseFee:
		if header.ExcessBlobGas == nil {
			trace.Fail("blockdata: block %v has no excess blob gas", header.Number)
		}
		setBig(&x, eip4844.CalcBlobFee(config, header))
	}
	return &x
}

// setBig sets x to b, leaving it zero for a nil b.
func setBig(x *uint256.Int, b *big.Int) {
	if b == nil {
		return
	}
	if x.SetFromBig(b) {
		trace.Fail("blockdata: %v overflows a word", b)
	}
}
