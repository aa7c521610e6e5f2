// Copyright 2026 The zktracer Authors
// This file is part of zktracer.
//
// zktracer is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// zktracer is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with zktracer. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/zkevm-arith/zktracer/module"
)

// fixture is a recorded execution: blocks of transactions, each a sequence of
// opcode and call frame events.
type fixture struct {
	ChainID      *hexutil.Big    `json:"chainId"`
	ShanghaiTime *hexutil.Uint64 `json:"shanghaiTime,omitempty"`
	CancunTime   *hexutil.Uint64 `json:"cancunTime,omitempty"`
	PragueTime   *hexutil.Uint64 `json:"pragueTime,omitempty"`
	Blocks       []fixtureBlock  `json:"blocks"`
}

type fixtureBlock struct {
	Number        hexutil.Uint64  `json:"number"`
	Timestamp     hexutil.Uint64  `json:"timestamp"`
	Coinbase      common.Address  `json:"coinbase"`
	Difficulty    *hexutil.Big    `json:"difficulty"`
	PrevRandao    common.Hash     `json:"prevRandao"`
	GasLimit      hexutil.Uint64  `json:"gasLimit"`
	BaseFee       *hexutil.Big    `json:"baseFee,omitempty"`
	ExcessBlobGas *hexutil.Uint64 `json:"excessBlobGas,omitempty"`
	Transactions  []fixtureTx     `json:"transactions"`
}

type fixtureTx struct {
	Hash common.Hash `json:"hash"`
	// Failed transactions are traced and then popped.
	Failed bool          `json:"failed,omitempty"`
	Steps  []fixtureStep `json:"steps"`
}

// fixtureStep is either an opcode, with its stack listed top first, or a
// new call frame.
type fixtureStep struct {
	Op    string         `json:"op,omitempty"`
	Stack []hexutil.U256 `json:"stack,omitempty"`
	Frame *fixtureFrame  `json:"frame,omitempty"`
}

type fixtureFrame struct {
	Type    string         `json:"type"`
	Address common.Address `json:"address"`
	Code    hexutil.Bytes  `json:"code"`
}

func readFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if fx.ChainID == nil {
		return nil, fmt.Errorf("%s: missing chainId", path)
	}
	return &fx, nil
}

func (fx *fixture) chainConfig() *params.ChainConfig {
	return &params.ChainConfig{
		ChainID:            fx.ChainID.ToInt(),
		LondonBlock:        new(big.Int),
		ShanghaiTime:       (*uint64)(fx.ShanghaiTime),
		CancunTime:         (*uint64)(fx.CancunTime),
		PragueTime:         (*uint64)(fx.PragueTime),
		BlobScheduleConfig: params.DefaultBlobSchedule,
	}
}

func (b *fixtureBlock) header() *types.Header {
	h := &types.Header{
		Number:        new(big.Int).SetUint64(uint64(b.Number)),
		Time:          uint64(b.Timestamp),
		Coinbase:      b.Coinbase,
		Difficulty:    new(big.Int),
		MixDigest:     b.PrevRandao,
		GasLimit:      uint64(b.GasLimit),
		ExcessBlobGas: (*uint64)(b.ExcessBlobGas),
	}
	if b.Difficulty != nil {
		h.Difficulty = b.Difficulty.ToInt()
	}
	if b.BaseFee != nil {
		h.BaseFee = b.BaseFee.ToInt()
	}
	return h
}

// opcode resolves the step's instruction.
func (s *fixtureStep) opcode() (vm.OpCode, error) {
	op := vm.StringToOp(s.Op)
	if op == 0 && s.Op != "STOP" {
		return 0, fmt.Errorf("unknown opcode %q", s.Op)
	}
	return op, nil
}

// stack returns the stack in interpreter order, top last.
func (s *fixtureStep) stack() []uint256.Int {
	stack := make([]uint256.Int, len(s.Stack))
	for i, x := range s.Stack {
		stack[len(s.Stack)-1-i] = uint256.Int(x)
	}
	return stack
}

func (f *fixtureFrame) frame() (module.Frame, error) {
	typ := vm.StringToOp(f.Type)
	switch typ {
	case vm.CALL, vm.CALLCODE, vm.DELEGATECALL, vm.STATICCALL, vm.CREATE, vm.CREATE2:
	default:
		return module.Frame{}, fmt.Errorf("invalid frame type %q", f.Type)
	}
	return module.Frame{Type: typ, Address: f.Address, Code: f.Code}, nil
}
