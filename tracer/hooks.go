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

package tracer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
	"github.com/zkevm-arith/zktracer/module"
)

// hooks adapts the tracer to the go-ethereum live tracing interface.
type hooks struct {
	t     *ZkTracer
	state tracing.StateDB
}

// Hooks returns the EVM callbacks feeding the tracer. Conflation boundaries
// are not part of the EVM's lifecycle and are driven with StartConflation and
// EndConflation.
//
// A transaction failing with a consensus error is popped. Reverted
// transactions are kept: their execution is part of the block. System calls
// (beacon roots, block hash history, execution requests) are always retained.
func (t *ZkTracer) Hooks() *tracing.Hooks {
	h := &hooks{t: t}
	return &tracing.Hooks{
		OnBlockchainInit:    h.OnBlockchainInit,
		OnBlockStart:        h.OnBlockStart,
		OnSystemCallStartV2: h.OnSystemCallStart,
		OnSystemCallEnd:     h.OnSystemCallEnd,
		OnTxStart:           h.OnTxStart,
		OnTxEnd:             h.OnTxEnd,
		OnOpcode:            h.OnOpcode,
		OnEnter:             h.OnEnter,
	}
}

func (h *hooks) OnBlockchainInit(chainConfig *params.ChainConfig) {
	h.t.chain = chainConfig
}

func (h *hooks) OnBlockStart(ev tracing.BlockEvent) {
	h.state = nil
	h.t.TraceStartBlock(ev.Block.Header())
}

func (h *hooks) OnSystemCallStart(vm *tracing.VMContext) {
	h.state = vm.StateDB
	h.t.CommitTransaction()
}

func (h *hooks) OnSystemCallEnd() {
	h.t.CommitTransaction()
}

func (h *hooks) OnTxStart(vm *tracing.VMContext, tx *types.Transaction, from common.Address) {
	h.state = vm.StateDB
	h.t.EnterTransaction()
}

func (h *hooks) OnTxEnd(receipt *types.Receipt, err error) {
	if err != nil {
		log.Warn("Popping failed transaction", "block", h.t.Block(), "err", err)
		h.t.PopTransaction()
	}
}

func (h *hooks) OnOpcode(pc uint64, op byte, gas, cost uint64, scope tracing.OpContext, rData []byte, depth int, err error) {
	h.t.TraceOpcode(vm.OpCode(op), scope.StackData())
}

func (h *hooks) OnEnter(depth int, typ byte, from common.Address, to common.Address, input []byte, gas uint64, value *big.Int) {
	frame := module.Frame{Type: vm.OpCode(typ), Address: to}
	if frame.IsDeployment() {
		frame.Code = input
	} else if h.state != nil {
		frame.Code = h.state.GetCode(to)
		frame.CodeHash = h.state.GetCodeHash(to)
	}
	h.t.TraceFrame(frame)
}
