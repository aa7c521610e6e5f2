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

// Package tracer drives the trace-producing modules from EVM execution. A
// ZkTracer owns one instance of every enabled module per conflation, routes
// block, transaction, opcode and frame events to them, checks transactions
// against the trace limits and writes the conflation's trace file.
package tracer

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/zkevm-arith/zktracer/ccc"
	"github.com/zkevm-arith/zktracer/module"
	"github.com/zkevm-arith/zktracer/module/add"
	"github.com/zkevm-arith/zktracer/module/blockdata"
	"github.com/zkevm-arith/zktracer/module/mod"
	"github.com/zkevm-arith/zktracer/module/romlex"
	"github.com/zkevm-arith/zktracer/trace"
)

var (
	errNoConflation  = errors.New("no conflation in progress")
	errNotFinished   = errors.New("conflation not finished")
	errConflationRun = errors.New("conflation already in progress")
)

var (
	conflationMeter = metrics.NewRegisteredCounter("zktracer/conflations", nil)
	txMeter         = metrics.NewRegisteredCounter("zktracer/transactions", nil)
	popMeter        = metrics.NewRegisteredCounter("zktracer/transactions/popped", nil)
)

type state int

const (
	idle state = iota
	active
	finished
)

// ZkTracer produces the traces of a sequence of conflations.
type ZkTracer struct {
	cfg     Config
	chain   *params.ChainConfig
	ids     []module.ID
	checker *ccc.Checker

	state   state
	modules []module.Module
	opcodes [256][]module.OpcodeTracer
	blocks  []module.BlockTracer
	frames  []module.FrameTracer

	block      uint64
	blockStart ccc.Snapshot
	txStart    ccc.Snapshot
}

// New creates a tracer for the configured modules. Configuration problems are
// reported as errors wrapping ErrConfig.
func New(cfg Config, chain *params.ChainConfig) (*ZkTracer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if chain == nil {
		return nil, fmt.Errorf("%w: missing chain config", ErrConfig)
	}
	ids, _ := cfg.ModuleIDs()
	checker, err := ccc.NewChecker(ids, cfg.Limits, ccc.NewConflictCache(cfg.CacheSize, cfg.CacheMaxAge))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return &ZkTracer{cfg: cfg, chain: chain, ids: ids, checker: checker}, nil
}

// newModule builds the module of id for a new conflation.
func (t *ZkTracer) newModule(id module.ID) module.Module {
	switch id {
	case module.Add:
		return add.New()
	case module.Mod:
		return mod.New()
	case module.BlockData:
		return blockdata.New(t.chain)
	case module.RomLex:
		return romlex.New()
	}
	panic(fmt.Sprintf("no implementation for module %v", id))
}

// StartConflation discards the previous conflation and starts recording a new
// one.
func (t *ZkTracer) StartConflation() error {
	if t.state == active {
		return errConflationRun
	}
	t.modules = t.modules[:0]
	t.opcodes = [256][]module.OpcodeTracer{}
	t.blocks, t.frames = nil, nil
	for _, id := range t.ids {
		m := t.newModule(id)
		t.modules = append(t.modules, m)
		if ot, ok := m.(module.OpcodeTracer); ok {
			for _, op := range ot.Opcodes() {
				t.opcodes[op] = append(t.opcodes[op], ot)
			}
		}
		if bt, ok := m.(module.BlockTracer); ok {
			t.blocks = append(t.blocks, bt)
		}
		if ft, ok := m.(module.FrameTracer); ok {
			t.frames = append(t.frames, ft)
		}
	}
	t.state = active
	t.blockStart, t.txStart = nil, nil
	conflationMeter.Inc(1)
	log.Debug("Started conflation", "modules", len(t.modules))
	return nil
}

// EndConflation retains the last transaction and freezes every module. A
// consistency failure abandons the conflation.
func (t *ZkTracer) EndConflation() error {
	if t.state != active {
		return errNoConflation
	}
	for _, m := range t.modules {
		if err := finish(m); err != nil {
			t.state = idle
			log.Error("Abandoning conflation", "err", err)
			return err
		}
	}
	t.state = finished
	for name, n := range t.LineCounts() {
		metrics.GetOrRegisterGauge("zktracer/"+name+"/lines", nil).Update(int64(n))
	}
	log.Debug("Finished conflation", "lines", t.LineCounts())
	return nil
}

func finish(m module.Module) (err error) {
	defer recoverConsistency(m, &err)
	m.FinishConflation()
	return nil
}

func (t *ZkTracer) mustBeActive(event string) {
	if t.state != active {
		panic(fmt.Sprintf("zktracer: %s outside of a conflation", event))
	}
}

// TraceStartBlock records a block header.
func (t *ZkTracer) TraceStartBlock(header *types.Header) {
	t.mustBeActive("block start")
	for _, m := range t.modules {
		m.CommitTransaction()
	}
	for _, m := range t.blocks {
		m.TraceStartBlock(header)
	}
	t.block = header.Number.Uint64()
	t.blockStart = t.LineCounts()
	t.txStart = t.blockStart
}

// EnterTransaction retains whatever the previous transaction recorded and
// opens a new speculative region.
func (t *ZkTracer) EnterTransaction() {
	t.mustBeActive("transaction start")
	for _, m := range t.modules {
		m.EnterTransaction()
	}
	t.txStart = t.LineCounts()
	txMeter.Inc(1)
}

// CommitTransaction retains the current transaction.
func (t *ZkTracer) CommitTransaction() {
	t.mustBeActive("transaction commit")
	for _, m := range t.modules {
		m.CommitTransaction()
	}
	t.txStart = t.LineCounts()
}

// PopTransaction discards everything recorded since the current transaction
// started.
func (t *ZkTracer) PopTransaction() {
	t.mustBeActive("transaction pop")
	for _, m := range t.modules {
		m.PopTransaction()
	}
	popMeter.Inc(1)
}

// TraceOpcode records an opcode about to execute on the given stack, top of
// stack last.
func (t *ZkTracer) TraceOpcode(op vm.OpCode, stack []uint256.Int) {
	for _, m := range t.opcodes[op] {
		m.TraceOpcode(op, stack)
	}
}

// TraceFrame records a new call frame.
func (t *ZkTracer) TraceFrame(frame module.Frame) {
	for _, m := range t.frames {
		m.TraceFrame(frame)
	}
}

// Check evaluates the current transaction against the trace limits of the
// block. Transactions which do not fit should be popped.
func (t *ZkTracer) Check(tx common.Hash) ccc.Result {
	t.mustBeActive("capacity check")
	now := t.LineCounts()
	return t.checker.Evaluate(tx, t.block, t.txStart.Sub(t.blockStart), now.Sub(t.blockStart))
}

// Checker returns the capacity checker, for sequencers which want to skip
// known offenders before executing them.
func (t *ZkTracer) Checker() *ccc.Checker { return t.checker }

// Block returns the number of the block being traced.
func (t *ZkTracer) Block() uint64 { return t.block }

// Modules returns the modules of the current conflation.
func (t *ZkTracer) Modules() []module.Module { return t.modules }

// LineCounts returns the line count of every module, keyed by name.
func (t *ZkTracer) LineCounts() ccc.Snapshot {
	counts := make(ccc.Snapshot, len(t.modules))
	for _, m := range t.modules {
		counts[m.Name()] = m.LineCount()
	}
	return counts
}

func (t *ZkTracer) LineCount(name string) (int, bool) {
	for _, m := range t.modules {
		if m.Name() == name {
			return m.LineCount(), true
		}
	}
	return 0, false
}

// Columns returns the columns of every module of the conflation, in module
// order.
func (t *ZkTracer) Columns() []trace.Column {
	var cols []trace.Column
	for _, m := range t.modules {
		cols = append(cols, m.Columns()...)
	}
	return cols
}

// Columns returns the column headers of a module.
func Columns(id module.ID) []trace.Column {
	switch id {
	case module.Add:
		return add.Columns
	case module.Mod:
		return mod.Columns
	case module.BlockData:
		return blockdata.Columns
	case module.RomLex:
		return romlex.Columns
	}
	return nil
}
