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
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"github.com/zkevm-arith/zktracer/ccc"
	"github.com/zkevm-arith/zktracer/module"
	"github.com/zkevm-arith/zktracer/trace"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	contract     = common.HexToAddress("0xc0de")
	contractCode = []byte{0x60, 0x02, 0x60, 0x0a, 0x04, 0x00}
)

func testChainConfig() *params.ChainConfig {
	shanghai := uint64(1000)
	return &params.ChainConfig{
		ChainID:      big.NewInt(1337),
		LondonBlock:  big.NewInt(0),
		ShanghaiTime: &shanghai,
	}
}

type fakeState struct {
	tracing.StateDB
	code map[common.Address][]byte
}

func (s *fakeState) GetCode(addr common.Address) []byte { return s.code[addr] }
func (s *fakeState) GetCodeHash(addr common.Address) common.Hash {
	return crypto.Keccak256Hash(s.code[addr])
}

type fakeScope struct {
	tracing.OpContext
	stack []uint256.Int
}

func (s *fakeScope) StackData() []uint256.Int { return s.stack }

// stack builds an interpreter stack from its top element down.
func stack(top ...uint64) *fakeScope {
	s := &fakeScope{}
	for i := len(top) - 1; i >= 0; i-- {
		s.stack = append(s.stack, *uint256.NewInt(top[i]))
	}
	return s
}

func newTracer(t *testing.T, cfg Config) *ZkTracer {
	t.Helper()
	zt, err := New(cfg, testChainConfig())
	require.NoError(t, err)
	require.NoError(t, zt.StartConflation())
	return zt
}

func testHeader(number uint64) *types.Header {
	return &types.Header{Number: new(big.Int).SetUint64(number), Time: 10, Difficulty: new(big.Int), GasLimit: 30_000_000}
}

func TestNewConfigErrors(t *testing.T) {
	cfg := DefaultConfig
	cfg.Modules = []string{"add", "keccak"}
	_, err := New(cfg, testChainConfig())
	require.ErrorIs(t, err, ErrConfig)

	cfg.Modules = []string{"add", "ADD"}
	_, err = New(cfg, testChainConfig())
	require.ErrorIs(t, err, ErrConfig)

	cfg = DefaultConfig
	cfg.Limits = ccc.Limits{"ADD": 10}
	_, err = New(cfg, testChainConfig())
	require.ErrorIs(t, err, ErrConfig)
	require.ErrorIs(t, err, ccc.ErrMissingLimit)

	_, err = New(DefaultConfig, nil)
	require.ErrorIs(t, err, ErrConfig)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zktracer.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
modules = ["mod", "BLOCK_DATA"]
cache-size = 16

[traces-limits]
MOD = 64
`), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, []string{"mod", "BLOCK_DATA"}, cfg.Modules)
	require.Equal(t, 16, cfg.CacheSize)
	require.Equal(t, DefaultConfig.CacheMaxAge, cfg.CacheMaxAge)
	require.Equal(t, 64, cfg.Limits["MOD"])
	require.Equal(t, DefaultConfig.Limits["BLOCK_DATA"], cfg.Limits["BLOCK_DATA"])
	require.Equal(t, 131_072, DefaultConfig.Limits["MOD"], "defaults modified")
	require.NoError(t, cfg.Validate())

	require.NoError(t, os.WriteFile(path, []byte("modulez = [\"mod\"]\n"), 0o644))
	_, err = LoadConfig(path)
	require.ErrorIs(t, err, ErrConfig)
}

func TestHooksConflation(t *testing.T) {
	zt := newTracer(t, DefaultConfig)
	state := &fakeState{code: map[common.Address][]byte{contract: contractCode}}
	hooks := zt.Hooks()

	hooks.OnBlockStart(tracing.BlockEvent{Block: types.NewBlockWithHeader(testHeader(7))})

	// A retained transaction.
	hooks.OnTxStart(&tracing.VMContext{StateDB: state}, types.NewTx(&types.LegacyTx{Nonce: 1}), common.Address{})
	hooks.OnEnter(0, byte(vm.CALL), common.Address{}, contract, nil, 100_000, new(big.Int))
	hooks.OnOpcode(4, byte(vm.DIV), 0, 5, stack(10, 2), nil, 1, nil)
	hooks.OnOpcode(4, byte(vm.DIV), 0, 5, stack(10, 2), nil, 1, nil)
	hooks.OnOpcode(5, byte(vm.STOP), 0, 0, stack(), nil, 1, nil)
	hooks.OnTxEnd(&types.Receipt{Status: types.ReceiptStatusSuccessful}, nil)

	// A transaction failing validation is popped.
	hooks.OnTxStart(&tracing.VMContext{StateDB: state}, types.NewTx(&types.LegacyTx{Nonce: 2}), common.Address{})
	hooks.OnOpcode(0, byte(vm.ADD), 0, 3, stack(1, 2), nil, 1, nil)
	hooks.OnEnter(1, byte(vm.CREATE), contract, common.HexToAddress("0xbeef"), []byte{0x00}, 100, new(big.Int))
	hooks.OnTxEnd(nil, errors.New("nonce too high"))

	require.NoError(t, zt.EndConflation())
	require.Equal(t, ccc.Snapshot{"add": 0, "mod": 8, "blockdata": 7, "romlex": 1}, zt.LineCounts())
	n, ok := zt.LineCount("romlex")
	require.True(t, ok)
	require.Equal(t, 1, n)
	_, ok = zt.LineCount("keccak")
	require.False(t, ok)

	path := filepath.Join(t.TempDir(), "conflation.lt")
	require.NoError(t, zt.WriteTrace(context.Background(), path))

	f, err := trace.Open(path)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, 8, f.Rows())
	require.Equal(t, zt.Columns(), f.Columns())

	stamps, ok := f.Region("mod.STAMP")
	require.True(t, ok)
	require.Equal(t, []byte{0, 0, 0, 1}, stamps[:4])
	require.Equal(t, []byte{0, 0, 0, 1}, stamps[28:32])

	rel, ok := f.Region("blockdata.REL_BLOCK")
	require.True(t, ok)
	require.Equal(t, []byte{0, 1}, rel[12:14], "last block row")
	require.Equal(t, []byte{0, 0}, rel[14:16], "padding row")

	size, ok := f.Region("romlex.CODE_SIZE")
	require.True(t, ok)
	require.Equal(t, []byte{0, 0, 0, byte(len(contractCode))}, size[:4])
}

func TestHooksSystemCalls(t *testing.T) {
	zt := newTracer(t, DefaultConfig)
	hooks := zt.Hooks()
	first := &fakeState{code: map[common.Address][]byte{
		params.BeaconRootsAddress: params.BeaconRootsCode,
		contract:                  contractCode,
	}}
	second := &fakeState{code: map[common.Address][]byte{
		params.BeaconRootsAddress:    params.BeaconRootsCode,
		params.HistoryStorageAddress: params.HistoryStorageCode,
		contract:                     contractCode,
	}}
	systemCall := func(state *fakeState, to common.Address) {
		hooks.OnSystemCallStartV2(&tracing.VMContext{StateDB: state})
		hooks.OnEnter(0, byte(vm.CALL), params.SystemAddress, to, nil, 30_000_000, new(big.Int))
		hooks.OnSystemCallEnd()
	}

	// The first system call of the conflation runs before any transaction.
	hooks.OnBlockStart(tracing.BlockEvent{Block: types.NewBlockWithHeader(testHeader(7))})
	systemCall(first, params.BeaconRootsAddress)
	n, _ := zt.LineCount("romlex")
	require.Equal(t, 1, n)

	hooks.OnTxStart(&tracing.VMContext{StateDB: first}, types.NewTx(&types.LegacyTx{Nonce: 1}), common.Address{})
	hooks.OnEnter(0, byte(vm.CALL), common.Address{}, contract, nil, 100_000, new(big.Int))
	hooks.OnTxEnd(&types.Receipt{Status: types.ReceiptStatusSuccessful}, nil)

	// Code only present in the next block's state is read from that state.
	hooks.OnBlockStart(tracing.BlockEvent{Block: types.NewBlockWithHeader(testHeader(8))})
	systemCall(second, params.HistoryStorageAddress)
	n, _ = zt.LineCount("romlex")
	require.Equal(t, 3, n)

	// System calls are retained even if the next transaction is popped.
	hooks.OnTxStart(&tracing.VMContext{StateDB: second}, types.NewTx(&types.LegacyTx{Nonce: 2}), common.Address{})
	hooks.OnTxEnd(nil, errors.New("nonce too low"))
	require.NoError(t, zt.EndConflation())
	require.Equal(t, 3, zt.LineCounts()["romlex"])
}

func TestWriteTraceRequiresFinishedConflation(t *testing.T) {
	zt := newTracer(t, DefaultConfig)
	err := zt.WriteTrace(context.Background(), filepath.Join(t.TempDir(), "x.lt"))
	require.ErrorIs(t, err, errNotFinished)
	require.ErrorIs(t, zt.StartConflation(), errConflationRun)
}

// brokenModule emits a row with a column missing.
type brokenModule struct{}

var brokenColumns = trace.Declare("broken", trace.Column{Name: "A", Width: 1}, trace.Column{Name: "B", Width: 1})

func (brokenModule) Name() string { return "broken" }
func (brokenModule) Columns() []trace.Column { return brokenColumns }
func (brokenModule) LineCount() int { return 1 }
func (brokenModule) EnterTransaction() {}
func (brokenModule) CommitTransaction() {}
func (brokenModule) PopTransaction() {}
func (brokenModule) FinishConflation() {}
func (brokenModule) Commit(w *trace.Writer) {
	w.SetUint64(0, 1)
	w.ValidateRow()
}

func TestConsistencyFailureAbandonsConflation(t *testing.T) {
	zt := newTracer(t, DefaultConfig)
	zt.TraceStartBlock(testHeader(1))
	zt.EnterTransaction()
	zt.TraceOpcode(vm.MOD, stack(7, 3).stack)
	zt.modules = append(zt.modules, brokenModule{})
	require.NoError(t, zt.EndConflation())

	dir := t.TempDir()
	err := zt.WriteTrace(context.Background(), filepath.Join(dir, "conflation.lt"))
	var ce *trace.ConsistencyError
	require.ErrorAs(t, err, &ce)
	require.ErrorContains(t, err, "broken")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "trace file left behind")
}

// unfinishableModule fails while being frozen.
type unfinishableModule struct{ brokenModule }

func (unfinishableModule) FinishConflation() { trace.Fail("unfinishable: corrupt state") }

func TestConsistencyFailureAtEndConflation(t *testing.T) {
	zt := newTracer(t, DefaultConfig)
	zt.TraceStartBlock(testHeader(1))
	zt.modules = append(zt.modules, unfinishableModule{})

	err := zt.EndConflation()
	var ce *trace.ConsistencyError
	require.ErrorAs(t, err, &ce)
	require.ErrorContains(t, err, "unfinishable")
	require.ErrorIs(t, zt.WriteTrace(context.Background(), filepath.Join(t.TempDir(), "x.lt")), errNotFinished)
	require.NoError(t, zt.StartConflation())
}

func TestCheck(t *testing.T) {
	cfg := DefaultConfig
	cfg.Limits = ccc.Limits{"ADD": 100, "MOD": 10, "BLOCK_DATA": 100, "ROMLEX": 100}
	zt := newTracer(t, cfg)
	zt.TraceStartBlock(testHeader(1))

	tx1, tx2, tx3 := common.HexToHash("0x01"), common.HexToHash("0x02"), common.HexToHash("0x03")

	// Two divisions in one transaction are too many for the MOD table.
	zt.EnterTransaction()
	zt.TraceOpcode(vm.DIV, stack(10, 2).stack)
	zt.TraceOpcode(vm.DIV, stack(10, 3).stack)
	r := zt.Check(tx1)
	require.Equal(t, ccc.TxLimitExceeded, r.Status)
	require.Equal(t, "mod", r.Module)
	zt.PopTransaction()
	require.True(t, zt.Checker().Known(tx1, zt.Block()))

	zt.EnterTransaction()
	zt.TraceOpcode(vm.DIV, stack(10, 2).stack)
	require.True(t, zt.Check(tx2).Fits())

	// The next division fits on its own but not in this block.
	zt.EnterTransaction()
	zt.TraceOpcode(vm.DIV, stack(10, 3).stack)
	r = zt.Check(tx3)
	require.Equal(t, ccc.BlockLimitExceeded, r.Status)
	require.False(t, zt.Checker().Known(tx3, zt.Block()))
	zt.PopTransaction()

	require.Equal(t, 8, zt.LineCounts()["mod"])
	require.Equal(t, ccc.KnownOffender, zt.Check(tx1).Status)
}

func TestPopAndEnter(t *testing.T) {
	zt := newTracer(t, DefaultConfig)
	zt.EnterTransaction()
	zt.TraceOpcode(vm.ADD, stack(1, 1).stack)
	zt.PopTransaction()
	require.Zero(t, zt.LineCounts()["add"])

	zt.EnterTransaction()
	zt.TraceOpcode(vm.ADD, stack(1, 1).stack)
	zt.EnterTransaction()
	zt.PopTransaction()
	require.Equal(t, 1, zt.LineCounts()["add"])

	zt.CommitTransaction()
	zt.PopTransaction()
	require.Equal(t, 1, zt.LineCounts()["add"])
}

func TestColumns(t *testing.T) {
	seen := make(map[string]bool)
	for _, id := range module.All() {
		cols := Columns(id)
		require.NotEmpty(t, cols, "module %v", id)
		for _, c := range cols {
			require.False(t, seen[c.Name], "duplicate column %s", c.Name)
			seen[c.Name] = true
		}
	}
	zt := newTracer(t, DefaultConfig)
	require.Len(t, zt.Columns(), len(seen))
}
