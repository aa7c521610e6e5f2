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

// Package blockdata implements the table of block-level values of every block
// in a conflation. The rows of a block are given by its fork.
package blockdata

import (
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/zkevm-arith/zktracer/container"
	"github.com/zkevm-arith/zktracer/module"
	"github.com/zkevm-arith/zktracer/trace"
)

const (
	colRelBlock = iota
	colFirstBlockNumber
	colInst
	colCt
	colCtMax
	colDataHi
	colDataLo
)

var Name = module.BlockData.Name()

var Columns = trace.Declare(Name,
	trace.Column{Name: "REL_BLOCK", Width: 2},
	trace.Column{Name: "FIRST_BLOCK_NUMBER", Width: 8},
	trace.Column{Name: "INST", Width: 1},
	trace.Column{Name: "CT", Width: 1},
	trace.Column{Name: "CT_MAX", Width: 1},
	trace.Column{Name: "DATA_HI", Width: 16},
	trace.Column{Name: "DATA_LO", Width: 16},
)

// Block is the recorded data of one block.
type Block struct {
	Fork   *Fork
	Number uint64
	Values []uint256.Int
}

func (b *Block) LineCount() int { return len(b.Fork.Fields) }

// BlockData is the block data module: one row per block field of every block
// in the conflation.
type BlockData struct {
	config *params.ChainConfig
	blocks *container.StackedList[*Block]
}

// New creates a block data module for the given chain.
func New(config *params.ChainConfig) *BlockData {
	return &BlockData{config: config, blocks: container.NewStackedList[*Block]()}
}

func (bd *BlockData) Name() string { return Name }
func (bd *BlockData) Columns() []trace.Column { return Columns }
func (bd *BlockData) LineCount() int { return bd.blocks.LineCount() }

// Blocks are recorded outside of transactions and are never popped.
func (bd *BlockData) EnterTransaction() { bd.blocks.Enter() }
func (bd *BlockData) CommitTransaction() { bd.blocks.Enter() }
func (bd *BlockData) PopTransaction() { bd.blocks.Pop() }
func (bd *BlockData) FinishConflation() { bd.blocks.FinishConflation() }

func (bd *BlockData) TraceStartBlock(header *types.Header) {
	fork := SelectFork(bd.config, header)
	b := &Block{Fork: fork, Number: header.Number.Uint64(), Values: make([]uint256.Int, len(fork.Fields))}
	for i, f := range fork.Fields {
		b.Values[i] = *value(f, bd.config, header)
	}
	bd.blocks.Add(b)
	bd.blocks.Enter()
	log.Debug("Recorded block data", "number", b.Number, "fork", fork.Name)
}

// Blocks returns the recorded blocks. The module must be frozen.
func (bd *BlockData) Blocks() []*Block { return bd.blocks.All() }

func (bd *BlockData) Commit(w *trace.Writer) {
	blocks := bd.blocks.All()
	if len(blocks) == 0 {
		return
	}
	first := blocks[0].Number
	for rel, b := range blocks {
		if b.Number != first+uint64(rel) {
			trace.Fail("blockdata: block %d recorded at position %d after block %d", b.Number, rel, first)
		}
		module.Expand(w, Name, b.LineCount(), func() {
			for ct, f := range b.Fork.Fields {
				w.SetUint64(colRelBlock, uint64(rel+1))
				w.SetUint64(colFirstBlockNumber, first)
				w.SetUint64(colInst, uint64(f.Opcode()))
				w.SetUint64(colCt, uint64(ct))
				w.SetUint64(colCtMax, uint64(b.LineCount()-1))
				w.Set(colDataHi, module.Hi(&b.Values[ct]))
				w.Set(colDataLo, module.Lo(&b.Values[ct]))
				w.ValidateRow()
			}
		})
	}
}
