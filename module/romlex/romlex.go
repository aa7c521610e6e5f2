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

// Package romlex implements the code fragment index: one row per distinct
// piece of bytecode executed in a conflation, sorted so that other tables can
// refer to a fragment by its row.
package romlex

import (
	"bytes"
	"cmp"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/zkevm-arith/zktracer/container"
	"github.com/zkevm-arith/zktracer/module"
	"github.com/zkevm-arith/zktracer/trace"
)

const (
	colCodeFragmentIndex = iota
	colAddressHi
	colAddressLo
	colDeploymentNumber
	colDeploymentStatus
	colCodeHashHi
	colCodeHashLo
	colCodeSize
)

var Name = module.RomLex.Name()

var Columns = trace.Declare(Name,
	trace.Column{Name: "CODE_FRAGMENT_INDEX", Width: 4},
	trace.Column{Name: "ADDRESS_HI", Width: 4},
	trace.Column{Name: "ADDRESS_LO", Width: 16},
	trace.Column{Name: "DEPLOYMENT_NUMBER", Width: 4},
	trace.Column{Name: "DEPLOYMENT_STATUS", Width: 1},
	trace.Column{Name: "CODE_HASH_HI", Width: 16},
	trace.Column{Name: "CODE_HASH_LO", Width: 16},
	trace.Column{Name: "CODE_SIZE", Width: 4},
)

// Fragment is a piece of bytecode as executed at an address. Init code runs
// with Deploying set, at the deployment number its CREATE assigned.
type Fragment struct {
	Address          common.Address
	DeploymentNumber uint64
	Deploying        bool
	CodeHash         common.Hash
	CodeSize         int
}

func (f Fragment) Key() Fragment { return f }
func (f Fragment) LineCount() int { return 1 }

// compare orders fragments by address, deployment number, init code before
// deployed code, then code hash.
func compare(a, b Fragment) int {
	if c := bytes.Compare(a.Address[:], b.Address[:]); c != 0 {
		return c
	}
	if c := cmp.Compare(a.DeploymentNumber, b.DeploymentNumber); c != 0 {
		return c
	}
	if a.Deploying != b.Deploying {
		if a.Deploying {
			return -1
		}
		return 1
	}
	return bytes.Compare(a.CodeHash[:], b.CodeHash[:])
}

type fragmentRef struct {
	address          common.Address
	deploymentNumber uint64
	deploying        bool
}

// RomLex is the code fragment index module. Fragments are recorded as frames
// start and are only sorted and numbered once the conflation is finished.
type RomLex struct {
	deployments *container.StackedMap[common.Address, uint64]
	codes       *container.StackedMap[common.Address, common.Hash] // deployed code hash at the current deployment
	fragments   *container.DedupSet[Fragment, Fragment]

	sorted []Fragment
	index  map[fragmentRef]int
}

// New creates an empty code fragment index.
func New() *RomLex {
	return &RomLex{
		deployments: container.NewStackedMap[common.Address, uint64](),
		codes:       container.NewStackedMap[common.Address, common.Hash](),
		fragments:   container.NewDedupSet[Fragment, Fragment](),
	}
}

func (r *RomLex) Name() string { return Name }
func (r *RomLex) Columns() []trace.Column { return Columns }
func (r *RomLex) LineCount() int { return r.fragments.LineCount() }

func (r *RomLex) EnterTransaction() {
	r.deployments.Enter()
	r.codes.Enter()
	r.fragments.Enter()
}

func (r *RomLex) CommitTransaction() { r.EnterTransaction() }

func (r *RomLex) PopTransaction() {
	r.deployments.Pop()
	r.codes.Pop()
	r.fragments.Pop()
}

// FinishConflation freezes the module and assigns every fragment its index.
func (r *RomLex) FinishConflation() {
	r.deployments.FinishConflation()
	r.codes.FinishConflation()
	r.fragments.FinishConflation()

	r.sorted = slices.Clone(r.fragments.All())
	slices.SortFunc(r.sorted, compare)
	r.index = make(map[fragmentRef]int, len(r.sorted))
	for i, f := range r.sorted {
		ref := fragmentRef{f.Address, f.DeploymentNumber, f.Deploying}
		if _, ok := r.index[ref]; ok {
			trace.Fail("romlex: two code fragments for %v at deployment %d", f.Address, f.DeploymentNumber)
		}
		r.index[ref] = i + 1
	}
}

// DeploymentNumber returns the number of deployments seen at addr so far.
func (r *RomLex) DeploymentNumber(addr common.Address) uint64 {
	n, _ := r.deployments.Get(addr)
	return n
}

// TraceFrame records the code run by a frame. Deployments bump the
// deployment number of the created address, and so does code at an address
// changing without one (an EIP-7702 re-delegation). Frames without code are
// ignored.
func (r *RomLex) TraceFrame(frame module.Frame) {
	if len(frame.Code) == 0 {
		return
	}
	dep := r.DeploymentNumber(frame.Address)
	hash := frame.CodeHash
	if frame.IsDeployment() {
		dep++
		r.deployments.Set(frame.Address, dep)
		r.codes.Set(frame.Address, common.Hash{})
		hash = crypto.Keccak256Hash(frame.Code)
	} else {
		if hash == (common.Hash{}) {
			hash = crypto.Keccak256Hash(frame.Code)
		}
		if prev, ok := r.codes.Get(frame.Address); ok && prev != (common.Hash{}) && prev != hash {
			dep++
			r.deployments.Set(frame.Address, dep)
			log.Debug("Code changed without deployment", "address", frame.Address, "deployment", dep)
		}
		r.codes.Set(frame.Address, hash)
	}
	f := Fragment{
		Address:          frame.Address,
		DeploymentNumber: dep,
		Deploying:        frame.IsDeployment(),
		CodeHash:         hash,
		CodeSize:         len(frame.Code),
	}
	if r.fragments.Add(f) {
		log.Trace("New code fragment", "address", f.Address, "deployment", dep, "deploying", f.Deploying, "size", f.CodeSize)
	}
}

// CodeFragmentIndex returns the 1-based row of a fragment. It is only
// available once the conflation is finished.
func (r *RomLex) CodeFragmentIndex(addr common.Address, deploymentNumber uint64, deploying bool) (int, bool) {
	if r.index == nil {
		trace.Fail("romlex: code fragment index read before the conflation was finished")
	}
	i, ok := r.index[fragmentRef{addr, deploymentNumber, deploying}]
	return i, ok
}

// Fragments returns the fragments in row order.
func (r *RomLex) Fragments() []Fragment { return r.sorted }

// Commit writes one row per fragment, in index order.
func (r *RomLex) Commit(w *trace.Writer) {
	for i, f := range r.sorted {
		module.Expand(w, Name, f.LineCount(), func() {
			w.SetUint64(colCodeFragmentIndex, uint64(i+1))
			w.Set(colAddressHi, f.Address[:4])
			w.Set(colAddressLo, f.Address[4:])
			w.SetUint64(colDeploymentNumber, f.DeploymentNumber)
			w.SetBool(colDeploymentStatus, f.Deploying)
			w.Set(colCodeHashHi, f.CodeHash[:16])
			w.Set(colCodeHashLo, f.CodeHash[16:])
			w.SetUint64(colCodeSize, uint64(f.CodeSize))
			w.ValidateRow()
		})
	}
}
