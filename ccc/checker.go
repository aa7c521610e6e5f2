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

package ccc

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/zkevm-arith/zktracer/module"
)

var (
	fitsMeter       = metrics.NewRegisteredCounter("zktracer/ccc/fits", nil)
	blockLimitMeter = metrics.NewRegisteredCounter("zktracer/ccc/block", nil)
	txLimitMeter    = metrics.NewRegisteredCounter("zktracer/ccc/tx", nil)
	knownMeter      = metrics.NewRegisteredCounter("zktracer/ccc/known", nil)
)

// Snapshot holds the line count of every module, keyed by module name.
type Snapshot map[string]int

// Sub returns the rows added since base.
func (s Snapshot) Sub(base Snapshot) Snapshot {
	d := make(Snapshot, len(s))
	for name, n := range s {
		d[name] = n - base[name]
	}
	return d
}

// Checker decides whether transactions fit in the block being built.
type Checker struct {
	ids    []module.ID
	limits Limits
	cache  *ConflictCache
}

// NewChecker creates a checker for the given modules. Every module needs a
// limit.
func NewChecker(ids []module.ID, limits Limits, cache *ConflictCache) (*Checker, error) {
	if err := limits.Validate(ids); err != nil {
		return nil, err
	}
	return &Checker{ids: ids, limits: limits, cache: cache}, nil
}

// Known reports whether tx was found to exceed a limit on its own before.
// Sequencers call it to skip tracing such transactions.
func (c *Checker) Known(tx common.Hash, block uint64) bool {
	return c.cache.Contains(tx, block)
}

// Evaluate classifies a transaction from the rows of each module used by the
// block before and after it executed.
func (c *Checker) Evaluate(tx common.Hash, block uint64, before, after Snapshot) Result {
	if c.cache.Contains(tx, block) {
		knownMeter.Inc(1)
		return Result{Status: KnownOffender, Tx: tx}
	}
	var full *Result
	for _, id := range c.ids {
		name := id.Name()
		limit, _ := c.limits.Limit(id)
		if used := after[name] - before[name]; used > limit {
			if c.cache.Add(tx, block) {
				log.Warn("Transaction exceeds trace limit", "tx", tx, "module", name, "rows", used, "limit", limit)
			}
			txLimitMeter.Inc(1)
			return Result{Status: TxLimitExceeded, Tx: tx, Module: name, Count: used, Limit: limit}
		}
		if full == nil && after[name] > limit {
			full = &Result{Status: BlockLimitExceeded, Tx: tx, Module: name, Count: after[name], Limit: limit}
		}
	}
	if full != nil {
		log.Debug("Block trace limit reached", "tx", tx, "module", full.Module, "rows", full.Count, "limit", full.Limit)
		blockLimitMeter.Inc(1)
		return *full
	}
	fitsMeter.Inc(1)
	return Result{Status: Fits, Tx: tx}
}
