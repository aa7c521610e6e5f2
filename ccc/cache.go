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
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/metrics"
)

var (
	cacheInsertMeter    = metrics.NewRegisteredCounter("zktracer/ccc/cache/inserts", nil)
	cacheDuplicateMeter = metrics.NewRegisteredCounter("zktracer/ccc/cache/duplicates", nil)
	cacheHitMeter       = metrics.NewRegisteredCounter("zktracer/ccc/cache/hits", nil)
	cacheEvictMeter     = metrics.NewRegisteredCounter("zktracer/ccc/cache/evictions", nil)
	cacheExpireMeter    = metrics.NewRegisteredCounter("zktracer/ccc/cache/expired", nil)
)

// ConflictCache remembers transactions known to exceed a trace limit on their
// own. It is bounded and evicts the oldest entry first; lookups do not refresh
// entries.
//
// An entry is only trusted for maxAge blocks after it was recorded, since a
// transaction that was too large against one state may fit against a later
// one. A zero maxAge keeps entries until they are evicted.
//
// It is safe for concurrent use.
type ConflictCache struct {
	mu     sync.Mutex
	lru    lru.BasicLRU[common.Hash, uint64]
	maxAge uint64
}

// NewConflictCache creates a cache holding up to size offenders.
func NewConflictCache(size int, maxAge uint64) *ConflictCache {
	return &ConflictCache{lru: lru.NewBasicLRU[common.Hash, uint64](size), maxAge: maxAge}
}

func (c *ConflictCache) expired(recorded, block uint64) bool {
	return c.maxAge > 0 && block >= recorded+c.maxAge
}

// Add records tx as over the limit at block. Of any number of concurrent
// callers adding the same transaction, exactly one gets true.
func (c *ConflictCache) Add(tx common.Hash, block uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if recorded, ok := c.lru.Peek(tx); ok {
		if !c.expired(recorded, block) {
			cacheDuplicateMeter.Inc(1)
			return false
		}
		c.lru.Remove(tx)
		cacheExpireMeter.Inc(1)
	}
	if c.lru.Add(tx, block) {
		cacheEvictMeter.Inc(1)
	}
	cacheInsertMeter.Inc(1)
	return true
}

// Contains reports whether tx is a known offender at block. Expired entries
// are dropped.
func (c *ConflictCache) Contains(tx common.Hash, block uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	recorded, ok := c.lru.Peek(tx)
	if !ok {
		return false
	}
	if c.expired(recorded, block) {
		c.lru.Remove(tx)
		cacheExpireMeter.Inc(1)
		return false
	}
	cacheHitMeter.Inc(1)
	return true
}

// Len returns the number of cached offenders, including expired entries not
// yet dropped.
func (c *ConflictCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
