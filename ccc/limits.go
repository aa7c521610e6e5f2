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

// Package ccc implements circuit capacity checking: whether the rows a
// transaction adds to each module stay within the per-block limits of the
// prover.
package ccc

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/zkevm-arith/zktracer/module"
)

var (
	ErrMissingLimit = errors.New("missing trace limit")
	ErrBadLimit     = errors.New("invalid trace limit")
)

// Limits maps a module limit key (ADD, MOD, ...) to the maximum number of rows
// the module may produce in a block.
type Limits map[string]int

type limitsFile struct {
	Limits Limits `toml:"traces-limits"`
}

// LoadLimits reads the [traces-limits] table of a TOML file.
func LoadLimits(path string) (Limits, error) {
	var f limitsFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("loading trace limits: %w", err)
	}
	if f.Limits == nil {
		return nil, fmt.Errorf("%s: no [traces-limits] table", path)
	}
	return f.Limits, nil
}

// Limit returns the limit of a module.
func (l Limits) Limit(id module.ID) (int, bool) {
	n, ok := l[id.LimitKey()]
	return n, ok
}

// Validate checks that every module in ids has a positive limit.
func (l Limits) Validate(ids []module.ID) error {
	var missing, bad []string
	for _, id := range ids {
		n, ok := l.Limit(id)
		switch {
		case !ok:
			missing = append(missing, id.LimitKey())
		case n <= 0:
			bad = append(bad, fmt.Sprintf("%s=%d", id.LimitKey(), n))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w for %s", ErrMissingLimit, strings.Join(missing, ", "))
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrBadLimit, strings.Join(bad, ", "))
	}
	return nil
}

// Keys returns the limit keys in sorted order.
func (l Limits) Keys() []string {
	return slices.Sorted(maps.Keys(l))
}
