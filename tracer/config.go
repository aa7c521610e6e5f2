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
	"errors"
	"fmt"
	"maps"

	"github.com/BurntSushi/toml"
	"github.com/zkevm-arith/zktracer/ccc"
	"github.com/zkevm-arith/zktracer/module"
)

// ErrConfig marks configuration errors. The tracer must not run with them.
var ErrConfig = errors.New("invalid tracer configuration")

// Config selects the modules of a tracer and the limits they are checked
// against.
type Config struct {
	// Modules lists the enabled modules by name or limit key.
	Modules []string `toml:"modules"`

	// CacheSize bounds the number of transactions remembered as exceeding a
	// limit on their own; CacheMaxAge is the number of blocks such an entry
	// is trusted for, zero meaning until it is evicted.
	CacheSize   int    `toml:"cache-size"`
	CacheMaxAge uint64 `toml:"cache-max-age"`

	Limits ccc.Limits `toml:"traces-limits"`
}

// DefaultConfig enables every module.
var DefaultConfig = Config{
	Modules:     []string{"add", "mod", "blockdata", "romlex"},
	CacheSize:   1024,
	CacheMaxAge: 256,
	Limits: ccc.Limits{
		"ADD":        70_000,
		"MOD":        131_072,
		"BLOCK_DATA": 4_096,
		"ROMLEX":     1_024,
	},
}

// LoadConfig reads a TOML configuration file over the defaults. Unknown keys
// are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig
	cfg.Modules = nil
	cfg.Limits = maps.Clone(DefaultConfig.Limits)

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: %s: unknown field %q", ErrConfig, path, undecoded[0].String())
	}
	if cfg.Modules == nil {
		cfg.Modules = DefaultConfig.Modules
	}
	return cfg, nil
}

// ModuleIDs resolves the configured module names.
func (c *Config) ModuleIDs() ([]module.ID, error) {
	ids := make([]module.ID, 0, len(c.Modules))
	seen := make(map[module.ID]bool)
	for _, name := range c.Modules {
		id, err := module.ParseID(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: module %s enabled twice", ErrConfig, id)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no modules enabled", ErrConfig)
	}
	return ids, nil
}

// Validate checks the module list and that every enabled module has a limit.
func (c *Config) Validate() error {
	ids, err := c.ModuleIDs()
	if err != nil {
		return err
	}
	if err := c.Limits.Validate(ids); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("%w: cache-size must be positive", ErrConfig)
	}
	return nil
}
