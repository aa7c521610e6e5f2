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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrBlockLimit    = errors.New("block trace limit exceeded")
	ErrTxLimit       = errors.New("transaction exceeds trace limit")
	ErrKnownOffender = errors.New("transaction known to exceed trace limit")
)

// Status is the outcome of a capacity check.
type Status int

const (
	// Fits means the transaction can be included.
	Fits Status = iota
	// BlockLimitExceeded means the block is full for some module. The
	// transaction may fit in a later block.
	BlockLimitExceeded
	// TxLimitExceeded means the transaction alone exceeds a limit and can
	// never be included.
	TxLimitExceeded
	// KnownOffender means the transaction was found to exceed a limit
	// before and was not traced again.
	KnownOffender
)

func (s Status) String() string {
	switch s {
	case Fits:
		return "fits"
	case BlockLimitExceeded:
		return "block-limit-exceeded"
	case TxLimitExceeded:
		return "tx-limit-exceeded"
	case KnownOffender:
		return "known-offender"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is the typed outcome of Checker.Evaluate. For anything but Fits it
// names the first module over its limit.
type Result struct {
	Status Status
	Tx     common.Hash
	Module string
	Count  int
	Limit  int
}

func (r Result) Fits() bool { return r.Status == Fits }

// Err returns nil if the transaction fits, or an error wrapping one of
// ErrBlockLimit, ErrTxLimit and ErrKnownOffender.
func (r Result) Err() error {
	switch r.Status {
	case Fits:
		return nil
	case BlockLimitExceeded:
		return fmt.Errorf("%w: module %s at %d rows, limit %d", ErrBlockLimit, r.Module, r.Count, r.Limit)
	case TxLimitExceeded:
		return fmt.Errorf("%w: tx %v uses %d rows of module %s, limit %d", ErrTxLimit, r.Tx, r.Count, r.Module, r.Limit)
	case KnownOffender:
		return fmt.Errorf("%w: tx %v", ErrKnownOffender, r.Tx)
	}
	return fmt.Errorf("unknown capacity status %v", r.Status)
}
