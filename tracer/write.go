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
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/zkevm-arith/zktracer/module"
	"github.com/zkevm-arith/zktracer/trace"
	"golang.org/x/sync/errgroup"
)

// Rows returns the height of the trace file: the largest module line count.
func (t *ZkTracer) Rows() int {
	var rows int
	for _, m := range t.modules {
		rows = max(rows, m.LineCount())
	}
	return rows
}

// WriteTrace writes the finished conflation to path. Modules are committed in
// parallel, each into its own column regions, and padded to the same height.
//
// A consistency failure in any module abandons the whole conflation: the
// error wraps the *trace.ConsistencyError and no file is left behind.
func (t *ZkTracer) WriteTrace(ctx context.Context, path string) error {
	if t.state != finished {
		return errNotFinished
	}
	start := time.Now()
	rows := t.Rows()
	f, err := trace.Create(path, t.Columns(), rows)
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, m := range t.modules {
		w, err := f.Writer(m.Columns())
		if err != nil {
			f.Discard()
			return err
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return commit(m, w, rows)
		})
	}
	if err := g.Wait(); err != nil {
		f.Discard()
		var ce *trace.ConsistencyError
		if errors.As(err, &ce) {
			log.Error("Abandoning conflation", "err", err)
		}
		return err
	}
	if err := f.Commit(); err != nil {
		return err
	}
	log.Info("Wrote trace", "path", path, "rows", rows, "columns", len(t.Columns()), "elapsed", common.PrettyDuration(time.Since(start)))
	return nil
}

// commit expands a module into w and pads it, turning a consistency failure
// into an error.
func commit(m module.Module, w *trace.Writer, rows int) (err error) {
	defer recoverConsistency(m, &err)
	m.Commit(w)
	if w.Rows() != m.LineCount() {
		trace.Fail("%s: committed %d rows, line count is %d", m.Name(), w.Rows(), m.LineCount())
	}
	module.Pad(w, rows)
	return nil
}

// recoverConsistency must be deferred. It stores a consistency failure raised
// by m into errp and re-raises any other panic.
func recoverConsistency(m module.Module, errp *error) {
	if r := recover(); r != nil {
		ce, ok := r.(*trace.ConsistencyError)
		if !ok {
			panic(r)
		}
		*errp = fmt.Errorf("module %s: %w", m.Name(), ce)
	}
}
