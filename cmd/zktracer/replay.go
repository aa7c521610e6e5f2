// Copyright 2026 The zktracer Authors
// This file is part of zktracer.
//
// zktracer is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// zktracer is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with zktracer. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"errors"
	"strconv"

	"github.com/ethereum/go-ethereum/log"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"github.com/zkevm-arith/zktracer/trace"
	"github.com/zkevm-arith/zktracer/tracer"
)

var (
	fixtureFlag = &cli.StringFlag{
		Name:     "fixture",
		Usage:    "JSON execution fixture to replay",
		Required: true,
	}
	outFlag = &cli.StringFlag{
		Name:     "out",
		Usage:    "Path of the trace file to write",
		Required: true,
	}
	compressFlag = &cli.BoolFlag{
		Name:  "compress",
		Usage: "Also write a snappy compressed copy of the trace",
	}

	replayCommand = &cli.Command{
		Name:   "replay",
		Usage:  "Trace a recorded execution as one conflation",
		Action: replay,
		Flags:  []cli.Flag{configFlag, fixtureFlag, outFlag, compressFlag},
	}
)

// replayStats counts what happened to the fixture's transactions.
type replayStats struct {
	traced, failed, dropped, skipped int
}

func replay(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	fx, err := readFixture(ctx.String(fixtureFlag.Name))
	if err != nil {
		return err
	}
	zt, err := tracer.New(cfg, fx.chainConfig())
	if err != nil {
		return err
	}
	stats, err := run(zt, fx)
	if err != nil {
		return err
	}
	log.Info("Replayed fixture", "blocks", len(fx.Blocks), "traced", stats.traced, "failed", stats.failed, "dropped", stats.dropped, "skipped", stats.skipped)

	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Module", "Lines", "Limit"})
	ids, _ := cfg.ModuleIDs()
	counts := zt.LineCounts()
	for _, id := range ids {
		limit, _ := cfg.Limits.Limit(id)
		table.Append([]string{id.Name(), strconv.Itoa(counts[id.Name()]), strconv.Itoa(limit)})
	}
	table.Render()

	out := ctx.String(outFlag.Name)
	if err := zt.WriteTrace(ctx.Context, out); err != nil {
		return err
	}
	if ctx.Bool(compressFlag.Name) {
		return trace.Compress(out, out+".sz")
	}
	return nil
}

// run feeds every block of fx to the tracer as a single conflation. Failed
// transactions and transactions over a trace limit are popped.
func run(zt *tracer.ZkTracer, fx *fixture) (replayStats, error) {
	var stats replayStats
	if err := zt.StartConflation(); err != nil {
		return stats, err
	}
	for i := range fx.Blocks {
		b := &fx.Blocks[i]
		zt.TraceStartBlock(b.header())
		for _, tx := range b.Transactions {
			if zt.Checker().Known(tx.Hash, zt.Block()) {
				log.Debug("Skipping known offender", "tx", tx.Hash)
				stats.skipped++
				continue
			}
			zt.EnterTransaction()
			for j := range tx.Steps {
				if err := apply(zt, &tx.Steps[j]); err != nil {
					return stats, errors.Join(err, zt.EndConflation())
				}
			}
			if tx.Failed {
				zt.PopTransaction()
				stats.failed++
				continue
			}
			if r := zt.Check(tx.Hash); !r.Fits() {
				log.Warn("Dropping transaction", "block", uint64(b.Number), "err", r.Err())
				zt.PopTransaction()
				stats.dropped++
				continue
			}
			stats.traced++
		}
	}
	return stats, zt.EndConflation()
}

func apply(zt *tracer.ZkTracer, s *fixtureStep) error {
	if s.Frame != nil {
		frame, err := s.Frame.frame()
		if err != nil {
			return err
		}
		zt.TraceFrame(frame)
		return nil
	}
	op, err := s.opcode()
	if err != nil {
		return err
	}
	zt.TraceOpcode(op, s.stack())
	return nil
}
