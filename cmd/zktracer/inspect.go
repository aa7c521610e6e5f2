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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"github.com/zkevm-arith/zktracer/trace"
)

var (
	traceFlag = &cli.StringFlag{
		Name:     "trace",
		Usage:    "Trace file to inspect; .sz files are decompressed first",
		Required: true,
	}
	rowsFlag = &cli.IntFlag{
		Name:  "rows",
		Usage: "Number of leading rows to print per column",
		Value: 4,
	}
	columnFlag = &cli.StringFlag{
		Name:  "column",
		Usage: "Only print columns with this prefix, e.g. mod.",
	}

	inspectCommand = &cli.Command{
		Name:   "inspect",
		Usage:  "Print the columns and leading rows of a trace file",
		Action: inspect,
		Flags:  []cli.Flag{traceFlag, rowsFlag, columnFlag},
	}
)

func inspect(ctx *cli.Context) error {
	path := ctx.String(traceFlag.Name)
	if strings.HasSuffix(path, ".sz") {
		dir, err := os.MkdirTemp("", "zktracer")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		plain := filepath.Join(dir, strings.TrimSuffix(filepath.Base(path), ".sz"))
		if err := trace.Decompress(path, plain); err != nil {
			return err
		}
		path = plain
	}
	f, err := trace.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(ctx.App.Writer, "%d columns, %d rows\n", len(f.Columns()), f.Rows())
	rows := min(ctx.Int(rowsFlag.Name), f.Rows())
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Column", "Width", "Non-zero", "Rows"})
	table.SetAutoWrapText(false)
	for _, c := range f.Columns() {
		if !strings.HasPrefix(c.Name, ctx.String(columnFlag.Name)) {
			continue
		}
		region, _ := f.Region(c.Name)
		var (
			nonzero int
			values  []string
			x       uint256.Int
		)
		for row := 0; row < f.Rows(); row++ {
			x.SetBytes(region[row*c.Width : (row+1)*c.Width])
			if !x.IsZero() {
				nonzero++
			}
			if row < rows {
				values = append(values, x.Hex())
			}
		}
		table.Append([]string{c.Name, strconv.Itoa(c.Width), strconv.Itoa(nonzero), strings.Join(values, " ")})
	}
	table.Render()
	return nil
}
