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

// zktracer generates and inspects conflation traces.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"github.com/zkevm-arith/zktracer/module"
	"github.com/zkevm-arith/zktracer/tracer"
)

var (
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file (modules and trace limits)",
	}
)

var (
	columnsCommand = &cli.Command{
		Name:   "columns",
		Usage:  "Print the column headers of the enabled modules",
		Action: columns,
		Flags:  []cli.Flag{configFlag},
	}
	limitsCommand = &cli.Command{
		Name:   "limits",
		Usage:  "Validate and print the trace limits of the enabled modules",
		Action: limits,
		Flags:  []cli.Flag{configFlag},
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "zktracer",
		Usage: "zkEVM trace generator",
		Flags: []cli.Flag{verbosityFlag},
		Commands: []*cli.Command{
			columnsCommand,
			limitsCommand,
			replayCommand,
			inspectCommand,
		},
		Before: func(ctx *cli.Context) error {
			setupLogging(ctx.Int(verbosityFlag.Name), os.Stderr)
			return nil
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(verbosity int, out *os.File) {
	usecolor := (isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())) && os.Getenv("TERM") != "dumb"
	output := io.Writer(out)
	if usecolor {
		output = colorable.NewColorable(out)
	}
	glogger := log.NewGlogHandler(log.NewTerminalHandler(output, usecolor))
	glogger.Verbosity(log.FromLegacyLevel(verbosity))
	log.SetDefault(log.NewLogger(glogger))
}

// loadConfig returns the configuration named by --config, or the defaults.
func loadConfig(ctx *cli.Context) (tracer.Config, error) {
	cfg := tracer.DefaultConfig
	if path := ctx.String(configFlag.Name); path != "" {
		var err error
		if cfg, err = tracer.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.Validate()
}

func columns(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	ids, _ := cfg.ModuleIDs()
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Module", "Column", "Width"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, id := range ids {
		for _, c := range tracer.Columns(id) {
			table.Append([]string{id.Name(), c.Name, strconv.Itoa(c.Width)})
		}
	}
	table.Render()
	return nil
}

func limits(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	ids, _ := cfg.ModuleIDs()
	enabled := make(map[string]bool)
	for _, id := range ids {
		enabled[id.LimitKey()] = true
	}
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Limit", "Rows", "Enabled"})
	for _, key := range cfg.Limits.Keys() {
		if _, err := module.ParseID(key); err != nil {
			log.Warn("Limit for unknown module", "module", key)
		}
		table.Append([]string{key, strconv.Itoa(cfg.Limits[key]), strconv.FormatBool(enabled[key])})
	}
	table.Render()
	return nil
}
