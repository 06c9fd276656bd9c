// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the mongoseed CLI, which makes sure a MongoDB
// collection and its seed document exist.
//
// Usage:
//
//	mongoseed init                 Create .mongoseed/project.yaml
//	mongoseed ensure               Create and seed the collection if missing
//	mongoseed status [--json]      Show collection and seed state
//	mongoseed list [filters]       List products
//	mongoseed get <id>             Show one product
//	mongoseed reset --yes          Drop the collection
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/mongoseed/internal/errors"
	"github.com/kraklabs/mongoseed/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags are the flags accepted before the command name.
type GlobalFlags struct {
	ConfigPath string
	JSON       bool
	Quiet      bool
	NoColor    bool
	Verbose    int
}

type command struct {
	run     func(ctx context.Context, args []string, globals GlobalFlags) error
	summary string
}

var commands = map[string]command{
	"init":   {runInit, "Create .mongoseed/project.yaml"},
	"ensure": {runEnsure, "Create and seed the collection if it is missing"},
	"status": {runStatus, "Show whether the collection and seed document exist"},
	"list":   {runList, "List products with filters, paging and sorting"},
	"get":    {runGet, "Show one product by id"},
	"reset":  {runReset, "Drop the collection (destructive!)"},
}

var commandOrder = []string{"init", "ensure", "status", "list", "get", "reset"}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run parses global flags, dispatches to the command and returns the
// process exit code.
func run(args []string) int {
	fs := flag.NewFlagSet("mongoseed", flag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(os.Stderr)

	var globals GlobalFlags
	var showVersion bool
	fs.StringVar(&globals.ConfigPath, "config", "", "Path to project.yaml (default: ./.mongoseed/project.yaml)")
	fs.BoolVar(&globals.JSON, "json", false, "Print results as JSON")
	fs.BoolVarP(&globals.Quiet, "quiet", "q", false, "Only print errors")
	fs.BoolVar(&globals.NoColor, "no-color", false, "Disable colored output")
	fs.CountVarP(&globals.Verbose, "verbose", "v", "Increase log verbosity (-v debug)")
	fs.BoolVar(&showVersion, "version", false, "Show version and exit")
	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errors.ExitSuccess
		}
		return errors.Write(errors.NewInputError("Invalid global flag", err.Error(), "Run 'mongoseed --help'"), false)
	}

	if showVersion {
		fmt.Printf("mongoseed version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		return errors.ExitSuccess
	}

	if globals.JSON {
		globals.Quiet = true
	}
	ui.InitColors(globals.NoColor || os.Getenv("NO_COLOR") != "")

	if err := loadDotEnv(".env"); err != nil {
		return errors.Write(errors.NewConfigError("Cannot read .env", err.Error(), "Fix or remove the .env file", err), globals.JSON)
	}
	slog.SetDefault(newLogger(os.Stderr, globals, os.Getenv("LOG_LEVEL")))

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.ExitConfig
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", rest[0])
		fs.Usage()
		return errors.ExitInput
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return errors.Write(cmd.run(ctx, rest[1:], globals), globals.JSON)
}

// newLogger returns a text logger on w. -q keeps errors only, -v enables
// debug; otherwise level (the LOG_LEVEL value) decides, defaulting to info.
func newLogger(w io.Writer, globals GlobalFlags, level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if globals.Verbose > 0 {
		lvl = slog.LevelDebug
	}
	if globals.Quiet && globals.Verbose == 0 {
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func printUsage(fs *flag.FlagSet) {
	var b strings.Builder
	b.WriteString(`mongoseed - idempotent MongoDB collection bootstrap

mongoseed makes sure a collection exists in a MongoDB database and holds
its seed document. Running it again changes nothing.

Usage:
  mongoseed [global options] <command> [options]

Commands:
`)
	for _, name := range commandOrder {
		fmt.Fprintf(&b, "  %-8s %s\n", name, commands[name].summary)
	}
	b.WriteString("\nGlobal Options:\n")
	b.WriteString(fs.FlagUsages())
	b.WriteString(`
Examples:
  mongoseed init -y                        Write defaults to .mongoseed/project.yaml
  mongoseed ensure                         Bootstrap productdb.products
  mongoseed ensure --strategy atomic       Safe when several instances start together
  mongoseed --json status                  Machine-readable status
  mongoseed list --colour red --sort-by price --sort-order desc
  mongoseed get abcdef-12345678

Environment Variables:
  MONGO_URI              Connection string (default: mongodb://localhost:27017)
  MONGOSEED_DATABASE     Database name (default: productdb)
  MONGOSEED_COLLECTION   Collection name (default: products)
  MONGOSEED_STRATEGY     check or atomic (default: check)
  MONGOSEED_PUSHGATEWAY  Prometheus Pushgateway URL for run metrics
  LOG_LEVEL              debug, info, warn or error

Variables can also be set in a .env file in the working directory.

For detailed command help: mongoseed <command> --help
`)
	fmt.Fprint(os.Stderr, b.String())
}
