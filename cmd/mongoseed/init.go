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

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/mongoseed/internal/errors"
	"github.com/kraklabs/mongoseed/internal/output"
	"github.com/kraklabs/mongoseed/internal/ui"
)

// stdin feeds the interactive prompts of 'init'; tests replace it.
var stdin io.Reader = os.Stdin

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force, nonInteractive     bool
	uri, database, collection string
	strategy, pushgateway     string
}

const initUsage = `Usage: mongoseed init [options]

Creates .mongoseed/project.yaml in the current directory. Without -y the
values are asked for interactively, with the flag values as defaults.

The file may hold credentials inside mongo.uri. When a .gitignore exists,
.mongoseed/ is added to it.

Examples:
  mongoseed init
  mongoseed init -y
  mongoseed init -y --uri mongodb://db:27017 --database shop --strategy atomic
`

// runInit executes the 'init' command.
func runInit(ctx context.Context, args []string, globals GlobalFlags) error {
	fs := newFlagSet("init", initUsage)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.BoolVarP(&f.nonInteractive, "yes", "y", false, "Non-interactive mode (use defaults and flags)")
	fs.StringVar(&f.uri, "uri", "", "MongoDB connection string")
	fs.StringVar(&f.database, "database", "", "Database name")
	fs.StringVar(&f.collection, "collection", "", "Collection name")
	fs.StringVar(&f.strategy, "strategy", "", "Bootstrap strategy: check or atomic")
	fs.StringVar(&f.pushgateway, "pushgateway", "", "Prometheus Pushgateway URL")
	if done, err := parseFlags(fs, args); done {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return errors.NewInternalError("Cannot get current directory", err.Error(), "", err)
	}
	path := ConfigPath(cwd)
	if globals.ConfigPath != "" {
		path = globals.ConfigPath
	}
	if _, err := os.Stat(path); err == nil && !f.force {
		return errors.NewConfigError(
			"Configuration already exists",
			path+" is present",
			"Use --force to overwrite it",
			nil,
		)
	}

	cfg := createInitConfig(f)
	if !f.nonInteractive && !globals.JSON {
		runInteractiveConfig(bufio.NewReader(stdin), cfg)
	}
	if err := cfg.Validate(); err != nil {
		return errors.NewInputError("Invalid configuration values", err.Error(), "Run 'mongoseed init' again with valid values")
	}

	if err := SaveConfig(cfg, path); err != nil {
		return errors.NewPermissionError("Cannot save configuration", err.Error(), "Check that the directory is writable", err)
	}
	if insideDir(ConfigDir(cwd), path) {
		addToGitignore(cwd, globals.Quiet)
	}

	if globals.JSON {
		return output.JSONTo(stdout, map[string]string{"config_path": path})
	}
	if !globals.Quiet {
		ui.Successf("Created %s", path)
		printNextSteps()
	}
	return nil
}

func createInitConfig(f initFlags) *Config {
	cfg := DefaultConfig()
	setIf(&cfg.Mongo.URI, f.uri)
	setIf(&cfg.Mongo.Database, f.database)
	setIf(&cfg.Bootstrap.Collection, f.collection)
	setIf(&cfg.Bootstrap.Strategy, f.strategy)
	setIf(&cfg.Metrics.Pushgateway, f.pushgateway)
	return cfg
}

func runInteractiveConfig(reader *bufio.Reader, cfg *Config) {
	ui.Header("mongoseed configuration")
	fmt.Fprintln(ui.Out)

	cfg.Mongo.URI = prompt(reader, "MongoDB URI", cfg.Mongo.URI)
	cfg.Mongo.Database = prompt(reader, "Database", cfg.Mongo.Database)
	cfg.Bootstrap.Collection = prompt(reader, "Collection", cfg.Bootstrap.Collection)

	fmt.Fprintln(ui.Out)
	fmt.Fprintln(ui.Out, "Strategies: check (default), atomic (safe for concurrent runs)")
	cfg.Bootstrap.Strategy = prompt(reader, "Strategy", cfg.Bootstrap.Strategy)
	cfg.Metrics.Pushgateway = prompt(reader, "Pushgateway URL (optional)", cfg.Metrics.Pushgateway)
	fmt.Fprintln(ui.Out)
}

func printNextSteps() {
	fmt.Fprintln(ui.Out)
	fmt.Fprintln(ui.Out, "Next steps:")
	fmt.Fprintln(ui.Out, "  1. Review .mongoseed/project.yaml, including the seed document")
	fmt.Fprintln(ui.Out, "  2. Run 'mongoseed ensure' to create and seed the collection")
	fmt.Fprintln(ui.Out, "  3. Run 'mongoseed status' to check the result")
}

// prompt shows label, reads one line and returns it, or defaultValue when
// the line is empty.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Fprintf(ui.Out, "%s [%s]: ", label, defaultValue)
	} else {
		fmt.Fprintf(ui.Out, "%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}

// insideDir reports whether path lies under dir.
func insideDir(dir, path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// addToGitignore appends .mongoseed/ to dir/.gitignore when that file
// exists and does not list it yet.
func addToGitignore(dir string, quiet bool) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(gitignorePath) //nolint:gosec // G304: path built from the working directory
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(content), "\n") {
		switch strings.TrimSpace(line) {
		case ".mongoseed", ".mongoseed/", "/.mongoseed", "/.mongoseed/":
			return
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0600) //nolint:gosec // G304: path built from the working directory
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}
	_, _ = f.WriteString("\n# mongoseed configuration (may contain credentials)\n.mongoseed/\n")
	if !quiet {
		ui.Info("Added .mongoseed/ to .gitignore")
	}
}
