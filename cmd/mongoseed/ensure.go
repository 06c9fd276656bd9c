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
	"context"
	"log/slog"
	"time"

	"github.com/kraklabs/mongoseed/internal/bootstrap"
	"github.com/kraklabs/mongoseed/internal/errors"
	"github.com/kraklabs/mongoseed/internal/output"
	"github.com/kraklabs/mongoseed/internal/ui"
)

const ensureUsage = `Usage: mongoseed ensure [options]

Makes sure the collection exists and holds the seed document. When the
collection is missing it is created and the seed document is inserted.
When it exists nothing is changed. Running ensure again is always safe.

Strategies:
  check   List collections, then create and seed if missing (default).
          Two instances starting at the same moment may race; the loser
          fails with exit code 2 and writes nothing.
  atomic  Create if missing, add a unique index on id and insert the seed
          only if absent. Safe for concurrent instances. Also restores a
          deleted seed document in an existing collection.

Examples:
  mongoseed ensure
  mongoseed ensure --strategy atomic --timeout 1m
  mongoseed ensure --uri mongodb://db:27017 --database shop
  mongoseed ensure --pushgateway http://pushgateway:9091
`

// runEnsure executes the 'ensure' command.
func runEnsure(ctx context.Context, args []string, globals GlobalFlags) error {
	fs := newFlagSet("ensure", ensureUsage)
	target := addTargetFlags(fs)
	strategy := fs.String("strategy", "", "Bootstrap strategy: check or atomic (overrides MONGOSEED_STRATEGY)")
	timeout := fs.Duration("timeout", 0, "Deadline for the whole run (default: mongo.operation_timeout, 30s)")
	gateway := fs.String("pushgateway", "", "Prometheus Pushgateway URL (overrides MONGOSEED_PUSHGATEWAY)")
	if done, err := parseFlags(fs, args); done {
		return err
	}

	cfg, err := loadTarget(ctx, globals, target, func(c *Config) {
		setIf(&c.Bootstrap.Strategy, *strategy)
		setIf(&c.Metrics.Pushgateway, *gateway)
		if *timeout > 0 {
			c.Mongo.OperationTimeout = *timeout
		}
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Mongo.OperationTimeout)
	defer cancel()

	res, err := ensure(ctx, cfg, globals)

	// Metrics are pushed for failed runs too.
	if perr := pushMetrics(context.Background(), cfg.Metrics.Pushgateway, cfg); perr != nil {
		slog.Warn("metrics.push.failed", "err", perr)
	}
	if err != nil {
		return err
	}

	if globals.JSON {
		return output.JSONTo(stdout, res)
	}
	if !globals.Quiet {
		printEnsureResult(res, cfg)
	}
	return nil
}

func ensure(ctx context.Context, cfg *Config, globals GlobalFlags) (*bootstrap.Result, error) {
	backend, err := connect(ctx, cfg, globals)
	if err != nil {
		return nil, err
	}
	defer closeBackend(backend)

	seed := cfg.Bootstrap.Seed
	b, err := bootstrap.New(backend, bootstrap.Config{
		CollectionName: cfg.Bootstrap.Collection,
		Seed:           &seed,
		Strategy:       bootstrap.Strategy(cfg.Bootstrap.Strategy),
	}, slog.Default())
	if err != nil {
		return nil, errors.NewConfigError("Invalid bootstrap settings", err.Error(), "Check the bootstrap section of .mongoseed/project.yaml", err)
	}

	var res *bootstrap.Result
	err = withSpinner(NewProgressConfig(globals), "Bootstrapping "+cfg.Bootstrap.Collection, func() error {
		var err error
		res, err = b.Ensure(ctx)
		return err
	})
	if err != nil {
		return nil, errors.FromStorage("bootstrap collection "+cfg.Bootstrap.Collection, err)
	}
	return res, nil
}

func printEnsureResult(res *bootstrap.Result, cfg *Config) {
	target := res.Database + "." + res.Collection
	if res.Created {
		ui.Successf("Created collection %s", target)
	} else {
		ui.Infof("Collection %s already exists", target)
	}
	if res.Seeded {
		ui.Successf("Inserted seed document %s", cfg.Bootstrap.Seed.ID)
	} else {
		ui.Info("Nothing to do")
	}
	ui.Field("Strategy", res.Strategy)
	ui.Field("Duration", res.Duration.Round(time.Millisecond))
}
