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

	"github.com/kraklabs/mongoseed/internal/errors"
	"github.com/kraklabs/mongoseed/internal/output"
	"github.com/kraklabs/mongoseed/internal/ui"
	"github.com/kraklabs/mongoseed/pkg/storage"
)

// ResetResult is the JSON form of a reset.
type ResetResult struct {
	Database   string `json:"database"`
	Collection string `json:"collection"`
	Dropped    bool   `json:"dropped"`
}

const resetUsage = `Usage: mongoseed reset --yes [options]

Drops the collection and every document in it, so that the next
'mongoseed ensure' creates and seeds it again.

WARNING: This operation is destructive and cannot be undone!
`

// runReset executes the 'reset' command.
func runReset(ctx context.Context, args []string, globals GlobalFlags) error {
	fs := newFlagSet("reset", resetUsage)
	target := addTargetFlags(fs)
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")
	if done, err := parseFlags(fs, args); done {
		return err
	}
	if !*confirm {
		return errors.NewInputError(
			"Reset not confirmed",
			"Dropping the collection deletes all of its documents",
			"Pass --yes to confirm: mongoseed reset --yes",
		)
	}

	cfg, err := loadTarget(ctx, globals, target)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Mongo.OperationTimeout)
	defer cancel()

	backend, err := connect(ctx, cfg, globals)
	if err != nil {
		return err
	}
	defer closeBackend(backend)

	result := ResetResult{Database: cfg.Mongo.Database, Collection: cfg.Bootstrap.Collection}
	exists, err := storage.HasCollection(ctx, backend, cfg.Bootstrap.Collection)
	if err != nil {
		return errors.FromStorage("reset "+cfg.Bootstrap.Collection, err)
	}
	if exists {
		if err := backend.DropCollection(ctx, cfg.Bootstrap.Collection); err != nil {
			return errors.FromStorage("drop "+cfg.Bootstrap.Collection, err)
		}
		result.Dropped = true
		slog.Info("reset.collection.dropped", "database", result.Database, "collection", result.Collection)
	}

	switch {
	case globals.JSON:
		return output.JSONTo(stdout, result)
	case globals.Quiet:
	case result.Dropped:
		ui.Successf("Dropped %s.%s", result.Database, result.Collection)
		ui.Info("Run 'mongoseed ensure' to create and seed it again")
	default:
		ui.Infof("Collection %s.%s does not exist; nothing to drop", result.Database, result.Collection)
	}
	return nil
}
