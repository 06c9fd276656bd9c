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
	stderrors "errors"
	"time"

	"github.com/kraklabs/mongoseed/internal/errors"
	"github.com/kraklabs/mongoseed/internal/output"
	"github.com/kraklabs/mongoseed/internal/ui"
	"github.com/kraklabs/mongoseed/pkg/product"
	"github.com/kraklabs/mongoseed/pkg/storage"
)

// StatusResult represents the collection status for JSON output.
type StatusResult struct {
	URI         string    `json:"uri"`
	Database    string    `json:"database"`
	Collection  string    `json:"collection"`
	Exists      bool      `json:"exists"`
	Documents   int64     `json:"documents"`
	SeedID      string    `json:"seed_id"`
	SeedPresent bool      `json:"seed_present"`
	Timestamp   time.Time `json:"timestamp"`
}

const statusUsage = `Usage: mongoseed status [options]

Shows whether the collection exists, how many documents it holds and
whether the seed document is present. Nothing is written.

Examples:
  mongoseed status
  mongoseed --json status
`

// runStatus executes the 'status' command.
func runStatus(ctx context.Context, args []string, globals GlobalFlags) error {
	fs := newFlagSet("status", statusUsage)
	target := addTargetFlags(fs)
	if done, err := parseFlags(fs, args); done {
		return err
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

	result, err := collectStatus(ctx, backend, cfg)
	if err != nil {
		return errors.FromStorage("read status of "+cfg.Bootstrap.Collection, err)
	}

	if globals.JSON {
		return output.JSONTo(stdout, result)
	}
	if !globals.Quiet {
		printStatus(result)
	}
	return nil
}

func collectStatus(ctx context.Context, backend storage.Backend, cfg *Config) (*StatusResult, error) {
	result := &StatusResult{
		URI:        redactURI(cfg.Mongo.URI),
		Database:   backend.DatabaseName(),
		Collection: cfg.Bootstrap.Collection,
		SeedID:     cfg.Bootstrap.Seed.ID,
		Timestamp:  time.Now(),
	}

	exists, err := storage.HasCollection(ctx, backend, cfg.Bootstrap.Collection)
	if err != nil {
		return nil, err
	}
	result.Exists = exists
	if !exists {
		return result, nil
	}

	catalog := product.NewCatalog(backend, cfg.Bootstrap.Collection)
	if result.Documents, err = catalog.Count(ctx); err != nil {
		return nil, err
	}
	_, err = catalog.Get(ctx, cfg.Bootstrap.Seed.ID)
	switch {
	case err == nil:
		result.SeedPresent = true
	case stderrors.Is(err, storage.ErrNotFound):
	default:
		return nil, err
	}
	return result, nil
}

func printStatus(r *StatusResult) {
	ui.Header("mongoseed status")
	ui.Field("URI", ui.DimText(r.URI))
	ui.Field("Database", r.Database)
	ui.Field("Collection", r.Collection)
	ui.Field("Exists", ui.YesNo(r.Exists))
	if !r.Exists {
		_, _ = ui.Out.Write([]byte("\n"))
		ui.Warning("Collection missing. Run 'mongoseed ensure' to create it.")
		return
	}
	ui.Field("Documents", ui.CountText(r.Documents))
	ui.Field("Seed", ui.YesNo(r.SeedPresent)+" "+ui.DimText("("+r.SeedID+")"))
}
