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
	"fmt"
	"io"
	"net/url"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/mongoseed/internal/errors"
	"github.com/kraklabs/mongoseed/pkg/storage"
)

// stdout receives command results; tests replace it.
var stdout io.Writer = os.Stdout

// openBackend connects to the configured database. Tests replace it with
// an in-memory backend.
var openBackend = func(ctx context.Context, cfg *Config) (storage.Backend, error) {
	return storage.NewMongoBackend(ctx, storage.MongoConfig{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
		AppName:        cfg.Mongo.AppName,
	})
}

func newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fmt.Fprint(os.Stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}
	return fs
}

// parseFlags parses args into fs. done is true when the command must stop:
// after --help (err is nil) or on a bad flag (err is an input error).
func parseFlags(fs *flag.FlagSet, args []string) (done bool, err error) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return true, nil
		}
		return true, errors.NewInputError(
			fmt.Sprintf("Invalid arguments for '%s'", fs.Name()),
			err.Error(),
			fmt.Sprintf("Run 'mongoseed %s --help'", fs.Name()),
		)
	}
	return false, nil
}

// targetFlags override where a command connects to.
type targetFlags struct {
	uri        string
	database   string
	collection string
}

func addTargetFlags(fs *flag.FlagSet) *targetFlags {
	t := &targetFlags{}
	fs.StringVar(&t.uri, "uri", "", "MongoDB connection string (overrides MONGO_URI)")
	fs.StringVar(&t.database, "database", "", "Database name (overrides MONGOSEED_DATABASE)")
	fs.StringVar(&t.collection, "collection", "", "Collection name (overrides MONGOSEED_COLLECTION)")
	return t
}

func (t *targetFlags) apply(cfg *Config) {
	setIf(&cfg.Mongo.URI, t.uri)
	setIf(&cfg.Mongo.Database, t.database)
	setIf(&cfg.Bootstrap.Collection, t.collection)
}

// loadTarget loads the configuration, applies command-line overrides and
// validates the result.
func loadTarget(ctx context.Context, globals GlobalFlags, t *targetFlags, overrides ...func(*Config)) (*Config, error) {
	cfg, err := LoadConfig(ctx, globals.ConfigPath)
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot load mongoseed configuration",
			err.Error(),
			"Run 'mongoseed init' or fix the file passed with --config",
			err,
		)
	}
	if t != nil {
		t.apply(cfg)
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewConfigError(
			"Invalid mongoseed configuration",
			err.Error(),
			"Edit .mongoseed/project.yaml or the matching environment variable",
			err,
		)
	}
	return cfg, nil
}

// connect opens the backend behind a spinner.
func connect(ctx context.Context, cfg *Config, globals GlobalFlags) (storage.Backend, error) {
	var backend storage.Backend
	err := withSpinner(NewProgressConfig(globals), "Connecting to MongoDB", func() error {
		var err error
		backend, err = openBackend(ctx, cfg)
		return err
	})
	if err != nil {
		return nil, errors.FromStorage("connect to "+redactURI(cfg.Mongo.URI), err)
	}
	return backend, nil
}

// closeBackend closes backend with a fresh short deadline so it still
// runs after ctx was canceled.
func closeBackend(backend storage.Backend) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()
	_ = backend.Close(ctx)
}

// redactURI hides the password of a connection string.
func redactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "<invalid uri>"
	}
	return u.Redacted()
}
