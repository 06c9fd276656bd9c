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

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kraklabs/mongoseed/pkg/product"
	"github.com/kraklabs/mongoseed/pkg/storage"
)

// Strategy selects how the bootstrap guards its side effects.
type Strategy string

const (
	// StrategyCheck lists the collections and creates and seeds only when
	// the target is missing. Concurrent runs can race between the check and
	// the create; the loser fails with storage.ErrCollectionExists.
	StrategyCheck Strategy = "check"

	// StrategyAtomic tolerates an existing collection, enforces a unique
	// index on the product id and seeds with an insert-only upsert, so
	// concurrent runs converge on one collection and one seed document.
	StrategyAtomic Strategy = "atomic"
)

// DefaultCollection is the collection checked and seeded when none is
// configured.
const DefaultCollection = "products"

// ParseStrategy converts a config or flag value to a Strategy.
// The empty string selects StrategyCheck.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyCheck:
		return StrategyCheck, nil
	case StrategyAtomic:
		return StrategyAtomic, nil
	}
	return "", fmt.Errorf("unknown strategy %q (want %q or %q)", s, StrategyCheck, StrategyAtomic)
}

// Config holds configuration for a bootstrap run.
type Config struct {
	// CollectionName is both the collection whose existence is checked and
	// the collection the seed document is written to.
	// Defaults to "products".
	CollectionName string

	// Seed is the document written when the collection is created.
	// Defaults to product.DefaultSeed().
	Seed *product.Product

	// Strategy defaults to StrategyCheck.
	Strategy Strategy
}

// Result describes what a run did.
type Result struct {
	Database   string        `json:"database"`
	Collection string        `json:"collection"`
	Strategy   Strategy      `json:"strategy"`
	Created    bool          `json:"created"`
	Seeded     bool          `json:"seeded"`
	Duration   time.Duration `json:"duration_ns"`
}

// Bootstrapper makes sure a collection and its seed document exist.
type Bootstrapper struct {
	backend storage.Backend
	config  Config
	logger  *slog.Logger
}

// New validates config, fills in defaults and returns a Bootstrapper bound
// to backend. A nil logger uses slog.Default().
func New(backend storage.Backend, config Config, logger *slog.Logger) (*Bootstrapper, error) {
	if backend == nil {
		return nil, errors.New("bootstrap: backend is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.CollectionName == "" {
		config.CollectionName = DefaultCollection
	}
	if config.Seed == nil {
		seed := product.DefaultSeed()
		config.Seed = &seed
	}
	strategy, err := ParseStrategy(string(config.Strategy))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	config.Strategy = strategy
	if err := config.Seed.Validate(); err != nil {
		return nil, fmt.Errorf("bootstrap: invalid seed document: %w", err)
	}

	return &Bootstrapper{backend: backend, config: config, logger: logger}, nil
}

// Ensure runs EnsureCollection for the configured collection.
func (b *Bootstrapper) Ensure(ctx context.Context) (*Result, error) {
	return b.EnsureCollection(ctx, b.config.CollectionName)
}

// EnsureCollection creates the named collection and writes the seed
// document into it if the collection does not exist yet. Repeated calls
// leave the database unchanged.
//
// Backend errors, including *storage.ConnectivityError and
// *storage.PermissionError, are returned as-is. Nothing is retried.
func (b *Bootstrapper) EnsureCollection(ctx context.Context, name string) (*Result, error) {
	start := time.Now()
	res := &Result{
		Database:   b.backend.DatabaseName(),
		Collection: name,
		Strategy:   b.config.Strategy,
	}

	b.logger.Info("bootstrap.ensure.start",
		"database", res.Database,
		"collection", name,
		"strategy", res.Strategy,
	)

	var err error
	switch b.config.Strategy {
	case StrategyAtomic:
		err = b.ensureAtomic(ctx, res)
	default:
		err = b.ensureChecked(ctx, res)
	}
	res.Duration = time.Since(start)
	recordRun(res, err)

	if err != nil {
		b.logger.Error("bootstrap.ensure.failed",
			"database", res.Database,
			"collection", name,
			"err", err,
		)
		return nil, err
	}

	b.logger.Info("bootstrap.ensure.done",
		"database", res.Database,
		"collection", name,
		"created", res.Created,
		"seeded", res.Seeded,
		"duration", res.Duration,
	)
	return res, nil
}

func (b *Bootstrapper) ensureChecked(ctx context.Context, res *Result) error {
	exists, err := storage.HasCollection(ctx, b.backend, res.Collection)
	if err != nil {
		return err
	}
	if exists {
		b.logger.Debug("bootstrap.collection.exists", "collection", res.Collection)
		return nil
	}

	if err := b.backend.CreateCollection(ctx, res.Collection); err != nil {
		return err
	}
	res.Created = true
	b.logger.Info("bootstrap.collection.created", "collection", res.Collection)

	if err := b.backend.InsertOne(ctx, res.Collection, b.config.Seed); err != nil {
		return err
	}
	res.Seeded = true
	b.logger.Info("bootstrap.seed.inserted", "collection", res.Collection, "id", b.config.Seed.ID)
	return nil
}

func (b *Bootstrapper) ensureAtomic(ctx context.Context, res *Result) error {
	err := b.backend.CreateCollection(ctx, res.Collection)
	switch {
	case err == nil:
		res.Created = true
		b.logger.Info("bootstrap.collection.created", "collection", res.Collection)
	case errors.Is(err, storage.ErrCollectionExists):
		b.logger.Debug("bootstrap.collection.exists", "collection", res.Collection)
	default:
		return err
	}

	if err := b.backend.EnsureUniqueIndex(ctx, res.Collection, product.FieldID); err != nil {
		return err
	}

	seed := b.config.Seed
	inserted, err := b.backend.InsertOneIfAbsent(ctx, res.Collection, product.FieldID, seed.ID, seed)
	if err != nil {
		return err
	}
	res.Seeded = inserted
	if inserted {
		b.logger.Info("bootstrap.seed.inserted", "collection", res.Collection, "id", seed.ID)
	} else {
		b.logger.Debug("bootstrap.seed.present", "collection", res.Collection, "id", seed.ID)
	}
	return nil
}
