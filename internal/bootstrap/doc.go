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

// Package bootstrap makes sure the product collection and its seed
// document exist in the target database.
//
// # Bootstrap Workflow
//
//	backend, err := storage.NewMongoBackend(ctx, storage.MongoConfig{
//	    URI:      os.Getenv("MONGO_URI"),
//	    Database: "productdb",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close(ctx)
//
//	b, err := bootstrap.New(backend, bootstrap.Config{
//	    CollectionName: "products",
//	    Strategy:       bootstrap.StrategyCheck,
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := b.Ensure(ctx)
//
// The run is idempotent: once the collection exists, later runs change
// nothing. The seed document is written to the same collection that is
// checked.
//
// # Strategies
//
// StrategyCheck lists collections, then creates and seeds when the target
// is missing. Two processes starting together can both see the collection
// as missing; the one that loses the create returns an error wrapping
// storage.ErrCollectionExists and writes nothing.
//
// StrategyAtomic relies on the database instead: an existing collection is
// accepted, a unique index on the product id is created, and the seed is
// written with an insert-only upsert. Any number of concurrent runs end
// with one collection holding one seed document. Unlike StrategyCheck it
// also restores a missing seed document in an existing collection.
//
// # Errors
//
// Backend errors are returned unmodified so callers can test them with
// storage.IsConnectivity and storage.IsPermission. Nothing is retried.
package bootstrap
