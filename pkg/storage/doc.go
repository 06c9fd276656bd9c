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

// Package storage provides the database abstraction used by mongoseed.
//
// The Backend interface covers the handful of document-database operations
// the bootstrap and inspection commands need: listing and creating
// collections, inserting (optionally keyed, insert-only) documents, unique
// indexes, and simple equality queries with sort and pagination.
//
// # Available Backends
//
//   - MongoBackend: the official MongoDB Go driver
//   - MemoryBackend: process-local, BSON-backed, for tests
//
// # Quick Start
//
//	backend, err := storage.NewMongoBackend(ctx, storage.MongoConfig{
//	    URI:      "mongodb://localhost:27017",
//	    Database: "productdb",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close(ctx)
//
//	ok, err := storage.HasCollection(ctx, backend, "products")
//
// # Errors
//
// Driver errors are mapped onto a small taxonomy so callers can react
// without importing the driver:
//
//   - *ConnectivityError: network failures, timeouts, failed server selection
//   - *PermissionError: Unauthorized (13) and AuthenticationFailed (18)
//   - ErrCollectionExists: NamespaceExists (48) from CreateCollection
//   - ErrDuplicateKey: unique index violations (11000)
//   - ErrNotFound: FindOne matched nothing
//
// Use errors.Is and errors.As, or the IsConnectivity and IsPermission
// helpers.
//
// # Thread Safety
//
// MongoBackend inherits the driver's safety for concurrent use.
// MemoryBackend guards its state with a read/write mutex.
package storage
