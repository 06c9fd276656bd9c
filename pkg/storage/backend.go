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

package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// Backend is the interface that all storage backends must implement.
// A Backend is bound to a single database; collection names are passed
// per call.
type Backend interface {
	// DatabaseName returns the name of the database the backend is bound to.
	DatabaseName() string

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// ListCollectionNames returns the names of all collections in the database.
	ListCollectionNames(ctx context.Context) ([]string, error)

	// CreateCollection creates an empty collection. It returns an error
	// wrapping ErrCollectionExists if the collection is already present.
	CreateCollection(ctx context.Context, name string) error

	// InsertOne stores a single document, creating the collection implicitly
	// if needed.
	InsertOne(ctx context.Context, collection string, doc any) error

	// InsertOneIfAbsent stores doc unless a document with keyField equal to
	// keyValue already exists. It reports whether a document was inserted.
	InsertOneIfAbsent(ctx context.Context, collection, keyField string, keyValue, doc any) (bool, error)

	// EnsureUniqueIndex creates a unique ascending index on field. Calling it
	// again with the same field is a no-op.
	EnsureUniqueIndex(ctx context.Context, collection, field string) error

	// CountDocuments returns the number of documents in a collection.
	CountDocuments(ctx context.Context, collection string) (int64, error)

	// Find returns the documents matching q.
	Find(ctx context.Context, collection string, q Query) ([]bson.Raw, error)

	// FindOne returns the first document whose field equals value, or an
	// error wrapping ErrNotFound.
	FindOne(ctx context.Context, collection, field string, value any) (bson.Raw, error)

	// DropCollection removes a collection and its documents. Dropping a
	// missing collection is not an error.
	DropCollection(ctx context.Context, name string) error

	// Close releases any resources held by the backend.
	Close(ctx context.Context) error
}

// Query describes a Find call: equality filters on top-level fields, an
// optional single-field sort and offset pagination.
type Query struct {
	Filter     bson.D
	SortBy     string
	Descending bool
	Skip       int64
	Limit      int64
}

// HasCollection reports whether name is among the database's collections.
func HasCollection(ctx context.Context, b Backend, name string) (bool, error) {
	names, err := b.ListCollectionNames(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
