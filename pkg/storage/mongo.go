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
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

// MongoDB server error codes the backend distinguishes.
const (
	codeUnauthorized         = 13
	codeAuthenticationFailed = 18
	codeNamespaceExists      = 48
)

const (
	defaultMongoURI       = "mongodb://localhost:27017"
	defaultConnectTimeout = 10 * time.Second
)

// MongoConfig configures the MongoDB backend.
type MongoConfig struct {
	// URI is the MongoDB connection string, credentials included.
	// Defaults to mongodb://localhost:27017
	URI string

	// Database is the database the backend is bound to. Required.
	Database string

	// ConnectTimeout bounds connection, server selection and the initial
	// ping. Defaults to 10s.
	ConnectTimeout time.Duration

	// AppName is reported to the server in the connection handshake.
	AppName string
}

// MongoBackend implements Backend on top of the official MongoDB driver.
type MongoBackend struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoBackend connects to MongoDB and pings the primary before
// returning. The caller must Close the backend.
func NewMongoBackend(ctx context.Context, config MongoConfig) (*MongoBackend, error) {
	if config.Database == "" {
		return nil, errors.New("mongo: database name is required")
	}
	if config.URI == "" {
		config.URI = defaultMongoURI
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = defaultConnectTimeout
	}

	opts := options.Client().
		ApplyURI(config.URI).
		SetConnectTimeout(config.ConnectTimeout).
		SetServerSelectionTimeout(config.ConnectTimeout)
	if config.AppName != "" {
		opts.SetAppName(config.AppName)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, classify("connect", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, classify("ping", err)
	}

	return &MongoBackend{
		client: client,
		db:     client.Database(config.Database),
	}, nil
}

// DatabaseName implements Backend.
func (b *MongoBackend) DatabaseName() string {
	return b.db.Name()
}

// Ping implements Backend.
func (b *MongoBackend) Ping(ctx context.Context) error {
	return classify("ping", b.client.Ping(ctx, readpref.Primary()))
}

// ListCollectionNames implements Backend.
func (b *MongoBackend) ListCollectionNames(ctx context.Context) ([]string, error) {
	names, err := b.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, classify("list collections", err)
	}
	return names, nil
}

// CreateCollection implements Backend.
func (b *MongoBackend) CreateCollection(ctx context.Context, name string) error {
	return classify("create collection "+name, b.db.CreateCollection(ctx, name))
}

// InsertOne implements Backend.
func (b *MongoBackend) InsertOne(ctx context.Context, collection string, doc any) error {
	_, err := b.db.Collection(collection).InsertOne(ctx, doc)
	return classify("insert into "+collection, err)
}

// InsertOneIfAbsent implements Backend with an upsert that only sets
// fields on insert, so an existing document is never modified.
func (b *MongoBackend) InsertOneIfAbsent(ctx context.Context, collection, keyField string, keyValue, doc any) (bool, error) {
	filter := bson.D{{Key: keyField, Value: keyValue}}
	update := bson.D{{Key: "$setOnInsert", Value: doc}}
	res, err := b.db.Collection(collection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		err = classify("upsert into "+collection, err)
		if errors.Is(err, ErrDuplicateKey) {
			// A concurrent writer inserted the same key first.
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// EnsureUniqueIndex implements Backend.
func (b *MongoBackend) EnsureUniqueIndex(ctx context.Context, collection, field string) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true).SetName(field + "_unique"),
	}
	_, err := b.db.Collection(collection).Indexes().CreateOne(ctx, model)
	return classify("create index on "+collection, err)
}

// CountDocuments implements Backend.
func (b *MongoBackend) CountDocuments(ctx context.Context, collection string) (int64, error) {
	n, err := b.db.Collection(collection).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, classify("count "+collection, err)
	}
	return n, nil
}

// Find implements Backend.
func (b *MongoBackend) Find(ctx context.Context, collection string, q Query) ([]bson.Raw, error) {
	opts := options.Find()
	if q.SortBy != "" {
		order := 1
		if q.Descending {
			order = -1
		}
		opts.SetSort(bson.D{{Key: q.SortBy, Value: order}})
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	filter := q.Filter
	if filter == nil {
		filter = bson.D{}
	}
	cursor, err := b.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, classify("find in "+collection, err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []bson.Raw
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify("read cursor on "+collection, err)
	}
	return docs, nil
}

// FindOne implements Backend.
func (b *MongoBackend) FindOne(ctx context.Context, collection, field string, value any) (bson.Raw, error) {
	raw, err := b.db.Collection(collection).FindOne(ctx, bson.D{{Key: field, Value: value}}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("find %s=%v in %s: %w", field, value, collection, ErrNotFound)
		}
		return nil, classify("find in "+collection, err)
	}
	return raw, nil
}

// DropCollection implements Backend.
func (b *MongoBackend) DropCollection(ctx context.Context, name string) error {
	return classify("drop "+name, b.db.Collection(name).Drop(ctx))
}

// Close disconnects the client.
func (b *MongoBackend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}

// classify maps driver errors onto the package's error taxonomy. Errors
// that fit no category are wrapped with the operation name.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if hasServerCode(err, codeUnauthorized, codeAuthenticationFailed) {
		return &PermissionError{Op: op, Err: err}
	}
	if hasServerCode(err, codeNamespaceExists) {
		return fmt.Errorf("%s: %w: %w", op, ErrCollectionExists, err)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrDuplicateKey, err)
	}
	if isUnreachable(err) {
		return &ConnectivityError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func hasServerCode(err error, codes ...int) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		for _, c := range codes {
			if se.HasErrorCode(c) {
				return true
			}
		}
	}
	// Handshake failures (bad credentials) surface as driver errors rather
	// than command errors.
	var de driver.Error
	if errors.As(err, &de) {
		for _, c := range codes {
			if int(de.Code) == c {
				return true
			}
		}
	}
	return false
}

func isUnreachable(err error) bool {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, mongo.ErrClientDisconnected) {
		return true
	}
	var sse topology.ServerSelectionError
	return errors.As(err, &sse)
}
