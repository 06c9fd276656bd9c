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
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// MemoryBackend implements Backend in process memory. Documents are kept
// as marshalled BSON, so values round-trip with the same types MongoDB
// would store. It is used by tests and is safe for concurrent use.
type MemoryBackend struct {
	mu          sync.RWMutex
	name        string
	collections map[string]*memCollection
	closed      bool
}

type memCollection struct {
	docs   []bson.Raw
	unique []string
}

// NewMemoryBackend creates an empty in-memory database.
func NewMemoryBackend(database string) *MemoryBackend {
	return &MemoryBackend{
		name:        database,
		collections: make(map[string]*memCollection),
	}
}

// DatabaseName implements Backend.
func (b *MemoryBackend) DatabaseName() string {
	return b.name
}

// Ping implements Backend.
func (b *MemoryBackend) Ping(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.check(ctx)
}

// ListCollectionNames implements Backend. Names are returned sorted.
func (b *MemoryBackend) ListCollectionNames(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.check(ctx); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(b.collections))
	for name := range b.collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// CreateCollection implements Backend.
func (b *MemoryBackend) CreateCollection(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(ctx); err != nil {
		return err
	}

	if _, ok := b.collections[name]; ok {
		return fmt.Errorf("create collection %s: %w", name, ErrCollectionExists)
	}
	b.collections[name] = &memCollection{}
	return nil
}

// InsertOne implements Backend.
func (b *MemoryBackend) InsertOne(ctx context.Context, collection string, doc any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("insert into %s: marshal: %w", collection, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(ctx); err != nil {
		return err
	}
	return b.insertLocked(collection, raw)
}

// InsertOneIfAbsent implements Backend.
func (b *MemoryBackend) InsertOneIfAbsent(ctx context.Context, collection, keyField string, keyValue, doc any) (bool, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("upsert into %s: marshal: %w", collection, err)
	}
	key, err := rawValueOf(keyValue)
	if err != nil {
		return false, fmt.Errorf("upsert into %s: marshal key: %w", collection, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(ctx); err != nil {
		return false, err
	}

	if c, ok := b.collections[collection]; ok {
		for _, d := range c.docs {
			if v, err := d.LookupErr(keyField); err == nil && valuesEqual(v, key) {
				return false, nil
			}
		}
	}
	if err := b.insertLocked(collection, raw); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureUniqueIndex implements Backend.
func (b *MemoryBackend) EnsureUniqueIndex(ctx context.Context, collection, field string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(ctx); err != nil {
		return err
	}

	c := b.collectionLocked(collection)
	if slices.Contains(c.unique, field) {
		return nil
	}
	seen := make([]bson.RawValue, 0, len(c.docs))
	for _, d := range c.docs {
		v, err := d.LookupErr(field)
		if err != nil {
			continue
		}
		for _, s := range seen {
			if valuesEqual(s, v) {
				return fmt.Errorf("create index on %s: %w: existing documents share %s", collection, ErrDuplicateKey, field)
			}
		}
		seen = append(seen, v)
	}
	c.unique = append(c.unique, field)
	return nil
}

// CountDocuments implements Backend.
func (b *MemoryBackend) CountDocuments(ctx context.Context, collection string) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.check(ctx); err != nil {
		return 0, err
	}

	c, ok := b.collections[collection]
	if !ok {
		return 0, nil
	}
	return int64(len(c.docs)), nil
}

// Find implements Backend. Filters match on equality; numeric values
// compare by value regardless of their BSON width, as on the server.
func (b *MemoryBackend) Find(ctx context.Context, collection string, q Query) ([]bson.Raw, error) {
	want := make([]bson.RawValue, len(q.Filter))
	for i, e := range q.Filter {
		v, err := rawValueOf(e.Value)
		if err != nil {
			return nil, fmt.Errorf("find in %s: filter %s: %w", collection, e.Key, err)
		}
		want[i] = v
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.check(ctx); err != nil {
		return nil, err
	}

	c, ok := b.collections[collection]
	if !ok {
		return nil, nil
	}

	var out []bson.Raw
	for _, d := range c.docs {
		if matches(d, q.Filter, want) {
			out = append(out, d)
		}
	}

	if q.SortBy != "" {
		slices.SortStableFunc(out, func(x, y bson.Raw) int {
			r := compareValues(x.Lookup(q.SortBy), y.Lookup(q.SortBy))
			if q.Descending {
				return -r
			}
			return r
		})
	}

	if q.Skip > 0 {
		if q.Skip >= int64(len(out)) {
			return nil, nil
		}
		out = out[q.Skip:]
	}
	if q.Limit > 0 && q.Limit < int64(len(out)) {
		out = out[:q.Limit]
	}
	for i, d := range out {
		out[i] = slices.Clone(d)
	}
	return out, nil
}

// FindOne implements Backend.
func (b *MemoryBackend) FindOne(ctx context.Context, collection, field string, value any) (bson.Raw, error) {
	docs, err := b.Find(ctx, collection, Query{Filter: bson.D{{Key: field, Value: value}}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("find %s=%v in %s: %w", field, value, collection, ErrNotFound)
	}
	return docs[0], nil
}

// DropCollection implements Backend.
func (b *MemoryBackend) DropCollection(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(ctx); err != nil {
		return err
	}
	delete(b.collections, name)
	return nil
}

// Close implements Backend. Data is discarded.
func (b *MemoryBackend) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.collections = nil
	return nil
}

func (b *MemoryBackend) check(ctx context.Context) error {
	if b.closed {
		return ErrClosed
	}
	return ctx.Err()
}

// collectionLocked returns the named collection, creating it the way
// MongoDB does on first write.
func (b *MemoryBackend) collectionLocked(name string) *memCollection {
	c, ok := b.collections[name]
	if !ok {
		c = &memCollection{}
		b.collections[name] = c
	}
	return c
}

func (b *MemoryBackend) insertLocked(collection string, raw bson.Raw) error {
	c := b.collectionLocked(collection)
	for _, field := range c.unique {
		v, err := raw.LookupErr(field)
		if err != nil {
			continue
		}
		for _, d := range c.docs {
			if existing, err := d.LookupErr(field); err == nil && valuesEqual(existing, v) {
				return fmt.Errorf("insert into %s: %w: %s", collection, ErrDuplicateKey, field)
			}
		}
	}
	c.docs = append(c.docs, raw)
	return nil
}

func rawValueOf(v any) (bson.RawValue, error) {
	t, data, err := bson.MarshalValue(v)
	if err != nil {
		return bson.RawValue{}, err
	}
	return bson.RawValue{Type: t, Value: data}, nil
}

func matches(doc bson.Raw, filter bson.D, want []bson.RawValue) bool {
	for i, e := range filter {
		got, err := doc.LookupErr(e.Key)
		if err != nil || !valuesEqual(got, want[i]) {
			return false
		}
	}
	return true
}

func numeric(v bson.RawValue) (float64, bool) {
	switch v.Type {
	case bsontype.Double:
		return v.Double(), true
	case bsontype.Int32:
		return float64(v.Int32()), true
	case bsontype.Int64:
		return float64(v.Int64()), true
	}
	return 0, false
}

func valuesEqual(a, b bson.RawValue) bool {
	if x, ok := numeric(a); ok {
		if y, ok := numeric(b); ok {
			return x == y
		}
	}
	return a.Equal(b)
}

// compareValues orders missing values first, then numbers, then strings,
// then anything else by raw bytes.
func compareValues(a, b bson.RawValue) int {
	if r := cmp.Compare(typeRank(a), typeRank(b)); r != 0 {
		return r
	}
	if x, ok := numeric(a); ok {
		y, _ := numeric(b)
		return cmp.Compare(x, y)
	}
	if a.Type == bsontype.String {
		return strings.Compare(a.StringValue(), b.StringValue())
	}
	return slices.Compare(a.Value, b.Value)
}

func typeRank(v bson.RawValue) int {
	if v.Type == 0 || v.Type == bsontype.Null {
		return 0
	}
	if _, ok := numeric(v); ok {
		return 1
	}
	if v.Type == bsontype.String {
		return 2
	}
	return 3
}
