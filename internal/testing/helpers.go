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

package testing

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/kraklabs/mongoseed/pkg/product"
	"github.com/kraklabs/mongoseed/pkg/storage"
)

// MongoURIEnv names the variable that enables tests against a live MongoDB.
const MongoURIEnv = "MONGOSEED_TEST_URI"

// SetupTestBackend creates an empty in-memory backend for testing.
// The backend is automatically closed when the test finishes.
//
// Example:
//
//	func TestMyFeature(t *testing.T) {
//	    backend := testing.SetupTestBackend(t)
//	    testing.InsertTestProduct(t, backend, "products", product.DefaultSeed())
//	}
func SetupTestBackend(t *testing.T) *storage.MemoryBackend {
	t.Helper()

	backend := storage.NewMemoryBackend("productdb")
	t.Cleanup(func() {
		_ = backend.Close(context.Background())
	})
	return backend
}

// RequireMongo connects to the MongoDB named by MONGOSEED_TEST_URI, or
// skips the test when the variable is unset. Each call gets a fresh
// database whose collections are dropped on cleanup.
func RequireMongo(t *testing.T) *storage.MongoBackend {
	t.Helper()

	uri := os.Getenv(MongoURIEnv)
	if uri == "" {
		t.Skipf("%s not set; skipping MongoDB integration test", MongoURIEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	backend, err := storage.NewMongoBackend(ctx, storage.MongoConfig{
		URI:      uri,
		Database: fmt.Sprintf("mongoseed_test_%d", time.Now().UnixNano()),
		AppName:  "mongoseed-test",
	})
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		if names, err := backend.ListCollectionNames(ctx); err == nil {
			for _, n := range names {
				_ = backend.DropCollection(ctx, n)
			}
		}
		_ = backend.Close(ctx)
	})
	return backend
}

// InsertTestProduct adds a product to the named collection.
func InsertTestProduct(t *testing.T, backend storage.Backend, collection string, p product.Product) {
	t.Helper()

	if err := backend.InsertOne(context.Background(), collection, p); err != nil {
		t.Fatalf("failed to insert test product: %v", err)
	}
}

// QueryProducts returns every product in the named collection.
func QueryProducts(t *testing.T, backend storage.Backend, collection string) []product.Product {
	t.Helper()

	docs, err := backend.Find(context.Background(), collection, storage.Query{})
	if err != nil {
		t.Fatalf("failed to query products: %v", err)
	}
	out := make([]product.Product, 0, len(docs))
	for _, d := range docs {
		var p product.Product
		if err := bson.Unmarshal(d, &p); err != nil {
			t.Fatalf("failed to decode product: %v", err)
		}
		out = append(out, p)
	}
	return out
}

// RecordingBackend wraps a Backend, counts calls per method and returns
// injected errors instead of calling through.
//
// Example:
//
//	rb := testing.NewRecordingBackend(testing.SetupTestBackend(t))
//	rb.Fail("ListCollectionNames", &storage.ConnectivityError{Op: "list", Err: io.EOF})
type RecordingBackend struct {
	storage.Backend

	mu      sync.Mutex
	calls   map[string]int
	faults  map[string]error
	inserts []Insert

	// AfterList, when set, runs after a successful ListCollectionNames.
	// Tests use it to interleave a competing writer.
	AfterList func()
}

// Insert records the target of an insert call.
type Insert struct {
	Collection string
	Doc        any
}

// NewRecordingBackend wraps inner.
func NewRecordingBackend(inner storage.Backend) *RecordingBackend {
	return &RecordingBackend{
		Backend: inner,
		calls:   make(map[string]int),
		faults:  make(map[string]error),
	}
}

// Fail makes every later call to method return err.
func (r *RecordingBackend) Fail(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faults[method] = err
}

// Calls returns how many times method was called.
func (r *RecordingBackend) Calls(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

// Inserts returns the recorded InsertOne and InsertOneIfAbsent targets.
func (r *RecordingBackend) Inserts() []Insert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Insert(nil), r.inserts...)
}

func (r *RecordingBackend) record(method string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[method]++
	return r.faults[method]
}

// Ping implements storage.Backend.
func (r *RecordingBackend) Ping(ctx context.Context) error {
	if err := r.record("Ping"); err != nil {
		return err
	}
	return r.Backend.Ping(ctx)
}

// ListCollectionNames implements storage.Backend.
func (r *RecordingBackend) ListCollectionNames(ctx context.Context) ([]string, error) {
	if err := r.record("ListCollectionNames"); err != nil {
		return nil, err
	}
	names, err := r.Backend.ListCollectionNames(ctx)
	if err == nil && r.AfterList != nil {
		r.AfterList()
	}
	return names, err
}

// CreateCollection implements storage.Backend.
func (r *RecordingBackend) CreateCollection(ctx context.Context, name string) error {
	if err := r.record("CreateCollection"); err != nil {
		return err
	}
	return r.Backend.CreateCollection(ctx, name)
}

// InsertOne implements storage.Backend.
func (r *RecordingBackend) InsertOne(ctx context.Context, collection string, doc any) error {
	if err := r.record("InsertOne"); err != nil {
		return err
	}
	r.mu.Lock()
	r.inserts = append(r.inserts, Insert{Collection: collection, Doc: doc})
	r.mu.Unlock()
	return r.Backend.InsertOne(ctx, collection, doc)
}

// InsertOneIfAbsent implements storage.Backend.
func (r *RecordingBackend) InsertOneIfAbsent(ctx context.Context, collection, keyField string, keyValue, doc any) (bool, error) {
	if err := r.record("InsertOneIfAbsent"); err != nil {
		return false, err
	}
	r.mu.Lock()
	r.inserts = append(r.inserts, Insert{Collection: collection, Doc: doc})
	r.mu.Unlock()
	return r.Backend.InsertOneIfAbsent(ctx, collection, keyField, keyValue, doc)
}

// EnsureUniqueIndex implements storage.Backend.
func (r *RecordingBackend) EnsureUniqueIndex(ctx context.Context, collection, field string) error {
	if err := r.record("EnsureUniqueIndex"); err != nil {
		return err
	}
	return r.Backend.EnsureUniqueIndex(ctx, collection, field)
}

// CountDocuments implements storage.Backend.
func (r *RecordingBackend) CountDocuments(ctx context.Context, collection string) (int64, error) {
	if err := r.record("CountDocuments"); err != nil {
		return 0, err
	}
	return r.Backend.CountDocuments(ctx, collection)
}

// Find implements storage.Backend.
func (r *RecordingBackend) Find(ctx context.Context, collection string, q storage.Query) ([]bson.Raw, error) {
	if err := r.record("Find"); err != nil {
		return nil, err
	}
	return r.Backend.Find(ctx, collection, q)
}

// FindOne implements storage.Backend.
func (r *RecordingBackend) FindOne(ctx context.Context, collection, field string, value any) (bson.Raw, error) {
	if err := r.record("FindOne"); err != nil {
		return nil, err
	}
	return r.Backend.FindOne(ctx, collection, field, value)
}

// DropCollection implements storage.Backend.
func (r *RecordingBackend) DropCollection(ctx context.Context, name string) error {
	if err := r.record("DropCollection"); err != nil {
		return err
	}
	return r.Backend.DropCollection(ctx, name)
}
