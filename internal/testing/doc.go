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

// Package testing provides test helpers for mongoseed packages.
//
// # Quick Start
//
// Use SetupTestBackend to get an empty in-memory database:
//
//	func TestMyFeature(t *testing.T) {
//	    backend := testing.SetupTestBackend(t)
//	    testing.InsertTestProduct(t, backend, "products", product.DefaultSeed())
//
//	    products := testing.QueryProducts(t, backend, "products")
//	    require.Len(t, products, 1)
//	}
//
// # Counting and Failing Calls
//
// RecordingBackend wraps any backend, counts calls per method and can
// return an injected error from a method:
//
//	rb := testing.NewRecordingBackend(testing.SetupTestBackend(t))
//	rb.Fail("CreateCollection", &storage.PermissionError{Op: "create", Err: cause})
//	_, err := bootstrapper.Ensure(ctx)
//	require.Equal(t, 0, rb.Calls("InsertOne"))
//
// # Live MongoDB
//
// Tests that need a real server call RequireMongo, which skips unless
// MONGOSEED_TEST_URI is set:
//
//	func TestAgainstMongo(t *testing.T) {
//	    backend := testing.RequireMongo(t)
//	    // ...
//	}
package testing
