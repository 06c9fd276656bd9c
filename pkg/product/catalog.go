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

package product

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/kraklabs/mongoseed/pkg/storage"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// ListParams holds the raw listing options as a user supplies them. Empty
// strings mean "no filter"; out-of-range paging falls back to defaults.
type ListParams struct {
	Name         string
	Description  string
	Colour       string
	Dimensions   string
	CurrencyUnit string
	Price        string

	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Query translates the params into a storage query. A price that does not
// parse as a number is ignored rather than rejected.
func (p ListParams) Query() storage.Query {
	var filter bson.D
	for _, f := range []struct{ key, value string }{
		{FieldName, p.Name},
		{FieldDescription, p.Description},
		{FieldColour, p.Colour},
		{FieldDimensions, p.Dimensions},
		{FieldCurrencyUnit, p.CurrencyUnit},
	} {
		if f.value != "" {
			filter = append(filter, bson.E{Key: f.key, Value: f.value})
		}
	}
	if p.Price != "" {
		if price, err := strconv.ParseFloat(p.Price, 64); err == nil {
			filter = append(filter, bson.E{Key: FieldPrice, Value: price})
		}
	}

	page, limit := p.window()
	skip := int64(math.MaxInt64)
	if !p.PageOutOfRange() {
		skip = (page - 1) * limit
	}

	return storage.Query{
		Filter:     filter,
		SortBy:     p.SortBy,
		Descending: p.SortBy != "" && p.SortOrder == "desc",
		Skip:       skip,
		Limit:      limit,
	}
}

// PageOutOfRange reports whether the offset of the requested page does not
// fit in an int64. Query turns such a page into an empty one.
func (p ListParams) PageOutOfRange() bool {
	page, limit := p.window()
	return page-1 > math.MaxInt64/limit
}

func (p ListParams) window() (page, limit int64) {
	page, limit = int64(p.Page), int64(p.Limit)
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}

// Catalog reads products from one collection.
type Catalog struct {
	backend    storage.Backend
	collection string
}

// NewCatalog returns a Catalog over the named collection.
func NewCatalog(backend storage.Backend, collection string) *Catalog {
	return &Catalog{backend: backend, collection: collection}
}

// List returns the products matching params.
func (c *Catalog) List(ctx context.Context, params ListParams) ([]Product, error) {
	docs, err := c.backend.Find(ctx, c.collection, params.Query())
	if err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(docs))
	for _, d := range docs {
		var p Product
		if err := bson.Unmarshal(d, &p); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		products = append(products, p)
	}
	return products, nil
}

// Get returns the product with the given id. The error wraps
// storage.ErrNotFound when there is none.
func (c *Catalog) Get(ctx context.Context, id string) (*Product, error) {
	raw, err := c.backend.FindOne(ctx, c.collection, FieldID, id)
	if err != nil {
		return nil, err
	}
	var p Product
	if err := bson.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode product %s: %w", id, err)
	}
	return &p, nil
}

// Count returns the number of documents in the collection.
func (c *Catalog) Count(ctx context.Context) (int64, error) {
	return c.backend.CountDocuments(ctx, c.collection)
}
