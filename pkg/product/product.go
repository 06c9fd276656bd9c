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

// Package product defines the product document stored in the catalog
// collection and the seed record written on first bootstrap.
package product

import (
	"errors"
	"fmt"
	"strings"
)

// Field names as stored in MongoDB.
const (
	FieldID           = "id"
	FieldName         = "name"
	FieldDescription  = "description"
	FieldColour       = "colour"
	FieldDimensions   = "dimensions"
	FieldPrice        = "price"
	FieldCurrencyUnit = "currencyUnit"
)

// Product is a catalog entry. The id field is the logical key; the
// MongoDB _id is left to the server.
type Product struct {
	ID           string  `bson:"id" json:"id" yaml:"id"`
	Name         string  `bson:"name" json:"name" yaml:"name"`
	Description  string  `bson:"description" json:"description" yaml:"description"`
	Colour       string  `bson:"colour" json:"colour" yaml:"colour"`
	Dimensions   string  `bson:"dimensions" json:"dimensions" yaml:"dimensions"`
	Price        float64 `bson:"price" json:"price" yaml:"price"`
	CurrencyUnit string  `bson:"currencyUnit" json:"currencyUnit" yaml:"currencyUnit"`
}

// DefaultSeed returns the example document inserted when the collection
// is first created.
func DefaultSeed() Product {
	return Product{
		ID:           "abcdef-12345678",
		Name:         "product-names",
		Description:  "product description",
		Colour:       "red",
		Dimensions:   "12 cm x 25 cm x 31 cm",
		Price:        14.5,
		CurrencyUnit: "USD",
	}
}

// Validate checks the fields a seed document cannot do without.
func (p Product) Validate() error {
	var errs []error
	if strings.TrimSpace(p.ID) == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if p.Price < 0 {
		errs = append(errs, fmt.Errorf("price must not be negative, got %v", p.Price))
	}
	if strings.TrimSpace(p.CurrencyUnit) == "" {
		errs = append(errs, errors.New("currencyUnit is required"))
	}
	return errors.Join(errs...)
}
