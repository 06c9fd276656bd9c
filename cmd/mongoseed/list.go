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

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kraklabs/mongoseed/internal/errors"
	"github.com/kraklabs/mongoseed/internal/output"
	"github.com/kraklabs/mongoseed/internal/ui"
	"github.com/kraklabs/mongoseed/pkg/product"
)

// ListResult is the JSON form of a product page.
type ListResult struct {
	Database   string            `json:"database"`
	Collection string            `json:"collection"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	Count      int               `json:"count"`
	Products   []product.Product `json:"products"`
}

var sortableFields = []string{
	product.FieldID,
	product.FieldName,
	product.FieldDescription,
	product.FieldColour,
	product.FieldDimensions,
	product.FieldPrice,
	product.FieldCurrencyUnit,
}

const listUsage = `Usage: mongoseed list [options]

Lists products in the collection, one page at a time. Filters match field
values exactly and combine with AND.

Examples:
  mongoseed list
  mongoseed list --colour red --currency-unit USD
  mongoseed list --price 14.5
  mongoseed list --page 2 --limit 20 --sort-by price --sort-order desc
  mongoseed list --ndjson > products.ndjson
`

// runList executes the 'list' command.
func runList(ctx context.Context, args []string, globals GlobalFlags) error {
	fs := newFlagSet("list", listUsage)
	target := addTargetFlags(fs)
	var p product.ListParams
	fs.StringVar(&p.Name, "name", "", "Only products with this name")
	fs.StringVar(&p.Description, "description", "", "Only products with this description")
	fs.StringVar(&p.Colour, "colour", "", "Only products with this colour")
	fs.StringVar(&p.Dimensions, "dimensions", "", "Only products with these dimensions")
	fs.StringVar(&p.CurrencyUnit, "currency-unit", "", "Only products priced in this currency")
	fs.StringVar(&p.Price, "price", "", "Only products with this price")
	fs.IntVar(&p.Page, "page", 1, "Page number, starting at 1")
	fs.IntVar(&p.Limit, "limit", 10, "Products per page")
	fs.StringVar(&p.SortBy, "sort-by", "", "Field to sort by: "+strings.Join(sortableFields, ", "))
	fs.StringVar(&p.SortOrder, "sort-order", "asc", "asc or desc")
	ndjson := fs.Bool("ndjson", false, "Print one JSON product per line")
	if done, err := parseFlags(fs, args); done {
		return err
	}
	if err := validateListParams(p); err != nil {
		return err
	}

	cfg, err := loadTarget(ctx, globals, target)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Mongo.OperationTimeout)
	defer cancel()

	backend, err := connect(ctx, cfg, globals)
	if err != nil {
		return err
	}
	defer closeBackend(backend)

	products, err := product.NewCatalog(backend, cfg.Bootstrap.Collection).List(ctx, p)
	if err != nil {
		return errors.FromStorage("list products in "+cfg.Bootstrap.Collection, err)
	}

	q := p.Query()
	switch {
	case *ndjson:
		return output.JSONLines(stdout, products)
	case globals.JSON:
		return output.JSONTo(stdout, ListResult{
			Database:   cfg.Mongo.Database,
			Collection: cfg.Bootstrap.Collection,
			Page:       int(q.Skip/q.Limit) + 1,
			Limit:      int(q.Limit),
			Count:      len(products),
			Products:   products,
		})
	case !globals.Quiet:
		printProducts(products)
	}
	return nil
}

// validateListParams rejects input the query layer would silently ignore.
func validateListParams(p product.ListParams) error {
	if p.Price != "" {
		if _, err := strconv.ParseFloat(p.Price, 64); err != nil {
			return errors.NewInputError("Invalid price filter", fmt.Sprintf("%q is not a number", p.Price), "Use a number such as --price 14.5")
		}
	}
	if p.SortBy != "" {
		known := false
		for _, f := range sortableFields {
			known = known || f == p.SortBy
		}
		if !known {
			return errors.NewInputError("Invalid sort field", fmt.Sprintf("%q is not a product field", p.SortBy), "Use one of: "+strings.Join(sortableFields, ", "))
		}
	}
	if p.PageOutOfRange() {
		return errors.NewInputError("Invalid page", fmt.Sprintf("page %d with %d products per page is out of range", p.Page, p.Limit), "Use a smaller --page or --limit")
	}
	if p.SortOrder != "asc" && p.SortOrder != "desc" {
		return errors.NewInputError("Invalid sort order", fmt.Sprintf("%q is neither asc nor desc", p.SortOrder), "Use --sort-order asc or --sort-order desc")
	}
	return nil
}

func printProducts(products []product.Product) {
	if len(products) == 0 {
		ui.Info("No products found")
		return
	}
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{
			p.ID,
			p.Name,
			p.Colour,
			p.Dimensions,
			strconv.FormatFloat(p.Price, 'f', -1, 64) + " " + p.CurrencyUnit,
		})
	}
	ui.Table([]string{"id", "name", "colour", "dimensions", "price"}, rows)
}
