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
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/kraklabs/mongoseed/internal/errors"
	"github.com/kraklabs/mongoseed/internal/output"
	"github.com/kraklabs/mongoseed/internal/ui"
	"github.com/kraklabs/mongoseed/pkg/product"
	"github.com/kraklabs/mongoseed/pkg/storage"
)

const getUsage = `Usage: mongoseed get [options] <id>

Prints the product with the given id. Exits with code 6 when no product
has that id.

Examples:
  mongoseed get abcdef-12345678
  mongoseed --json get abcdef-12345678
`

// runGet executes the 'get' command.
func runGet(ctx context.Context, args []string, globals GlobalFlags) error {
	fs := newFlagSet("get", getUsage)
	target := addTargetFlags(fs)
	if done, err := parseFlags(fs, args); done {
		return err
	}
	if fs.NArg() != 1 {
		return errors.NewInputError("Expected exactly one product id", fmt.Sprintf("got %d arguments", fs.NArg()), "Run 'mongoseed get <id>'")
	}
	id := fs.Arg(0)

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

	p, err := product.NewCatalog(backend, cfg.Bootstrap.Collection).Get(ctx, id)
	if stderrors.Is(err, storage.ErrNotFound) {
		return errors.NewNotFoundError(
			"Product not found",
			fmt.Sprintf("No product with id %q in %s.%s", id, cfg.Mongo.Database, cfg.Bootstrap.Collection),
			"Run 'mongoseed list' to see existing products",
		)
	}
	if err != nil {
		return errors.FromStorage("read product "+id, err)
	}

	if globals.JSON {
		return output.JSONTo(stdout, p)
	}
	if !globals.Quiet {
		printProduct(p)
	}
	return nil
}

func printProduct(p *product.Product) {
	ui.SubHeader(p.ID)
	ui.Field("Name", p.Name)
	ui.Field("Description", p.Description)
	ui.Field("Colour", p.Colour)
	ui.Field("Dimensions", p.Dimensions)
	ui.Field("Price", strconv.FormatFloat(p.Price, 'f', -1, 64)+" "+p.CurrencyUnit)
}
