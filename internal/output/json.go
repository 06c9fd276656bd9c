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

// Package output writes machine-readable command results.
//
// Commands running with --json print their result through JSON; list can
// stream one product per line with JSONLines. Errors in JSON mode go to
// stderr through JSONError.
//
//	res, err := b.Ensure(ctx)
//	if err != nil {
//	    return err
//	}
//	return output.JSON(res)
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSON writes data to stdout indented by two spaces.
func JSON(data any) error {
	return JSONTo(os.Stdout, data)
}

func JSONTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

// JSONCompact writes data to stdout on a single line.
func JSONCompact(data any) error {
	return JSONCompactTo(os.Stdout, data)
}

func JSONCompactTo(w io.Writer, data any) error {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

// JSONLines writes each item of items as one compact JSON line. It stops
// at the first item that fails to encode.
func JSONLines[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for i, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("JSON encoding failed at item %d: %w", i, err)
		}
	}
	return nil
}

// ErrorJSON is the JSON shape for errors that carry no exit code context.
type ErrorJSON struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSONError writes err to stderr as {"error": "..."}.
func JSONError(err error) error {
	return JSONErrorTo(os.Stderr, err)
}

func JSONErrorTo(w io.Writer, err error) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(ErrorJSON{Error: err.Error()}); encErr != nil {
		return fmt.Errorf("JSON error encoding failed: %w", encErr)
	}
	return nil
}
