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

package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

// capture disables color and redirects Out for the duration of the test.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	original := color.NoColor
	color.NoColor = true
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	t.Cleanup(func() {
		color.NoColor = original
		SetOutput(prev)
	})
	return &buf
}

func TestInitColors(t *testing.T) {
	original := color.NoColor
	defer func() { color.NoColor = original }()

	InitColors(true)
	assert.True(t, color.NoColor)
	InitColors(false)
	assert.False(t, color.NoColor)
}

func TestMessages(t *testing.T) {
	tests := []struct {
		name  string
		print func()
		want  string
	}{
		{"success", func() { Success("collection created") }, "✓ collection created\n"},
		{"successf", func() { Successf("seeded %s", "products") }, "✓ seeded products\n"},
		{"warning", func() { Warning("collection missing") }, "⚠ collection missing\n"},
		{"warningf", func() { Warningf("%d documents", 3) }, "⚠ 3 documents\n"},
		{"error", func() { Error("ping failed") }, "✗ ping failed\n"},
		{"errorf", func() { Errorf("code %d", 13) }, "✗ code 13\n"},
		{"info", func() { Info("connecting") }, "ℹ connecting\n"},
		{"infof", func() { Infof("database %s", "productdb") }, "ℹ database productdb\n"},
		{"header", func() { Header("status") }, "status\n======\n"},
		{"subheader", func() { SubHeader("Seed:") }, "Seed:\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t)
			tt.print()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestInlineHelpers(t *testing.T) {
	capture(t)

	assert.Equal(t, "Database:", Label("Database:"))
	assert.Equal(t, "mongodb://localhost:27017", DimText("mongodb://localhost:27017"))
	assert.Equal(t, "42", CountText(42))
	assert.Equal(t, "yes", YesNo(true))
	assert.Equal(t, "no", YesNo(false))
}

func TestField(t *testing.T) {
	buf := capture(t)
	Field("Collection", "products")
	assert.Equal(t, "  Collection:    products\n", buf.String())
}

func TestTable(t *testing.T) {
	buf := capture(t)
	Table([]string{"id", "name", "price"}, [][]string{
		{"abcdef-12345678", "product-names", "14.5"},
		{"x", "short"},
	})

	want := "ID               NAME           PRICE\n" +
		"abcdef-12345678  product-names  14.5\n" +
		"x                short          \n"
	assert.Equal(t, want, buf.String())
}
