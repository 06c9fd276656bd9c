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
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/mongoseed/internal/bootstrap"
	"github.com/kraklabs/mongoseed/internal/errors"
	seedtest "github.com/kraklabs/mongoseed/internal/testing"
	"github.com/kraklabs/mongoseed/internal/ui"
	"github.com/kraklabs/mongoseed/pkg/product"
	"github.com/kraklabs/mongoseed/pkg/storage"
)

// keepOpen lets one in-memory backend outlive the commands that close it.
type keepOpen struct {
	storage.Backend
}

func (keepOpen) Close(context.Context) error { return nil }

type harness struct {
	backend *storage.MemoryBackend
	out     *bytes.Buffer
	opened  []*Config
	open    func(ctx context.Context, cfg *Config) (storage.Backend, error)
}

// newHarness runs commands in an empty directory, against an in-memory
// database, with output captured and colors off.
func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, k := range []string{"MONGO_URI", "MONGOSEED_DATABASE", "MONGOSEED_COLLECTION", "MONGOSEED_STRATEGY", "MONGOSEED_PUSHGATEWAY"} {
		t.Setenv(k, "")
	}

	h := &harness{backend: seedtest.SetupTestBackend(t), out: &bytes.Buffer{}}
	h.open = func(context.Context, *Config) (storage.Backend, error) {
		return keepOpen{h.backend}, nil
	}

	prevOpen, prevStdout, prevColor := openBackend, stdout, color.NoColor
	openBackend = func(ctx context.Context, cfg *Config) (storage.Backend, error) {
		h.opened = append(h.opened, cfg)
		return h.open(ctx, cfg)
	}
	stdout = h.out
	prevUI := ui.SetOutput(h.out)
	color.NoColor = true
	t.Cleanup(func() {
		openBackend, stdout, color.NoColor = prevOpen, prevStdout, prevColor
		ui.SetOutput(prevUI)
	})
	return h
}

func (h *harness) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(h.out.Bytes(), v), h.out.String())
	h.out.Reset()
}

var jsonMode = GlobalFlags{JSON: true, Quiet: true}

func TestEnsure_CreatesThenNoop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, runEnsure(ctx, nil, jsonMode))
	var first bootstrap.Result
	h.decode(t, &first)
	assert.True(t, first.Created)
	assert.True(t, first.Seeded)
	assert.Equal(t, "productdb", first.Database)
	assert.Equal(t, "products", first.Collection)

	require.NoError(t, runEnsure(ctx, nil, jsonMode))
	var second bootstrap.Result
	h.decode(t, &second)
	assert.False(t, second.Created)
	assert.False(t, second.Seeded)

	assert.Len(t, seedtest.QueryProducts(t, h.backend, "products"), 1)
}

func TestEnsure_TextOutput(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, runEnsure(context.Background(), nil, GlobalFlags{}))
	out := h.out.String()
	assert.Contains(t, out, "✓ Created collection productdb.products")
	assert.Contains(t, out, "✓ Inserted seed document abcdef-12345678")

	h.out.Reset()
	require.NoError(t, runEnsure(context.Background(), nil, GlobalFlags{}))
	assert.Contains(t, h.out.String(), "already exists")
	assert.Contains(t, h.out.String(), "Nothing to do")
}

func TestEnsure_FlagsOverrideConfig(t *testing.T) {
	h := newHarness(t)

	err := runEnsure(context.Background(), []string{"--collection", "catalog", "--strategy", "atomic"}, jsonMode)
	require.NoError(t, err)

	var res bootstrap.Result
	h.decode(t, &res)
	assert.Equal(t, "catalog", res.Collection)
	assert.Equal(t, bootstrap.StrategyAtomic, res.Strategy)
	assert.Len(t, seedtest.QueryProducts(t, h.backend, "catalog"), 1)
}

func TestEnsure_UsesProjectFileSeed(t *testing.T) {
	h := newHarness(t)
	cwd, err := os.Getwd()
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Bootstrap.Seed = product.Product{ID: "sku-9", Name: "chair", Price: 49, CurrencyUnit: "GBP"}
	require.NoError(t, SaveConfig(cfg, ConfigPath(cwd)))

	require.NoError(t, runEnsure(context.Background(), nil, jsonMode))
	got := seedtest.QueryProducts(t, h.backend, "products")
	require.Len(t, got, 1)
	assert.Equal(t, cfg.Bootstrap.Seed, got[0])
}

func TestEnsure_ExitCodes(t *testing.T) {
	cause := stderrors.New("socket closed")
	tests := []struct {
		name     string
		args     []string
		setup    func(h *harness)
		wantCode int
	}{
		{
			name:     "unknown strategy",
			args:     []string{"--strategy", "eventual"},
			wantCode: errors.ExitConfig,
		},
		{
			name:     "bad flag",
			args:     []string{"--no-such-flag"},
			wantCode: errors.ExitInput,
		},
		{
			name: "unreachable server",
			setup: func(h *harness) {
				h.open = func(context.Context, *Config) (storage.Backend, error) {
					return nil, &storage.ConnectivityError{Op: "ping", Err: cause}
				}
			},
			wantCode: errors.ExitNetwork,
		},
		{
			name: "not authorized",
			setup: func(h *harness) {
				rb := seedtest.NewRecordingBackend(keepOpen{h.backend})
				rb.Fail("ListCollectionNames", &storage.PermissionError{Op: "list collections", Err: cause})
				h.open = func(context.Context, *Config) (storage.Backend, error) { return rb, nil }
			},
			wantCode: errors.ExitPermission,
		},
		{
			name: "lost create race",
			setup: func(h *harness) {
				rb := seedtest.NewRecordingBackend(keepOpen{h.backend})
				rb.AfterList = func() { _ = h.backend.CreateCollection(context.Background(), "products") }
				h.open = func(context.Context, *Config) (storage.Backend, error) { return rb, nil }
			},
			wantCode: errors.ExitDatabase,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.setup != nil {
				tt.setup(h)
			}
			err := runEnsure(context.Background(), tt.args, jsonMode)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.ExitCodeOf(err))
		})
	}
}

func TestEnsure_Help(t *testing.T) {
	newHarness(t)
	assert.NoError(t, runEnsure(context.Background(), []string{"--help"}, GlobalFlags{}))
}

func TestStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, runStatus(ctx, nil, jsonMode))
	var before StatusResult
	h.decode(t, &before)
	assert.False(t, before.Exists)
	assert.False(t, before.SeedPresent)
	assert.Equal(t, "mongodb://localhost:27017", before.URI)

	require.NoError(t, runEnsure(ctx, nil, jsonMode))
	h.out.Reset()
	seedtest.InsertTestProduct(t, h.backend, "products", product.Product{ID: "sku-2", CurrencyUnit: "USD"})

	require.NoError(t, runStatus(ctx, nil, jsonMode))
	var after StatusResult
	h.decode(t, &after)
	assert.True(t, after.Exists)
	assert.EqualValues(t, 2, after.Documents)
	assert.True(t, after.SeedPresent)
	assert.Equal(t, "abcdef-12345678", after.SeedID)
}

func TestStatus_TextMissingCollection(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, runStatus(context.Background(), nil, GlobalFlags{}))
	assert.Contains(t, h.out.String(), "Run 'mongoseed ensure'")
}

func TestStatus_RedactsPassword(t *testing.T) {
	h := newHarness(t)
	t.Setenv("MONGO_URI", "mongodb://app:s3cret@db:27017")

	require.NoError(t, runStatus(context.Background(), nil, jsonMode))
	var res StatusResult
	h.decode(t, &res)
	assert.NotContains(t, res.URI, "s3cret")
	require.Len(t, h.opened, 1)
	assert.Equal(t, "mongodb://app:s3cret@db:27017", h.opened[0].Mongo.URI, "the real URI is still used to connect")
}

func seedCatalog(t *testing.T, h *harness) {
	t.Helper()
	for _, p := range []product.Product{
		{ID: "a", Name: "mug", Colour: "red", Price: 5, CurrencyUnit: "USD"},
		{ID: "b", Name: "lamp", Colour: "blue", Price: 20, CurrencyUnit: "USD"},
		{ID: "c", Name: "rug", Colour: "red", Price: 14.5, CurrencyUnit: "EUR"},
	} {
		seedtest.InsertTestProduct(t, h.backend, "products", p)
	}
}

func TestList(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantIDs []string
	}{
		{"all", nil, []string{"a", "b", "c"}},
		{"colour filter", []string{"--colour", "red"}, []string{"a", "c"}},
		{"price filter", []string{"--price", "14.5"}, []string{"c"}},
		{"combined filters", []string{"--colour", "red", "--currency-unit", "USD"}, []string{"a"}},
		{"sorted desc", []string{"--sort-by", "price", "--sort-order", "desc"}, []string{"b", "c", "a"}},
		{"second page", []string{"--sort-by", "price", "--limit", "2", "--page", "2"}, []string{"b"}},
		{"page zero means first", []string{"--sort-by", "price", "--limit", "1", "--page", "0"}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			seedCatalog(t, h)

			require.NoError(t, runList(context.Background(), tt.args, jsonMode))
			var res ListResult
			h.decode(t, &res)

			ids := make([]string, 0, len(res.Products))
			for _, p := range res.Products {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, len(tt.wantIDs), res.Count)
		})
	}
}

func TestList_NDJSON(t *testing.T) {
	h := newHarness(t)
	seedCatalog(t, h)

	require.NoError(t, runList(context.Background(), []string{"--ndjson", "--colour", "red"}, GlobalFlags{}))
	lines := strings.Split(strings.TrimSpace(h.out.String()), "\n")
	require.Len(t, lines, 2)
	var p product.Product
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &p))
	assert.Equal(t, "a", p.ID)
}

func TestList_Table(t *testing.T) {
	h := newHarness(t)
	seedCatalog(t, h)

	require.NoError(t, runList(context.Background(), []string{"--name", "rug"}, GlobalFlags{}))
	out := h.out.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "14.5 EUR")
	assert.NotContains(t, out, "mug")
}

func TestList_InvalidInput(t *testing.T) {
	for _, args := range [][]string{
		{"--price", "cheap"},
		{"--sort-by", "weight"},
		{"--sort-order", "sideways"},
		{"--page", "x"},
		{"--page", "1000000000000000000", "--limit", "10"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			h := newHarness(t)
			err := runList(context.Background(), args, jsonMode)
			assert.Equal(t, errors.ExitInput, errors.ExitCodeOf(err))
			assert.Empty(t, h.opened, "no connection for invalid input")
		})
	}
}

func TestGet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, runEnsure(ctx, nil, jsonMode))
	h.out.Reset()

	require.NoError(t, runGet(ctx, []string{"abcdef-12345678"}, jsonMode))
	var got product.Product
	h.decode(t, &got)
	assert.Equal(t, product.DefaultSeed(), got)

	require.NoError(t, runGet(ctx, []string{"abcdef-12345678"}, GlobalFlags{}))
	assert.Contains(t, h.out.String(), "12 cm x 25 cm x 31 cm")
	assert.Contains(t, h.out.String(), "14.5 USD")
}

func TestGet_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := runGet(ctx, []string{"missing"}, jsonMode)
	assert.Equal(t, errors.ExitNotFound, errors.ExitCodeOf(err))

	err = runGet(ctx, nil, jsonMode)
	assert.Equal(t, errors.ExitInput, errors.ExitCodeOf(err))

	err = runGet(ctx, []string{"a", "b"}, jsonMode)
	assert.Equal(t, errors.ExitInput, errors.ExitCodeOf(err))
	assert.Len(t, h.opened, 1)
}

func TestReset(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := runReset(ctx, nil, jsonMode)
	assert.Equal(t, errors.ExitInput, errors.ExitCodeOf(err))
	assert.Empty(t, h.opened)

	require.NoError(t, runEnsure(ctx, nil, jsonMode))
	h.out.Reset()

	require.NoError(t, runReset(ctx, []string{"--yes"}, jsonMode))
	var res ResetResult
	h.decode(t, &res)
	assert.True(t, res.Dropped)

	exists, err := storage.HasCollection(ctx, h.backend, "products")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, runReset(ctx, []string{"--yes"}, jsonMode))
	h.decode(t, &res)
	assert.False(t, res.Dropped)

	require.NoError(t, runEnsure(ctx, nil, jsonMode))
	assert.Len(t, seedtest.QueryProducts(t, h.backend, "products"), 1, "ensure reseeds after reset")
}

func TestInit_NonInteractive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	args := []string{"-y", "--database", "shop", "--strategy", "atomic"}
	require.NoError(t, runInit(ctx, args, GlobalFlags{}))
	assert.Contains(t, h.out.String(), "Next steps:")

	cwd, err := os.Getwd()
	require.NoError(t, err)
	cfg, err := loadConfigWith(ctx, ConfigPath(cwd), noEnv())
	require.NoError(t, err)
	assert.Equal(t, "shop", cfg.Mongo.Database)
	assert.Equal(t, "atomic", cfg.Bootstrap.Strategy)
	assert.Equal(t, product.DefaultSeed(), cfg.Bootstrap.Seed)

	err = runInit(ctx, []string{"-y"}, GlobalFlags{})
	assert.Equal(t, errors.ExitConfig, errors.ExitCodeOf(err), "existing file needs --force")

	require.NoError(t, runInit(ctx, []string{"-y", "--force"}, GlobalFlags{}))
}

func TestInit_Interactive(t *testing.T) {
	newHarness(t)
	prev := stdin
	stdin = strings.NewReader("mongodb://db:27017\n\ncatalog\natomic\n\n")
	t.Cleanup(func() { stdin = prev })

	require.NoError(t, runInit(context.Background(), nil, GlobalFlags{}))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	cfg, err := loadConfigWith(context.Background(), ConfigPath(cwd), noEnv())
	require.NoError(t, err)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "productdb", cfg.Mongo.Database, "empty answer keeps the default")
	assert.Equal(t, "catalog", cfg.Bootstrap.Collection)
	assert.Equal(t, "atomic", cfg.Bootstrap.Strategy)
}

func TestInit_RejectsInvalidValues(t *testing.T) {
	newHarness(t)
	err := runInit(context.Background(), []string{"-y", "--collection", "system.users"}, GlobalFlags{})
	assert.Equal(t, errors.ExitInput, errors.ExitCodeOf(err))
}

func TestAddToGitignore(t *testing.T) {
	newHarness(t)
	dir := t.TempDir()

	addToGitignore(dir, true)
	_, err := os.Stat(filepath.Join(dir, ".gitignore"))
	assert.True(t, os.IsNotExist(err), "no .gitignore is created")

	path := filepath.Join(dir, ".gitignore")
	require.NoError(t, os.WriteFile(path, []byte("bin/"), 0600))
	addToGitignore(dir, true)
	addToGitignore(dir, true)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), ".mongoseed/"))
	assert.True(t, strings.HasPrefix(string(data), "bin/\n"))
}

func TestInit_ConfigOutsideProjectLeavesGitignore(t *testing.T) {
	newHarness(t)
	cwd, err := os.Getwd()
	require.NoError(t, err)
	gitignore := filepath.Join(cwd, ".gitignore")
	require.NoError(t, os.WriteFile(gitignore, []byte("bin/\n"), 0600))

	elsewhere := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, runInit(context.Background(), []string{"-y"}, GlobalFlags{ConfigPath: elsewhere, Quiet: true}))
	assert.FileExists(t, elsewhere)

	data, err := os.ReadFile(gitignore)
	require.NoError(t, err)
	assert.Equal(t, "bin/\n", string(data))

	require.NoError(t, runInit(context.Background(), []string{"-y"}, GlobalFlags{Quiet: true}))
	data, err = os.ReadFile(gitignore)
	require.NoError(t, err)
	assert.Contains(t, string(data), ".mongoseed/")
}

func TestInsideDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".mongoseed")
	assert.True(t, insideDir(dir, filepath.Join(dir, "project.yaml")))
	assert.False(t, insideDir(dir, filepath.Join(filepath.Dir(dir), "project.yaml")))
	assert.False(t, insideDir(dir, filepath.Join(dir+"-other", "project.yaml")))
}

func TestValidateListParams(t *testing.T) {
	ok := product.ListParams{SortOrder: "asc"}
	assert.NoError(t, validateListParams(ok))

	ok.Price, ok.SortBy, ok.SortOrder = "14.5", "currencyUnit", "desc"
	assert.NoError(t, validateListParams(ok))
}

func TestRedactURI(t *testing.T) {
	assert.Equal(t, "mongodb://localhost:27017", redactURI("mongodb://localhost:27017"))
	assert.Equal(t, "mongodb://app:xxxxx@db:27017/admin", redactURI("mongodb://app:pw@db:27017/admin"))
	assert.Equal(t, "<invalid uri>", redactURI("mongodb://%zz"))
}
