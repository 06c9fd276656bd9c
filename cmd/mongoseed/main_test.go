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
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/mongoseed/internal/errors"
)

func TestRun_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"version", []string{"--version"}, errors.ExitSuccess},
		{"help", []string{"--help"}, errors.ExitSuccess},
		{"no command", nil, errors.ExitConfig},
		{"unknown command", []string{"migrate"}, errors.ExitInput},
		{"unknown global flag", []string{"--bogus"}, errors.ExitInput},
		{"command error", []string{"--json", "get"}, errors.ExitInput},
		{"reset without confirmation", []string{"reset"}, errors.ExitInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newHarness(t)
			assert.Equal(t, tt.want, run(tt.args))
		})
	}
}

func TestRun_DispatchesWithGlobals(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, errors.ExitSuccess, run([]string{"--json", "ensure", "--strategy", "atomic"}))

	var res map[string]any
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &res))
	assert.Equal(t, "atomic", res["strategy"])
	assert.Equal(t, true, res["created"])
}

func TestRun_ConfigFlag(t *testing.T) {
	h := newHarness(t)
	path := t.TempDir() + "/custom.yaml"
	cfg := DefaultConfig()
	cfg.Bootstrap.Collection = "custom"
	require.NoError(t, SaveConfig(cfg, path))

	require.Equal(t, errors.ExitSuccess, run([]string{"--config", path, "-q", "ensure"}))
	assert.Empty(t, h.out.String(), "quiet mode prints nothing")
	assert.Len(t, h.opened, 1)
	assert.Equal(t, "custom", h.opened[0].Bootstrap.Collection)

	assert.Equal(t, errors.ExitConfig, run([]string{"--config", path + ".missing", "ensure"}))
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		globals GlobalFlags
		level   string
		want    slog.Level
	}{
		{"default", GlobalFlags{}, "", slog.LevelInfo},
		{"env debug", GlobalFlags{}, "DEBUG", slog.LevelDebug},
		{"env warn", GlobalFlags{}, "warn", slog.LevelWarn},
		{"env error", GlobalFlags{}, "error", slog.LevelError},
		{"unknown env", GlobalFlags{}, "loud", slog.LevelInfo},
		{"verbose wins over env", GlobalFlags{Verbose: 1}, "error", slog.LevelDebug},
		{"quiet", GlobalFlags{Quiet: true}, "debug", slog.LevelError},
		{"quiet and verbose", GlobalFlags{Quiet: true, Verbose: 1}, "", slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.globals, tt.level)
			ctx := context.Background()

			assert.True(t, logger.Enabled(ctx, tt.want))
			if tt.want > slog.LevelDebug {
				assert.False(t, logger.Enabled(ctx, tt.want-4))
			}
		})
	}
}

func TestCommandsAreListed(t *testing.T) {
	assert.Len(t, commandOrder, len(commands))
	for _, name := range commandOrder {
		_, ok := commands[name]
		assert.True(t, ok, name)
	}
}
