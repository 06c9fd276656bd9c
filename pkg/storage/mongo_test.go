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

package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name             string
		err              error
		wantConnectivity bool
		wantPermission   bool
		wantIs           error
	}{
		{
			name:           "unauthorized command",
			err:            mongo.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized on productdb"},
			wantPermission: true,
		},
		{
			name:           "authentication failed in handshake",
			err:            fmt.Errorf("connection() error occurred during connection handshake: %w", driver.Error{Code: 18, Message: "Authentication failed."}),
			wantPermission: true,
		},
		{
			name:   "namespace exists",
			err:    mongo.CommandError{Code: 48, Name: "NamespaceExists", Message: "Collection already exists"},
			wantIs: ErrCollectionExists,
		},
		{
			name: "duplicate key",
			err: mongo.WriteException{WriteErrors: []mongo.WriteError{
				{Code: 11000, Message: "E11000 duplicate key error"},
			}},
			wantIs: ErrDuplicateKey,
		},
		{
			name:             "deadline exceeded",
			err:              context.DeadlineExceeded,
			wantConnectivity: true,
		},
		{
			name:             "server selection",
			err:              topology.ServerSelectionError{Wrapped: errors.New("connection refused")},
			wantConnectivity: true,
		},
		{
			name:             "client disconnected",
			err:              mongo.ErrClientDisconnected,
			wantConnectivity: true,
		},
		{
			name: "other command error",
			err:  mongo.CommandError{Code: 2, Name: "BadValue", Message: "bad"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify("op", tt.err)

			assert.Error(t, got)
			assert.Equal(t, tt.wantConnectivity, IsConnectivity(got), "IsConnectivity(%v)", got)
			assert.Equal(t, tt.wantPermission, IsPermission(got), "IsPermission(%v)", got)
			if tt.wantIs != nil {
				assert.ErrorIs(t, got, tt.wantIs)
			}
			assert.Contains(t, got.Error(), tt.err.Error(), "original message must be kept")
			assert.Contains(t, got.Error(), "op")
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	assert.NoError(t, classify("op", nil))
}

func TestTypedErrors_Unwrap(t *testing.T) {
	cause := errors.New("boom")

	ce := &ConnectivityError{Op: "ping", Err: cause}
	assert.ErrorIs(t, ce, cause)
	assert.Equal(t, "ping: database unreachable: boom", ce.Error())

	pe := &PermissionError{Op: "insert", Err: cause}
	assert.ErrorIs(t, pe, cause)
	assert.Equal(t, "insert: permission denied: boom", pe.Error())

	assert.True(t, IsConnectivity(fmt.Errorf("wrapped: %w", ce)))
	assert.False(t, IsPermission(fmt.Errorf("wrapped: %w", ce)))
}

func TestNewMongoBackend_RequiresDatabase(t *testing.T) {
	_, err := NewMongoBackend(context.Background(), MongoConfig{URI: "mongodb://localhost:27017"})
	assert.ErrorContains(t, err, "database name is required")
}
