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
	"fmt"
	"strings"
)

// maxDatabaseNameLen is the server limit on database name length in bytes.
const maxDatabaseNameLen = 63

// ValidateDatabaseName reports whether MongoDB accepts name as a database
// name.
func ValidateDatabaseName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("database name is required")
	case len(name) > maxDatabaseNameLen:
		return fmt.Errorf("database name %q is longer than %d bytes", name, maxDatabaseNameLen)
	}
	if i := strings.IndexAny(name, "/\\. \"$*<>:|?\x00"); i >= 0 {
		return fmt.Errorf("database name %q contains forbidden character %q", name, name[i])
	}
	return nil
}

// ValidateCollectionName reports whether MongoDB accepts name as a
// user collection name.
func ValidateCollectionName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("collection name is required")
	case strings.HasPrefix(name, "system."):
		return fmt.Errorf("collection name %q uses the reserved system. prefix", name)
	case strings.ContainsAny(name, "$\x00"):
		return fmt.Errorf("collection name %q contains $ or a NUL byte", name)
	}
	return nil
}
