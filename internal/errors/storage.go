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

package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/kraklabs/mongoseed/pkg/storage"
)

// As is errors.As from the standard library, re-exported so callers that
// import this package under the name errors keep access to it.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Is is errors.Is from the standard library.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// FromStorage maps an error returned by a storage.Backend onto a
// UserError. action completes the sentence "Cannot ...", for example
// "bootstrap collection products". UserErrors pass through untouched.
func FromStorage(action string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UserError
	if As(err, &ue) {
		return ue
	}

	msg := "Cannot " + action

	var perm *storage.PermissionError
	var conn *storage.ConnectivityError
	switch {
	case As(err, &perm):
		return NewPermissionError(msg,
			fmt.Sprintf("MongoDB refused %s: %v", perm.Op, perm.Err),
			"Check the user and password in MONGO_URI and that the user has readWrite on the database",
			err)
	case As(err, &conn):
		return NewNetworkError(msg,
			fmt.Sprintf("MongoDB did not answer during %s: %v", conn.Op, conn.Err),
			"Check that mongod is running and MONGO_URI points at it",
			err)
	case Is(err, storage.ErrNotFound):
		return &UserError{
			Message:  msg,
			Cause:    err.Error(),
			Fix:      "Run 'mongoseed status' to see what exists",
			ExitCode: ExitNotFound,
			Err:      err,
		}
	case Is(err, storage.ErrCollectionExists):
		return NewDatabaseError(msg,
			"The collection was created by another process during this run",
			"Run the command again, or use --strategy atomic for concurrent runs",
			err)
	case Is(err, storage.ErrClosed):
		return NewInternalError(msg,
			"The database connection was already closed",
			"This is a bug. Please report it with the command you ran",
			err)
	}
	return NewDatabaseError(msg, err.Error(), "Check the MongoDB server logs for details", err)
}
