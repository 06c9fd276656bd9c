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

// Package errors provides user-facing errors for the mongoseed CLI.
//
// A UserError carries three pieces of text (what failed, why, and how to
// fix it) plus the process exit code. Commands return UserErrors and main
// hands them to FatalError, which prints them in color or as JSON.
//
//	err := errors.NewNetworkError(
//	    "Cannot reach MongoDB",
//	    "No server answered at mongodb://localhost:27017 within 10s",
//	    "Start mongod or set MONGO_URI to a reachable server",
//	    underlyingErr,
//	)
//	fmt.Fprint(os.Stderr, err.Format(false))
//	// Error: Cannot reach MongoDB
//	// Cause: No server answered at mongodb://localhost:27017 within 10s
//	// Fix:   Start mongod or set MONGO_URI to a reachable server
//
// In JSON mode the same error is printed as
//
//	{
//	  "error": "Cannot reach MongoDB",
//	  "cause": "No server answered at mongodb://localhost:27017 within 10s",
//	  "fix": "Start mongod or set MONGO_URI to a reachable server",
//	  "exit_code": 3
//	}
//
// FromStorage translates errors from pkg/storage into UserErrors so that
// every command maps database failures onto the same exit codes.
//
// # Exit Codes
//
//   - ExitSuccess (0): success
//   - ExitConfig (1): missing or invalid configuration
//   - ExitDatabase (2): the database rejected an operation
//   - ExitNetwork (3): MongoDB unreachable or timed out
//   - ExitInput (4): invalid arguments
//   - ExitPermission (5): authentication failed or action not authorized
//   - ExitNotFound (6): requested product or collection does not exist
//   - ExitInternal (10): bugs
package errors

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes for different error categories.
const (
	ExitSuccess    = 0
	ExitConfig     = 1
	ExitDatabase   = 2
	ExitNetwork    = 3
	ExitInput      = 4
	ExitPermission = 5
	ExitNotFound   = 6

	// ExitInternal signals a bug that should be reported.
	ExitInternal = 10
)

// UserError is an error with enough context for the person running the
// command to act on it.
type UserError struct {
	// Message says what went wrong.
	Message string

	// Cause says why, when it is known.
	Cause string

	// Fix suggests the next step.
	Fix string

	ExitCode int

	// Err is the wrapped error, if any.
	Err error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func newUserError(code int, msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: code, Err: err}
}

// NewConfigError reports a missing or invalid .mongoseed/project.yaml,
// .env file or environment variable.
//
//	return errors.NewConfigError(
//	    "Cannot load mongoseed configuration",
//	    "No .mongoseed/project.yaml in the current directory",
//	    "Run 'mongoseed init' first",
//	    nil,
//	)
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitConfig, msg, cause, fix, err)
}

// NewDatabaseError reports an operation MongoDB rejected.
func NewDatabaseError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitDatabase, msg, cause, fix, err)
}

// NewNetworkError reports that MongoDB could not be reached.
func NewNetworkError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitNetwork, msg, cause, fix, err)
}

// NewInputError reports bad command-line input. It wraps nothing.
//
//	return errors.NewInputError(
//	    "Invalid sort order",
//	    "--sort-order must be asc or desc",
//	    "Use --sort-order desc",
//	)
func NewInputError(msg, cause, fix string) *UserError {
	return newUserError(ExitInput, msg, cause, fix, nil)
}

// NewPermissionError reports failed authentication or a missing role.
func NewPermissionError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitPermission, msg, cause, fix, err)
}

// NewNotFoundError reports a product or collection that does not exist.
func NewNotFoundError(msg, cause, fix string) *UserError {
	return newUserError(ExitNotFound, msg, cause, fix, nil)
}

// NewInternalError reports a bug.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitInternal, msg, cause, fix, err)
}

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format renders the error for a terminal: Error in bold red, Cause in
// yellow, Fix in green. Empty Cause and Fix lines are left out. Color is
// off when noColor is set or NO_COLOR is present in the environment.
//
// Format flips the global color.NoColor and restores it before returning.
func (e *UserError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// ErrorJSON is the --json form of a UserError.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		ExitCode: e.ExitCode,
	}
}

// ExitCodeOf returns the exit code for err: the code of the outermost
// UserError in its chain, ExitSuccess for nil and ExitInternal otherwise.
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ue *UserError
	if As(err, &ue) {
		return ue.ExitCode
	}
	return ExitInternal
}

// Write prints err to stderr, formatted or as JSON, and returns its exit
// code.
func Write(err error, jsonOutput bool) int {
	if err == nil {
		return ExitSuccess
	}

	var ue *UserError
	if !As(err, &ue) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInternal
	}
	if jsonOutput {
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		// Encode errors are ignored; the exit code is still returned.
		_ = enc.Encode(ue.ToJSON())
	} else {
		fmt.Fprint(os.Stderr, ue.Format(false))
	}
	return ue.ExitCode
}

// FatalError prints err via Write and exits with its code. A nil error
// returns without exiting.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}
	os.Exit(Write(err, jsonOutput))
}
