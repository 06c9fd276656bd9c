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

// Package ui holds the terminal helpers shared by mongoseed commands.
//
// Every helper writes to Out, which defaults to stdout and can be pointed
// elsewhere with SetOutput. Color follows the --no-color flag and the
// NO_COLOR environment variable.
//
//   - red: errors
//   - yellow: warnings
//   - green: success
//   - cyan: info and counts
//   - bold: headers and labels
//   - dim: URIs and secondary detail
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// Out receives everything printed by this package.
var Out io.Writer = os.Stdout

// SetOutput redirects the helpers to w and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	prev := Out
	Out = w
	return prev
}

// InitColors turns color off when noColor is set. Call it right after
// flag parsing.
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// Success prints "✓ msg" in green.
func Success(msg string) {
	_, _ = Green.Fprintln(Out, "✓ "+msg)
}

func Successf(format string, args ...any) {
	_, _ = Green.Fprintf(Out, "✓ "+format+"\n", args...)
}

// Warning prints "⚠ msg" in yellow.
func Warning(msg string) {
	_, _ = Yellow.Fprintln(Out, "⚠ "+msg)
}

func Warningf(format string, args ...any) {
	_, _ = Yellow.Fprintf(Out, "⚠ "+format+"\n", args...)
}

// Error prints "✗ msg" in red.
func Error(msg string) {
	_, _ = Red.Fprintln(Out, "✗ "+msg)
}

func Errorf(format string, args ...any) {
	_, _ = Red.Fprintf(Out, "✗ "+format+"\n", args...)
}

// Info prints "ℹ msg" in cyan.
func Info(msg string) {
	_, _ = Cyan.Fprintln(Out, "ℹ "+msg)
}

func Infof(format string, args ...any) {
	_, _ = Cyan.Fprintf(Out, "ℹ "+format+"\n", args...)
}

// Header prints text in bold followed by an underline of the same width.
//
//	mongoseed status
//	================
func Header(text string) {
	_, _ = Bold.Fprintln(Out, text)
	_, _ = fmt.Fprintln(Out, strings.Repeat("=", len(text)))
}

func SubHeader(text string) {
	_, _ = Bold.Fprintln(Out, text)
}

// Field prints an aligned "label value" line, indented by two spaces.
func Field(label string, value any) {
	_, _ = fmt.Fprintf(Out, "  %-14s %v\n", Label(label+":"), value)
}

func Label(text string) string {
	return Bold.Sprint(text)
}

func DimText(text string) string {
	return Dim.Sprint(text)
}

func CountText(count int64) string {
	return Cyan.Sprint(count)
}

// YesNo renders a boolean as a green "yes" or a yellow "no".
func YesNo(v bool) string {
	if v {
		return Green.Sprint("yes")
	}
	return Yellow.Sprint("no")
}

// Table prints rows under an upper-cased header, columns separated by at
// least two spaces. Rows shorter than the header are padded.
func Table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.ToUpper(strings.Join(header, "\t")))
	for _, row := range rows {
		cells := make([]string, len(header))
		copy(cells, row)
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}
