// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// maxValueRunes bounds how much of a field value the text report
// shows; the JSON and CBOR reports are never truncated.
const maxValueRunes = 60

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// renderParseReport writes the human-readable report. Styling is
// applied only to headings so that the tab-aligned columns keep their
// widths.
func renderParseReport(w io.Writer, report *parseReport, styled bool) error {
	heading := func(text string) string {
		if styled {
			return headingStyle.Render(text)
		}
		return text
	}
	label := func(text string) string {
		if styled {
			return labelStyle.Render(text)
		}
		return text
	}

	var out strings.Builder
	fmt.Fprintf(&out, "%s %s (%s)\n", label("source:  "), report.Source, humanize.IBytes(uint64(report.Bytes)))
	fmt.Fprintf(&out, "%s %s\n", label("boundary:"), report.Boundary)

	fmt.Fprintf(&out, "\n%s (%s)\n", heading("Fields"), humanize.Comma(int64(len(report.Fields))))
	table := tabwriter.NewWriter(&out, 0, 4, 2, ' ', 0)
	for _, field := range report.Fields {
		for i, value := range field.Values {
			name := field.Name
			if i > 0 {
				name = ""
			}
			fmt.Fprintf(table, "  %s\t%s\n", name, displayValue(value))
		}
	}
	if err := table.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(&out, "\n%s (%s)\n", heading("Files"), humanize.Comma(int64(len(report.Files))))
	table = tabwriter.NewWriter(&out, 0, 4, 2, ' ', 0)
	for _, file := range report.Files {
		fmt.Fprintf(table, "  %s\t%s\t%s\t%s\t%s\n",
			file.Name, displayValue(file.Filename), file.ContentType,
			humanize.IBytes(uint64(file.Size)), file.Digest.String()[:16])
		if file.Stored != "" {
			fmt.Fprintf(table, "  \t-> %s\t%s\t%s\t\n",
				file.Stored, file.Compression, humanize.IBytes(uint64(file.StoredSize)))
		}
	}
	if err := table.Flush(); err != nil {
		return err
	}
	if report.Extracted != "" {
		fmt.Fprintf(&out, "\n%s %s\n", label("extracted:"), report.Extracted)
	}

	_, err := io.WriteString(w, out.String())
	return err
}

// displayValue quotes values that would disturb the table (control
// characters, surrounding space, emptiness) and truncates long ones.
func displayValue(value string) string {
	runes := []rune(value)
	truncated := len(runes) > maxValueRunes
	if truncated {
		value = string(runes[:maxValueRunes])
	}
	needsQuote := value == "" || strings.TrimSpace(value) != value ||
		strings.IndexFunc(value, func(r rune) bool { return unicode.IsControl(r) || r == unicode.ReplacementChar }) >= 0
	if needsQuote {
		value = strconv.Quote(value)
	}
	if truncated {
		value += "…"
	}
	return value
}
