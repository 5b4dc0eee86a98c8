// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dsl

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/dimensions-go/pkg/types"
)

const maxCellWidth = 48

// FormatTable writes the result set as a human-readable table to w.
func FormatTable(rs *types.ResultSet, w io.Writer) {
	if rs.Len() == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	widths := make([]int, len(rs.Columns))
	for i, col := range rs.Columns {
		widths[i] = len(col)
	}
	cells := make([][]string, rs.Len())
	for r := range rs.Rows {
		cells[r] = make([]string, len(rs.Columns))
		for i, col := range rs.Columns {
			v := truncate(rs.Cell(r, col), maxCellWidth)
			cells[r][i] = v
			if len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}

	for i, col := range rs.Columns {
		fmt.Fprintf(w, "%-*s  ", widths[i], col)
	}
	fmt.Fprintln(w)
	total := 0
	for _, wd := range widths {
		total += wd + 2
	}
	fmt.Fprintln(w, strings.Repeat("-", total))

	for _, row := range cells {
		for i, v := range row {
			fmt.Fprintf(w, "%-*s  ", widths[i], v)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\n%d rows", rs.Len())
	if rs.Total > rs.Len() {
		fmt.Fprintf(w, " of %d total", rs.Total)
	}
	fmt.Fprintln(w)

	for _, warn := range rs.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

// FormatJSON writes the result set as indented JSON to w.
func FormatJSON(rs *types.ResultSet, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rs)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
