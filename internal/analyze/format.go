// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// FormatTable writes a report as a human-readable table to w.
func FormatTable(r Report, w io.Writer) {
	fmt.Fprintf(w, "%s\n", r.Title)
	if len(r.Counts) == 0 {
		fmt.Fprintln(w, "  (no data)")
		return
	}

	width := len(r.Label)
	for _, c := range r.Counts {
		if len(c.Value) > width {
			width = len(c.Value)
		}
	}

	fmt.Fprintf(w, "%-*s  %s\n", width, r.Label, "Publications")
	fmt.Fprintln(w, strings.Repeat("-", width+14))
	for _, c := range r.Counts {
		fmt.Fprintf(w, "%-*s  %d\n", width, c.Value, c.Count)
	}
}

// FormatJSON writes a report as indented JSON to w.
func FormatJSON(r Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
