// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the dimensions-go client:
// the tabular ResultSet returned by DSL queries and the configuration
// structs consumed by the CLI and library layers.
package types

import (
	"fmt"
	"strings"
)

// Row is a single record returned by the Analytics API. Keys are field
// names as returned by the remote service; nested records (e.g. journal,
// authors) appear as nested maps and slices.
type Row map[string]any

// Field resolves a possibly dotted field path against the row
// (e.g. "journal.title" descends into the nested journal record).
// The second return value reports whether the path resolved.
func (r Row) Field(path string) (any, bool) {
	if v, ok := r[path]; ok {
		return v, true
	}

	parts := strings.Split(path, ".")
	var cur any = map[string]any(r)
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// ResultSet is the tabular result of an executed DSL query: rows are
// records, columns are the requested projection fields in request order.
type ResultSet struct {
	// Scope is the record type that was searched (e.g. "publications").
	Scope string `json:"scope" yaml:"scope"`

	// Columns lists the requested return fields in projection order.
	Columns []string `json:"columns" yaml:"columns"`

	// Rows holds the returned records. An executed query with no matches
	// has a non-nil, zero-length Rows slice.
	Rows []Row `json:"rows" yaml:"rows"`

	// Total is the remote-side total match count, which may exceed
	// len(Rows) when the query limit truncated the result.
	Total int `json:"total" yaml:"total"`

	// Warnings holds non-fatal messages reported by the remote service
	// alongside a successful response.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Len returns the number of rows in the result set.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Preview returns a copy of the result set truncated to the first n rows.
// A non-positive n returns an empty preview.
func (rs *ResultSet) Preview(n int) *ResultSet {
	out := &ResultSet{
		Scope:    rs.Scope,
		Columns:  append([]string(nil), rs.Columns...),
		Total:    rs.Total,
		Warnings: append([]string(nil), rs.Warnings...),
		Rows:     []Row{},
	}
	if n <= 0 {
		return out
	}
	if n > len(rs.Rows) {
		n = len(rs.Rows)
	}
	out.Rows = append(out.Rows, rs.Rows[:n]...)
	return out
}

// Cell returns the value at (row, col) formatted as a string. Missing
// fields and out-of-range rows return the empty string.
func (rs *ResultSet) Cell(row int, col string) string {
	if rs == nil || row < 0 || row >= len(rs.Rows) {
		return ""
	}
	v, ok := rs.Rows[row].Field(col)
	if !ok || v == nil {
		return ""
	}
	return formatValue(v)
}

// Strings returns the values of one column across all rows, formatted as
// strings. Missing fields yield empty strings so indices line up with Rows.
func (rs *ResultSet) Strings(col string) []string {
	if rs == nil {
		return nil
	}
	out := make([]string, len(rs.Rows))
	for i := range rs.Rows {
		out[i] = rs.Cell(i, col)
	}
	return out
}

// formatValue renders a decoded JSON value for tabular display. Floats
// that carry integral values (JSON numbers decode as float64) print
// without a fractional part.
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = formatValue(e)
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		if name, ok := t["title"].(string); ok {
			return name
		}
		if name, ok := t["name"].(string); ok {
			return name
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
