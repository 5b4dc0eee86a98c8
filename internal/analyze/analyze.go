// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze computes frequency reports over an executed result
// set: most common journals, authors, countries, and institutions.
package analyze

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/dimensions-go/pkg/types"
)

// defaultTopN bounds report length when the caller does not specify one.
const defaultTopN = 10

// Count is one value/frequency pair in a report.
type Count struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// Report is a ranked frequency table.
type Report struct {
	Title  string  `json:"title" yaml:"title"`
	Label  string  `json:"label" yaml:"label"`
	Counts []Count `json:"counts" yaml:"counts"`
}

// ValueCounts tallies the values of one column across all rows and
// returns them ranked by descending count. Ties break lexicographically
// so the ranking is deterministic. Missing and empty values are skipped.
// A non-positive topN applies the default cap.
func ValueCounts(rs *types.ResultSet, column string, topN int) []Count {
	counts := make(map[string]int)
	for i := range rs.Rows {
		v := rs.Cell(i, column)
		if v == "" {
			continue
		}
		counts[v]++
	}
	return rank(counts, topN)
}

// TopJournals ranks journals by publication count.
func TopJournals(rs *types.ResultSet, topN int) Report {
	return Report{
		Title:  "Most common journals",
		Label:  "Journal",
		Counts: ValueCounts(rs, "journal.title", topN),
	}
}

// TopAuthors ranks authors by publication count. Authors are identified
// by researcher ID when present, otherwise by name.
func TopAuthors(rs *types.ResultSet, topN int) Report {
	counts := make(map[string]int)
	for _, a := range authorRecords(rs) {
		key := authorKey(a)
		if key == "" {
			continue
		}
		counts[key]++
	}
	return Report{
		Title:  "Publications per author",
		Label:  "Author",
		Counts: rank(counts, topN),
	}
}

// TopCountries ranks countries by publication count using each author's
// first listed affiliation.
func TopCountries(rs *types.ResultSet, topN int) Report {
	return affiliationReport(rs, "country", "Publications per country", "Country", topN)
}

// TopInstitutions ranks institutions by publication count using each
// author's first listed affiliation.
func TopInstitutions(rs *types.ResultSet, topN int) Report {
	return affiliationReport(rs, "name", "Publications per institution", "Institution", topN)
}

// ByName returns the named report, or an error listing the valid names.
func ByName(rs *types.ResultSet, name string, topN int) (Report, error) {
	switch strings.ToLower(name) {
	case "journals":
		return TopJournals(rs, topN), nil
	case "authors":
		return TopAuthors(rs, topN), nil
	case "countries":
		return TopCountries(rs, topN), nil
	case "institutions":
		return TopInstitutions(rs, topN), nil
	default:
		return Report{}, fmt.Errorf("unknown report %q: choose journals, authors, countries, or institutions", name)
	}
}

func affiliationReport(rs *types.ResultSet, field, title, label string, topN int) Report {
	counts := make(map[string]int)
	for _, a := range authorRecords(rs) {
		affs, ok := a["affiliations"].([]any)
		if !ok || len(affs) == 0 {
			continue
		}
		first, ok := affs[0].(map[string]any)
		if !ok {
			continue
		}
		v, _ := first[field].(string)
		if v == "" {
			continue
		}
		counts[v]++
	}
	return Report{Title: title, Label: label, Counts: rank(counts, topN)}
}

// authorRecords flattens the authors column: each row carries a list of
// author records with researcher ID, name parts, and affiliations.
func authorRecords(rs *types.ResultSet) []map[string]any {
	var out []map[string]any
	for _, row := range rs.Rows {
		authors, ok := row["authors"].([]any)
		if !ok {
			continue
		}
		for _, a := range authors {
			if m, ok := a.(map[string]any); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

func authorKey(a map[string]any) string {
	if id, ok := a["researcher_id"].(string); ok && id != "" {
		return id
	}
	first, _ := a["first_name"].(string)
	last, _ := a["last_name"].(string)
	return strings.TrimSpace(first + " " + last)
}

func rank(counts map[string]int, topN int) []Count {
	if topN <= 0 {
		topN = defaultTopN
	}
	out := make([]Count, 0, len(counts))
	for v, n := range counts {
		out = append(out, Count{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}
