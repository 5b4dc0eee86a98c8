// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dsl builds and executes Dimensions Analytics DSL queries.
// A Query is constructed once from a validated Spec, derives its DSL
// string deterministically, and delegates execution to an injected
// Runner. Results are exposed as a tabular ResultSet.
package dsl

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/dimensions-go/pkg/types"
)

// Defaults applied when optional Spec fields are left unset.
const (
	DefaultSearch     = "publications"
	DefaultReturnCols = "id+title"
	DefaultLimit      = 20
)

// Runner submits a DSL query string to the Analytics API over an
// authenticated session and returns the tabular result. The concrete
// implementation is internal/dimapi; tests substitute a canned double.
type Runner interface {
	Run(ctx context.Context, query string) (*types.ResultSet, error)
}

// Spec holds the structured query parameters. Topic is required; the
// remaining fields fall back to package defaults when zero.
type Spec struct {
	// Search is the record scope being searched (e.g. "publications", "grants").
	Search string

	// Topic is the free-text term matched against title and abstract.
	Topic string

	// Where is an optional filter expression in the Analytics DSL grammar
	// (e.g. `year in [2020:2023] and times_cited > 10`).
	Where string

	// ReturnCols is an optional plus-delimited projection
	// (e.g. "id+title+year+journal.title").
	ReturnCols string

	// Limit is the maximum number of records to return. Zero selects the
	// default; negative values are rejected.
	Limit int
}

// Query is an immutable DSL query with its execution state. Construct
// with NewQuery; fields are fixed thereafter. A Query is not safe for
// concurrent use.
type Query struct {
	spec    Spec
	text    string
	results *types.ResultSet
}

// NewQuery validates the spec, applies defaults, and derives the DSL
// string. It returns an InvalidArgumentError for a missing topic or a
// negative limit, and a GrammarError when topic or where cannot be
// embedded in the DSL string form.
func NewQuery(spec Spec) (*Query, error) {
	if strings.TrimSpace(spec.Topic) == "" {
		return nil, &InvalidArgumentError{Field: "topic", Reason: "must be a non-empty string"}
	}
	if spec.Limit < 0 {
		return nil, &InvalidArgumentError{Field: "limit", Reason: fmt.Sprintf("must be positive, got %d", spec.Limit)}
	}

	if spec.Search == "" {
		spec.Search = DefaultSearch
	}
	if spec.ReturnCols == "" {
		spec.ReturnCols = DefaultReturnCols
	}
	if spec.Limit == 0 {
		spec.Limit = DefaultLimit
	}

	if !embeddable(spec.Topic) {
		return nil, &GrammarError{Field: "topic", Value: spec.Topic}
	}
	if !embeddable(spec.Where) {
		return nil, &GrammarError{Field: "where", Value: spec.Where}
	}

	return &Query{spec: spec, text: buildQueryString(spec)}, nil
}

// Spec returns a copy of the validated spec with defaults applied.
func (q *Query) Spec() Spec { return q.spec }

// String returns the derived DSL query string. The string is a pure
// function of the spec: the same spec always yields the same string.
func (q *Query) String() string { return q.text }

// Execute submits the query through the runner and blocks until the
// remote call completes. On success the result set is stored and
// returned. On failure Execute returns an ExecutionError wrapping the
// cause and leaves any previously stored result set untouched. Execute
// never retries.
func (q *Query) Execute(ctx context.Context, runner Runner) (*types.ResultSet, error) {
	rs, err := runner.Run(ctx, q.text)
	if err != nil {
		return nil, &ExecutionError{Query: q.text, Err: err}
	}
	if rs == nil {
		return nil, &ExecutionError{Query: q.text, Err: fmt.Errorf("runner returned no result set")}
	}

	// The runner decodes the wire envelope but does not know the requested
	// projection; fill scope and column order from the spec.
	if rs.Scope == "" {
		rs.Scope = q.spec.Search
	}
	if len(rs.Columns) == 0 {
		rs.Columns = ReturnColumns(q.spec.ReturnCols)
	}

	q.results = rs
	return rs, nil
}

// Results returns the stored result set. The boolean is false until the
// first successful Execute. An executed query that matched nothing
// returns a non-nil set with zero rows, distinct from the unexecuted
// state.
func (q *Query) Results() (*types.ResultSet, bool) {
	if q.results == nil {
		return nil, false
	}
	return q.results, true
}

// buildQueryString assembles the DSL string form:
//
//	search <scope> in title_abstract_only for "<topic>" [where <clause>]
//	return <scope>[<cols>] limit <n>
//
// Token order and keyword casing follow the Analytics DSL grammar.
func buildQueryString(spec Spec) string {
	var b strings.Builder
	fmt.Fprintf(&b, `search %s in title_abstract_only for "%s"`, spec.Search, spec.Topic)
	if spec.Where != "" {
		fmt.Fprintf(&b, ` where %s`, spec.Where)
	}
	fmt.Fprintf(&b, ` return %s[%s] limit %d`, spec.Search, spec.ReturnCols, spec.Limit)
	return b.String()
}

// embeddable reports whether s can sit inside a double-quoted DSL string
// literal. The DSL has no escape convention this builder relies on, so
// quotes and backslashes are rejected outright.
func embeddable(s string) bool {
	return !strings.ContainsAny(s, `"\`)
}

// ReturnColumns splits a plus-delimited projection into its field names,
// dropping empty segments.
func ReturnColumns(cols string) []string {
	var out []string
	for _, c := range strings.Split(cols, "+") {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
