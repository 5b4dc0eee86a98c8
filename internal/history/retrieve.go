// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pdiddy/dimensions-go/internal/dsl"
	"github.com/pdiddy/dimensions-go/pkg/types"
)

// Entry is one stored query run.
type Entry struct {
	ID         int64     `json:"id" yaml:"id"`
	DSL        string    `json:"dsl" yaml:"dsl"`
	Scope      string    `json:"scope" yaml:"scope"`
	Topic      string    `json:"topic" yaml:"topic"`
	Where      string    `json:"where,omitempty" yaml:"where,omitempty"`
	ReturnCols string    `json:"return_cols" yaml:"return_cols"`
	Limit      int       `json:"limit" yaml:"limit"`
	ExecutedAt time.Time `json:"executed_at" yaml:"executed_at"`
	Rows       int       `json:"rows" yaml:"rows"`
	Total      int       `json:"total" yaml:"total"`
}

const entryColumns = `rowid, dsl, scope, topic, where_clause, return_cols, query_limit, executed_at, row_count, total_count`

// List returns the most recent entries, newest first. A non-positive n
// uses the store default.
func (s *Store) List(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM queries ORDER BY rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Search matches entries by topic or query text using FTS5, newest first.
func (s *Store) Search(ctx context.Context, text string, n int) ([]Entry, error) {
	if n <= 0 {
		n = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM queries
		 WHERE rowid IN (SELECT rowid FROM queries_fts WHERE queries_fts MATCH ?)
		 ORDER BY rowid DESC LIMIT ?`, text, n)
	if err != nil {
		return nil, fmt.Errorf("searching history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Get returns one entry and its stored result set.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, *types.ResultSet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM queries WHERE rowid = ?`, id)

	e, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, fmt.Errorf("history entry %d not found", id)
		}
		return nil, nil, fmt.Errorf("loading history entry: %w", err)
	}

	rs := &types.ResultSet{
		Scope:   e.Scope,
		Columns: dsl.ReturnColumns(e.ReturnCols),
		Rows:    []types.Row{},
		Total:   e.Total,
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM records WHERE query_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("loading history records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, nil, fmt.Errorf("scanning record: %w", err)
		}
		var r types.Row
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, nil, fmt.Errorf("parsing stored record: %w", err)
		}
		rs.Rows = append(rs.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return e, rs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		e          Entry
		where      sql.NullString
		executedAt string
	)
	if err := row.Scan(&e.ID, &e.DSL, &e.Scope, &e.Topic, &where,
		&e.ReturnCols, &e.Limit, &executedAt, &e.Rows, &e.Total); err != nil {
		return nil, err
	}
	if where.Valid {
		e.Where = where.String
	}
	if t, err := time.Parse(time.RFC3339, executedAt); err == nil {
		e.ExecutedAt = t
	}
	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
