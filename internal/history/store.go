// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists executed queries and their results in a
// local SQLite database, with full-text search over query text.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/dimensions-go/internal/dsl"
	"github.com/pdiddy/dimensions-go/pkg/types"
)

const (
	indexDir  = "index"
	exportDir = "export"
	dbFile    = "dimensions.db"
)

// Store manages the query history SQLite database.
type Store struct {
	db         *sql.DB
	historyDir string
	maxResults int
}

// NewStore opens or creates the history database at
// historyDir/index/dimensions.db, creating the schema if needed.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.HistoryDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		historyDir: cfg.HistoryDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS queries (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			dsl TEXT NOT NULL,
			scope TEXT NOT NULL,
			topic TEXT NOT NULL,
			where_clause TEXT,
			return_cols TEXT,
			query_limit INTEGER,
			executed_at TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			total_count INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_queries_executed_at ON queries(executed_at)`,
		`CREATE TABLE IF NOT EXISTS records (
			query_id INTEGER NOT NULL REFERENCES queries(rowid) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (query_id, position)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='queries_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE queries_fts USING fts5(topic, dsl, content=queries, content_rowid=rowid)`,
			`CREATE TRIGGER queries_ai AFTER INSERT ON queries BEGIN
				INSERT INTO queries_fts(rowid, topic, dsl) VALUES (new.rowid, new.topic, new.dsl);
			END`,
			`CREATE TRIGGER queries_ad AFTER DELETE ON queries BEGIN
				INSERT INTO queries_fts(queries_fts, rowid, topic, dsl) VALUES('delete', old.rowid, old.topic, old.dsl);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Record stores an executed query and its result rows in one
// transaction, returning the new history entry ID.
func (s *Store) Record(ctx context.Context, q *dsl.Query, rs *types.ResultSet) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	spec := q.Spec()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO queries (dsl, scope, topic, where_clause, return_cols, query_limit, executed_at, row_count, total_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.String(), spec.Search, spec.Topic, spec.Where, spec.ReturnCols, spec.Limit,
		time.Now().UTC().Format(time.RFC3339), rs.Len(), rs.Total,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting query: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading query id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (query_id, position, data) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rs.Rows {
		data, err := json.Marshal(row)
		if err != nil {
			return 0, fmt.Errorf("marshaling row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, id, i, string(data)); err != nil {
			return 0, fmt.Errorf("inserting row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return id, nil
}
