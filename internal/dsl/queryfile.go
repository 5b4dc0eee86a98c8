// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dsl

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/dimensions-go/pkg/types"
)

// QueryFile is the on-disk representation of a query and its results.
// A query can be saved after execution and reloaded later without
// re-querying the API.
type QueryFile struct {
	Query   SpecParams       `yaml:"query"`
	DSL     string           `yaml:"dsl"`
	Results *types.ResultSet `yaml:"results,omitempty"`
	Summary QuerySummary     `yaml:"summary"`
}

// SpecParams stores the spec fields in a serializable form.
type SpecParams struct {
	Search     string `yaml:"search,omitempty"`
	Topic      string `yaml:"topic"`
	Where      string `yaml:"where,omitempty"`
	ReturnCols string `yaml:"return_cols,omitempty"`
	Limit      int    `yaml:"limit,omitempty"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Rows      int       `yaml:"rows"`
	Total     int       `yaml:"total"`
	Warnings  []string  `yaml:"warnings,omitempty"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves a query and its current results to a YAML file.
// An unexecuted query is saved with no results stanza.
func WriteQueryFile(path string, q *Query) error {
	spec := q.Spec()
	qf := QueryFile{
		Query: SpecParams{
			Search:     spec.Search,
			Topic:      spec.Topic,
			Where:      spec.Where,
			ReturnCols: spec.ReturnCols,
			Limit:      spec.Limit,
		},
		DSL: q.String(),
		Summary: QuerySummary{
			Timestamp: time.Now(),
		},
	}

	if rs, ok := q.Results(); ok {
		qf.Results = rs
		qf.Summary.Rows = rs.Len()
		qf.Summary.Total = rs.Total
		qf.Summary.Warnings = rs.Warnings
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// ToSpec converts stored SpecParams back into a Spec.
func (p SpecParams) ToSpec() Spec {
	return Spec{
		Search:     p.Search,
		Topic:      p.Topic,
		Where:      p.Where,
		ReturnCols: p.ReturnCols,
		Limit:      p.Limit,
	}
}
