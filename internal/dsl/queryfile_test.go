package dsl

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pdiddy/dimensions-go/pkg/types"
)

func TestQueryFileRoundTrip(t *testing.T) {
	q, err := NewQuery(Spec{
		Topic:      "machine learning",
		Where:      "year in [2020:2023]",
		ReturnCols: "id+title+year",
		Limit:      50,
	})
	if err != nil {
		t.Fatal(err)
	}

	rs := &types.ResultSet{
		Scope:   "publications",
		Columns: []string{"id", "title", "year"},
		Rows: []types.Row{
			{"id": "pub.1", "title": "A Paper", "year": float64(2021)},
		},
		Total: 137,
	}
	if _, err := q.Execute(context.Background(), &mockRunner{result: rs}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "query.yaml")
	if err := WriteQueryFile(path, q); err != nil {
		t.Fatal(err)
	}

	qf, err := ReadQueryFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if qf.DSL != q.String() {
		t.Errorf("DSL = %q, want %q", qf.DSL, q.String())
	}
	if qf.Summary.Rows != 1 || qf.Summary.Total != 137 {
		t.Errorf("summary = %+v, want rows 1 total 137", qf.Summary)
	}
	if qf.Results == nil || qf.Results.Len() != 1 {
		t.Fatalf("results not round-tripped: %+v", qf.Results)
	}
	if got := qf.Results.Cell(0, "title"); got != "A Paper" {
		t.Errorf("title cell = %q, want %q", got, "A Paper")
	}

	// The stored spec reconstructs an identical query.
	q2, err := NewQuery(qf.Query.ToSpec())
	if err != nil {
		t.Fatal(err)
	}
	if q2.String() != q.String() {
		t.Errorf("reloaded query string = %q, want %q", q2.String(), q.String())
	}
}

func TestWriteQueryFileUnexecuted(t *testing.T) {
	q, err := NewQuery(Spec{Topic: "x"})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "query.yaml")
	if err := WriteQueryFile(path, q); err != nil {
		t.Fatal(err)
	}

	qf, err := ReadQueryFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if qf.Results != nil {
		t.Error("unexecuted query saved a results stanza")
	}
	if qf.Summary.Rows != 0 {
		t.Errorf("summary rows = %d, want 0", qf.Summary.Rows)
	}
}

func TestReadQueryFileMissing(t *testing.T) {
	if _, err := ReadQueryFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
