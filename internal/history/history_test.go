package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/dimensions-go/internal/dsl"
	"github.com/pdiddy/dimensions-go/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()
	store, err := NewStore(types.HistoryConfig{
		HistoryDir: filepath.Join(tmpDir, "history"),
		MaxResults: 20,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store, tmpDir
}

func executedQuery(t *testing.T, topic string, rows int) (*dsl.Query, *types.ResultSet) {
	t.Helper()
	q, err := dsl.NewQuery(dsl.Spec{Topic: topic, ReturnCols: "id+title+year", Limit: 50})
	if err != nil {
		t.Fatal(err)
	}
	rs := &types.ResultSet{
		Scope:   "publications",
		Columns: []string{"id", "title", "year"},
		Rows:    []types.Row{},
		Total:   rows * 3,
	}
	for i := 0; i < rows; i++ {
		rs.Rows = append(rs.Rows, types.Row{
			"id":    fmt.Sprintf("pub.%d", i),
			"title": fmt.Sprintf("%s paper %d", topic, i),
			"year":  float64(2020 + i),
		})
	}
	return q, rs
}

// --- Record / Get ---

func TestRecordAndGet(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	q, rs := executedQuery(t, "machine learning", 3)
	id, err := store.Record(ctx, q, rs)
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Fatal("Record returned zero id")
	}

	entry, stored, err := store.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Topic != "machine learning" {
		t.Errorf("Topic = %q", entry.Topic)
	}
	if entry.DSL != q.String() {
		t.Errorf("DSL = %q, want %q", entry.DSL, q.String())
	}
	if entry.Rows != 3 || entry.Total != 9 {
		t.Errorf("entry counts = %d/%d, want 3/9", entry.Rows, entry.Total)
	}
	if entry.ExecutedAt.IsZero() {
		t.Error("ExecutedAt not recorded")
	}

	if stored.Len() != 3 {
		t.Fatalf("stored rows = %d, want 3", stored.Len())
	}
	if got := stored.Cell(1, "title"); got != "machine learning paper 1" {
		t.Errorf("Cell(1, title) = %q", got)
	}
	// Column order reconstructed from the stored projection.
	want := []string{"id", "title", "year"}
	for i, col := range want {
		if stored.Columns[i] != col {
			t.Errorf("Columns = %v, want %v", stored.Columns, want)
			break
		}
	}
}

func TestGetMissing(t *testing.T) {
	store, _ := testStore(t)
	if _, _, err := store.Get(context.Background(), 999); err == nil {
		t.Error("Get(999) error = nil, want not found")
	}
}

func TestRecordEmptyResult(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	q, _ := executedQuery(t, "nothing", 0)
	rs := &types.ResultSet{Scope: "publications", Columns: []string{"id", "title", "year"}, Rows: []types.Row{}}
	id, err := store.Record(ctx, q, rs)
	if err != nil {
		t.Fatal(err)
	}

	entry, stored, err := store.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Rows != 0 {
		t.Errorf("entry rows = %d, want 0", entry.Rows)
	}
	if stored == nil || stored.Len() != 0 {
		t.Error("empty result should round-trip as a non-nil zero-row set")
	}
}

// --- List / Search ---

func TestListNewestFirst(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	for _, topic := range []string{"first", "second", "third"} {
		q, rs := executedQuery(t, topic, 1)
		if _, err := store.Record(ctx, q, rs); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := store.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Topic != "third" || entries[1].Topic != "second" {
		t.Errorf("entries not newest-first: %q, %q", entries[0].Topic, entries[1].Topic)
	}
}

func TestSearchByTopic(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	for _, topic := range []string{"quantum computing", "machine learning", "quantum sensing"} {
		q, rs := executedQuery(t, topic, 1)
		if _, err := store.Record(ctx, q, rs); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := store.Search(ctx, "quantum", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Topic != "quantum computing" && e.Topic != "quantum sensing" {
			t.Errorf("unexpected match %q", e.Topic)
		}
	}
}

func TestSearchNoMatches(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	q, rs := executedQuery(t, "machine learning", 1)
	if _, err := store.Record(ctx, q, rs); err != nil {
		t.Fatal(err)
	}

	entries, err := store.Search(ctx, "astrophysics", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
}

// --- Export ---

func TestExport(t *testing.T) {
	store, tmpDir := testStore(t)
	ctx := context.Background()

	q, rs := executedQuery(t, "graphene", 2)
	if _, err := store.Record(ctx, q, rs); err != nil {
		t.Fatal(err)
	}

	if err := store.ExportYAML(ctx); err != nil {
		t.Fatal(err)
	}
	if err := store.ExportJSON(ctx); err != nil {
		t.Fatal(err)
	}

	yamlData, err := os.ReadFile(filepath.Join(tmpDir, "history", "export", "export.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var yamlEntries []Entry
	if err := yaml.Unmarshal(yamlData, &yamlEntries); err != nil {
		t.Fatal(err)
	}
	if len(yamlEntries) != 1 || yamlEntries[0].Topic != "graphene" {
		t.Errorf("YAML export = %+v", yamlEntries)
	}

	jsonData, err := os.ReadFile(filepath.Join(tmpDir, "history", "export", "export.json"))
	if err != nil {
		t.Fatal(err)
	}
	var jsonEntries []Entry
	if err := json.Unmarshal(jsonData, &jsonEntries); err != nil {
		t.Fatal(err)
	}
	if len(jsonEntries) != 1 || jsonEntries[0].Rows != 2 {
		t.Errorf("JSON export = %+v", jsonEntries)
	}
}

// --- persistence across opens ---

func TestReopenPreservesHistory(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := types.HistoryConfig{HistoryDir: filepath.Join(tmpDir, "history")}
	ctx := context.Background()

	store, err := NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	q, rs := executedQuery(t, "persistence", 1)
	id, err := store.Record(ctx, q, rs)
	if err != nil {
		t.Fatal(err)
	}
	store.Close()

	store2, err := NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer store2.Close()

	entry, _, err := store2.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Topic != "persistence" {
		t.Errorf("Topic = %q after reopen", entry.Topic)
	}
}
