package reports

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store/storetest"
)

type mockReportStore struct {
	snapshots []*store.Snapshot
}

func (m *mockReportStore) ListSnapshots(ctx context.Context, f store.SnapshotFilter) ([]*store.Snapshot, error) {
	var results []*store.Snapshot
	for _, s := range m.snapshots {
		if f.Match(s) {
			results = append(results, s)
		}
	}
	return results, nil
}

func fixtures() *mockReportStore {
	snaps := []*store.Snapshot{
		storetest.Snapshot("c", store.DatasetScenario, "negative_cycle", 2*time.Hour),
		storetest.Snapshot("b", store.DatasetScenario, "negative_cycle", time.Hour),
		storetest.Snapshot("a", store.DatasetRandom, "", 0),
	}
	for _, s := range snaps {
		if err := s.Check(); err != nil {
			panic(err)
		}
	}
	return &mockReportStore{snapshots: snaps}
}

func TestSnapshotReport_CSV(t *testing.T) {
	r := NewSnapshotReport(fixtures())

	reader, err := r.Generate(context.Background(), ReportParams{
		Start: storetest.Base.Add(30 * time.Minute),
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	records, err := csv.NewReader(reader).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) != 3 { // Header + 2 rows
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if records[0][0] != "id" {
		t.Errorf("Expected header id, got %s", records[0][0])
	}
	if records[1][0] != "c" || records[2][0] != "b" {
		t.Errorf("Expected rows c, b; got %s, %s", records[1][0], records[2][0])
	}
	if records[1][7] != "0.5000" {
		t.Errorf("Expected density 0.5000, got %s", records[1][7])
	}
	if records[1][9] != "1" {
		t.Errorf("Expected 1 negative edge, got %s", records[1][9])
	}
}

func TestSnapshotReport_JSONFiltersDatasetType(t *testing.T) {
	r := NewSnapshotReport(fixtures())

	reader, err := r.Generate(context.Background(), ReportParams{
		DatasetType: store.DatasetRandom,
		Format:      ReportFormatJSON,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var rows []SnapshotRow
	if err := json.NewDecoder(reader).Decode(&rows); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "a" {
		t.Fatalf("Expected only snapshot a, got %+v", rows)
	}
	if rows[0].NodeCount != 3 || rows[0].Components != 1 {
		t.Errorf("Unexpected counts: %+v", rows[0])
	}
}

func TestScenarioReport(t *testing.T) {
	r := NewScenarioReport(fixtures())

	reader, err := r.Generate(context.Background(), ReportParams{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	records, err := csv.NewReader(reader).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if records[1][0] != "random" || records[2][1] != "negative_cycle" {
		t.Errorf("Unexpected ordering: %v", records)
	}
	if records[2][2] != "2" {
		t.Errorf("Expected 2 negative_cycle snapshots, got %s", records[2][2])
	}
	if records[2][3] != "2025-01-02T04:04:05Z" || records[2][4] != "2025-01-02T05:04:05Z" {
		t.Errorf("Unexpected first/last seen: %s %s", records[2][3], records[2][4])
	}
}

func TestNewReportGenerator(t *testing.T) {
	if _, err := NewReportGenerator("usage", &mockReportStore{}); err == nil {
		t.Error("Expected error for unknown report type")
	}
	g, err := NewReportGenerator(ReportTypeScenarios, &mockReportStore{})
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}
	if _, ok := g.(*ScenarioReport); !ok {
		t.Errorf("Expected *ScenarioReport, got %T", g)
	}

	if f, err := ParseFormat(""); err != nil || f != ReportFormatCSV {
		t.Errorf("Expected csv default, got %q, %v", f, err)
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Error("Expected error for xlsx")
	}
}
