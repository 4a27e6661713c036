package reports

import (
	"context"
	"io"
	"time"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
)

type ReportType string

const (
	ReportTypeSnapshots ReportType = "snapshots"
	ReportTypeScenarios ReportType = "scenarios"
)

type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatJSON ReportFormat = "json"
)

// ContentType returns the MIME type of the format.
func (f ReportFormat) ContentType() string {
	if f == ReportFormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// ReportParams select the snapshots a report covers. Start is inclusive,
// End exclusive; zero values leave that side open.
type ReportParams struct {
	Start       time.Time
	End         time.Time
	DatasetType store.DatasetType
	ScenarioID  string
	Format      ReportFormat
}

func (p ReportParams) filter() store.SnapshotFilter {
	return store.SnapshotFilter{
		DatasetType: p.DatasetType,
		ScenarioID:  p.ScenarioID,
		Since:       p.Start,
		Until:       p.End,
	}
}

// ReportStore defines the interface for data access required by reports.
type ReportStore interface {
	ListSnapshots(ctx context.Context, f store.SnapshotFilter) ([]*store.Snapshot, error)
}

type Generator interface {
	Generate(ctx context.Context, params ReportParams) (io.Reader, error)
}
