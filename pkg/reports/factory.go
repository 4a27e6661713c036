package reports

import (
	"fmt"
)

// NewReportGenerator creates a report generator based on the report type.
func NewReportGenerator(reportType ReportType, s ReportStore) (Generator, error) {
	switch reportType {
	case ReportTypeSnapshots, "":
		return NewSnapshotReport(s), nil
	case ReportTypeScenarios:
		return NewScenarioReport(s), nil
	default:
		return nil, fmt.Errorf("unknown report type: %s", reportType)
	}
}

// ParseFormat accepts "csv", "json", or empty for csv.
func ParseFormat(s string) (ReportFormat, error) {
	switch ReportFormat(s) {
	case "", ReportFormatCSV:
		return ReportFormatCSV, nil
	case ReportFormatJSON:
		return ReportFormatJSON, nil
	}
	return "", fmt.Errorf("unsupported report format: %s", s)
}
