package reports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
)

// table is a rendered report before encoding.
type table struct {
	headers []string
	rows    [][]string
	records any
}

// encode writes t as CSV, or its records as a JSON array.
func (t *table) encode(format ReportFormat) (io.Reader, error) {
	buf := &bytes.Buffer{}
	if format == ReportFormatJSON {
		enc := json.NewEncoder(buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(t.records); err != nil {
			return nil, fmt.Errorf("failed to encode report: %w", err)
		}
		return buf, nil
	}

	writer := csv.NewWriter(buf)
	if err := writer.Write(t.headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}
	for _, row := range t.rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush writer: %w", err)
	}
	return buf, nil
}
