package api

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/reports"
)

// handleReport streams GET /v1/reports/{type}?format=&from=&to=&dataset_type=&scenario_id=
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	reportType := reports.ReportType(chi.URLParam(r, "type"))
	gen, err := reports.NewReportGenerator(reportType, s.engine)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "unknown_report", err.Error())
		return
	}
	format, err := reports.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_format", err.Error())
		return
	}
	f, err := snapshotFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out, err := gen.Generate(r.Context(), reports.ReportParams{
		Start:       f.Since,
		End:         f.Until,
		DatasetType: f.DatasetType,
		ScenarioID:  f.ScenarioID,
		Format:      format,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.%s", reportType, time.Now().UTC().Format("20060102"), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if _, err := io.Copy(w, out); err != nil {
		s.logger.Error("failed_to_stream_report",
			zap.String("trace_id", getTraceID(r.Context())),
			zap.Error(err))
	}
}
