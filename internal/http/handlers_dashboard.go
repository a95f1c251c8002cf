package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"budgetly/internal/log"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := ParseView(r.URL.Query(), s.dashboard.Now())
	if err != nil {
		s.writeError(w, r, err, log.OpRead, "")
		return
	}
	rep, _, err := s.dashboard.Report(r.Context(), userFrom(r.Context()), view)
	if err != nil {
		s.writeError(w, r, err, log.OpRead, "Could not load the dashboard.")
		return
	}
	NewJSONResponse().Data(rep).Write(w)
}

// handleExport renders the workbook into memory first so a failure can
// still be reported as JSON.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	view, err := ParseView(r.URL.Query(), s.dashboard.Now())
	if err != nil {
		s.writeError(w, r, err, log.OpExport, "")
		return
	}

	var buf bytes.Buffer
	if err := s.dashboard.Export(r.Context(), &buf, userFrom(r.Context()), view); err != nil {
		s.writeError(w, r, err, log.OpExport, "Could not export the dashboard.")
		return
	}

	filename := fmt.Sprintf("budgetly-%s-%d.xlsx", view.Mode, view.SelectedYear)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
