package http

import (
	"net/http"
)

func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	reference, err := parseDateParam(r, "reference", s.now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}

	period := s.budgets.PeriodFor(reference)
	writeJSON(w, http.StatusOK, toPeriodDTO(s.budgets.Kind(), period))
}

func (s *Server) handlePeriodReport(w http.ResponseWriter, r *http.Request) {
	reference, err := parseDateParam(r, "reference", s.now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := s.reports.PeriodSummary(r.Context(), reference)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}
