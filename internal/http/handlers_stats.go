package http

import (
	"net/http"
)

func (s *Server) handleStatsMonth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	year, month := parseYearMonth(r)

	summary, err := s.svc.Stats.MonthSummary(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
