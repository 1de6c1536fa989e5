package http

import (
	"fmt"
	"log/slog"
	"net/http"
)

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	params := ParseMonthParams(r.URL.Query())
	key := fmt.Sprintf("%04d-%02d", params.Year, int(params.Month))

	if report, found := s.reportCache.Get(key); found {
		slog.DebugContext(r.Context(), "Report cache hit", "key", key)
		respondJSON(w, http.StatusOK, report)
		return
	}

	report, err := s.service.MonthlyReport(r.Context(), params.Year, params.Month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to build monthly report",
			"year", params.Year, "month", int(params.Month), "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.reportCache.Set(key, report)
	respondJSON(w, http.StatusOK, report)
}
