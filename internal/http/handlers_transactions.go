package http

import (
	"log/slog"
	"net/http"

	"domfin/internal/core"
	"domfin/internal/ledger"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load snapshot", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// unfiltered unless a month is asked for
	if r.URL.Query().Get("year") == "" && r.URL.Query().Get("month") == "" {
		respondJSON(w, http.StatusOK, snap.Transactions)
		return
	}

	params := ParseMonthParams(r.URL.Query())
	filtered := make([]core.Transaction, 0)
	for _, t := range snap.Transactions {
		if ledger.InMonth(t, params.Year, params.Month) {
			filtered = append(filtered, t)
		}
	}
	respondJSON(w, http.StatusOK, filtered)
}

func (s *Server) handleSaveTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := decodeJSON(r, &tx); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, mismatch, err := s.service.SaveTransaction(r.Context(), tx)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	s.invalidateReports()

	resp := struct {
		Transaction core.Transaction `json:"transaction"`
		Warning     string           `json:"warning,omitempty"`
	}{Transaction: saved}
	if mismatch != nil {
		resp.Warning = mismatch.Error()
	}

	status := http.StatusCreated
	if tx.ID != "" {
		status = http.StatusOK
	}
	respondJSON(w, status, resp)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete transaction", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateReports()
	respondJSON(w, http.StatusNoContent, nil)
}
