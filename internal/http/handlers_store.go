package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"domfin/internal/core"
)

const maxImportBytes = 16 << 20 // 16 MiB

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load snapshot", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleUpdateRates(w http.ResponseWriter, r *http.Request) {
	var rates core.RateTable
	if err := decodeJSON(r, &rates); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(rates) == 0 {
		respondError(w, http.StatusUnprocessableEntity, "rates cannot be empty")
		return
	}

	if err := s.service.UpdateRates(r.Context(), rates); err != nil {
		respondDomainError(w, err)
		return
	}

	s.invalidateReports()
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings core.Settings
	if err := decodeJSON(r, &settings); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.service.SaveSettings(r.Context(), settings); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save settings", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, name, err := s.service.Export(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to export store", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(data) > maxImportBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "backup too large")
		return
	}

	snap, err := s.service.Import(r.Context(), data)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid backup file")
		return
	}

	s.invalidateReports()
	respondJSON(w, http.StatusOK, map[string]int{
		"accounts":     len(snap.Accounts),
		"categories":   len(snap.Categories),
		"transactions": len(snap.Transactions),
	})
}
