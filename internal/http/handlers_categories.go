package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"domfin/internal/core"
)

func (s *Server) handleSaveCategory(w http.ResponseWriter, r *http.Request) {
	var cat core.Category
	if err := decodeJSON(r, &cat); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := s.service.SaveCategory(r.Context(), cat)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	s.invalidateReports()
	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var cat core.Category
	if err := decodeJSON(r, &cat); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cat.ID = r.PathValue("id")

	saved, err := s.service.SaveCategory(r.Context(), cat)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	s.invalidateReports()
	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete category", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateReports()
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleReorderCategories(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, http.StatusUnprocessableEntity, "ids cannot be empty")
		return
	}

	if err := s.service.ReorderCategories(r.Context(), req.IDs); err != nil {
		slog.ErrorContext(r.Context(), "Failed to reorder categories", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Month  string          `json:"month"` // "2006-01"
		Amount decimal.Decimal `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := time.Parse("2006-01", req.Month)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "month must look like 2006-01")
		return
	}
	if req.Amount.IsNegative() {
		respondError(w, http.StatusUnprocessableEntity, "amount cannot be negative")
		return
	}

	updated, err := s.service.SetCategoryBudget(r.Context(), r.PathValue("id"), date, req.Amount)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	s.invalidateReports()
	respondJSON(w, http.StatusOK, updated)
}
