package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"domfin/internal/core"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps validation errors to 422 and everything else
// to 500 without leaking internals.
func respondDomainError(w http.ResponseWriter, err error) {
	for _, sentinel := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidType,
		core.ErrInvalidAccountType,
		core.ErrEmptyName,
		core.ErrEmptyCurrency,
		core.ErrMissingAccount,
		core.ErrSameAccount,
		core.ErrMissingDestination,
		core.ErrZeroDate,
		core.ErrInvalidRate,
	} {
		if errors.Is(err, sentinel) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	if errors.Is(err, core.ErrUnknownCategory) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, "internal error")
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month time.Month
}

// ParseMonthParams extracts year and month from query parameters,
// defaulting to the current month.
func ParseMonthParams(query url.Values) MonthParams {
	now := time.Now()
	params := MonthParams{
		Year:  now.Year(),
		Month: now.Month(),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			params.Month = time.Month(m)
		}
	}

	return params
}
