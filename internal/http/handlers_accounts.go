package http

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"domfin/internal/core"
	"domfin/internal/ledger"
)

// accountView is an account with its computed balances attached.
type accountView struct {
	core.Account
	Balance       decimal.Decimal `json:"balance"`
	BalanceInBase decimal.Decimal `json:"balanceInBase"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load snapshot", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	views := make([]accountView, 0, len(snap.Accounts))
	for _, acc := range snap.Accounts {
		balance := ledger.BalanceOf(acc, snap.Transactions, snap.Rates)
		views = append(views, accountView{
			Account:       acc,
			Balance:       balance,
			BalanceInBase: ledger.ToBase(balance, acc.Currency, snap.Rates),
		})
	}

	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleSaveAccount(w http.ResponseWriter, r *http.Request) {
	var acc core.Account
	if err := decodeJSON(r, &acc); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := s.service.SaveAccount(r.Context(), acc)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	s.invalidateReports()
	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var acc core.Account
	if err := decodeJSON(r, &acc); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	acc.ID = r.PathValue("id")

	saved, err := s.service.SaveAccount(r.Context(), acc)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	s.invalidateReports()
	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteAccount(r.Context(), r.PathValue("id")); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete account", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateReports()
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleReorderAccounts(w http.ResponseWriter, r *http.Request) {
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

	if err := s.service.ReorderAccounts(r.Context(), req.IDs); err != nil {
		slog.ErrorContext(r.Context(), "Failed to reorder accounts", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// groupView is one account-type group with its converted total.
type groupView struct {
	Type     core.AccountType `json:"type"`
	Total    decimal.Decimal  `json:"total"`
	Accounts []accountView    `json:"accounts"`
}

func (s *Server) handleGroupTotals(w http.ResponseWriter, r *http.Request) {
	includeHidden := r.URL.Query().Get("includeHidden") == "true"

	snap, err := s.service.Snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load snapshot", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	groups := make([]groupView, 0, 3)
	for _, typ := range []core.AccountType{core.Current, core.Savings, core.Debt} {
		g := groupView{
			Type:     typ,
			Total:    ledger.GroupTotal(snap.Accounts, typ, snap.Transactions, snap.Rates, includeHidden),
			Accounts: []accountView{},
		}
		for _, acc := range ledger.GroupAccounts(snap.Accounts, typ) {
			if acc.IsHidden && !includeHidden {
				continue
			}
			balance := ledger.BalanceOf(acc, snap.Transactions, snap.Rates)
			g.Accounts = append(g.Accounts, accountView{
				Account:       acc,
				Balance:       balance,
				BalanceInBase: ledger.ToBase(balance, acc.Currency, snap.Rates),
			})
		}
		groups = append(groups, g)
	}

	respondJSON(w, http.StatusOK, struct {
		Groups []groupView     `json:"groups"`
		Total  decimal.Decimal `json:"total"`
	}{
		Groups: groups,
		Total:  ledger.PortfolioTotal(snap.Accounts, snap.Transactions, snap.Rates, includeHidden),
	})
}
