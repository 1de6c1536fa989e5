package backup

import (
	"strings"

	"github.com/shopspring/decimal"

	"domfin/internal/core"
)

// Normalize backfills fields that older backups and stored snapshots
// predate: the rate table, account types and icons, per-account rates,
// category budgets and settings. This is pure data massaging at the
// persistence boundary; the engine never sees an un-normalized
// snapshot.
func Normalize(snap core.Snapshot) core.Snapshot {
	if len(snap.Rates) == 0 {
		snap.Rates = core.DefaultRates()
	}

	for i, a := range snap.Accounts {
		if a.Type == "" {
			a.Type = core.Current
		}
		if !a.CurrentRate.IsPositive() {
			a.CurrentRate = snap.Rates.Rate(a.Currency)
		}
		if a.Icon == "" {
			a.Icon = guessAccountIcon(a.Name)
		}
		snap.Accounts[i] = a
	}

	for i, c := range snap.Categories {
		// MonthlyBudget zero-values cleanly under decimal, nothing to
		// backfill; icons are the one gap older categories have.
		if c.Icon == "" {
			c.Icon = "more-horizontal"
		}
		snap.Categories[i] = c
	}

	for i, t := range snap.Transactions {
		if !t.ExchangeRate.IsPositive() {
			t.ExchangeRate = decimal.New(1, 0)
		}
		if t.Currency == "" {
			t.Currency = core.BaseCurrency
		}
		snap.Transactions[i] = t
	}

	if snap.Settings.NumberFormat == "" {
		snap.Settings.NumberFormat = core.DefaultSettings().NumberFormat
	}
	if snap.Settings.Theme == "" {
		snap.Settings.Theme = core.DefaultSettings().Theme
	}

	return snap
}

// guessAccountIcon picks an icon for accounts created before icons
// existed, using the same name heuristic the app migration used.
func guessAccountIcon(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "карт") || strings.Contains(lower, "card"):
		return "credit-card"
	case strings.Contains(lower, "банк") || strings.Contains(lower, "bank"):
		return "landmark"
	case strings.Contains(lower, "usd") || strings.Contains(lower, "eur"):
		return "banknote"
	default:
		return "wallet"
	}
}
