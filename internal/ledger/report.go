package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"domfin/internal/core"
)

type (
	// CategoryRow is one actual-vs-budget line of a monthly report.
	CategoryRow struct {
		ID     string          `json:"id"`
		Name   string          `json:"name"`
		Value  decimal.Decimal `json:"value"`
		Budget decimal.Decimal `json:"budget"`
		Color  string          `json:"color"`
		Icon   string          `json:"icon"`
	}

	// Report aggregates one calendar month. All amounts are in the
	// base currency, normalized with each transaction's frozen rate
	// rather than the live table, so the report stays stable as rates
	// move.
	Report struct {
		Year  int `json:"year"`
		Month int `json:"month"` // 1-12

		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Net     decimal.Decimal `json:"net"`

		ExpenseRows   []CategoryRow   `json:"expenseRows"`
		IncomeRows    []CategoryRow   `json:"incomeRows"`
		ExpenseBudget decimal.Decimal `json:"expenseBudget"`
		IncomeBudget  decimal.Decimal `json:"incomeBudget"`

		// CategoryTotals keeps per-category sums regardless of type,
		// including the transfer sentinel, for drill-down views.
		CategoryTotals map[string]decimal.Decimal `json:"-"`
	}
)

// InMonth reports whether the transaction date falls within the given
// calendar month, evaluated in the date's own location. Month
// granularity makes the report insensitive to UTC day boundaries.
func InMonth(t core.Transaction, year int, month time.Month) bool {
	return t.Date.Year() == year && t.Date.Month() == month
}

// MonthlyReport filters transactions to one calendar month and produces
// income/expense sums plus per-category actual-vs-budget rows.
//
// Transfers are excluded from the income and expense sums but still
// accumulate under their sentinel category in CategoryTotals. Rows
// preserve the caller-supplied category order, which is the user's
// manual sort order.
func MonthlyReport(transactions []core.Transaction, categories []core.Category, year int, month time.Month) Report {
	report := Report{
		Year:           year,
		Month:          int(month),
		CategoryTotals: make(map[string]decimal.Decimal),
	}

	for _, t := range transactions {
		if !InMonth(t, year, month) {
			continue
		}

		inBase := t.Amount.Mul(t.ExchangeRate)

		switch t.Type {
		case core.Income:
			report.Income = report.Income.Add(inBase)
		case core.Expense:
			report.Expense = report.Expense.Add(inBase)
		}

		report.CategoryTotals[t.CategoryID] = report.CategoryTotals[t.CategoryID].Add(inBase)
	}
	report.Net = report.Income.Sub(report.Expense)

	asOf := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for _, cat := range categories {
		row := CategoryRow{
			ID:     cat.ID,
			Name:   cat.Name,
			Value:  report.CategoryTotals[cat.ID],
			Budget: BudgetFor(cat, asOf),
			Color:  cat.Color,
			Icon:   cat.Icon,
		}
		switch cat.Type {
		case core.Expense:
			report.ExpenseRows = append(report.ExpenseRows, row)
			report.ExpenseBudget = report.ExpenseBudget.Add(row.Budget)
		case core.Income:
			report.IncomeRows = append(report.IncomeRows, row)
			report.IncomeBudget = report.IncomeBudget.Add(row.Budget)
		}
	}

	return report
}
