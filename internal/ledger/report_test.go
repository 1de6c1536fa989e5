package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"domfin/internal/core"
)

func TestMonthlyReportScenario(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Income, "a1", "1000", march),
		tx(core.Expense, "a1", "300", march),
		// Outside the month, must be ignored.
		tx(core.Expense, "a1", "555", time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)),
	}
	txs[0].CategoryID = "inc"
	txs[1].CategoryID = "exp"

	report := MonthlyReport(txs, nil, 2024, time.March)
	if !report.Income.Equal(d("1000")) {
		t.Fatalf("income = %s, want 1000", report.Income)
	}
	if !report.Expense.Equal(d("300")) {
		t.Fatalf("expense = %s, want 300", report.Expense)
	}
	if !report.Net.Equal(d("700")) {
		t.Fatalf("net = %s, want 700", report.Net)
	}
}

func TestMonthlyReportUsesFrozenRate(t *testing.T) {
	usdIncome := tx(core.Income, "a1", "100", march)
	usdIncome.Currency = "USD"
	usdIncome.ExchangeRate = d("40") // frozen at creation, table says 41.5

	report := MonthlyReport([]core.Transaction{usdIncome}, nil, 2024, time.March)
	if !report.Income.Equal(d("4000")) {
		t.Fatalf("income = %s, want 4000 at the frozen rate", report.Income)
	}
}

func TestMonthlyReportExcludesTransfersFromTotals(t *testing.T) {
	transfer := tx(core.Transfer, "a1", "500", march)
	transfer.ToAccountID = "a2"
	transfer.CategoryID = core.TransferCategoryID

	report := MonthlyReport([]core.Transaction{transfer}, nil, 2024, time.March)
	if !report.Income.IsZero() || !report.Expense.IsZero() {
		t.Fatalf("transfers must not count as income/expense: %s / %s", report.Income, report.Expense)
	}
	// But the sentinel category still accumulates for drill-down.
	if got := report.CategoryTotals[core.TransferCategoryID]; !got.Equal(d("500")) {
		t.Fatalf("sentinel category total = %s, want 500", got)
	}
}

func TestMonthlyReportCategoryRows(t *testing.T) {
	cat := core.Category{
		ID: "g", Name: "Groceries", Type: core.Expense, Color: "#ef4444", Icon: "shopping-cart",
		BudgetHistory: map[string]decimal.Decimal{"2024-01": d("500")},
	}

	spend := tx(core.Expense, "a1", "450", time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC))
	spend.CategoryID = "g"

	report := MonthlyReport([]core.Transaction{spend}, []core.Category{cat}, 2024, time.January)
	if len(report.ExpenseRows) != 1 {
		t.Fatalf("expense rows = %d, want 1", len(report.ExpenseRows))
	}
	row := report.ExpenseRows[0]
	if !row.Value.Equal(d("450")) || !row.Budget.Equal(d("500")) {
		t.Fatalf("row = {value:%s budget:%s}, want {450 500}", row.Value, row.Budget)
	}
	if !report.ExpenseBudget.Equal(d("500")) {
		t.Fatalf("planned expense total = %s, want 500", report.ExpenseBudget)
	}
}

func TestMonthlyReportPreservesCategoryOrder(t *testing.T) {
	cats := []core.Category{
		{ID: "z", Name: "Zoo", Type: core.Expense},
		{ID: "a", Name: "Apartment", Type: core.Expense},
		{ID: "m", Name: "Salary", Type: core.Income},
	}
	report := MonthlyReport(nil, cats, 2024, time.March)

	if len(report.ExpenseRows) != 2 || report.ExpenseRows[0].ID != "z" || report.ExpenseRows[1].ID != "a" {
		t.Fatalf("expense rows out of caller order: %+v", report.ExpenseRows)
	}
	if len(report.IncomeRows) != 1 || report.IncomeRows[0].ID != "m" {
		t.Fatalf("income rows wrong: %+v", report.IncomeRows)
	}
	// Categories without transactions report zero value, not absence.
	if !report.ExpenseRows[0].Value.IsZero() {
		t.Fatalf("empty category value = %s, want 0", report.ExpenseRows[0].Value)
	}
}

func TestMonthlyReportRowsCrossCheckTotals(t *testing.T) {
	cats := []core.Category{
		{ID: "g", Name: "Groceries", Type: core.Expense},
		{ID: "t", Name: "Transport", Type: core.Expense},
	}
	t1 := tx(core.Expense, "a1", "120", march)
	t1.CategoryID = "g"
	t2 := tx(core.Expense, "a1", "80", march)
	t2.CategoryID = "t"

	report := MonthlyReport([]core.Transaction{t1, t2}, cats, 2024, time.March)

	sum := decimal.Zero
	for _, row := range report.ExpenseRows {
		sum = sum.Add(row.Value)
	}
	if !sum.Equal(report.Expense) {
		t.Fatalf("row sum %s != expense total %s", sum, report.Expense)
	}
}
