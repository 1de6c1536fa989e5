package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"domfin/internal/core"
)

// BudgetFor resolves the effective monthly budget of a category for the
// month containing date. The budget history is sparse: a key means
// "this amount from that month forward until superseded", so the value
// at the latest key not after the target month wins. With no history at
// all the legacy flat budget applies; with history but no key yet in
// effect the budget simply did not exist and resolves to zero.
func BudgetFor(category core.Category, date time.Time) decimal.Decimal {
	if len(category.BudgetHistory) == 0 {
		return category.MonthlyBudget
	}

	target := core.MonthKey(date)
	best := ""
	for key := range category.BudgetHistory {
		if key <= target && key > best {
			best = key
		}
	}
	if best == "" {
		return decimal.Zero
	}
	return category.BudgetHistory[best]
}

// SetBudget records a budget for the month containing date and returns
// the updated category. The edit is authoritative from that month
// onward: every history key after it is discarded, erasing previously
// scheduled future changes. Callers that want to keep a future change
// must re-enter it.
func SetBudget(category core.Category, date time.Time, amount decimal.Decimal) core.Category {
	key := core.MonthKey(date)

	history := make(map[string]decimal.Decimal, len(category.BudgetHistory)+1)
	for k, v := range category.BudgetHistory {
		if k <= key {
			history[k] = v
		}
	}
	history[key] = amount

	category.BudgetHistory = history
	return category
}

// BudgetKeys returns the history keys in chronological order, mostly
// for display and tests.
func BudgetKeys(category core.Category) []string {
	keys := make([]string, 0, len(category.BudgetHistory))
	for k := range category.BudgetHistory {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
