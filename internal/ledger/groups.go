package ledger

import (
	"github.com/shopspring/decimal"

	"domfin/internal/core"
)

// GroupAccounts partitions accounts by type. Records from before
// account types existed count as CURRENT.
func GroupAccounts(accounts []core.Account, typ core.AccountType) []core.Account {
	var group []core.Account
	for _, a := range accounts {
		if a.Type.OrDefault() == typ {
			group = append(group, a)
		}
	}
	return group
}

// GroupTotal values one account group in the base currency. Each
// balance converts at the live rate table, a deliberate divergence from
// the monthly report: present-day worth uses current market rates while
// historical reporting keeps frozen ones. Hidden accounts are skipped
// unless includeHidden is set.
func GroupTotal(accounts []core.Account, typ core.AccountType, transactions []core.Transaction, rates core.RateTable, includeHidden bool) decimal.Decimal {
	total := decimal.Zero
	for _, a := range GroupAccounts(accounts, typ) {
		if a.IsHidden && !includeHidden {
			continue
		}
		balance := BalanceOf(a, transactions, rates)
		total = total.Add(ToBase(balance, a.Currency, rates))
	}
	return total
}

// PortfolioTotal sums every account group in the base currency.
func PortfolioTotal(accounts []core.Account, transactions []core.Transaction, rates core.RateTable, includeHidden bool) decimal.Decimal {
	total := decimal.Zero
	for _, typ := range []core.AccountType{core.Current, core.Savings, core.Debt} {
		total = total.Add(GroupTotal(accounts, typ, transactions, rates, includeHidden))
	}
	return total
}
