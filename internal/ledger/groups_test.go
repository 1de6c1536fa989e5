package ledger

import (
	"testing"

	"domfin/internal/core"
)

func TestGroupAccountsDefaultsToCurrent(t *testing.T) {
	accounts := []core.Account{
		{ID: "typed", Type: core.Savings},
		{ID: "untyped"}, // predates account types
	}
	group := GroupAccounts(accounts, core.Current)
	if len(group) != 1 || group[0].ID != "untyped" {
		t.Fatalf("current group = %+v, want the untyped account", group)
	}
}

func TestGroupTotalLiveRateValuation(t *testing.T) {
	accounts := []core.Account{
		uah("hryvnia", "1000"),
		{ID: "dollars", Name: "dollars", Currency: "USD", InitialBalance: d("100"), Type: core.Current, CurrentRate: d("39")},
	}
	// Live table rate 41.5 wins over the legacy per-account 39.
	got := GroupTotal(accounts, core.Current, nil, rates(), false)
	if !got.Equal(d("5150")) {
		t.Fatalf("group total = %s, want 1000 + 100*41.5 = 5150", got)
	}
}

func TestGroupTotalHiddenAccounts(t *testing.T) {
	hidden := uah("hidden", "700")
	hidden.IsHidden = true
	accounts := []core.Account{uah("visible", "300"), hidden}

	if got := GroupTotal(accounts, core.Current, nil, rates(), false); !got.Equal(d("300")) {
		t.Fatalf("default total = %s, want hidden excluded 300", got)
	}
	if got := GroupTotal(accounts, core.Current, nil, rates(), true); !got.Equal(d("1000")) {
		t.Fatalf("includeHidden total = %s, want 1000", got)
	}
}

func TestPortfolioTotal(t *testing.T) {
	savings := uah("savings", "200")
	savings.Type = core.Savings
	debt := uah("debt", "-50")
	debt.Type = core.Debt
	accounts := []core.Account{uah("current", "100"), savings, debt}

	got := PortfolioTotal(accounts, nil, rates(), false)
	if !got.Equal(d("250")) {
		t.Fatalf("portfolio total = %s, want 250", got)
	}
}
