package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"domfin/internal/core"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rates() core.RateTable {
	return core.RateTable{
		"USD":             d("41.5"),
		"EUR":             d("44"),
		core.BaseCurrency: d("1"),
	}
}

func TestToBase(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		currency string
		want     string
	}{
		{"base currency is identity", "123.45", core.BaseCurrency, "123.45"},
		{"known rate multiplies", "10", "USD", "415"},
		{"missing rate defaults to 1", "250", "PLN", "250"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToBase(d(tc.amount), tc.currency, rates())
			if !got.Equal(d(tc.want)) {
				t.Fatalf("ToBase(%s %s) = %s, want %s", tc.amount, tc.currency, got, tc.want)
			}
		})
	}
}

func TestFromBase(t *testing.T) {
	got := FromBase(d("415"), "USD", rates())
	if !got.Equal(d("10")) {
		t.Fatalf("FromBase(415, USD) = %s, want 10", got)
	}

	// Zero and negative table entries are unusable and fall back to 1.
	broken := core.RateTable{"USD": decimal.Zero}
	got = FromBase(d("415"), "USD", broken)
	if !got.Equal(d("415")) {
		t.Fatalf("FromBase with zero rate = %s, want 415", got)
	}
}

func TestRoundTrip(t *testing.T) {
	amount := d("1234.56")
	back := FromBase(ToBase(amount, "EUR", rates()), "EUR", rates())
	if !back.Equal(amount) {
		t.Fatalf("round trip changed amount: %s", back)
	}
}
