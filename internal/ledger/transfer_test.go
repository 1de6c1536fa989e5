package ledger

import (
	"testing"

	"domfin/internal/core"
)

func acc(id, currency string) core.Account {
	return core.Account{ID: id, Name: id, Currency: currency, Type: core.Current, CurrentRate: d("1")}
}

func TestTransferDirection(t *testing.T) {
	cases := []struct {
		name string
		src  string
		dst  string
		want Direction
	}{
		{"foreign to base is sell", "USD", core.BaseCurrency, Sell},
		{"base to foreign is buy", core.BaseCurrency, "USD", Buy},
		{"foreign to foreign is buy", "USD", "EUR", Buy},
		{"base to base is buy", core.BaseCurrency, core.BaseCurrency, Buy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TransferDirection(acc("s", tc.src), acc("d", tc.dst))
			if got != tc.want {
				t.Fatalf("direction = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDeriveSellBuySymmetry(t *testing.T) {
	// Sell: 100 USD at 40 credits 4000 UAH.
	got := DestAmount(d("100"), d("40"), Sell)
	if !got.Equal(d("4000")) {
		t.Fatalf("sell dest = %s, want 4000", got)
	}
	// Buy: 4000 UAH at 40 credits 100 USD.
	got = DestAmount(d("4000"), d("40"), Buy)
	if !got.Equal(d("100")) {
		t.Fatalf("buy dest = %s, want 100", got)
	}
}

func TestDeriveInverses(t *testing.T) {
	for _, dir := range []Direction{Sell, Buy} {
		src := d("250")
		rate := d("41.5")
		dest := DestAmount(src, rate, dir)

		if got := SourceAmount(dest, rate, dir); !got.Equal(src) {
			t.Fatalf("dir %v: SourceAmount(%s) = %s, want %s", dir, dest, got, src)
		}
		if got := ImpliedRate(src, dest, dir); !got.Equal(rate) {
			t.Fatalf("dir %v: ImpliedRate = %s, want %s", dir, got, rate)
		}
	}
}

func TestDeriveZeroRate(t *testing.T) {
	if got := DestAmount(d("100"), d("0"), Buy); !got.IsZero() {
		t.Fatalf("buy with zero rate = %s, want 0", got)
	}
	if got := SourceAmount(d("100"), d("0"), Sell); !got.IsZero() {
		t.Fatalf("sell source with zero rate = %s, want 0", got)
	}
	if got := ImpliedRate(d("0"), d("100"), Buy); !got.IsZero() {
		t.Fatalf("implied rate with zero amount = %s, want 0", got)
	}
}

func TestReconcile(t *testing.T) {
	usd := acc("u", "USD")
	base := acc("b", core.BaseCurrency)

	cases := []struct {
		name     string
		src, dst core.Account
		source   string
		dest     string
		rate     string
		mismatch bool
	}{
		{"exact sell", usd, base, "100", "4000", "40", false},
		{"sell within one unit tolerance", usd, base, "100", "4000.90", "40", false},
		{"sell beyond tolerance", usd, base, "100", "4100", "40", true},
		{"exact buy", base, usd, "4000", "100", "40", false},
		{"buy beyond tolerance", base, usd, "4000", "150", "40", true},
		{"same currency never mismatches", base, acc("b2", core.BaseCurrency), "500", "999", "7", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := Reconcile(tc.src, tc.dst, d(tc.source), d(tc.dest), d(tc.rate))
			if tc.mismatch && m == nil {
				t.Fatal("expected a reconciliation mismatch")
			}
			if !tc.mismatch && m != nil {
				t.Fatalf("unexpected mismatch: %v", m)
			}
		})
	}
}

func TestMismatchError(t *testing.T) {
	m := Reconcile(acc("u", "USD"), acc("b", core.BaseCurrency), d("100"), d("4100"), d("40"))
	if m == nil {
		t.Fatal("expected mismatch")
	}
	if m.Direction != Sell {
		t.Fatalf("direction = %v, want Sell", m.Direction)
	}
	if m.Error() == "" {
		t.Fatal("mismatch must describe itself")
	}
}
