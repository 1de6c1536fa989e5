package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"domfin/internal/core"
)

// Direction of a cross-currency transfer. It decides which way the
// exchange rate is applied between the two legs.
type Direction int

const (
	// Sell: a foreign-currency source funds a base-currency
	// destination, so the destination amount is source times rate.
	Sell Direction = iota
	// Buy covers every other case (base or foreign source into a
	// foreign destination); the destination amount is source divided
	// by rate.
	Buy
)

// reconcileTolerance allows one base-currency unit of manual rounding
// between the entered destination amount and the recomputed one.
var reconcileTolerance = decimal.New(1, 0)

// IsMultiCurrency reports whether a transfer between the two accounts
// crosses currencies.
func IsMultiCurrency(src, dst core.Account) bool {
	return src.Currency != dst.Currency
}

// TransferDirection classifies a cross-currency transfer between the
// two accounts.
func TransferDirection(src, dst core.Account) Direction {
	if dst.Currency == core.BaseCurrency && src.Currency != core.BaseCurrency {
		return Sell
	}
	return Buy
}

// DestAmount derives the destination amount from the source amount and
// rate for the given direction.
func DestAmount(sourceAmount, rate decimal.Decimal, dir Direction) decimal.Decimal {
	if dir == Sell {
		return sourceAmount.Mul(rate)
	}
	if rate.IsZero() {
		return decimal.Zero
	}
	return sourceAmount.DivRound(rate, divPrecision)
}

// SourceAmount derives the source amount from the destination amount
// and rate; the inverse of DestAmount.
func SourceAmount(destAmount, rate decimal.Decimal, dir Direction) decimal.Decimal {
	if dir == Sell {
		if rate.IsZero() {
			return decimal.Zero
		}
		return destAmount.DivRound(rate, divPrecision)
	}
	return destAmount.Mul(rate)
}

// ImpliedRate derives the rate from both amounts. Exactly one of the
// three fields is ever recomputed after an edit; the caller picks the
// derivation matching the field the user did not touch.
func ImpliedRate(sourceAmount, destAmount decimal.Decimal, dir Direction) decimal.Decimal {
	if sourceAmount.IsZero() || destAmount.IsZero() {
		return decimal.Zero
	}
	if dir == Sell {
		return destAmount.DivRound(sourceAmount, divPrecision)
	}
	return sourceAmount.DivRound(destAmount, divPrecision)
}

// Mismatch describes a reconciliation failure on a cross-currency
// transfer. It is a warning: the caller may persist anyway after
// explicit confirmation.
type Mismatch struct {
	Direction Direction
	Expected  decimal.Decimal
	Actual    decimal.Decimal
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("transfer amounts do not match the rate: expected destination %s, got %s",
		m.Expected.StringFixed(2), m.Actual.StringFixed(2))
}

// Reconcile recomputes the expected destination amount from the source
// amount and rate and compares it against the entered one. A deviation
// above one base-currency unit returns a *Mismatch, nil otherwise.
// Same-currency transfers always reconcile.
func Reconcile(src, dst core.Account, sourceAmount, destAmount, rate decimal.Decimal) *Mismatch {
	if !IsMultiCurrency(src, dst) {
		return nil
	}

	dir := TransferDirection(src, dst)
	expected := DestAmount(sourceAmount, rate, dir)
	if expected.Sub(destAmount).Abs().GreaterThan(reconcileTolerance) {
		return &Mismatch{Direction: dir, Expected: expected, Actual: destAmount}
	}
	return nil
}
