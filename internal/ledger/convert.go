// Package ledger derives balances, monthly reports, budget resolutions and
// group valuations from an entity snapshot. Every function is a pure
// projection of its arguments: nothing is cached, nothing is mutated,
// and each query re-scans the transaction list.
package ledger

import (
	"github.com/shopspring/decimal"

	"domfin/internal/core"
)

// divPrecision bounds non-terminating divisions (e.g. UAH→EUR at rate 3).
const divPrecision = 12

// ToBase converts an amount from the given currency into the base
// currency using the live rate table. The base currency itself and any
// currency without a usable rate convert at 1.
func ToBase(amount decimal.Decimal, currency string, rates core.RateTable) decimal.Decimal {
	if currency == core.BaseCurrency {
		return amount
	}
	return amount.Mul(rates.Rate(currency))
}

// FromBase converts a base-currency amount into the given currency by
// dividing with the same factor ToBase multiplies with.
func FromBase(amount decimal.Decimal, currency string, rates core.RateTable) decimal.Decimal {
	if currency == core.BaseCurrency {
		return amount
	}
	return amount.DivRound(rates.Rate(currency), divPrecision)
}
