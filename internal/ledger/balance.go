package ledger

import (
	"github.com/shopspring/decimal"

	"domfin/internal/core"
)

// nearZero is the threshold under which a computed balance collapses to
// exact zero, so repeated add/subtract cycles can never show "-0".
var nearZero = decimal.NewFromFloat(0.005)

// BalanceOf computes an account's current balance, in the account's own
// currency, from the full transaction log.
//
// Source-side transactions (accountId == account) contribute income,
// expense and transfer-out legs at face value. Destination-side
// transfers credit the recorded toAmount when present; transfers
// recorded before destination amounts existed fall back to converting
// the source leg through the base currency, mixing the leg's frozen
// rate with the current rate of the destination currency. That mix is
// an accepted backward-compatibility approximation, not a bug.
func BalanceOf(account core.Account, transactions []core.Transaction, rates core.RateTable) decimal.Decimal {
	balance := account.InitialBalance

	for _, t := range transactions {
		if t.AccountID == account.ID {
			switch t.Type {
			case core.Income:
				balance = balance.Add(t.Amount)
			case core.Expense:
				balance = balance.Sub(t.Amount)
			case core.Transfer:
				balance = balance.Sub(t.Amount)
			}
		}
		if t.IsTransferIn(account.ID) {
			balance = balance.Add(transferInAmount(t, account, rates))
		}
	}

	return normalizeZero(balance)
}

// transferInAmount resolves the destination-side credit of a transfer.
func transferInAmount(t core.Transaction, dst core.Account, rates core.RateTable) decimal.Decimal {
	if t.ToAmount != nil {
		return *t.ToAmount
	}

	// Legacy fallback: source leg -> base via the frozen rate, then
	// base -> destination currency via the current rate.
	inBase := t.Amount.Mul(t.ExchangeRate)

	destRate := decimal.New(1, 0)
	if r, ok := rates[dst.Currency]; ok && r.IsPositive() {
		destRate = r
	} else if dst.CurrentRate.IsPositive() {
		destRate = dst.CurrentRate
	}
	return inBase.DivRound(destRate, divPrecision)
}

func normalizeZero(d decimal.Decimal) decimal.Decimal {
	if d.Abs().LessThan(nearZero) {
		return decimal.Zero
	}
	return d
}
