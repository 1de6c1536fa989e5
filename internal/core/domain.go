package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income   TransactionType = "INCOME"
	Expense  TransactionType = "EXPENSE"
	Transfer TransactionType = "TRANSFER"

	Current AccountType = "CURRENT"
	Savings AccountType = "SAVINGS"
	Debt    AccountType = "DEBT"

	// BaseCurrency is the reporting currency every cross-currency value
	// is normalized into.
	BaseCurrency = "UAH"

	// TransferCategoryID is the sentinel category carried by transfers,
	// which have no real category of their own.
	TransferCategoryID = "transfer"
)

type (
	TransactionType string

	AccountType string

	// RateTable maps a currency code to its current rate against the
	// base currency. Used for present-day valuation only, never for
	// historical transaction amounts.
	RateTable map[string]decimal.Decimal

	// Account holds one real-world money container. InitialBalance is
	// the balance before any recorded transaction. CurrentRate is the
	// legacy per-account rate to the base currency; the rate table
	// supersedes it but it still serves as an edit-time default and as
	// the last fallback for old transfers.
	Account struct {
		ID             string          `json:"id"`
		Name           string          `json:"name"`
		Currency       string          `json:"currency"`
		InitialBalance decimal.Decimal `json:"initialBalance"`
		Color          string          `json:"color"`
		Icon           string          `json:"icon"`
		Type           AccountType     `json:"type"`
		CurrentRate    decimal.Decimal `json:"currentRate"`
		IsHidden       bool            `json:"isHidden,omitempty"`
	}

	// Category is an income or expense bucket. MonthlyBudget is the
	// legacy flat budget; BudgetHistory maps "YYYY-MM" keys to the
	// budget planned from that month forward until superseded.
	Category struct {
		ID            string                     `json:"id"`
		Name          string                     `json:"name"`
		Type          TransactionType            `json:"type"`
		Icon          string                     `json:"icon"`
		Color         string                     `json:"color"`
		MonthlyBudget decimal.Decimal            `json:"monthlyBudget"`
		BudgetHistory map[string]decimal.Decimal `json:"budgetHistory,omitempty"`
	}

	// Transaction is an immutable ledger event. Amount is always the
	// quantity moved at the source account, in the transaction's own
	// currency. ExchangeRate is frozen at creation time and never
	// recomputed, preserving historical reporting accuracy. For
	// transfers, ToAccountID names the destination and ToAmount, when
	// set, is the exact amount credited there.
	Transaction struct {
		ID           string           `json:"id"`
		Date         time.Time        `json:"date"`
		Amount       decimal.Decimal  `json:"amount"`
		Currency     string           `json:"currency"`
		ExchangeRate decimal.Decimal  `json:"exchangeRate"`
		AccountID    string           `json:"accountId"`
		ToAccountID  string           `json:"toAccountId,omitempty"`
		ToAmount     *decimal.Decimal `json:"toAmount,omitempty"`
		CategoryID   string           `json:"categoryId"`
		Note         string           `json:"note,omitempty"`
		Type         TransactionType  `json:"type"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyCurrency      = errors.New("empty currency")
	ErrMissingAccount     = errors.New("missing account reference")
	ErrSameAccount        = errors.New("transfer source and destination are the same account")
	ErrMissingDestination = errors.New("transfer has no destination account")
	ErrZeroDate           = errors.New("date cannot be zero")
	ErrInvalidRate        = errors.New("exchange rate must be positive")
	ErrUnknownCategory    = errors.New("unknown category")
)

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

func (t AccountType) Valid() bool {
	switch t {
	case Current, Savings, Debt:
		return true
	}
	return false
}

// OrDefault maps the unset account type to CURRENT, matching what the
// grouping logic assumes for records created before account types existed.
func (t AccountType) OrDefault() AccountType {
	if t == "" {
		return Current
	}
	return t
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(a.Currency) == "" {
		return ErrEmptyCurrency
	}
	if a.Type != "" && !a.Type.Valid() {
		return ErrInvalidAccountType
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() || c.Type == Transfer {
		return ErrInvalidType
	}
	if c.MonthlyBudget.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrMissingAccount
	}
	if t.Type == Transfer {
		if strings.TrimSpace(t.ToAccountID) == "" {
			return ErrMissingDestination
		}
		if t.ToAccountID == t.AccountID {
			return ErrSameAccount
		}
	}
	return nil
}

// IsTransferIn reports whether the transaction credits the given account
// as a transfer destination.
func (t Transaction) IsTransferIn(accountID string) bool {
	return t.Type == Transfer && t.ToAccountID == accountID
}

// Rate returns the table rate for a currency. A missing or non-positive
// rate resolves to 1, treating the amount as already base-denominated.
func (r RateTable) Rate(currency string) decimal.Decimal {
	if rate, ok := r[currency]; ok && rate.IsPositive() {
		return rate
	}
	return decimal.New(1, 0)
}

// Clone returns an independent copy so callers can hand snapshots out
// without aliasing the mutable table.
func (r RateTable) Clone() RateTable {
	out := make(RateTable, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
