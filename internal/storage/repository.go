// Package storage persists the entity store in SQLite. It owns schema
// migrations and the on-load defaulting of fields older databases and
// backups predate; the engine always receives a normalized snapshot.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"domfin/internal/backup"
	"domfin/internal/core"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.seedIfEmpty(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed database: %w", err)
	}

	return repo, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// seedIfEmpty writes the default snapshot into a fresh database, the
// same bootstrap a first app launch performs.
func (r *Repository) seedIfEmpty(ctx context.Context) error {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if n > 0 {
		return nil
	}

	slog.InfoContext(ctx, "Empty database, seeding defaults")
	return r.SaveSnapshot(ctx, core.DefaultSnapshot())
}

// LoadSnapshot reads the full entity store. The result is normalized,
// so missing legacy fields never reach the engine.
func (r *Repository) LoadSnapshot(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot
	var err error

	if snap.Accounts, err = r.loadAccounts(ctx); err != nil {
		return snap, err
	}
	if snap.Categories, err = r.loadCategories(ctx); err != nil {
		return snap, err
	}
	if snap.Transactions, err = r.loadTransactions(ctx); err != nil {
		return snap, err
	}
	if snap.Rates, err = r.loadRates(ctx); err != nil {
		return snap, err
	}
	if snap.Settings, err = r.loadSettings(ctx); err != nil {
		return snap, err
	}

	return backup.Normalize(snap), nil
}

// SaveSnapshot transactionally replaces the whole store, used by the
// seed path and by backup import. Data volumes here are personal
// finance scale; a full rewrite is the simple and correct choice.
func (r *Repository) SaveSnapshot(ctx context.Context, snap core.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"transactions", "categories", "accounts", "rates", "settings"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, a := range snap.Accounts {
		if err := upsertAccountTx(ctx, tx, a, i); err != nil {
			return err
		}
	}
	for i, c := range snap.Categories {
		if err := upsertCategoryTx(ctx, tx, c, i); err != nil {
			return err
		}
	}
	for _, t := range snap.Transactions {
		if err := insertTransactionTx(ctx, tx, t); err != nil {
			return err
		}
	}
	for currency, rate := range snap.Rates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rates (currency, rate) VALUES (?, ?)`, currency, rate.String()); err != nil {
			return fmt.Errorf("insert rate %s: %w", currency, err)
		}
	}
	if err := saveSettingsTx(ctx, tx, snap.Settings); err != nil {
		return err
	}

	return tx.Commit()
}

// --- accounts ---

func (r *Repository) loadAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, currency, initial_balance, color, icon, type, current_rate, is_hidden
		FROM accounts ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		var initial, rate string
		var hidden int
		var typ string
		if err := rows.Scan(&a.ID, &a.Name, &a.Currency, &initial, &a.Color, &a.Icon, &typ, &rate, &hidden); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if a.InitialBalance, err = parseDecimal(initial); err != nil {
			return nil, fmt.Errorf("account %s initial balance: %w", a.ID, err)
		}
		if a.CurrentRate, err = parseDecimal(rate); err != nil {
			return nil, fmt.Errorf("account %s current rate: %w", a.ID, err)
		}
		a.Type = core.AccountType(typ)
		a.IsHidden = hidden != 0
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpsertAccount inserts or replaces one account, keeping its position
// in the user's manual order when it already exists.
func (r *Repository) UpsertAccount(ctx context.Context, a core.Account) error {
	order, err := r.nextSortOrder(ctx, "accounts", a.ID)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if err := upsertAccountTx(ctx, tx, a, order); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertAccountTx(ctx context.Context, tx *sql.Tx, a core.Account, order int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (id, name, currency, initial_balance, color, icon, type, current_rate, is_hidden, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			currency = excluded.currency,
			initial_balance = excluded.initial_balance,
			color = excluded.color,
			icon = excluded.icon,
			type = excluded.type,
			current_rate = excluded.current_rate,
			is_hidden = excluded.is_hidden`,
		a.ID, a.Name, a.Currency, a.InitialBalance.String(), a.Color, a.Icon,
		string(a.Type.OrDefault()), a.CurrentRate.String(), boolInt(a.IsHidden), order)
	if err != nil {
		return fmt.Errorf("upsert account %s: %w", a.ID, err)
	}
	return nil
}

// DeleteAccount removes the account and cascades to every transaction
// that names it as source. Destination-side transfers stay; their
// credit leg simply stops resolving.
func (r *Repository) DeleteAccount(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE account_id = ?`, id); err != nil {
		return fmt.Errorf("cascade transactions for account %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	return tx.Commit()
}

// ReorderAccounts persists the user's manual sort order.
func (r *Repository) ReorderAccounts(ctx context.Context, ids []string) error {
	return r.reorder(ctx, "accounts", ids)
}

// --- categories ---

func (r *Repository) loadCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, icon, color, monthly_budget, budget_history
		FROM categories ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		var budget, history, typ string
		if err := rows.Scan(&c.ID, &c.Name, &typ, &c.Icon, &c.Color, &budget, &history); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if c.MonthlyBudget, err = parseDecimal(budget); err != nil {
			return nil, fmt.Errorf("category %s budget: %w", c.ID, err)
		}
		if history != "" && history != "{}" {
			if err := json.Unmarshal([]byte(history), &c.BudgetHistory); err != nil {
				return nil, fmt.Errorf("category %s budget history: %w", c.ID, err)
			}
		}
		c.Type = core.TransactionType(typ)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *Repository) UpsertCategory(ctx context.Context, c core.Category) error {
	order, err := r.nextSortOrder(ctx, "categories", c.ID)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if err := upsertCategoryTx(ctx, tx, c, order); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertCategoryTx(ctx context.Context, tx *sql.Tx, c core.Category, order int) error {
	history := "{}"
	if len(c.BudgetHistory) > 0 {
		data, err := json.Marshal(c.BudgetHistory)
		if err != nil {
			return fmt.Errorf("marshal budget history for %s: %w", c.ID, err)
		}
		history = string(data)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO categories (id, name, type, icon, color, monthly_budget, budget_history, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			icon = excluded.icon,
			color = excluded.color,
			monthly_budget = excluded.monthly_budget,
			budget_history = excluded.budget_history`,
		c.ID, c.Name, string(c.Type), c.Icon, c.Color, c.MonthlyBudget.String(), history, order)
	if err != nil {
		return fmt.Errorf("upsert category %s: %w", c.ID, err)
	}
	return nil
}

// DeleteCategory removes only the category; its transactions keep their
// dangling category id and drop out of per-category rows.
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}

func (r *Repository) ReorderCategories(ctx context.Context, ids []string) error {
	return r.reorder(ctx, "categories", ids)
}

// --- transactions ---

func (r *Repository) loadTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, amount, currency, exchange_rate, account_id, to_account_id, to_amount, category_id, note, type
		FROM transactions ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var t core.Transaction
	var date, amount, rate, typ string
	var toAccount, toAmount, note sql.NullString
	if err := rows.Scan(&t.ID, &date, &amount, &t.Currency, &rate, &t.AccountID, &toAccount, &toAmount, &t.CategoryID, &note, &typ); err != nil {
		return t, fmt.Errorf("scan transaction: %w", err)
	}

	var err error
	if t.Date, err = time.Parse(time.RFC3339, date); err != nil {
		return t, fmt.Errorf("transaction %s date: %w", t.ID, err)
	}
	if t.Amount, err = parseDecimal(amount); err != nil {
		return t, fmt.Errorf("transaction %s amount: %w", t.ID, err)
	}
	if t.ExchangeRate, err = parseDecimal(rate); err != nil {
		return t, fmt.Errorf("transaction %s rate: %w", t.ID, err)
	}
	if toAccount.Valid {
		t.ToAccountID = toAccount.String
	}
	if toAmount.Valid {
		v, err := parseDecimal(toAmount.String)
		if err != nil {
			return t, fmt.Errorf("transaction %s toAmount: %w", t.ID, err)
		}
		t.ToAmount = &v
	}
	t.Note = note.String
	t.Type = core.TransactionType(typ)
	return t, nil
}

// SaveTransaction inserts a transaction or replaces the whole record;
// edits are whole-record replacements, never partial updates.
func (r *Repository) SaveTransaction(ctx context.Context, t core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if err := insertTransactionTx(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTransactionTx(ctx context.Context, tx *sql.Tx, t core.Transaction) error {
	var toAccount, toAmount, note any
	if t.ToAccountID != "" {
		toAccount = t.ToAccountID
	}
	if t.ToAmount != nil {
		toAmount = t.ToAmount.String()
	}
	if t.Note != "" {
		note = t.Note
	} else {
		note = ""
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, date, amount, currency, exchange_rate, account_id, to_account_id, to_amount, category_id, note, type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			amount = excluded.amount,
			currency = excluded.currency,
			exchange_rate = excluded.exchange_rate,
			account_id = excluded.account_id,
			to_account_id = excluded.to_account_id,
			to_amount = excluded.to_amount,
			category_id = excluded.category_id,
			note = excluded.note,
			type = excluded.type`,
		t.ID, t.Date.UTC().Format(time.RFC3339), t.Amount.String(), t.Currency,
		t.ExchangeRate.String(), t.AccountID, toAccount, toAmount, t.CategoryID, note, string(t.Type))
	if err != nil {
		return fmt.Errorf("save transaction %s: %w", t.ID, err)
	}
	return nil
}

// DeleteTransaction removes one record; no cascading effects.
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

// --- rates & settings ---

func (r *Repository) loadRates(ctx context.Context) (core.RateTable, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT currency, rate FROM rates`)
	if err != nil {
		return nil, fmt.Errorf("query rates: %w", err)
	}
	defer rows.Close()

	rates := make(core.RateTable)
	for rows.Next() {
		var currency, rate string
		if err := rows.Scan(&currency, &rate); err != nil {
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		d, err := parseDecimal(rate)
		if err != nil {
			return nil, fmt.Errorf("rate for %s: %w", currency, err)
		}
		rates[currency] = d
	}
	return rates, rows.Err()
}

// ReplaceRates swaps the whole rate table; user rate edits are always a
// full-table submit.
func (r *Repository) ReplaceRates(ctx context.Context, rates core.RateTable) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rates`); err != nil {
		return fmt.Errorf("clear rates: %w", err)
	}
	for currency, rate := range rates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rates (currency, rate) VALUES (?, ?)`, currency, rate.String()); err != nil {
			return fmt.Errorf("insert rate %s: %w", currency, err)
		}
	}
	return tx.Commit()
}

func (r *Repository) loadSettings(ctx context.Context) (core.Settings, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return core.Settings{}, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	var s core.Settings
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return s, fmt.Errorf("scan setting: %w", err)
		}
		switch key {
		case "numberFormat":
			s.NumberFormat = value
		case "theme":
			s.Theme = value
		}
	}
	return s, rows.Err()
}

func (r *Repository) SaveSettings(ctx context.Context, s core.Settings) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if err := saveSettingsTx(ctx, tx, s); err != nil {
		return err
	}
	return tx.Commit()
}

func saveSettingsTx(ctx context.Context, tx *sql.Tx, s core.Settings) error {
	for key, value := range map[string]string{"numberFormat": s.NumberFormat, "theme": s.Theme} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return fmt.Errorf("save setting %s: %w", key, err)
		}
	}
	return nil
}

// --- helpers ---

func (r *Repository) reorder(ctx context.Context, table string, ids []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for i, id := range ids {
		if _, err := tx.ExecContext(ctx,
			"UPDATE "+table+" SET sort_order = ? WHERE id = ?", i, id); err != nil {
			return fmt.Errorf("reorder %s %s: %w", table, id, err)
		}
	}
	return tx.Commit()
}

func (r *Repository) nextSortOrder(ctx context.Context, table, id string) (int, error) {
	var existing sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		"SELECT sort_order FROM "+table+" WHERE id = ?", id).Scan(&existing)
	if err == nil {
		return int(existing.Int64), nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("sort order lookup in %s: %w", table, err)
	}

	var max sql.NullInt64
	if err := r.db.QueryRowContext(ctx,
		"SELECT MAX(sort_order) FROM "+table).Scan(&max); err != nil {
		return 0, fmt.Errorf("max sort order in %s: %w", table, err)
	}
	return int(max.Int64) + 1, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
