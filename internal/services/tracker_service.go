package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"domfin/internal/amqp"
	"domfin/internal/backup"
	"domfin/internal/core"
	"domfin/internal/ledger"
	"domfin/internal/storage"
)

// ChangePublisher notifies interested workers that the store changed.
type ChangePublisher interface {
	PublishChange(ctx context.Context, kind, entityID string) error
}

// TrackerService orchestrates ledger operations across SQLite and AMQP.
type TrackerService struct {
	storage   *storage.Repository
	publisher ChangePublisher
}

func NewTrackerService(storage *storage.Repository, publisher ChangePublisher) *TrackerService {
	return &TrackerService{
		storage:   storage,
		publisher: publisher,
	}
}

// Snapshot returns the full persisted state.
func (s *TrackerService) Snapshot(ctx context.Context) (core.Snapshot, error) {
	return s.storage.LoadSnapshot(ctx)
}

// SaveTransaction validates and persists a transaction, assigning an ID
// and freezing the exchange rate for new records. For transfers selling
// a foreign currency into the base one, the returned mismatch reports a
// source/destination amount disagreement beyond tolerance; it is a
// warning, the record is saved either way.
func (s *TrackerService) SaveTransaction(ctx context.Context, t core.Transaction) (core.Transaction, *ledger.Mismatch, error) {
	snap, err := s.storage.LoadSnapshot(ctx)
	if err != nil {
		return core.Transaction{}, nil, fmt.Errorf("load snapshot: %w", err)
	}

	if t.ID == "" {
		t.ID = core.NewID()
	}
	if t.Currency == "" {
		if acc, ok := snap.AccountByID(t.AccountID); ok {
			t.Currency = acc.Currency
		} else {
			t.Currency = core.BaseCurrency
		}
	}
	if !t.ExchangeRate.IsPositive() {
		t.ExchangeRate = snap.Rates.Rate(t.Currency)
	}
	if t.Date.IsZero() {
		t.Date = time.Now()
	}
	if t.Type == core.Transfer {
		t.CategoryID = core.TransferCategoryID
	}

	if err := t.Validate(); err != nil {
		return core.Transaction{}, nil, err
	}

	var mismatch *ledger.Mismatch
	if t.Type == core.Transfer && t.ToAmount != nil {
		src, srcOK := snap.AccountByID(t.AccountID)
		dst, dstOK := snap.AccountByID(t.ToAccountID)
		// The frozen rate equals the transfer rate only when selling a
		// foreign source into the base currency. In every other
		// direction it is the source leg's rate to base (1 for a base
		// source), which says nothing about the entered destination
		// amount, so those transfers are not checked.
		if srcOK && dstOK && ledger.TransferDirection(src, dst) == ledger.Sell {
			mismatch = ledger.Reconcile(src, dst, t.Amount, *t.ToAmount, t.ExchangeRate)
			if mismatch != nil {
				slog.WarnContext(ctx, "Transfer amounts do not reconcile",
					"transaction_id", t.ID,
					"expected", mismatch.Expected,
					"actual", mismatch.Actual)
			}
		}
	}

	if err := s.storage.SaveTransaction(ctx, t); err != nil {
		return core.Transaction{}, nil, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, amqp.ChangeTransaction, t.ID)
	return t, mismatch, nil
}

func (s *TrackerService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, amqp.ChangeTransaction, id)
	return nil
}

// SaveAccount persists an account. New accounts get an ID and freeze
// the current table rate for their currency.
func (s *TrackerService) SaveAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if a.ID == "" {
		a.ID = core.NewID()
	}
	a.Type = a.Type.OrDefault()
	if !a.CurrentRate.IsPositive() {
		snap, err := s.storage.LoadSnapshot(ctx)
		if err != nil {
			return core.Account{}, fmt.Errorf("load snapshot: %w", err)
		}
		a.CurrentRate = snap.Rates.Rate(a.Currency)
	}

	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	if err := s.storage.UpsertAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("save account: %w", err)
	}

	s.publish(ctx, amqp.ChangeAccount, a.ID)
	return a, nil
}

// DeleteAccount removes the account and every transaction that touches it.
func (s *TrackerService) DeleteAccount(ctx context.Context, id string) error {
	if err := s.storage.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.publish(ctx, amqp.ChangeAccount, id)
	return nil
}

func (s *TrackerService) ReorderAccounts(ctx context.Context, ids []string) error {
	if err := s.storage.ReorderAccounts(ctx, ids); err != nil {
		return fmt.Errorf("reorder accounts: %w", err)
	}
	s.publish(ctx, amqp.ChangeAccount, "")
	return nil
}

func (s *TrackerService) ReorderCategories(ctx context.Context, ids []string) error {
	if err := s.storage.ReorderCategories(ctx, ids); err != nil {
		return fmt.Errorf("reorder categories: %w", err)
	}
	s.publish(ctx, amqp.ChangeCategory, "")
	return nil
}

func (s *TrackerService) SaveCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID == "" {
		c.ID = core.NewID()
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.storage.UpsertCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	s.publish(ctx, amqp.ChangeCategory, c.ID)
	return c, nil
}

func (s *TrackerService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.storage.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.publish(ctx, amqp.ChangeCategory, id)
	return nil
}

// SetCategoryBudget records a budget for the month containing date,
// discarding any later history entries.
func (s *TrackerService) SetCategoryBudget(ctx context.Context, categoryID string, date time.Time, amount decimal.Decimal) (core.Category, error) {
	snap, err := s.storage.LoadSnapshot(ctx)
	if err != nil {
		return core.Category{}, fmt.Errorf("load snapshot: %w", err)
	}
	cat, ok := snap.CategoryByID(categoryID)
	if !ok {
		return core.Category{}, core.ErrUnknownCategory
	}

	updated := ledger.SetBudget(cat, date, amount)
	if err := s.storage.UpsertCategory(ctx, updated); err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}

	s.publish(ctx, amqp.ChangeCategory, categoryID)
	return updated, nil
}

// UpdateRates replaces the live rate table.
func (s *TrackerService) UpdateRates(ctx context.Context, rates core.RateTable) error {
	for currency, rate := range rates {
		if !rate.IsPositive() {
			return fmt.Errorf("rate for %s: %w", currency, core.ErrInvalidRate)
		}
	}
	if err := s.storage.ReplaceRates(ctx, rates); err != nil {
		return fmt.Errorf("replace rates: %w", err)
	}
	s.publish(ctx, amqp.ChangeRates, "")
	return nil
}

func (s *TrackerService) SaveSettings(ctx context.Context, settings core.Settings) error {
	if err := s.storage.SaveSettings(ctx, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Export serializes the full state for download.
func (s *TrackerService) Export(ctx context.Context) ([]byte, string, error) {
	snap, err := s.storage.LoadSnapshot(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("load snapshot: %w", err)
	}
	data, err := backup.Export(snap)
	if err != nil {
		return nil, "", err
	}
	return data, backup.ExportFileName(time.Now()), nil
}

// Import replaces the full state with a previously exported backup.
func (s *TrackerService) Import(ctx context.Context, data []byte) (core.Snapshot, error) {
	snap, err := backup.Import(data)
	if err != nil {
		return core.Snapshot{}, err
	}
	if err := s.storage.SaveSnapshot(ctx, snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.publish(ctx, amqp.ChangeImport, "")
	return snap, nil
}

// MonthlyReport aggregates one calendar month at frozen rates.
func (s *TrackerService) MonthlyReport(ctx context.Context, year int, month time.Month) (ledger.Report, error) {
	snap, err := s.storage.LoadSnapshot(ctx)
	if err != nil {
		return ledger.Report{}, fmt.Errorf("load snapshot: %w", err)
	}
	return ledger.MonthlyReport(snap.Transactions, snap.Categories, year, month), nil
}

func (s *TrackerService) publish(ctx context.Context, kind, entityID string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Change publisher not available, skipping message", "kind", kind)
		return
	}
	if err := s.publisher.PublishChange(ctx, kind, entityID); err != nil {
		// Workers resync on the next message; the local write already
		// succeeded, so never fail the request over this.
		slog.ErrorContext(ctx, "Failed to publish change message",
			"kind", kind, "entity_id", entityID, "error", err)
	}
}

// Close closes storage and the AMQP publisher when it owns one.
func (s *TrackerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if closer, ok := s.publisher.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close tracker service: %v", errs)
	}
	return nil
}
