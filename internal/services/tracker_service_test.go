package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"domfin/internal/amqp"
	"domfin/internal/core"
	"domfin/internal/storage"
)

type fakePublisher struct {
	kinds []string
	ids   []string
	err   error
}

func (f *fakePublisher) PublishChange(_ context.Context, kind, entityID string) error {
	f.kinds = append(f.kinds, kind)
	f.ids = append(f.ids, entityID)
	return f.err
}

func newTestService(t *testing.T) (*TrackerService, *fakePublisher) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	pub := &fakePublisher{}
	return NewTrackerService(repo, pub), pub
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSaveTransaction_NewRecord(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	saved, mismatch, err := svc.SaveTransaction(ctx, core.Transaction{
		Type:       core.Expense,
		AccountID:  "a4", // USD account from seed data
		CategoryID: "c1",
		Amount:     d("100"),
		Date:       time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("SaveTransaction() error = %v", err)
	}
	if mismatch != nil {
		t.Fatalf("SaveTransaction() mismatch = %v, want nil", mismatch)
	}

	if saved.ID == "" {
		t.Error("new transaction should get an ID")
	}
	if saved.Currency != "USD" {
		t.Errorf("Currency = %q, want USD from the account", saved.Currency)
	}
	if !saved.ExchangeRate.Equal(d("41.5")) {
		t.Errorf("ExchangeRate = %s, want frozen table rate 41.5", saved.ExchangeRate)
	}

	if len(pub.kinds) != 1 || pub.kinds[0] != amqp.ChangeTransaction {
		t.Errorf("published kinds = %v, want [%s]", pub.kinds, amqp.ChangeTransaction)
	}
	if pub.ids[0] != saved.ID {
		t.Errorf("published entity id = %q, want %q", pub.ids[0], saved.ID)
	}

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.Transactions) != 1 {
		t.Fatalf("store has %d transactions, want 1", len(snap.Transactions))
	}
}

func TestSaveTransaction_FrozenRateSurvivesRateChange(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	saved, _, err := svc.SaveTransaction(ctx, core.Transaction{
		Type:       core.Expense,
		AccountID:  "a4",
		CategoryID: "c1",
		Amount:     d("100"),
		Date:       time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("SaveTransaction() error = %v", err)
	}

	if err := svc.UpdateRates(ctx, core.RateTable{"USD": d("45"), core.BaseCurrency: d("1")}); err != nil {
		t.Fatalf("UpdateRates() error = %v", err)
	}

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	for _, tx := range snap.Transactions {
		if tx.ID == saved.ID && !tx.ExchangeRate.Equal(d("41.5")) {
			t.Errorf("stored rate = %s, want the frozen 41.5", tx.ExchangeRate)
		}
	}
}

func TestSaveTransaction_TransferMismatchIsWarning(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	// a4 is USD, a1 is the base currency. 100 USD at rate 41.5 should
	// arrive as 4150; claiming 4000 is off by more than the tolerance.
	declared := d("4000")
	saved, mismatch, err := svc.SaveTransaction(ctx, core.Transaction{
		Type:        core.Transfer,
		AccountID:   "a4",
		ToAccountID: "a1",
		Amount:      d("100"),
		ToAmount:    &declared,
		Date:        time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("SaveTransaction() error = %v", err)
	}
	if mismatch == nil {
		t.Fatal("expected a reconciliation mismatch")
	}
	if !mismatch.Expected.Equal(d("4150")) {
		t.Errorf("mismatch.Expected = %s, want 4150", mismatch.Expected)
	}

	if saved.CategoryID != core.TransferCategoryID {
		t.Errorf("CategoryID = %q, want the transfer sentinel", saved.CategoryID)
	}

	// the record is still persisted and announced
	if len(pub.kinds) == 0 {
		t.Error("mismatched transfer should still publish a change")
	}
	snap, _ := svc.Snapshot(ctx)
	if len(snap.Transactions) != 1 {
		t.Errorf("store has %d transactions, want 1", len(snap.Transactions))
	}
}

func TestSaveTransaction_BuyTransfersAreNotReconciled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Buying USD with base currency: the frozen rate on the source leg
	// is 1, not the transfer rate, so no check can apply. 4150 at the
	// table rate 41.5 matches 100 exactly; a warning here would flag a
	// correctly entered transfer.
	received := d("100")
	_, mismatch, err := svc.SaveTransaction(ctx, core.Transaction{
		Type:        core.Transfer,
		AccountID:   "a1",
		ToAccountID: "a4",
		Amount:      d("4150"),
		ToAmount:    &received,
		Date:        time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("SaveTransaction() error = %v", err)
	}
	if mismatch != nil {
		t.Errorf("base to foreign transfer returned mismatch %+v, want none", mismatch)
	}

	// Foreign to foreign: neither leg's frozen rate relates the two
	// amounts, so these transfers are never checked either.
	eur, err := svc.SaveAccount(ctx, core.Account{Name: "Готівка EUR", Currency: "EUR"})
	if err != nil {
		t.Fatalf("SaveAccount() error = %v", err)
	}
	crossReceived := d("90")
	_, mismatch, err = svc.SaveTransaction(ctx, core.Transaction{
		Type:        core.Transfer,
		AccountID:   "a4",
		ToAccountID: eur.ID,
		Amount:      d("100"),
		ToAmount:    &crossReceived,
		Date:        time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("SaveTransaction() error = %v", err)
	}
	if mismatch != nil {
		t.Errorf("foreign to foreign transfer returned mismatch %+v, want none", mismatch)
	}
}

func TestSaveTransaction_Invalid(t *testing.T) {
	svc, pub := newTestService(t)

	_, _, err := svc.SaveTransaction(context.Background(), core.Transaction{
		Type:       core.Expense,
		AccountID:  "a1",
		CategoryID: "c1",
		Amount:     d("-5"),
		Date:       time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	if err == nil {
		t.Fatal("negative amount should be rejected")
	}
	if len(pub.kinds) != 0 {
		t.Error("rejected transaction must not publish")
	}
}

func TestSaveAccount_FreezesRate(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	saved, err := svc.SaveAccount(ctx, core.Account{
		Name:     "Валютна",
		Currency: "EUR",
	})
	if err != nil {
		t.Fatalf("SaveAccount() error = %v", err)
	}
	if saved.ID == "" {
		t.Error("new account should get an ID")
	}
	if saved.Type != core.Current {
		t.Errorf("Type = %q, want default current", saved.Type)
	}
	if !saved.CurrentRate.Equal(d("44")) {
		t.Errorf("CurrentRate = %s, want table rate 44", saved.CurrentRate)
	}
	if len(pub.kinds) != 1 || pub.kinds[0] != amqp.ChangeAccount {
		t.Errorf("published kinds = %v", pub.kinds)
	}
}

func TestDeleteAccount_CascadesTransactions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.SaveTransaction(ctx, core.Transaction{
		Type:       core.Expense,
		AccountID:  "a1",
		CategoryID: "c1",
		Amount:     d("50"),
		Date:       time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("SaveTransaction() error = %v", err)
	}

	if err := svc.DeleteAccount(ctx, "a1"); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}

	snap, _ := svc.Snapshot(ctx)
	if _, ok := snap.AccountByID("a1"); ok {
		t.Error("account a1 should be gone")
	}
	if len(snap.Transactions) != 0 {
		t.Errorf("store has %d transactions, want 0 after cascade", len(snap.Transactions))
	}
}

func TestSetCategoryBudget(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	feb := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	updated, err := svc.SetCategoryBudget(ctx, "c1", feb, d("9000"))
	if err != nil {
		t.Fatalf("SetCategoryBudget() error = %v", err)
	}
	if got := updated.BudgetHistory["2024-02"]; !got.Equal(d("9000")) {
		t.Errorf("history[2024-02] = %s, want 9000", got)
	}

	if _, err := svc.SetCategoryBudget(ctx, "nope", feb, d("1")); err != core.ErrUnknownCategory {
		t.Errorf("unknown category error = %v, want ErrUnknownCategory", err)
	}
}

func TestUpdateRates_RejectsNonPositive(t *testing.T) {
	svc, pub := newTestService(t)

	err := svc.UpdateRates(context.Background(), core.RateTable{"USD": d("0")})
	if err == nil {
		t.Fatal("zero rate should be rejected")
	}
	if len(pub.kinds) != 0 {
		t.Error("rejected rates must not publish")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.SaveTransaction(ctx, core.Transaction{
		Type:       core.Income,
		AccountID:  "a1",
		CategoryID: "c6",
		Amount:     d("30000"),
		Date:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("SaveTransaction() error = %v", err)
	}

	data, name, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if name == "" {
		t.Error("Export() should suggest a file name")
	}

	// wipe by importing into a fresh service
	other, _ := newTestService(t)
	snap, err := other.Import(ctx, data)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(snap.Transactions) != 1 {
		t.Errorf("imported %d transactions, want 1", len(snap.Transactions))
	}

	if _, err := other.Import(ctx, []byte(`{"accounts": []}`)); err == nil {
		t.Error("Import() should reject payloads missing transactions")
	}

	// publishes survived throughout
	found := false
	for _, k := range pub.kinds {
		if k == amqp.ChangeTransaction {
			found = true
		}
	}
	if !found {
		t.Error("expected a transaction change message")
	}
}

func TestMonthlyReport(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	march := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	if _, _, err := svc.SaveTransaction(ctx, core.Transaction{
		Type: core.Income, AccountID: "a1", CategoryID: "c6", Amount: d("1000"), Date: march,
	}); err != nil {
		t.Fatalf("SaveTransaction() error = %v", err)
	}
	if _, _, err := svc.SaveTransaction(ctx, core.Transaction{
		Type: core.Expense, AccountID: "a1", CategoryID: "c1", Amount: d("300"), Date: march,
	}); err != nil {
		t.Fatalf("SaveTransaction() error = %v", err)
	}

	report, err := svc.MonthlyReport(ctx, 2024, time.March)
	if err != nil {
		t.Fatalf("MonthlyReport() error = %v", err)
	}
	if !report.Income.Equal(d("1000")) {
		t.Errorf("Income = %s, want 1000", report.Income)
	}
	if !report.Expense.Equal(d("300")) {
		t.Errorf("Expense = %s, want 300", report.Expense)
	}
	if !report.Net.Equal(d("700")) {
		t.Errorf("Net = %s, want 700", report.Net)
	}
}
