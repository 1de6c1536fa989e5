package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"domfin/internal/services"
	"domfin/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	svc := services.NewTrackerService(repo, nil)
	s := NewServer(":0", svc)
	t.Cleanup(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
	})
	return s
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d, want 200", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /readyz = %d, want 200", rec.Code)
	}
}

func TestListAccounts_SeededWithBalances(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/accounts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/accounts = %d, want 200", rec.Code)
	}

	var accounts []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &accounts); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(accounts) != 4 {
		t.Fatalf("got %d accounts, want the 4 seeded ones", len(accounts))
	}
	for _, acc := range accounts {
		if _, ok := acc["balance"]; !ok {
			t.Errorf("account %v missing balance field", acc["id"])
		}
		if _, ok := acc["balanceInBase"]; !ok {
			t.Errorf("account %v missing balanceInBase field", acc["id"])
		}
	}
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t)

	body := map[string]any{
		"type":       "EXPENSE",
		"accountId":  "a1",
		"categoryId": "c1",
		"amount":     300,
		"date":       "2024-03-10T12:00:00Z",
	}
	rec := doRequest(t, s, http.MethodPost, "/api/transactions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/transactions = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Transaction struct {
			ID           string `json:"id"`
			ExchangeRate any    `json:"exchangeRate"`
		} `json:"transaction"`
		Warning string `json:"warning"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if created.Transaction.ID == "" {
		t.Error("created transaction should carry an ID")
	}
	if created.Warning != "" {
		t.Errorf("unexpected warning: %s", created.Warning)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/transactions?year=2024&month=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/transactions = %d, want 200", rec.Code)
	}
	var listed []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed %d transactions for 2024-03, want 1", len(listed))
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/transactions/"+created.Transaction.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE = %d, want 204", rec.Code)
	}
}

func TestSaveTransaction_Invalid(t *testing.T) {
	s := newTestServer(t)

	body := map[string]any{
		"type":       "EXPENSE",
		"accountId":  "a1",
		"categoryId": "c1",
		"amount":     -5,
		"date":       "2024-03-10T12:00:00Z",
	}
	rec := doRequest(t, s, http.MethodPost, "/api/transactions", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("POST with negative amount = %d, want 422", rec.Code)
	}
}

func TestReportReflectsWrites(t *testing.T) {
	s := newTestServer(t)

	// warm the cache with an empty month
	rec := doRequest(t, s, http.MethodGet, "/api/reports?year=2024&month=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/reports = %d, want 200", rec.Code)
	}
	var before struct {
		Expense json.Number `json:"expense"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &before); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}

	body := map[string]any{
		"type":       "EXPENSE",
		"accountId":  "a1",
		"categoryId": "c1",
		"amount":     450,
		"date":       "2024-03-05T09:00:00Z",
	}
	if rec := doRequest(t, s, http.MethodPost, "/api/transactions", body); rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/transactions = %d, want 201", rec.Code)
	}

	// the write must have purged the cached report
	rec = doRequest(t, s, http.MethodGet, "/api/reports?year=2024&month=3", nil)
	var after struct {
		Expense json.Number `json:"expense"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if after.Expense.String() == before.Expense.String() {
		t.Errorf("report expense unchanged after write: %s", after.Expense)
	}
	if after.Expense.String() != "450" {
		t.Errorf("report expense = %s, want 450", after.Expense)
	}
}

func TestSetBudget(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPut, "/api/categories/c1/budget", map[string]any{
		"month":  "2024-02",
		"amount": 9000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT budget = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "2024-02") {
		t.Errorf("response should carry the updated history: %s", rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodPut, "/api/categories/c1/budget", map[string]any{
		"month":  "february",
		"amount": 1,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad month format = %d, want 422", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPut, "/api/categories/nope/budget", map[string]any{
		"month":  "2024-02",
		"amount": 1,
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown category = %d, want 404", rec.Code)
	}
}

func TestExportImport(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/export = %d, want 200", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "budget_backup_") {
		t.Errorf("Content-Disposition = %q, want a backup filename", cd)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewReader(rec.Body.Bytes()))
	importRec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(importRec, req)
	if importRec.Code != http.StatusOK {
		t.Fatalf("POST /api/import = %d, want 200: %s", importRec.Code, importRec.Body.String())
	}

	rec = doRequest(t, s, http.MethodPost, "/api/import", map[string]any{"accounts": []any{}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("import without transactions = %d, want 422", rec.Code)
	}
}

func TestGroupTotals(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/groups", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/groups = %d, want 200", rec.Code)
	}

	var resp struct {
		Groups []struct {
			Type     string            `json:"type"`
			Accounts []json.RawMessage `json:"accounts"`
		} `json:"groups"`
		Total json.Number `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Groups) != 3 {
		t.Fatalf("got %d groups, want current/savings/debt", len(resp.Groups))
	}
	if resp.Groups[0].Type != "CURRENT" || len(resp.Groups[0].Accounts) != 3 {
		t.Errorf("current group = %+v, want the 3 seeded hryvnia accounts", resp.Groups[0])
	}
}
