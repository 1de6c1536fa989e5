package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"domfin/internal/ledger"
	ports "domfin/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Report"); code prefixes year.
	reportBase string
}

// Ensure interface conformance
var _ ports.ReportExporter = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_REPORT_SHEET_NAME (default "Report").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	reportBase := strings.TrimSpace(os.Getenv("GOOGLE_REPORT_SHEET_NAME"))
	if reportBase == "" {
		reportBase = "Report"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		reportBase:    reportBase,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// ExportReport writes one monthly report into the year's report sheet,
// twelve columns wide, one month per block of rows. Each export
// rewrites the month's block so repeated exports stay idempotent.
func (c *Client) ExportReport(ctx context.Context, r ledger.Report) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if r.Month < 1 || r.Month > 12 {
		return fmt.Errorf("invalid month: %d", r.Month)
	}

	sheetName := yearPrefixedName(c.reportBase, r.Year)
	rows := reportRows(r)

	// Clear a generous block first so a shrinking report leaves no
	// stale rows behind.
	clearRange := fmt.Sprintf("%s!A%d:D%d", sheetName, blockStart(r.Month), blockStart(r.Month)+blockHeight-1)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	writeRange := fmt.Sprintf("%s!A%d:D%d", sheetName, blockStart(r.Month), blockStart(r.Month)+len(rows)-1)
	vr := &gsheet.ValueRange{Values: rows}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", writeRange, err)
	}

	slog.InfoContext(ctx, "Exported monthly report to Google Sheets",
		"sheet", sheetName,
		"year", r.Year,
		"month", r.Month,
		"rows", len(rows))

	return nil
}

// blockHeight caps how many rows one month may occupy in the sheet.
const blockHeight = 40

func blockStart(month int) int {
	return (month-1)*blockHeight + 1
}

// reportRows flattens a report into sheet rows: a title, the totals,
// then expense and income lines as name/actual/budget triples.
func reportRows(r ledger.Report) [][]any {
	title := fmt.Sprintf("%04d-%02d", r.Year, r.Month)
	rows := [][]any{
		{title, "", "", ""},
		{"Income", r.Income.InexactFloat64(), r.IncomeBudget.InexactFloat64(), ""},
		{"Expense", r.Expense.InexactFloat64(), r.ExpenseBudget.InexactFloat64(), ""},
		{"Net", r.Net.InexactFloat64(), "", ""},
	}
	for _, row := range r.ExpenseRows {
		rows = append(rows, []any{row.Name, row.Value.InexactFloat64(), row.Budget.InexactFloat64(), "expense"})
	}
	for _, row := range r.IncomeRows {
		rows = append(rows, []any{row.Name, row.Value.InexactFloat64(), row.Budget.InexactFloat64(), "income"})
	}
	return rows
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
