// Package backup serializes the full snapshot to and from the JSON
// backup shape. The engine has no opinion on transport; callers decide
// whether the bytes go to a file, an HTTP response or a share sheet.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"domfin/internal/core"
)

func init() {
	// Backups store amounts as JSON numbers, the shape the app has
	// always written, rather than decimal's default quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

var ErrInvalidFormat = errors.New("invalid backup format")

// Export renders the snapshot as indented JSON.
func Export(snap core.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// Import parses a backup and normalizes it. Validation is deliberately
// shallow: a backup is accepted when it carries accounts and
// transactions; everything else is defaulted by Normalize.
func Import(data []byte) (core.Snapshot, error) {
	var raw struct {
		Accounts     *json.RawMessage `json:"accounts"`
		Transactions *json.RawMessage `json:"transactions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return core.Snapshot{}, fmt.Errorf("parse backup: %w", err)
	}
	if raw.Accounts == nil || raw.Transactions == nil {
		return core.Snapshot{}, ErrInvalidFormat
	}

	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("parse backup: %w", err)
	}
	return Normalize(snap), nil
}

// ExportFileName names a backup file after the day it was taken.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("budget_backup_%s.json", now.Format("2006-01-02"))
}
