// Package memory provides an in-memory ReportExporter for tests and
// local development without Google credentials.
package memory

import (
	"context"
	"sync"

	"domfin/internal/ledger"
	ports "domfin/internal/sheets"
)

type Exporter struct {
	mu      sync.Mutex
	reports []ledger.Report
}

var _ ports.ReportExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) ExportReport(_ context.Context, r ledger.Report) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reports = append(e.reports, r)
	return nil
}

// Reports returns a copy of everything exported so far.
func (e *Exporter) Reports() []ledger.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ledger.Report, len(e.reports))
	copy(out, e.reports)
	return out
}
