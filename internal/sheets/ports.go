package sheets

import (
	"context"

	"domfin/internal/ledger"
)

// Ports for outbound adapters.
type (
	// ReportExporter publishes a monthly report to an external sheet.
	ReportExporter interface {
		ExportReport(ctx context.Context, r ledger.Report) error
	}
)
