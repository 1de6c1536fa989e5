package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"domfin/internal/ledger"
	"domfin/internal/sheets"
	"domfin/internal/storage"
)

// ReportProcessorConfig holds configuration for the report processor.
type ReportProcessorConfig struct {
	// ExportInterval is how often to export the current month (default: 1h)
	ExportInterval time.Duration

	// PreviousMonthGrace exports last month too while the new month is
	// this young, so late entries still land in its sheet (default: 72h)
	PreviousMonthGrace time.Duration
}

// DefaultReportProcessorConfig returns sensible defaults.
func DefaultReportProcessorConfig() ReportProcessorConfig {
	return ReportProcessorConfig{
		ExportInterval:     1 * time.Hour,
		PreviousMonthGrace: 72 * time.Hour,
	}
}

// ReportProcessor periodically exports monthly reports to a sheet.
type ReportProcessor struct {
	storage  *storage.Repository
	exporter sheets.ReportExporter
	config   ReportProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	now func() time.Time
}

func NewReportProcessor(storage *storage.Repository, exporter sheets.ReportExporter, config ReportProcessorConfig) *ReportProcessor {
	return &ReportProcessor{
		storage:  storage,
		exporter: exporter,
		config:   config,
		now:      time.Now,
	}
}

// Start begins the export loop. Returns an error if already running.
func (p *ReportProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("report processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Report processor started",
		"export_interval", p.config.ExportInterval)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *ReportProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Report processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Report processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running.
func (p *ReportProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ReportProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.ExportInterval)
	defer ticker.Stop()

	// Export immediately on startup
	p.exportDue(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.exportDue(ctx)
		}
	}
}

// exportDue exports the current month, plus the previous one while
// still inside the grace window.
func (p *ReportProcessor) exportDue(ctx context.Context) {
	now := p.now()

	months := []time.Time{now}
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if now.Sub(monthStart) < p.config.PreviousMonthGrace {
		months = append(months, monthStart.AddDate(0, 0, -1))
	}

	snap, err := p.storage.LoadSnapshot(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load snapshot for report export", "error", err)
		return
	}

	for _, m := range months {
		report := ledger.MonthlyReport(snap.Transactions, snap.Categories, m.Year(), m.Month())
		if err := p.exporter.ExportReport(ctx, report); err != nil {
			slog.ErrorContext(ctx, "Failed to export monthly report",
				"year", m.Year(), "month", int(m.Month()), "error", err)
			continue
		}
	}
}
