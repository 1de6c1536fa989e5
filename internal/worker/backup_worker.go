package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"domfin/internal/amqp"
	"domfin/internal/backup"
	"domfin/internal/storage"
)

// BackupWorker writes JSON snapshots of the store to disk. Change
// messages mark the store dirty; writes are debounced so a burst of
// edits produces one file. A periodic backup runs regardless, as a
// safety net for missed messages.
type BackupWorker struct {
	storage  *storage.Repository
	dir      string
	debounce time.Duration
	interval time.Duration
	keep     int

	dirty chan struct{}
	now   func() time.Time
}

func NewBackupWorker(storage *storage.Repository, dir string, debounce, interval time.Duration, keep int) *BackupWorker {
	return &BackupWorker{
		storage:  storage,
		dir:      dir,
		debounce: debounce,
		interval: interval,
		keep:     keep,
		dirty:    make(chan struct{}, 1),
		now:      time.Now,
	}
}

// HandleChange marks the store dirty. Safe to call from the AMQP
// consume loop; never blocks.
func (w *BackupWorker) HandleChange(msg *amqp.ChangeMessage) error {
	slog.Info("Store change received",
		"kind", msg.Kind,
		"entity_id", msg.EntityID)

	select {
	case w.dirty <- struct{}{}:
	default:
		// a flush is already pending
	}
	return nil
}

// Run drives the debounced and periodic backup loops until the context
// is cancelled.
func (w *BackupWorker) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.debounceLoop(ctx) })
	g.Go(func() error { return w.periodicLoop(ctx) })
	return g.Wait()
}

func (w *BackupWorker) debounceLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.dirty:
		}

		// absorb further changes for the debounce window
		timer := time.NewTimer(w.debounce)
	drain:
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-w.dirty:
			case <-timer.C:
				break drain
			}
		}

		if err := w.WriteBackup(ctx); err != nil {
			slog.ErrorContext(ctx, "Debounced backup failed", "error", err)
		}
	}
}

func (w *BackupWorker) periodicLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.WriteBackup(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic backup failed", "error", err)
			}
		}
	}
}

// WriteBackup exports the current snapshot to a dated file, replacing
// the same day's earlier backup, then prunes old files.
func (w *BackupWorker) WriteBackup(ctx context.Context) error {
	snap, err := w.storage.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	data, err := backup.Export(snap)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}

	name := backup.ExportFileName(w.now())
	path := filepath.Join(w.dir, name)

	// write-then-rename so readers never see a partial file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename backup: %w", err)
	}

	slog.InfoContext(ctx, "Backup written",
		"path", path,
		"accounts", len(snap.Accounts),
		"transactions", len(snap.Transactions),
		"bytes", len(data))

	w.prune(ctx)
	return nil
}

// prune deletes the oldest backups beyond the retention count.
func (w *BackupWorker) prune(ctx context.Context) {
	if w.keep <= 0 {
		return
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list backup dir", "dir", w.dir, "error", err)
		return
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), "budget_backup_") && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) <= w.keep {
		return
	}

	// dated names sort chronologically
	sort.Strings(names)
	for _, name := range names[:len(names)-w.keep] {
		path := filepath.Join(w.dir, name)
		if err := os.Remove(path); err != nil {
			slog.ErrorContext(ctx, "Failed to prune backup", "path", path, "error", err)
			continue
		}
		slog.InfoContext(ctx, "Pruned old backup", "path", path)
	}
}
