// Command domfin-backup exports the store to a JSON backup file or
// restores it from one, against the same database the server uses.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"domfin/internal/backup"
	"domfin/internal/config"
	"domfin/internal/storage"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("configuration: %v", err)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		log.Fatalf("open database %s: %v", cfg.SQLiteDBPath, err)
	}
	defer repo.Close()

	ctx := context.Background()

	switch os.Args[1] {
	case "export":
		// Default destination is the configured backup directory.
		dest := filepath.Join(cfg.BackupDir, backup.ExportFileName(time.Now()))
		if len(os.Args) > 2 {
			dest = os.Args[2]
		}
		runExport(ctx, repo, dest)
	case "import":
		if len(os.Args) < 3 {
			usage()
		}
		runImport(ctx, repo, os.Args[2])
	default:
		usage()
	}
}

func runExport(ctx context.Context, repo *storage.Repository, dest string) {
	snap, err := repo.LoadSnapshot(ctx)
	if err != nil {
		log.Fatalf("load snapshot: %v", err)
	}
	data, err := backup.Export(snap)
	if err != nil {
		log.Fatalf("encode backup: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		log.Fatalf("create backup directory: %v", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		log.Fatalf("write %s: %v", dest, err)
	}
	fmt.Printf("Exported %d accounts, %d transactions, %d categories to %s\n",
		len(snap.Accounts), len(snap.Transactions), len(snap.Categories), dest)
}

func runImport(ctx context.Context, repo *storage.Repository, src string) {
	data, err := os.ReadFile(src)
	if err != nil {
		log.Fatalf("read %s: %v", src, err)
	}
	snap, err := backup.Import(data)
	if err != nil {
		log.Fatalf("parse backup: %v", err)
	}
	if err := repo.SaveSnapshot(ctx, snap); err != nil {
		log.Fatalf("save snapshot: %v", err)
	}
	fmt.Printf("Imported %d accounts, %d transactions, %d categories from %s\n",
		len(snap.Accounts), len(snap.Transactions), len(snap.Categories), src)
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  domfin-backup export [file]   write a JSON backup (default: backup dir)
  domfin-backup import <file>   replace the store from a JSON backup
`)
	os.Exit(2)
}
