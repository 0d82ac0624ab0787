package worker

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/export"
	"bilancio/internal/storage"
)

// ExportFileName is the file the worker maintains inside the export directory.
const ExportFileName = "transactions.csv"

// ExportWorker keeps a CSV projection of the ledger up to date. Ledger
// events received over AMQP mark the projection dirty; a periodic flush
// rewrites the file when anything changed since the last write.
type ExportWorker struct {
	storage   *storage.SQLiteRepository
	exportDir string
	interval  time.Duration
	dirty     atomic.Bool
}

func NewExportWorker(storage *storage.SQLiteRepository, exportDir string, interval time.Duration) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		exportDir: exportDir,
		interval:  interval,
	}
}

// HandleLedgerEvent processes a single ledger event message from AMQP.
// Every event kind invalidates the projection the same way, so the
// handler only records that a rewrite is due.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"kind", msg.Kind,
		"entity_id", msg.EntityID)

	w.dirty.Store(true)
	return nil
}

// Run flushes the projection on a fixed interval until ctx is cancelled.
// An initial export runs immediately so a fresh worker recovers from
// events missed while it was down.
func (w *ExportWorker) Run(ctx context.Context) error {
	if err := w.ExportNow(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup export failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final flush so shutdown does not lose marked changes.
			if w.dirty.Load() {
				if err := w.ExportNow(context.WithoutCancel(ctx)); err != nil {
					slog.Error("Final export failed", "error", err)
				}
			}
			return ctx.Err()
		case <-ticker.C:
			if !w.dirty.Swap(false) {
				continue
			}
			if err := w.ExportNow(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic export failed", "error", err)
				w.dirty.Store(true)
			}
		}
	}
}

// ExportNow rewrites the CSV projection from the current ledger state.
func (w *ExportWorker) ExportNow(ctx context.Context) error {
	queries := w.storage.Queries()

	transactions, err := queries.ListAllTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list transactions for export: %w", err)
	}

	accounts, err := queries.ListAccounts(ctx, true)
	if err != nil {
		return fmt.Errorf("list accounts for export: %w", err)
	}
	categories, err := queries.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories for export: %w", err)
	}

	accountNames := make(map[int64]string, len(accounts))
	for _, a := range accounts {
		accountNames[a.ID] = a.Name
	}
	categoryNames := make(map[int64]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	rows := make([]export.Row, 0, len(transactions))
	for _, t := range transactions {
		rows = append(rows, projectRow(t, accountNames, categoryNames))
	}

	path := filepath.Join(w.exportDir, ExportFileName)
	if err := export.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}

	slog.InfoContext(ctx, "Ledger export written",
		"path", path,
		"transactions", len(rows))
	return nil
}

func projectRow(t core.Transaction, accountNames, categoryNames map[int64]string) export.Row {
	row := export.Row{
		Date:    t.Date,
		Type:    t.Type,
		Amount:  t.Amount,
		Account: accountNames[t.AccountID],
		Note:    t.Note,
	}
	if t.CategoryID != nil {
		row.Category = categoryNames[*t.CategoryID]
	}
	if t.TargetAccountID != nil {
		row.TargetAccount = accountNames[*t.TargetAccountID]
	}
	return row
}
