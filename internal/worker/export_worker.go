// Package worker mirrors committed expense postings to the external
// backup. It consumes ledger events for low latency and sweeps the
// store on a timer to catch anything the event path missed.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"billetera/internal/events"
	"billetera/internal/export"
	"billetera/internal/store"
)

// Config tunes the export worker.
type Config struct {
	// PollInterval is how often the sweep checks for pending rows.
	PollInterval time.Duration
	// BatchSize caps how many rows one sweep pass exports.
	BatchSize int
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 30 * time.Second,
		BatchSize:    10,
	}
}

type ExportWorker struct {
	store  store.Store
	writer export.ExpenseWriter
	config Config
}

func New(st store.Store, w export.ExpenseWriter, cfg Config) *ExportWorker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	return &ExportWorker{store: st, writer: w, config: cfg}
}

// HandleEvent exports the expense named by a recorded event. Other
// event kinds are acknowledged without work; the sweep owns updates
// and deletes are not mirrored.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev events.LedgerEvent) error {
	if ev.Kind != events.KindExpenseRecorded {
		return nil
	}
	return w.exportOne(ctx, ev.EntityID)
}

// Run sweeps pending rows until the context is cancelled.
func (w *ExportWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Export sweep started",
		"poll_interval", w.config.PollInterval,
		"batch_size", w.config.BatchSize)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Export sweep stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				slog.ErrorContext(ctx, "Export sweep pass failed", "error", err)
			}
		}
	}
}

// Sweep exports one batch of pending rows. Individual failures mark
// the row and continue; the batch does not abort.
func (w *ExportWorker) Sweep(ctx context.Context) error {
	pending, err := w.store.PendingExportExpenses(ctx, w.config.BatchSize)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}
	for _, p := range pending {
		if err := w.exportOne(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Export failed", "id", p.ID, "error", err)
		}
	}
	return nil
}

func (w *ExportWorker) exportOne(ctx context.Context, id int64) error {
	p, err := w.store.GetExpense(ctx, id)
	if err != nil {
		// Deleted between event and export; nothing to mirror.
		slog.WarnContext(ctx, "Expense gone before export", "id", id, "error", err)
		return nil
	}

	ref, err := w.writer.Append(ctx, p)
	if err != nil {
		if markErr := w.store.MarkExpenseExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append expense %d: %w", id, err)
	}

	if err := w.store.MarkExpenseExported(ctx, id); err != nil {
		return fmt.Errorf("mark exported %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Expense exported", "id", id, "row_ref", ref)
	return nil
}
