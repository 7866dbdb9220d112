package worker

import (
	"context"
	"testing"

	"billetera/internal/core"
	"billetera/internal/events"
	exportmem "billetera/internal/export/memory"
	storemem "billetera/internal/store/memory"
)

func seedExpense(t *testing.T, st *storemem.Store, cents int64) int64 {
	t.Helper()
	id, err := st.InsertExpense(context.Background(), core.ExpensePosting{
		Amount: core.Money{Cents: cents}, Bucket: core.Want, Category: "misc",
		AccountID: 1, Date: core.NewDate(2026, 8, 10),
	})
	if err != nil {
		t.Fatalf("seed expense: %v", err)
	}
	return id
}

func TestHandleEventExportsExpense(t *testing.T) {
	ctx := context.Background()
	st := storemem.New()
	wr := exportmem.New()
	w := New(st, wr, DefaultConfig())
	id := seedExpense(t, st, 1500)

	err := w.HandleEvent(ctx, events.NewLedgerEvent(events.KindExpenseRecorded, id, 1500, 1))
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if rows := wr.Rows(); len(rows) != 1 || rows[0].ID != id {
		t.Fatalf("rows = %+v, want one row for id %d", rows, id)
	}
	pending, _ := st.PendingExportExpenses(ctx, 0)
	if len(pending) != 0 {
		t.Fatalf("pending = %d after export, want 0", len(pending))
	}
}

func TestHandleEventIgnoresOtherKinds(t *testing.T) {
	st := storemem.New()
	wr := exportmem.New()
	w := New(st, wr, DefaultConfig())
	seedExpense(t, st, 1500)

	err := w.HandleEvent(context.Background(), events.NewLedgerEvent(events.KindIncomeRecorded, 1, 100, 1))
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(wr.Rows()) != 0 {
		t.Fatal("income event must not trigger an export")
	}
}

func TestHandleEventForDeletedExpenseAcks(t *testing.T) {
	st := storemem.New()
	wr := exportmem.New()
	w := New(st, wr, DefaultConfig())

	// Entity no longer exists; the event must not requeue forever.
	if err := w.HandleEvent(context.Background(), events.NewLedgerEvent(events.KindExpenseRecorded, 99, 100, 1)); err != nil {
		t.Fatalf("handle event: %v", err)
	}
}

func TestSweepExportsPendingAndMarksErrors(t *testing.T) {
	ctx := context.Background()
	st := storemem.New()
	wr := exportmem.New()
	w := New(st, wr, Config{BatchSize: 10})

	good := seedExpense(t, st, 1000)
	bad := seedExpense(t, st, 2000)
	wr.FailFor(bad)

	if err := w.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if rows := wr.Rows(); len(rows) != 1 || rows[0].ID != good {
		t.Fatalf("rows = %+v, want only the good expense", rows)
	}
	pending, _ := st.PendingExportExpenses(ctx, 0)
	if len(pending) != 0 {
		t.Fatalf("pending = %+v, want empty after marking both rows", pending)
	}
}
