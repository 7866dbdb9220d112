// Package memory is an in-process ExpenseWriter used by tests and the
// memory backend mode.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"billetera/internal/core"
)

type Writer struct {
	mu    sync.Mutex
	rows  []core.ExpensePosting
	errAt map[int64]error
}

func New() *Writer {
	return &Writer{errAt: map[int64]error{}}
}

// FailFor makes Append fail for the given posting ID.
func (w *Writer) FailFor(id int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errAt[id] = errors.New("append rejected")
}

func (w *Writer) Append(_ context.Context, e core.ExpensePosting) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err, ok := w.errAt[e.ID]; ok {
		return "", err
	}
	w.rows = append(w.rows, e)
	return fmt.Sprintf("mem:%d", len(w.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (w *Writer) Rows() []core.ExpensePosting {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]core.ExpensePosting(nil), w.rows...)
}
