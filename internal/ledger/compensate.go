package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"billetera/internal/core"
)

// compensation records undo steps for a multi-step write. The store
// only offers single-row atomic operations, so when step N fails the
// earlier steps must be reversed by hand, newest first.
type compensation struct {
	op    string
	undos []func(context.Context) error
}

func begin(op string) *compensation {
	return &compensation{op: op}
}

func (c *compensation) add(undo func(context.Context) error) {
	c.undos = append(c.undos, undo)
}

// fail reverses the recorded steps and returns the error to surface.
// If an undo itself fails the books are inconsistent and the caller
// gets a PartialFailureError naming both errors.
func (c *compensation) fail(ctx context.Context, err error) error {
	for i := len(c.undos) - 1; i >= 0; i-- {
		if undoErr := c.undos[i](ctx); undoErr != nil {
			slog.ErrorContext(ctx, "Compensation failed, manual reconciliation required",
				"op", c.op,
				"error", err,
				"compensation_error", undoErr)
			return &core.PartialFailureError{Op: c.op, Err: err, CompensationErr: undoErr}
		}
	}
	return fmt.Errorf("%s: %w", c.op, err)
}
