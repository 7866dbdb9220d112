// Package export defines the outbound port for the expense backup
// mirror. Implementations live in subpackages.
package export

import (
	"context"

	"billetera/internal/core"
)

// ExpenseWriter appends one expense posting to the external backup and
// returns an opaque row reference.
type ExpenseWriter interface {
	Append(ctx context.Context, e core.ExpensePosting) (rowRef string, err error)
}
