package ledger

import (
	"context"
	"time"

	"billetera/internal/core"
	"billetera/internal/events"
	"billetera/internal/store"
)

// Transfer describes a balance move between two accounts. When
// CountsAsSavings is set a reporting-only expense posting is written
// against the source account so the month's budget reflects the money
// as put away.
type Transfer struct {
	FromAccountID   int64
	ToAccountID     int64
	Amount          core.Money
	Description     string
	CountsAsSavings bool
}

// TransferResult reports the post-transfer balances.
type TransferResult struct {
	FromBalance core.Money
	ToBalance   core.Money
}

type TransferService struct {
	store  store.Store
	ledger *Ledger
	events events.Publisher
	nowFn  func() time.Time
}

func NewTransferService(st store.Store, l *Ledger, pub events.Publisher) *TransferService {
	return &TransferService{store: st, ledger: l, events: pub, nowFn: time.Now}
}

// Apply moves the amount, debiting the source with a funds check and
// crediting the destination.
func (s *TransferService) Apply(ctx context.Context, t Transfer) (TransferResult, error) {
	if err := t.Amount.Validate(); err != nil {
		return TransferResult{}, err
	}
	if t.FromAccountID == t.ToAccountID {
		return TransferResult{}, core.Validation("source and destination accounts must differ")
	}
	if _, err := s.store.GetAccount(ctx, t.ToAccountID); err != nil {
		return TransferResult{}, err
	}

	comp := begin("transfer")

	fromBal, err := s.ledger.DebitChecked(ctx, t.FromAccountID, t.Amount)
	if err != nil {
		return TransferResult{}, comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		_, err := s.ledger.Credit(ctx, t.FromAccountID, t.Amount)
		return err
	})

	toBal, err := s.ledger.Credit(ctx, t.ToAccountID, t.Amount)
	if err != nil {
		return TransferResult{}, comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		_, err := s.ledger.Debit(ctx, t.ToAccountID, t.Amount)
		return err
	})

	if t.CountsAsSavings {
		desc := t.Description
		if desc == "" {
			desc = "Transfer to savings"
		}
		// Reporting only. The amount already left the source via the
		// debit above, so this posting must not touch a balance.
		_, err := s.store.InsertExpense(ctx, core.ExpensePosting{
			Amount:      t.Amount,
			Bucket:      core.Saving,
			Category:    core.CategorySaving,
			Description: desc,
			AccountID:   t.FromAccountID,
			Date:        core.DateFrom(s.nowFn()),
		})
		if err != nil {
			return TransferResult{}, comp.fail(ctx, err)
		}
	}

	publish(ctx, s.events, events.NewLedgerEvent(events.KindTransferApplied, 0, t.Amount.Cents, t.FromAccountID, t.ToAccountID))
	return TransferResult{FromBalance: fromBal, ToBalance: toBal}, nil
}
