package ledger

import (
	"context"

	"billetera/internal/core"
	"billetera/internal/events"
	"billetera/internal/store"
)

// ExpenseService records expense postings, optionally splitting part of
// the amount into debt shares owed back by third parties. Shares are
// bookkeeping only until settled; the full amount always leaves the
// paying account.
type ExpenseService struct {
	store  store.Store
	ledger *Ledger
	events events.Publisher
}

func NewExpenseService(st store.Store, l *Ledger, pub events.Publisher) *ExpenseService {
	return &ExpenseService{store: st, ledger: l, events: pub}
}

// validateSplit enforces the split invariant before any write: each
// share is well formed and the payer keeps a strictly positive portion.
func validateSplit(amount core.Money, shares []core.DebtShare) error {
	var total core.Money
	for _, sh := range shares {
		if err := sh.Validate(); err != nil {
			return err
		}
		total = total.Add(sh.Amount)
	}
	if !total.LessThan(amount) {
		return core.Validationf("shares total %s must be less than expense amount %s", total, amount)
	}
	return nil
}

// Record inserts the posting and its shares, then debits the account.
// The funds check runs inside the debit so a concurrent spend cannot
// sneak the balance negative.
func (s *ExpenseService) Record(ctx context.Context, p core.ExpensePosting, shares []core.DebtShare) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if err := validateSplit(p.Amount, shares); err != nil {
		return 0, err
	}
	a, err := s.store.GetAccount(ctx, p.AccountID)
	if err != nil {
		return 0, err
	}
	// Advisory pre-check keeps the common failure cheap; the debit
	// below re-checks under CAS.
	if a.Balance.LessThan(p.Amount) {
		return 0, core.ErrInsufficientFunds
	}

	comp := begin("record expense")

	id, err := s.store.InsertExpense(ctx, p)
	if err != nil {
		return 0, comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		return s.store.DeleteExpense(ctx, id)
	})

	for _, sh := range shares {
		sh.ExpenseID = id
		sh.Paid = false
		shareID, err := s.store.InsertShare(ctx, sh)
		if err != nil {
			return 0, comp.fail(ctx, err)
		}
		comp.add(func(ctx context.Context) error {
			return s.store.DeleteShare(ctx, shareID)
		})
	}

	if _, err := s.ledger.DebitChecked(ctx, p.AccountID, p.Amount); err != nil {
		return 0, comp.fail(ctx, err)
	}

	publish(ctx, s.events, events.NewLedgerEvent(events.KindExpenseRecorded, id, p.Amount.Cents, p.AccountID))
	return id, nil
}

// Update moves the posting's effect to the new account and amount and
// replaces the share set wholesale. Editing a split always starts the
// split over; partial share edits are not supported.
func (s *ExpenseService) Update(ctx context.Context, p core.ExpensePosting, shares []core.DebtShare) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := validateSplit(p.Amount, shares); err != nil {
		return err
	}
	old, err := s.store.GetExpense(ctx, p.ID)
	if err != nil {
		return err
	}
	oldShares, err := s.store.ListSharesForExpense(ctx, p.ID)
	if err != nil {
		return err
	}
	if _, err := s.store.GetAccount(ctx, p.AccountID); err != nil {
		return err
	}

	comp := begin("update expense")

	if _, err := s.ledger.Credit(ctx, old.AccountID, old.Amount); err != nil {
		return comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		_, err := s.ledger.Debit(ctx, old.AccountID, old.Amount)
		return err
	})

	if err := s.store.UpdateExpense(ctx, p); err != nil {
		return comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		return s.store.UpdateExpense(ctx, old)
	})

	if _, err := s.ledger.DebitChecked(ctx, p.AccountID, p.Amount); err != nil {
		return comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		_, err := s.ledger.Credit(ctx, p.AccountID, p.Amount)
		return err
	})

	if err := s.store.DeleteSharesForExpense(ctx, p.ID); err != nil {
		return comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		for _, sh := range oldShares {
			sh.ID = 0
			if _, err := s.store.InsertShare(ctx, sh); err != nil {
				return err
			}
		}
		return nil
	})

	for _, sh := range shares {
		sh.ExpenseID = p.ID
		sh.Paid = false
		shareID, err := s.store.InsertShare(ctx, sh)
		if err != nil {
			return comp.fail(ctx, err)
		}
		comp.add(func(ctx context.Context) error {
			return s.store.DeleteShare(ctx, shareID)
		})
	}

	publish(ctx, s.events, events.NewLedgerEvent(events.KindExpenseUpdated, p.ID, p.Amount.Cents, old.AccountID, p.AccountID))
	return nil
}

// Delete restores the debited amount and removes the posting. Dependent
// shares cascade away with it, settled or not.
func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	p, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return err
	}

	comp := begin("delete expense")

	if _, err := s.ledger.Credit(ctx, p.AccountID, p.Amount); err != nil {
		return comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		_, err := s.ledger.Debit(ctx, p.AccountID, p.Amount)
		return err
	})

	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return comp.fail(ctx, err)
	}

	publish(ctx, s.events, events.NewLedgerEvent(events.KindExpenseDeleted, id, p.Amount.Cents, p.AccountID))
	return nil
}

func (s *ExpenseService) List(ctx context.Context, limit int) ([]core.ExpensePosting, error) {
	return s.store.ListExpenses(ctx, limit)
}

func (s *ExpenseService) ListMonth(ctx context.Context, year, month int) ([]core.ExpensePosting, error) {
	return s.store.ListExpensesForMonth(ctx, year, month)
}
