package ledger

import (
	"context"

	"billetera/internal/core"
	"billetera/internal/events"
	"billetera/internal/store"
)

// IncomeService keeps income postings and account balances in lockstep:
// recording credits the account, deleting reverses the credit, updating
// moves the money from the old account/amount to the new.
type IncomeService struct {
	store  store.Store
	ledger *Ledger
	events events.Publisher
}

func NewIncomeService(st store.Store, l *Ledger, pub events.Publisher) *IncomeService {
	return &IncomeService{store: st, ledger: l, events: pub}
}

// Record validates and inserts the posting, then credits the account.
func (s *IncomeService) Record(ctx context.Context, p core.IncomePosting) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if _, err := s.store.GetAccount(ctx, p.AccountID); err != nil {
		return 0, err
	}

	comp := begin("record income")

	id, err := s.store.InsertIncome(ctx, p)
	if err != nil {
		return 0, comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		return s.store.DeleteIncome(ctx, id)
	})

	if _, err := s.ledger.Credit(ctx, p.AccountID, p.Amount); err != nil {
		return 0, comp.fail(ctx, err)
	}

	publish(ctx, s.events, events.NewLedgerEvent(events.KindIncomeRecorded, id, p.Amount.Cents, p.AccountID))
	return id, nil
}

// Update moves the posting's effect: the old amount is removed from the
// old account, the row is rewritten, the new amount is credited to the
// new account. Updating a posting to identical data is a no-op on the
// balance.
func (s *IncomeService) Update(ctx context.Context, p core.IncomePosting) error {
	if err := p.Validate(); err != nil {
		return err
	}
	old, err := s.store.GetIncome(ctx, p.ID)
	if err != nil {
		return err
	}
	if _, err := s.store.GetAccount(ctx, p.AccountID); err != nil {
		return err
	}
	p.DebtShareID = old.DebtShareID

	comp := begin("update income")

	if _, err := s.ledger.Debit(ctx, old.AccountID, old.Amount); err != nil {
		return comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		_, err := s.ledger.Credit(ctx, old.AccountID, old.Amount)
		return err
	})

	if err := s.store.UpdateIncome(ctx, p); err != nil {
		return comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		return s.store.UpdateIncome(ctx, old)
	})

	if _, err := s.ledger.Credit(ctx, p.AccountID, p.Amount); err != nil {
		return comp.fail(ctx, err)
	}

	publish(ctx, s.events, events.NewLedgerEvent(events.KindIncomeUpdated, p.ID, p.Amount.Cents, old.AccountID, p.AccountID))
	return nil
}

// Delete reverses the posting's credit and removes the row.
func (s *IncomeService) Delete(ctx context.Context, id int64) error {
	p, err := s.store.GetIncome(ctx, id)
	if err != nil {
		return err
	}

	comp := begin("delete income")

	if _, err := s.ledger.Debit(ctx, p.AccountID, p.Amount); err != nil {
		return comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		_, err := s.ledger.Credit(ctx, p.AccountID, p.Amount)
		return err
	})

	if err := s.store.DeleteIncome(ctx, id); err != nil {
		return comp.fail(ctx, err)
	}

	publish(ctx, s.events, events.NewLedgerEvent(events.KindIncomeDeleted, id, p.Amount.Cents, p.AccountID))
	return nil
}

// List returns the most recent postings, newest first.
func (s *IncomeService) List(ctx context.Context, limit int) ([]core.IncomePosting, error) {
	return s.store.ListIncomes(ctx, limit)
}

// MonthlyBudgetTotal sums the month's postings that count toward the
// budget. Refund postings never do.
func (s *IncomeService) MonthlyBudgetTotal(ctx context.Context, year, month int) (core.Money, error) {
	return s.store.SumBudgetIncome(ctx, year, month)
}
