package ledger

import (
	"context"
	"fmt"
	"time"

	"billetera/internal/core"
	"billetera/internal/events"
	"billetera/internal/store"
)

// SavingsService manages goals and contributions. A contribution debits
// the funding account, grows the goal's accumulated total and writes a
// reporting expense so the month's budget shows the money as saved.
type SavingsService struct {
	store  store.Store
	ledger *Ledger
	events events.Publisher
	nowFn  func() time.Time
}

func NewSavingsService(st store.Store, l *Ledger, pub events.Publisher) *SavingsService {
	return &SavingsService{store: st, ledger: l, events: pub, nowFn: time.Now}
}

func (s *SavingsService) CreateGoal(ctx context.Context, g core.SavingsGoal) (int64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	g.Accumulated = core.Money{}
	return s.store.CreateGoal(ctx, g)
}

func (s *SavingsService) ListGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	return s.store.ListGoals(ctx)
}

// DeleteGoal removes the goal. Accumulated money is reporting state
// only; the funding account balances already reflect every
// contribution, so nothing is credited back.
func (s *SavingsService) DeleteGoal(ctx context.Context, id int64) error {
	return s.store.DeleteGoal(ctx, id)
}

// Contribute funds the goal from the given account. The date stamps
// the reporting posting so backdated deposits land in the right month;
// a zero date means today.
func (s *SavingsService) Contribute(ctx context.Context, goalID, accountID int64, amount core.Money, date core.Date) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	if date.IsZero() {
		date = core.DateFrom(s.nowFn())
	}
	g, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return err
	}

	comp := begin("goal contribution")

	if _, err := s.ledger.DebitChecked(ctx, accountID, amount); err != nil {
		return comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		_, err := s.ledger.Credit(ctx, accountID, amount)
		return err
	})

	if _, err := s.ledger.AddToGoal(ctx, goalID, amount.Cents); err != nil {
		return comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		_, err := s.ledger.AddToGoal(ctx, goalID, -amount.Cents)
		return err
	})

	_, err = s.store.InsertExpense(ctx, core.ExpensePosting{
		Amount:      amount,
		Bucket:      core.Saving,
		Category:    core.CategorySaving,
		Description: fmt.Sprintf("Contribution to: %s", g.Name),
		AccountID:   accountID,
		Date:        date,
	})
	if err != nil {
		return comp.fail(ctx, err)
	}

	publish(ctx, s.events, events.NewLedgerEvent(events.KindGoalContribution, goalID, amount.Cents, accountID))
	return nil
}
