package ledger

import (
	"context"
	"fmt"
	"time"

	"billetera/internal/core"
	"billetera/internal/events"
	"billetera/internal/store"
)

// DebtService settles and reopens debt shares. Settling a share credits
// the chosen account and records a companion refund posting; reopening
// reverses the credit. Whether the refund posting is deleted on reopen
// is a deployment policy.
type DebtService struct {
	store  store.Store
	ledger *Ledger
	events events.Publisher

	// DeleteRefundOnUndo removes the companion refund posting when a
	// settlement is reversed. Off by default, leaving an audit trail of
	// posting pairs that cancel out.
	DeleteRefundOnUndo bool

	nowFn func() time.Time
}

func NewDebtService(st store.Store, l *Ledger, pub events.Publisher, deleteRefundOnUndo bool) *DebtService {
	return &DebtService{
		store:              st,
		ledger:             l,
		events:             pub,
		DeleteRefundOnUndo: deleteRefundOnUndo,
		nowFn:              time.Now,
	}
}

// MarkPaid settles the share: credits the destination account, records
// the refund posting linked to the share, and flags the share paid.
// Not idempotent: settling an already-settled share applies the credit
// and refund again. Callers hide the action once a share reads paid.
func (s *DebtService) MarkPaid(ctx context.Context, shareID, accountID int64) error {
	sh, err := s.store.GetShare(ctx, shareID)
	if err != nil {
		return err
	}
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return err
	}

	comp := begin("settle debt share")

	if _, err := s.ledger.Credit(ctx, accountID, sh.Amount); err != nil {
		return comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		_, err := s.ledger.Debit(ctx, accountID, sh.Amount)
		return err
	})

	refund := core.IncomePosting{
		Name:           fmt.Sprintf("Refund from %s", sh.Debtor),
		Amount:         sh.Amount,
		Category:       core.CategoryRefund,
		AccountID:      accountID,
		Date:           core.DateFrom(s.nowFn()),
		CountsInBudget: false,
		DebtShareID:    shareID,
	}
	refundID, err := s.store.InsertIncome(ctx, refund)
	if err != nil {
		return comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		return s.store.DeleteIncome(ctx, refundID)
	})

	if err := s.store.SetSharePaid(ctx, shareID, true); err != nil {
		return comp.fail(ctx, err)
	}

	publish(ctx, s.events, events.NewLedgerEvent(events.KindDebtSettled, shareID, sh.Amount.Cents, accountID))
	return nil
}

// MarkUnpaid reverses a settlement, debiting the given source account.
// The debit has no floor: the refund may already have been spent and
// the balance may legitimately go negative. The companion refund
// posting is deleted only when the policy says so; otherwise the pair
// stays on the books and cancels out.
func (s *DebtService) MarkUnpaid(ctx context.Context, shareID, accountID int64) error {
	sh, err := s.store.GetShare(ctx, shareID)
	if err != nil {
		return err
	}
	if !sh.Paid {
		return core.Validation("debt share is not settled")
	}
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return err
	}

	comp := begin("reopen debt share")

	if _, err := s.ledger.Debit(ctx, accountID, sh.Amount); err != nil {
		return comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		_, err := s.ledger.Credit(ctx, accountID, sh.Amount)
		return err
	})

	if s.DeleteRefundOnUndo {
		refund, err := s.store.FindRefundForShare(ctx, shareID)
		switch {
		case err == nil:
			if err := s.store.DeleteIncome(ctx, refund.ID); err != nil {
				return comp.fail(ctx, err)
			}
			comp.add(func(ctx context.Context) error {
				refund.ID = 0
				_, err := s.store.InsertIncome(ctx, refund)
				return err
			})
		case core.IsNotFound(err):
			// Refund already gone, nothing to remove.
		default:
			return comp.fail(ctx, err)
		}
	}

	if err := s.store.SetSharePaid(ctx, shareID, false); err != nil {
		return comp.fail(ctx, err)
	}

	publish(ctx, s.events, events.NewLedgerEvent(events.KindDebtReopened, shareID, sh.Amount.Cents, accountID))
	return nil
}

// ListPending returns the shares still awaiting settlement.
func (s *DebtService) ListPending(ctx context.Context) ([]core.DebtShare, error) {
	return s.store.ListPendingShares(ctx)
}

// ListForExpense returns every share under one expense posting.
func (s *DebtService) ListForExpense(ctx context.Context, expenseID int64) ([]core.DebtShare, error) {
	return s.store.ListSharesForExpense(ctx, expenseID)
}
