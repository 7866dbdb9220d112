package ledger

import (
	"context"
	"time"

	"billetera/internal/core"
	"billetera/internal/events"
	"billetera/internal/store"
)

// PaymentService posts recurring payments (services and subscriptions)
// and undoes the most recent one. Each payment debits an account,
// appends a history record and advances the item's last-paid date.
type PaymentService struct {
	store  store.Store
	ledger *Ledger
	events events.Publisher
	nowFn  func() time.Time
}

func NewPaymentService(st store.Store, l *Ledger, pub events.Publisher) *PaymentService {
	return &PaymentService{store: st, ledger: l, events: pub, nowFn: time.Now}
}

// MarkPaid posts today's payment for the item from the given account.
func (s *PaymentService) MarkPaid(ctx context.Context, kind core.RecurringKind, itemID, accountID int64) error {
	it, err := s.store.GetRecurringItem(ctx, kind, itemID)
	if err != nil {
		return err
	}
	if !it.Active {
		return core.Validation("recurring item is inactive")
	}
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return err
	}
	today := core.DateFrom(s.nowFn())

	comp := begin("mark payment")

	if _, err := s.ledger.DebitChecked(ctx, accountID, it.Amount); err != nil {
		return comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		_, err := s.ledger.Credit(ctx, accountID, it.Amount)
		return err
	})

	recID, err := s.store.InsertPayment(ctx, core.PaymentRecord{
		ItemID:    itemID,
		Kind:      kind,
		Amount:    it.Amount,
		AccountID: accountID,
		PaidOn:    today,
	})
	if err != nil {
		return comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		return s.store.DeletePayment(ctx, recID)
	})

	if err := s.store.SetRecurringLastPaid(ctx, kind, itemID, &today); err != nil {
		return comp.fail(ctx, err)
	}

	publish(ctx, s.events, events.NewLedgerEvent(events.KindPaymentRecorded, recID, it.Amount.Cents, accountID))
	return nil
}

// Undo reverses the item's most recent payment: the debited account is
// credited back, the record deleted, and last-paid rewound to the next
// most recent record. With no history the last-paid date is simply
// cleared.
func (s *PaymentService) Undo(ctx context.Context, kind core.RecurringKind, itemID int64) error {
	if _, err := s.store.GetRecurringItem(ctx, kind, itemID); err != nil {
		return err
	}

	rec, err := s.store.LatestPaymentForItem(ctx, kind, itemID)
	if core.IsNotFound(err) {
		return s.store.SetRecurringLastPaid(ctx, kind, itemID, nil)
	}
	if err != nil {
		return err
	}

	comp := begin("undo payment")

	if _, err := s.ledger.Credit(ctx, rec.AccountID, rec.Amount); err != nil {
		return comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		_, err := s.ledger.Debit(ctx, rec.AccountID, rec.Amount)
		return err
	})

	if err := s.store.DeletePayment(ctx, rec.ID); err != nil {
		return comp.fail(ctx, err)
	}
	comp.add(func(ctx context.Context) error {
		_, err := s.store.InsertPayment(ctx, rec)
		return err
	})

	var last *core.Date
	prev, err := s.store.LatestPaymentForItem(ctx, kind, itemID)
	switch {
	case err == nil:
		last = &prev.PaidOn
	case core.IsNotFound(err):
		last = nil
	default:
		return comp.fail(ctx, err)
	}

	if err := s.store.SetRecurringLastPaid(ctx, kind, itemID, last); err != nil {
		return comp.fail(ctx, err)
	}

	publish(ctx, s.events, events.NewLedgerEvent(events.KindPaymentUndone, rec.ID, rec.Amount.Cents, rec.AccountID))
	return nil
}

// CreateItem registers a new recurring service or subscription.
func (s *PaymentService) CreateItem(ctx context.Context, it core.RecurringItem) (int64, error) {
	if err := it.Validate(); err != nil {
		return 0, err
	}
	return s.store.CreateRecurringItem(ctx, it)
}

func (s *PaymentService) ListItems(ctx context.Context, kind core.RecurringKind) ([]core.RecurringItem, error) {
	if !kind.Valid() {
		return nil, core.Validationf("invalid recurring kind %q", kind)
	}
	return s.store.ListRecurringItems(ctx, kind)
}
