package events

import (
	"encoding/json"
	"time"
)

// Event kinds published on the ledger exchange.
const (
	KindExpenseRecorded  = "expense.recorded"
	KindExpenseUpdated   = "expense.updated"
	KindExpenseDeleted   = "expense.deleted"
	KindIncomeRecorded   = "income.recorded"
	KindIncomeUpdated    = "income.updated"
	KindIncomeDeleted    = "income.deleted"
	KindDebtSettled      = "debt.settled"
	KindDebtReopened     = "debt.reopened"
	KindTransferApplied  = "transfer.applied"
	KindGoalContribution = "goal.contribution"
	KindPaymentRecorded  = "payment.recorded"
	KindPaymentUndone    = "payment.undone"
)

// LedgerEvent is the lightweight message published after a write
// commits. Consumers fetch full rows from the store; the event carries
// only enough to know what changed.
type LedgerEvent struct {
	Kind        string    `json:"kind"`
	EntityID    int64     `json:"entity_id"`
	AccountIDs  []int64   `json:"account_ids,omitempty"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind string, entityID, amountCents int64, accountIDs ...int64) LedgerEvent {
	return LedgerEvent{
		Kind:        kind,
		EntityID:    entityID,
		AccountIDs:  accountIDs,
		AmountCents: amountCents,
		Timestamp:   time.Now(),
	}
}

func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return LedgerEvent{}, err
	}
	return e, nil
}
