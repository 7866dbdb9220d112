package http

import (
	"billetera/internal/core"
	"billetera/internal/ledger"
	"billetera/internal/schedule"
)

// JSON projections of the core types. Amounts travel as cents plus a
// preformatted decimal string so clients never reparse money.

type accountView struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	BalanceCents int64  `json:"balance_cents"`
	Balance      string `json:"balance"`
	Color        string `json:"color,omitempty"`
}

func toAccountView(a core.Account) accountView {
	return accountView{
		ID:           a.ID,
		Name:         a.Name,
		Kind:         string(a.Kind),
		BalanceCents: a.Balance.Cents,
		Balance:      a.Balance.String(),
		Color:        a.Color,
	}
}

type incomeView struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	AmountCents    int64  `json:"amount_cents"`
	Amount         string `json:"amount"`
	Category       string `json:"category"`
	Description    string `json:"description,omitempty"`
	AccountID      int64  `json:"account_id"`
	Date           string `json:"date"`
	CountsInBudget bool   `json:"counts_in_budget"`
	DebtShareID    int64  `json:"debt_share_id,omitempty"`
}

func toIncomeView(p core.IncomePosting) incomeView {
	return incomeView{
		ID:             p.ID,
		Name:           p.Name,
		AmountCents:    p.Amount.Cents,
		Amount:         p.Amount.String(),
		Category:       p.Category,
		Description:    p.Description,
		AccountID:      p.AccountID,
		Date:           p.Date.String(),
		CountsInBudget: p.CountsInBudget,
		DebtShareID:    p.DebtShareID,
	}
}

type expenseView struct {
	ID          int64  `json:"id"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Bucket      string `json:"bucket"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	AccountID   int64  `json:"account_id"`
	Date        string `json:"date"`
}

func toExpenseView(p core.ExpensePosting) expenseView {
	return expenseView{
		ID:          p.ID,
		AmountCents: p.Amount.Cents,
		Amount:      p.Amount.String(),
		Bucket:      string(p.Bucket),
		Category:    p.Category,
		Description: p.Description,
		AccountID:   p.AccountID,
		Date:        p.Date.String(),
	}
}

type shareView struct {
	ID          int64  `json:"id"`
	ExpenseID   int64  `json:"expense_id"`
	Debtor      string `json:"debtor"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Paid        bool   `json:"paid"`
}

func toShareView(sh core.DebtShare) shareView {
	return shareView{
		ID:          sh.ID,
		ExpenseID:   sh.ExpenseID,
		Debtor:      sh.Debtor,
		AmountCents: sh.Amount.Cents,
		Amount:      sh.Amount.String(),
		Paid:        sh.Paid,
	}
}

type goalView struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	TargetCents      int64   `json:"target_cents"`
	AccumulatedCents int64   `json:"accumulated_cents"`
	Progress         float64 `json:"progress"`
	Color            string  `json:"color,omitempty"`
}

func toGoalView(g core.SavingsGoal) goalView {
	v := goalView{
		ID:               g.ID,
		Name:             g.Name,
		TargetCents:      g.Target.Cents,
		AccumulatedCents: g.Accumulated.Cents,
		Color:            g.Color,
	}
	if g.Target.Cents > 0 {
		v.Progress = float64(g.Accumulated.Cents) / float64(g.Target.Cents)
	}
	return v
}

type recurringView struct {
	ID           int64  `json:"id"`
	Kind         string `json:"kind"`
	Name         string `json:"name"`
	AmountCents  int64  `json:"amount_cents"`
	Amount       string `json:"amount"`
	Frequency    string `json:"frequency"`
	Active       bool   `json:"active"`
	LastPaid     string `json:"last_paid,omitempty"`
	Status       string `json:"status"`
	NextDue      string `json:"next_due,omitempty"`
	DaysUntilDue int    `json:"days_until_due"`
}

func toRecurringView(it core.RecurringItem, ev schedule.Evaluation) recurringView {
	v := recurringView{
		ID:           it.ID,
		Kind:         string(it.Kind),
		Name:         it.Name,
		AmountCents:  it.Amount.Cents,
		Amount:       it.Amount.String(),
		Frequency:    string(it.Frequency),
		Active:       it.Active,
		Status:       string(ev.Status),
		DaysUntilDue: ev.DaysUntilDue,
	}
	if it.LastPaid != nil {
		v.LastPaid = it.LastPaid.String()
	}
	if ev.NextDue != nil {
		v.NextDue = ev.NextDue.String()
	}
	return v
}

type transferView struct {
	FromBalanceCents int64  `json:"from_balance_cents"`
	FromBalance      string `json:"from_balance"`
	ToBalanceCents   int64  `json:"to_balance_cents"`
	ToBalance        string `json:"to_balance"`
}

func toTransferView(res ledger.TransferResult) transferView {
	return transferView{
		FromBalanceCents: res.FromBalance.Cents,
		FromBalance:      res.FromBalance.String(),
		ToBalanceCents:   res.ToBalance.Cents,
		ToBalance:        res.ToBalance.String(),
	}
}
