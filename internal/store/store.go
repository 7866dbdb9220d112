// Package store defines the persistence contract consumed by the
// ledger. Every method is a single atomic operation over exactly one
// collection; there is no multi-collection transaction, which is why
// the ledger layer carries its own compensation logic.
package store

import (
	"context"
	"errors"

	"billetera/internal/core"
)

// ErrVersionConflict is returned by compare-and-swap updates when the
// row's version no longer matches the caller's read.
var ErrVersionConflict = errors.New("version conflict")

// ExportState tracks whether an expense posting has been mirrored to
// the external backup sheet.
type ExportState string

const (
	ExportPending ExportState = "pending"
	ExportDone    ExportState = "done"
	ExportError   ExportState = "error"
)

type Accounts interface {
	CreateAccount(ctx context.Context, a core.Account) (int64, error)
	GetAccount(ctx context.Context, id int64) (core.Account, error)
	ListAccounts(ctx context.Context) ([]core.Account, error)
	// UpdateAccountBalance writes the balance if and only if the stored
	// version still equals expectedVersion, bumping the version on
	// success. Returns ErrVersionConflict otherwise.
	UpdateAccountBalance(ctx context.Context, id int64, balance core.Money, expectedVersion int64) error
	// ZeroAccountBalances resets every account balance (admin reset).
	ZeroAccountBalances(ctx context.Context) error
}

type Incomes interface {
	InsertIncome(ctx context.Context, p core.IncomePosting) (int64, error)
	GetIncome(ctx context.Context, id int64) (core.IncomePosting, error)
	UpdateIncome(ctx context.Context, p core.IncomePosting) error
	DeleteIncome(ctx context.Context, id int64) error
	// ListIncomes returns postings ordered by date descending; limit 0
	// means no limit.
	ListIncomes(ctx context.Context, limit int) ([]core.IncomePosting, error)
	ListIncomesForMonth(ctx context.Context, year, month int) ([]core.IncomePosting, error)
	// SumBudgetIncome totals the month's postings flagged as counting
	// toward the budget.
	SumBudgetIncome(ctx context.Context, year, month int) (core.Money, error)
	// FindRefundForShare locates the companion refund posting created
	// when the given share was settled.
	FindRefundForShare(ctx context.Context, shareID int64) (core.IncomePosting, error)
}

type Expenses interface {
	InsertExpense(ctx context.Context, p core.ExpensePosting) (int64, error)
	GetExpense(ctx context.Context, id int64) (core.ExpensePosting, error)
	UpdateExpense(ctx context.Context, p core.ExpensePosting) error
	// DeleteExpense removes the posting; dependent debt shares cascade
	// (referential integrity is the store's responsibility).
	DeleteExpense(ctx context.Context, id int64) error
	ListExpenses(ctx context.Context, limit int) ([]core.ExpensePosting, error)
	ListExpensesForMonth(ctx context.Context, year, month int) ([]core.ExpensePosting, error)

	// Export bookkeeping for the backup worker.
	PendingExportExpenses(ctx context.Context, limit int) ([]core.ExpensePosting, error)
	MarkExpenseExported(ctx context.Context, id int64) error
	MarkExpenseExportError(ctx context.Context, id int64) error
}

type DebtShares interface {
	InsertShare(ctx context.Context, s core.DebtShare) (int64, error)
	GetShare(ctx context.Context, id int64) (core.DebtShare, error)
	SetSharePaid(ctx context.Context, id int64, paid bool) error
	DeleteShare(ctx context.Context, id int64) error
	DeleteSharesForExpense(ctx context.Context, expenseID int64) error
	ListPendingShares(ctx context.Context) ([]core.DebtShare, error)
	ListSharesForExpense(ctx context.Context, expenseID int64) ([]core.DebtShare, error)
}

type Goals interface {
	CreateGoal(ctx context.Context, g core.SavingsGoal) (int64, error)
	GetGoal(ctx context.Context, id int64) (core.SavingsGoal, error)
	ListGoals(ctx context.Context) ([]core.SavingsGoal, error)
	// UpdateGoalAccumulated is compare-and-swap like account balances.
	UpdateGoalAccumulated(ctx context.Context, id int64, accumulated core.Money, expectedVersion int64) error
	DeleteGoal(ctx context.Context, id int64) error
}

type Recurring interface {
	CreateRecurringItem(ctx context.Context, it core.RecurringItem) (int64, error)
	GetRecurringItem(ctx context.Context, kind core.RecurringKind, id int64) (core.RecurringItem, error)
	ListRecurringItems(ctx context.Context, kind core.RecurringKind) ([]core.RecurringItem, error)
	// SetRecurringLastPaid sets or clears (nil) the last-paid date.
	SetRecurringLastPaid(ctx context.Context, kind core.RecurringKind, id int64, last *core.Date) error
}

type Payments interface {
	InsertPayment(ctx context.Context, r core.PaymentRecord) (int64, error)
	// LatestPaymentForItem returns the most recent record for the item,
	// or a NotFoundError when no history exists.
	LatestPaymentForItem(ctx context.Context, kind core.RecurringKind, itemID int64) (core.PaymentRecord, error)
	DeletePayment(ctx context.Context, id int64) error
	ListPaymentsForMonth(ctx context.Context, year, month int) ([]core.PaymentRecord, error)
}

// Store aggregates every collection plus the destructive admin reset.
type Store interface {
	Accounts
	Incomes
	Expenses
	DebtShares
	Goals
	Recurring
	Payments

	// Reset wipes postings, shares, payment history and goals, zeroes
	// account balances and clears recurring last-paid dates. Dependent
	// collections are cleared first.
	Reset(ctx context.Context) error
	Close() error
}
