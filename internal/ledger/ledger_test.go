package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"billetera/internal/core"
	"billetera/internal/store"
	"billetera/internal/store/memory"
)

type env struct {
	store    *memory.Store
	ledger   *Ledger
	accounts *AccountService
	incomes  *IncomeService
	expenses *ExpenseService
	debts    *DebtService
	transfer *TransferService
	savings  *SavingsService
	payments *PaymentService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := memory.New()
	l := New(st, DefaultMaxAttempts)
	e := &env{
		store:    st,
		ledger:   l,
		accounts: NewAccountService(st),
		incomes:  NewIncomeService(st, l, nil),
		expenses: NewExpenseService(st, l, nil),
		debts:    NewDebtService(st, l, nil, false),
		transfer: NewTransferService(st, l, nil),
		savings:  NewSavingsService(st, l, nil),
		payments: NewPaymentService(st, l, nil),
	}
	fixed := func() time.Time { return time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC) }
	e.debts.nowFn = fixed
	e.transfer.nowFn = fixed
	e.savings.nowFn = fixed
	e.payments.nowFn = fixed
	return e
}

func (e *env) account(t *testing.T, name string, cents int64) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := e.accounts.Create(ctx, core.Account{Name: name, Kind: core.Debit})
	if err != nil {
		t.Fatalf("create account %s: %v", name, err)
	}
	if cents > 0 {
		if _, err := e.ledger.Credit(ctx, id, core.Money{Cents: cents}); err != nil {
			t.Fatalf("seed balance: %v", err)
		}
	}
	return id
}

func (e *env) balance(t *testing.T, id int64) int64 {
	t.Helper()
	a, err := e.store.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("get account %d: %v", id, err)
	}
	return a.Balance.Cents
}

func TestRecordIncomeCreditsAccount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 100000)

	_, err := e.incomes.Record(ctx, core.IncomePosting{
		Name: "salary", Amount: core.Money{Cents: 50000}, Category: "salary",
		AccountID: acc, Date: core.NewDate(2026, 8, 1), CountsInBudget: true,
	})
	if err != nil {
		t.Fatalf("record income: %v", err)
	}
	if got := e.balance(t, acc); got != 150000 {
		t.Fatalf("balance = %d, want 150000", got)
	}
}

func TestIncomeDeleteReversesCredit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 100000)

	id, err := e.incomes.Record(ctx, core.IncomePosting{
		Name: "bonus", Amount: core.Money{Cents: 20000}, Category: "bonus",
		AccountID: acc, Date: core.NewDate(2026, 8, 5),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := e.incomes.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := e.balance(t, acc); got != 100000 {
		t.Fatalf("balance = %d after round trip, want 100000", got)
	}
	if _, err := e.store.GetIncome(ctx, id); !core.IsNotFound(err) {
		t.Fatalf("posting still present after delete, err = %v", err)
	}
}

func TestIncomeUpdateMovesEffect(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.account(t, "a", 0)
	b := e.account(t, "b", 0)

	id, err := e.incomes.Record(ctx, core.IncomePosting{
		Name: "salary", Amount: core.Money{Cents: 30000}, Category: "salary",
		AccountID: a, Date: core.NewDate(2026, 8, 1),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	err = e.incomes.Update(ctx, core.IncomePosting{
		ID: id, Name: "salary", Amount: core.Money{Cents: 45000}, Category: "salary",
		AccountID: b, Date: core.NewDate(2026, 8, 1),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := e.balance(t, a); got != 0 {
		t.Fatalf("old account balance = %d, want 0", got)
	}
	if got := e.balance(t, b); got != 45000 {
		t.Fatalf("new account balance = %d, want 45000", got)
	}
}

func TestIncomeUpdateSameDataIsNoOpOnBalance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 0)
	p := core.IncomePosting{
		Name: "salary", Amount: core.Money{Cents: 30000}, Category: "salary",
		AccountID: acc, Date: core.NewDate(2026, 8, 1),
	}
	id, err := e.incomes.Record(ctx, p)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	p.ID = id
	if err := e.incomes.Update(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := e.balance(t, acc); got != 30000 {
		t.Fatalf("balance = %d after identity update, want 30000", got)
	}
}

func TestRecordExpenseWithSplit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 150000)

	id, err := e.expenses.Record(ctx, core.ExpensePosting{
		Amount: core.Money{Cents: 20000}, Bucket: core.Necessity, Category: "food",
		AccountID: acc, Date: core.NewDate(2026, 8, 10),
	}, []core.DebtShare{{Debtor: "Ana", Amount: core.Money{Cents: 8000}}})
	if err != nil {
		t.Fatalf("record expense: %v", err)
	}
	if got := e.balance(t, acc); got != 130000 {
		t.Fatalf("balance = %d, want 130000", got)
	}
	shares, err := e.debts.ListForExpense(ctx, id)
	if err != nil {
		t.Fatalf("list shares: %v", err)
	}
	if len(shares) != 1 || shares[0].Debtor != "Ana" || shares[0].Amount.Cents != 8000 || shares[0].Paid {
		t.Fatalf("shares = %+v, want one unpaid share for Ana of 8000", shares)
	}
}

func TestSplitInvariantRejectedBeforeAnyWrite(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 100000)

	cases := []struct {
		name   string
		shares []core.DebtShare
	}{
		{"shares equal amount", []core.DebtShare{{Debtor: "Ana", Amount: core.Money{Cents: 20000}}}},
		{"shares exceed amount", []core.DebtShare{
			{Debtor: "Ana", Amount: core.Money{Cents: 15000}},
			{Debtor: "Luis", Amount: core.Money{Cents: 10000}},
		}},
		{"empty debtor", []core.DebtShare{{Debtor: " ", Amount: core.Money{Cents: 100}}}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.expenses.Record(ctx, core.ExpensePosting{
				Amount: core.Money{Cents: 20000}, Bucket: core.Want, Category: "dinner",
				AccountID: acc, Date: core.NewDate(2026, 8, 10),
			}, tt.shares)
			if !core.IsValidation(err) {
				t.Fatalf("err = %v, want validation error", err)
			}
			if got := e.balance(t, acc); got != 100000 {
				t.Fatalf("balance = %d after rejected split, want 100000", got)
			}
			exps, _ := e.expenses.List(ctx, 0)
			if len(exps) != 0 {
				t.Fatalf("got %d expense rows after rejected split, want 0", len(exps))
			}
		})
	}
}

func TestExpenseInsufficientFunds(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 5000)

	_, err := e.expenses.Record(ctx, core.ExpensePosting{
		Amount: core.Money{Cents: 9000}, Bucket: core.Want, Category: "gadgets",
		AccountID: acc, Date: core.NewDate(2026, 8, 10),
	}, nil)
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want insufficient funds", err)
	}
	if got := e.balance(t, acc); got != 5000 {
		t.Fatalf("balance = %d, want 5000 untouched", got)
	}
}

func TestExpenseUpdateReplacesShares(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 100000)

	id, err := e.expenses.Record(ctx, core.ExpensePosting{
		Amount: core.Money{Cents: 30000}, Bucket: core.Necessity, Category: "rent",
		AccountID: acc, Date: core.NewDate(2026, 8, 1),
	}, []core.DebtShare{{Debtor: "Ana", Amount: core.Money{Cents: 10000}}})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	err = e.expenses.Update(ctx, core.ExpensePosting{
		ID: id, Amount: core.Money{Cents: 40000}, Bucket: core.Necessity, Category: "rent",
		AccountID: acc, Date: core.NewDate(2026, 8, 1),
	}, []core.DebtShare{
		{Debtor: "Luis", Amount: core.Money{Cents: 5000}},
		{Debtor: "Marta", Amount: core.Money{Cents: 5000}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := e.balance(t, acc); got != 60000 {
		t.Fatalf("balance = %d, want 60000 after moving 30000 to 40000", got)
	}
	shares, _ := e.debts.ListForExpense(ctx, id)
	if len(shares) != 2 {
		t.Fatalf("got %d shares, want split restarted with 2", len(shares))
	}
	for _, sh := range shares {
		if sh.Debtor == "Ana" {
			t.Fatalf("old share survived the edit: %+v", sh)
		}
	}
}

func TestExpenseUpdateSameDataIsNoOpOnBalance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 80000)

	p := core.ExpensePosting{
		Amount: core.Money{Cents: 25000}, Bucket: core.Necessity, Category: "groceries",
		AccountID: acc, Date: core.NewDate(2026, 8, 3),
	}
	id, err := e.expenses.Record(ctx, p, nil)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	before := e.balance(t, acc)

	p.ID = id
	if err := e.expenses.Update(ctx, p, nil); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := e.balance(t, acc); got != before {
		t.Fatalf("balance = %d after same-data edit, want %d", got, before)
	}
}

func TestExpenseDeleteRestoresBalanceAndCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 50000)

	id, err := e.expenses.Record(ctx, core.ExpensePosting{
		Amount: core.Money{Cents: 12000}, Bucket: core.Want, Category: "dinner",
		AccountID: acc, Date: core.NewDate(2026, 8, 12),
	}, []core.DebtShare{{Debtor: "Ana", Amount: core.Money{Cents: 4000}}})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := e.expenses.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := e.balance(t, acc); got != 50000 {
		t.Fatalf("balance = %d after round trip, want 50000", got)
	}
	pending, _ := e.debts.ListPending(ctx)
	if len(pending) != 0 {
		t.Fatalf("got %d orphan shares, want 0", len(pending))
	}
}

func TestSettleDebtShare(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 150000)

	_, err := e.expenses.Record(ctx, core.ExpensePosting{
		Amount: core.Money{Cents: 20000}, Bucket: core.Necessity, Category: "food",
		AccountID: acc, Date: core.NewDate(2026, 8, 10),
	}, []core.DebtShare{{Debtor: "Ana", Amount: core.Money{Cents: 8000}}})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	pending, _ := e.debts.ListPending(ctx)
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	shareID := pending[0].ID

	if err := e.debts.MarkPaid(ctx, shareID, acc); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if got := e.balance(t, acc); got != 138000 {
		t.Fatalf("balance = %d, want 138000", got)
	}
	refund, err := e.store.FindRefundForShare(ctx, shareID)
	if err != nil {
		t.Fatalf("refund posting missing: %v", err)
	}
	if refund.Category != core.CategoryRefund || refund.CountsInBudget || refund.Amount.Cents != 8000 {
		t.Fatalf("refund = %+v, want 8000 refund outside budget", refund)
	}
	sh, _ := e.store.GetShare(ctx, shareID)
	if !sh.Paid {
		t.Fatal("share should be flagged paid")
	}
}

// Settlement is not idempotent. A double settle double-applies; this
// guards the documented behavior, it does not endorse it.
func TestSettleTwiceDoubleApplies(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 100000)

	_, err := e.expenses.Record(ctx, core.ExpensePosting{
		Amount: core.Money{Cents: 10000}, Bucket: core.Want, Category: "dinner",
		AccountID: acc, Date: core.NewDate(2026, 8, 10),
	}, []core.DebtShare{{Debtor: "Ana", Amount: core.Money{Cents: 4000}}})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	pending, _ := e.debts.ListPending(ctx)
	shareID := pending[0].ID

	if err := e.debts.MarkPaid(ctx, shareID, acc); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	after := e.balance(t, acc)

	if err := e.debts.MarkPaid(ctx, shareID, acc); err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if got := e.balance(t, acc); got != after+4000 {
		t.Fatalf("balance after double settle = %d, want %d", got, after+4000)
	}

	// Both refund postings stay on the books.
	incomes, err := e.incomes.List(ctx, 0)
	if err != nil {
		t.Fatalf("list incomes: %v", err)
	}
	refunds := 0
	for _, in := range incomes {
		if in.DebtShareID == shareID {
			refunds++
		}
	}
	if refunds != 2 {
		t.Fatalf("refund postings = %d, want 2", refunds)
	}
}

func TestReopenShareKeepsRefundByDefault(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 100000)

	_, err := e.expenses.Record(ctx, core.ExpensePosting{
		Amount: core.Money{Cents: 10000}, Bucket: core.Want, Category: "dinner",
		AccountID: acc, Date: core.NewDate(2026, 8, 10),
	}, []core.DebtShare{{Debtor: "Ana", Amount: core.Money{Cents: 4000}}})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	pending, _ := e.debts.ListPending(ctx)
	shareID := pending[0].ID
	if err := e.debts.MarkPaid(ctx, shareID, acc); err != nil {
		t.Fatalf("settle: %v", err)
	}

	if err := e.debts.MarkUnpaid(ctx, shareID, acc); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := e.balance(t, acc); got != 90000 {
		t.Fatalf("balance = %d, want 90000 back at post-expense level", got)
	}
	// Audit trail: the refund posting survives the reopen.
	if _, err := e.store.FindRefundForShare(ctx, shareID); err != nil {
		t.Fatalf("refund posting should survive: %v", err)
	}
	sh, _ := e.store.GetShare(ctx, shareID)
	if sh.Paid {
		t.Fatal("share should be unpaid again")
	}
}

func TestReopenShareDeletesRefundWhenPolicySet(t *testing.T) {
	e := newEnv(t)
	e.debts.DeleteRefundOnUndo = true
	ctx := context.Background()
	acc := e.account(t, "checking", 100000)

	_, err := e.expenses.Record(ctx, core.ExpensePosting{
		Amount: core.Money{Cents: 10000}, Bucket: core.Want, Category: "dinner",
		AccountID: acc, Date: core.NewDate(2026, 8, 10),
	}, []core.DebtShare{{Debtor: "Ana", Amount: core.Money{Cents: 4000}}})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	pending, _ := e.debts.ListPending(ctx)
	shareID := pending[0].ID
	if err := e.debts.MarkPaid(ctx, shareID, acc); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if err := e.debts.MarkUnpaid(ctx, shareID, acc); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := e.store.FindRefundForShare(ctx, shareID); !core.IsNotFound(err) {
		t.Fatalf("refund lookup err = %v, want not found under delete policy", err)
	}
}

func TestReopenDebitHasNoFloor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	rich := e.account(t, "rich", 100000)
	poor := e.account(t, "poor", 0)

	_, err := e.expenses.Record(ctx, core.ExpensePosting{
		Amount: core.Money{Cents: 10000}, Bucket: core.Want, Category: "dinner",
		AccountID: rich, Date: core.NewDate(2026, 8, 10),
	}, []core.DebtShare{{Debtor: "Ana", Amount: core.Money{Cents: 4000}}})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	pending, _ := e.debts.ListPending(ctx)
	shareID := pending[0].ID
	if err := e.debts.MarkPaid(ctx, shareID, rich); err != nil {
		t.Fatalf("settle: %v", err)
	}

	// Reopen against an empty account drives it negative.
	if err := e.debts.MarkUnpaid(ctx, shareID, poor); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := e.balance(t, poor); got != -4000 {
		t.Fatalf("balance = %d, want -4000", got)
	}
}

func TestTransferWithSavingsTag(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.account(t, "a", 50000)
	b := e.account(t, "b", 10000)

	res, err := e.transfer.Apply(ctx, Transfer{
		FromAccountID: a, ToAccountID: b,
		Amount: core.Money{Cents: 20000}, CountsAsSavings: true,
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.FromBalance.Cents != 30000 || res.ToBalance.Cents != 30000 {
		t.Fatalf("result = %+v, want 30000/30000", res)
	}
	if e.balance(t, a) != 30000 || e.balance(t, b) != 30000 {
		t.Fatalf("balances = %d/%d, want 30000/30000", e.balance(t, a), e.balance(t, b))
	}
	exps, _ := e.expenses.List(ctx, 0)
	if len(exps) != 1 {
		t.Fatalf("got %d reporting postings, want exactly 1", len(exps))
	}
	p := exps[0]
	if p.Bucket != core.Saving || p.Category != core.CategorySaving || p.AccountID != a || p.Amount.Cents != 20000 {
		t.Fatalf("reporting posting = %+v", p)
	}
}

func TestTransferInsufficientFundsChangesNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.account(t, "a", 5000)
	b := e.account(t, "b", 1000)

	_, err := e.transfer.Apply(ctx, Transfer{
		FromAccountID: a, ToAccountID: b, Amount: core.Money{Cents: 20000},
	})
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want insufficient funds", err)
	}
	if e.balance(t, a) != 5000 || e.balance(t, b) != 1000 {
		t.Fatalf("balances moved: %d/%d", e.balance(t, a), e.balance(t, b))
	}
}

func TestTransferToSelfRejected(t *testing.T) {
	e := newEnv(t)
	a := e.account(t, "a", 5000)
	_, err := e.transfer.Apply(context.Background(), Transfer{
		FromAccountID: a, ToAccountID: a, Amount: core.Money{Cents: 100},
	})
	if !core.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestGoalContribution(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 50000)
	goalID, err := e.savings.CreateGoal(ctx, core.SavingsGoal{Name: "vacation", Target: core.Money{Cents: 200000}})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	if err := e.savings.Contribute(ctx, goalID, acc, core.Money{Cents: 15000}, core.Date{}); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if got := e.balance(t, acc); got != 35000 {
		t.Fatalf("balance = %d, want 35000", got)
	}
	g, _ := e.store.GetGoal(ctx, goalID)
	if g.Accumulated.Cents != 15000 {
		t.Fatalf("accumulated = %d, want 15000", g.Accumulated.Cents)
	}
	exps, _ := e.expenses.List(ctx, 0)
	if len(exps) != 1 || exps[0].Bucket != core.Saving || exps[0].Description != "Contribution to: vacation" {
		t.Fatalf("reporting posting = %+v", exps)
	}
}

func TestGoalContributionBackdated(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 50000)
	goalID, err := e.savings.CreateGoal(ctx, core.SavingsGoal{Name: "vacation", Target: core.Money{Cents: 200000}})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	when := core.NewDate(2026, 3, 15)
	if err := e.savings.Contribute(ctx, goalID, acc, core.Money{Cents: 2500}, when); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	exps, err := e.store.ListExpensesForMonth(ctx, 2026, 3)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(exps) != 1 || !exps[0].Date.Equal(when.Time) {
		t.Fatalf("reporting posting = %+v, want one dated 2026-03-15", exps)
	}
}

func TestGoalContributionInsufficientFunds(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 1000)
	goalID, _ := e.savings.CreateGoal(ctx, core.SavingsGoal{Name: "car", Target: core.Money{Cents: 500000}})

	err := e.savings.Contribute(ctx, goalID, acc, core.Money{Cents: 5000}, core.Date{})
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want insufficient funds", err)
	}
	g, _ := e.store.GetGoal(ctx, goalID)
	if g.Accumulated.Cents != 0 {
		t.Fatalf("accumulated = %d, want 0", g.Accumulated.Cents)
	}
}

func TestPaymentMarkPaidAndUndo(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 50000)
	itemID, err := e.payments.CreateItem(ctx, core.RecurringItem{
		Kind: core.Subscription, Name: "music", Amount: core.Money{Cents: 1200},
		Frequency: core.Monthly, Active: true,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	if err := e.payments.MarkPaid(ctx, core.Subscription, itemID, acc); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if got := e.balance(t, acc); got != 48800 {
		t.Fatalf("balance = %d, want 48800", got)
	}
	it, _ := e.store.GetRecurringItem(ctx, core.Subscription, itemID)
	if it.LastPaid == nil || it.LastPaid.String() != "2026-08-15" {
		t.Fatalf("last paid = %v, want 2026-08-15", it.LastPaid)
	}

	if err := e.payments.Undo(ctx, core.Subscription, itemID); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if got := e.balance(t, acc); got != 50000 {
		t.Fatalf("balance = %d after undo, want 50000", got)
	}
	it, _ = e.store.GetRecurringItem(ctx, core.Subscription, itemID)
	if it.LastPaid != nil {
		t.Fatalf("last paid = %v after undo with no prior history, want nil", it.LastPaid)
	}
}

func TestPaymentUndoRollsBackToPriorRecord(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 50000)
	itemID, _ := e.payments.CreateItem(ctx, core.RecurringItem{
		Kind: core.Service, Name: "power", Amount: core.Money{Cents: 4000},
		Frequency: core.Monthly, Active: true,
	})

	// Prior cycle's record already on the books.
	_, err := e.store.InsertPayment(ctx, core.PaymentRecord{
		ItemID: itemID, Kind: core.Service, Amount: core.Money{Cents: 4000},
		AccountID: acc, PaidOn: core.NewDate(2026, 7, 15),
	})
	if err != nil {
		t.Fatalf("seed history: %v", err)
	}

	if err := e.payments.MarkPaid(ctx, core.Service, itemID, acc); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if err := e.payments.Undo(ctx, core.Service, itemID); err != nil {
		t.Fatalf("undo: %v", err)
	}
	it, _ := e.store.GetRecurringItem(ctx, core.Service, itemID)
	if it.LastPaid == nil || it.LastPaid.String() != "2026-07-15" {
		t.Fatalf("last paid = %v, want rollback to 2026-07-15", it.LastPaid)
	}
}

func TestPaymentUndoWithoutHistoryClearsDate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	itemID, _ := e.payments.CreateItem(ctx, core.RecurringItem{
		Kind: core.Service, Name: "water", Amount: core.Money{Cents: 2000},
		Frequency: core.Biweekly, Active: true,
	})
	stale := core.NewDate(2026, 6, 1)
	if err := e.store.SetRecurringLastPaid(ctx, core.Service, itemID, &stale); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := e.payments.Undo(ctx, core.Service, itemID); err != nil {
		t.Fatalf("undo: %v", err)
	}
	it, _ := e.store.GetRecurringItem(ctx, core.Service, itemID)
	if it.LastPaid != nil {
		t.Fatalf("last paid = %v, want nil", it.LastPaid)
	}
}

func TestInactiveItemPaymentRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 50000)
	itemID, _ := e.payments.CreateItem(ctx, core.RecurringItem{
		Kind: core.Subscription, Name: "old gym", Amount: core.Money{Cents: 3000},
		Frequency: core.Monthly, Active: false,
	})

	if err := e.payments.MarkPaid(ctx, core.Subscription, itemID, acc); !core.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestCompensationRestoresBalance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 100000)

	_, err := e.expenses.Record(ctx, core.ExpensePosting{
		Amount: core.Money{Cents: 10000}, Bucket: core.Want, Category: "dinner",
		AccountID: acc, Date: core.NewDate(2026, 8, 10),
	}, []core.DebtShare{{Debtor: "Ana", Amount: core.Money{Cents: 4000}}})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	pending, _ := e.debts.ListPending(ctx)
	shareID := pending[0].ID

	// The final step of settling fails; the credit and refund insert
	// must be rolled back.
	boom := errors.New("disk full")
	e.store.FailNext("SetSharePaid", boom)
	err = e.debts.MarkPaid(ctx, shareID, acc)
	if err == nil || core.IsPartialFailure(err) {
		t.Fatalf("err = %v, want plain failure after clean compensation", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped cause", err)
	}
	if got := e.balance(t, acc); got != 90000 {
		t.Fatalf("balance = %d, want 90000 restored", got)
	}
	if _, err := e.store.FindRefundForShare(ctx, shareID); !core.IsNotFound(err) {
		t.Fatalf("refund should be rolled back, err = %v", err)
	}
	sh, _ := e.store.GetShare(ctx, shareID)
	if sh.Paid {
		t.Fatal("share must remain unpaid")
	}
}

func TestCompensationFailureSurfacesPartialFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 100000)

	_, err := e.expenses.Record(ctx, core.ExpensePosting{
		Amount: core.Money{Cents: 10000}, Bucket: core.Want, Category: "dinner",
		AccountID: acc, Date: core.NewDate(2026, 8, 10),
	}, []core.DebtShare{{Debtor: "Ana", Amount: core.Money{Cents: 4000}}})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	pending, _ := e.debts.ListPending(ctx)
	shareID := pending[0].ID

	e.store.FailNext("SetSharePaid", errors.New("disk full"))
	e.store.FailNext("DeleteIncome", errors.New("still broken"))
	err = e.debts.MarkPaid(ctx, shareID, acc)
	if !core.IsPartialFailure(err) {
		t.Fatalf("err = %v, want partial failure", err)
	}
}

func TestBalanceWriteRetriesOnConflict(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 10000)

	// One stale write injected; the retry loop re-reads and succeeds.
	e.store.FailNext("UpdateAccountBalance", store.ErrVersionConflict)
	bal, err := e.ledger.Credit(ctx, acc, core.Money{Cents: 500})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if bal.Cents != 10500 {
		t.Fatalf("balance = %d, want 10500", bal.Cents)
	}
}

func TestResetZeroesEverything(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acc := e.account(t, "checking", 100000)
	_, err := e.expenses.Record(ctx, core.ExpensePosting{
		Amount: core.Money{Cents: 10000}, Bucket: core.Want, Category: "dinner",
		AccountID: acc, Date: core.NewDate(2026, 8, 10),
	}, []core.DebtShare{{Debtor: "Ana", Amount: core.Money{Cents: 4000}}})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := e.accounts.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := e.balance(t, acc); got != 0 {
		t.Fatalf("balance = %d after reset, want 0", got)
	}
	exps, _ := e.expenses.List(ctx, 0)
	pending, _ := e.debts.ListPending(ctx)
	if len(exps) != 0 || len(pending) != 0 {
		t.Fatalf("history survived reset: %d expenses, %d shares", len(exps), len(pending))
	}
}
