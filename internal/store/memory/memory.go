// Package memory implements store.Store entirely in process memory.
// It backs tests and the memory backend mode, and mirrors the sqlite
// implementation's semantics including version checks and cascades.
package memory

import (
	"context"
	"sort"
	"sync"

	"billetera/internal/core"
	"billetera/internal/store"
)

type Store struct {
	mu sync.Mutex

	accounts map[int64]core.Account
	incomes  map[int64]core.IncomePosting
	expenses map[int64]core.ExpensePosting
	exports  map[int64]store.ExportState
	shares   map[int64]core.DebtShare
	goals    map[int64]core.SavingsGoal
	items    map[int64]core.RecurringItem
	payments map[int64]core.PaymentRecord

	nextID int64

	// failures maps an operation name to an error returned on its next
	// invocation. Tests use FailNext to exercise compensation paths.
	failures map[string]error
}

func New() *Store {
	return &Store{
		accounts: map[int64]core.Account{},
		incomes:  map[int64]core.IncomePosting{},
		expenses: map[int64]core.ExpensePosting{},
		exports:  map[int64]store.ExportState{},
		shares:   map[int64]core.DebtShare{},
		goals:    map[int64]core.SavingsGoal{},
		items:    map[int64]core.RecurringItem{},
		payments: map[int64]core.PaymentRecord{},
		failures: map[string]error{},
	}
}

// FailNext makes the next call to the named operation return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) takeFailure(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Close() error { return nil }

// Accounts

func (s *Store) CreateAccount(_ context.Context, a core.Account) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("CreateAccount"); err != nil {
		return 0, err
	}
	a.ID = s.id()
	a.Version = 1
	s.accounts[a.ID] = a
	return a.ID, nil
}

func (s *Store) GetAccount(_ context.Context, id int64) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("GetAccount"); err != nil {
		return core.Account{}, err
	}
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, core.NotFound("account", id)
	}
	return a, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateAccountBalance(_ context.Context, id int64, balance core.Money, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("UpdateAccountBalance"); err != nil {
		return err
	}
	a, ok := s.accounts[id]
	if !ok {
		return core.NotFound("account", id)
	}
	if a.Version != expectedVersion {
		return store.ErrVersionConflict
	}
	a.Balance = balance
	a.Version++
	s.accounts[id] = a
	return nil
}

func (s *Store) ZeroAccountBalances(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.accounts {
		a.Balance = core.Money{}
		a.Version++
		s.accounts[id] = a
	}
	return nil
}

// Incomes

func (s *Store) InsertIncome(_ context.Context, p core.IncomePosting) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("InsertIncome"); err != nil {
		return 0, err
	}
	p.ID = s.id()
	s.incomes[p.ID] = p
	return p.ID, nil
}

func (s *Store) GetIncome(_ context.Context, id int64) (core.IncomePosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.incomes[id]
	if !ok {
		return core.IncomePosting{}, core.NotFound("income", id)
	}
	return p, nil
}

func (s *Store) UpdateIncome(_ context.Context, p core.IncomePosting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("UpdateIncome"); err != nil {
		return err
	}
	if _, ok := s.incomes[p.ID]; !ok {
		return core.NotFound("income", p.ID)
	}
	s.incomes[p.ID] = p
	return nil
}

func (s *Store) DeleteIncome(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("DeleteIncome"); err != nil {
		return err
	}
	if _, ok := s.incomes[id]; !ok {
		return core.NotFound("income", id)
	}
	delete(s.incomes, id)
	return nil
}

func (s *Store) ListIncomes(_ context.Context, limit int) ([]core.IncomePosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.IncomePosting, 0, len(s.incomes))
	for _, p := range s.incomes {
		out = append(out, p)
	}
	sortIncomes(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListIncomesForMonth(_ context.Context, year, month int) ([]core.IncomePosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.IncomePosting
	for _, p := range s.incomes {
		if p.Date.Year() == year && p.Date.Month() == month {
			out = append(out, p)
		}
	}
	sortIncomes(out)
	return out, nil
}

func (s *Store) SumBudgetIncome(_ context.Context, year, month int) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total core.Money
	for _, p := range s.incomes {
		if p.CountsInBudget && p.Date.Year() == year && p.Date.Month() == month {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (s *Store) FindRefundForShare(_ context.Context, shareID int64) (core.IncomePosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.incomes {
		if shareID != 0 && p.DebtShareID == shareID {
			return p, nil
		}
	}
	return core.IncomePosting{}, core.NotFound("refund income", shareID)
}

// Expenses

func (s *Store) InsertExpense(_ context.Context, p core.ExpensePosting) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("InsertExpense"); err != nil {
		return 0, err
	}
	p.ID = s.id()
	s.expenses[p.ID] = p
	s.exports[p.ID] = store.ExportPending
	return p.ID, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.ExpensePosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.expenses[id]
	if !ok {
		return core.ExpensePosting{}, core.NotFound("expense", id)
	}
	return p, nil
}

func (s *Store) UpdateExpense(_ context.Context, p core.ExpensePosting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("UpdateExpense"); err != nil {
		return err
	}
	if _, ok := s.expenses[p.ID]; !ok {
		return core.NotFound("expense", p.ID)
	}
	s.expenses[p.ID] = p
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("DeleteExpense"); err != nil {
		return err
	}
	if _, ok := s.expenses[id]; !ok {
		return core.NotFound("expense", id)
	}
	delete(s.expenses, id)
	delete(s.exports, id)
	for sid, sh := range s.shares {
		if sh.ExpenseID == id {
			delete(s.shares, sid)
		}
	}
	return nil
}

func (s *Store) ListExpenses(_ context.Context, limit int) ([]core.ExpensePosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ExpensePosting, 0, len(s.expenses))
	for _, p := range s.expenses {
		out = append(out, p)
	}
	sortExpenses(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListExpensesForMonth(_ context.Context, year, month int) ([]core.ExpensePosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.ExpensePosting
	for _, p := range s.expenses {
		if p.Date.Year() == year && p.Date.Month() == month {
			out = append(out, p)
		}
	}
	sortExpenses(out)
	return out, nil
}

func (s *Store) PendingExportExpenses(_ context.Context, limit int) ([]core.ExpensePosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.ExpensePosting
	for id, st := range s.exports {
		if st != store.ExportPending {
			continue
		}
		if p, ok := s.expenses[id]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkExpenseExported(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return core.NotFound("expense", id)
	}
	s.exports[id] = store.ExportDone
	return nil
}

func (s *Store) MarkExpenseExportError(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return core.NotFound("expense", id)
	}
	s.exports[id] = store.ExportError
	return nil
}

// Debt shares

func (s *Store) InsertShare(_ context.Context, sh core.DebtShare) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("InsertShare"); err != nil {
		return 0, err
	}
	if _, ok := s.expenses[sh.ExpenseID]; !ok {
		return 0, core.NotFound("expense", sh.ExpenseID)
	}
	sh.ID = s.id()
	s.shares[sh.ID] = sh
	return sh.ID, nil
}

func (s *Store) GetShare(_ context.Context, id int64) (core.DebtShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shares[id]
	if !ok {
		return core.DebtShare{}, core.NotFound("debt share", id)
	}
	return sh, nil
}

func (s *Store) SetSharePaid(_ context.Context, id int64, paid bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("SetSharePaid"); err != nil {
		return err
	}
	sh, ok := s.shares[id]
	if !ok {
		return core.NotFound("debt share", id)
	}
	sh.Paid = paid
	s.shares[id] = sh
	return nil
}

func (s *Store) DeleteShare(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("DeleteShare"); err != nil {
		return err
	}
	if _, ok := s.shares[id]; !ok {
		return core.NotFound("debt share", id)
	}
	delete(s.shares, id)
	return nil
}

func (s *Store) DeleteSharesForExpense(_ context.Context, expenseID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("DeleteSharesForExpense"); err != nil {
		return err
	}
	for id, sh := range s.shares {
		if sh.ExpenseID == expenseID {
			delete(s.shares, id)
		}
	}
	return nil
}

func (s *Store) ListPendingShares(_ context.Context) ([]core.DebtShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.DebtShare
	for _, sh := range s.shares {
		if !sh.Paid {
			out = append(out, sh)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListSharesForExpense(_ context.Context, expenseID int64) ([]core.DebtShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.DebtShare
	for _, sh := range s.shares {
		if sh.ExpenseID == expenseID {
			out = append(out, sh)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Goals

func (s *Store) CreateGoal(_ context.Context, g core.SavingsGoal) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("CreateGoal"); err != nil {
		return 0, err
	}
	g.ID = s.id()
	g.Version = 1
	s.goals[g.ID] = g
	return g.ID, nil
}

func (s *Store) GetGoal(_ context.Context, id int64) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok {
		return core.SavingsGoal{}, core.NotFound("savings goal", id)
	}
	return g, nil
}

func (s *Store) ListGoals(_ context.Context) ([]core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.SavingsGoal, 0, len(s.goals))
	for _, g := range s.goals {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateGoalAccumulated(_ context.Context, id int64, accumulated core.Money, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("UpdateGoalAccumulated"); err != nil {
		return err
	}
	g, ok := s.goals[id]
	if !ok {
		return core.NotFound("savings goal", id)
	}
	if g.Version != expectedVersion {
		return store.ErrVersionConflict
	}
	g.Accumulated = accumulated
	g.Version++
	s.goals[id] = g
	return nil
}

func (s *Store) DeleteGoal(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[id]; !ok {
		return core.NotFound("savings goal", id)
	}
	delete(s.goals, id)
	return nil
}

// Recurring items

func (s *Store) CreateRecurringItem(_ context.Context, it core.RecurringItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it.ID = s.id()
	s.items[it.ID] = it
	return it.ID, nil
}

func (s *Store) GetRecurringItem(_ context.Context, kind core.RecurringKind, id int64) (core.RecurringItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok || it.Kind != kind {
		return core.RecurringItem{}, core.NotFound(string(kind), id)
	}
	return it, nil
}

func (s *Store) ListRecurringItems(_ context.Context, kind core.RecurringKind) ([]core.RecurringItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.RecurringItem
	for _, it := range s.items {
		if it.Kind == kind {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SetRecurringLastPaid(_ context.Context, kind core.RecurringKind, id int64, last *core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("SetRecurringLastPaid"); err != nil {
		return err
	}
	it, ok := s.items[id]
	if !ok || it.Kind != kind {
		return core.NotFound(string(kind), id)
	}
	it.LastPaid = last
	s.items[id] = it
	return nil
}

// Payments

func (s *Store) InsertPayment(_ context.Context, r core.PaymentRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("InsertPayment"); err != nil {
		return 0, err
	}
	r.ID = s.id()
	s.payments[r.ID] = r
	return r.ID, nil
}

func (s *Store) LatestPaymentForItem(_ context.Context, kind core.RecurringKind, itemID int64) (core.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best core.PaymentRecord
	found := false
	for _, r := range s.payments {
		if r.Kind != kind || r.ItemID != itemID {
			continue
		}
		if !found || r.PaidOn.After(best.PaidOn.Time) || (r.PaidOn.Equal(best.PaidOn.Time) && r.ID > best.ID) {
			best = r
			found = true
		}
	}
	if !found {
		return core.PaymentRecord{}, core.NotFound("payment record", itemID)
	}
	return best, nil
}

func (s *Store) DeletePayment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("DeletePayment"); err != nil {
		return err
	}
	if _, ok := s.payments[id]; !ok {
		return core.NotFound("payment record", id)
	}
	delete(s.payments, id)
	return nil
}

func (s *Store) ListPaymentsForMonth(_ context.Context, year, month int) ([]core.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.PaymentRecord
	for _, r := range s.payments {
		if r.PaidOn.Year() == year && r.PaidOn.Month() == month {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Reset clears dependent collections before their parents.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shares = map[int64]core.DebtShare{}
	s.incomes = map[int64]core.IncomePosting{}
	s.expenses = map[int64]core.ExpensePosting{}
	s.exports = map[int64]store.ExportState{}
	s.payments = map[int64]core.PaymentRecord{}
	s.goals = map[int64]core.SavingsGoal{}
	for id, a := range s.accounts {
		a.Balance = core.Money{}
		a.Version++
		s.accounts[id] = a
	}
	for id, it := range s.items {
		it.LastPaid = nil
		s.items[id] = it
	}
	return nil
}

func sortIncomes(ps []core.IncomePosting) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].Date.Equal(ps[j].Date.Time) {
			return ps[i].Date.After(ps[j].Date.Time)
		}
		return ps[i].ID > ps[j].ID
	})
}

func sortExpenses(ps []core.ExpensePosting) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].Date.Equal(ps[j].Date.Time) {
			return ps[i].Date.After(ps[j].Date.Time)
		}
		return ps[i].ID > ps[j].ID
	})
}
