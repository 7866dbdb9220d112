// Package sqlite implements store.Store on an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"billetera/internal/core"
	"billetera/internal/store"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	// Cascade from expense_postings to debt_shares relies on this.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func monthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// Accounts

func (r *Repository) CreateAccount(ctx context.Context, a core.Account) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (name, kind, balance_cents, color) VALUES (?, ?, ?, ?)`,
		a.Name, string(a.Kind), a.Balance.Cents, a.Color)
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	var a core.Account
	var kind string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, kind, balance_cents, color, version FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &kind, &a.Balance.Cents, &a.Color, &a.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.NotFound("account", id)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	a.Kind = core.AccountKind(kind)
	return a, nil
}

func (r *Repository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, kind, balance_cents, color, version FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		var kind string
		if err := rows.Scan(&a.ID, &a.Name, &kind, &a.Balance.Cents, &a.Color, &a.Version); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Kind = core.AccountKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateAccountBalance(ctx context.Context, id int64, balance core.Money, expectedVersion int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = ?, version = version + 1 WHERE id = ? AND version = ?`,
		balance.Cents, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		if _, err := r.GetAccount(ctx, id); err != nil {
			return err
		}
		return store.ErrVersionConflict
	}
	return nil
}

func (r *Repository) ZeroAccountBalances(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = 0, version = version + 1`)
	if err != nil {
		return fmt.Errorf("zero balances: %w", err)
	}
	return nil
}

// Incomes

func (r *Repository) InsertIncome(ctx context.Context, p core.IncomePosting) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO income_postings (name, amount_cents, category, description, account_id, posted_on, counts_in_budget, debt_share_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Amount.Cents, p.Category, p.Description, p.AccountID, p.Date.String(), p.CountsInBudget, p.DebtShareID)
	if err != nil {
		return 0, fmt.Errorf("insert income: %w", err)
	}
	return res.LastInsertId()
}

func scanIncome(row interface{ Scan(...any) error }) (core.IncomePosting, error) {
	var p core.IncomePosting
	var postedOn string
	err := row.Scan(&p.ID, &p.Name, &p.Amount.Cents, &p.Category, &p.Description,
		&p.AccountID, &postedOn, &p.CountsInBudget, &p.DebtShareID)
	if err != nil {
		return core.IncomePosting{}, err
	}
	p.Date, err = core.ParseDate(postedOn)
	if err != nil {
		return core.IncomePosting{}, fmt.Errorf("parse posted_on %q: %w", postedOn, err)
	}
	return p, nil
}

const incomeColumns = `id, name, amount_cents, category, description, account_id, posted_on, counts_in_budget, debt_share_id`

func (r *Repository) GetIncome(ctx context.Context, id int64) (core.IncomePosting, error) {
	p, err := scanIncome(r.db.QueryRowContext(ctx,
		`SELECT `+incomeColumns+` FROM income_postings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.IncomePosting{}, core.NotFound("income", id)
	}
	if err != nil {
		return core.IncomePosting{}, fmt.Errorf("get income: %w", err)
	}
	return p, nil
}

func (r *Repository) UpdateIncome(ctx context.Context, p core.IncomePosting) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE income_postings SET name = ?, amount_cents = ?, category = ?, description = ?,
		 account_id = ?, posted_on = ?, counts_in_budget = ?, debt_share_id = ? WHERE id = ?`,
		p.Name, p.Amount.Cents, p.Category, p.Description, p.AccountID,
		p.Date.String(), p.CountsInBudget, p.DebtShareID, p.ID)
	if err != nil {
		return fmt.Errorf("update income: %w", err)
	}
	return requireRow(res, "income", p.ID)
}

func (r *Repository) DeleteIncome(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM income_postings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	return requireRow(res, "income", id)
}

func (r *Repository) ListIncomes(ctx context.Context, limit int) ([]core.IncomePosting, error) {
	q := `SELECT ` + incomeColumns + ` FROM income_postings ORDER BY posted_on DESC, id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.queryIncomes(ctx, q, args...)
}

func (r *Repository) ListIncomesForMonth(ctx context.Context, year, month int) ([]core.IncomePosting, error) {
	return r.queryIncomes(ctx,
		`SELECT `+incomeColumns+` FROM income_postings WHERE substr(posted_on, 1, 7) = ? ORDER BY posted_on DESC, id DESC`,
		monthKey(year, month))
}

func (r *Repository) queryIncomes(ctx context.Context, q string, args ...any) ([]core.IncomePosting, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.IncomePosting
	for rows.Next() {
		p, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) SumBudgetIncome(ctx context.Context, year, month int) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM income_postings
		 WHERE counts_in_budget = 1 AND substr(posted_on, 1, 7) = ?`,
		monthKey(year, month)).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum budget income: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *Repository) FindRefundForShare(ctx context.Context, shareID int64) (core.IncomePosting, error) {
	if shareID == 0 {
		return core.IncomePosting{}, core.NotFound("refund income", shareID)
	}
	p, err := scanIncome(r.db.QueryRowContext(ctx,
		`SELECT `+incomeColumns+` FROM income_postings WHERE debt_share_id = ? LIMIT 1`, shareID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.IncomePosting{}, core.NotFound("refund income", shareID)
	}
	if err != nil {
		return core.IncomePosting{}, fmt.Errorf("find refund: %w", err)
	}
	return p, nil
}

// Expenses

const expenseColumns = `id, amount_cents, bucket, category, description, account_id, posted_on`

func scanExpense(row interface{ Scan(...any) error }) (core.ExpensePosting, error) {
	var p core.ExpensePosting
	var bucket, postedOn string
	err := row.Scan(&p.ID, &p.Amount.Cents, &bucket, &p.Category, &p.Description, &p.AccountID, &postedOn)
	if err != nil {
		return core.ExpensePosting{}, err
	}
	p.Bucket = core.BudgetBucket(bucket)
	p.Date, err = core.ParseDate(postedOn)
	if err != nil {
		return core.ExpensePosting{}, fmt.Errorf("parse posted_on %q: %w", postedOn, err)
	}
	return p, nil
}

func (r *Repository) InsertExpense(ctx context.Context, p core.ExpensePosting) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expense_postings (amount_cents, bucket, category, description, account_id, posted_on, export_state)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Amount.Cents, string(p.Bucket), p.Category, p.Description, p.AccountID, p.Date.String(), string(store.ExportPending))
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repository) GetExpense(ctx context.Context, id int64) (core.ExpensePosting, error) {
	p, err := scanExpense(r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expense_postings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExpensePosting{}, core.NotFound("expense", id)
	}
	if err != nil {
		return core.ExpensePosting{}, fmt.Errorf("get expense: %w", err)
	}
	return p, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, p core.ExpensePosting) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expense_postings SET amount_cents = ?, bucket = ?, category = ?, description = ?,
		 account_id = ?, posted_on = ? WHERE id = ?`,
		p.Amount.Cents, string(p.Bucket), p.Category, p.Description, p.AccountID, p.Date.String(), p.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res, "expense", p.ID)
}

func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expense_postings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res, "expense", id)
}

func (r *Repository) ListExpenses(ctx context.Context, limit int) ([]core.ExpensePosting, error) {
	q := `SELECT ` + expenseColumns + ` FROM expense_postings ORDER BY posted_on DESC, id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.queryExpenses(ctx, q, args...)
}

func (r *Repository) ListExpensesForMonth(ctx context.Context, year, month int) ([]core.ExpensePosting, error) {
	return r.queryExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expense_postings WHERE substr(posted_on, 1, 7) = ? ORDER BY posted_on DESC, id DESC`,
		monthKey(year, month))
}

func (r *Repository) PendingExportExpenses(ctx context.Context, limit int) ([]core.ExpensePosting, error) {
	q := `SELECT ` + expenseColumns + ` FROM expense_postings WHERE export_state = ? ORDER BY id`
	args := []any{string(store.ExportPending)}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.queryExpenses(ctx, q, args...)
}

func (r *Repository) queryExpenses(ctx context.Context, q string, args ...any) ([]core.ExpensePosting, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.ExpensePosting
	for rows.Next() {
		p, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) MarkExpenseExported(ctx context.Context, id int64) error {
	return r.setExportState(ctx, id, store.ExportDone)
}

func (r *Repository) MarkExpenseExportError(ctx context.Context, id int64) error {
	return r.setExportState(ctx, id, store.ExportError)
}

func (r *Repository) setExportState(ctx context.Context, id int64, state store.ExportState) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expense_postings SET export_state = ? WHERE id = ?`, string(state), id)
	if err != nil {
		return fmt.Errorf("set export state: %w", err)
	}
	return requireRow(res, "expense", id)
}

// Debt shares

func (r *Repository) InsertShare(ctx context.Context, s core.DebtShare) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO debt_shares (expense_id, debtor, amount_cents, paid) VALUES (?, ?, ?, ?)`,
		s.ExpenseID, s.Debtor, s.Amount.Cents, s.Paid)
	if err != nil {
		return 0, fmt.Errorf("insert debt share: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repository) GetShare(ctx context.Context, id int64) (core.DebtShare, error) {
	var s core.DebtShare
	err := r.db.QueryRowContext(ctx,
		`SELECT id, expense_id, debtor, amount_cents, paid FROM debt_shares WHERE id = ?`, id).
		Scan(&s.ID, &s.ExpenseID, &s.Debtor, &s.Amount.Cents, &s.Paid)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DebtShare{}, core.NotFound("debt share", id)
	}
	if err != nil {
		return core.DebtShare{}, fmt.Errorf("get debt share: %w", err)
	}
	return s, nil
}

func (r *Repository) SetSharePaid(ctx context.Context, id int64, paid bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE debt_shares SET paid = ? WHERE id = ?`, paid, id)
	if err != nil {
		return fmt.Errorf("set share paid: %w", err)
	}
	return requireRow(res, "debt share", id)
}

func (r *Repository) DeleteShare(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM debt_shares WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete debt share: %w", err)
	}
	return requireRow(res, "debt share", id)
}

func (r *Repository) DeleteSharesForExpense(ctx context.Context, expenseID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM debt_shares WHERE expense_id = ?`, expenseID)
	if err != nil {
		return fmt.Errorf("delete shares for expense: %w", err)
	}
	return nil
}

func (r *Repository) ListPendingShares(ctx context.Context) ([]core.DebtShare, error) {
	return r.queryShares(ctx,
		`SELECT id, expense_id, debtor, amount_cents, paid FROM debt_shares WHERE paid = 0 ORDER BY id`)
}

func (r *Repository) ListSharesForExpense(ctx context.Context, expenseID int64) ([]core.DebtShare, error) {
	return r.queryShares(ctx,
		`SELECT id, expense_id, debtor, amount_cents, paid FROM debt_shares WHERE expense_id = ? ORDER BY id`,
		expenseID)
}

func (r *Repository) queryShares(ctx context.Context, q string, args ...any) ([]core.DebtShare, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list debt shares: %w", err)
	}
	defer rows.Close()

	var out []core.DebtShare
	for rows.Next() {
		var s core.DebtShare
		if err := rows.Scan(&s.ID, &s.ExpenseID, &s.Debtor, &s.Amount.Cents, &s.Paid); err != nil {
			return nil, fmt.Errorf("scan debt share: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Goals

func (r *Repository) CreateGoal(ctx context.Context, g core.SavingsGoal) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO savings_goals (name, target_cents, accumulated_cents, color) VALUES (?, ?, ?, ?)`,
		g.Name, g.Target.Cents, g.Accumulated.Cents, g.Color)
	if err != nil {
		return 0, fmt.Errorf("insert goal: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repository) GetGoal(ctx context.Context, id int64) (core.SavingsGoal, error) {
	var g core.SavingsGoal
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, target_cents, accumulated_cents, color, version FROM savings_goals WHERE id = ?`, id).
		Scan(&g.ID, &g.Name, &g.Target.Cents, &g.Accumulated.Cents, &g.Color, &g.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, core.NotFound("savings goal", id)
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (r *Repository) ListGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, target_cents, accumulated_cents, color, version FROM savings_goals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.SavingsGoal
	for rows.Next() {
		var g core.SavingsGoal
		if err := rows.Scan(&g.ID, &g.Name, &g.Target.Cents, &g.Accumulated.Cents, &g.Color, &g.Version); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateGoalAccumulated(ctx context.Context, id int64, accumulated core.Money, expectedVersion int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE savings_goals SET accumulated_cents = ?, version = version + 1 WHERE id = ? AND version = ?`,
		accumulated.Cents, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("update goal accumulated: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		if _, err := r.GetGoal(ctx, id); err != nil {
			return err
		}
		return store.ErrVersionConflict
	}
	return nil
}

func (r *Repository) DeleteGoal(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM savings_goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res, "savings goal", id)
}

// Recurring items

func (r *Repository) CreateRecurringItem(ctx context.Context, it core.RecurringItem) (int64, error) {
	var lastPaid any
	if it.LastPaid != nil {
		lastPaid = it.LastPaid.String()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_items (kind, name, amount_cents, frequency, last_paid, active) VALUES (?, ?, ?, ?, ?, ?)`,
		string(it.Kind), it.Name, it.Amount.Cents, string(it.Frequency), lastPaid, it.Active)
	if err != nil {
		return 0, fmt.Errorf("insert recurring item: %w", err)
	}
	return res.LastInsertId()
}

func scanRecurring(row interface{ Scan(...any) error }) (core.RecurringItem, error) {
	var it core.RecurringItem
	var kind, freq string
	var lastPaid sql.NullString
	err := row.Scan(&it.ID, &kind, &it.Name, &it.Amount.Cents, &freq, &lastPaid, &it.Active)
	if err != nil {
		return core.RecurringItem{}, err
	}
	it.Kind = core.RecurringKind(kind)
	it.Frequency = core.Frequency(freq)
	if lastPaid.Valid {
		d, err := core.ParseDate(lastPaid.String)
		if err != nil {
			return core.RecurringItem{}, fmt.Errorf("parse last_paid %q: %w", lastPaid.String, err)
		}
		it.LastPaid = &d
	}
	return it, nil
}

func (r *Repository) GetRecurringItem(ctx context.Context, kind core.RecurringKind, id int64) (core.RecurringItem, error) {
	it, err := scanRecurring(r.db.QueryRowContext(ctx,
		`SELECT id, kind, name, amount_cents, frequency, last_paid, active FROM recurring_items WHERE id = ? AND kind = ?`,
		id, string(kind)))
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringItem{}, core.NotFound(string(kind), id)
	}
	if err != nil {
		return core.RecurringItem{}, fmt.Errorf("get recurring item: %w", err)
	}
	return it, nil
}

func (r *Repository) ListRecurringItems(ctx context.Context, kind core.RecurringKind) ([]core.RecurringItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, name, amount_cents, frequency, last_paid, active FROM recurring_items WHERE kind = ? ORDER BY id`,
		string(kind))
	if err != nil {
		return nil, fmt.Errorf("list recurring items: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringItem
	for rows.Next() {
		it, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repository) SetRecurringLastPaid(ctx context.Context, kind core.RecurringKind, id int64, last *core.Date) error {
	var lastPaid any
	if last != nil {
		lastPaid = last.String()
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_items SET last_paid = ? WHERE id = ? AND kind = ?`,
		lastPaid, id, string(kind))
	if err != nil {
		return fmt.Errorf("set last paid: %w", err)
	}
	return requireRow(res, string(kind), id)
}

// Payments

func (r *Repository) InsertPayment(ctx context.Context, p core.PaymentRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_records (item_id, kind, amount_cents, account_id, paid_on) VALUES (?, ?, ?, ?, ?)`,
		p.ItemID, string(p.Kind), p.Amount.Cents, p.AccountID, p.PaidOn.String())
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	return res.LastInsertId()
}

func scanPayment(row interface{ Scan(...any) error }) (core.PaymentRecord, error) {
	var p core.PaymentRecord
	var kind, paidOn string
	err := row.Scan(&p.ID, &p.ItemID, &kind, &p.Amount.Cents, &p.AccountID, &paidOn)
	if err != nil {
		return core.PaymentRecord{}, err
	}
	p.Kind = core.RecurringKind(kind)
	p.PaidOn, err = core.ParseDate(paidOn)
	if err != nil {
		return core.PaymentRecord{}, fmt.Errorf("parse paid_on %q: %w", paidOn, err)
	}
	return p, nil
}

func (r *Repository) LatestPaymentForItem(ctx context.Context, kind core.RecurringKind, itemID int64) (core.PaymentRecord, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		`SELECT id, item_id, kind, amount_cents, account_id, paid_on FROM payment_records
		 WHERE item_id = ? AND kind = ? ORDER BY paid_on DESC, id DESC LIMIT 1`,
		itemID, string(kind)))
	if errors.Is(err, sql.ErrNoRows) {
		return core.PaymentRecord{}, core.NotFound("payment record", itemID)
	}
	if err != nil {
		return core.PaymentRecord{}, fmt.Errorf("latest payment: %w", err)
	}
	return p, nil
}

func (r *Repository) DeletePayment(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payment_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return requireRow(res, "payment record", id)
}

func (r *Repository) ListPaymentsForMonth(ctx context.Context, year, month int) ([]core.PaymentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, item_id, kind, amount_cents, account_id, paid_on FROM payment_records
		 WHERE substr(paid_on, 1, 7) = ? ORDER BY id`,
		monthKey(year, month))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []core.PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Reset runs inside one transaction, children before parents.
func (r *Repository) Reset(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM debt_shares`,
		`DELETE FROM income_postings`,
		`DELETE FROM expense_postings`,
		`DELETE FROM payment_records`,
		`DELETE FROM savings_goals`,
		`UPDATE accounts SET balance_cents = 0, version = version + 1`,
		`UPDATE recurring_items SET last_paid = NULL`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return tx.Commit()
}

func requireRow(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.NotFound(entity, id)
	}
	return nil
}
