package core

import (
	"strings"
	"time"
)

const (
	// Account kinds.
	Debit   AccountKind = "debit"
	Credit  AccountKind = "credit"
	Cash    AccountKind = "cash"
	Savings AccountKind = "savings"

	// Budget buckets for 50/30/20-style aggregation.
	Necessity BudgetBucket = "necessity"
	Want      BudgetBucket = "want"
	Saving    BudgetBucket = "saving"

	// Recurring item kinds.
	Service      RecurringKind = "service"
	Subscription RecurringKind = "subscription"

	// Payment frequencies.
	Monthly  Frequency = "monthly"
	Biweekly Frequency = "biweekly"
	Annual   Frequency = "annual"

	// CategoryRefund tags the companion income posting created when a
	// debt share is settled. Refund postings never count toward the
	// monthly budget.
	CategoryRefund = "refund"

	// CategorySaving tags reporting-only expense postings produced by
	// transfers and savings contributions.
	CategorySaving = "saving"

	// CategoryServices and CategorySubscriptions bucket recurring
	// payments in the month's category breakdown.
	CategoryServices      = "services"
	CategorySubscriptions = "subscriptions"
)

type (
	AccountKind   string
	BudgetBucket  string
	RecurringKind string
	Frequency     string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Account balance is mutated exclusively through ledger credit/debit
	// primitives. Version backs the compare-and-swap balance write.
	Account struct {
		ID      int64
		Name    string
		Kind    AccountKind
		Balance Money
		Color   string
		Version int64
	}

	IncomePosting struct {
		ID             int64
		Name           string
		Amount         Money
		Category       string
		Description    string
		AccountID      int64
		Date           Date
		CountsInBudget bool
		// DebtShareID links a refund posting back to the settled share
		// (zero for ordinary income).
		DebtShareID int64
	}

	ExpensePosting struct {
		ID          int64
		Amount      Money
		Bucket      BudgetBucket
		Category    string
		Description string
		AccountID   int64
		Date        Date
	}

	// DebtShare is the portion of an expense attributed to a third
	// party expected to reimburse the payer. Shares never touch a
	// balance until settlement.
	DebtShare struct {
		ID        int64
		ExpenseID int64
		Debtor    string
		Amount    Money
		Paid      bool
	}

	SavingsGoal struct {
		ID          int64
		Name        string
		Target      Money
		Accumulated Money
		Color       string
		Version     int64
	}

	RecurringItem struct {
		ID        int64
		Kind      RecurringKind
		Name      string
		Amount    Money
		Frequency Frequency
		LastPaid  *Date
		Active    bool
	}

	PaymentRecord struct {
		ID        int64
		ItemID    int64
		Kind      RecurringKind
		Amount    Money
		AccountID int64
		PaidOn    Date
	}
)

func (k AccountKind) Valid() bool {
	switch k {
	case Debit, Credit, Cash, Savings:
		return true
	}
	return false
}

func (b BudgetBucket) Valid() bool {
	switch b {
	case Necessity, Want, Saving:
		return true
	}
	return false
}

func (k RecurringKind) Valid() bool {
	return k == Service || k == Subscription
}

func (f Frequency) Valid() bool {
	switch f {
	case Monthly, Biweekly, Annual:
		return true
	}
	return false
}

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateFrom truncates a timestamp to its calendar day.
func DateFrom(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) Day() int   { return d.Time.Day() }
func (d Date) Month() int { return int(d.Time.Month()) }
func (d Date) Year() int  { return d.Time.Year() }

// String renders the ISO calendar date, the format used in storage and
// on the wire.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// ParseDate parses an ISO calendar date ("2006-01-02").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// SameMonth reports whether the date falls in the given year and month.
func (d Date) SameMonth(year, month int) bool {
	return d.Year() == year && d.Month() == month
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Kind.Valid() {
		return Validationf("invalid account kind %q", a.Kind)
	}
	return nil
}

func (p IncomePosting) Validate() error {
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if p.AccountID <= 0 {
		return ErrMissingAccount
	}
	if err := p.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (p ExpensePosting) Validate() error {
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if p.AccountID <= 0 {
		return ErrMissingAccount
	}
	if err := p.Date.Validate(); err != nil {
		return err
	}
	if !p.Bucket.Valid() {
		return Validationf("invalid budget bucket %q", p.Bucket)
	}
	if len(p.Description) > 200 {
		return Validationf("description too long (max 200 characters)")
	}
	return nil
}

func (s DebtShare) Validate() error {
	if strings.TrimSpace(s.Debtor) == "" {
		return ErrEmptyName
	}
	return s.Amount.Validate()
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	return g.Target.Validate()
}

func (it RecurringItem) Validate() error {
	if strings.TrimSpace(it.Name) == "" {
		return ErrEmptyName
	}
	if !it.Kind.Valid() {
		return Validationf("invalid recurring kind %q", it.Kind)
	}
	if !it.Frequency.Valid() {
		return Validationf("invalid frequency %q", it.Frequency)
	}
	return it.Amount.Validate()
}
