// Package stats builds read-only monthly aggregates over data the
// ledger already produced. Nothing here mutates a balance.
package stats

import (
	"context"
	"fmt"
	"time"

	"billetera/internal/cache"
	"billetera/internal/core"
	"billetera/internal/store"
)

// MonthSummary is the dashboard projection for one calendar month.
type MonthSummary struct {
	Year  int `json:"year"`
	Month int `json:"month"`

	// BudgetIncomeCents counts only income flagged for the budget, so
	// refunds are excluded.
	BudgetIncomeCents int64 `json:"budget_income_cents"`
	ExpenseCents      int64 `json:"expense_cents"`
	NetCents          int64 `json:"net_cents"`

	// ByBucket feeds the 50/30/20 rule view. Recurring payments fold
	// in: services count as necessities, subscriptions as wants.
	ByBucket   map[core.BudgetBucket]int64 `json:"by_bucket"`
	ByCategory map[string]int64            `json:"by_category"`

	PaymentCents int64 `json:"payment_cents"`
}

type Service struct {
	store store.Store
	cache cache.Cache[MonthSummary]
}

// DefaultCacheTTL bounds how stale a dashboard read can be.
const DefaultCacheTTL = 30 * time.Second

func NewService(st store.Store) *Service {
	return &Service{store: st, cache: cache.NewTTLCache[MonthSummary](DefaultCacheTTL)}
}

// Invalidate drops the cached summary for one month. Mutating
// handlers call this so the next dashboard read recomputes.
func (s *Service) Invalidate(year, month int) {
	s.cache.Delete(fmt.Sprintf("%04d-%02d", year, month))
}

// MonthSummary aggregates the month's postings and payment history.
func (s *Service) MonthSummary(ctx context.Context, year, month int) (MonthSummary, error) {
	key := fmt.Sprintf("%04d-%02d", year, month)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	income, err := s.store.SumBudgetIncome(ctx, year, month)
	if err != nil {
		return MonthSummary{}, fmt.Errorf("sum income: %w", err)
	}
	expenses, err := s.store.ListExpensesForMonth(ctx, year, month)
	if err != nil {
		return MonthSummary{}, fmt.Errorf("list expenses: %w", err)
	}
	payments, err := s.store.ListPaymentsForMonth(ctx, year, month)
	if err != nil {
		return MonthSummary{}, fmt.Errorf("list payments: %w", err)
	}

	sum := MonthSummary{
		Year:              year,
		Month:             month,
		BudgetIncomeCents: income.Cents,
		ByBucket:          map[core.BudgetBucket]int64{},
		ByCategory:        map[string]int64{},
	}
	for _, p := range expenses {
		sum.ExpenseCents += p.Amount.Cents
		sum.ByBucket[p.Bucket] += p.Amount.Cents
		sum.ByCategory[p.Category] += p.Amount.Cents
	}
	for _, r := range payments {
		sum.PaymentCents += r.Amount.Cents
		switch r.Kind {
		case core.Service:
			sum.ByBucket[core.Necessity] += r.Amount.Cents
			sum.ByCategory[core.CategoryServices] += r.Amount.Cents
		case core.Subscription:
			sum.ByBucket[core.Want] += r.Amount.Cents
			sum.ByCategory[core.CategorySubscriptions] += r.Amount.Cents
		}
	}
	sum.NetCents = sum.BudgetIncomeCents - sum.ExpenseCents - sum.PaymentCents

	s.cache.Set(key, sum)
	return sum, nil
}
