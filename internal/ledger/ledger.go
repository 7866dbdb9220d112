// Package ledger implements the consistency layer over the store:
// balance mutations via compare-and-swap, compensation for multi-step
// writes, and the posting services built on both.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"billetera/internal/core"
	"billetera/internal/store"
)

// DefaultMaxAttempts bounds the compare-and-swap retry loop.
const DefaultMaxAttempts = 5

// Ledger owns the balance primitives. Every account and goal mutation
// in the module goes through it.
type Ledger struct {
	store       store.Store
	maxAttempts int
}

func New(st store.Store, maxAttempts int) *Ledger {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Ledger{store: st, maxAttempts: maxAttempts}
}

// Credit adds amount to the account balance and returns the new balance.
func (l *Ledger) Credit(ctx context.Context, accountID int64, amount core.Money) (core.Money, error) {
	if err := amount.Validate(); err != nil {
		return core.Money{}, err
	}
	return l.apply(ctx, accountID, amount.Cents, false)
}

// Debit subtracts amount with no floor. Used when reversing an earlier
// credit, where the balance may legitimately go negative.
func (l *Ledger) Debit(ctx context.Context, accountID int64, amount core.Money) (core.Money, error) {
	if err := amount.Validate(); err != nil {
		return core.Money{}, err
	}
	return l.apply(ctx, accountID, -amount.Cents, false)
}

// DebitChecked subtracts amount, failing with ErrInsufficientFunds when
// the balance would go negative. The check runs inside the CAS loop so
// it holds against concurrent writers.
func (l *Ledger) DebitChecked(ctx context.Context, accountID int64, amount core.Money) (core.Money, error) {
	if err := amount.Validate(); err != nil {
		return core.Money{}, err
	}
	return l.apply(ctx, accountID, -amount.Cents, true)
}

func (l *Ledger) apply(ctx context.Context, accountID, deltaCents int64, requireFunds bool) (core.Money, error) {
	var lastErr error
	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		a, err := l.store.GetAccount(ctx, accountID)
		if err != nil {
			return core.Money{}, err
		}
		if requireFunds && a.Balance.Cents+deltaCents < 0 {
			return core.Money{}, core.ErrInsufficientFunds
		}
		next := core.Money{Cents: a.Balance.Cents + deltaCents}
		err = l.store.UpdateAccountBalance(ctx, accountID, next, a.Version)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return core.Money{}, err
		}
		lastErr = err
	}
	return core.Money{}, fmt.Errorf("account %d: balance contention after %d attempts: %w", accountID, l.maxAttempts, lastErr)
}

// AddToGoal adjusts a goal's accumulated amount by deltaCents, which
// may be negative when compensating. The accumulated total never drops
// below zero.
func (l *Ledger) AddToGoal(ctx context.Context, goalID, deltaCents int64) (core.SavingsGoal, error) {
	var lastErr error
	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		g, err := l.store.GetGoal(ctx, goalID)
		if err != nil {
			return core.SavingsGoal{}, err
		}
		next := g.Accumulated.Cents + deltaCents
		if next < 0 {
			next = 0
		}
		err = l.store.UpdateGoalAccumulated(ctx, goalID, core.Money{Cents: next}, g.Version)
		if err == nil {
			g.Accumulated = core.Money{Cents: next}
			g.Version++
			return g, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return core.SavingsGoal{}, err
		}
		lastErr = err
	}
	return core.SavingsGoal{}, fmt.Errorf("goal %d: contention after %d attempts: %w", goalID, l.maxAttempts, lastErr)
}
