package ledger

import (
	"context"

	"billetera/internal/core"
	"billetera/internal/store"
)

// AccountService covers account CRUD and the destructive reset. Balance
// mutations never happen here, only through the ledger primitives.
type AccountService struct {
	store store.Store
}

func NewAccountService(st store.Store) *AccountService {
	return &AccountService{store: st}
}

// Create stores a new account. The starting balance is the one write
// that bypasses the credit/debit primitives, since no prior version
// exists to compare against. Negative starting balances are allowed
// for credit accounts carrying existing debt.
func (s *AccountService) Create(ctx context.Context, a core.Account) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	return s.store.CreateAccount(ctx, a)
}

func (s *AccountService) Get(ctx context.Context, id int64) (core.Account, error) {
	return s.store.GetAccount(ctx, id)
}

func (s *AccountService) List(ctx context.Context) ([]core.Account, error) {
	return s.store.ListAccounts(ctx)
}

// Reset wipes postings, debt shares, payment history and goals, zeroes
// every balance and clears recurring last-paid dates. Accounts and
// recurring item definitions survive.
func (s *AccountService) Reset(ctx context.Context) error {
	return s.store.Reset(ctx)
}
