package ledger

import (
	"sync"

	"github.com/anoideaopen/feeledger/core/balance"
	"github.com/anoideaopen/feeledger/core/identity"
	"github.com/anoideaopen/feeledger/core/types"
)

// Delegate is anything that can act for an account owner. An Account is a
// Delegate for the accounts it owns.
type Delegate interface {
	Address() types.Address
}

// Account holds the spendable balance of one owner in one currency.
type Account struct {
	mu sync.RWMutex

	id       identity.ID
	currency types.Currency
	owner    types.Address
	feeMode  types.FeeMode
	balance  *balance.Balance
}

func newAccount(id identity.ID, currency types.Currency, owner types.Address) *Account {
	return &Account{
		id:       id,
		currency: currency,
		owner:    owner,
		balance:  balance.Zero(currency),
	}
}

// ID returns the derived account identity.
func (a *Account) ID() identity.ID {
	return a.id
}

// Address returns the account identity as an address, so the account can own
// other accounts.
func (a *Account) Address() types.Address {
	return a.id.Address()
}

func (a *Account) Currency() types.Currency {
	return a.currency
}

func (a *Account) Owner() types.Address {
	return a.owner
}

func (a *Account) FeeMode() types.FeeMode {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.feeMode
}

// Balance returns the spendable amount.
func (a *Account) Balance() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.balance.Value()
}

type accountCheckpoint struct {
	feeMode types.FeeMode
	balance balance.Checkpoint
}

func (a *Account) checkpoint() accountCheckpoint {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return accountCheckpoint{feeMode: a.feeMode, balance: a.balance.Checkpoint()}
}

func (a *Account) restore(cp accountCheckpoint) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.feeMode = cp.feeMode
	cp.balance.Restore()
}
