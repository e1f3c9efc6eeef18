// Package balance implements the value primitive of the ledger.
//
// A Balance is never copied: value only moves between balances through Split
// and Join, so the total amount of a currency changes only through its Supply.
package balance

import (
	"errors"
	"fmt"
	"math"

	"github.com/anoideaopen/feeledger/core/types"
)

// Error definitions for balance operations.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrCurrencyMismatch    = errors.New("currency mismatch")
	ErrOverflow            = errors.New("balance overflow")
	ErrRevoked             = errors.New("balance revoked")
	ErrNonZero             = errors.New("balance is not zero")
	ErrSelfJoin            = errors.New("balance can't be joined with itself")
	ErrNoScope             = errors.New("balance scope is required")
)

// noCopy may be embedded into structs which must not be copied after first use.
// See https://golang.org/issues/8005#issuecomment-190753527 for details.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Balance holds an amount of a single currency.
type Balance struct {
	_ noCopy

	currency types.Currency
	value    uint64
	scope    *Scope
}

// Zero returns an empty balance of the currency.
func Zero(currency types.Currency) *Balance {
	return &Balance{currency: currency}
}

// Currency returns the currency of the balance.
func (b *Balance) Currency() types.Currency {
	return b.currency
}

// Value returns the amount held. A revoked balance holds nothing.
func (b *Balance) Value() uint64 {
	if b.revoked() {
		return 0
	}
	return b.value
}

// Split removes amount from b and returns it as a new balance.
func (b *Balance) Split(amount uint64) (*Balance, error) {
	if b.revoked() {
		return nil, ErrRevoked
	}
	if b.value < amount {
		return nil, fmt.Errorf("%w: %d < %d", ErrInsufficientBalance, b.value, amount)
	}

	b.value -= amount
	return &Balance{currency: b.currency, value: amount, scope: b.scope}, nil
}

// WithdrawAll moves the whole value of b into a new balance.
func (b *Balance) WithdrawAll() (*Balance, error) {
	return b.Split(b.Value())
}

// Join moves the whole value of other into b and returns the new value of b.
// other is left empty.
func (b *Balance) Join(other *Balance) (uint64, error) {
	if other == nil {
		return b.Value(), nil
	}
	if b == other {
		return 0, ErrSelfJoin
	}
	if b.currency != other.currency {
		return 0, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, b.currency, other.currency)
	}
	if b.revoked() || other.revoked() {
		return 0, ErrRevoked
	}
	if other.value > math.MaxUint64-b.value {
		return 0, ErrOverflow
	}

	b.value += other.value
	other.value = 0
	return b.value, nil
}

// DestroyZero checks that b is empty so it can be dropped.
func (b *Balance) DestroyZero() error {
	if b.Value() != 0 {
		return ErrNonZero
	}
	return nil
}

// Revoked reports whether the sequence that produced b was rolled back.
func (b *Balance) Revoked() bool {
	return b.revoked()
}

// BoundTo reports whether b belongs to scope.
func (b *Balance) BoundTo(scope *Scope) bool {
	return scope != nil && b.scope == scope
}

func (b *Balance) revoked() bool {
	return b.scope != nil && b.scope.revoked
}

// Checkpoint is a saved value of a balance.
type Checkpoint struct {
	balance *Balance
	value   uint64
}

// Checkpoint saves the current value of b.
func (b *Balance) Checkpoint() Checkpoint {
	return Checkpoint{balance: b, value: b.value}
}

// Restore resets the balance to the saved value. It is meant for rolling back
// a failed ledger sequence, where every value movement since the checkpoint
// is undone together.
func (c Checkpoint) Restore() {
	if c.balance != nil {
		c.balance.value = c.value
	}
}
