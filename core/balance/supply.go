package balance

import (
	"fmt"
	"math"

	"github.com/anoideaopen/feeledger/core/types"
)

// Supply tracks the total issued amount of a currency. It is the only way to
// create or destroy value.
type Supply struct {
	_ noCopy

	currency types.Currency
	total    uint64
}

// NewSupply creates a zero supply of the currency.
func NewSupply(currency types.Currency) *Supply {
	return &Supply{currency: currency}
}

// Currency returns the currency of the supply.
func (s *Supply) Currency() types.Currency {
	return s.currency
}

// Total returns the issued amount.
func (s *Supply) Total() uint64 {
	return s.total
}

// Increase issues amount new units bound to scope. Issued balances always
// belong to a scope.
func (s *Supply) Increase(scope *Scope, amount uint64) (*Balance, error) {
	if scope == nil {
		return nil, ErrNoScope
	}
	if scope.Revoked() {
		return nil, ErrRevoked
	}
	if amount > math.MaxUint64-s.total {
		return nil, ErrOverflow
	}

	s.total += amount
	return &Balance{currency: s.currency, value: amount, scope: scope}, nil
}

// Decrease burns the whole balance and returns the burnt amount.
func (s *Supply) Decrease(b *Balance) (uint64, error) {
	if b.currency != s.currency {
		return 0, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, s.currency, b.currency)
	}
	if b.revoked() {
		return 0, ErrRevoked
	}
	if b.value > s.total {
		return 0, fmt.Errorf("%w: supply %d < %d", ErrInsufficientBalance, s.total, b.value)
	}

	amount := b.value
	s.total -= amount
	b.value = 0
	return amount, nil
}

// SupplyCheckpoint is a saved total of a supply.
type SupplyCheckpoint struct {
	supply *Supply
	total  uint64
}

// Checkpoint saves the current total of s.
func (s *Supply) Checkpoint() SupplyCheckpoint {
	return SupplyCheckpoint{supply: s, total: s.total}
}

// Restore resets the supply to the saved total.
func (c SupplyCheckpoint) Restore() {
	if c.supply != nil {
		c.supply.total = c.total
	}
}
