package ledger

import (
	"context"

	"github.com/anoideaopen/feeledger/core/types"
)

// Receipt describes a committed transfer.
type Receipt struct {
	Amount uint64
	Fee    uint64
}

// Net returns the amount the destination received.
func (r Receipt) Net() uint64 {
	return r.Amount - r.Fee
}

// NewAccount opens an account in its own sequence.
func (l *Ledger) NewAccount(ctx context.Context, currency types.Currency, owner types.Address) (*Account, error) {
	var a *Account
	err := l.Atomic(ctx, func(tx *Tx) (err error) {
		a, err = tx.NewAccount(currency, owner)
		return err
	})
	return a, err
}

// AddFee sets a fee row of the policy the capability administers.
func (l *Ledger) AddFee(ctx context.Context, admin *AdminCap, recipient types.Address, bps uint16) error {
	p, err := l.policyOfCap(admin)
	if err != nil {
		return err
	}
	return l.Atomic(ctx, func(tx *Tx) error {
		return tx.AddFee(admin, p, recipient, bps)
	})
}

// RemoveFee drops a fee row of the policy the capability administers.
func (l *Ledger) RemoveFee(ctx context.Context, admin *AdminCap, recipient types.Address) error {
	p, err := l.policyOfCap(admin)
	if err != nil {
		return err
	}
	return l.Atomic(ctx, func(tx *Tx) error {
		return tx.RemoveFee(admin, p, recipient)
	})
}

// SetFeeMode changes the fee exemption of an account.
func (l *Ledger) SetFeeMode(ctx context.Context, admin *AdminCap, a *Account, mode types.FeeMode) error {
	return l.Atomic(ctx, func(tx *Tx) error {
		return tx.SetFeeMode(admin, a, mode)
	})
}

// WithdrawFee moves the accrued fee of the account owner into the account.
func (l *Ledger) WithdrawFee(ctx context.Context, a *Account) (uint64, error) {
	if a == nil {
		return 0, ErrNilArgument
	}
	p, err := l.registry.PolicyFor(a.currency)
	if err != nil {
		return 0, err
	}

	var amount uint64
	err = l.Atomic(ctx, func(tx *Tx) (err error) {
		amount, err = tx.WithdrawFee(a, p)
		return err
	})
	return amount, err
}

// Transfer moves amount from the account of caller to the destination
// account through the fee policy.
func (l *Ledger) Transfer(ctx context.Context, from *Account, caller types.Address, to *Account, amount uint64) (Receipt, error) {
	if from == nil || to == nil {
		return Receipt{}, ErrNilArgument
	}
	p, err := l.registry.PolicyFor(to.currency)
	if err != nil {
		return Receipt{}, err
	}

	var r Receipt
	err = l.Atomic(ctx, func(tx *Tx) error {
		b, lock, err := tx.WithdrawFromOwner(from, amount, caller)
		if err != nil {
			return err
		}
		if r.Amount, r.Fee, err = tx.Deposit(to, b, lock, p); err != nil {
			return err
		}
		return tx.DestroyLock(lock)
	})
	if err != nil {
		return Receipt{}, err
	}
	return r, nil
}

func (l *Ledger) policyOfCap(admin *AdminCap) (*Policy, error) {
	if admin == nil {
		return nil, ErrAccessDenied
	}
	return l.registry.Policy(admin.policy)
}
