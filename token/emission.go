package token

import (
	"context"
	"fmt"
	"math"

	"github.com/anoideaopen/feeledger/core/ledger"
	"github.com/anoideaopen/feeledger/core/types"
)

// Emission is a share of the initial emission.
type Emission struct {
	Address types.Address
	Amount  uint64
}

// TxEmit issues the initial emission of the token and distributes it without
// fees. It can be called once; afterwards the emission is finalized.
func (bt *BaseToken) TxEmit(ctx context.Context, sender *types.Sender, emissions []Emission) error {
	if err := bt.checkIssuer(sender); err != nil {
		return fmt.Errorf("TxEmit: %w", err)
	}
	if len(emissions) == 0 {
		return fmt.Errorf("TxEmit: %w", ErrNoRecipients)
	}

	var total uint64
	for _, e := range emissions {
		if e.Amount == 0 {
			return fmt.Errorf("TxEmit: %s: %w", e.Address, ErrZeroAmount)
		}
		if e.Amount > math.MaxUint64-total {
			return fmt.Errorf("TxEmit: %w", ErrEmissionOverflow)
		}
		total += e.Amount
	}

	bt.mu.Lock()
	defer bt.mu.Unlock()

	if bt.finalized {
		return fmt.Errorf("TxEmit: %w", ErrEmissionFinalized)
	}

	err := bt.ledger.Atomic(ctx, func(tx *ledger.Tx) error {
		minted, lock, err := tx.MintToLock(bt.admin, total)
		if err != nil {
			return err
		}
		for _, e := range emissions {
			a, err := bt.accountOf(tx, e.Address)
			if err != nil {
				return err
			}
			part, err := minted.Split(e.Amount)
			if err != nil {
				return err
			}
			if _, _, err = tx.Deposit(a, part, lock, bt.policy); err != nil {
				return err
			}
		}
		return tx.DestroyLock(lock)
	})
	if err != nil {
		return fmt.Errorf("TxEmit: %w", err)
	}

	bt.finalized = true
	return nil
}

// TxBurn destroys amount from the issuer's account.
func (bt *BaseToken) TxBurn(ctx context.Context, sender *types.Sender, amount uint64) error {
	if err := bt.checkIssuer(sender); err != nil {
		return fmt.Errorf("TxBurn: %w", err)
	}
	if amount == 0 {
		return fmt.Errorf("TxBurn: %w", ErrZeroAmount)
	}

	a, err := bt.ledger.AccountOf(bt.config.Symbol, sender.Address())
	if err != nil {
		return fmt.Errorf("TxBurn: %w", err)
	}

	bt.mu.Lock()
	defer bt.mu.Unlock()

	err = bt.ledger.Atomic(ctx, func(tx *ledger.Tx) error {
		b, lock, err := tx.WithdrawFromOwner(a, amount, sender.Address())
		if err != nil {
			return err
		}
		if _, err = tx.Burn(b, lock); err != nil {
			return err
		}
		return tx.DestroyLock(lock)
	})
	if err != nil {
		return fmt.Errorf("TxBurn: %w", err)
	}
	return nil
}
