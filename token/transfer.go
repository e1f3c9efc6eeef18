package token

import (
	"context"
	"fmt"

	"github.com/anoideaopen/feeledger/core/ledger"
	"github.com/anoideaopen/feeledger/core/types"
)

// TxTransfer transfers tokens from one account to another. The recipient
// account is opened on first transfer.
func (bt *BaseToken) TxTransfer(
	ctx context.Context,
	sender *types.Sender,
	recipient types.Address,
	amount uint64,
	_ string, // ref
) (ledger.Receipt, error) {
	if sender == nil {
		return ledger.Receipt{}, fmt.Errorf("TxTransfer: %w", ErrUnauthorized)
	}
	if sender.Equal(recipient) {
		return ledger.Receipt{}, fmt.Errorf("TxTransfer: %w", ErrSameAddress)
	}
	if amount == 0 {
		return ledger.Receipt{}, fmt.Errorf("TxTransfer: %w", ErrZeroAmount)
	}

	from, err := bt.ledger.AccountOf(bt.config.Symbol, sender.Address())
	if err != nil {
		return ledger.Receipt{}, fmt.Errorf("TxTransfer: %w", err)
	}

	var r ledger.Receipt
	err = bt.ledger.Atomic(ctx, func(tx *ledger.Tx) error {
		to, err := bt.accountOf(tx, recipient)
		if err != nil {
			return err
		}
		b, lock, err := tx.WithdrawFromOwner(from, amount, sender.Address())
		if err != nil {
			return err
		}
		if r.Amount, r.Fee, err = tx.Deposit(to, b, lock, bt.policy); err != nil {
			return err
		}
		return tx.DestroyLock(lock)
	})
	if err != nil {
		return ledger.Receipt{}, fmt.Errorf("TxTransfer: transferring tokens: %w", err)
	}
	return r, nil
}
