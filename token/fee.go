package token

import (
	"context"
	"fmt"

	"github.com/anoideaopen/feeledger/core/ledger"
	"github.com/anoideaopen/feeledger/core/types"
)

// TxAddFee sets the fee of recipient in basis points.
func (bt *BaseToken) TxAddFee(ctx context.Context, sender *types.Sender, recipient types.Address, bps uint16) error {
	if err := bt.checkFeeSetter(sender); err != nil {
		return fmt.Errorf("TxAddFee: %w", err)
	}
	if err := bt.ledger.AddFee(ctx, bt.admin, recipient, bps); err != nil {
		return fmt.Errorf("TxAddFee: %w", err)
	}
	return nil
}

// TxRemoveFee removes the fee of recipient. Fees already collected stay
// claimable.
func (bt *BaseToken) TxRemoveFee(ctx context.Context, sender *types.Sender, recipient types.Address) error {
	if err := bt.checkFeeSetter(sender); err != nil {
		return fmt.Errorf("TxRemoveFee: %w", err)
	}
	if err := bt.ledger.RemoveFee(ctx, bt.admin, recipient); err != nil {
		return fmt.Errorf("TxRemoveFee: %w", err)
	}
	return nil
}

// TxSetFeeMode sets the fee exemption of the owner's account.
func (bt *BaseToken) TxSetFeeMode(ctx context.Context, sender *types.Sender, owner types.Address, mode types.FeeMode) error {
	if err := bt.checkFeeSetter(sender); err != nil {
		return fmt.Errorf("TxSetFeeMode: %w", err)
	}

	a, err := bt.ledger.AccountOf(bt.config.Symbol, owner)
	if err != nil {
		return fmt.Errorf("TxSetFeeMode: %w", err)
	}
	if err = bt.ledger.SetFeeMode(ctx, bt.admin, a, mode); err != nil {
		return fmt.Errorf("TxSetFeeMode: %w", err)
	}
	return nil
}

// TxClaimFee moves the fees collected for the sender into the sender's
// account and returns the claimed amount.
func (bt *BaseToken) TxClaimFee(ctx context.Context, sender *types.Sender) (uint64, error) {
	if sender == nil {
		return 0, fmt.Errorf("TxClaimFee: %w", ErrUnauthorized)
	}

	var claimed uint64
	err := bt.ledger.Atomic(ctx, func(tx *ledger.Tx) error {
		a, err := bt.accountOf(tx, sender.Address())
		if err != nil {
			return err
		}
		claimed, err = tx.WithdrawFee(a, bt.policy)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("TxClaimFee: %w", err)
	}
	return claimed, nil
}
