package token

import (
	"context"
	"fmt"

	"github.com/anoideaopen/feeledger/core/config"
	"github.com/anoideaopen/feeledger/core/ledger"
	"github.com/anoideaopen/feeledger/core/types"
)

// FromGenesis registers the token described by the genesis entry, applies its
// fee configuration and issues its initial emission.
func FromGenesis(ctx context.Context, l *ledger.Ledger, g config.Token) (*BaseToken, error) {
	bt, err := New(l, Config{
		Name:      g.Name,
		Symbol:    g.Symbol,
		Decimals:  g.Decimals,
		Issuer:    g.Issuer,
		FeeSetter: g.FeeSetter,
	})
	if err != nil {
		return nil, err
	}

	feeSetter := types.NewSenderFromAddr(g.FeeSetter)
	for _, f := range g.Fees {
		if err = bt.TxAddFee(ctx, feeSetter, f.Recipient, f.BPS); err != nil {
			return nil, fmt.Errorf("genesis %s: %w", g.Symbol, err)
		}
	}

	if len(g.Emission) != 0 {
		emissions := make([]Emission, 0, len(g.Emission))
		for _, e := range g.Emission {
			emissions = append(emissions, Emission{Address: e.Address, Amount: e.Amount})
		}
		if err = bt.TxEmit(ctx, types.NewSenderFromAddr(g.Issuer), emissions); err != nil {
			return nil, fmt.Errorf("genesis %s: %w", g.Symbol, err)
		}
	}

	for _, m := range g.FeeModes {
		err = l.Atomic(ctx, func(tx *ledger.Tx) error {
			a, err := bt.accountOf(tx, m.Address)
			if err != nil {
				return err
			}
			return tx.SetFeeMode(bt.admin, a, m.Mode)
		})
		if err != nil {
			return nil, fmt.Errorf("genesis %s: %w", g.Symbol, err)
		}
	}
	return bt, nil
}
