package ledger

import (
	"fmt"
	"math"

	"github.com/anoideaopen/feeledger/core/balance"
	"github.com/anoideaopen/feeledger/core/types"
	"github.com/holiman/uint256"
)

var bpsDenominator = uint256.NewInt(MaxBasisPoints)

// ShareOf returns floor(amount*bps/10000). The product is computed in 256
// bits, so it never overflows.
func ShareOf(amount uint64, bps uint16) uint64 {
	share := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(uint64(bps)))
	share.Div(share, bpsDenominator)
	return share.Uint64()
}

type feeShare struct {
	accrual *balance.Balance
	amount  uint64
}

// planFees computes the share of every fee row without moving value, and
// checks that no accrual would overflow.
func (p *Policy) planFees(amount uint64) ([]feeShare, uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var (
		plan  = make([]feeShare, 0, len(p.fees))
		total uint64
	)
	for _, row := range p.fees {
		share := ShareOf(amount, row.BPS)
		if share == 0 {
			continue
		}

		i := p.accrualIndex(row.Recipient)
		if i < 0 {
			return nil, 0, fmt.Errorf("no accrual for fee recipient %s", row.Recipient)
		}
		acc := p.accruals[i].balance
		if share > math.MaxUint64-acc.Value() {
			return nil, 0, fmt.Errorf("accrual of %s: %w", row.Recipient, balance.ErrOverflow)
		}

		plan = append(plan, feeShare{accrual: acc, amount: share})
		total += share
	}
	return plan, total, nil
}

// splitFees moves every planned share from b into the recipients' accruals.
func (p *Policy) splitFees(b *balance.Balance, plan []feeShare) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range plan {
		part, err := b.Split(s.amount)
		if err != nil {
			return err
		}
		if _, err = s.accrual.Join(part); err != nil {
			return err
		}
	}
	return nil
}

// exempt reports whether a deposit into an account with the mode skips fees.
func exempt(applyFee bool, mode types.FeeMode) bool {
	return !applyFee || mode == types.FeeModeExemptAsDestination
}
