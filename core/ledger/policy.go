package ledger

import (
	"fmt"
	"slices"
	"sync"

	"github.com/anoideaopen/feeledger/core/balance"
	"github.com/anoideaopen/feeledger/core/types"
)

// MaxBasisPoints is the upper bound of a policy's total fee (100%).
const MaxBasisPoints = 10000

// FeeRow is a fee recipient and its rate in basis points.
type FeeRow struct {
	Recipient types.Address
	BPS       uint16
}

type accrual struct {
	recipient types.Address
	balance   *balance.Balance
}

// Policy is the fee policy of a single currency. Fee rows and accruals keep
// insertion order; the fee split walks them in that order.
type Policy struct {
	mu sync.RWMutex

	id       PolicyID
	currency types.Currency
	totalFee uint16
	fees     []FeeRow
	accruals []accrual
	feeModes map[types.Address]types.FeeMode
	supply   *balance.Supply
}

func newPolicy(id PolicyID, currency types.Currency) *Policy {
	return &Policy{
		id:       id,
		currency: currency,
		feeModes: make(map[types.Address]types.FeeMode),
		supply:   balance.NewSupply(currency),
	}
}

// ID returns the policy identity.
func (p *Policy) ID() PolicyID {
	return p.id
}

// Currency returns the currency the policy belongs to.
func (p *Policy) Currency() types.Currency {
	return p.currency
}

// TotalFee returns the sum of all fee rows in basis points.
func (p *Policy) TotalFee() uint16 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.totalFee
}

// Fees returns a copy of the fee rows in split order.
func (p *Policy) Fees() []FeeRow {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return slices.Clone(p.fees)
}

// Fee returns the rate of the recipient.
func (p *Policy) Fee(recipient types.Address) (uint16, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	i := p.feeIndex(recipient)
	if i < 0 {
		return 0, false
	}
	return p.fees[i].BPS, true
}

// Accrued returns the amount collected for the recipient and not yet withdrawn.
func (p *Policy) Accrued(recipient types.Address) uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if i := p.accrualIndex(recipient); i >= 0 {
		return p.accruals[i].balance.Value()
	}
	return 0
}

// Recipients returns every address with an accrual row, in order.
func (p *Policy) Recipients() []types.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]types.Address, 0, len(p.accruals))
	for _, a := range p.accruals {
		out = append(out, a.recipient)
	}
	return out
}

// FeeMode returns the exemption recorded for the owner. Owners without an
// entry are FeeModeStandard.
func (p *Policy) FeeMode(owner types.Address) types.FeeMode {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.feeModes[owner]
}

// Supply returns the issued amount of the currency.
func (p *Policy) Supply() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.supply.Total()
}

// PredictFee returns the fee a fee-bearing deposit of amount would pay.
func (p *Policy) PredictFee(amount uint64) uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var fee uint64
	for _, row := range p.fees {
		fee += ShareOf(amount, row.BPS)
	}
	return fee
}

func (p *Policy) feeIndex(recipient types.Address) int {
	return slices.IndexFunc(p.fees, func(r FeeRow) bool {
		return r.Recipient.Equal(recipient)
	})
}

func (p *Policy) accrualIndex(recipient types.Address) int {
	return slices.IndexFunc(p.accruals, func(a accrual) bool {
		return a.recipient.Equal(recipient)
	})
}

func (p *Policy) addFee(recipient types.Address, bps uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := uint32(p.totalFee) + uint32(bps)
	i := p.feeIndex(recipient)
	if i >= 0 {
		total -= uint32(p.fees[i].BPS)
	}
	if total > MaxBasisPoints {
		return fmt.Errorf("%w: %d", ErrInvalidTotalFee, total)
	}

	if i >= 0 {
		p.fees = slices.Delete(p.fees, i, i+1)
	}
	p.fees = append(p.fees, FeeRow{Recipient: recipient, BPS: bps})
	p.totalFee = uint16(total)

	if p.accrualIndex(recipient) < 0 {
		p.accruals = append(p.accruals, accrual{
			recipient: recipient,
			balance:   balance.Zero(p.currency),
		})
	}
	return nil
}

func (p *Policy) removeFee(recipient types.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.feeIndex(recipient)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrFeeNotFound, recipient)
	}

	p.totalFee -= p.fees[i].BPS
	p.fees = slices.Delete(p.fees, i, i+1)
	return nil
}

func (p *Policy) setFeeMode(owner types.Address, mode types.FeeMode) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if mode == types.FeeModeStandard {
		delete(p.feeModes, owner)
		return
	}
	p.feeModes[owner] = mode
}

// mint issues amount into scope. The supply must still be zero.
func (p *Policy) mint(scope *balance.Scope, amount uint64) (*balance.Balance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if total := p.supply.Total(); total != 0 {
		return nil, fmt.Errorf("%w: %s supply is %d", ErrInvalidMintState, p.currency, total)
	}
	return p.supply.Increase(scope, amount)
}

func (p *Policy) burn(b *balance.Balance) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.supply.Decrease(b)
}

// takeAccrual removes the whole accrual of the recipient. The row is dropped
// once the recipient has no fee row left.
func (p *Policy) takeAccrual(recipient types.Address) (*balance.Balance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.accrualIndex(recipient)
	if i < 0 {
		return nil, nil
	}

	out, err := p.accruals[i].balance.WithdrawAll()
	if err != nil {
		return nil, err
	}
	if p.feeIndex(recipient) < 0 {
		p.accruals = slices.Delete(p.accruals, i, i+1)
	}
	return out, nil
}

type policyCheckpoint struct {
	totalFee uint16
	fees     []FeeRow
	accruals []accrual
	values   []balance.Checkpoint
	feeModes map[types.Address]types.FeeMode
	supply   balance.SupplyCheckpoint
}

func (p *Policy) checkpoint() policyCheckpoint {
	p.mu.RLock()
	defer p.mu.RUnlock()

	cp := policyCheckpoint{
		totalFee: p.totalFee,
		fees:     slices.Clone(p.fees),
		accruals: slices.Clone(p.accruals),
		values:   make([]balance.Checkpoint, 0, len(p.accruals)),
		feeModes: make(map[types.Address]types.FeeMode, len(p.feeModes)),
		supply:   p.supply.Checkpoint(),
	}
	for _, a := range p.accruals {
		cp.values = append(cp.values, a.balance.Checkpoint())
	}
	for owner, mode := range p.feeModes {
		cp.feeModes[owner] = mode
	}
	return cp
}

func (p *Policy) restore(cp policyCheckpoint) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalFee = cp.totalFee
	p.fees = cp.fees
	p.accruals = cp.accruals
	p.feeModes = cp.feeModes
	for _, v := range cp.values {
		v.Restore()
	}
	cp.supply.Restore()
}
