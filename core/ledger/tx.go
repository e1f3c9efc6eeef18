package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/anoideaopen/feeledger/core/balance"
	"github.com/anoideaopen/feeledger/core/identity"
	"github.com/anoideaopen/feeledger/core/notify"
	"github.com/anoideaopen/feeledger/core/types"
	"github.com/sirupsen/logrus"
)

// Tx is one exclusive sequence of ledger operations. Every change made
// through a Tx is applied together when the sequence commits, or undone
// together when it fails.
//
// A Tx is valid only inside the function passed to Ledger.Atomic and must not
// be used from other goroutines.
type Tx struct {
	ledger *Ledger
	ctx    context.Context
	scope  *balance.Scope

	accounts map[*Account]accountCheckpoint
	policies map[*Policy]policyCheckpoint
	claims   []identity.ID
	created  []*Account
	locks    []*TransferLock
	events   []notify.Event

	closed bool
}

func newTx(ctx context.Context, l *Ledger) *Tx {
	return &Tx{
		ledger:   l,
		ctx:      ctx,
		scope:    balance.NewScope(),
		accounts: make(map[*Account]accountCheckpoint),
		policies: make(map[*Policy]policyCheckpoint),
	}
}

// Context returns the context of the sequence.
func (t *Tx) Context() context.Context {
	return t.ctx
}

func (t *Tx) open() error {
	if t.closed {
		return ErrTxClosed
	}
	return nil
}

func (t *Tx) touchAccount(a *Account) {
	if _, ok := t.accounts[a]; !ok {
		t.accounts[a] = a.checkpoint()
	}
}

func (t *Tx) touchPolicy(p *Policy) {
	if _, ok := t.policies[p]; !ok {
		t.policies[p] = p.checkpoint()
	}
}

func (t *Tx) emit(e notify.Event) {
	t.events = append(t.events, e)
}

func (t *Tx) newLock(currency types.Currency, amount uint64, applyFee bool) *TransferLock {
	lock := &TransferLock{
		currency:    currency,
		outstanding: amount,
		applyFee:    applyFee,
		tx:          t,
	}
	t.locks = append(t.locks, lock)
	return lock
}

// member checks that the account is known to the ledger.
func (t *Tx) member(a *Account) error {
	if a == nil {
		return fmt.Errorf("%w: account", ErrNilArgument)
	}
	if got, ok := t.ledger.account(a.id); !ok || got != a {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, a.id)
	}
	return nil
}

// registered checks that p is the policy this ledger holds for its currency.
func (t *Tx) registered(p *Policy) error {
	if p == nil {
		return fmt.Errorf("%w: policy", ErrNilArgument)
	}
	got, err := t.ledger.registry.PolicyFor(p.currency)
	if err != nil {
		return err
	}
	if got != p {
		return fmt.Errorf("%w: %s", ErrForeignPolicy, p.id)
	}
	return nil
}

// owned checks that b was produced inside this sequence.
func (t *Tx) owned(b *balance.Balance) error {
	if b.Revoked() {
		return balance.ErrRevoked
	}
	if !b.BoundTo(t.scope) {
		return ErrForeignBalance
	}
	return nil
}

func (t *Tx) policyOf(admin *AdminCap, p *Policy) error {
	if err := t.registered(p); err != nil {
		return err
	}
	if !admin.boundTo(p) {
		return fmt.Errorf("%w: capability is not bound to policy %s", ErrAccessDenied, p.id)
	}
	return nil
}

// NewAccount opens the account of owner in a registered currency.
func (t *Tx) NewAccount(currency types.Currency, owner types.Address) (*Account, error) {
	if err := t.open(); err != nil {
		return nil, err
	}
	if _, err := t.ledger.registry.PolicyFor(currency); err != nil {
		return nil, err
	}

	id, err := t.ledger.claims.Claim(currency, owner)
	if err != nil {
		if errors.Is(err, identity.ErrAlreadyClaimed) {
			return nil, fmt.Errorf("%w: %w", ErrAccountExists, err)
		}
		return nil, err
	}
	t.claims = append(t.claims, id)

	a := newAccount(id, currency, owner)
	t.ledger.addAccount(a)
	t.created = append(t.created, a)

	t.emit(notify.AccountCreated(currency, id, owner))
	return a, nil
}

// AddFee sets the rate of recipient. An existing row is replaced and moves
// to the end of the split order.
func (t *Tx) AddFee(admin *AdminCap, p *Policy, recipient types.Address, bps uint16) error {
	if err := t.open(); err != nil {
		return err
	}
	if err := t.policyOf(admin, p); err != nil {
		return err
	}

	t.touchPolicy(p)
	if err := p.addFee(recipient, bps); err != nil {
		return err
	}

	t.ledger.log.WithFields(logrus.Fields{
		"currency":  p.currency,
		"policy":    p.id,
		"recipient": recipient,
		"bps":       bps,
	}).Info("fee set")
	return nil
}

// RemoveFee drops the fee row of recipient. Its accrual stays until withdrawn.
func (t *Tx) RemoveFee(admin *AdminCap, p *Policy, recipient types.Address) error {
	if err := t.open(); err != nil {
		return err
	}
	if err := t.policyOf(admin, p); err != nil {
		return err
	}

	t.touchPolicy(p)
	if err := p.removeFee(recipient); err != nil {
		return err
	}

	t.ledger.log.WithFields(logrus.Fields{
		"currency":  p.currency,
		"policy":    p.id,
		"recipient": recipient,
	}).Info("fee removed")
	return nil
}

// SetFeeMode changes the fee exemption of an account.
func (t *Tx) SetFeeMode(admin *AdminCap, a *Account, mode types.FeeMode) error {
	if err := t.open(); err != nil {
		return err
	}
	if err := t.member(a); err != nil {
		return err
	}
	if !mode.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidFeeMode, mode)
	}

	p, err := t.ledger.registry.PolicyFor(a.currency)
	if err != nil {
		return err
	}
	if err = t.policyOf(admin, p); err != nil {
		return err
	}

	t.touchPolicy(p)
	t.touchAccount(a)

	p.setFeeMode(a.owner, mode)
	a.mu.Lock()
	a.feeMode = mode
	a.mu.Unlock()

	t.ledger.log.WithFields(logrus.Fields{
		"currency": a.currency,
		"account":  a.id,
		"mode":     mode,
	}).Info("fee mode set")
	return nil
}

// WithdrawFee moves everything accrued for the account owner into the
// account. It returns the moved amount, zero when nothing was accrued.
func (t *Tx) WithdrawFee(a *Account, p *Policy) (uint64, error) {
	if err := t.open(); err != nil {
		return 0, err
	}
	if err := t.member(a); err != nil {
		return 0, err
	}
	if err := t.registered(p); err != nil {
		return 0, err
	}
	if p.currency != a.currency {
		return 0, fmt.Errorf("%w: policy %s, account %s", ErrCurrencyMismatch, p.currency, a.currency)
	}

	accrued := p.Accrued(a.owner)
	if accrued > math.MaxUint64-a.Balance() {
		return 0, fmt.Errorf("withdraw fee: %w", balance.ErrOverflow)
	}

	t.touchPolicy(p)
	t.touchAccount(a)

	out, err := p.takeAccrual(a.owner)
	if err != nil || out == nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err = a.balance.Join(out); err != nil {
		return 0, err
	}
	return accrued, nil
}

// WithdrawFromOwner takes amount out of the account on behalf of its owner.
// The returned lock must be drained by deposits before the sequence ends.
func (t *Tx) WithdrawFromOwner(
	a *Account,
	amount uint64,
	caller types.Address,
) (*balance.Balance, *TransferLock, error) {
	if err := t.member(a); err != nil {
		return nil, nil, err
	}
	if !caller.Equal(a.owner) {
		return nil, nil, fmt.Errorf("%w: %s is not the owner of %s", ErrAccessDenied, caller, a.id)
	}
	return t.withdraw(a, amount)
}

// WithdrawFromDelegate is WithdrawFromOwner authorised by a delegate whose
// address owns the account, such as another account.
func (t *Tx) WithdrawFromDelegate(
	a *Account,
	delegate Delegate,
	amount uint64,
) (*balance.Balance, *TransferLock, error) {
	if err := t.member(a); err != nil {
		return nil, nil, err
	}
	if delegate == nil {
		return nil, nil, fmt.Errorf("%w: delegate", ErrNilArgument)
	}
	if !delegate.Address().Equal(a.owner) {
		return nil, nil, fmt.Errorf("%w: delegate %s is not the owner of %s",
			ErrAccessDenied, delegate.Address(), a.id)
	}
	return t.withdraw(a, amount)
}

func (t *Tx) withdraw(a *Account, amount uint64) (*balance.Balance, *TransferLock, error) {
	if err := t.open(); err != nil {
		return nil, nil, err
	}

	t.touchAccount(a)

	a.mu.Lock()
	out, err := a.balance.Split(amount)
	mode := a.feeMode
	a.mu.Unlock()
	if err != nil {
		return nil, nil, fmt.Errorf("withdraw from %s: %w", a.id, err)
	}
	t.scope.Bind(out)

	lock := t.newLock(a.currency, amount, mode != types.FeeModeExemptAsSource)
	t.emit(notify.Withdrawal(a.currency, a.id, a.owner, amount))
	return out, lock, nil
}

// Deposit credits b to the account against the lock and returns the
// deposited amount and the fee taken from it. The fee is split between the
// policy's recipients unless the lock or the account is exempt.
func (t *Tx) Deposit(
	a *Account,
	b *balance.Balance,
	lock *TransferLock,
	p *Policy,
) (amount, fee uint64, err error) {
	if err = t.open(); err != nil {
		return 0, 0, err
	}
	if err = t.member(a); err != nil {
		return 0, 0, err
	}
	if b == nil {
		return 0, 0, fmt.Errorf("deposit: %w", ErrNilArgument)
	}
	if err = t.registered(p); err != nil {
		return 0, 0, fmt.Errorf("deposit: %w", err)
	}
	if err = lock.usableIn(t); err != nil {
		return 0, 0, fmt.Errorf("deposit: %w", err)
	}
	for _, c := range []types.Currency{b.Currency(), lock.currency, p.currency} {
		if c != a.currency {
			return 0, 0, fmt.Errorf("deposit: %w: %s and %s", ErrCurrencyMismatch, c, a.currency)
		}
	}
	if err = t.owned(b); err != nil {
		return 0, 0, fmt.Errorf("deposit: %w", err)
	}

	amount = b.Value()
	if amount > lock.outstanding {
		return 0, 0, fmt.Errorf("deposit: %w: %d > %d", ErrLockOverdrawn, amount, lock.outstanding)
	}

	var plan []feeShare
	if !exempt(lock.applyFee, a.FeeMode()) {
		if plan, fee, err = p.planFees(amount); err != nil {
			return 0, 0, fmt.Errorf("deposit: %w", err)
		}
	}
	if amount-fee > math.MaxUint64-a.Balance() {
		return 0, 0, fmt.Errorf("deposit: %w", balance.ErrOverflow)
	}

	t.touchPolicy(p)
	t.touchAccount(a)

	if err = p.splitFees(b, plan); err != nil {
		return 0, 0, fmt.Errorf("deposit: %w", err)
	}

	a.mu.Lock()
	_, err = a.balance.Join(b)
	a.mu.Unlock()
	if err != nil {
		return 0, 0, fmt.Errorf("deposit: %w", err)
	}

	lock.outstanding -= amount
	t.emit(notify.Deposit(a.currency, a.id, a.owner, amount, fee))
	return amount, fee, nil
}

// DestroyLock discards a drained lock.
func (t *Tx) DestroyLock(lock *TransferLock) error {
	if err := t.open(); err != nil {
		return err
	}
	if err := lock.usableIn(t); err != nil {
		return err
	}
	if lock.outstanding != 0 {
		return fmt.Errorf("%w: %d outstanding", ErrLockNotFullyConsumed, lock.outstanding)
	}

	lock.destroyed = true
	return nil
}

// MintToLock issues amount of the policy's currency. Minting is allowed only
// while the supply is zero, and the minted value is fee-free.
func (t *Tx) MintToLock(admin *AdminCap, amount uint64) (*balance.Balance, *TransferLock, error) {
	if err := t.open(); err != nil {
		return nil, nil, err
	}
	if admin == nil {
		return nil, nil, fmt.Errorf("%w: capability", ErrNilArgument)
	}
	p, err := t.ledger.registry.Policy(admin.policy)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrAccessDenied, err)
	}

	t.touchPolicy(p)
	out, err := p.mint(t.scope, amount)
	if err != nil {
		return nil, nil, err
	}

	return out, t.newLock(p.currency, amount, false), nil
}

// Burn destroys b against the lock, returning the value to the supply of its
// currency.
func (t *Tx) Burn(b *balance.Balance, lock *TransferLock) (uint64, error) {
	if err := t.open(); err != nil {
		return 0, err
	}
	if b == nil {
		return 0, fmt.Errorf("burn: %w", ErrNilArgument)
	}
	if err := lock.usableIn(t); err != nil {
		return 0, fmt.Errorf("burn: %w", err)
	}
	if b.Currency() != lock.currency {
		return 0, fmt.Errorf("burn: %w: %s and %s", ErrCurrencyMismatch, b.Currency(), lock.currency)
	}
	if err := t.owned(b); err != nil {
		return 0, fmt.Errorf("burn: %w", err)
	}
	if b.Value() > lock.outstanding {
		return 0, fmt.Errorf("burn: %w: %d > %d", ErrLockOverdrawn, b.Value(), lock.outstanding)
	}

	p, err := t.ledger.registry.PolicyFor(lock.currency)
	if err != nil {
		return 0, fmt.Errorf("burn: %w", err)
	}

	t.touchPolicy(p)
	amount, err := p.burn(b)
	if err != nil {
		return 0, fmt.Errorf("burn: %w", err)
	}

	lock.outstanding -= amount
	return amount, nil
}

func (t *Tx) commit() error {
	for _, lock := range t.locks {
		if lock.outstanding != 0 {
			return fmt.Errorf("%w: %s lock has %d outstanding",
				ErrLockNotFullyConsumed, lock.currency, lock.outstanding)
		}
	}
	t.closed = true
	return nil
}

func (t *Tx) rollback() {
	for a, cp := range t.accounts {
		a.restore(cp)
	}
	for p, cp := range t.policies {
		p.restore(cp)
	}
	for _, a := range t.created {
		t.ledger.removeAccount(a)
	}
	for _, id := range t.claims {
		t.ledger.claims.Release(id)
	}

	t.scope.Revoke()
	t.events = nil
	t.closed = true
}
