package ledger

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/anoideaopen/feeledger/core/balance"
	"github.com/anoideaopen/feeledger/core/identity"
	"github.com/anoideaopen/feeledger/core/notify"
	"github.com/anoideaopen/feeledger/core/telemetry"
	"github.com/anoideaopen/feeledger/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const testCurrency types.Currency = "FEE"

var errTest = errors.New("test error")

func addr(fill byte) types.Address {
	var a types.Address
	for i := range a {
		a[i] = fill ^ byte(i)
	}
	return a
}

var (
	alice = addr(0xa1)
	bob   = addr(0xb2)
	feeR1 = addr(0xc3)
	feeR2 = addr(0xd4)
)

type fixture struct {
	ledger *Ledger
	policy *Policy
	admin  *AdminCap
	events *notify.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	rec := &notify.Recorder{}
	l := New(WithSink(rec))
	p, admin, err := l.Register(testCurrency)
	require.NoError(t, err)

	return &fixture{
		ledger: l,
		policy: p,
		admin:  admin,
		events: rec,
	}
}

// mint opens the account of owner and emits amount into it.
func (f *fixture) mint(t *testing.T, owner types.Address, amount uint64) *Account {
	t.Helper()

	var a *Account
	err := f.ledger.Atomic(context.Background(), func(tx *Tx) (err error) {
		if a, err = tx.NewAccount(testCurrency, owner); err != nil {
			return err
		}
		b, lock, err := tx.MintToLock(f.admin, amount)
		if err != nil {
			return err
		}
		if _, _, err = tx.Deposit(a, b, lock, f.policy); err != nil {
			return err
		}
		return tx.DestroyLock(lock)
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) open(t *testing.T, owner types.Address) *Account {
	t.Helper()

	a, err := f.ledger.NewAccount(context.Background(), testCurrency, owner)
	require.NoError(t, err)
	return a
}

func TestRegister(t *testing.T) {
	t.Parallel()

	l := New()
	p, admin, err := l.Register(testCurrency)
	require.NoError(t, err)
	assert.Equal(t, p.ID(), admin.PolicyID())
	assert.Equal(t, testCurrency, p.Currency())
	assert.Zero(t, p.TotalFee())
	assert.Empty(t, p.Fees())

	_, _, err = l.Register(testCurrency)
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	id, err := l.Lookup(testCurrency)
	require.NoError(t, err)
	assert.Equal(t, p.ID(), id)

	_, err = l.Lookup("NOPE")
	require.ErrorIs(t, err, ErrNotRegistered)

	_, _, err = l.Register("")
	require.ErrorIs(t, err, types.ErrEmptyCurrency)

	_, _, err = l.Register("ALT")
	require.NoError(t, err)
	assert.Equal(t, []types.Currency{"ALT", testCurrency}, l.Registry().Currencies())
}

func TestTwoRecipientScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	a := f.mint(t, alice, 10000)
	b := f.open(t, bob)

	require.NoError(t, f.ledger.AddFee(ctx, f.admin, feeR1, 1000))
	require.NoError(t, f.ledger.AddFee(ctx, f.admin, feeR2, 1000))
	assert.Equal(t, uint16(2000), f.policy.TotalFee())

	r, err := f.ledger.Transfer(ctx, a, alice, b, 5000)
	require.NoError(t, err)
	assert.Equal(t, Receipt{Amount: 5000, Fee: 1000}, r)
	assert.Equal(t, uint64(4000), r.Net())
	assert.Equal(t, uint64(4000), b.Balance())
	assert.Equal(t, uint64(500), f.policy.Accrued(feeR1))
	assert.Equal(t, uint64(500), f.policy.Accrued(feeR2))

	_, err = f.ledger.Transfer(ctx, a, alice, b, 2500)
	require.NoError(t, err)
	assert.Equal(t, uint64(2500), a.Balance())
	assert.Equal(t, uint64(6000), b.Balance())
	assert.Equal(t, uint64(750), f.policy.Accrued(feeR1))
	assert.Equal(t, uint64(750), f.policy.Accrued(feeR2))

	accrued, err := f.ledger.AccruedFee(testCurrency, feeR1)
	require.NoError(t, err)
	assert.Equal(t, uint64(750), accrued)
	assert.Equal(t, uint64(6000), f.ledger.BalanceOf(testCurrency, bob))
	assert.Equal(t, f.policy.Supply(), a.Balance()+b.Balance()+1500)
}

func TestAddFeeReplaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.ledger.AddFee(ctx, f.admin, feeR1, 1000))
	require.NoError(t, f.ledger.AddFee(ctx, f.admin, feeR2, 300))
	require.NoError(t, f.ledger.AddFee(ctx, f.admin, feeR1, 500))

	assert.Equal(t, uint16(800), f.policy.TotalFee())
	assert.Equal(t, []FeeRow{
		{Recipient: feeR2, BPS: 300},
		{Recipient: feeR1, BPS: 500},
	}, f.policy.Fees())
	assert.Equal(t, []types.Address{feeR1, feeR2}, f.policy.Recipients())

	bps, ok := f.policy.Fee(feeR1)
	assert.True(t, ok)
	assert.Equal(t, uint16(500), bps)
}

func TestAddFeeBound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.ledger.AddFee(ctx, f.admin, feeR1, 6000))
	err := f.ledger.AddFee(ctx, f.admin, feeR2, 4001)
	require.ErrorIs(t, err, ErrInvalidTotalFee)
	assert.Equal(t, uint16(6000), f.policy.TotalFee())
	assert.Len(t, f.policy.Fees(), 1)
	assert.Equal(t, []types.Address{feeR1}, f.policy.Recipients())

	require.NoError(t, f.ledger.AddFee(ctx, f.admin, feeR1, MaxBasisPoints))
	assert.Equal(t, uint16(MaxBasisPoints), f.policy.TotalFee())
	require.NoError(t, f.ledger.AddFee(ctx, f.admin, feeR2, 0))

	err = f.ledger.AddFee(ctx, f.admin, feeR1, math.MaxUint16)
	require.ErrorIs(t, err, ErrInvalidTotalFee)
}

func TestRemoveFee(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	a := f.mint(t, alice, 1000)
	r := f.open(t, feeR1)

	err := f.ledger.RemoveFee(ctx, f.admin, feeR1)
	require.ErrorIs(t, err, ErrFeeNotFound)

	require.NoError(t, f.ledger.AddFee(ctx, f.admin, feeR1, 100))
	_, err = f.ledger.Transfer(ctx, a, alice, r, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), f.policy.Accrued(feeR1))

	require.NoError(t, f.ledger.RemoveFee(ctx, f.admin, feeR1))
	assert.Zero(t, f.policy.TotalFee())
	_, ok := f.policy.Fee(feeR1)
	assert.False(t, ok)
	assert.Equal(t, uint64(10), f.policy.Accrued(feeR1), "accrual survives fee removal")

	err = f.ledger.RemoveFee(ctx, f.admin, feeR1)
	require.ErrorIs(t, err, ErrFeeNotFound)

	claimed, err := f.ledger.WithdrawFee(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), claimed)
	assert.Equal(t, uint64(1000), r.Balance())
	assert.Empty(t, f.policy.Recipients())
}

func TestAdminCapBinding(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	a := f.open(t, alice)

	_, other, err := f.ledger.Register("ALT")
	require.NoError(t, err)

	err = f.ledger.Atomic(ctx, func(tx *Tx) error {
		return tx.AddFee(other, f.policy, feeR1, 10)
	})
	require.ErrorIs(t, err, ErrAccessDenied)

	err = f.ledger.Atomic(ctx, func(tx *Tx) error {
		return tx.RemoveFee(nil, f.policy, feeR1)
	})
	require.ErrorIs(t, err, ErrAccessDenied)

	err = f.ledger.SetFeeMode(ctx, other, a, types.FeeModeExemptAsSource)
	require.ErrorIs(t, err, ErrAccessDenied)
	assert.Equal(t, types.FeeModeStandard, a.FeeMode())

	require.ErrorIs(t, f.ledger.AddFee(ctx, nil, feeR1, 10), ErrAccessDenied)
}

func TestFeeSplitConservation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		amount uint64
		fees   []uint16
	}{
		{name: "no fees", amount: 777, fees: nil},
		{name: "rounding remainder", amount: 999, fees: []uint16{333, 333, 333}},
		{name: "tiny amount", amount: 1, fees: []uint16{5000, 4999}},
		{name: "full fee", amount: 12345, fees: []uint16{2500, 2500, 5000}},
		{name: "max amount", amount: math.MaxUint64, fees: []uint16{1, 9999}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			f := newFixture(t)
			a := f.mint(t, alice, tt.amount)
			b := f.open(t, bob)

			var total uint16
			for i, bps := range tt.fees {
				total += bps
				require.NoError(t, f.ledger.AddFee(ctx, f.admin, addr(byte(0x10+i)), bps))
			}
			predicted := f.policy.PredictFee(tt.amount)

			r, err := f.ledger.Transfer(ctx, a, alice, b, tt.amount)
			require.NoError(t, err)
			assert.LessOrEqual(t, r.Fee, tt.amount)
			assert.LessOrEqual(t, r.Fee, ShareOf(tt.amount, total))
			assert.Equal(t, predicted, r.Fee)

			var accrued uint64
			for i := range tt.fees {
				accrued += f.policy.Accrued(addr(byte(0x10 + i)))
			}
			assert.Equal(t, r.Fee, accrued)
			assert.Equal(t, tt.amount, b.Balance()+accrued)
			assert.Zero(t, a.Balance())
		})
	}
}

func TestShareOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(500), ShareOf(5000, 1000))
	assert.Equal(t, uint64(0), ShareOf(9, 1000))
	assert.Equal(t, uint64(math.MaxUint64), ShareOf(math.MaxUint64, MaxBasisPoints))
	assert.Equal(t, uint64(math.MaxUint64/2), ShareOf(math.MaxUint64, 5000))
}

func TestFeeModes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name    string
		from    types.FeeMode
		to      types.FeeMode
		wantFee uint64
	}{
		{name: "standard", wantFee: 100},
		{name: "exempt as source", from: types.FeeModeExemptAsSource},
		{name: "exempt as destination", to: types.FeeModeExemptAsDestination},
		{name: "destination exemption on source", from: types.FeeModeExemptAsDestination, wantFee: 100},
		{name: "source exemption on destination", to: types.FeeModeExemptAsSource, wantFee: 100},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			a := f.mint(t, alice, 1000)
			b := f.open(t, bob)
			require.NoError(t, f.ledger.AddFee(ctx, f.admin, feeR1, 1000))
			require.NoError(t, f.ledger.SetFeeMode(ctx, f.admin, a, tt.from))
			require.NoError(t, f.ledger.SetFeeMode(ctx, f.admin, b, tt.to))

			r, err := f.ledger.Transfer(ctx, a, alice, b, 1000)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFee, r.Fee)
			assert.Equal(t, 1000-tt.wantFee, b.Balance())
		})
	}
}

func TestSetFeeMode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	a := f.open(t, alice)

	err := f.ledger.SetFeeMode(ctx, f.admin, a, types.FeeMode(3))
	require.ErrorIs(t, err, ErrInvalidFeeMode)

	require.NoError(t, f.ledger.SetFeeMode(ctx, f.admin, a, types.FeeModeExemptAsDestination))
	assert.Equal(t, types.FeeModeExemptAsDestination, a.FeeMode())
	assert.Equal(t, types.FeeModeExemptAsDestination, f.policy.FeeMode(alice))
	assert.Len(t, f.policy.feeModes, 1)

	require.NoError(t, f.ledger.SetFeeMode(ctx, f.admin, a, types.FeeModeStandard))
	assert.Equal(t, types.FeeModeStandard, a.FeeMode())
	assert.Empty(t, f.policy.feeModes)
}

func TestWithdrawFromOwner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	a := f.mint(t, alice, 100)

	err := f.ledger.Atomic(ctx, func(tx *Tx) error {
		_, _, err := tx.WithdrawFromOwner(a, 10, bob)
		return err
	})
	require.ErrorIs(t, err, ErrAccessDenied)

	err = f.ledger.Atomic(ctx, func(tx *Tx) error {
		_, _, err := tx.WithdrawFromOwner(a, 101, alice)
		return err
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, uint64(100), a.Balance())

	err = f.ledger.Atomic(ctx, func(tx *Tx) error {
		b, lock, err := tx.WithdrawFromOwner(a, 40, alice)
		require.NoError(t, err)
		assert.Equal(t, uint64(40), b.Value())
		assert.Equal(t, uint64(40), lock.Outstanding())
		assert.True(t, lock.ApplyFee())
		assert.Equal(t, testCurrency, lock.Currency())
		assert.Equal(t, uint64(60), a.Balance())

		_, _, err = tx.Deposit(a, b, lock, f.policy)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), a.Balance())
}

func TestWithdrawFromDelegate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	parent := f.open(t, alice)
	child := f.mint(t, parent.Address(), 50)
	dst := f.open(t, bob)

	err := f.ledger.Atomic(ctx, func(tx *Tx) error {
		_, _, err := tx.WithdrawFromDelegate(child, dst, 10)
		return err
	})
	require.ErrorIs(t, err, ErrAccessDenied)

	err = f.ledger.Atomic(ctx, func(tx *Tx) error {
		b, lock, err := tx.WithdrawFromDelegate(child, parent, 50)
		if err != nil {
			return err
		}
		if _, _, err = tx.Deposit(dst, b, lock, f.policy); err != nil {
			return err
		}
		return tx.DestroyLock(lock)
	})
	require.NoError(t, err)
	assert.Zero(t, child.Balance())
	assert.Equal(t, uint64(50), dst.Balance())
}

func TestLockSoundness(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	a := f.mint(t, alice, 100)
	b := f.open(t, bob)

	t.Run("undrained lock rolls back", func(t *testing.T) {
		err := f.ledger.Atomic(ctx, func(tx *Tx) error {
			_, _, err := tx.WithdrawFromOwner(a, 30, alice)
			return err
		})
		require.ErrorIs(t, err, ErrLockNotFullyConsumed)
		assert.Equal(t, uint64(100), a.Balance())
	})

	t.Run("destroy non-empty lock", func(t *testing.T) {
		err := f.ledger.Atomic(ctx, func(tx *Tx) error {
			out, lock, err := tx.WithdrawFromOwner(a, 30, alice)
			require.NoError(t, err)
			part, err := out.Split(10)
			require.NoError(t, err)
			_, _, err = tx.Deposit(b, part, lock, f.policy)
			require.NoError(t, err)
			assert.Equal(t, uint64(20), lock.Outstanding())
			return tx.DestroyLock(lock)
		})
		require.ErrorIs(t, err, ErrLockNotFullyConsumed)
		assert.Equal(t, uint64(100), a.Balance())
		assert.Zero(t, b.Balance())
	})

	t.Run("overdraw", func(t *testing.T) {
		err := f.ledger.Atomic(ctx, func(tx *Tx) error {
			out, lock, err := tx.WithdrawFromOwner(a, 30, alice)
			require.NoError(t, err)
			extra, extraLock, err := tx.WithdrawFromOwner(a, 5, alice)
			require.NoError(t, err)
			_, err = out.Join(extra)
			require.NoError(t, err)

			_, _, err = tx.Deposit(b, out, lock, f.policy)
			require.ErrorIs(t, err, ErrLockOverdrawn)
			assert.Equal(t, uint64(35), out.Value(), "failed deposit moves nothing")
			assert.Equal(t, uint64(30), lock.Outstanding())
			assert.Equal(t, uint64(5), extraLock.Outstanding())
			return err
		})
		require.ErrorIs(t, err, ErrLockOverdrawn)
		assert.Equal(t, uint64(100), a.Balance())
	})

	t.Run("destroyed lock", func(t *testing.T) {
		err := f.ledger.Atomic(ctx, func(tx *Tx) error {
			out, lock, err := tx.WithdrawFromOwner(a, 0, alice)
			require.NoError(t, err)
			require.NoError(t, tx.DestroyLock(lock))
			_, _, err = tx.Deposit(b, out, lock, f.policy)
			return err
		})
		require.ErrorIs(t, err, ErrLockDestroyed)
	})

	t.Run("expired lock", func(t *testing.T) {
		var (
			kept     *balance.Balance
			keptLock *TransferLock
		)
		require.NoError(t, f.ledger.Atomic(ctx, func(tx *Tx) (err error) {
			kept, keptLock, err = tx.WithdrawFromOwner(a, 0, alice)
			return err
		}))

		err := f.ledger.Atomic(ctx, func(tx *Tx) error {
			_, _, err := tx.Deposit(b, kept, keptLock, f.policy)
			return err
		})
		require.ErrorIs(t, err, ErrLockExpired)
	})

	t.Run("foreign lock", func(t *testing.T) {
		foreign := &TransferLock{currency: testCurrency, outstanding: 1, tx: newTx(ctx, f.ledger)}
		err := f.ledger.Atomic(ctx, func(tx *Tx) error {
			return tx.DestroyLock(foreign)
		})
		require.ErrorIs(t, err, ErrForeignLock)
	})
}

func TestMintToLock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rolled back mint restores the supply", func(t *testing.T) {
		f := newFixture(t)
		err := f.ledger.Atomic(ctx, func(tx *Tx) error {
			_, lock, err := tx.MintToLock(f.admin, 10)
			require.NoError(t, err)
			assert.False(t, lock.ApplyFee())
			assert.Equal(t, uint64(10), f.policy.Supply())
			return errTest
		})
		require.ErrorIs(t, err, errTest)
		assert.Zero(t, f.policy.Supply())
	})

	t.Run("second mint", func(t *testing.T) {
		f := newFixture(t)
		f.mint(t, alice, 100)
		assert.Equal(t, uint64(100), f.policy.Supply())

		err := f.ledger.Atomic(ctx, func(tx *Tx) error {
			_, _, err := tx.MintToLock(f.admin, 1)
			return err
		})
		require.ErrorIs(t, err, ErrInvalidMintState)
		assert.Equal(t, uint64(100), f.policy.Supply())
	})

	t.Run("capability of another ledger", func(t *testing.T) {
		f := newFixture(t)
		_, other, err := New().Register(testCurrency)
		require.NoError(t, err)

		err = f.ledger.Atomic(ctx, func(tx *Tx) error {
			_, _, err := tx.MintToLock(other, 1)
			return err
		})
		require.ErrorIs(t, err, ErrAccessDenied)
		assert.Zero(t, f.policy.Supply())
	})

	t.Run("nil capability", func(t *testing.T) {
		f := newFixture(t)
		err := f.ledger.Atomic(ctx, func(tx *Tx) error {
			_, _, err := tx.MintToLock(nil, 1)
			return err
		})
		require.ErrorIs(t, err, ErrNilArgument)
	})
}

func TestDepositRejectsSecondSupply(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	a := f.mint(t, alice, 100)
	b := f.open(t, bob)

	err := f.ledger.Atomic(ctx, func(tx *Tx) error {
		forged, err := balance.NewSupply(testCurrency).Increase(balance.NewScope(), 1_000_000)
		require.NoError(t, err)
		lock := tx.newLock(testCurrency, forged.Value(), false)

		_, _, err = tx.Deposit(b, forged, lock, f.policy)
		return err
	})
	require.ErrorIs(t, err, ErrForeignBalance)

	assert.Equal(t, uint64(100), a.Balance())
	assert.Zero(t, b.Balance())
	assert.Equal(t, uint64(100), f.policy.Supply())
}

func TestWithdrawFeeIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	a := f.mint(t, alice, 10000)
	b := f.open(t, bob)
	r := f.open(t, feeR1)

	claimed, err := f.ledger.WithdrawFee(ctx, r)
	require.NoError(t, err)
	assert.Zero(t, claimed)

	require.NoError(t, f.ledger.AddFee(ctx, f.admin, feeR1, 250))
	_, err = f.ledger.Transfer(ctx, a, alice, b, 4000)
	require.NoError(t, err)

	claimed, err = f.ledger.WithdrawFee(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), claimed)
	assert.Equal(t, uint64(100), r.Balance())
	assert.Equal(t, []types.Address{feeR1}, f.policy.Recipients(), "row kept while the fee exists")

	claimed, err = f.ledger.WithdrawFee(ctx, r)
	require.NoError(t, err)
	assert.Zero(t, claimed)
	assert.Equal(t, uint64(100), r.Balance())
}

func TestNewAccount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	a := f.open(t, alice)
	assert.Equal(t, identity.Derive(testCurrency, alice), a.ID())
	assert.Equal(t, f.ledger.AccountID(testCurrency, alice), a.ID())
	assert.Equal(t, alice, a.Owner())
	assert.Equal(t, testCurrency, a.Currency())
	assert.Equal(t, types.FeeModeStandard, a.FeeMode())
	assert.Zero(t, a.Balance())

	_, err := f.ledger.NewAccount(ctx, testCurrency, alice)
	require.ErrorIs(t, err, ErrAccountExists)
	require.ErrorIs(t, err, identity.ErrAlreadyClaimed)

	_, err = f.ledger.NewAccount(ctx, "NOPE", alice)
	require.ErrorIs(t, err, ErrNotRegistered)

	got, err := f.ledger.AccountOf(testCurrency, alice)
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = f.ledger.AccountOf(testCurrency, bob)
	require.ErrorIs(t, err, ErrAccountNotFound)
	assert.Zero(t, f.ledger.BalanceOf(testCurrency, bob))

	require.Len(t, f.events.Events(), 1)
	assert.Equal(t, notify.AccountCreated(testCurrency, a.ID(), alice), f.events.Events()[0])
}

func TestRollback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	a := f.mint(t, alice, 1000)
	require.NoError(t, f.ledger.AddFee(ctx, f.admin, feeR1, 1000))
	f.events.Reset()

	var leaked *balance.Balance
	err := f.ledger.Atomic(ctx, func(tx *Tx) error {
		b, err := tx.NewAccount(testCurrency, bob)
		require.NoError(t, err)
		require.NoError(t, tx.AddFee(f.admin, f.policy, feeR2, 500))

		out, lock, err := tx.WithdrawFromOwner(a, 600, alice)
		require.NoError(t, err)
		leaked, err = out.Split(100)
		require.NoError(t, err)

		_, fee, err := tx.Deposit(b, out, lock, f.policy)
		require.NoError(t, err)
		assert.Equal(t, uint64(75), fee)
		return errTest
	})
	require.ErrorIs(t, err, errTest)

	assert.Equal(t, uint64(1000), a.Balance())
	assert.Zero(t, f.policy.Accrued(feeR1))
	assert.Equal(t, uint16(1000), f.policy.TotalFee())
	assert.Equal(t, []types.Address{feeR1}, f.policy.Recipients())
	assert.Empty(t, f.events.Events(), "no notifications from a rolled back sequence")

	assert.True(t, leaked.Revoked())
	assert.Zero(t, leaked.Value())
	_, err = a.balance.Join(leaked)
	require.ErrorIs(t, err, balance.ErrRevoked)

	_, err = f.ledger.AccountOf(testCurrency, bob)
	require.ErrorIs(t, err, ErrAccountNotFound)
	b := f.open(t, bob)
	assert.Zero(t, b.Balance())
}

func TestRollbackOnPanic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	a := f.mint(t, alice, 10)

	assert.Panics(t, func() {
		_ = f.ledger.Atomic(ctx, func(tx *Tx) error {
			_, _, err := tx.WithdrawFromOwner(a, 10, alice)
			require.NoError(t, err)
			panic("boom")
		})
	})
	assert.Equal(t, uint64(10), a.Balance())

	_, err := f.ledger.Transfer(ctx, a, alice, f.open(t, bob), 10)
	require.NoError(t, err, "sequence mutex released after panic")
}

func TestSinkPanicKeepsCommit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rec := &notify.Recorder{}
	sink := notify.SinkFunc(func(ctx context.Context, e notify.Event) {
		if e.Kind == notify.KindDeposit {
			panic("sink failure")
		}
		rec.Notify(ctx, e)
	})
	l := New(WithSink(sink))
	_, admin, err := l.Register(testCurrency)
	require.NoError(t, err)

	var a, b *Account
	p, err := l.Policy(testCurrency)
	require.NoError(t, err)
	require.NotPanics(t, func() {
		err = l.Atomic(ctx, func(tx *Tx) (err error) {
			if a, err = tx.NewAccount(testCurrency, alice); err != nil {
				return err
			}
			if b, err = tx.NewAccount(testCurrency, bob); err != nil {
				return err
			}
			out, lock, err := tx.MintToLock(admin, 100)
			if err != nil {
				return err
			}
			_, _, err = tx.Deposit(a, out, lock, p)
			return err
		})
	})
	require.NoError(t, err)

	var receipt Receipt
	require.NotPanics(t, func() {
		receipt, err = l.Transfer(ctx, a, alice, b, 40)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(40), receipt.Amount)

	assert.Equal(t, uint64(60), a.Balance())
	assert.Equal(t, uint64(40), b.Balance())
	assert.Equal(t, uint64(100), p.Supply())
	assert.Equal(t, []notify.Event{
		notify.AccountCreated(testCurrency, a.ID(), alice),
		notify.AccountCreated(testCurrency, b.ID(), bob),
		notify.Withdrawal(testCurrency, a.ID(), alice, 40),
	}, rec.Events())
}

func TestForeignPolicy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	a := f.mint(t, alice, 1000)
	b := f.open(t, bob)
	r := f.open(t, feeR1)

	other := New()
	foreign, foreignAdmin, err := other.Register(testCurrency)
	require.NoError(t, err)
	require.NoError(t, other.AddFee(ctx, foreignAdmin, feeR1, 5000))

	err = f.ledger.Atomic(ctx, func(tx *Tx) error {
		out, lock, err := tx.WithdrawFromOwner(a, 100, alice)
		require.NoError(t, err)
		_, _, err = tx.Deposit(b, out, lock, foreign)
		return err
	})
	require.ErrorIs(t, err, ErrForeignPolicy)

	err = f.ledger.Atomic(ctx, func(tx *Tx) error {
		_, err := tx.WithdrawFee(r, foreign)
		return err
	})
	require.ErrorIs(t, err, ErrForeignPolicy)

	err = f.ledger.Atomic(ctx, func(tx *Tx) error {
		return tx.AddFee(foreignAdmin, foreign, feeR2, 1)
	})
	require.ErrorIs(t, err, ErrForeignPolicy)

	assert.Equal(t, uint64(1000), a.Balance())
	assert.Zero(t, b.Balance())
	assert.Zero(t, foreign.Accrued(feeR1))
	_, ok := foreign.Fee(feeR2)
	assert.False(t, ok)
}

func TestClosedTx(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	var kept *Tx
	require.NoError(t, f.ledger.Atomic(ctx, func(tx *Tx) error {
		kept = tx
		return nil
	}))

	_, err := kept.NewAccount(testCurrency, alice)
	require.ErrorIs(t, err, ErrTxClosed)
	require.ErrorIs(t, kept.AddFee(f.admin, f.policy, feeR1, 1), ErrTxClosed)
}

func TestNotifications(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	a := f.mint(t, alice, 1000)
	b := f.open(t, bob)
	require.NoError(t, f.ledger.AddFee(ctx, f.admin, feeR1, 500))
	f.events.Reset()

	_, err := f.ledger.Transfer(ctx, a, alice, b, 200)
	require.NoError(t, err)

	assert.Equal(t, []notify.Event{
		notify.Withdrawal(testCurrency, a.ID(), alice, 200),
		notify.Deposit(testCurrency, b.ID(), bob, 200, 10),
	}, f.events.Events())
}

func TestAtomicSpans(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	l := New(WithTracer(tp.Tracer(telemetry.TracerName)))

	require.NoError(t, l.Atomic(ctx, func(*Tx) error { return nil }))
	require.ErrorIs(t, l.Atomic(ctx, func(*Tx) error { return errTest }), errTest)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "ledger.Atomic", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), telemetry.SequenceOutcome(telemetry.OutcomeCommitted))
	assert.Contains(t, spans[1].Attributes(), telemetry.SequenceOutcome(telemetry.OutcomeRolledBack))
	require.Len(t, spans[1].Events(), 1)
}

func TestBurn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	a := f.mint(t, alice, 100)

	err := f.ledger.Atomic(ctx, func(tx *Tx) error {
		b, lock, err := tx.WithdrawFromOwner(a, 40, alice)
		if err != nil {
			return err
		}
		burnt, err := tx.Burn(b, lock)
		if err != nil {
			return err
		}
		assert.Equal(t, uint64(40), burnt)
		return tx.DestroyLock(lock)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(60), a.Balance())
	assert.Equal(t, uint64(60), f.policy.Supply())

	err = f.ledger.Atomic(ctx, func(tx *Tx) error {
		_, lock, err := tx.WithdrawFromOwner(a, 10, alice)
		require.NoError(t, err)
		forged, err := balance.NewSupply(testCurrency).Increase(balance.NewScope(), 10)
		require.NoError(t, err)
		_, err = tx.Burn(forged, lock)
		return err
	})
	require.ErrorIs(t, err, ErrForeignBalance)
	assert.Equal(t, uint64(60), a.Balance())
	assert.Equal(t, uint64(60), f.policy.Supply())
}
