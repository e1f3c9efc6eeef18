package ledger

import (
	"fmt"

	"github.com/anoideaopen/feeledger/core/types"
)

// noCopy may be embedded into structs which must not be copied after first use.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// TransferLock records value that left an account or a supply and has not yet
// been deposited. It lives only inside the sequence that created it and must
// be drained to zero before the sequence ends.
type TransferLock struct {
	_ noCopy

	currency    types.Currency
	outstanding uint64
	applyFee    bool
	tx          *Tx
	destroyed   bool
}

func (l *TransferLock) Currency() types.Currency {
	return l.currency
}

// Outstanding returns the amount still to be deposited.
func (l *TransferLock) Outstanding() uint64 {
	return l.outstanding
}

// ApplyFee reports whether deposits against the lock pay fees.
func (l *TransferLock) ApplyFee() bool {
	return l.applyFee
}

func (l *TransferLock) usableIn(tx *Tx) error {
	switch {
	case l == nil:
		return fmt.Errorf("%w: transfer lock", ErrNilArgument)
	case l.tx != tx:
		if l.tx != nil && l.tx.closed {
			return ErrLockExpired
		}
		return ErrForeignLock
	case l.destroyed:
		return ErrLockDestroyed
	}
	return nil
}
