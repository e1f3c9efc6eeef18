package mock

import (
	"github.com/anoideaopen/feeledger/core/ledger"
	"github.com/anoideaopen/feeledger/core/types"
	"github.com/anoideaopen/feeledger/keys"
	"github.com/stretchr/testify/require"
)

// Wallet is an owner with keys of every supported type.
type Wallet struct {
	ledger  *Ledger
	keys    [3]*keys.Keys
	keyType keys.KeyType
}

func (w *Wallet) UseSecp256k1Key() {
	w.keyType = keys.KeyTypeSecp256k1
}

func (w *Wallet) UseGOSTKey() {
	w.keyType = keys.KeyTypeGOST
}

// Keys returns the active key pair.
func (w *Wallet) Keys() *keys.Keys {
	return w.keys[w.keyType]
}

// Address returns the base58check address of the active key.
func (w *Wallet) Address() string {
	return w.AddressType().String()
}

// AddressType returns the address of the active key.
func (w *Wallet) AddressType() types.Address {
	return w.Keys().Address()
}

// PubKey returns the public key of the active key pair.
func (w *Wallet) PubKey() []byte {
	return w.Keys().PublicKeyBytes
}

// Sign signs message with the active key and returns the signature.
func (w *Wallet) Sign(message []byte) []byte {
	_, signature, err := keys.Sign(w.Keys(), message)
	require.NoError(w.ledger.t, err)
	return signature
}

// OpenAccount opens the wallet account in currency.
func (w *Wallet) OpenAccount(currency types.Currency) *ledger.Account {
	a, err := w.ledger.ledger.NewAccount(w.ledger.ctx(), currency, w.AddressType())
	require.NoError(w.ledger.t, err)
	return a
}

// Account returns the existing wallet account in currency.
func (w *Wallet) Account(currency types.Currency) *ledger.Account {
	a, err := w.ledger.ledger.AccountOf(currency, w.AddressType())
	require.NoError(w.ledger.t, err)
	return a
}

// BalanceShouldBe checks the balance of the wallet
func (w *Wallet) BalanceShouldBe(currency types.Currency, expected uint64) {
	require.Equal(w.ledger.t, expected, w.ledger.ledger.BalanceOf(currency, w.AddressType()))
}

// AccruedFeeShouldBe checks the fee collected for the wallet
func (w *Wallet) AccruedFeeShouldBe(currency types.Currency, expected uint64) {
	accrued, err := w.ledger.ledger.AccruedFee(currency, w.AddressType())
	require.NoError(w.ledger.t, err)
	require.Equal(w.ledger.t, expected, accrued)
}
