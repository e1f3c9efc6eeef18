package mock

import (
	"testing"

	"github.com/anoideaopen/feeledger/core/notify"
	"github.com/anoideaopen/feeledger/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletKeyTypes(t *testing.T) {
	l := NewLedger(t)
	w := l.NewWallet()

	ed := w.Address()
	w.UseSecp256k1Key()
	secp := w.Address()
	w.UseGOSTKey()
	gost := w.Address()

	assert.NotEqual(t, ed, secp)
	assert.NotEqual(t, secp, gost)
	assert.Equal(t, keys.AddressFromPublicKey(w.PubKey()), w.AddressType())

	msg := []byte("claim")
	require.NoError(t, keys.Verify(keys.KeyTypeGOST, w.PubKey(), msg, w.Sign(msg)))
}

func TestWalletAccount(t *testing.T) {
	l := NewLedger(t)
	l.Register("MCK")
	w := l.NewWallet()

	a := w.OpenAccount("MCK")
	assert.Same(t, a, w.Account("MCK"))
	w.BalanceShouldBe("MCK", 0)
	w.AccruedFeeShouldBe("MCK", 0)

	require.Len(t, l.Events(), 1)
	assert.Equal(t, notify.KindAccountCreated, l.Events()[0].Kind)
	require.Len(t, l.Journal(), 1)
	assert.Equal(t, string(notify.KindAccountCreated), l.Journal()[0].Name)
}
