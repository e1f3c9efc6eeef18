package token

import (
	"testing"

	"github.com/anoideaopen/feeledger/core/types"
	"github.com/anoideaopen/feeledger/mock"
	"github.com/stretchr/testify/require"
)

const (
	testTokenSymbol types.Currency = "TT"
	testTokenName                  = "Test Token"

	testEmitAmount = 10000
)

type testEnv struct {
	ledger    *mock.Ledger
	token     *BaseToken
	issuer    *mock.Wallet
	feeSetter *mock.Wallet
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	l := mock.NewLedger(t)
	issuer := l.NewWallet()
	feeSetter := l.NewWallet()

	tt, err := New(l.Ledger(), Config{
		Name:      testTokenName,
		Symbol:    testTokenSymbol,
		Decimals:  8,
		Issuer:    issuer.AddressType(),
		FeeSetter: feeSetter.AddressType(),
	})
	require.NoError(t, err)

	return &testEnv{ledger: l, token: tt, issuer: issuer, feeSetter: feeSetter}
}

func sender(w *mock.Wallet) *types.Sender {
	return types.NewSenderFromAddr(w.AddressType())
}
