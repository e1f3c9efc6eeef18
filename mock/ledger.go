// Package mock provides an in-memory ledger with wallets for tests.
package mock

import (
	"context"
	"os"
	"testing"

	"github.com/anoideaopen/feeledger/core/ledger"
	"github.com/anoideaopen/feeledger/core/notify"
	"github.com/anoideaopen/feeledger/core/types"
	"github.com/anoideaopen/feeledger/keys"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// Ledger wraps a ledger together with the notifications it delivered.
type Ledger struct {
	t       *testing.T
	ledger  *ledger.Ledger
	events  *notify.Recorder
	journal *notify.Journal
}

// NewLedger creates new ledger. The log level is taken from the LOG
// environment variable.
func NewLedger(t *testing.T, opts ...ledger.Option) *Ledger {
	lvl := logrus.ErrorLevel
	var err error
	if level, ok := os.LookupEnv("LOG"); ok {
		lvl, err = logrus.ParseLevel(level)
		require.NoError(t, err)
	}
	log := logrus.New()
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.JSONFormatter{})

	l := &Ledger{
		t:       t,
		events:  &notify.Recorder{},
		journal: &notify.Journal{},
	}
	sink := notify.Multi(l.events, l.journal, notify.NewLogSink(logrus.NewEntry(log)))

	l.ledger = ledger.New(append([]ledger.Option{
		ledger.WithSink(sink),
		ledger.WithLogger(logrus.NewEntry(log)),
	}, opts...)...)
	return l
}

// Ledger returns the wrapped ledger.
func (l *Ledger) Ledger() *ledger.Ledger {
	return l.ledger
}

// Events returns the delivered notifications.
func (l *Ledger) Events() []notify.Event {
	return l.events.Events()
}

// ResetEvents forgets delivered notifications.
func (l *Ledger) ResetEvents() {
	l.events.Reset()
}

// Journal returns the encoded notifications.
func (l *Ledger) Journal() []notify.Record {
	return l.journal.Records()
}

// Register registers a currency and fails the test on error.
func (l *Ledger) Register(currency types.Currency) (*ledger.Policy, *ledger.AdminCap) {
	p, admin, err := l.ledger.Register(currency)
	require.NoError(l.t, err)
	return p, admin
}

// NewWallet creates new wallet with ed25519, secp256k1 and GOST keys. The
// ed25519 key is used by default.
func (l *Ledger) NewWallet() *Wallet {
	w := &Wallet{ledger: l, keyType: keys.KeyTypeEd25519}
	for _, kt := range []keys.KeyType{keys.KeyTypeEd25519, keys.KeyTypeSecp256k1, keys.KeyTypeGOST} {
		k, err := keys.Generate(kt)
		require.NoError(l.t, err)
		w.keys[kt] = k
	}
	return w
}

// NewWalletFromKey creates new wallet from a base58check encoded ed25519
// private key.
func (l *Ledger) NewWalletFromKey(key string) *Wallet {
	w := l.NewWallet()
	k, err := keys.Ed25519FromBase58Check(key)
	require.NoError(l.t, err)
	w.keys[keys.KeyTypeEd25519] = k
	return w
}

func (l *Ledger) ctx() context.Context {
	return context.Background()
}
