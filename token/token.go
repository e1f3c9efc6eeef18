// Package token is a currency built on the fee ledger: it controls emission,
// holds the fee policy capability and exposes transactions and queries to
// the token's users.
package token

import (
	"fmt"
	"sync"

	"github.com/anoideaopen/feeledger/core/ledger"
	"github.com/anoideaopen/feeledger/core/types"
)

// Config describes a token.
type Config struct {
	Name      string
	Symbol    types.Currency
	Decimals  uint
	Issuer    types.Address
	FeeSetter types.Address
}

// Validate checks the config before the token is registered.
func (c Config) Validate() error {
	if err := c.Symbol.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Issuer.IsZero() {
		return fmt.Errorf("%w: issuer is not set", ErrInvalidConfig)
	}
	if c.FeeSetter.IsZero() {
		return fmt.Errorf("%w: fee setter is not set", ErrInvalidConfig)
	}
	return nil
}

// BaseToken is a registered currency together with the capability that
// administers its fees and its emission.
type BaseToken struct {
	ledger *ledger.Ledger
	config Config

	policy *ledger.Policy
	admin  *ledger.AdminCap

	mu        sync.Mutex
	finalized bool
}

// New registers the token currency in the ledger.
func New(l *ledger.Ledger, cfg Config) (*BaseToken, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p, admin, err := l.Register(cfg.Symbol)
	if err != nil {
		return nil, fmt.Errorf("registering %s: %w", cfg.Symbol, err)
	}

	return &BaseToken{
		ledger: l,
		config: cfg,
		policy: p,
		admin:  admin,
	}, nil
}

// Issuer returns the issuer of the token
func (bt *BaseToken) Issuer() types.Address {
	return bt.config.Issuer
}

// FeeSetter returns the fee setter of the token
func (bt *BaseToken) FeeSetter() types.Address {
	return bt.config.FeeSetter
}

func (bt *BaseToken) Symbol() types.Currency {
	return bt.config.Symbol
}

// Policy returns the fee policy of the token.
func (bt *BaseToken) Policy() *ledger.Policy {
	return bt.policy
}

// TotalEmission returns the issued amount.
func (bt *BaseToken) TotalEmission() uint64 {
	return bt.policy.Supply()
}

// Finalized reports whether the initial emission happened.
func (bt *BaseToken) Finalized() bool {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	return bt.finalized
}

func (bt *BaseToken) checkIssuer(sender *types.Sender) error {
	if sender == nil || !sender.Equal(bt.config.Issuer) {
		return ErrUnauthorized
	}
	return nil
}

func (bt *BaseToken) checkFeeSetter(sender *types.Sender) error {
	if sender == nil || !sender.Equal(bt.config.FeeSetter) {
		return ErrUnauthorized
	}
	return nil
}

// accountOf returns the account of owner, opening it inside tx when missing.
func (bt *BaseToken) accountOf(tx *ledger.Tx, owner types.Address) (*ledger.Account, error) {
	if a, err := bt.ledger.AccountOf(bt.config.Symbol, owner); err == nil {
		return a, nil
	}
	return tx.NewAccount(bt.config.Symbol, owner)
}
