// Package ledger implements fee-bearing accounts: per-currency fee policies,
// owner accounts, and the transfer locks that move value between them.
//
// All mutations run inside Ledger.Atomic. A sequence either commits every
// change it made or none of them.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/anoideaopen/feeledger/core/identity"
	"github.com/anoideaopen/feeledger/core/logger"
	"github.com/anoideaopen/feeledger/core/notify"
	"github.com/anoideaopen/feeledger/core/telemetry"
	"github.com/anoideaopen/feeledger/core/types"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ledger owns the registry, the identity claims and every account.
type Ledger struct {
	seq sync.Mutex

	registry *Registry
	claims   *identity.Claims

	mu       sync.RWMutex
	accounts map[identity.ID]*Account

	sink   notify.Sink
	log    *logrus.Entry
	tracer trace.Tracer
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithSink sets the notification receiver. Notifications are delivered after
// their sequence commits.
func WithSink(sink notify.Sink) Option {
	return func(l *Ledger) {
		if sink != nil {
			l.sink = sink
		}
	}
}

func WithLogger(entry *logrus.Entry) Option {
	return func(l *Ledger) {
		if entry != nil {
			l.log = entry
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(l *Ledger) {
		if tracer != nil {
			l.tracer = tracer
		}
	}
}

// New creates an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		registry: NewRegistry(),
		claims:   identity.NewClaims(),
		accounts: make(map[identity.ID]*Account),
		sink:     notify.Discard,
		log:      logrus.NewEntry(logger.Logger()),
		tracer:   telemetry.Tracer(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Atomic runs fn as one exclusive sequence. If fn returns an error or panics,
// or leaves a transfer lock undrained, every change made by fn is undone and
// every balance it produced is revoked. Notifications are delivered to the
// sink only after a commit; a failing sink never undoes a committed sequence.
//
// fn must not call Atomic or any other mutating Ledger method.
func (l *Ledger) Atomic(ctx context.Context, fn func(tx *Tx) error) error {
	ctx, span := l.tracer.Start(ctx, "ledger.Atomic")
	defer span.End()

	l.seq.Lock()
	defer l.seq.Unlock()

	tx := newTx(ctx, l)
	if err := l.run(tx, span, fn); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(telemetry.SequenceOutcome(telemetry.OutcomeRolledBack))
		l.log.WithError(err).Debug("sequence rolled back")
		return err
	}

	span.SetAttributes(telemetry.SequenceOutcome(telemetry.OutcomeCommitted))
	l.log.WithField("events", len(tx.events)).Debug("sequence committed")
	for _, e := range tx.events {
		l.deliver(ctx, e)
	}
	return nil
}

// run applies fn and commits tx, rolling it back on error or panic.
func (l *Ledger) run(tx *Tx, span trace.Span, fn func(tx *Tx) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			tx.rollback()
			span.SetStatus(codes.Error, "panic")
			span.SetAttributes(telemetry.SequenceOutcome(telemetry.OutcomeRolledBack))
			l.log.WithField("panic", r).Error("sequence panicked")
			panic(r)
		}
	}()

	if err = fn(tx); err == nil {
		err = tx.commit()
	}
	if err != nil {
		tx.rollback()
	}
	return err
}

func (l *Ledger) deliver(ctx context.Context, e notify.Event) {
	defer func() {
		if r := recover(); r != nil {
			l.log.WithFields(logrus.Fields{
				"kind":  e.Kind,
				"panic": r,
			}).Error("notification sink panicked")
		}
	}()

	l.sink.Notify(ctx, e)
}

// Register adds a currency and returns the capability that administers its
// fee policy.
func (l *Ledger) Register(currency types.Currency) (*Policy, *AdminCap, error) {
	l.seq.Lock()
	defer l.seq.Unlock()

	p, c, err := l.registry.Register(currency)
	if err != nil {
		return nil, nil, err
	}

	l.log.WithFields(logrus.Fields{"currency": currency, "policy": p.id}).Info("currency registered")
	return p, c, nil
}

// Lookup returns the policy identity of a registered currency.
func (l *Ledger) Lookup(currency types.Currency) (PolicyID, error) {
	return l.registry.Lookup(currency)
}

// Policy returns the fee policy of a registered currency.
func (l *Ledger) Policy(currency types.Currency) (*Policy, error) {
	return l.registry.PolicyFor(currency)
}

// Registry returns the currency registry.
func (l *Ledger) Registry() *Registry {
	return l.registry
}

// Account returns the account with the identity.
func (l *Ledger) Account(id identity.ID) (*Account, error) {
	a, ok := l.account(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	return a, nil
}

// AccountOf returns the account of owner in currency.
func (l *Ledger) AccountOf(currency types.Currency, owner types.Address) (*Account, error) {
	return l.Account(identity.Derive(currency, owner))
}

// AccountID returns the identity of the account of owner in currency. The
// account does not need to exist.
func (l *Ledger) AccountID(currency types.Currency, owner types.Address) identity.ID {
	return identity.Derive(currency, owner)
}

// BalanceOf returns the spendable balance of owner, zero if there is no
// account.
func (l *Ledger) BalanceOf(currency types.Currency, owner types.Address) uint64 {
	a, err := l.AccountOf(currency, owner)
	if err != nil {
		return 0
	}
	return a.Balance()
}

// AccruedFee returns the fee collected for recipient and not yet withdrawn.
func (l *Ledger) AccruedFee(currency types.Currency, recipient types.Address) (uint64, error) {
	p, err := l.registry.PolicyFor(currency)
	if err != nil {
		return 0, err
	}
	return p.Accrued(recipient), nil
}

func (l *Ledger) account(id identity.ID) (*Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.accounts[id]
	return a, ok
}

func (l *Ledger) addAccount(a *Account) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts[a.id] = a
}

func (l *Ledger) removeAccount(a *Account) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.accounts[a.id] == a {
		delete(l.accounts, a.id)
	}
}
