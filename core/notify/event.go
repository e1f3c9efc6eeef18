// Package notify carries ledger notifications to external sinks. Delivery is
// fire-and-forget: sinks never report failures back to the ledger.
package notify

import (
	"strconv"

	"github.com/anoideaopen/feeledger/core/identity"
	"github.com/anoideaopen/feeledger/core/types"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Kind names a notification shape.
type Kind string

const (
	KindAccountCreated Kind = "account_created"
	KindWithdrawal     Kind = "withdrawal"
	KindDeposit        Kind = "deposit"
)

// Event is a single ledger notification. Amount is unset for account
// creation, Fee is set only for deposits.
type Event struct {
	Kind     Kind
	Currency types.Currency
	Account  identity.ID
	Owner    types.Address
	Amount   uint64
	Fee      uint64
}

// AccountCreated builds the creation notification.
func AccountCreated(currency types.Currency, account identity.ID, owner types.Address) Event {
	return Event{Kind: KindAccountCreated, Currency: currency, Account: account, Owner: owner}
}

// Withdrawal builds the withdrawal notification.
func Withdrawal(currency types.Currency, account identity.ID, owner types.Address, amount uint64) Event {
	return Event{Kind: KindWithdrawal, Currency: currency, Account: account, Owner: owner, Amount: amount}
}

// Deposit builds the deposit notification.
func Deposit(currency types.Currency, account identity.ID, owner types.Address, amount, fee uint64) Event {
	return Event{Kind: KindDeposit, Currency: currency, Account: account, Owner: owner, Amount: amount, Fee: fee}
}

// Fields returns the event attributes keyed by name. Amounts are decimal
// strings so they survive JSON number precision.
func (e Event) Fields() map[string]any {
	fields := map[string]any{
		"kind":     string(e.Kind),
		"currency": e.Currency.String(),
		"account":  e.Account.String(),
		"owner":    e.Owner.String(),
	}
	if e.Kind != KindAccountCreated {
		fields["amount"] = strconv.FormatUint(e.Amount, 10)
	}
	if e.Kind == KindDeposit {
		fields["fee"] = strconv.FormatUint(e.Fee, 10)
	}
	return fields
}

// Payload encodes the event as protobuf JSON.
func Payload(e Event) ([]byte, error) {
	s, err := structpb.NewStruct(e.Fields())
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}
