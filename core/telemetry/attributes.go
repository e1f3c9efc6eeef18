package telemetry

import (
	"strconv"

	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys used by ledger spans and span events.
const (
	AttrCurrency = attribute.Key("ledger.currency")
	AttrAccount  = attribute.Key("ledger.account")
	AttrOwner    = attribute.Key("ledger.owner")
	AttrAmount   = attribute.Key("ledger.amount")
	AttrFee      = attribute.Key("ledger.fee")
	AttrOutcome  = attribute.Key("ledger.outcome")
)

type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeCommitted
	OutcomeRolledBack
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeRolledBack:
		return "rolled_back"
	case OutcomeUnknown:
		fallthrough
	default:
		return "unknown"
	}
}

func SequenceOutcome(o Outcome) attribute.KeyValue {
	return AttrOutcome.String(o.String())
}

func Currency(c string) attribute.KeyValue {
	return AttrCurrency.String(c)
}

func Account(id string) attribute.KeyValue {
	return AttrAccount.String(id)
}

func Owner(addr string) attribute.KeyValue {
	return AttrOwner.String(addr)
}

// Amount is recorded as a string: uint64 amounts do not fit an int64 attribute.
func Amount(v uint64) attribute.KeyValue {
	return AttrAmount.String(strconv.FormatUint(v, 10))
}

func Fee(v uint64) attribute.KeyValue {
	return AttrFee.String(strconv.FormatUint(v, 10))
}
