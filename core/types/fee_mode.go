package types

import "strconv"

// FeeMode controls whether transfer fees apply to an account.
type FeeMode uint8

const (
	// FeeModeStandard applies fees both when the account sends and when it receives.
	FeeModeStandard FeeMode = iota
	// FeeModeExemptAsSource skips fees on transfers withdrawn from the account.
	FeeModeExemptAsSource
	// FeeModeExemptAsDestination skips fees on deposits into the account.
	FeeModeExemptAsDestination
)

// Valid reports whether m is one of the known fee modes.
func (m FeeMode) Valid() bool {
	return m <= FeeModeExemptAsDestination
}

func (m FeeMode) String() string {
	switch m {
	case FeeModeStandard:
		return "standard"
	case FeeModeExemptAsSource:
		return "exempt_as_source"
	case FeeModeExemptAsDestination:
		return "exempt_as_destination"
	default:
		return "unknown(" + strconv.Itoa(int(m)) + ")"
	}
}
