package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/anoideaopen/feeledger/core/types"
)

const maxBasisPoints = 10000

var (
	ErrCfgBytesEmpty      = errors.New("config bytes is empty")
	ErrNoTokens           = errors.New("genesis has no tokens")
	ErrDuplicateCurrency  = errors.New("currency is declared twice")
	ErrIssuerEmpty        = errors.New("'issuer' address is empty")
	ErrFeeSetterEmpty     = errors.New("'fee_setter' address is empty")
	ErrTotalFeeExceeded   = errors.New("total fee exceeds 10000 basis points")
	ErrEmissionZero       = errors.New("emission amount is zero")
	ErrEmissionOverflow   = errors.New("emission total overflows")
	ErrDuplicateRecipient = errors.New("fee recipient is declared twice")
	ErrInvalidFeeMode     = errors.New("invalid fee mode")
)

// Genesis is the initial state of the ledger.
type Genesis struct {
	Tokens []Token `json:"tokens"`
}

// Token describes a currency, its initial emission and fee configuration.
type Token struct {
	Name      string         `json:"name"`
	Symbol    types.Currency `json:"symbol"`
	Decimals  uint           `json:"decimals"`
	Issuer    types.Address  `json:"issuer"`
	FeeSetter types.Address  `json:"fee_setter"` //nolint:tagliatelle
	Emission  []Emission     `json:"emission"`
	Fees      []Fee          `json:"fees"`
	FeeModes  []FeeMode      `json:"fee_modes"` //nolint:tagliatelle
}

type Emission struct {
	Address types.Address `json:"address"`
	Amount  uint64        `json:"amount"`
}

type Fee struct {
	Recipient types.Address `json:"recipient"`
	BPS       uint16        `json:"bps"`
}

type FeeMode struct {
	Address types.Address `json:"address"`
	Mode    types.FeeMode `json:"mode"`
}

// FromBytes parses a JSON genesis document and validates it.
func FromBytes(cfgBytes []byte) (*Genesis, error) {
	if len(cfgBytes) == 0 {
		return nil, ErrCfgBytesEmpty
	}

	g := new(Genesis)
	if err := json.Unmarshal(cfgBytes, g); err != nil {
		return nil, fmt.Errorf("unmarshalling genesis: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// FromFile reads the genesis document at path.
func FromFile(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading genesis: %w", err)
	}
	return FromBytes(data)
}

// IsJSON checks if the provided arguments represent a valid JSON configuration.
//
// The function returns true if there is exactly one argument and its content
// is valid JSON.
func IsJSON(args []string) bool {
	return len(args) == 1 && json.Valid([]byte(args[0]))
}

// Validate checks every token of the genesis.
func (g *Genesis) Validate() error {
	if len(g.Tokens) == 0 {
		return ErrNoTokens
	}

	seen := make(map[types.Currency]struct{}, len(g.Tokens))
	for i := range g.Tokens {
		t := &g.Tokens[i]
		if _, ok := seen[t.Symbol]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateCurrency, t.Symbol)
		}
		seen[t.Symbol] = struct{}{}

		if err := t.Validate(); err != nil {
			return fmt.Errorf("token %d: %w", i, err)
		}
	}
	return nil
}

// Validate checks a single token.
func (t *Token) Validate() error {
	if err := t.Symbol.Validate(); err != nil {
		return err
	}
	if t.Issuer.IsZero() {
		return ErrIssuerEmpty
	}
	if t.FeeSetter.IsZero() {
		return ErrFeeSetterEmpty
	}

	var total uint64
	for _, e := range t.Emission {
		if e.Amount == 0 {
			return fmt.Errorf("%w: %s", ErrEmissionZero, e.Address)
		}
		if e.Amount > math.MaxUint64-total {
			return ErrEmissionOverflow
		}
		total += e.Amount
	}

	var bps uint32
	recipients := make(map[types.Address]struct{}, len(t.Fees))
	for _, f := range t.Fees {
		if _, ok := recipients[f.Recipient]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateRecipient, f.Recipient)
		}
		recipients[f.Recipient] = struct{}{}
		bps += uint32(f.BPS)
	}
	if bps > maxBasisPoints {
		return fmt.Errorf("%w: %d", ErrTotalFeeExceeded, bps)
	}

	for _, m := range t.FeeModes {
		if !m.Mode.Valid() {
			return fmt.Errorf("%w: %s", ErrInvalidFeeMode, m.Mode)
		}
	}
	return nil
}
