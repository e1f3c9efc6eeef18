package token

import (
	"github.com/anoideaopen/feeledger/core/types"
)

// Metadata is a struct for metadata
type Metadata struct {
	Name          string         `json:"name"`
	Symbol        string         `json:"symbol"`
	Decimals      uint           `json:"decimals"`
	Issuer        string         `json:"issuer"`
	FeeSetter     string         `json:"fee_setter"`
	TotalEmission uint64         `json:"total_emission"`
	Finalized     bool           `json:"finalized"`
	TotalFee      uint16         `json:"total_fee"`
	Fees          []*MetadataFee `json:"fees"`
}

// MetadataFee is a struct for a fee row
type MetadataFee struct {
	Address string `json:"address"`
	BPS     uint16 `json:"bps"`
	Accrued uint64 `json:"accrued"`
}

// Prediction is the outcome of a transfer computed without executing it.
type Prediction struct {
	Fee uint64 `json:"fee"`
	Net uint64 `json:"net"`
}

// QueryMetadata returns Metadata
func (bt *BaseToken) QueryMetadata() *Metadata {
	m := &Metadata{
		Name:          bt.config.Name,
		Symbol:        bt.config.Symbol.String(),
		Decimals:      bt.config.Decimals,
		Issuer:        bt.config.Issuer.String(),
		FeeSetter:     bt.config.FeeSetter.String(),
		TotalEmission: bt.TotalEmission(),
		Finalized:     bt.Finalized(),
		TotalFee:      bt.policy.TotalFee(),
	}
	for _, row := range bt.policy.Fees() {
		m.Fees = append(m.Fees, &MetadataFee{
			Address: row.Recipient.String(),
			BPS:     row.BPS,
			Accrued: bt.policy.Accrued(row.Recipient),
		})
	}
	return m
}

// QueryBalanceOf returns the balance of the address
func (bt *BaseToken) QueryBalanceOf(address types.Address) uint64 {
	return bt.ledger.BalanceOf(bt.config.Symbol, address)
}

// QueryAccruedFee returns the fees collected for the address and not yet
// claimed.
func (bt *BaseToken) QueryAccruedFee(address types.Address) uint64 {
	return bt.policy.Accrued(address)
}

// QueryPredictFee returns the fee a transfer of amount from sender to
// recipient would pay under the current policy and fee modes.
func (bt *BaseToken) QueryPredictFee(sender, recipient types.Address, amount uint64) Prediction {
	if bt.policy.FeeMode(sender) == types.FeeModeExemptAsSource ||
		bt.policy.FeeMode(recipient) == types.FeeModeExemptAsDestination {
		return Prediction{Net: amount}
	}

	fee := bt.policy.PredictFee(amount)
	return Prediction{Fee: fee, Net: amount - fee}
}
