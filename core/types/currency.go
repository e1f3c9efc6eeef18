package types

import (
	"errors"
	"strings"
)

var ErrEmptyCurrency = errors.New("currency can't be empty")

// Currency identifies the asset type a balance, account or policy belongs to.
type Currency string

// Validate checks that the currency identifier is usable as a registry key.
func (c Currency) Validate() error {
	if strings.TrimSpace(string(c)) == "" {
		return ErrEmptyCurrency
	}
	return nil
}

func (c Currency) String() string {
	return string(c)
}
