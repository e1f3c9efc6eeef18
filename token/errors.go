package token

import "errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrEmissionFinalized = errors.New("emission is finalized")
	ErrZeroAmount        = errors.New("amount should be more than zero")
	ErrSameAddress       = errors.New("sender and recipient are same users")
	ErrNoRecipients      = errors.New("emission has no recipients")
	ErrEmissionOverflow  = errors.New("emission total overflows")
	ErrInvalidConfig     = errors.New("invalid token config")
)
