package ledger

import (
	"errors"

	"github.com/anoideaopen/feeledger/core/balance"
)

var (
	ErrAlreadyRegistered    = errors.New("currency already registered")
	ErrNotRegistered        = errors.New("currency not registered")
	ErrAccessDenied         = errors.New("access denied")
	ErrInvalidFeeMode       = errors.New("invalid fee mode")
	ErrInvalidTotalFee      = errors.New("total fee exceeds 10000 basis points")
	ErrLockNotFullyConsumed = errors.New("transfer lock not fully consumed")
	ErrInvalidMintState     = errors.New("supply must be zero before minting")
	ErrFeeNotFound          = errors.New("fee not found")
	ErrAccountExists        = errors.New("account already exists")
	ErrAccountNotFound      = errors.New("account not found")
	ErrLockOverdrawn        = errors.New("deposit exceeds outstanding lock amount")
	ErrForeignLock          = errors.New("transfer lock belongs to another sequence")
	ErrLockExpired          = errors.New("transfer lock expired")
	ErrLockDestroyed        = errors.New("transfer lock destroyed")
	ErrTxClosed             = errors.New("sequence already finished")
	ErrNilArgument          = errors.New("nil argument")
	ErrForeignPolicy        = errors.New("policy is not registered in this ledger")
	ErrForeignBalance       = errors.New("balance was not produced in this sequence")

	ErrInsufficientBalance = balance.ErrInsufficientBalance
	ErrCurrencyMismatch    = balance.ErrCurrencyMismatch
)
