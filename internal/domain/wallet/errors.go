package wallet

import "errors"

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrCapacityExceeded    = errors.New("wallet capacity exceeded")
	ErrWalletNotActive     = errors.New("wallet is not active")
)
