package ledger

import "errors"

var (
	// ErrZeroAddress is returned when an operation targets the nil account.
	ErrZeroAddress = errors.New("zero address")

	// ErrInsufficientBalance is returned when a transfer or burn exceeds
	// the holder's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientAllowance is returned when a delegated operation
	// exceeds the allowance granted to the spender.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)
