package ledger

import "errors"

var (
	// ErrInsufficientCredits is returned when a spend exceeds the balance
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrInvalidAmount is returned when amount is <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	// ErrInvalidSource is returned for a source outside the closed set
	ErrInvalidSource = errors.New("invalid entry source")

	// ErrAccountNotFound is returned when the account doesn't exist
	ErrAccountNotFound = errors.New("account not found")

	ErrInternal = errors.New("internal error")
)
