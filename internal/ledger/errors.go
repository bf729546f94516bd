package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTransactionType = errors.New("transaction type must be BUY or SELL")
	ErrInvalidQuantity        = errors.New("quantity must be greater than 0")
	ErrInvalidPrice           = errors.New("price and fees must not be negative")
)

// NoHoldingError is returned when a sell is requested for a ticker the
// portfolio does not hold at all.
type NoHoldingError struct {
	Ticker    string
	Requested int
}

func (e *NoHoldingError) Error() string {
	return fmt.Sprintf("you cannot sell %s because you don't own any shares", e.Ticker)
}

// InsufficientQuantityError is returned when a sell asks for more shares
// than the portfolio currently holds.
type InsufficientQuantityError struct {
	Ticker    string
	Requested int
	Owned     int
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("you cannot sell %d shares of %s, you only have %d shares", e.Requested, e.Ticker, e.Owned)
}

// IsSellValidationError reports whether err is one of the recoverable
// sell validation failures surfaced to the user as a field message.
func IsSellValidationError(err error) bool {
	var noHolding *NoHoldingError
	var insufficient *InsufficientQuantityError
	return errors.As(err, &noHolding) || errors.As(err, &insufficient)
}
