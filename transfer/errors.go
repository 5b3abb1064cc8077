package transfer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount is returned by Run for amounts below one euro.
	ErrInvalidAmount = errors.New("transfer amount must be positive")

	// ErrProtocolMismatch means the operator answered with text the dialog
	// does not recognize. The dialog is abandoned; continuing on a reply
	// that was not understood could move money to the wrong place.
	ErrProtocolMismatch = errors.New("unexpected reply in transfer dialog")

	// ErrUnexpectedSender is returned when a message from a number other
	// than the operator's reaches the flow.
	ErrUnexpectedSender = errors.New("message from unexpected sender")

	// ErrNoBalance is returned by ParseBalance when the text holds no
	// euro amount.
	ErrNoBalance = errors.New("no balance in text")
)

// MismatchError records the state the dialog was in and the reply that
// did not match.
type MismatchError struct {
	State State
	Reply string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("unexpected reply while %s: %q", e.State, e.Reply)
}

func (e *MismatchError) Unwrap() error {
	return ErrProtocolMismatch
}
