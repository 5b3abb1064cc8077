package at

import "errors"

var (
	// ErrNoOwnNumber is returned by ParseOwnNumber when the modem did not
	// report a subscriber number. Many SIM cards do not carry one until the
	// network has provisioned it, so callers should retry later.
	ErrNoOwnNumber = errors.New("own number not reported")

	// ErrMalformedOwnNumber is returned when the +CNUM marker is present but
	// no international number can be found in the response.
	//
	// This indicates a response format the parser does not understand and
	// should not be retried blindly.
	ErrMalformedOwnNumber = errors.New("malformed own number response")

	// ErrMalformedUSSD is returned when a USSD response does not contain
	// exactly one meaningful line with a quoted message.
	ErrMalformedUSSD = errors.New("malformed USSD response")
)
