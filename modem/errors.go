package modem

import "errors"

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when the Dialer produced no Transport.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when Close is called on a Modem that has
	// already been closed, and by every operation attempted afterwards.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrLoopRunning is returned when Loop is called while another Loop is
	// still running on the same Modem.
	ErrLoopRunning = errors.New("modem loop already running")

	// ErrNotResponding is returned by New when the modem does not answer the
	// initial AT check. It usually means a wrong port, baud rate or a
	// powered-down module.
	ErrNotResponding = errors.New("modem not responding")

	// ErrInvalidRequest is returned when a request is queued without a
	// destination number or USSD code.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrTickPanic wraps a panic recovered from a handler running inside the
	// event loop.
	ErrTickPanic = errors.New("panic in event loop")
)
