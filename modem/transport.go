package modem

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=modem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Transport represents an established, bidirectional byte stream to a GSM modem.
//
// A Transport is assumed to be already connected and ready for use. It provides
// the low-level I/O primitives required to send AT commands and receive responses.
// Typical implementations include serial ports, TCP connections to emulators,
// or in-memory fakes used for testing.
//
// The Modem reads from the Transport on a dedicated goroutine for its whole
// lifetime; Close must unblock a pending Read.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to a GSM modem.
//
// Dialer abstracts how the modem connection is created (for example, via a
// serial port, TCP-based emulator, or test double) and is intended to be used
// during modem construction only. Once a Transport is obtained, the Dialer is
// no longer needed.
type Dialer interface {
	// Dial is responsible for creating and returning a connected Transport. It may
	// perform blocking operations and should respect cancellation and deadlines
	// provided by the context. Dial returns an error if the transport cannot be
	// established.
	Dial(ctx context.Context) (Transport, error)
}

// DefaultBaudRate is the rate SIM800 modules autobaud to out of the box.
const DefaultBaudRate = 9600

// SerialDialer opens a GSM modem over a serial port using go.bug.st/serial.
type SerialDialer struct {
	// PortName is the device path, e.g. /dev/ttyUSB0.
	PortName string
	// BaudRate is used when Mode is nil. Zero means DefaultBaudRate.
	BaudRate int
	// Mode overrides the 8N1 mode derived from BaudRate.
	Mode *serial.Mode
	// ReadTimeout bounds each Read on the port. Zero means one second.
	ReadTimeout time.Duration
}

// Dial opens the serial port. No flow control is configured, matching the
// SIM800 factory settings.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if d.PortName == "" {
		return nil, errors.New("gsm: serial port name is required")
	}
	if ctx == nil {
		return nil, errors.New("gsm: context is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		baud := d.BaudRate
		if baud == 0 {
			baud = DefaultBaudRate
		}
		mode = &serial.Mode{
			BaudRate: baud,
			Parity:   serial.NoParity,
			DataBits: 8,
			StopBits: serial.OneStopBit,
		}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("gsm: open %s: %w", d.PortName, err)
	}

	timeout := d.ReadTimeout
	if timeout == 0 {
		timeout = time.Second
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("gsm: set read timeout on %s: %w", d.PortName, err)
	}

	return port, nil
}
