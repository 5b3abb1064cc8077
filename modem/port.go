package modem

import (
	"context"
	"io"
	"sync"
	"time"

	"i4.energy/across/callgate/at"
)

// port buffers everything the transport delivers so the event loop can
// check for pending input without blocking. A single goroutine reads the
// transport for the lifetime of the port.
type port struct {
	transport Transport

	mu  sync.Mutex
	buf []byte
	err error

	// notify is signalled whenever buf grows or the transport fails.
	notify chan struct{}
	done   chan struct{}
}

func newPort(transport Transport) *port {
	p := &port{
		transport: transport,
		notify:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go p.pump()
	return p
}

func (p *port) pump() {
	defer close(p.done)

	chunk := make([]byte, 512)
	for {
		n, err := p.transport.Read(chunk)

		p.mu.Lock()
		p.buf = append(p.buf, chunk[:n]...)
		if err != nil {
			p.err = err
		}
		p.mu.Unlock()

		if n > 0 || err != nil {
			p.signal()
		}
		if err != nil {
			return
		}
	}
}

func (p *port) signal() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Buffered reports how many received bytes have not been consumed yet.
func (p *port) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf)
}

// Err returns the error that stopped the reader, if any.
func (p *port) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Drain consumes and returns everything received so far.
func (p *port) Drain() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.buf
	p.buf = nil
	return out
}

// ReadLine returns the next line without its terminator. Only line endings
// split; a line starting with "> " is returned whole. If no complete
// line arrives within timeout, whatever was received is returned instead,
// possibly nothing.
func (p *port) ReadLine(ctx context.Context, timeout time.Duration) (string, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		p.mu.Lock()
		advance, token, _ := at.SplitLines(p.buf, false)
		if advance > 0 {
			line := decode(token)
			p.buf = p.buf[advance:]
			if len(p.buf) == 0 {
				p.buf = nil
			}
			p.mu.Unlock()
			return line, nil
		}
		if p.err != nil {
			rest, err := p.buf, p.err
			p.buf = nil
			p.mu.Unlock()
			if len(rest) > 0 {
				return decode(rest), nil
			}
			return "", err
		}
		p.mu.Unlock()

		select {
		case <-p.notify:
		case <-deadline.C:
			return decode(p.Drain()), nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Write sends b in full.
func (p *port) Write(b []byte) error {
	for len(b) > 0 {
		n, err := p.transport.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		b = b[n:]
	}
	return nil
}

func (p *port) WriteString(s string) error {
	return p.Write([]byte(s))
}

// Close closes the transport and waits for the reader to stop.
func (p *port) Close() error {
	err := p.transport.Close()
	<-p.done
	return err
}
