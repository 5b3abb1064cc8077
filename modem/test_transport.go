package modem

import (
	"io"
	"slices"
	"strings"
	"sync"
)

// TestTransport is a scripted in-memory modem for tests. Reads block until
// data is queued, like a real serial port. Every written command that has
// a reply registered with Reply is answered; all writes are recorded.
type TestTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	pending  []byte
	closed   bool
	replies  map[string][]string
	written  []string
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 64),
		replies:  make(map[string][]string),
	}
}

// Reply queues data as the answer to the next write of cmd, which is
// matched without its line terminator. Replies are used in order; the
// last one keeps answering once the others are used up.
func (t *TestTransport) Reply(cmd, data string) *TestTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies[cmd] = append(t.replies[cmd], data)
	return t
}

// Written returns every chunk written so far, in order.
func (t *TestTransport) Written() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.written)
}

// WroteCommand reports whether cmd was written as a full command line.
func (t *TestTransport) WroteCommand(cmd string) bool {
	return slices.Contains(t.Written(), cmd+"\r\n")
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	chunk := string(p)
	t.written = append(t.written, chunk)

	var reply string
	cmd := strings.TrimRight(chunk, "\r\n")
	if queued := t.replies[cmd]; len(queued) > 0 {
		reply = queued[0]
		if len(queued) > 1 {
			t.replies[cmd] = queued[1:]
		}
	}
	t.mu.Unlock()

	if reply != "" {
		t.SendData(reply)
	}
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	if len(t.pending) == 0 {
		data, ok := <-t.readChan
		if !ok {
			return 0, io.EOF
		}
		t.pending = data
	}
	n = copy(p, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues data to be read by the transport.
// This simulates receiving data from the modem.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}
