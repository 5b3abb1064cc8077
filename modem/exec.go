package modem

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"

	"i4.energy/across/callgate/at"
)

// executor runs one AT transaction at a time on the modem line.
type executor interface {
	// Exec writes cmd, waits settle and returns whatever the modem sent in
	// the meantime. The returned text is never validated; interpreting it
	// is up to the caller.
	Exec(ctx context.Context, cmd string, settle time.Duration) (string, error)
}

// settleExecutor trades latency for simplicity: it does not wait for a
// final result code, only for a fixed delay after each command.
type settleExecutor struct {
	port *port
}

func (e *settleExecutor) Exec(ctx context.Context, cmd string, settle time.Duration) (string, error) {
	if err := e.port.WriteString(strings.TrimSpace(cmd) + at.CRLF); err != nil {
		return "", fmt.Errorf("write command %q: %w", cmd, err)
	}
	if err := sleep(ctx, settle); err != nil {
		return "", fmt.Errorf("command %q: %w", cmd, err)
	}
	return decode(e.port.Drain()), nil
}

// decode turns modem output into text. Invalid UTF-8 is replaced rather
// than rejected so a single bad byte never loses a whole response.
func decode(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
