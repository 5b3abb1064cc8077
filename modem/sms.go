package modem

import (
	"context"
	"fmt"
	"strings"

	"i4.energy/across/callgate/at"
)

// sendSMS sends a text message in text mode. The message is handed to the
// modem after a fixed prompt delay whether or not the "> " prompt showed
// up; the +CMGS result is not checked.
func (m *Modem) sendSMS(ctx context.Context, recipient, message string) error {
	if _, err := m.exec.Exec(ctx, at.CmdSetTextMode, m.config.commandDelay); err != nil {
		return fmt.Errorf("set SMS text mode: %w", err)
	}

	if err := m.port.WriteString(fmt.Sprintf(at.CmdSendSMS, recipient) + at.CRLF); err != nil {
		return fmt.Errorf("AT+CMGS command failed: %w", err)
	}
	if err := sleep(ctx, m.config.promptDelay); err != nil {
		return err
	}
	if resp := decode(m.port.Drain()); !at.HasPrompt(resp) {
		m.logger.Warn("No SMS prompt from modem", "to", recipient, "response", strings.TrimSpace(resp))
	}

	if err := m.port.WriteString(message + at.CtrlZ); err != nil {
		return fmt.Errorf("write SMS body: %w", err)
	}
	return nil
}
