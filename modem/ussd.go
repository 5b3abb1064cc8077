package modem

import (
	"context"
	"fmt"
	"strings"

	"i4.energy/across/callgate/at"
)

// sendUSSD enables USSD result codes, sends code and returns the network's
// answer once the USSD delay has passed.
func (m *Modem) sendUSSD(ctx context.Context, code string) (string, error) {
	if _, err := m.exec.Exec(ctx, at.CmdUSSDMode, m.config.commandDelay); err != nil {
		return "", fmt.Errorf("enable USSD: %w", err)
	}
	if err := sleep(ctx, m.config.ussdPause); err != nil {
		return "", err
	}

	resp, err := m.exec.Exec(ctx, fmt.Sprintf(at.CmdUSSDRequest, code), m.config.ussdDelay)
	if err != nil {
		return "", err
	}
	return at.ParseUSSD(resp)
}

// hangup rejects the ringing call. It is handed to call handlers.
func (m *Modem) hangup(ctx context.Context) error {
	resp, err := m.exec.Exec(ctx, at.CmdHangup, m.config.commandDelay)
	if err != nil {
		return fmt.Errorf("hang up: %w", err)
	}
	m.logger.Info("Call rejected", "response", strings.TrimSpace(resp))
	return nil
}
