package modem

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jpillora/backoff"

	"i4.energy/across/callgate/at"
)

// Loop is the event loop that owns all transport I/O. Each tick does
// exactly one thing, in priority order:
//
//  1. read and dispatch one line of inbound data
//  2. serve one queued USSD request
//  3. send one queued SMS
//  4. retry an unresolved own number, or idle briefly
//
// A failed tick is logged and followed by an exponential backoff; Loop
// only returns once ctx is cancelled or Close is called. Cancellation is
// checked between ticks, so a command in flight always completes.
//
// Usage:
//
//	m, err := modem.New(ctx, config)
//	if err != nil { return err }
//	go m.Loop(ctx)
func (m *Modem) Loop(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrAlreadyClosed
	}
	if m.loopRunning {
		m.mu.Unlock()
		return ErrLoopRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.loopRunning = true
	m.stopLoop = cancel
	m.loopDone = done
	m.mu.Unlock()

	defer func() {
		cancel()
		m.mu.Lock()
		m.loopRunning = false
		m.stopLoop = nil
		m.mu.Unlock()
		close(done)
	}()

	b := &backoff.Backoff{
		Min:    m.config.backoffMin,
		Max:    m.config.backoffMax,
		Factor: 2,
	}

	m.logger.Info("Event loop started")
	for {
		if err := ctx.Err(); err != nil {
			m.logger.Info("Event loop stopped")
			return err
		}

		if err := m.tick(ctx); err != nil {
			wait := b.Duration()
			m.logger.Error("Event loop tick failed", "error", err, "backoff", wait)
			_ = sleep(ctx, wait)
			continue
		}
		b.Reset()
	}
}

func (m *Modem) tick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTickPanic, r)
		}
	}()

	// Work started in a tick runs to completion even if the loop is stopped.
	work := context.WithoutCancel(ctx)

	if m.port.Buffered() > 0 {
		return m.receive(work)
	}
	if err := m.port.Err(); err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	if req, ok := m.ussd.pop(); ok {
		return m.serveUSSD(work, req)
	}
	if req, ok := m.sms.pop(); ok {
		return m.serveSMS(work, req)
	}
	if m.ownNumberDue() {
		return m.retryOwnNumber(work)
	}

	m.idle(ctx)
	return nil
}

func (m *Modem) idle(ctx context.Context) {
	t := time.NewTimer(m.config.idleInterval)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-m.wake:
	case <-m.port.notify:
	case <-t.C:
	}
}

// receive reads one line and dispatches it by notification kind.
func (m *Modem) receive(ctx context.Context) error {
	line, err := m.port.ReadLine(ctx, m.config.readTimeout)
	if err != nil {
		return fmt.Errorf("read line: %w", err)
	}

	n := at.ParseNotification(line)
	switch n.Kind {
	case at.NotifyCall:
		return m.dispatchCall(ctx, n.Number)
	case at.NotifySMS:
		return m.dispatchSMS(ctx, n.Number)
	case at.NotifyIgnored:
		m.logger.Warn("Unable to parse notification", "line", n.Line)
	default:
		switch {
		case strings.HasPrefix(n.Line, at.UrcUSSD):
			m.logger.Warn("USSD answer arrived after its request", "line", n.Line)
		case !n.Silent():
			m.logger.Debug("Unsolicited data", "line", n.Line)
		}
	}
	return nil
}

func (m *Modem) dispatchCall(ctx context.Context, number string) error {
	m.logger.Info("Incoming call", "number", number)
	if m.config.callHandler == nil {
		return nil
	}
	if err := m.config.callHandler.HandleCall(ctx, number, m.hangup); err != nil {
		return fmt.Errorf("handle call from %s: %w", number, err)
	}
	return nil
}

// dispatchSMS reads the body line that follows a message header and hands
// the message to the sender's route, or to the default handler.
func (m *Modem) dispatchSMS(ctx context.Context, sender string) error {
	if err := sleep(ctx, m.config.bodyDelay); err != nil {
		return err
	}
	body, err := m.port.ReadLine(ctx, m.config.readTimeout)
	if err != nil {
		return fmt.Errorf("read SMS body from %s: %w", sender, err)
	}
	body = strings.TrimSpace(body)
	m.logger.Info("Received SMS", "sender", sender, "text", body)

	h, routed := m.routes.Lookup(sender)
	if !routed {
		h = m.config.smsHandler
	}
	if h == nil {
		return nil
	}
	if err := h.HandleSMS(ctx, sender, body); err != nil {
		return fmt.Errorf("handle SMS from %s: %w", sender, err)
	}
	return nil
}

func (m *Modem) serveUSSD(ctx context.Context, req USSDRequest) error {
	m.logger.Info("Sending USSD request", "id", req.ID, "code", req.Code)

	text, err := m.sendUSSD(ctx, req.Code)
	if errors.Is(err, at.ErrMalformedUSSD) {
		m.logger.Error("Unable to parse USSD response", "id", req.ID, "code", req.Code, "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("USSD %s: %w", req.Code, err)
	}

	m.logger.Info("USSD response", "id", req.ID, "code", req.Code, "text", text)
	if req.Handler == nil {
		return nil
	}
	if err := req.Handler.HandleUSSD(ctx, text); err != nil {
		return fmt.Errorf("handle USSD %s response: %w", req.Code, err)
	}
	return nil
}

func (m *Modem) serveSMS(ctx context.Context, req SMSRequest) error {
	m.logger.Info("Sending SMS", "id", req.ID, "to", req.To, "text", req.Text)
	if err := m.sendSMS(ctx, req.To, req.Text); err != nil {
		return fmt.Errorf("send SMS %s to %s: %w", req.ID, req.To, err)
	}
	return nil
}

func (m *Modem) retryOwnNumber(ctx context.Context) error {
	number, err := m.resolveOwnNumber(ctx)
	if errors.Is(err, at.ErrNoOwnNumber) {
		m.logger.Debug("Own number still unknown")
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve own number: %w", err)
	}
	m.logger.Info("Own number resolved", "number", number)
	return nil
}
