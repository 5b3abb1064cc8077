package modem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"i4.energy/across/callgate/at"
)

// Modem drives a SIM800 class GSM modem over AT commands. All transport
// I/O happens on the goroutine running Loop; the exported request methods
// only queue work for it and are safe for concurrent use.
type Modem struct {
	port   *port
	exec   executor
	config Config
	logger *slog.Logger

	ussd   fifo[USSDRequest]
	sms    fifo[SMSRequest]
	routes *Registry
	// wake interrupts an idle loop when new work is queued.
	wake chan struct{}

	mu          sync.Mutex
	closed      bool
	loopRunning bool
	stopLoop    context.CancelFunc
	loopDone    chan struct{}

	numberMu      sync.RWMutex
	ownNumber     string
	lastNumberTry time.Time
}

// PollConfig defines configuration for polling operations like waiting for SIM readiness.
type PollConfig struct {
	// Interval is the time between polling attempts
	Interval time.Duration
	// Timeout is the maximum time to wait for the condition
	Timeout time.Duration
	// MaxRetries is the maximum number of polling attempts
	MaxRetries int
}

// New creates a new Modem instance with the given configuration.
// It establishes the transport connection and runs the initialization
// sequence: liveness check, SIM check, caller ID, SMS text mode, direct
// message delivery and own number lookup.
//
// Returns an error if the transport connection or modem initialization
// fails. The event loop is not started; call Loop for that.
func New(ctx context.Context, config Config) (*Modem, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial modem: %w", err)
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	p := newPort(transport)
	m := &Modem{
		port:   p,
		exec:   &settleExecutor{port: p},
		config: config,
		logger: config.logger,
		routes: NewRegistry(),
		wake:   make(chan struct{}, 1),
	}

	initCtx, cancel := context.WithTimeout(ctx, config.initTimeout)
	defer cancel()

	if err := m.init(initCtx); err != nil {
		p.Close()
		return nil, fmt.Errorf("initialize modem: %w", err)
	}

	return m, nil
}

// init performs the initial setup sequence for the modem hardware.
func (m *Modem) init(ctx context.Context) error {
	m.logger.Info("Initializing modem")

	resp, err := m.exec.Exec(ctx, at.CmdAt, m.config.commandDelay)
	if err != nil {
		return fmt.Errorf("liveness check: %w", err)
	}
	if strings.TrimSpace(resp) == "" {
		return ErrNotResponding
	}

	simStatus, err := m.exec.Exec(ctx, at.CmdSimStatus, m.config.commandDelay)
	if err != nil {
		return fmt.Errorf("query SIM status: %w", err)
	}
	m.logger.Debug("SIM status", "status", simState(simStatus))

	if strings.Contains(simStatus, at.SimPin) {
		if m.config.simPIN == "" {
			m.logger.Warn("SIM requires a PIN but none is configured")
		} else if err := m.unlockSIM(ctx); err != nil {
			return err
		}
	}

	steps := []struct {
		cmd     string
		feature string
	}{
		{at.CmdCallerID, "caller ID"},
		{at.CmdSetTextMode, "SMS text mode"},
		{at.CmdNewMsgDirect, "direct SMS delivery"},
	}
	for _, step := range steps {
		resp, err := m.exec.Exec(ctx, step.cmd, m.config.commandDelay)
		if err != nil {
			return fmt.Errorf("enable %s: %w", step.feature, err)
		}
		m.logger.Debug("Enabled modem feature", "feature", step.feature, "response", strings.TrimSpace(resp))
	}

	number, err := m.resolveOwnNumber(ctx)
	switch {
	case errors.Is(err, at.ErrNoOwnNumber):
		m.logger.Warn("SIM does not report its own number, will retry while idle")
	case err != nil:
		return fmt.Errorf("resolve own number: %w", err)
	default:
		m.logger.Info("Own number resolved", "number", number)
	}

	m.logger.Info("Modem initialized")
	return nil
}

// simState picks the +CPIN line out of an AT+CPIN? response.
func simState(resp string) string {
	for _, line := range at.Lines(resp) {
		if strings.HasPrefix(line, at.RespSimStatus) {
			return line
		}
	}
	return strings.TrimSpace(resp)
}

func (m *Modem) unlockSIM(ctx context.Context) error {
	m.logger.Info("Entering SIM PIN")
	if _, err := m.exec.Exec(ctx, fmt.Sprintf(at.CmdSimPIN, m.config.simPIN), m.config.commandDelay); err != nil {
		return fmt.Errorf("enter SIM PIN: %w", err)
	}
	return m.waitForSIMReady(ctx, PollConfig{
		Interval: m.config.commandDelay,
		Timeout:  m.config.initTimeout,
	})
}

// waitForSIMReady polls the SIM card status until it reports ready state.
// This is necessary after entering a SIM PIN, as the SIM card needs time
// to authenticate and become operational.
func (m *Modem) waitForSIMReady(ctx context.Context, config PollConfig) error {
	var (
		pollInterval = config.Interval
		timeout      = config.Timeout
		maxRetries   = config.MaxRetries
	)

	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = int(timeout / pollInterval)
	}

	for retries := 1; ; retries++ {
		if retries > maxRetries {
			return fmt.Errorf("SIM not ready after %d retries", maxRetries)
		}
		resp, err := m.exec.Exec(ctx, at.CmdSimStatus, m.config.commandDelay)
		if err != nil {
			return fmt.Errorf("SIM status check failed: %w", err)
		}
		if strings.Contains(resp, at.SimReady) {
			return nil
		}
		if err := sleep(ctx, pollInterval); err != nil {
			return fmt.Errorf("SIM not ready: %w", err)
		}
	}
}

// resolveOwnNumber queries the SIM for its own number unless it is already
// known. Once resolved the number never changes.
func (m *Modem) resolveOwnNumber(ctx context.Context) (string, error) {
	if number, ok := m.OwnNumber(); ok {
		return number, nil
	}

	m.numberMu.Lock()
	m.lastNumberTry = time.Now()
	m.numberMu.Unlock()

	resp, err := m.exec.Exec(ctx, at.CmdOwnNumber, m.config.ownNumberDelay)
	if err != nil {
		return "", err
	}
	number, err := at.ParseOwnNumber(resp)
	if err != nil {
		return "", err
	}

	m.numberMu.Lock()
	defer m.numberMu.Unlock()
	if m.ownNumber == "" {
		m.ownNumber = number
	}
	return m.ownNumber, nil
}

// ownNumberDue reports whether an unresolved own number should be queried again.
func (m *Modem) ownNumberDue() bool {
	m.numberMu.RLock()
	defer m.numberMu.RUnlock()
	return m.ownNumber == "" && time.Since(m.lastNumberTry) >= m.config.ownNumberRetry
}

// OwnNumber returns the SIM's own number in international format, as
// reported by the network. ok is false until the number has been resolved.
func (m *Modem) OwnNumber() (number string, ok bool) {
	m.numberMu.RLock()
	defer m.numberMu.RUnlock()
	return m.ownNumber, m.ownNumber != ""
}

// SendSMS queues a text message for number and returns the request ID.
// Delivery is not confirmed; the message is sent when the event loop gets
// to it, after every pending USSD request.
func (m *Modem) SendSMS(number, text string) (string, error) {
	if m.isClosed() {
		return "", ErrAlreadyClosed
	}
	if number == "" {
		return "", fmt.Errorf("%w: empty recipient", ErrInvalidRequest)
	}

	req := SMSRequest{ID: uuid.NewString(), To: number, Text: text}
	m.sms.push(req)
	m.signal()

	m.logger.Debug("Queued SMS", "id", req.ID, "to", number)
	return req.ID, nil
}

// SendUSSD queues a USSD code and returns the request ID. h receives the
// network's answer on the event loop goroutine and may be nil.
func (m *Modem) SendUSSD(code string, h USSDHandler) (string, error) {
	if m.isClosed() {
		return "", ErrAlreadyClosed
	}
	if code == "" {
		return "", fmt.Errorf("%w: empty USSD code", ErrInvalidRequest)
	}

	req := USSDRequest{ID: uuid.NewString(), Code: code, Handler: h}
	m.ussd.push(req)
	m.signal()

	m.logger.Debug("Queued USSD request", "id", req.ID, "code", code)
	return req.ID, nil
}

// Route sends messages from number to h instead of the default SMS handler.
func (m *Modem) Route(number string, h SMSHandler) {
	m.routes.Register(number, h)
	m.logger.Debug("Route added", "number", number)
}

// Unroute removes the route for number.
func (m *Modem) Unroute(number string) {
	m.routes.Unregister(number)
	m.logger.Debug("Route removed", "number", number)
}

// ResetRoutes removes every route.
func (m *Modem) ResetRoutes() {
	m.routes.Reset()
}

// Pending reports how many requests are waiting in each queue.
func (m *Modem) Pending() (ussd, sms int) {
	return m.ussd.len(), m.sms.len()
}

// LogValue implements slog.LogValuer.
func (m *Modem) LogValue() slog.Value {
	number, _ := m.OwnNumber()
	ussd, sms := m.Pending()

	m.mu.Lock()
	closed, running := m.closed, m.loopRunning
	m.mu.Unlock()

	return slog.GroupValue(
		slog.String("number", number),
		slog.Bool("running", running),
		slog.Bool("closed", closed),
		slog.Int("pending_ussd", ussd),
		slog.Int("pending_sms", sms),
		slog.Int("routes", m.routes.Len()),
	)
}

func (m *Modem) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Modem) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close stops the event loop, waits for the current tick to finish and
// closes the transport. A command in flight is allowed to complete.
// Handlers must not call Close.
func (m *Modem) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrAlreadyClosed
	}
	m.closed = true
	running, stop, done := m.loopRunning, m.stopLoop, m.loopDone
	m.mu.Unlock()

	if running {
		stop()
		<-done
	}

	m.logger.Info("Closing modem")
	return m.port.Close()
}
