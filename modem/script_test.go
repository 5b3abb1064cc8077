package modem_test

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"i4.energy/across/callgate/modem"
)

// ReplyScript registers canned modem answers on a TestTransport, one
// method per command the driver issues.
type ReplyScript struct {
	transport *modem.TestTransport
}

func NewReplyScript(transport *modem.TestTransport) *ReplyScript {
	return &ReplyScript{transport: transport}
}

func (s *ReplyScript) AT() *ReplyScript {
	s.transport.Reply("AT", "AT\r\nOK\r\n")
	return s
}

func (s *ReplyScript) SimReady() *ReplyScript {
	s.transport.Reply("AT+CPIN?", "AT+CPIN?\r\n+CPIN: READY\r\n\r\nOK\r\n")
	return s
}

func (s *ReplyScript) SimPinRequired() *ReplyScript {
	s.transport.Reply("AT+CPIN?", "AT+CPIN?\r\n+CPIN: SIM PIN\r\n\r\nOK\r\n")
	return s
}

func (s *ReplyScript) EnterPIN(pin string) *ReplyScript {
	s.transport.Reply(fmt.Sprintf(`AT+CPIN="%s"`, pin), "OK\r\n")
	return s
}

func (s *ReplyScript) CallerID() *ReplyScript {
	s.transport.Reply("AT+CLIP=1", "AT+CLIP=1\r\nOK\r\n")
	return s
}

func (s *ReplyScript) SMSTextMode() *ReplyScript {
	s.transport.Reply("AT+CMGF=1", "AT+CMGF=1\r\nOK\r\n")
	return s
}

func (s *ReplyScript) DirectDelivery() *ReplyScript {
	s.transport.Reply("AT+CNMI=2,2,0,0,0", "AT+CNMI=2,2,0,0,0\r\nOK\r\n")
	return s
}

func (s *ReplyScript) OwnNumber(number string) *ReplyScript {
	s.transport.Reply("AT+CNUM", fmt.Sprintf("AT+CNUM\r\n+CNUM: \"\",\"%s\",145,7,4\r\n\r\nOK\r\n", number))
	return s
}

func (s *ReplyScript) NoOwnNumber() *ReplyScript {
	s.transport.Reply("AT+CNUM", "AT+CNUM\r\n\r\nOK\r\n")
	return s
}

func (s *ReplyScript) USSD(code, text string) *ReplyScript {
	s.transport.Reply("AT+CUSD=1", "AT+CUSD=1\r\nOK\r\n")
	s.transport.Reply(
		fmt.Sprintf(`AT+CUSD=1,"%s",15`, code),
		fmt.Sprintf("AT+CUSD=1,\"%s\",15\r\nOK\r\n\r\n+CUSD: 0,\"%s\",15\r\n", code, text),
	)
	return s
}

// Init scripts a complete, successful initialization.
func (s *ReplyScript) Init(number string) *ReplyScript {
	return s.AT().SimReady().CallerID().SMSTextMode().DirectDelivery().OwnNumber(number)
}

const testOwnNumber = "+385911234567"

func testConfig(dialer modem.Dialer) *modem.ConfigBuilder {
	return modem.NewConfigBuilder().
		WithDialer(dialer).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithInitTimeout(2*time.Second).
		WithCommandDelay(15*time.Millisecond).
		WithOwnNumberDelay(15*time.Millisecond).
		WithUSSDDelay(20*time.Millisecond, 5*time.Millisecond).
		WithPromptDelay(5*time.Millisecond).
		WithBodyDelay(5*time.Millisecond).
		WithReadTimeout(50*time.Millisecond).
		WithIdleInterval(10*time.Millisecond).
		WithBackoff(5*time.Millisecond, 20*time.Millisecond)
}

// dialerFor returns a mock dialer handing out transport once.
func dialerFor(ctrl *gomock.Controller, transport modem.Transport) *modem.MockDialer {
	dialer := modem.NewMockDialer(ctrl)
	dialer.EXPECT().Dial(gomock.Any()).Return(transport, nil)
	return dialer
}

// newTestModem initializes a modem on a scripted transport and closes it
// when the test ends.
func newTestModem(t *testing.T, transport *modem.TestTransport, configure ...func(*modem.ConfigBuilder)) *modem.Modem {
	t.Helper()

	ctrl := gomock.NewController(t)
	builder := testConfig(dialerFor(ctrl, transport))
	for _, c := range configure {
		c(builder)
	}
	config, err := builder.Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	m, err := modem.New(t.Context(), config)
	if err != nil {
		t.Fatalf("failed to create modem: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

// startLoop runs the event loop until the test ends.
func startLoop(t *testing.T, m *modem.Modem) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- m.Loop(t.Context())
	}()
	return done
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
