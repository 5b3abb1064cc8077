package modem

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
)

func waitBuffered(t *testing.T, p *port, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for p.Buffered() < n {
		if time.Now().After(deadline) {
			t.Fatalf("buffered %d bytes, want %d", p.Buffered(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPortReadLine(t *testing.T) {
	t.Run("Complete lines are returned one at a time", func(t *testing.T) {
		transport := NewTestTransport()
		p := newPort(transport)
		defer p.Close()

		transport.SendData("+CMT: \"13977\",\"\",\"\"\r\nbody\n")
		waitBuffered(t, p, 25)

		for _, want := range []string{"+CMT: \"13977\",\"\",\"\"", "body"} {
			got, err := p.ReadLine(context.Background(), 50*time.Millisecond)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != want {
				t.Errorf("ReadLine() = %q, want %q", got, want)
			}
		}
		if p.Buffered() != 0 {
			t.Errorf("expected empty buffer, %d bytes left", p.Buffered())
		}
	})

	t.Run("Line starting with the SMS prompt is kept whole", func(t *testing.T) {
		transport := NewTestTransport()
		p := newPort(transport)
		defer p.Close()

		transport.SendData("> quoted reply\r\n")

		got, err := p.ReadLine(context.Background(), time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "> quoted reply" {
			t.Errorf("ReadLine() = %q, want %q", got, "> quoted reply")
		}
	})

	t.Run("Line split across reads", func(t *testing.T) {
		transport := NewTestTransport()
		p := newPort(transport)
		defer p.Close()

		go func() {
			transport.SendData("+CLIP: \"+3859")
			time.Sleep(10 * time.Millisecond)
			transport.SendData("11234567\",145\r\n")
		}()

		got, err := p.ReadLine(context.Background(), time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "+CLIP: \"+385911234567\",145" {
			t.Errorf("ReadLine() = %q", got)
		}
	})

	t.Run("Timeout returns the partial line", func(t *testing.T) {
		transport := NewTestTransport()
		p := newPort(transport)
		defer p.Close()

		transport.SendData("no terminator")
		waitBuffered(t, p, 13)

		got, err := p.ReadLine(context.Background(), 20*time.Millisecond)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "no terminator" {
			t.Errorf("ReadLine() = %q", got)
		}
	})

	t.Run("Invalid UTF-8 is replaced", func(t *testing.T) {
		transport := NewTestTransport()
		p := newPort(transport)
		defer p.Close()

		transport.SendData("Stanje \xff\xfe EUR\r\n")
		got, err := p.ReadLine(context.Background(), time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "Stanje �� EUR" {
			t.Errorf("ReadLine() = %q", got)
		}
	})

	t.Run("Reader error surfaces once the buffer is empty", func(t *testing.T) {
		transport := NewTestTransport()
		p := newPort(transport)

		transport.SendData("last\r\n")
		waitBuffered(t, p, 6)
		transport.Close()
		<-p.done

		if got, err := p.ReadLine(context.Background(), time.Second); err != nil || got != "last" {
			t.Errorf("ReadLine() = %q, %v, want last line", got, err)
		}
		if _, err := p.ReadLine(context.Background(), time.Second); !errors.Is(err, io.EOF) {
			t.Errorf("expected io.EOF, got %v", err)
		}
		if !errors.Is(p.Err(), io.EOF) {
			t.Errorf("Err() = %v", p.Err())
		}
	})
}

func TestPortWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTransport := NewMockTransport(ctrl)
	closed := make(chan struct{})
	mockTransport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		<-closed
		return 0, io.EOF
	}).AnyTimes()

	gomock.InOrder(
		mockTransport.EXPECT().Write([]byte("AT+CMGF=1\r\n")).Return(5, nil),
		mockTransport.EXPECT().Write([]byte("GF=1\r\n")).Return(6, nil),
		mockTransport.EXPECT().Write([]byte("ATH\r\n")).Return(0, nil),
	)
	mockTransport.EXPECT().Close().DoAndReturn(func() error {
		close(closed)
		return nil
	})

	p := newPort(mockTransport)
	if err := p.WriteString("AT+CMGF=1\r\n"); err != nil {
		t.Errorf("short writes should be retried, got %v", err)
	}
	if err := p.WriteString("ATH\r\n"); !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("expected io.ErrShortWrite, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}

func TestSettleExecutor(t *testing.T) {
	transport := NewTestTransport()
	transport.Reply("AT+CUSD=1", "AT+CUSD=1\r\nOK\r\n")
	p := newPort(transport)
	defer p.Close()

	e := &settleExecutor{port: p}

	got, err := e.Exec(context.Background(), " AT+CUSD=1 ", 20*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "AT+CUSD=1\r\nOK\r\n" {
		t.Errorf("Exec() = %q", got)
	}
	if !transport.WroteCommand("AT+CUSD=1") {
		t.Errorf("written: %q", transport.Written())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Exec(ctx, "AT", time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSimState(t *testing.T) {
	tests := []struct {
		resp string
		want string
	}{
		{"AT+CPIN?\r\n+CPIN: READY\r\n\r\nOK\r\n", "+CPIN: READY"},
		{"AT+CPIN?\r\n+CPIN: SIM PIN\r\n\r\nOK\r\n", "+CPIN: SIM PIN"},
		{" ERROR \r\n", "ERROR"},
	}

	for _, tt := range tests {
		if got := simState(tt.resp); got != tt.want {
			t.Errorf("simState(%q) = %q, want %q", tt.resp, got, tt.want)
		}
	}
}
