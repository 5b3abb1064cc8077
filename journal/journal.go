// Package journal keeps a record of what the gate saw and did.
package journal

import (
	"context"
	"time"
)

type Kind string

const (
	KindCall     Kind = "call"
	KindSMS      Kind = "sms"
	KindUSSD     Kind = "ussd"
	KindTransfer Kind = "transfer"
)

type Event struct {
	Kind    Kind      `json:"kind"`
	Number  string    `json:"number,omitempty"`
	Text    string    `json:"text,omitempty"`
	Allowed bool      `json:"allowed"`
	At      time.Time `json:"at"`
}

// Journal stores events. Recording is best effort; callers log failures
// and carry on.
type Journal interface {
	Record(ctx context.Context, e Event) error
	// Recent returns up to n events, newest first.
	Recent(ctx context.Context, n int) ([]Event, error)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }

func (Nop) Recent(context.Context, int) ([]Event, error) { return nil, nil }
