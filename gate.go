package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"i4.energy/across/callgate/action"
	"i4.energy/across/callgate/journal"
	"i4.energy/across/callgate/modem"
)

// AllowList decides who may open the gate.
type AllowList interface {
	Contains(number string) (bool, error)
}

// Gate opens for calls and messages from allowed numbers. It is the
// modem's default call and SMS handler.
type Gate struct {
	Logger  *slog.Logger
	Allowed AllowList
	Journal journal.Journal
	Action  action.Trigger
}

var (
	_ modem.CallHandler = (*Gate)(nil)
	_ modem.SMSHandler  = (*Gate)(nil)
)

// HandleCall hangs up on an allowed caller and then opens the gate. Other
// calls keep ringing.
func (g *Gate) HandleCall(ctx context.Context, number string, hangup modem.Hangup) error {
	allowed := g.allowed(number)
	g.Logger.Info("Incoming call", "number", number, "allowed", allowed)
	g.record(ctx, journal.Event{Kind: journal.KindCall, Number: number, Allowed: allowed})

	if !allowed {
		return nil
	}

	if err := hangup(ctx); err != nil {
		g.Logger.Warn("Failed to hang up", "number", number, "error", err)
	}
	return g.open(ctx, number)
}

// HandleSMS opens the gate for a message from an allowed sender, whatever
// the text says.
func (g *Gate) HandleSMS(ctx context.Context, sender, text string) error {
	allowed := g.allowed(sender)
	g.Logger.Info("Incoming SMS", "sender", sender, "allowed", allowed, "length", len(text))
	g.record(ctx, journal.Event{Kind: journal.KindSMS, Number: sender, Text: text, Allowed: allowed})

	if !allowed {
		return nil
	}
	return g.open(ctx, sender)
}

func (g *Gate) allowed(number string) bool {
	if g.Allowed == nil || number == "" {
		return false
	}
	ok, err := g.Allowed.Contains(number)
	if err != nil {
		g.Logger.Warn("Allow-list lookup failed", "number", number, "error", err)
		return false
	}
	return ok
}

func (g *Gate) open(ctx context.Context, number string) error {
	if g.Action == nil {
		return nil
	}
	if err := g.Action.Fire(ctx); err != nil {
		return fmt.Errorf("open gate for %s: %w", number, err)
	}
	g.Logger.Info("Gate opened", "number", number)
	return nil
}

func (g *Gate) record(ctx context.Context, e journal.Event) {
	recordEvent(ctx, g.Journal, g.Logger, e)
}

// recordEvent journals e, stamping it now. Failures are only logged.
func recordEvent(ctx context.Context, j journal.Journal, logger *slog.Logger, e journal.Event) {
	if j == nil {
		return
	}
	e.At = time.Now()
	if err := j.Record(ctx, e); err != nil {
		logger.Warn("Failed to record event", "kind", e.Kind, "error", err)
	}
}
