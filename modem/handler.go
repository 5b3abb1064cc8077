package modem

import "context"

// Handlers run on the event loop goroutine. They may queue new requests on
// the Modem but must not block for long, and must never call Close.

// SMSHandler handles an incoming text message.
type SMSHandler interface {
	HandleSMS(ctx context.Context, sender, text string) error
}

// SMSHandlerFunc adapts a function to SMSHandler.
type SMSHandlerFunc func(ctx context.Context, sender, text string) error

func (f SMSHandlerFunc) HandleSMS(ctx context.Context, sender, text string) error {
	return f(ctx, sender, text)
}

// Hangup rejects the call that is currently ringing.
type Hangup func(ctx context.Context) error

// CallHandler handles an incoming call. It is invoked for every caller ID
// notification, which the modem repeats on each ring.
type CallHandler interface {
	HandleCall(ctx context.Context, number string, hangup Hangup) error
}

// CallHandlerFunc adapts a function to CallHandler.
type CallHandlerFunc func(ctx context.Context, number string, hangup Hangup) error

func (f CallHandlerFunc) HandleCall(ctx context.Context, number string, hangup Hangup) error {
	return f(ctx, number, hangup)
}

// USSDHandler receives the network's answer to a queued USSD request.
type USSDHandler interface {
	HandleUSSD(ctx context.Context, text string) error
}

// USSDHandlerFunc adapts a function to USSDHandler.
type USSDHandlerFunc func(ctx context.Context, text string) error

func (f USSDHandlerFunc) HandleUSSD(ctx context.Context, text string) error {
	return f(ctx, text)
}
