// Package transfer moves prepaid credit to a master number through the
// operator's Bonbon SMS dialog.
//
// The dialog is scripted by the operator:
//
//	-> prebaci
//	<- ... u obliku 09yxxxxxxx.                    (which number?)
//	-> 0911234567
//	<- Posalji nam samo cjelobrojni iznos ...       (how much?)
//	-> 12
//	<- ... odgovori na ovu poruku s DA.            (confirm?)
//	-> DA
//
// Any other reply abandons the dialog with a *MismatchError.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"i4.energy/across/callgate/phone"
)

const (
	// RemoteNumber is the operator's short code for transfers.
	RemoteNumber = "13977"
	// BalanceCode is the USSD code that reports the prepaid balance.
	BalanceCode = "*100#"

	TriggerKeyword = "prebaci"
	ConfirmKeyword = "DA"

	// UnknownExpiration is recorded when the balance answer has no date.
	UnknownExpiration = "unknown"
)

// Cues the operator's replies must contain, after normalization.
const (
	numberCue  = "09yxxxxxxx"
	amountCue  = "cjelobrojni"
	confirmCue = "odgovori na ovu poruku s da"
)

type State int

const (
	Idle State = iota
	AwaitingNumberPrompt
	AwaitingAmountPrompt
	AwaitingConfirmPrompt
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingNumberPrompt:
		return "awaiting number prompt"
	case AwaitingAmountPrompt:
		return "awaiting amount prompt"
	case AwaitingConfirmPrompt:
		return "awaiting confirm prompt"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// Status is a snapshot of a Flow.
type Status struct {
	State      State
	Amount     int
	Expiration string
	LastErr    error
}

// Flow is one transfer dialog. While a dialog is running the flow is
// routed as the handler for RemoteNumber; it removes the route itself
// when the dialog ends.
type Flow struct {
	messenger Messenger
	master    string
	logger    *slog.Logger

	mu         sync.Mutex
	state      State
	amount     int
	expiration string
	lastErr    error
}

type Option func(*Flow)

func WithLogger(l *slog.Logger) Option {
	return func(f *Flow) {
		f.logger = l
	}
}

// New creates an idle flow that transfers credit to master, which is
// normalized to national form for the operator.
func New(messenger Messenger, master, region string, opts ...Option) (*Flow, error) {
	national, err := phone.National(master, region)
	if err != nil {
		return nil, fmt.Errorf("master number: %w", err)
	}

	f := &Flow{
		messenger:  messenger,
		master:     national,
		logger:     slog.Default(),
		expiration: UnknownExpiration,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "transfer")
	return f, nil
}

// Run starts a dialog transferring amount euros. A dialog already in
// progress is abandoned and started over.
func (f *Flow) Run(amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != Idle {
		f.logger.Warn("Restarting transfer dialog", "state", f.state)
	}
	f.state = AwaitingNumberPrompt
	f.amount = amount
	f.lastErr = nil

	f.messenger.Route(RemoteNumber, f)
	if err := f.send(TriggerKeyword); err != nil {
		return err
	}

	f.logger.Info("Transfer started", "amount", amount, "master", f.master)
	return nil
}

// RunAutomatic queries the balance; the answer starts a dialog for the
// whole euros available.
func (f *Flow) RunAutomatic() error {
	if _, err := f.messenger.SendUSSD(BalanceCode, f); err != nil {
		return fmt.Errorf("query balance: %w", err)
	}
	return nil
}

// HandleSMS advances the dialog on a reply from the operator.
func (f *Flow) HandleSMS(_ context.Context, sender, text string) error {
	if sender != RemoteNumber {
		return fmt.Errorf("%w: %s", ErrUnexpectedSender, sender)
	}
	reply := normalize(text)

	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case AwaitingNumberPrompt:
		if !strings.Contains(reply, numberCue) {
			return f.mismatch(reply)
		}
		f.state = AwaitingAmountPrompt
		return f.send(f.master)

	case AwaitingAmountPrompt:
		if !strings.Contains(reply, amountCue) {
			return f.mismatch(reply)
		}
		f.state = AwaitingConfirmPrompt
		return f.send(strconv.Itoa(f.amount))

	case AwaitingConfirmPrompt:
		if !strings.Contains(reply, confirmCue) {
			return f.mismatch(reply)
		}
		f.messenger.Unroute(RemoteNumber)
		f.state = Idle
		if err := f.send(ConfirmKeyword); err != nil {
			return err
		}
		f.logger.Info("Transfer confirmed", "amount", f.amount, "master", f.master)
		return nil

	default:
		f.logger.Warn("Operator message outside a transfer dialog", "text", text)
		f.messenger.Unroute(RemoteNumber)
		return nil
	}
}

// HandleUSSD receives the balance answer requested by RunAutomatic.
func (f *Flow) HandleUSSD(_ context.Context, text string) error {
	balance, err := ParseBalance(text)
	if errors.Is(err, ErrNoBalance) {
		number, _ := f.messenger.OwnNumber()
		f.logger.Warn("No balance in USSD answer, the number might have expired", "text", text, "number", number, "error", err)
		return nil
	}
	if err != nil {
		return err
	}

	if balance.Whole < 1 {
		f.logger.Info("Balance too low to transfer", "balance", balance.Amount)
		return nil
	}

	f.mu.Lock()
	if balance.Expires != "" {
		f.expiration = balance.Expires
		f.logger.Info("Number is expiring, top up before that date", "expires", balance.Expires)
	} else {
		f.expiration = UnknownExpiration
		number, _ := f.messenger.OwnNumber()
		f.logger.Warn("Number has expired, top up as soon as possible", "number", number)
	}
	f.mu.Unlock()

	return f.Run(balance.Whole)
}

// State returns the current dialog state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Status{
		State:      f.state,
		Amount:     f.amount,
		Expiration: f.expiration,
		LastErr:    f.lastErr,
	}
}

// send queues text for the operator. A failure abandons the dialog.
// Callers hold f.mu.
func (f *Flow) send(text string) error {
	if _, err := f.messenger.SendSMS(RemoteNumber, text); err != nil {
		f.abandon(fmt.Errorf("send %q: %w", text, err))
		return f.lastErr
	}
	return nil
}

func (f *Flow) mismatch(reply string) error {
	err := &MismatchError{State: f.state, Reply: reply}
	f.abandon(err)
	return err
}

func (f *Flow) abandon(err error) {
	f.messenger.Unroute(RemoteNumber)
	f.logger.Error("Transfer abandoned", "state", f.state, "error", err)
	f.state = Idle
	f.lastErr = err
}

// normalize case-folds text and collapses whitespace.
func normalize(text string) string {
	return strings.Join(strings.Fields(cases.Fold().String(text)), " ")
}
