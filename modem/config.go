package modem

import (
	"log/slog"
	"time"
)

// Config holds the modem settings. Use NewConfigBuilder to create one;
// the zero value only carries defaults and fails validation for lack of a
// Dialer.
type Config struct {
	dialer      Dialer
	logger      *slog.Logger
	simPIN      string
	initTimeout time.Duration

	// Settle delays waited after writing a command before reading the
	// modem's answer.
	commandDelay   time.Duration
	ownNumberDelay time.Duration
	ussdDelay      time.Duration
	ussdPause      time.Duration
	promptDelay    time.Duration
	bodyDelay      time.Duration

	readTimeout    time.Duration
	idleInterval   time.Duration
	backoffMin     time.Duration
	backoffMax     time.Duration
	ownNumberRetry time.Duration

	callHandler CallHandler
	smsHandler  SMSHandler
}

func (c *Config) validate() error {
	if c.dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.initTimeout == 0 {
		c.initTimeout = 30 * time.Second
	}
	if c.commandDelay == 0 {
		c.commandDelay = time.Second
	}
	if c.ownNumberDelay == 0 {
		c.ownNumberDelay = 2 * time.Second
	}
	if c.ussdDelay == 0 {
		c.ussdDelay = 10 * time.Second
	}
	if c.ussdPause == 0 {
		c.ussdPause = 500 * time.Millisecond
	}
	if c.promptDelay == 0 {
		c.promptDelay = 500 * time.Millisecond
	}
	if c.bodyDelay == 0 {
		c.bodyDelay = 100 * time.Millisecond
	}
	if c.readTimeout == 0 {
		c.readTimeout = time.Second
	}
	if c.idleInterval == 0 {
		c.idleInterval = time.Second
	}
	if c.backoffMin == 0 {
		c.backoffMin = time.Second
	}
	if c.backoffMax < c.backoffMin {
		c.backoffMax = 30 * c.backoffMin
	}
	if c.ownNumberRetry == 0 {
		c.ownNumberRetry = 5 * time.Minute
	}
}

// ConfigBuilder assembles a Config step by step.
//
//	config, err := modem.NewConfigBuilder().
//		WithDialer(modem.SerialDialer{PortName: "/dev/ttyUSB0", BaudRate: 9600}).
//		WithSMSHandler(handler).
//		Build()
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder returns a builder with every value left at its default.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

// WithDialer sets how the modem transport is opened. Required.
func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.dialer = d
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.logger = l
	return b
}

// WithSimPIN sets the PIN entered when the SIM reports it is locked.
func (b *ConfigBuilder) WithSimPIN(pin string) *ConfigBuilder {
	b.config.simPIN = pin
	return b
}

// WithInitTimeout bounds the whole initialization sequence run by New.
func (b *ConfigBuilder) WithInitTimeout(d time.Duration) *ConfigBuilder {
	b.config.initTimeout = d
	return b
}

// WithCommandDelay sets the settle delay used for simple commands.
func (b *ConfigBuilder) WithCommandDelay(d time.Duration) *ConfigBuilder {
	b.config.commandDelay = d
	return b
}

// WithOwnNumberDelay sets the settle delay of the own number query.
func (b *ConfigBuilder) WithOwnNumberDelay(d time.Duration) *ConfigBuilder {
	b.config.ownNumberDelay = d
	return b
}

// WithUSSDDelay sets how long to wait for the network to answer a USSD
// request and the pause between enabling USSD and sending the code.
func (b *ConfigBuilder) WithUSSDDelay(request, modePause time.Duration) *ConfigBuilder {
	b.config.ussdDelay = request
	b.config.ussdPause = modePause
	return b
}

// WithPromptDelay sets how long to wait for the "> " prompt after AT+CMGS.
func (b *ConfigBuilder) WithPromptDelay(d time.Duration) *ConfigBuilder {
	b.config.promptDelay = d
	return b
}

// WithBodyDelay sets the pause between an SMS header and reading its body.
func (b *ConfigBuilder) WithBodyDelay(d time.Duration) *ConfigBuilder {
	b.config.bodyDelay = d
	return b
}

// WithReadTimeout bounds a single line read.
func (b *ConfigBuilder) WithReadTimeout(d time.Duration) *ConfigBuilder {
	b.config.readTimeout = d
	return b
}

// WithIdleInterval sets how long the loop sleeps when there is nothing to do.
func (b *ConfigBuilder) WithIdleInterval(d time.Duration) *ConfigBuilder {
	b.config.idleInterval = d
	return b
}

// WithBackoff sets the bounds of the pause after a failed loop tick.
func (b *ConfigBuilder) WithBackoff(minimum, maximum time.Duration) *ConfigBuilder {
	b.config.backoffMin = minimum
	b.config.backoffMax = maximum
	return b
}

// WithOwnNumberRetry sets how often an unresolved own number is queried
// again while the loop is idle.
func (b *ConfigBuilder) WithOwnNumberRetry(d time.Duration) *ConfigBuilder {
	b.config.ownNumberRetry = d
	return b
}

// WithCallHandler sets the handler invoked for every caller ID line.
func (b *ConfigBuilder) WithCallHandler(h CallHandler) *ConfigBuilder {
	b.config.callHandler = h
	return b
}

// WithSMSHandler sets the handler for messages from senders without a route.
func (b *ConfigBuilder) WithSMSHandler(h SMSHandler) *ConfigBuilder {
	b.config.smsHandler = h
	return b
}

// Build validates the configuration and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	config := b.config
	if err := config.validate(); err != nil {
		return Config{}, err
	}
	config.setDefaults()
	return config, nil
}
