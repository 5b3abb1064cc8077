package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"i4.energy/across/callgate/action"
	"i4.energy/across/callgate/journal"
	"i4.energy/across/callgate/modem"
	"i4.energy/across/callgate/phone"
	"i4.energy/across/callgate/transfer"
)

func main() {
	configFile := flag.String("config", "", "Configuration file (JSON, YAML or TOML)")
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port to connect to the modem")
	flag.Int("baud-rate", modem.DefaultBaudRate, "Baud rate for serial communication")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server, empty disables it")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("sim-pin", "", "SIM card PIN code (if required)")
	flag.String("master", "", "Number that receives credit transfers")
	flag.String("allowed-numbers", "", "JSON file with the numbers allowed to open the gate")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithFile(*configFile), WithEnv(), WithFlags(flag.CommandLine))
	if err == nil {
		err = config.Validate()
	}
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(config.LogLevel)}))
	slog.SetDefault(logger)

	if err := run(config, logger); err != nil {
		logger.Error("Call gate stopped", "error", err)
		os.Exit(1)
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(config *Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := newJournal(ctx, config, logger)
	if c, ok := events.(interface{ Close() error }); ok {
		defer c.Close()
	}

	trigger, closeTrigger := newTrigger(config, logger)
	defer closeTrigger()

	gate := &Gate{
		Logger:  logger.With("component", "gate"),
		Journal: events,
		Action:  trigger,
	}
	if config.AllowedNumbersFile != "" {
		gate.Allowed = phone.NewAllowList(config.AllowedNumbersFile, config.Region, gate.Logger)
	} else {
		logger.Warn("No allow-list configured, the gate stays closed")
	}

	modemConfig, err := modem.NewConfigBuilder().
		WithInitTimeout(30 * time.Second).
		WithSimPIN(config.SimPIN).
		WithLogger(logger.With("component", "modem")).
		WithCallHandler(gate).
		WithSMSHandler(gate).
		WithDialer(modem.SerialDialer{
			PortName: config.SerialPort,
			BaudRate: config.BaudRate,
		}).
		Build()
	if err != nil {
		return fmt.Errorf("modem config: %w", err)
	}

	m, err := modem.New(ctx, modemConfig)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info("Closing modem connection")
		if err := m.Close(); err != nil && !errors.Is(err, modem.ErrAlreadyClosed) {
			logger.Error("Failed to close modem", "error", err)
		}
	}()

	number, ok := m.OwnNumber()
	if err := checkOwnNumber(number, ok, config.CellularNumber, config.Region); err != nil {
		return err
	}
	if !ok {
		logger.Warn("Own number unknown, will retry")
	}

	logger.Info("Starting call gate", "modem", m)

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- m.Loop(ctx)
	}()

	var flow *transfer.Flow
	if config.Master != "" {
		flow, err = transfer.New(m, config.Master, config.Region, transfer.WithLogger(logger))
		if err != nil {
			return err
		}
		go scheduleTransfers(ctx, flow, events, config.TransferInterval(), logger.With("component", "scheduler"))
	}

	if config.MQTTBroker != "" && config.MQTTSMSTopic != "" {
		intake := startIntake(config, m, logger.With("component", "intake"))
		defer intake.Disconnect(500)
	}

	var httpServer *http.Server
	if config.BindAddress != "" {
		server := &Server{
			Logger:  logger.With("component", "server"),
			Modem:   m,
			Journal: events,
		}
		if flow != nil {
			server.Transfer = flow
		}
		httpServer = &http.Server{
			Addr:              config.BindAddress,
			Handler:           server,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			logger.Info("Starting HTTP server", "address", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server failed", "error", err)
				stop()
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-loopDone:
		logger.Error("Event loop stopped", "error", err)
	}

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		logger.Info("Closing HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to gracefully shutdown server", "error", err)
		}
	}
	return nil
}

// checkOwnNumber compares the number the SIM reports with the configured
// one. An unresolved number is not an error; the modem keeps asking.
func checkOwnNumber(got string, ok bool, want, region string) error {
	if want == "" || !ok {
		return nil
	}
	expected, err := phone.International(want, region)
	if err != nil {
		return fmt.Errorf("configured cellular number: %w", err)
	}
	actual, err := phone.International(got, region)
	if err != nil {
		return fmt.Errorf("modem number %q: %w", got, err)
	}
	if actual != expected {
		return fmt.Errorf("modem reports %s, expected %s", actual, expected)
	}
	return nil
}

// scheduleTransfers moves the whole balance now and then once per interval.
// Every start is journaled, and so is a dialog that failed since the last
// look.
func scheduleTransfers(ctx context.Context, flow Transferrer, events journal.Journal, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var reported error
	for {
		if st := flow.Status(); st.LastErr != nil && st.LastErr != reported {
			reported = st.LastErr
			recordEvent(ctx, events, logger, journal.Event{
				Kind: journal.KindTransfer,
				Text: fmt.Sprintf("failed at %s: %v", st.State, st.LastErr),
			})
		}

		e := journal.Event{Kind: journal.KindTransfer, Text: automaticTransfer, Allowed: true}
		if err := flow.RunAutomatic(); err != nil {
			logger.Error("Automatic transfer failed", "error", err)
			e.Allowed = false
			e.Text = automaticTransfer + ": " + err.Error()
		}
		recordEvent(ctx, events, logger, e)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func newJournal(ctx context.Context, config *Config, logger *slog.Logger) journal.Journal {
	if config.RedisAddr == "" {
		return journal.Nop{}
	}
	r := journal.NewRedis(config.RedisAddr)
	if err := r.Ping(ctx); err != nil {
		logger.Warn("Redis journal unreachable, events may be lost", "addr", config.RedisAddr, "error", err)
	}
	return r
}

func newTrigger(config *Config, logger *slog.Logger) (action.Trigger, func()) {
	var triggers action.Multi
	closer := func() {}

	if config.ActionURL != "" {
		var opts []action.HTTPOption
		if config.ActionInsecure {
			opts = append(opts, action.WithInsecureSkipVerify())
		}
		opts = append(opts, action.WithPayload(url.Values{"source": {"callgate"}}))
		triggers = append(triggers, action.NewHTTP(config.ActionURL, opts...))
	}

	if config.MQTTBroker != "" {
		m := action.NewMQTT(action.MQTTConfig{
			Broker:   config.MQTTBroker,
			ClientID: config.MQTTClientID,
			Username: config.MQTTUsername,
			Password: config.MQTTPassword,
			Topic:    config.MQTTTopic,
		}, logger.With("component", "mqtt"))
		triggers = append(triggers, m)
		closer = m.Close
	}

	if len(triggers) == 0 {
		logger.Warn("No gate action configured")
	}
	return triggers, closer
}
