package action

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig describes where MQTT publishes.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	// Payload is published as is. Empty means "open".
	Payload []byte
}

// MQTT publishes a message on every Fire. The broker connection is made
// on first use and kept open with auto reconnect.
type MQTT struct {
	client  mqtt.Client
	topic   string
	payload []byte
}

func NewMQTT(cfg MQTTConfig, logger *slog.Logger) *MQTT {
	if logger == nil {
		logger = slog.Default()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetOrderMatters(false)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", "broker", cfg.Broker, "error", err)
	})
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("MQTT connected", "broker", cfg.Broker)
	})

	return newMQTT(mqtt.NewClient(opts), cfg.Topic, cfg.Payload)
}

func newMQTT(client mqtt.Client, topic string, payload []byte) *MQTT {
	if len(payload) == 0 {
		payload = []byte("open")
	}
	return &MQTT{client: client, topic: topic, payload: payload}
}

func (m *MQTT) Fire(ctx context.Context) error {
	if !m.client.IsConnectionOpen() {
		if err := wait(ctx, m.client.Connect()); err != nil {
			return fmt.Errorf("mqtt connect: %w", err)
		}
	}
	if err := wait(ctx, m.client.Publish(m.topic, 1, false, m.payload)); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", m.topic, err)
	}
	return nil
}

// Close disconnects from the broker, waiting briefly for in-flight work.
func (m *MQTT) Close() {
	if m.client.IsConnected() {
		m.client.Disconnect(500)
	}
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
