package main

import (
	"log/slog"
	"unicode/utf8"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"

	"i4.energy/across/callgate/at"
)

// smsIntake queues SMS requests published on an MQTT topic as
// {"to": "...", "message": "..."}.
func smsIntake(gw Gateway, logger *slog.Logger) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var req struct {
			To      string `json:"to"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(msg.Payload(), &req); err != nil {
			logger.Warn("Bad MQTT payload", "topic", msg.Topic(), "error", err)
			return
		}
		if req.To == "" || req.Message == "" {
			logger.Warn("MQTT request without to/message", "topic", msg.Topic())
			return
		}
		if utf8.RuneCountInString(req.Message) > at.MaxSMSTextLength {
			logger.Warn("MQTT message too long", "topic", msg.Topic(), "length", len(req.Message))
			return
		}

		id, err := gw.SendSMS(req.To, req.Message)
		if err != nil {
			logger.Error("Failed to queue SMS", "error", err, "to", req.To)
			return
		}
		logger.Info("SMS queued", "id", id, "to", req.To, "source", "mqtt")
	}
}

// startIntake connects to the broker and subscribes to topic, again after
// every reconnect. Connection failures are logged; paho keeps retrying.
func startIntake(config *Config, gw Gateway, logger *slog.Logger) mqtt.Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.MQTTBroker)
	opts.SetClientID(config.MQTTClientID + "-intake")
	if config.MQTTUsername != "" {
		opts.SetUsername(config.MQTTUsername)
		opts.SetPassword(config.MQTTPassword)
	}
	opts.SetOrderMatters(false)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		logger.Info("MQTT connected, subscribing", "topic", config.MQTTSMSTopic)
		if token := c.Subscribe(config.MQTTSMSTopic, 0, smsIntake(gw, logger)); token.Wait() && token.Error() != nil {
			logger.Error("MQTT subscribe failed", "topic", config.MQTTSMSTopic, "error", token.Error())
		}
	})

	client := mqtt.NewClient(opts)
	client.Connect()
	return client
}
