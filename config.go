package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"i4.energy/across/callgate/phone"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the HTTP API listens on. Empty disables it.
	BindAddress string `mapstructure:"bind_address"`
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string `mapstructure:"com_port"`
	BaudRate   int    `mapstructure:"baud"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `mapstructure:"log_level"`
	SimPIN   string `mapstructure:"sim_pin"`

	// CellularNumber is the number the SIM is expected to report. Empty
	// skips the check.
	CellularNumber string `mapstructure:"cellular_number"`
	// Master receives the credit transfers. Empty disables transfers.
	Master string `mapstructure:"master"`
	// TransferSeconds is the pause between automatic transfers.
	TransferSeconds int    `mapstructure:"timeout_money_transfer"`
	Region          string `mapstructure:"region"`

	AllowedNumbersFile string `mapstructure:"allowed_numbers_file"`

	ActionURL      string `mapstructure:"action_url"`
	ActionInsecure bool   `mapstructure:"action_insecure"`

	MQTTBroker   string `mapstructure:"mqtt_broker"`
	MQTTTopic    string `mapstructure:"mqtt_topic"`
	MQTTClientID string `mapstructure:"mqtt_client_id"`
	MQTTUsername string `mapstructure:"mqtt_username"`
	MQTTPassword string `mapstructure:"mqtt_password"`
	// MQTTSMSTopic, when set, queues SMS requests published on it.
	MQTTSMSTopic string `mapstructure:"mqtt_sms_topic"`

	// RedisAddr enables the Redis event journal when set.
	RedisAddr string `mapstructure:"redis_addr"`
}

// TransferInterval is TransferSeconds as a duration.
func (c *Config) TransferInterval() time.Duration {
	return time.Duration(c.TransferSeconds) * time.Second
}

// Validate checks the values no default can fix.
func (c *Config) Validate() error {
	var errs []error
	if c.SerialPort == "" {
		errs = append(errs, errors.New("serial port is required"))
	}
	if c.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("invalid baud rate %d", c.BaudRate))
	}
	if c.Master != "" && c.TransferSeconds <= 0 {
		errs = append(errs, fmt.Errorf("invalid transfer interval %ds", c.TransferSeconds))
	}
	if c.Master != "" {
		if _, err := phone.National(c.Master, c.Region); err != nil {
			errs = append(errs, fmt.Errorf("master number: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 9600
		c.LogLevel = "info"
		c.TransferSeconds = int((8 * time.Hour).Seconds())
		c.Region = phone.DefaultRegion
		c.MQTTTopic = "callgate/open"
		c.MQTTClientID = "callgate"
		return nil
	}
}

// WithFile loads a JSON, YAML or TOML file. Only the keys present in the
// file override earlier values. An empty path is ignored.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}

		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		if err := v.Unmarshal(c); err != nil {
			return fmt.Errorf("decode config %s: %w", path, err)
		}
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		vars := map[string]*string{
			"BIND_ADDRESS":         &c.BindAddress,
			"SERIAL_PORT":          &c.SerialPort,
			"LOG_LEVEL":            &c.LogLevel,
			"SIM_PIN":              &c.SimPIN,
			"CELLULAR_NUMBER":      &c.CellularNumber,
			"MASTER_NUMBER":        &c.Master,
			"REGION":               &c.Region,
			"ALLOWED_NUMBERS_FILE": &c.AllowedNumbersFile,
			"ACTION_URL":           &c.ActionURL,
			"MQTT_BROKER":          &c.MQTTBroker,
			"MQTT_TOPIC":           &c.MQTTTopic,
			"MQTT_SMS_TOPIC":       &c.MQTTSMSTopic,
			"MQTT_USERNAME":        &c.MQTTUsername,
			"MQTT_PASSWORD":        &c.MQTTPassword,
			"REDIS_ADDR":           &c.RedisAddr,
		}
		for key, field := range vars {
			if v := os.Getenv(key); v != "" {
				*field = v
			}
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			b, err := strconv.Atoi(baud)
			if err != nil {
				return fmt.Errorf("BAUD_RATE: %w", err)
			}
			c.BaudRate = b
		}

		if interval := os.Getenv("TRANSFER_INTERVAL"); interval != "" {
			s, err := strconv.Atoi(interval)
			if err != nil {
				return fmt.Errorf("TRANSFER_INTERVAL: %w", err)
			}
			c.TransferSeconds = s
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, convErr := strconv.Atoi(f.Value.String()); convErr == nil {
					c.BaudRate = b
				} else {
					err = fmt.Errorf("baud-rate: %w", convErr)
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "sim-pin":
				c.SimPIN = f.Value.String()
			case "master":
				c.Master = f.Value.String()
			case "allowed-numbers":
				c.AllowedNumbersFile = f.Value.String()
			}
		})
		return err
	}
}
