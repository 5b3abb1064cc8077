package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		c, err := LoadConfig(WithDefaults())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.SerialPort != "/dev/ttyUSB0" || c.BaudRate != 9600 || c.Region != "HR" {
			t.Errorf("unexpected defaults: %+v", c)
		}
		if c.TransferInterval() != 8*time.Hour {
			t.Errorf("transfer interval = %v, want 8h", c.TransferInterval())
		}
	})

	t.Run("File overrides only the keys it has", func(t *testing.T) {
		path := writeFile(t, "callgate.yaml", `
com_port: /dev/ttyS1
baud: 115200
timeout_money_transfer: 3600
cellular_number: "0911234567"
master: "0981234567"
action_url: https://gate.local/open
action_insecure: true
redis_addr: localhost:6379
`)
		c, err := LoadConfig(WithDefaults(), WithFile(path))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.SerialPort != "/dev/ttyS1" || c.BaudRate != 115200 {
			t.Errorf("serial settings not read: %+v", c)
		}
		if c.TransferInterval() != time.Hour {
			t.Errorf("transfer interval = %v, want 1h", c.TransferInterval())
		}
		if c.Master != "0981234567" || c.CellularNumber != "0911234567" {
			t.Errorf("numbers not read: %+v", c)
		}
		if !c.ActionInsecure || c.ActionURL != "https://gate.local/open" || c.RedisAddr != "localhost:6379" {
			t.Errorf("action settings not read: %+v", c)
		}
		if c.BindAddress != "0.0.0.0:8080" || c.LogLevel != "info" {
			t.Errorf("defaults were overwritten: %+v", c)
		}
	})

	t.Run("JSON file", func(t *testing.T) {
		path := writeFile(t, "callgate.json", `{"com_port": "COM3", "allowed_numbers_file": "allowed.json"}`)
		c, err := LoadConfig(WithDefaults(), WithFile(path))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.SerialPort != "COM3" || c.AllowedNumbersFile != "allowed.json" {
			t.Errorf("unexpected config: %+v", c)
		}
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadConfig(WithFile(filepath.Join(t.TempDir(), "nope.yaml")))
		if err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("Empty path is ignored", func(t *testing.T) {
		if _, err := LoadConfig(WithFile("")); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Environment", func(t *testing.T) {
		t.Setenv("SERIAL_PORT", "/dev/ttyAMA0")
		t.Setenv("BAUD_RATE", "19200")
		t.Setenv("MASTER_NUMBER", "0981234567")
		t.Setenv("TRANSFER_INTERVAL", "60")

		c, err := LoadConfig(WithDefaults(), WithEnv())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.SerialPort != "/dev/ttyAMA0" || c.BaudRate != 19200 || c.Master != "0981234567" {
			t.Errorf("unexpected config: %+v", c)
		}
		if c.TransferInterval() != time.Minute {
			t.Errorf("transfer interval = %v", c.TransferInterval())
		}
	})

	t.Run("Bad environment value", func(t *testing.T) {
		t.Setenv("BAUD_RATE", "fast")
		if _, err := LoadConfig(WithDefaults(), WithEnv()); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("Flags win", func(t *testing.T) {
		t.Setenv("SERIAL_PORT", "/dev/ttyAMA0")

		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		fs.String("serial-port", "", "")
		fs.Int("baud-rate", 0, "")
		fs.String("master", "", "")
		if err := fs.Parse([]string{"-serial-port", "/dev/ttyUSB3", "-baud-rate", "57600"}); err != nil {
			t.Fatalf("parse: %v", err)
		}

		c, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(fs))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.SerialPort != "/dev/ttyUSB3" || c.BaudRate != 57600 {
			t.Errorf("unexpected config: %+v", c)
		}
		if c.Master != "" {
			t.Errorf("unset flag applied: %q", c.Master)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"Defaults", func(*Config) {}, false},
		{"Master number", func(c *Config) { c.Master = "0981234567" }, false},
		{"No serial port", func(c *Config) { c.SerialPort = "" }, true},
		{"Bad baud rate", func(c *Config) { c.BaudRate = 0 }, true},
		{"Bad master number", func(c *Config) { c.Master = "not a number" }, true},
		{"Master without interval", func(c *Config) {
			c.Master = "0981234567"
			c.TransferSeconds = 0
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := LoadConfig(WithDefaults())
			tt.modify(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckOwnNumber(t *testing.T) {
	tests := []struct {
		name    string
		got     string
		ok      bool
		want    string
		wantErr bool
	}{
		{"Matches in another format", "+385911234567", true, "091 123 4567", false},
		{"Nothing configured", "+385911234567", true, "", false},
		{"Unresolved", "", false, "0911234567", false},
		{"Mismatch", "+385981111111", true, "0911234567", true},
		{"Bad configured number", "+385911234567", true, "abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkOwnNumber(tt.got, tt.ok, tt.want, "HR")
			if (err != nil) != tt.wantErr {
				t.Errorf("checkOwnNumber() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
