package main

import (
	"strings"
	"testing"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"i4.energy/across/callgate/modem"
)

// message implements only what the intake reads.
type message struct {
	mqtt.Message
	payload string
}

func (m message) Payload() []byte { return []byte(m.payload) }

func (m message) Topic() string { return "callgate/sms" }

func TestSMSIntake(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		smsErr   error
		wantSent int
	}{
		{"Queued", `{"to":"+385911234567","message":"hi"}`, nil, 1},
		{"Bad JSON", `to=1`, nil, 0},
		{"Missing recipient", `{"message":"hi"}`, nil, 0},
		{"Too long", `{"to":"1","message":"` + strings.Repeat("x", 200) + `"}`, nil, 0},
		{"Modem closed", `{"to":"1","message":"hi"}`, modem.ErrAlreadyClosed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{smsErr: tt.smsErr}
			smsIntake(gw, discardLogger())(nil, message{payload: tt.payload})

			if len(gw.sent) != tt.wantSent {
				t.Errorf("sent = %v, want %d", gw.sent, tt.wantSent)
			}
		})
	}
}
