package action

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type doneToken struct {
	err  error
	done chan struct{}
}

func newDoneToken(err error) *doneToken {
	t := &doneToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{}          { return t.done }
func (t *doneToken) Error() error                   { return t.err }

// fakeClient records publishes. Methods the trigger never calls are
// left to the embedded nil interface.
type fakeClient struct {
	mqtt.Client

	mu         sync.Mutex
	connected  bool
	connects   int
	connectErr error
	published  []string
}

func (c *fakeClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) IsConnected() bool { return c.IsConnectionOpen() }

func (c *fakeClient) Connect() mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connects++
	c.connected = c.connectErr == nil
	return newDoneToken(c.connectErr)
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload any) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, topic+" "+string(payload.([]byte)))
	return newDoneToken(nil)
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
}

func TestMQTT(t *testing.T) {
	t.Run("Connects once and publishes", func(t *testing.T) {
		client := &fakeClient{}
		trigger := newMQTT(client, "gate/open", nil)

		for range 2 {
			if err := trigger.Fire(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if client.connects != 1 {
			t.Errorf("connects = %d, want 1", client.connects)
		}
		if len(client.published) != 2 || client.published[0] != "gate/open open" {
			t.Errorf("published = %q", client.published)
		}

		trigger.Close()
		if client.IsConnected() {
			t.Error("expected disconnect on Close")
		}
	})

	t.Run("Connect failure is returned", func(t *testing.T) {
		refused := errors.New("connection refused")
		client := &fakeClient{connectErr: refused}

		err := newMQTT(client, "gate/open", []byte("1")).Fire(context.Background())
		if !errors.Is(err, refused) {
			t.Errorf("expected connect error, got %v", err)
		}
		if len(client.published) != 0 {
			t.Errorf("nothing should be published, got %q", client.published)
		}
	})
}
