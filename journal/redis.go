package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix = "callgate:"
	eventsKey     = "callgate:events"
	// MaxEvents is how many events the events list keeps.
	MaxEvents = 100
)

// Redis publishes every event as JSON on channel callgate:<kind> and keeps
// the latest MaxEvents in the list callgate:events.
type Redis struct {
	client *redis.Client
}

func NewRedis(addr string) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:         addr,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}),
	}
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Record(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Publish(ctx, channelPrefix+string(e.Kind), data)
	pipe.LPush(ctx, eventsKey, data)
	pipe.LTrim(ctx, eventsKey, 0, MaxEvents-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record %s event: %w", e.Kind, err)
	}
	return nil
}

func (r *Redis) Recent(ctx context.Context, n int) ([]Event, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := r.client.LRange(ctx, eventsKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}

	events := make([]Event, 0, len(raw))
	for _, item := range raw {
		var e Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
