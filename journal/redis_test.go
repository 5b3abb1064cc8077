package journal_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"i4.energy/across/callgate/journal"
)

func newRedis(t *testing.T) (*journal.Redis, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	j := journal.NewRedis(srv.Addr())
	t.Cleanup(func() { j.Close() })
	return j, srv
}

func TestRedisRecord(t *testing.T) {
	j, srv := newRedis(t)
	ctx := context.Background()

	if err := j.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	sub := srv.NewSubscriber()
	defer sub.Close()
	sub.Subscribe("callgate:call")

	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	if err := j.Record(ctx, journal.Event{Kind: journal.KindCall, Number: "+385911234567", Allowed: true, At: at}); err != nil {
		t.Fatalf("record: %v", err)
	}

	select {
	case msg := <-sub.Messages():
		if !strings.Contains(msg.Message, `"number":"+385911234567"`) {
			t.Errorf("published %q", msg.Message)
		}
	case <-time.After(time.Second):
		t.Fatal("no message published")
	}

	events, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 1 || events[0].Number != "+385911234567" || !events[0].At.Equal(at) {
		t.Errorf("events = %+v", events)
	}
}

func TestRedisKeepsLatestEvents(t *testing.T) {
	j, _ := newRedis(t)
	ctx := context.Background()

	for i := range journal.MaxEvents + 20 {
		if err := j.Record(ctx, journal.Event{Kind: journal.KindSMS, Text: fmt.Sprint(i)}); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	events, err := j.Recent(ctx, 1000)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != journal.MaxEvents {
		t.Errorf("kept %d events, want %d", len(events), journal.MaxEvents)
	}
	if events[0].Text != fmt.Sprint(journal.MaxEvents+19) {
		t.Errorf("newest event = %q", events[0].Text)
	}
	if events[0].At.IsZero() {
		t.Error("missing timestamps are filled in")
	}
}

func TestRedisUnavailable(t *testing.T) {
	j, srv := newRedis(t)
	srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := j.Record(ctx, journal.Event{Kind: journal.KindUSSD}); err == nil {
		t.Error("expected an error with the server down")
	}
}
