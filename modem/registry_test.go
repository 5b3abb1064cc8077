package modem_test

import (
	"context"
	"testing"

	"i4.energy/across/callgate/modem"
)

func TestRegistryResetEmpty(t *testing.T) {
	r := modem.NewRegistry()
	r.Reset()
	r.Unregister("13977")
	if r.Len() != 0 {
		t.Errorf("Len() = %d after Reset on an empty registry", r.Len())
	}

	r.Register("13977", modem.SMSHandlerFunc(func(context.Context, string, string) error { return nil }))
	if _, ok := r.Lookup("13977"); !ok {
		t.Error("registry unusable after Reset on an empty table")
	}
}

func TestRegistry(t *testing.T) {
	r := modem.NewRegistry()
	noop := modem.SMSHandlerFunc(func(context.Context, string, string) error { return nil })

	if _, ok := r.Lookup("13977"); ok {
		t.Fatal("empty registry should have no routes")
	}

	r.Register("13977", noop)
	r.Register("+385911234567", noop)
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	if _, ok := r.Lookup("13977"); !ok {
		t.Error("expected route for 13977")
	}
	if _, ok := r.Lookup("0913977"); ok {
		t.Error("numbers must match verbatim")
	}

	r.Unregister("13977")
	r.Unregister("unknown")
	if _, ok := r.Lookup("13977"); ok {
		t.Error("route should be gone after Unregister")
	}

	r.Reset()
	if r.Len() != 0 {
		t.Errorf("Len() = %d after Reset", r.Len())
	}
}
