package status

import (
	"testing"
	"time"

	"imsgd/internal/bus"
)

func TestTransitions(t *testing.T) {
	m := NewMachine(nil)

	if m.Current() != Booting {
		t.Fatalf("initial state = %s, want BOOTING", m.Current())
	}
	if err := m.Transition(Ready); err != nil {
		t.Fatalf("Booting -> Ready: %v", err)
	}
	if err := m.Transition(Degraded); err != nil {
		t.Fatalf("Ready -> Degraded: %v", err)
	}
	if err := m.Transition(Ready); err != nil {
		t.Fatalf("Degraded -> Ready: %v", err)
	}
	if err := m.Transition(Booting); err == nil {
		t.Error("Ready -> Booting allowed, want error")
	}
}

func TestTransitionSameStateIsNoop(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Ready); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(Ready); err != nil {
		t.Errorf("Ready -> Ready error = %v, want nil", err)
	}
}

func TestTransitionPublishesChange(t *testing.T) {
	b := bus.New()
	sub := b.Subscribe("daemon.", 10)
	defer sub.Close()

	m := NewMachine(b)
	if err := m.Transition(Ready); err != nil {
		t.Fatal(err)
	}

	select {
	case evt := <-sub.C:
		change, ok := evt.Payload.(Change)
		if !ok {
			t.Fatalf("payload type %T", evt.Payload)
		}
		if change.From != Booting || change.To != Ready {
			t.Errorf("change = %+v", change)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for status event")
	}
}
