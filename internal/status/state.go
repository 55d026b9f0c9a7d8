// Package status tracks the daemon's health state. Degraded means the
// last chat.db query failed (typically the Messages app holding a
// lock); a successful poll recovers it.
package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"imsgd/internal/bus"
)

// State is a daemon runtime state.
type State string

const (
	Booting  State = "BOOTING"
	Ready    State = "READY"
	Degraded State = "DEGRADED"
	Stopped  State = "STOPPED"
	Error    State = "ERROR"
)

var validTransitions = map[State][]State{
	Booting:  {Ready, Error},
	Ready:    {Degraded, Stopped, Error},
	Degraded: {Ready, Stopped, Error},
	Error:    {Booting},
	Stopped:  {},
}

// Machine tracks and enforces daemon state transitions, announcing
// them on the bus.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// Change is the payload for daemon.status_changed events.
type Change struct {
	From State
	To   State
}

// NewMachine creates a machine starting in Booting.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{current: Booting, bus: b}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition moves to a new state; already being there is a no-op.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == to {
		return nil
	}
	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      "daemon.status_changed",
			Timestamp: time.Now(),
			Payload:   Change{From: from, To: to},
		})
	}
	return nil
}
