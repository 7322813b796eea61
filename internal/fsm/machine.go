// Package fsm provides a pluggable finite-state-machine backend for the
// direct (non-event-driven) execution mode. The adapter interface keeps
// callers free to swap FSM implementations without rewriting sequencing
// logic.
package fsm

import "fmt"

// Machine is the state-machine backend contract.
type Machine interface {
	// AddState registers a state. Adding an existing state is a no-op.
	AddState(name string)
	// AddTransition registers a trigger from source to dest. onTransition,
	// if non-nil, runs when the transition fires, before the state changes.
	AddTransition(trigger, source, dest string, onTransition func())
	// SetState forces the machine into a known state.
	SetState(name string) error
	// Trigger fires a trigger from the current state.
	Trigger(trigger string) error
	// State returns the current state.
	State() string
}

// InvalidTransitionError is returned by Trigger when no transition matches
// the trigger from the current state.
type InvalidTransitionError struct {
	Trigger string
	State   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("no transition for trigger %q from state %q", e.Trigger, e.State)
}

type transition struct {
	trigger      string
	source       string
	dest         string
	onTransition func()
}

// SimpleMachine is a minimal in-process Machine suitable for tests and local
// orchestration. Not safe for concurrent use.
type SimpleMachine struct {
	states      []string
	transitions []transition
	state       string
	initialized bool
}

// NewSimpleMachine creates an empty machine. Call SetState before Trigger.
func NewSimpleMachine() *SimpleMachine {
	return &SimpleMachine{}
}

func (m *SimpleMachine) AddState(name string) {
	for _, s := range m.states {
		if s == name {
			return
		}
	}
	m.states = append(m.states, name)
}

func (m *SimpleMachine) AddTransition(trigger, source, dest string, onTransition func()) {
	m.transitions = append(m.transitions, transition{
		trigger:      trigger,
		source:       source,
		dest:         dest,
		onTransition: onTransition,
	})
}

func (m *SimpleMachine) SetState(name string) error {
	for _, s := range m.states {
		if s == name {
			m.state = name
			m.initialized = true
			return nil
		}
	}
	return fmt.Errorf("unknown state: %s", name)
}

func (m *SimpleMachine) Trigger(trigger string) error {
	if !m.initialized {
		return fmt.Errorf("state machine not initialized: call SetState first")
	}
	for _, t := range m.transitions {
		if t.trigger == trigger && t.source == m.state {
			if t.onTransition != nil {
				t.onTransition()
			}
			m.state = t.dest
			return nil
		}
	}
	return &InvalidTransitionError{Trigger: trigger, State: m.state}
}

func (m *SimpleMachine) State() string {
	return m.state
}
