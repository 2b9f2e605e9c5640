// Package dmstate provides a small generic state machine. The explorer uses
// it to track the expansion state of each tree row.
package dmstate

import (
	"fmt"
	"sync"
)

type State interface {
	comparable
	fmt.Stringer
}

// Transition defines a valid state transition.
type Transition[S State] struct {
	From S
	To   S
	Name string
}

// TransitionError is returned for a transition that is not in the table.
type TransitionError[S State] struct {
	From, To S
}

func (e *TransitionError[S]) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}

type edge[S State] struct {
	From, To S
}

// Machine enforces valid state transitions. It is safe for concurrent use.
type Machine[S State] struct {
	mu      sync.RWMutex
	current S

	allowed  map[edge[S]]string
	onChange func(from, to S, name string)
}

// New creates a state machine starting at initial. on, if not nil, is called
// after every successful transition while the machine is locked.
func New[S State](initial S, transitions []Transition[S], on func(from, to S, name string)) *Machine[S] {
	m := &Machine[S]{
		current:  initial,
		allowed:  make(map[edge[S]]string, len(transitions)),
		onChange: on,
	}
	for _, t := range transitions {
		m.allowed[edge[S]{From: t.From, To: t.To}] = t.Name
	}
	return m
}

// CanTransitionTo reports whether moving to the target state is allowed.
func (m *Machine[S]) CanTransitionTo(to S) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.allowed[edge[S]{From: m.current, To: to}]
	return ok
}

// TransitionTo moves to a new state or returns a *TransitionError.
func (m *Machine[S]) TransitionTo(to S) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.current
	name, ok := m.allowed[edge[S]{From: from, To: to}]
	if !ok {
		return &TransitionError[S]{From: from, To: to}
	}
	m.current = to
	if m.onChange != nil {
		m.onChange(from, to, name)
	}
	return nil
}

// MustTransitionTo transitions or panics. Use where an invalid transition is
// a programming error.
func (m *Machine[S]) MustTransitionTo(to S) {
	if err := m.TransitionTo(to); err != nil {
		panic(err)
	}
}

// Current returns the current state.
func (m *Machine[S]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the current state is one of states.
func (m *Machine[S]) Is(states ...S) bool {
	cur := m.Current()
	for _, s := range states {
		if s == cur {
			return true
		}
	}
	return false
}
