package statemachine

import (
	"context"
	"fmt"
)

// Guard reports whether a transition may proceed.
type Guard[S comparable, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Action runs a side effect while a transition is taken. Returning an error
// aborts the transition.
type Action[S comparable, E comparable] func(ctx context.Context, from, to S, event E, data any) error

// Transition is one edge of the table.
type Transition[S comparable, E comparable] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // all must pass
	Actions []Action[S, E] // executed in order
}

// Machine is an immutable transition table.
type Machine[S comparable, E comparable] struct {
	transitions map[S]map[E][]Transition[S, E]
}

// New builds a machine from the given transitions.
func New[S comparable, E comparable](transitions ...Transition[S, E]) *Machine[S, E] {
	m := &Machine[S, E]{transitions: make(map[S]map[E][]Transition[S, E])}
	for _, t := range transitions {
		if _, ok := m.transitions[t.From]; !ok {
			m.transitions[t.From] = make(map[E][]Transition[S, E])
		}
		m.transitions[t.From][t.Event] = append(m.transitions[t.From][t.Event], t)
	}
	return m
}

// Fire resolves the transition for event from state from, runs its actions and
// returns the target state. On error the returned state is from.
func (m *Machine[S, E]) Fire(ctx context.Context, from S, event E, data any) (S, error) {
	t, err := m.resolve(ctx, from, event, data)
	if err != nil {
		return from, err
	}

	for _, action := range t.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, from, t.To, event, data); err != nil {
			return from, fmt.Errorf("action failed: %w", err)
		}
	}

	return t.To, nil
}

func (m *Machine[S, E]) resolve(ctx context.Context, from S, event E, data any) (*Transition[S, E], error) {
	candidates := m.transitions[from][event]
	if len(candidates) == 0 {
		return nil, transitionError(from, event, ErrNoTransition)
	}

	// First transition with passing guards wins.
	for i := range candidates {
		if guardsPass(ctx, candidates[i].Guards, from, event, data) {
			return &candidates[i], nil
		}
	}

	return nil, transitionError(from, event, ErrTransitionRejected)
}

func guardsPass[S comparable, E comparable](ctx context.Context, guards []Guard[S, E], from S, event E, data any) bool {
	for _, g := range guards {
		if g != nil && !g(ctx, from, event, data) {
			return false
		}
	}
	return true
}
