package statemachine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTransition means no transition is defined for the state and event.
	ErrNoTransition = errors.New("no transition available")
	// ErrTransitionRejected means every matching transition was blocked by its guard.
	ErrTransitionRejected = errors.New("transition rejected by guards")
)

// TransitionError reports a failed Fire. It wraps ErrNoTransition or
// ErrTransitionRejected.
type TransitionError struct {
	From  string
	Event string
	Err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s -> %s: %v", e.From, e.Event, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

func transitionError(from, event any, err error) error {
	return &TransitionError{From: fmt.Sprint(from), Event: fmt.Sprint(event), Err: err}
}
