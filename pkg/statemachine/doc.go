// Package statemachine models finite-state transitions as an immutable table.
//
// A Machine does not hold a current state. Callers keep the state on their own
// records and ask the machine where an event leads:
//
//	const (
//		Draft     = "draft"
//		Published = "published"
//	)
//
//	m := statemachine.NewBuilder[string, string]().
//		From(Draft).When("publish").To(Published).
//		WithAction(notify).
//		Add().
//		Build()
//
//	next, err := m.Fire(ctx, record.State, "publish", record)
//
// This keeps the machine safe for concurrent use and lets one table drive any
// number of records, each guarded by whatever locking the owner chooses.
//
// Several transitions may share the same from-state and event; the first one
// whose guards all pass wins. Actions run in order before Fire returns the
// target state, and the first failing action aborts the transition.
//
// A failed Fire returns a *TransitionError wrapping ErrNoTransition when nothing
// is defined for the state and event, or ErrTransitionRejected when guards
// blocked every candidate.
package statemachine
