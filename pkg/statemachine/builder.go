package statemachine

// Builder assembles a Machine with a fluent API.
type Builder[S comparable, E comparable] struct {
	transitions []Transition[S, E]
	current     *Transition[S, E]
}

// NewBuilder returns an empty builder.
func NewBuilder[S comparable, E comparable]() *Builder[S, E] {
	return &Builder[S, E]{}
}

// From starts a new transition, discarding any transition that was not added.
func (b *Builder[S, E]) From(state S) *Builder[S, E] {
	b.current = &Transition[S, E]{From: state}
	return b
}

// When sets the triggering event of the current transition.
func (b *Builder[S, E]) When(event E) *Builder[S, E] {
	b.ensure().Event = event
	return b
}

// To sets the target state of the current transition.
func (b *Builder[S, E]) To(state S) *Builder[S, E] {
	b.ensure().To = state
	return b
}

// WithGuard appends a guard to the current transition.
func (b *Builder[S, E]) WithGuard(g Guard[S, E]) *Builder[S, E] {
	if g != nil {
		t := b.ensure()
		t.Guards = append(t.Guards, g)
	}
	return b
}

// WithAction appends an action to the current transition.
func (b *Builder[S, E]) WithAction(a Action[S, E]) *Builder[S, E] {
	if a != nil {
		t := b.ensure()
		t.Actions = append(t.Actions, a)
	}
	return b
}

// Add finalizes the current transition.
func (b *Builder[S, E]) Add() *Builder[S, E] {
	if b.current != nil {
		b.transitions = append(b.transitions, *b.current)
		b.current = nil
	}
	return b
}

// Build returns the machine. A pending transition is added implicitly.
func (b *Builder[S, E]) Build() *Machine[S, E] {
	b.Add()
	return New(b.transitions...)
}

func (b *Builder[S, E]) ensure() *Transition[S, E] {
	if b.current == nil {
		b.current = &Transition[S, E]{}
	}
	return b.current
}
