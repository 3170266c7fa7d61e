package statemachine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpbiotech/configurator/pkg/statemachine"
)

type state string
type event string

const (
	inactive state = "inactive"
	active   state = "active"
	revoked  state = "revoked"

	pay    event = "pay"
	revoke event = "revoke"
)

func TestMachine_Fire(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("follows defined transitions", func(t *testing.T) {
		t.Parallel()
		m := statemachine.NewBuilder[state, event]().
			From(inactive).When(pay).To(active).Add().
			From(active).When(pay).To(active).Add().
			From(active).When(revoke).To(revoked).
			Build()

		next, err := m.Fire(ctx, inactive, pay, nil)
		require.NoError(t, err)
		assert.Equal(t, active, next)

		next, err = m.Fire(ctx, next, pay, nil)
		require.NoError(t, err)
		assert.Equal(t, active, next)

		next, err = m.Fire(ctx, next, revoke, nil)
		require.NoError(t, err)
		assert.Equal(t, revoked, next)
	})

	t.Run("undefined transition", func(t *testing.T) {
		t.Parallel()
		m := statemachine.New(statemachine.Transition[state, event]{From: inactive, To: active, Event: pay})

		next, err := m.Fire(ctx, revoked, pay, nil)
		require.Error(t, err)
		require.ErrorIs(t, err, statemachine.ErrNoTransition)
		var te *statemachine.TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "revoked", te.From)
		assert.Equal(t, "pay", te.Event)
		assert.Equal(t, revoked, next)
	})

	t.Run("guards select the first passing transition", func(t *testing.T) {
		t.Parallel()
		isVIP := func(_ context.Context, _ state, _ event, data any) bool {
			v, _ := data.(bool)
			return v
		}
		m := statemachine.NewBuilder[state, event]().
			From(inactive).When(pay).To(revoked).WithGuard(func(context.Context, state, event, any) bool { return false }).Add().
			From(inactive).When(pay).To(active).WithGuard(isVIP).
			Build()

		next, err := m.Fire(ctx, inactive, pay, true)
		require.NoError(t, err)
		assert.Equal(t, active, next)

		_, err = m.Fire(ctx, inactive, pay, false)
		require.Error(t, err)
		require.ErrorIs(t, err, statemachine.ErrTransitionRejected)
	})

	t.Run("actions run in order and a failure aborts", func(t *testing.T) {
		t.Parallel()
		var calls []string
		boom := errors.New("boom")
		m := statemachine.NewBuilder[state, event]().
			From(inactive).When(pay).To(active).
			WithAction(func(_ context.Context, from, to state, _ event, _ any) error {
				calls = append(calls, string(from)+"->"+string(to))
				return nil
			}).
			WithAction(func(context.Context, state, state, event, any) error {
				calls = append(calls, "second")
				return boom
			}).
			Build()

		next, err := m.Fire(ctx, inactive, pay, nil)
		require.ErrorIs(t, err, boom)
		assert.Equal(t, inactive, next)
		assert.Equal(t, []string{"inactive->active", "second"}, calls)
	})
}
