package states_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/kfluo/pkg/core"
	"github.com/anggasct/kfluo/pkg/states"
	"github.com/anggasct/kfluo/pkg/utils"
)

func TestHistoryState(t *testing.T) {
	t.Run("Deep history is rejected at construction", func(t *testing.T) {
		h, err := states.NewHistoryState("history", nil, states.DeepHistory)

		assert.Nil(t, h)
		assert.ErrorIs(t, err, utils.ErrConfiguration)
		assert.Contains(t, err.Error(), "deep history is not implemented")
	})

	t.Run("Unknown history type is rejected", func(t *testing.T) {
		_, err := states.NewHistoryState("history", nil, states.HistoryType(7))
		assert.ErrorIs(t, err, utils.ErrConfiguration)
	})

	t.Run("Explicit default must be a sibling", func(t *testing.T) {
		parent := states.NewState("parent")
		elsewhere := states.NewState("elsewhere")
		require.NoError(t, parent.AddInitialState(states.NewState("a")))

		h, err := states.NewHistoryState("history", elsewhere, states.ShallowHistory)
		require.NoError(t, err)

		err = parent.AddState(h)
		assert.ErrorIs(t, err, utils.ErrConfiguration)
		assert.Contains(t, err.Error(), "is not a sibling")
		assert.Nil(t, h.GetParent())
		assert.Nil(t, parent.Child("history"))
	})

	t.Run("Explicit default must be concrete", func(t *testing.T) {
		parent := states.NewState("parent")
		require.NoError(t, parent.AddInitialState(states.NewState("a")))
		choice := states.NewChoiceState("choice", func(core.EventAndArgument) core.State { return nil })
		require.NoError(t, parent.AddState(choice))

		h, err := states.NewHistoryState("history", choice, states.ShallowHistory)
		require.NoError(t, err)

		err = parent.AddState(h)
		assert.ErrorIs(t, err, utils.ErrConfiguration)
		assert.Contains(t, err.Error(), "is a pseudostate")
		assert.Nil(t, h.GetParent())
	})

	t.Run("Explicit default", func(t *testing.T) {
		parent := states.NewState("parent")
		a := states.NewState("a")
		b := states.NewState("b")
		require.NoError(t, parent.AddInitialState(a))
		require.NoError(t, parent.AddState(b))

		h, err := states.NewHistoryState("history", b, states.ShallowHistory)
		require.NoError(t, err)
		require.NoError(t, parent.AddState(h))

		def, err := h.DefaultState()
		require.NoError(t, err)
		assert.Equal(t, core.State(b), def)
		assert.Equal(t, states.ShallowHistory, h.HistoryType())
	})

	t.Run("Default falls back to the parent's initial state", func(t *testing.T) {
		parent := states.NewState("parent")
		a := states.NewState("a")
		require.NoError(t, parent.AddInitialState(a))

		h, err := states.NewHistoryState("history", nil, states.ShallowHistory)
		require.NoError(t, err)
		require.NoError(t, parent.AddState(h))

		target, err := h.ResolveTargetState(core.EventAndArgument{})
		require.NoError(t, err)
		assert.Equal(t, core.State(a), target)
		assert.Nil(t, h.StoredState())
	})

	t.Run("Parent without initial state", func(t *testing.T) {
		parent := states.NewState("parent")

		h, err := states.NewHistoryState("history", nil, states.ShallowHistory)
		require.NoError(t, err)
		assert.ErrorIs(t, parent.AddState(h), utils.ErrConfiguration)
	})

	t.Run("Records concrete children only", func(t *testing.T) {
		parent := states.NewState("parent")
		a := states.NewState("a")
		b := states.NewState("b")
		choice := states.NewChoiceState("choice", func(core.EventAndArgument) core.State { return a })
		require.NoError(t, parent.AddInitialState(a))
		require.NoError(t, parent.AddState(b))
		require.NoError(t, parent.AddState(choice))

		h, err := states.NewHistoryState("history", nil, states.ShallowHistory)
		require.NoError(t, err)
		require.NoError(t, parent.AddState(h))

		parent.SetCurrentState(b)
		assert.Equal(t, core.State(b), h.StoredState())

		parent.SetCurrentState(choice)
		parent.SetCurrentState(nil)
		assert.Equal(t, core.State(b), h.StoredState())

		target, err := h.ResolveTargetState(core.EventAndArgument{})
		require.NoError(t, err)
		assert.Equal(t, core.State(b), target)
	})

	t.Run("Cleanup forgets stored and default state", func(t *testing.T) {
		parent := states.NewState("parent")
		a := states.NewState("a")
		b := states.NewState("b")
		require.NoError(t, parent.AddInitialState(a))
		require.NoError(t, parent.AddState(b))

		h, err := states.NewHistoryState("history", nil, states.ShallowHistory)
		require.NoError(t, err)
		require.NoError(t, parent.AddState(h))
		parent.SetCurrentState(b)

		parent.Cleanup()
		assert.Nil(t, h.StoredState())

		require.NoError(t, parent.SetInitialState(b))
		def, err := h.DefaultState()
		require.NoError(t, err)
		assert.Equal(t, core.State(b), def)
	})

	t.Run("History type names", func(t *testing.T) {
		assert.Equal(t, "SHALLOW", states.ShallowHistory.String())
		assert.Equal(t, "DEEP", states.DeepHistory.String())

		parsed, err := states.ParseHistoryType("deep")
		require.NoError(t, err)
		assert.Equal(t, states.DeepHistory, parsed)

		_, err = states.ParseHistoryType("sideways")
		assert.ErrorIs(t, err, utils.ErrConfiguration)
	})
}
