package core_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/kfluo/pkg/core"
	"github.com/anggasct/kfluo/pkg/observers"
	"github.com/anggasct/kfluo/pkg/states"
	"github.com/anggasct/kfluo/pkg/utils"
)

func names(list []core.State) []string {
	result := make([]string, 0, len(list))
	for _, s := range list {
		result = append(result, s.Name())
	}
	return result
}

// player is root{ idle(initial), track<string>{ paused(initial), playing }, history in track, done(final) }
type player struct {
	root    *states.BaseState
	idle    *states.BaseState
	track   *states.DataState[string]
	paused  *states.BaseState
	playing *states.BaseState
	history *states.HistoryState
	done    *states.FinalState
}

func newPlayer(t *testing.T) *player {
	t.Helper()

	p := &player{
		root:    states.NewState("root"),
		idle:    states.NewState("idle"),
		track:   states.NewDataState[string]("track"),
		paused:  states.NewState("paused"),
		playing: states.NewState("playing"),
		done:    states.NewFinalState("done"),
	}

	require.NoError(t, p.track.AddInitialState(p.paused))
	require.NoError(t, p.track.AddState(p.playing))

	history, err := states.NewHistoryState("resume", nil, states.ShallowHistory)
	require.NoError(t, err)
	require.NoError(t, p.track.AddState(history))
	p.history = history

	require.NoError(t, p.root.AddInitialState(p.idle))
	require.NoError(t, p.root.AddState(p.track))
	require.NoError(t, p.root.AddState(p.done))
	return p
}

func TestStateMachine(t *testing.T) {
	ctx := context.Background()

	t.Run("Start enters the initial chain", func(t *testing.T) {
		p := newPlayer(t)
		recorder := observers.NewRecordingObserver()
		sm := core.NewStateMachine("player", p.root, core.WithObserver(recorder))

		require.NoError(t, sm.Start(ctx))

		assert.True(t, sm.IsStarted())
		assert.Equal(t, []string{"root", "idle"}, names(sm.ActiveStates()))
		assert.Equal(t, []string{"root", "idle"}, recorder.Entered)
		assert.Error(t, sm.Start(ctx))
	})

	t.Run("Transition requires a started machine", func(t *testing.T) {
		p := newPlayer(t)
		sm := core.NewStateMachine("player", p.root)

		assert.Error(t, sm.Transition(ctx, p.track, core.NewDataEvent("load", "song"), nil))
	})

	t.Run("Canceled context aborts the step", func(t *testing.T) {
		p := newPlayer(t)
		sm := core.NewStateMachine("player", p.root)
		require.NoError(t, sm.Start(ctx))

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		assert.ErrorIs(t, sm.Transition(canceled, p.done, core.NewEvent("quit"), nil), context.Canceled)
		assert.Equal(t, []string{"root", "idle"}, names(sm.ActiveStates()))
	})

	t.Run("Explicit data state target takes the payload", func(t *testing.T) {
		p := newPlayer(t)
		sm := core.NewStateMachine("player", p.root)
		require.NoError(t, sm.Start(ctx))

		require.NoError(t, sm.Transition(ctx, p.track, core.NewDataEvent("load", "song.mp3"), nil))

		assert.Equal(t, []string{"root", "track", "paused"}, names(sm.ActiveStates()))
		data, err := p.track.Data()
		require.NoError(t, err)
		assert.Equal(t, "song.mp3", data)
	})

	t.Run("Explicit data state target without payload fails", func(t *testing.T) {
		p := newPlayer(t)
		metrics := observers.NewMetricsObserver()
		sm := core.NewStateMachine("player", p.root, core.WithObserver(metrics))
		require.NoError(t, sm.Start(ctx))

		err := sm.Transition(ctx, p.track, core.NewEvent("load"), nil)

		assert.ErrorIs(t, err, utils.ErrEventTypeMismatch)
		assert.ErrorIs(t, sm.LastError(), utils.ErrEventTypeMismatch)
		assert.Equal(t, 1, metrics.GetErrorCounts()[utils.CodeEventTypeMismatch])

		assert.Equal(t, []string{"root", "idle"}, names(sm.ActiveStates()))
		assert.True(t, p.idle.IsActive())
		assert.Equal(t, core.State(p.idle), p.root.CurrentState())
		assert.Equal(t, 1, metrics.GetStateVisitCounts()["idle"])
	})

	t.Run("Rejected self transition keeps the data state active", func(t *testing.T) {
		p := newPlayer(t)
		sm := core.NewStateMachine("player", p.root)
		require.NoError(t, sm.Start(ctx))
		require.NoError(t, sm.Transition(ctx, p.track, core.NewDataEvent("load", "song.mp3"), nil))

		err := sm.Transition(ctx, p.track, core.NewEvent("reload"), nil)
		assert.ErrorIs(t, err, utils.ErrEventTypeMismatch)

		assert.Equal(t, []string{"root", "track", "paused"}, names(sm.ActiveStates()))
		data, err := p.track.Data()
		require.NoError(t, err)
		assert.Equal(t, "song.mp3", data)
	})

	t.Run("Implicit data state activation reuses the last payload", func(t *testing.T) {
		p := newPlayer(t)
		sm := core.NewStateMachine("player", p.root)
		require.NoError(t, sm.Start(ctx))

		require.NoError(t, sm.Transition(ctx, p.track, core.NewDataEvent("load", "song.mp3"), nil))
		require.NoError(t, sm.Transition(ctx, p.idle, core.NewEvent("eject"), nil))

		_, err := p.track.Data()
		assert.ErrorIs(t, err, utils.ErrStateAccess)

		require.NoError(t, sm.Transition(ctx, p.playing, core.NewEvent("play"), nil))

		assert.Equal(t, []string{"root", "track", "playing"}, names(sm.ActiveStates()))
		data, err := p.track.Data()
		require.NoError(t, err)
		assert.Equal(t, "song.mp3", data)
	})

	t.Run("History resolves to the last active child", func(t *testing.T) {
		p := newPlayer(t)
		recorder := observers.NewRecordingObserver()
		sm := core.NewStateMachine("player", p.root, core.WithObserver(recorder))
		require.NoError(t, sm.Start(ctx))

		target, err := p.history.ResolveTargetState(core.EventAndArgument{})
		require.NoError(t, err)
		assert.Equal(t, core.State(p.paused), target)

		require.NoError(t, sm.Transition(ctx, p.track, core.NewDataEvent("load", "song.mp3"), nil))
		require.NoError(t, sm.Transition(ctx, p.playing, core.NewEvent("play"), nil))
		require.NoError(t, sm.Transition(ctx, p.idle, core.NewEvent("stop"), nil))

		recorder.Clear()
		require.NoError(t, sm.Transition(ctx, p.history, core.NewEvent("resume"), nil))

		assert.Equal(t, []string{"root", "track", "playing"}, names(sm.ActiveStates()))
		assert.Equal(t, [][2]string{{"resume", "playing"}}, recorder.Resolutions)
		assert.Equal(t, []string{"idle"}, recorder.Exited)
	})

	t.Run("Choice routes through history", func(t *testing.T) {
		p := newPlayer(t)
		choice := states.NewChoiceState("route", func(ea core.EventAndArgument) core.State {
			if ea.Argument == "resume" {
				return p.history
			}
			return p.done
		})
		require.NoError(t, p.root.AddState(choice))

		sm := core.NewStateMachine("player", p.root)
		require.NoError(t, sm.Start(ctx))
		require.NoError(t, sm.Transition(ctx, p.track, core.NewDataEvent("load", "a.mp3"), nil))
		require.NoError(t, sm.Transition(ctx, p.playing, core.NewEvent("play"), nil))
		require.NoError(t, sm.Transition(ctx, p.idle, core.NewEvent("stop"), nil))

		require.NoError(t, sm.Transition(ctx, choice, core.NewEvent("next"), "resume"))
		assert.Equal(t, []string{"root", "track", "playing"}, names(sm.ActiveStates()))

		require.NoError(t, sm.Transition(ctx, choice, core.NewEvent("next"), "quit"))
		assert.Equal(t, []string{"root", "done"}, names(sm.ActiveStates()))
		assert.True(t, sm.IsFinished())
	})

	t.Run("Resolution cycle fails without changing the configuration", func(t *testing.T) {
		p := newPlayer(t)
		var second *states.ChoiceState
		first := states.NewChoiceState("first", func(core.EventAndArgument) core.State { return second })
		second = states.NewChoiceState("second", func(core.EventAndArgument) core.State { return first })
		require.NoError(t, p.root.AddState(first))
		require.NoError(t, p.root.AddState(second))

		sm := core.NewStateMachine("player", p.root)
		require.NoError(t, sm.Start(ctx))

		err := sm.Transition(ctx, first, core.NewEvent("spin"), nil)
		assert.ErrorIs(t, err, utils.ErrConfiguration)
		assert.Equal(t, []string{"root", "idle"}, names(sm.ActiveStates()))
	})

	t.Run("Self transition exits and re-enters", func(t *testing.T) {
		p := newPlayer(t)
		recorder := observers.NewRecordingObserver()
		sm := core.NewStateMachine("player", p.root, core.WithObserver(recorder))
		require.NoError(t, sm.Start(ctx))
		recorder.Clear()

		require.NoError(t, sm.Transition(ctx, p.idle, core.NewEvent("again"), nil))

		assert.Equal(t, []string{"idle"}, recorder.Exited)
		assert.Equal(t, []string{"idle"}, recorder.Entered)
	})

	t.Run("Target outside the machine", func(t *testing.T) {
		p := newPlayer(t)
		sm := core.NewStateMachine("player", p.root)
		require.NoError(t, sm.Start(ctx))

		err := sm.Transition(ctx, states.NewState("stranger"), core.NewEvent("go"), nil)
		assert.ErrorIs(t, err, utils.ErrConfiguration)
	})

	t.Run("Reset clears data and history", func(t *testing.T) {
		p := newPlayer(t)
		sm := core.NewStateMachine("player", p.root)
		require.NoError(t, sm.Start(ctx))
		require.NoError(t, sm.Transition(ctx, p.track, core.NewDataEvent("load", "a.mp3"), nil))
		require.NoError(t, sm.Transition(ctx, p.playing, core.NewEvent("play"), nil))

		require.NoError(t, sm.Reset(ctx))

		assert.False(t, sm.IsStarted())
		assert.Empty(t, sm.ActiveStates())
		_, err := p.track.LastData()
		assert.ErrorIs(t, err, utils.ErrStateAccess)
		assert.Nil(t, p.history.StoredState())

		require.NoError(t, sm.Start(ctx))
		target, err := p.history.ResolveTargetState(core.EventAndArgument{})
		require.NoError(t, err)
		assert.Equal(t, core.State(p.paused), target)
	})

	t.Run("Reset runs as one step alongside others", func(t *testing.T) {
		p := newPlayer(t)
		sm := core.NewStateMachine("player", p.root)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					_ = sm.Start(ctx)
					_ = sm.Transition(ctx, p.track, core.NewDataEvent("load", "a.mp3"), nil)
					assert.NoError(t, sm.Reset(ctx))
				}
			}()
		}
		wg.Wait()

		assert.False(t, sm.IsStarted())
		assert.Empty(t, sm.ActiveStates())
		_, err := p.track.LastData()
		assert.ErrorIs(t, err, utils.ErrStateAccess)
		assert.Nil(t, p.history.StoredState())
	})

	t.Run("Stop exits leaf first", func(t *testing.T) {
		p := newPlayer(t)
		recorder := observers.NewRecordingObserver()
		sm := core.NewStateMachine("player", p.root, core.WithObserver(recorder))
		require.NoError(t, sm.Start(ctx))
		require.NoError(t, sm.Transition(ctx, p.track, core.NewDataEvent("load", "a.mp3"), nil))
		recorder.Clear()

		require.NoError(t, sm.Stop(ctx))

		assert.Equal(t, []string{"paused", "track", "root"}, recorder.Exited)
		assert.False(t, sm.IsStarted())
		require.NoError(t, sm.Stop(ctx))
	})
}

func TestTransitionParams(t *testing.T) {
	s := states.NewState("s")
	other := states.NewState("other")

	explicit := core.TransitionParams{Target: s, Direction: core.Explicit}
	assert.True(t, explicit.IsExplicitTarget(s))
	assert.False(t, explicit.IsExplicitTarget(other))

	implicit := core.TransitionParams{Target: s, Direction: core.Implicit}
	assert.False(t, implicit.IsExplicitTarget(s))
	assert.Equal(t, "", implicit.EventName())
	assert.Equal(t, "implicit", core.Implicit.String())
}

func TestTransitionGuard(t *testing.T) {
	target := states.NewState("target")

	open := core.NewTransition("go", target)
	assert.True(t, open.CanExecute(core.EventAndArgument{}))

	guarded := core.NewTransition("go", target).WithGuard(func(ea core.EventAndArgument) bool {
		return ea.Argument == "key"
	})
	assert.Equal(t, "go", guarded.Event)
	assert.Equal(t, core.State(target), guarded.Target)
	assert.True(t, guarded.CanExecute(core.EventAndArgument{Event: core.NewEvent("go"), Argument: "key"}))
	assert.False(t, guarded.CanExecute(core.EventAndArgument{Event: core.NewEvent("go")}))
}

func TestEvents(t *testing.T) {
	plain := core.NewEvent("tick").WithMetadata("source", "timer")
	assert.Equal(t, "tick", plain.Name())
	assert.NotEmpty(t, plain.ID())
	assert.Equal(t, "timer", plain.GetMetadata("source"))

	data := core.NewDataEvent("load", 3)
	assert.Equal(t, 3, data.Data())
	assert.NotEqual(t, plain.ID(), data.ID())

	var event core.Event = data
	_, ok := event.(core.DataCarrier[int])
	assert.True(t, ok)
	_, ok = event.(core.DataCarrier[string])
	assert.False(t, ok)
}
