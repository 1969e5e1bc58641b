package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/anggasct/kfluo/pkg/utils"
)

// StartEventName is the name of the event delivered while the machine starts
const StartEventName = "start"

// StopEventName is the name of the event delivered while the machine stops
const StopEventName = "stop"

// StateMachine drives the lifecycle of a state tree. It serializes every step:
// at most one Start, Transition, Stop or Reset runs at a time, and the states
// themselves perform no locking.
type StateMachine struct {
	name            string
	root            Composite
	observers       []Observer
	maxResolveDepth int
	running         bool
	lastError       error
	mutex           sync.Mutex
}

// Option configures a StateMachine
type Option func(*StateMachine)

// WithMaxResolveDepth bounds the number of pseudostates in one resolution chain
func WithMaxResolveDepth(depth int) Option {
	return func(sm *StateMachine) {
		sm.maxResolveDepth = depth
	}
}

// WithObserver registers an observer at construction time
func WithObserver(observer Observer) Option {
	return func(sm *StateMachine) {
		sm.observers = append(sm.observers, observer)
	}
}

// NewStateMachine creates a new state machine around the given root state
func NewStateMachine(name string, root Composite, opts ...Option) *StateMachine {
	sm := &StateMachine{
		name:            name,
		root:            root,
		observers:       make([]Observer, 0),
		maxResolveDepth: DefaultMaxResolveDepth,
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// Name returns the name of the state machine
func (sm *StateMachine) Name() string {
	return sm.name
}

// Root returns the root state
func (sm *StateMachine) Root() Composite {
	return sm.root
}

// AddObserver adds an observer to the state machine
func (sm *StateMachine) AddObserver(observer Observer) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.observers = append(sm.observers, observer)
}

// IsStarted returns whether the state machine is running
func (sm *StateMachine) IsStarted() bool {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	return sm.running
}

// IsFinished returns whether a final state became the root's active child
func (sm *StateMachine) IsFinished() bool {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if f, ok := sm.root.(interface{ IsFinished() bool }); ok {
		return f.IsFinished()
	}
	return false
}

// LastError returns the error of the last failed step
func (sm *StateMachine) LastError() error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	return sm.lastError
}

// ActiveStates returns the active configuration from the root down to the leaf
func (sm *StateMachine) ActiveStates() []State {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	return sm.activePath()
}

// Start enters the root and descends its initial children implicitly
func (sm *StateMachine) Start(ctx context.Context) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if sm.running {
		return fmt.Errorf("state machine %s is already running", sm.name)
	}
	if sm.root == nil {
		return utils.NewConfigurationError(fmt.Sprintf("no root state set for state machine %s", sm.name))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := TransitionParams{
		Target:    sm.root,
		Direction: Implicit,
		Event:     NewEvent(StartEventName),
	}

	if err := sm.enter(sm.root, params); err != nil {
		return sm.fail(err)
	}
	sm.running = true
	if err := sm.enterInitialChain(sm.root, params); err != nil {
		return sm.fail(err)
	}
	return nil
}

// Stop exits every active state implicitly, leaf first
func (sm *StateMachine) Stop(ctx context.Context) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	return sm.stopLocked(ctx)
}

func (sm *StateMachine) stopLocked(ctx context.Context) error {
	if !sm.running {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := sm.activePath()
	if len(path) == 0 {
		sm.running = false
		return nil
	}
	params := TransitionParams{
		Source:    path[len(path)-1],
		Direction: Implicit,
		Event:     NewEvent(StopEventName),
	}
	for i := len(path) - 1; i >= 0; i-- {
		if err := sm.exit(path[i], params); err != nil {
			return sm.fail(err)
		}
	}

	sm.running = false
	return nil
}

// Reset stops the machine and clears the data held by every state so the
// machine can be started again as if new. Both happen in one step.
func (sm *StateMachine) Reset(ctx context.Context) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if err := sm.stopLocked(ctx); err != nil {
		return err
	}
	if c, ok := sm.root.(Cleaner); ok {
		c.Cleanup()
	}
	sm.lastError = nil
	return nil
}

// Transition performs one step towards target. Pseudostates are resolved first
// with the given event and argument; the resolved state is entered explicitly,
// its ancestors and initial descendants implicitly.
func (sm *StateMachine) Transition(ctx context.Context, target State, event Event, argument interface{}) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if !sm.running {
		return fmt.Errorf("state machine %s is not started", sm.name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ea := EventAndArgument{Event: event, Argument: argument}
	resolved, err := ResolveTarget(target, ea, sm.maxResolveDepth, sm.notifyResolved)
	if err != nil {
		return sm.fail(err)
	}

	sourcePath := sm.activePath()
	targetPath := pathFromRoot(resolved)
	if len(targetPath) == 0 || targetPath[0] != State(sm.root) {
		return sm.fail(utils.NewConfigurationError("target state does not belong to this machine").
			WithState(resolved.Name()))
	}

	params := TransitionParams{
		Source:    sourcePath[len(sourcePath)-1],
		Target:    resolved,
		Direction: Explicit,
		Event:     event,
		Argument:  argument,
	}

	if acceptor, ok := resolved.(Acceptor); ok {
		if err := acceptor.Accepts(params); err != nil {
			return sm.fail(err)
		}
	}

	// Targets on the active path are exited and re-entered.
	common := 0
	for common < len(sourcePath) && common < len(targetPath) && sourcePath[common] == targetPath[common] {
		common++
	}
	if common == len(targetPath) {
		common--
	}

	for i := len(sourcePath) - 1; i >= common; i-- {
		if err := sm.exit(sourcePath[i], params); err != nil {
			return sm.fail(err)
		}
	}
	for _, state := range targetPath[common:] {
		if err := sm.enter(state, params); err != nil {
			return sm.fail(err)
		}
	}
	if err := sm.enterInitialChain(resolved, params); err != nil {
		return sm.fail(err)
	}
	return nil
}

func (sm *StateMachine) enterInitialChain(state State, params TransitionParams) error {
	for {
		parent, ok := state.(Parent)
		if !ok {
			return nil
		}
		initial := parent.InitialState()
		if initial == nil {
			return nil
		}

		if initial.Kind().IsPseudo() {
			ea := EventAndArgument{Event: params.Event, Argument: params.Argument}
			resolved, err := ResolveTarget(initial, ea, sm.maxResolveDepth, sm.notifyResolved)
			if err != nil {
				return err
			}
			if resolved.GetParent() != state {
				return utils.NewConfigurationError("initial pseudostate resolved outside of its parent").
					WithState(initial.Name())
			}
			initial = resolved
		}

		if err := sm.enter(initial, params); err != nil {
			return err
		}
		state = initial
	}
}

func (sm *StateMachine) enter(state State, params TransitionParams) error {
	enterable, ok := state.(Enterable)
	if !ok {
		return utils.NewInternalConsistencyError("state can not be entered", state.Name())
	}
	if err := enterable.Enter(params); err != nil {
		return err
	}
	if parent, ok := state.GetParent().(Composite); ok {
		parent.SetCurrentState(state)
	}
	sm.notifyStateEnter(state)
	return nil
}

func (sm *StateMachine) exit(state State, params TransitionParams) error {
	enterable, ok := state.(Enterable)
	if !ok {
		return utils.NewInternalConsistencyError("state can not be exited", state.Name())
	}
	if err := enterable.Exit(params); err != nil {
		return err
	}
	sm.notifyStateExit(state)
	return nil
}

func (sm *StateMachine) activePath() []State {
	if sm.root == nil || !sm.root.IsActive() {
		return nil
	}

	path := []State{sm.root}
	var current State = sm.root
	for {
		parent, ok := current.(Parent)
		if !ok {
			break
		}
		child := parent.CurrentState()
		if child == nil || !child.IsActive() {
			break
		}
		path = append(path, child)
		current = child
	}
	return path
}

func pathFromRoot(state State) []State {
	var path []State
	for s := state; s != nil; s = s.GetParent() {
		path = append([]State{s}, path...)
	}
	return path
}

func (sm *StateMachine) fail(err error) error {
	sm.lastError = err
	sm.notifyError(err)
	return err
}

func (sm *StateMachine) notifyStateEnter(state State) {
	for _, observer := range sm.observers {
		observer.OnStateEnter(sm, state)
	}
}

func (sm *StateMachine) notifyStateExit(state State) {
	for _, observer := range sm.observers {
		observer.OnStateExit(sm, state)
	}
}

func (sm *StateMachine) notifyResolved(pseudo State, target State) {
	for _, observer := range sm.observers {
		observer.OnTargetResolved(sm, pseudo, target)
	}
}

func (sm *StateMachine) notifyError(err error) {
	for _, observer := range sm.observers {
		observer.OnError(sm, err)
	}
}
