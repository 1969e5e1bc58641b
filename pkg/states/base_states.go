// Package states implements the state kinds of the tree: plain and composite
// states, data states, final states and the choice and history pseudostates.
package states

import (
	"fmt"

	"github.com/anggasct/kfluo/pkg/core"
	"github.com/anggasct/kfluo/pkg/utils"
)

// BaseState is a concrete, enterable state. It may own children, of which
// exactly one is active at a time.
type BaseState struct {
	name     string
	kind     core.StateKind
	self     core.Composite
	parent   core.State
	active   bool
	finished bool

	children    []core.State
	initial     core.State
	current     core.State
	listeners   []core.Listener
	transitions []*core.Transition

	enterHook   func(params core.TransitionParams) error
	exitHook    func(params core.TransitionParams)
	cleanupHook func()
}

func newBaseState(name string, kind core.StateKind) *BaseState {
	return &BaseState{
		name:        name,
		kind:        kind,
		children:    make([]core.State, 0),
		listeners:   make([]core.Listener, 0),
		transitions: make([]*core.Transition, 0),
	}
}

// NewState creates a new plain state
func NewState(name string) *BaseState {
	s := newBaseState(name, core.KindState)
	s.self = s
	return s
}

// Name returns the state name
func (s *BaseState) Name() string {
	return s.name
}

// Kind returns the state kind
func (s *BaseState) Kind() core.StateKind {
	return s.kind
}

// String returns the state name
func (s *BaseState) String() string {
	return s.name
}

// GetParent returns the parent state
func (s *BaseState) GetParent() core.State {
	return s.parent
}

// SetParent attaches the state to parent. A state can be attached only once.
func (s *BaseState) SetParent(parent core.Parent) error {
	if s.parent != nil {
		return utils.NewConfigurationError(
			fmt.Sprintf("state already attached to %q", s.parent.Name())).WithState(s.name)
	}
	s.parent = parent
	return nil
}

// IsActive returns whether the state is currently active
func (s *BaseState) IsActive() bool {
	return s.active
}

// IsFinished returns whether a final child became active since the last entry
func (s *BaseState) IsFinished() bool {
	return s.finished
}

// IsComposite returns whether the state has children
func (s *BaseState) IsComposite() bool {
	return len(s.children) > 0
}

// States returns the children of the state
func (s *BaseState) States() []core.State {
	result := make([]core.State, len(s.children))
	copy(result, s.children)
	return result
}

// InitialState returns the child entered when the state is activated without a deeper target
func (s *BaseState) InitialState() core.State {
	return s.initial
}

// CurrentState returns the active child
func (s *BaseState) CurrentState() core.State {
	return s.current
}

// Child returns a direct child by name
func (s *BaseState) Child(name string) core.State {
	for _, child := range s.children {
		if child.Name() == name {
			return child
		}
	}
	return nil
}

// AddState adds a child state. Children that validate their parent are attached
// before they are added, so a rejected child leaves the state unchanged.
func (s *BaseState) AddState(child core.State) error {
	if child == nil {
		return utils.NewConfigurationError("child state is nil").WithState(s.name)
	}
	if s.Child(child.Name()) != nil {
		return utils.NewConfigurationError(
			fmt.Sprintf("duplicate child state %q", child.Name())).WithState(s.name)
	}

	if attachable, ok := child.(core.Attachable); ok {
		if err := attachable.SetParent(s.self); err != nil {
			return err
		}
	}

	s.children = append(s.children, child)
	return nil
}

// AddInitialState adds a child state and makes it the initial one
func (s *BaseState) AddInitialState(child core.State) error {
	if err := s.AddState(child); err != nil {
		return err
	}
	return s.SetInitialState(child)
}

// SetInitialState sets the initial child state
func (s *BaseState) SetInitialState(child core.State) error {
	if child == nil || s.Child(child.Name()) != child {
		return utils.NewConfigurationError("initial state must be a child of this state").WithState(s.name)
	}
	if child.Kind() == core.KindHistory {
		return utils.NewConfigurationError(
			fmt.Sprintf("history state %q can not be an initial state", child.Name())).WithState(s.name)
	}
	s.initial = child
	return nil
}

// AddListener registers a listener for entry and exit of this state
func (s *BaseState) AddListener(listener core.Listener) error {
	if listener == nil {
		return utils.NewConfigurationError("listener is nil").WithState(s.name)
	}
	s.listeners = append(s.listeners, listener)
	return nil
}

// AddTransition registers an outgoing transition
func (s *BaseState) AddTransition(transition *core.Transition) error {
	if transition == nil || transition.Target == nil {
		return utils.NewConfigurationError("transition has no target state").WithState(s.name)
	}
	s.transitions = append(s.transitions, transition)
	return nil
}

// Transitions returns the registered outgoing transitions
func (s *BaseState) Transitions() []*core.Transition {
	result := make([]*core.Transition, len(s.transitions))
	copy(result, s.transitions)
	return result
}

// Enter activates the state. It is called by the engine only.
func (s *BaseState) Enter(params core.TransitionParams) error {
	s.active = true
	s.finished = false

	if s.enterHook != nil {
		if err := s.enterHook(params); err != nil {
			s.active = false
			return err
		}
	}

	for _, listener := range s.listeners {
		listener.OnEntry(params)
	}
	return nil
}

// Exit deactivates the state. It is called by the engine only, after the
// active child has been exited.
func (s *BaseState) Exit(params core.TransitionParams) error {
	for _, listener := range s.listeners {
		listener.OnExit(params)
	}

	if s.exitHook != nil {
		s.exitHook(params)
	}

	s.active = false
	s.current = nil
	return nil
}

// SetCurrentState records the active child and notifies the children that
// follow the parent's active state.
func (s *BaseState) SetCurrentState(child core.State) {
	s.current = child
	if child != nil && child.Kind().IsFinal() {
		s.finished = true
	}

	for _, c := range s.children {
		if listener, ok := c.(core.ParentStateListener); ok {
			listener.OnParentCurrentStateChanged(child)
		}
	}
}

// Cleanup resets the state and its subtree on machine reset
func (s *BaseState) Cleanup() {
	s.active = false
	s.finished = false
	s.current = nil

	if s.cleanupHook != nil {
		s.cleanupHook()
	}

	for _, child := range s.children {
		if cleaner, ok := child.(core.Cleaner); ok {
			cleaner.Cleanup()
		}
	}
}

// FinalState completes its parent when entered and accepts no outgoing transitions
type FinalState struct {
	*BaseState
}

// NewFinalState creates a new final state
func NewFinalState(name string) *FinalState {
	s := &FinalState{
		BaseState: newBaseState(name, core.KindFinalState),
	}
	s.self = s
	return s
}

// AddTransition always fails, no transition may leave a final state
func (s *FinalState) AddTransition(transition *core.Transition) error {
	return errFinalTransition(s.name)
}

func errFinalTransition(name string) error {
	return utils.NewConfigurationError("final state can not have transitions").WithState(name)
}
