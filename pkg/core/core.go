// Package core provides the central types and interfaces shared by every state kind
// and by the engine that drives them.
package core

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a trigger delivered to the state tree
type Event interface {
	Name() string
	ID() string
	Timestamp() time.Time
}

// BaseEvent is an ordinary event that carries no payload
type BaseEvent struct {
	name      string
	id        string
	timestamp time.Time
	metadata  map[string]interface{}
}

// NewEvent creates a new event with the given name
func NewEvent(name string) *BaseEvent {
	return &BaseEvent{
		name:      name,
		id:        uuid.New().String(),
		timestamp: time.Now(),
		metadata:  make(map[string]interface{}),
	}
}

// Name returns the event name
func (e *BaseEvent) Name() string {
	return e.name
}

// ID returns the unique event identifier
func (e *BaseEvent) ID() string {
	return e.id
}

// Timestamp returns the creation time of the event
func (e *BaseEvent) Timestamp() time.Time {
	return e.timestamp
}

// WithMetadata adds metadata to the event and returns the event
func (e *BaseEvent) WithMetadata(key string, value interface{}) *BaseEvent {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

// GetMetadata retrieves metadata from the event
func (e *BaseEvent) GetMetadata(key string) interface{} {
	if e.metadata == nil {
		return nil
	}
	return e.metadata[key]
}

// DataCarrier is an event that carries a payload of type D
type DataCarrier[D any] interface {
	Event
	Data() D
}

// DataEvent is an event carrying a typed payload
type DataEvent[D any] struct {
	*BaseEvent
	data D
}

// NewDataEvent creates a new event with name and payload
func NewDataEvent[D any](name string, data D) *DataEvent[D] {
	return &DataEvent[D]{
		BaseEvent: NewEvent(name),
		data:      data,
	}
}

// Data returns the event payload
func (e *DataEvent[D]) Data() D {
	return e.data
}

// EventAndArgument is the input of pseudostate resolution
type EventAndArgument struct {
	Event    Event
	Argument interface{}
}

// EventName returns the event name, or an empty string when there is no event
func (ea EventAndArgument) EventName() string {
	if ea.Event == nil {
		return ""
	}
	return ea.Event.Name()
}

// Direction tells whether a transition step names its target explicitly
type Direction int

const (
	// Implicit activation happens on the way to some other target, or on machine start
	Implicit Direction = iota
	// Explicit activation targets the state named in TransitionParams.Target
	Explicit
)

// String returns a string representation of the direction
func (d Direction) String() string {
	switch d {
	case Implicit:
		return "implicit"
	case Explicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// TransitionParams describes the step that activates or deactivates a state.
// Lifecycle hooks receive it by value and never modify it.
type TransitionParams struct {
	Source    State
	Target    State
	Direction Direction
	Event     Event
	Argument  interface{}
}

// IsExplicitTarget reports whether state is the explicit target of the step
func (p TransitionParams) IsExplicitTarget(state State) bool {
	return p.Direction == Explicit && p.Target != nil && p.Target == state
}

// EventName returns the triggering event name, or an empty string
func (p TransitionParams) EventName() string {
	if p.Event == nil {
		return ""
	}
	return p.Event.Name()
}

// StateKind enumerates the closed set of state variants
type StateKind int

const (
	// KindState is a plain state, optionally composite
	KindState StateKind = iota
	// KindDataState carries a typed payload
	KindDataState
	// KindFinalState completes its parent when entered
	KindFinalState
	// KindFinalDataState is a final state carrying a payload
	KindFinalDataState
	// KindChoice redirects to a target computed from the event
	KindChoice
	// KindHistory redirects to the last active child of its parent
	KindHistory
)

// String returns a string representation of the kind
func (k StateKind) String() string {
	switch k {
	case KindState:
		return "state"
	case KindDataState:
		return "data"
	case KindFinalState:
		return "final"
	case KindFinalDataState:
		return "final_data"
	case KindChoice:
		return "choice"
	case KindHistory:
		return "history"
	default:
		return "unknown"
	}
}

// IsPseudo reports whether the kind is a resolution-only node
func (k StateKind) IsPseudo() bool {
	switch k {
	case KindChoice, KindHistory:
		return true
	case KindState, KindDataState, KindFinalState, KindFinalDataState:
		return false
	default:
		return false
	}
}

// IsFinal reports whether entering the kind completes its parent
func (k StateKind) IsFinal() bool {
	switch k {
	case KindFinalState, KindFinalDataState:
		return true
	case KindState, KindDataState, KindChoice, KindHistory:
		return false
	default:
		return false
	}
}

// IsData reports whether the kind carries a payload
func (k StateKind) IsData() bool {
	switch k {
	case KindDataState, KindFinalDataState:
		return true
	case KindState, KindFinalState, KindChoice, KindHistory:
		return false
	default:
		return false
	}
}

// State is the read-only view of a node in the state tree
type State interface {
	Name() string
	Kind() StateKind
	GetParent() State
	IsActive() bool
}

// Enterable is the engine-only lifecycle surface of a state
type Enterable interface {
	State
	Enter(params TransitionParams) error
	Exit(params TransitionParams) error
}

// Acceptor is implemented by states that can reject a step before anything is exited
type Acceptor interface {
	Accepts(params TransitionParams) error
}

// Cleaner is implemented by states that hold data cleared on machine reset
type Cleaner interface {
	Cleanup()
}

// Parent is the capability set a child sees of its parent
type Parent interface {
	State
	States() []State
	InitialState() State
	CurrentState() State
}

// Composite is the engine-only surface of a parent state
type Composite interface {
	Parent
	SetCurrentState(child State)
}

// Attachable is implemented by states that validate their parent when attached
type Attachable interface {
	SetParent(parent Parent) error
}

// ParentStateListener is notified when the parent's active child changes
type ParentStateListener interface {
	OnParentCurrentStateChanged(current State)
}

// RedirectPseudoState computes the real target of a transition routed through it
type RedirectPseudoState interface {
	State
	ResolveTargetState(ea EventAndArgument) (State, error)
}

// Listener observes entry and exit of a concrete state
type Listener interface {
	OnEntry(params TransitionParams)
	OnExit(params TransitionParams)
}

// ListenerFuncs adapts plain functions to Listener
type ListenerFuncs struct {
	Entry func(params TransitionParams)
	Exit  func(params TransitionParams)
}

// OnEntry calls Entry when set
func (l ListenerFuncs) OnEntry(params TransitionParams) {
	if l.Entry != nil {
		l.Entry(params)
	}
}

// OnExit calls Exit when set
func (l ListenerFuncs) OnExit(params TransitionParams) {
	if l.Exit != nil {
		l.Exit(params)
	}
}

// GuardCondition evaluates whether a transition should be taken
type GuardCondition func(ea EventAndArgument) bool

// Transition is an outgoing edge registered on a concrete state
type Transition struct {
	Event  string
	Target State
	Guard  GuardCondition
}

// NewTransition creates a new transition
func NewTransition(event string, target State) *Transition {
	return &Transition{
		Event:  event,
		Target: target,
	}
}

// WithGuard adds a guard condition to the transition
func (t *Transition) WithGuard(guard GuardCondition) *Transition {
	t.Guard = guard
	return t
}

// CanExecute checks if the transition can be executed
func (t *Transition) CanExecute(ea EventAndArgument) bool {
	if t.Guard == nil {
		return true
	}
	return t.Guard(ea)
}

// Observer observes lifecycle steps driven by a StateMachine
type Observer interface {
	OnStateEnter(sm *StateMachine, state State)
	OnStateExit(sm *StateMachine, state State)
	OnTargetResolved(sm *StateMachine, pseudo State, target State)
	OnError(sm *StateMachine, err error)
}
