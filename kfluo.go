// Package kfluo provides the special state kinds of a hierarchical state machine:
// data-carrying states, final states, and the choice and history pseudostates,
// together with a small engine that drives their lifecycle.
package kfluo

import (
	"github.com/anggasct/kfluo/pkg/builders"
	"github.com/anggasct/kfluo/pkg/config"
	"github.com/anggasct/kfluo/pkg/core"
	"github.com/anggasct/kfluo/pkg/observers"
	"github.com/anggasct/kfluo/pkg/states"
	"github.com/anggasct/kfluo/pkg/utils"
)

// Core types
type (
	// StateMachine drives the lifecycle of a state tree
	StateMachine = core.StateMachine

	// State is the read-only view of a node in the state tree
	State = core.State

	// Event represents a trigger delivered to the state tree
	Event = core.Event

	// EventAndArgument is the input of pseudostate resolution
	EventAndArgument = core.EventAndArgument

	// TransitionParams describes the step that activates or deactivates a state
	TransitionParams = core.TransitionParams

	// Transition is an outgoing edge registered on a concrete state
	Transition = core.Transition

	// Listener observes entry and exit of a concrete state
	Listener = core.Listener

	// Observer observes lifecycle steps driven by a StateMachine
	Observer = core.Observer

	// StateKind enumerates the closed set of state variants
	StateKind = core.StateKind
)

// Re-export state types
type (
	// BaseState is a concrete, enterable state
	BaseState = states.BaseState

	// FinalState completes its parent when entered
	FinalState = states.FinalState

	// ChoiceState is a pseudostate whose target is computed from the event
	ChoiceState = states.ChoiceState

	// ChoiceFunc computes the target of a choice state
	ChoiceFunc = states.ChoiceFunc

	// HistoryState resolves to the last active child of its parent
	HistoryState = states.HistoryState

	// HistoryType specifies the type of history (shallow or deep)
	HistoryType = states.HistoryType
)

// Re-export builder, config and observer types
type (
	// TreeConfig describes a whole state tree in YAML
	TreeConfig = builders.TreeConfig

	// Tree is a built state tree with lookup by name
	Tree = builders.Tree

	// ResolverRegistry maps resolver names used in YAML to their functions
	ResolverRegistry = builders.ResolverRegistry

	// Options tune resolution depth and logging
	Options = config.Options

	// LoggingObserver logs state machine events
	LoggingObserver = observers.LoggingObserver

	// MetricsObserver collects metrics about state machine execution
	MetricsObserver = observers.MetricsObserver

	// StateMachineError represents a state machine specific error
	StateMachineError = utils.StateMachineError
)

// Re-export constants
const (
	// ShallowHistory remembers only the direct substate that was active
	ShallowHistory = states.ShallowHistory

	// DeepHistory is rejected when a history state is constructed
	DeepHistory = states.DeepHistory

	// Implicit activation happens on the way to some other target
	Implicit = core.Implicit

	// Explicit activation targets the named state
	Explicit = core.Explicit
)

// Re-export constructors
var (
	// NewStateMachine creates a new state machine around the given root state
	NewStateMachine = core.NewStateMachine

	// NewEvent creates a new event without payload
	NewEvent = core.NewEvent

	// NewState creates a new plain state
	NewState = states.NewState

	// NewFinalState creates a new final state
	NewFinalState = states.NewFinalState

	// NewChoiceState creates a new choice state
	NewChoiceState = states.NewChoiceState

	// NewHistoryState creates a new history state
	NewHistoryState = states.NewHistoryState

	// ParseTree parses and validates a YAML tree description
	ParseTree = builders.ParseTree

	// LoadOptions reads Options from the environment
	LoadOptions = config.Load

	// NewLoggingObserver creates a logging observer with default settings
	NewLoggingObserver = observers.NewDefaultLoggingObserver

	// NewMetricsObserver creates a new metrics observer
	NewMetricsObserver = observers.NewMetricsObserver
)

// Re-export error sentinels
var (
	// ErrConfiguration matches errors detected while the tree is set up
	ErrConfiguration = utils.ErrConfiguration

	// ErrEventTypeMismatch matches explicit data state activations without payload
	ErrEventTypeMismatch = utils.ErrEventTypeMismatch

	// ErrStateAccess matches reads of unavailable state data
	ErrStateAccess = utils.ErrStateAccess

	// ErrInternalConsistency matches attempts to enter or exit a pseudostate
	ErrInternalConsistency = utils.ErrInternalConsistency
)

// NewDataState creates a new data state without default data
func NewDataState[D any](name string) *states.DataState[D] {
	return states.NewDataState[D](name)
}

// NewDataEvent creates a new event carrying data
func NewDataEvent[D any](name string, data D) *core.DataEvent[D] {
	return core.NewDataEvent(name, data)
}
