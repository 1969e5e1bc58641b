package states

import (
	"fmt"

	"github.com/anggasct/kfluo/pkg/core"
	"github.com/anggasct/kfluo/pkg/utils"
)

// HistoryType represents the type of history state (shallow or deep)
type HistoryType int

const (
	// ShallowHistory remembers only the direct substate that was active
	ShallowHistory HistoryType = iota
	// DeepHistory remembers the full active subtree. It is rejected at construction.
	DeepHistory
)

// String returns a string representation of the history type
func (h HistoryType) String() string {
	switch h {
	case ShallowHistory:
		return "SHALLOW"
	case DeepHistory:
		return "DEEP"
	default:
		return "UNKNOWN"
	}
}

// ParseHistoryType converts a configuration value into a HistoryType
func ParseHistoryType(value string) (HistoryType, error) {
	switch value {
	case "", "shallow", "SHALLOW":
		return ShallowHistory, nil
	case "deep", "DEEP":
		return DeepHistory, nil
	default:
		return ShallowHistory, utils.NewConfigurationError(fmt.Sprintf("unknown history type %q", value))
	}
}

// HistoryState is a pseudostate that resolves to the most recently active child
// of its parent, or to its default state if the parent was never active.
type HistoryState struct {
	*PseudoState
	historyType     HistoryType
	explicitDefault core.State
	defaultState    core.State
	storedState     core.State
}

// NewHistoryState creates a new history state. defaultState may be nil, in which
// case the parent's initial state is used. Deep history is not implemented and
// is rejected here.
func NewHistoryState(name string, defaultState core.State, historyType HistoryType) (*HistoryState, error) {
	switch historyType {
	case ShallowHistory:
	case DeepHistory:
		return nil, utils.NewConfigurationError("deep history is not implemented").
			WithState(name).
			WithDetail("history_type", historyType.String())
	default:
		return nil, utils.NewConfigurationError(fmt.Sprintf("unknown history type %d", historyType)).
			WithState(name)
	}

	return &HistoryState{
		PseudoState:     newPseudoState(name, core.KindHistory),
		historyType:     historyType,
		explicitDefault: defaultState,
	}, nil
}

// HistoryType returns the history type
func (s *HistoryState) HistoryType() HistoryType {
	return s.historyType
}

// SetParent attaches the history state and resolves its default state
func (s *HistoryState) SetParent(parent core.Parent) error {
	if err := s.PseudoState.SetParent(parent); err != nil {
		return err
	}
	if err := s.resolveDefault(); err != nil {
		s.parent = nil
		return err
	}
	return nil
}

func (s *HistoryState) resolveDefault() error {
	if s.parent == nil {
		return utils.NewConfigurationError("history state is not attached to a parent").WithState(s.name)
	}

	if s.explicitDefault != nil {
		if s.explicitDefault.Kind().IsPseudo() {
			return utils.NewConfigurationError(
				fmt.Sprintf("default state %q of %q is a pseudostate", s.explicitDefault.Name(), s.name)).
				WithState(s.name)
		}
		for _, sibling := range s.parent.States() {
			if sibling == s.explicitDefault {
				s.defaultState = s.explicitDefault
				return nil
			}
		}
		return utils.NewConfigurationError(
			fmt.Sprintf("default state %q is not a sibling of %q", s.explicitDefault.Name(), s.name)).
			WithState(s.name)
	}

	initial := s.parent.InitialState()
	if initial == nil {
		return utils.NewConfigurationError(
			fmt.Sprintf("parent %q has no initial state to use as default", s.parent.Name())).
			WithState(s.name)
	}
	s.defaultState = initial
	return nil
}

// DefaultState returns the state resolved when no child was recorded yet.
// After Cleanup it is derived again from the parent.
func (s *HistoryState) DefaultState() (core.State, error) {
	if s.defaultState == nil {
		if err := s.resolveDefault(); err != nil {
			return nil, err
		}
	}
	return s.defaultState, nil
}

// StoredState returns the last recorded active child, or nil
func (s *HistoryState) StoredState() core.State {
	return s.storedState
}

// OnParentCurrentStateChanged records concrete children becoming active
func (s *HistoryState) OnParentCurrentStateChanged(current core.State) {
	if current == nil || current.Kind().IsPseudo() {
		return
	}
	s.storedState = current
}

// ResolveTargetState returns the stored state, or the default one if the
// parent has not been active yet.
func (s *HistoryState) ResolveTargetState(ea core.EventAndArgument) (core.State, error) {
	if s.storedState != nil {
		return s.storedState, nil
	}
	return s.DefaultState()
}

// Cleanup forgets the stored state and the resolved default
func (s *HistoryState) Cleanup() {
	s.storedState = nil
	s.defaultState = nil
}
