package states

import (
	"fmt"

	"github.com/anggasct/kfluo/pkg/core"
	"github.com/anggasct/kfluo/pkg/utils"
)

// PseudoState is the shared base of resolution-only nodes. It takes part in the
// tree only as a transition target that the engine resolves before entering a
// concrete state.
type PseudoState struct {
	name   string
	kind   core.StateKind
	parent core.Parent
}

func newPseudoState(name string, kind core.StateKind) *PseudoState {
	return &PseudoState{
		name: name,
		kind: kind,
	}
}

// Name returns the state name
func (s *PseudoState) Name() string {
	return s.name
}

// Kind returns the state kind
func (s *PseudoState) Kind() core.StateKind {
	return s.kind
}

// String returns the state name
func (s *PseudoState) String() string {
	return s.name
}

// GetParent returns the parent state
func (s *PseudoState) GetParent() core.State {
	if s.parent == nil {
		return nil
	}
	return s.parent
}

// SetParent attaches the pseudostate to parent
func (s *PseudoState) SetParent(parent core.Parent) error {
	if s.parent != nil {
		return utils.NewConfigurationError(
			fmt.Sprintf("pseudostate already attached to %q", s.parent.Name())).WithState(s.name)
	}
	s.parent = parent
	return nil
}

// IsActive always returns false, a pseudostate never becomes active
func (s *PseudoState) IsActive() bool {
	return false
}

// AddListener always fails
func (s *PseudoState) AddListener(listener core.Listener) error {
	return errUnsupported(s.name, "listeners")
}

// AddState always fails
func (s *PseudoState) AddState(state core.State) error {
	return errUnsupported(s.name, "child states")
}

// AddTransition always fails
func (s *PseudoState) AddTransition(transition *core.Transition) error {
	return errUnsupported(s.name, "transitions")
}

// Enter panics. Reaching it means the machine graph treats a pseudostate as
// directly enterable, which can not be recovered from.
func (s *PseudoState) Enter(params core.TransitionParams) error {
	panic(utils.NewInternalConsistencyError(
		"pseudostate can not be entered or exited, the machine is misconfigured", s.name))
}

// Exit panics, see Enter
func (s *PseudoState) Exit(params core.TransitionParams) error {
	panic(utils.NewInternalConsistencyError(
		"pseudostate can not be entered or exited, the machine is misconfigured", s.name))
}

func errUnsupported(name, what string) error {
	return utils.NewConfigurationError(
		fmt.Sprintf("unsupported for pseudostates: can not have %s", what)).WithState(name)
}
