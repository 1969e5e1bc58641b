package states

import (
	"github.com/anggasct/kfluo/pkg/core"
	"github.com/anggasct/kfluo/pkg/utils"
)

// ChoiceFunc computes the target of a choice state. It must be a pure function
// of its input; the engine may call it more than once for the same step.
type ChoiceFunc func(ea core.EventAndArgument) core.State

// ChoiceState is a pseudostate whose target is computed from the triggering
// event and argument.
type ChoiceState struct {
	*PseudoState
	choice ChoiceFunc
}

// NewChoiceState creates a new choice state
func NewChoiceState(name string, choice ChoiceFunc) *ChoiceState {
	return &ChoiceState{
		PseudoState: newPseudoState(name, core.KindChoice),
		choice:      choice,
	}
}

// ResolveTargetState evaluates the choice function
func (s *ChoiceState) ResolveTargetState(ea core.EventAndArgument) (core.State, error) {
	if s.choice == nil {
		return nil, utils.NewConfigurationError("choice state has no choice function").WithState(s.name)
	}
	return s.choice(ea), nil
}

// ChoiceOption is one guarded branch of a choice
type ChoiceOption struct {
	Guard  core.GuardCondition
	Target core.State
}

// When creates a guarded branch
func When(guard core.GuardCondition, target core.State) ChoiceOption {
	return ChoiceOption{Guard: guard, Target: target}
}

// Otherwise creates a branch that is always taken
func Otherwise(target core.State) ChoiceOption {
	return ChoiceOption{Target: target}
}

// Branches builds a ChoiceFunc that returns the target of the first branch whose
// guard passes. It returns nil when no branch applies.
func Branches(options ...ChoiceOption) ChoiceFunc {
	branches := make([]ChoiceOption, len(options))
	copy(branches, options)

	return func(ea core.EventAndArgument) core.State {
		for _, option := range branches {
			if option.Guard == nil || option.Guard(ea) {
				return option.Target
			}
		}
		return nil
	}
}
