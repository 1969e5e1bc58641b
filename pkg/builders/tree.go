package builders

import (
	"fmt"

	"github.com/anggasct/kfluo/pkg/config"
	"github.com/anggasct/kfluo/pkg/core"
	"github.com/anggasct/kfluo/pkg/states"
	"github.com/anggasct/kfluo/pkg/utils"
)

// ResolverFunc computes the target of a choice state declared in YAML. The tree
// is passed so the function can look its targets up by name.
type ResolverFunc func(ea core.EventAndArgument, tree *Tree) core.State

// ResolverRegistry maps resolver names used in YAML to their functions
type ResolverRegistry map[string]ResolverFunc

// Tree is a built state tree with lookup by name
type Tree struct {
	Name   string
	Root   *states.BaseState
	states map[string]core.State
}

// State returns a state of the tree by name, or nil
func (t *Tree) State(name string) core.State {
	return t.states[name]
}

// StateNames returns the names of every state below the root
func (t *Tree) StateNames() []string {
	names := make([]string, 0, len(t.states))
	for name := range t.states {
		if name != t.Name {
			names = append(names, name)
		}
	}
	return names
}

// NewMachine creates a state machine driving this tree
func (t *Tree) NewMachine(opts ...core.Option) *core.StateMachine {
	return core.NewStateMachine(t.Name, t.Root, opts...)
}

// NewMachineFromOptions creates a state machine with options loaded by the config package
func (t *Tree) NewMachineFromOptions(opts config.Options, extra ...core.Option) *core.StateMachine {
	all := append([]core.Option{core.WithMaxResolveDepth(opts.MaxResolveDepth)}, extra...)
	return t.NewMachine(all...)
}

// container is implemented by every concrete state kind
type container interface {
	core.State
	AddState(child core.State) error
	SetInitialState(child core.State) error
	AddTransition(transition *core.Transition) error
}

// Build validates the description and creates the tree. Data states are built
// as DataState[any], so explicit activations need a core.DataEvent[any].
// Configuration errors from the states themselves surface unchanged.
func (c *TreeConfig) Build(registry ResolverRegistry) (*Tree, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	tree := &Tree{
		Name:   c.Name,
		Root:   states.NewState(c.Name),
		states: make(map[string]core.State),
	}
	tree.states[c.Name] = tree.Root

	if err := tree.buildChildren(tree.Root, c.Initial, c.States, registry); err != nil {
		return nil, err
	}

	var wire func(list []*StateConfig) error
	wire = func(list []*StateConfig) error {
		for _, s := range list {
			if err := tree.wireTransitions(s); err != nil {
				return err
			}
			if err := wire(s.States); err != nil {
				return err
			}
		}
		return nil
	}
	if err := wire(c.States); err != nil {
		return nil, err
	}

	return tree, nil
}

// buildChildren adds every concrete child first, so that history states attached
// afterwards can validate their default against complete siblings.
func (t *Tree) buildChildren(parent container, initial string, children []*StateConfig, registry ResolverRegistry) error {
	for _, cfg := range children {
		if cfg.kind() == KindHistory {
			continue
		}
		state, err := t.newState(cfg, registry)
		if err != nil {
			return err
		}
		if err := parent.AddState(state); err != nil {
			return err
		}
		t.states[cfg.Name] = state

		if c, ok := state.(container); ok {
			if err := t.buildChildren(c, cfg.Initial, cfg.States, registry); err != nil {
				return err
			}
		}
	}

	if initial != "" {
		if err := parent.SetInitialState(t.states[initial]); err != nil {
			return err
		}
	}

	for _, cfg := range children {
		if cfg.kind() != KindHistory {
			continue
		}
		historyType, err := states.ParseHistoryType(cfg.HistoryType)
		if err != nil {
			return err
		}
		var defaultState core.State
		if cfg.HistoryDefault != "" {
			defaultState = t.states[cfg.HistoryDefault]
			if defaultState == nil || defaultState.Kind().IsPseudo() {
				return utils.NewConfigurationError(
					fmt.Sprintf("default state %q of %q is not a concrete sibling", cfg.HistoryDefault, cfg.Name)).
					WithState(cfg.Name)
			}
		}
		history, err := states.NewHistoryState(cfg.Name, defaultState, historyType)
		if err != nil {
			return err
		}
		if err := parent.AddState(history); err != nil {
			return err
		}
		t.states[cfg.Name] = history
	}

	return nil
}

func (t *Tree) newState(cfg *StateConfig, registry ResolverRegistry) (core.State, error) {
	switch cfg.kind() {
	case KindState:
		return states.NewState(cfg.Name), nil
	case KindData:
		if cfg.Default != nil {
			return states.NewDataStateWithDefault[any](cfg.Name, cfg.Default), nil
		}
		return states.NewDataState[any](cfg.Name), nil
	case KindFinal:
		return states.NewFinalState(cfg.Name), nil
	case KindFinalData:
		if cfg.Default != nil {
			return states.NewFinalDataStateWithDefault[any](cfg.Name, cfg.Default), nil
		}
		return states.NewFinalDataState[any](cfg.Name), nil
	case KindChoice:
		resolver, ok := registry[cfg.Resolver]
		if !ok {
			return nil, utils.NewConfigurationError(
				fmt.Sprintf("resolver %q is not registered", cfg.Resolver)).WithState(cfg.Name)
		}
		return states.NewChoiceState(cfg.Name, func(ea core.EventAndArgument) core.State {
			return resolver(ea, t)
		}), nil
	default:
		return nil, utils.NewConfigurationError(
			fmt.Sprintf("unknown state kind %q", cfg.Kind)).WithState(cfg.Name)
	}
}

func (t *Tree) wireTransitions(cfg *StateConfig) error {
	if len(cfg.On) == 0 {
		return nil
	}
	source, ok := t.states[cfg.Name].(container)
	if !ok {
		return utils.NewConfigurationError("unsupported for pseudostates: can not have transitions").
			WithState(cfg.Name)
	}
	for event, target := range cfg.On {
		if err := source.AddTransition(core.NewTransition(event, t.states[target])); err != nil {
			return err
		}
	}
	return nil
}
