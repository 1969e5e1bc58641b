// Package builders creates state trees from declarative YAML descriptions.
package builders

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/anggasct/kfluo/pkg/states"
	"github.com/anggasct/kfluo/pkg/utils"
)

// Kind values accepted in StateConfig.Kind
const (
	KindState     = "state"
	KindData      = "data"
	KindFinal     = "final"
	KindFinalData = "final_data"
	KindChoice    = "choice"
	KindHistory   = "history"
)

// TreeConfig describes a whole state tree. The root is a plain state named Name.
type TreeConfig struct {
	Name    string         `yaml:"name"`
	Initial string         `yaml:"initial"`
	States  []*StateConfig `yaml:"states"`
}

// StateConfig describes one node of the tree
type StateConfig struct {
	Name    string            `yaml:"name"`
	Kind    string            `yaml:"kind,omitempty"`
	Initial string            `yaml:"initial,omitempty"`
	States  []*StateConfig    `yaml:"states,omitempty"`
	On      map[string]string `yaml:"on,omitempty"`

	// Data and final_data states
	Default interface{} `yaml:"default,omitempty"`

	// History states
	HistoryType    string `yaml:"history_type,omitempty"`
	HistoryDefault string `yaml:"history_default,omitempty"`

	// Choice states, looked up in the ResolverRegistry
	Resolver string `yaml:"resolver,omitempty"`
}

// ParseTree parses and validates a YAML tree description
func ParseTree(data []byte) (*TreeConfig, error) {
	var cfg TreeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, utils.NewConfigurationError("invalid tree description").WithCause(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadTreeFile reads a YAML tree description from path
func LoadTreeFile(path string) (*TreeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tree file %s: %w", path, err)
	}
	return ParseTree(data)
}

func (c *StateConfig) kind() string {
	if c.Kind == "" {
		return KindState
	}
	return c.Kind
}

func (c *StateConfig) isPseudo() bool {
	k := c.kind()
	return k == KindChoice || k == KindHistory
}

// Validate checks the description and reports every structural problem found:
// unique names, known kinds, initial states among the children, pseudostates
// without children or transitions, history defaults among the siblings, choice
// resolvers named and transition targets existing.
func (c *TreeConfig) Validate() error {
	collector := utils.NewErrorCollector()

	if c.Name == "" {
		collector.Add(utils.NewConfigurationError("tree name is required"))
	}

	names := make(map[string]bool)
	if c.Name != "" {
		names[c.Name] = true
	}
	var all []*StateConfig
	var walk func(list []*StateConfig)
	walk = func(list []*StateConfig) {
		for _, s := range list {
			if s == nil {
				collector.Add(utils.NewConfigurationError("empty state entry"))
				continue
			}
			if s.Name == "" {
				collector.Add(utils.NewConfigurationError("state name is required"))
			} else if names[s.Name] {
				collector.Add(utils.NewConfigurationError(fmt.Sprintf("duplicate state name %q", s.Name)))
			}
			names[s.Name] = true
			all = append(all, s)
			walk(s.States)
		}
	}
	walk(c.States)

	validateChildren(collector, c.Name, c.Initial, c.States)

	for _, s := range all {
		switch s.kind() {
		case KindState, KindData, KindFinal, KindFinalData:
			validateChildren(collector, s.Name, s.Initial, s.States)
			if (s.kind() == KindFinal || s.kind() == KindFinalData) && len(s.On) > 0 {
				collector.Add(utils.NewConfigurationError("final state can not have transitions").WithState(s.Name))
			}
		case KindChoice:
			if s.Resolver == "" {
				collector.Add(utils.NewConfigurationError("choice state requires a resolver").WithState(s.Name))
			}
		case KindHistory:
			if _, err := states.ParseHistoryType(s.HistoryType); err != nil {
				collector.Add(err)
			}
		default:
			collector.Add(utils.NewConfigurationError(fmt.Sprintf("unknown state kind %q", s.Kind)).WithState(s.Name))
		}

		if s.isPseudo() {
			if len(s.States) > 0 {
				collector.Add(utils.NewConfigurationError("unsupported for pseudostates: can not have child states").WithState(s.Name))
			}
			if len(s.On) > 0 {
				collector.Add(utils.NewConfigurationError("unsupported for pseudostates: can not have transitions").WithState(s.Name))
			}
		}

		for event, target := range s.On {
			if !names[target] {
				collector.Add(utils.NewConfigurationError(
					fmt.Sprintf("transition on %q targets unknown state %q", event, target)).WithState(s.Name))
			}
		}
	}

	return collector.Err()
}

func validateChildren(collector *utils.ErrorCollector, parent, initial string, children []*StateConfig) {
	siblings := make(map[string]*StateConfig, len(children))
	for _, child := range children {
		if child != nil {
			siblings[child.Name] = child
		}
	}

	if initial != "" {
		child, ok := siblings[initial]
		switch {
		case !ok:
			collector.Add(utils.NewConfigurationError(
				fmt.Sprintf("initial state %q is not a child", initial)).WithState(parent))
		case child.kind() == KindHistory:
			collector.Add(utils.NewConfigurationError(
				fmt.Sprintf("history state %q can not be an initial state", initial)).WithState(parent))
		}
	}

	for _, child := range children {
		if child == nil || child.kind() != KindHistory {
			continue
		}
		if child.HistoryDefault != "" {
			def, ok := siblings[child.HistoryDefault]
			switch {
			case !ok:
				collector.Add(utils.NewConfigurationError(
					fmt.Sprintf("default state %q is not a sibling of %q", child.HistoryDefault, child.Name)).
					WithState(child.Name))
			case def.isPseudo():
				collector.Add(utils.NewConfigurationError(
					fmt.Sprintf("default state %q of %q is a pseudostate", child.HistoryDefault, child.Name)).
					WithState(child.Name))
			}
		} else if initial == "" {
			collector.Add(utils.NewConfigurationError(
				fmt.Sprintf("parent %q has no initial state to use as default", parent)).WithState(child.Name))
		}
	}
}
