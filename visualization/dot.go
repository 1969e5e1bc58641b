// Package visualization renders state trees in Graphviz DOT format.
package visualization

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/anggasct/kfluo/pkg/core"
)

// DOTGenerator generates Graphviz DOT format representations of state trees
type DOTGenerator struct {
	root    core.Parent
	options DOTOptions
}

// DOTOptions configures the DOT generation
type DOTOptions struct {
	ShowPseudostates    bool
	ShowHistoryDefaults bool
	RankDirection       string // "TB", "LR", "BT", "RL"
	NodeShape           string
	CompositeStateStyle string
	HistoryDefaultStyle string
}

// DefaultDOTOptions returns sensible default options for DOT generation
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		ShowPseudostates:    true,
		ShowHistoryDefaults: true,
		RankDirection:       "TB",
		NodeShape:           "box",
		CompositeStateStyle: "rounded,filled",
		HistoryDefaultStyle: "dashed",
	}
}

// NewDOTGenerator creates a new DOT generator for the tree below root
func NewDOTGenerator(root core.Parent, options ...DOTOptions) *DOTGenerator {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	return &DOTGenerator{
		root:    root,
		options: opts,
	}
}

type transitionSource interface {
	Transitions() []*core.Transition
}

type historyNode interface {
	DefaultState() (core.State, error)
}

// Generate creates a DOT representation of the tree
func (g *DOTGenerator) Generate() (string, error) {
	if g.root == nil {
		return "", fmt.Errorf("no root state to render")
	}

	var dot strings.Builder

	dot.WriteString(fmt.Sprintf("digraph %q {\n", g.root.Name()))
	dot.WriteString(fmt.Sprintf("  rankdir=%s;\n", g.options.RankDirection))
	dot.WriteString(fmt.Sprintf("  node [shape=%s];\n", g.options.NodeShape))
	dot.WriteString("  edge [fontsize=10];\n\n")

	var edges strings.Builder
	if err := g.generateChildren(&dot, &edges, g.root, "  "); err != nil {
		return "", fmt.Errorf("failed to generate states: %w", err)
	}

	dot.WriteString("\n  // Transitions\n")
	dot.WriteString(edges.String())
	dot.WriteString("}\n")

	return dot.String(), nil
}

func (g *DOTGenerator) generateChildren(dot, edges *strings.Builder, parent core.Parent, indent string) error {
	initial := parent.InitialState()

	for _, child := range parent.States() {
		if child.Kind().IsPseudo() && !g.options.ShowPseudostates {
			continue
		}

		if p, ok := child.(core.Parent); ok && len(p.States()) > 0 {
			dot.WriteString(fmt.Sprintf("%ssubgraph \"cluster_%s\" {\n", indent, child.Name()))
			dot.WriteString(fmt.Sprintf("%s  label=\"%s\";\n", indent, child.Name()))
			dot.WriteString(fmt.Sprintf("%s  style=\"%s\";\n", indent, g.options.CompositeStateStyle))
			dot.WriteString(fmt.Sprintf("%s  fillcolor=lightcyan;\n", indent))
			g.generateStateNode(dot, child, child == initial, indent+"  ")
			if err := g.generateChildren(dot, edges, p, indent+"  "); err != nil {
				return err
			}
			dot.WriteString(fmt.Sprintf("%s}\n", indent))
		} else {
			g.generateStateNode(dot, child, child == initial, indent)
		}

		if err := g.generateEdges(edges, child); err != nil {
			return err
		}
	}
	return nil
}

// generateStateNode generates a DOT node for a single state
func (g *DOTGenerator) generateStateNode(dot *strings.Builder, state core.State, isInitial bool, indent string) {
	shape := g.options.NodeShape
	fillColor := "lightblue"
	label := state.Name()

	switch state.Kind() {
	case core.KindState:
	case core.KindDataState:
		label += "\\n<data>"
	case core.KindFinalState:
		shape = "doublecircle"
		fillColor = "lightcoral"
	case core.KindFinalDataState:
		shape = "doublecircle"
		fillColor = "lightcoral"
		label += "\\n<data>"
	case core.KindChoice:
		shape = "diamond"
		fillColor = "lightyellow"
		label = fmt.Sprintf("%s\\n[Choice]", state.Name())
	case core.KindHistory:
		shape = "circle"
		fillColor = "lightyellow"
		label = fmt.Sprintf("H\\n%s", state.Name())
	}

	if isInitial {
		fillColor = "lightgreen"
		label += "\\n(initial)"
	}

	dot.WriteString(fmt.Sprintf("%s\"%s\" [shape=%s style=\"filled\" fillcolor=%s label=\"%s\"];\n",
		indent, state.Name(), shape, fillColor, label))
}

func (g *DOTGenerator) generateEdges(edges *strings.Builder, state core.State) error {
	if source, ok := state.(transitionSource); ok {
		for _, t := range source.Transitions() {
			edges.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"%s\"];\n", state.Name(), t.Target.Name(), t.Event))
		}
	}

	if history, ok := state.(historyNode); ok && g.options.ShowHistoryDefaults && g.options.ShowPseudostates {
		def, err := history.DefaultState()
		if err != nil {
			return err
		}
		edges.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [style=%s label=\"default\"];\n",
			state.Name(), def.Name(), g.options.HistoryDefaultStyle))
	}
	return nil
}

// GenerateToFile writes the DOT representation to a file
func (g *DOTGenerator) GenerateToFile(filename string) error {
	content, err := g.Generate()
	if err != nil {
		return err
	}

	return os.WriteFile(filename, []byte(content), 0644)
}

// GenerateSVG converts the DOT representation to SVG by calling Graphviz
func (g *DOTGenerator) GenerateSVG() (string, error) {
	dotContent, err := g.Generate()
	if err != nil {
		return "", err
	}

	cmd := exec.Command("dot", "-Tsvg")
	cmd.Stdin = strings.NewReader(dotContent)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to execute dot command: %w (make sure Graphviz is installed)", err)
	}

	return out.String(), nil
}
