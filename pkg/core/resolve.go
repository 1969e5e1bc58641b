package core

import (
	"fmt"

	"github.com/anggasct/kfluo/pkg/utils"
)

// DefaultMaxResolveDepth bounds a resolution chain when no other limit is configured
const DefaultMaxResolveDepth = 32

// ResolveFunc is called for every hop of a resolution chain
type ResolveFunc func(pseudo State, target State)

// ResolveTarget follows redirect pseudostates starting at target until a concrete
// state is reached. Every hop uses the same event and argument. A pseudostate seen
// twice in one chain, a chain longer than maxDepth, or a hop resolving to nothing
// is reported as a configuration error.
func ResolveTarget(target State, ea EventAndArgument, maxDepth int, onResolved ResolveFunc) (State, error) {
	if target == nil {
		return nil, utils.NewConfigurationError("transition has no target state").
			WithEvent(ea.EventName())
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxResolveDepth
	}

	visited := make(map[State]bool)
	current := target

	for current.Kind().IsPseudo() {
		if visited[current] {
			return nil, utils.NewConfigurationError(
				fmt.Sprintf("pseudostate %q revisited while resolving target, resolution cycle", current.Name())).
				WithState(current.Name()).
				WithEvent(ea.EventName())
		}
		if len(visited) >= maxDepth {
			return nil, utils.NewConfigurationError(
				fmt.Sprintf("resolution chain exceeds %d pseudostates", maxDepth)).
				WithState(current.Name()).
				WithEvent(ea.EventName())
		}
		visited[current] = true

		redirect, ok := current.(RedirectPseudoState)
		if !ok {
			return nil, utils.NewInternalConsistencyError(
				"pseudostate can not resolve a target", current.Name())
		}

		next, err := redirect.ResolveTargetState(ea)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, utils.NewConfigurationError("pseudostate resolved to no state").
				WithState(current.Name()).
				WithEvent(ea.EventName())
		}

		if onResolved != nil {
			onResolved(current, next)
		}
		current = next
	}

	return current, nil
}
