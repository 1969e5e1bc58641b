package states

import (
	"github.com/anggasct/kfluo/pkg/core"
	"github.com/anggasct/kfluo/pkg/utils"
)

// DataReader is the read-only view application code gets of a data state
type DataReader[D any] interface {
	core.State
	Data() (D, error)
	LastData() (D, error)
}

// DataState is a state carrying a payload of type D tied to its activation.
//
// An explicit activation takes the payload from the triggering event, which must
// implement core.DataCarrier[D]. An implicit activation, on the way to some other
// target, reuses the last payload, or the default one if no activation has
// happened yet.
type DataState[D any] struct {
	*BaseState
	defaultData *D
	data        *D
	lastData    *D
}

func newDataState[D any](name string, kind core.StateKind, defaultData *D) *DataState[D] {
	s := &DataState[D]{
		BaseState:   newBaseState(name, kind),
		defaultData: defaultData,
	}
	s.self = s
	s.enterHook = s.activate
	s.exitHook = s.deactivate
	s.cleanupHook = s.clear
	return s
}

// NewDataState creates a new data state without default data
func NewDataState[D any](name string) *DataState[D] {
	return newDataState[D](name, core.KindDataState, nil)
}

// NewDataStateWithDefault creates a new data state whose LastData falls back to defaultData
func NewDataStateWithDefault[D any](name string, defaultData D) *DataState[D] {
	return newDataState(name, core.KindDataState, &defaultData)
}

// Accepts reports whether the step can activate the state. An explicit
// activation needs an event carrying a payload of type D.
func (s *DataState[D]) Accepts(params core.TransitionParams) error {
	if !params.IsExplicitTarget(s.self) {
		return nil
	}
	if _, ok := params.Event.(core.DataCarrier[D]); !ok {
		return utils.NewEventTypeMismatchError(s.name, params.EventName())
	}
	return nil
}

func (s *DataState[D]) activate(params core.TransitionParams) error {
	if params.IsExplicitTarget(s.self) {
		if err := s.Accepts(params); err != nil {
			return err
		}
		data := params.Event.(core.DataCarrier[D]).Data()
		s.data = &data
		s.lastData = &data
		return nil
	}

	// Nothing to reuse yet. The state still activates; Data reports the
	// missing payload instead of failing the step.
	if last, ok := s.lastOrDefault(); ok {
		s.data = &last
	} else {
		s.data = nil
	}
	return nil
}

func (s *DataState[D]) deactivate(core.TransitionParams) {
	s.data = nil
}

func (s *DataState[D]) clear() {
	s.data = nil
	s.lastData = nil
}

func (s *DataState[D]) lastOrDefault() (D, bool) {
	switch {
	case s.lastData != nil:
		return *s.lastData, true
	case s.defaultData != nil:
		return *s.defaultData, true
	default:
		var zero D
		return zero, false
	}
}

// Data returns the payload of the current activation
func (s *DataState[D]) Data() (D, error) {
	if s.data == nil {
		var zero D
		return zero, utils.NewStateAccessError("data is not set, is the state active?", s.name)
	}
	return *s.data, nil
}

// LastData returns the payload of the most recent activation, falling back to the default data
func (s *DataState[D]) LastData() (D, error) {
	last, ok := s.lastOrDefault()
	if !ok {
		return last, utils.NewStateAccessError("last data is not available, and no default provided", s.name)
	}
	return last, nil
}

// DefaultData returns the configured default payload
func (s *DataState[D]) DefaultData() (D, bool) {
	if s.defaultData == nil {
		var zero D
		return zero, false
	}
	return *s.defaultData, true
}

// FinalDataState is a final state carrying a payload
type FinalDataState[D any] struct {
	*DataState[D]
}

// NewFinalDataState creates a new final data state
func NewFinalDataState[D any](name string) *FinalDataState[D] {
	s := &FinalDataState[D]{
		DataState: newDataState[D](name, core.KindFinalDataState, nil),
	}
	s.self = s
	return s
}

// NewFinalDataStateWithDefault creates a new final data state with default data
func NewFinalDataStateWithDefault[D any](name string, defaultData D) *FinalDataState[D] {
	s := &FinalDataState[D]{
		DataState: newDataState(name, core.KindFinalDataState, &defaultData),
	}
	s.self = s
	return s
}

// AddTransition always fails, no transition may leave a final state
func (s *FinalDataState[D]) AddTransition(transition *core.Transition) error {
	return errFinalTransition(s.name)
}
