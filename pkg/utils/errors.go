// Package utils provides the error taxonomy shared by the state packages
package utils

import (
	"fmt"
	"strings"
)

// Error codes used by StateMachineError
const (
	CodeConfiguration       = "CONFIGURATION_ERROR"
	CodeEventTypeMismatch   = "EVENT_TYPE_MISMATCH"
	CodeStateAccess         = "STATE_ACCESS_ERROR"
	CodeInternalConsistency = "INTERNAL_CONSISTENCY"
)

// StateMachineError represents a state machine specific error
type StateMachineError struct {
	Code      string
	Message   string
	StateID   string
	EventType string
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface
func (e *StateMachineError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.StateID != "" {
		parts = append(parts, fmt.Sprintf("state: %s", e.StateID))
	}

	if e.EventType != "" {
		parts = append(parts, fmt.Sprintf("event: %s", e.EventType))
	}

	if len(e.Details) > 0 {
		var details []string
		for k, v := range e.Details {
			details = append(details, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("details: {%s}", strings.Join(details, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " - ")
}

// Unwrap returns the underlying cause
func (e *StateMachineError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a StateMachineError with the same code.
// This lets callers match against the sentinel values with errors.Is.
func (e *StateMachineError) Is(target error) bool {
	t, ok := target.(*StateMachineError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithState adds state information to the error
func (e *StateMachineError) WithState(stateID string) *StateMachineError {
	e.StateID = stateID
	return e
}

// WithEvent adds event information to the error
func (e *StateMachineError) WithEvent(eventType string) *StateMachineError {
	e.EventType = eventType
	return e
}

// WithCause adds cause information to the error
func (e *StateMachineError) WithCause(err error) *StateMachineError {
	e.Cause = err
	return e
}

// WithDetail adds a detail to the error
func (e *StateMachineError) WithDetail(key string, value interface{}) *StateMachineError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

var (
	// ErrConfiguration matches errors detected while the state tree is being set up
	ErrConfiguration = &StateMachineError{
		Code:    CodeConfiguration,
		Message: "invalid state machine configuration",
	}

	// ErrEventTypeMismatch matches explicit activations of a data state by an event without payload
	ErrEventTypeMismatch = &StateMachineError{
		Code:    CodeEventTypeMismatch,
		Message: "event does not contain data required by this state",
	}

	// ErrStateAccess matches reads of state data that is not available
	ErrStateAccess = &StateMachineError{
		Code:    CodeStateAccess,
		Message: "state data is not available",
	}

	// ErrInternalConsistency matches structural defects such as entering a pseudostate
	ErrInternalConsistency = &StateMachineError{
		Code:    CodeInternalConsistency,
		Message: "internal consistency failure",
	}
)

// NewConfigurationError creates an error for configuration issues
func NewConfigurationError(message string) *StateMachineError {
	return &StateMachineError{
		Code:    CodeConfiguration,
		Message: message,
	}
}

// NewEventTypeMismatchError creates an error for an event that carries no usable payload
func NewEventTypeMismatchError(stateID string, eventType string) *StateMachineError {
	return &StateMachineError{
		Code:      CodeEventTypeMismatch,
		Message:   "event does not contain data required by this state",
		StateID:   stateID,
		EventType: eventType,
	}
}

// NewStateAccessError creates an error for unavailable state data
func NewStateAccessError(message string, stateID string) *StateMachineError {
	return &StateMachineError{
		Code:    CodeStateAccess,
		Message: message,
		StateID: stateID,
	}
}

// NewInternalConsistencyError creates an error for a malformed machine graph
func NewInternalConsistencyError(message string, stateID string) *StateMachineError {
	return &StateMachineError{
		Code:    CodeInternalConsistency,
		Message: message,
		StateID: stateID,
	}
}

// ErrorCollector collects multiple errors during validation or processing
type ErrorCollector struct {
	errors []error
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collector
func (ec *ErrorCollector) Add(err error) {
	if err != nil {
		ec.errors = append(ec.errors, err)
	}
}

// HasErrors returns whether any errors were collected
func (ec *ErrorCollector) HasErrors() bool {
	return len(ec.errors) > 0
}

// GetErrors returns all collected errors
func (ec *ErrorCollector) GetErrors() []error {
	return ec.errors
}

// Err returns the collector as an error, or nil when nothing was collected
func (ec *ErrorCollector) Err() error {
	if len(ec.errors) == 0 {
		return nil
	}
	return ec
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (ec *ErrorCollector) Unwrap() []error {
	return ec.errors
}

// Error returns a string representation of all errors
func (ec *ErrorCollector) Error() string {
	if len(ec.errors) == 0 {
		return "no errors"
	}

	if len(ec.errors) == 1 {
		return ec.errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(ec.errors)))

	for i, err := range ec.errors {
		sb.WriteString(fmt.Sprintf("  %d: %v\n", i+1, err))
	}

	return sb.String()
}
