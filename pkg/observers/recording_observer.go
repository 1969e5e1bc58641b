package observers

import (
	"sync"

	"github.com/anggasct/kfluo/pkg/core"
)

// RecordingObserver captures every callback in order, mostly for tests
type RecordingObserver struct {
	mutex       sync.RWMutex
	Entered     []string
	Exited      []string
	Resolutions [][2]string
	Errors      []error
}

// NewRecordingObserver creates an empty recording observer
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{}
}

// OnStateEnter records the entered state name
func (o *RecordingObserver) OnStateEnter(sm *core.StateMachine, state core.State) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Entered = append(o.Entered, state.Name())
}

// OnStateExit records the exited state name
func (o *RecordingObserver) OnStateExit(sm *core.StateMachine, state core.State) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Exited = append(o.Exited, state.Name())
}

// OnTargetResolved records the pseudostate and its resolved target
func (o *RecordingObserver) OnTargetResolved(sm *core.StateMachine, pseudo core.State, target core.State) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Resolutions = append(o.Resolutions, [2]string{pseudo.Name(), target.Name()})
}

// OnError records the error
func (o *RecordingObserver) OnError(sm *core.StateMachine, err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Errors = append(o.Errors, err)
}

// Clear drops everything recorded so far
func (o *RecordingObserver) Clear() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Entered = nil
	o.Exited = nil
	o.Resolutions = nil
	o.Errors = nil
}
