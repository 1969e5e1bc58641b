package observers

import (
	"errors"
	"sync"
	"time"

	"github.com/anggasct/kfluo/pkg/core"
	"github.com/anggasct/kfluo/pkg/utils"
)

// MetricsObserver collects metrics about state machine execution
type MetricsObserver struct {
	stateVisits      map[string]int
	stateTimeSpent   map[string]time.Duration
	resolutionCounts map[string]int
	errorCounts      map[string]int
	lastStateEntry   map[string]time.Time
	mutex            sync.RWMutex
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		stateVisits:      make(map[string]int),
		stateTimeSpent:   make(map[string]time.Duration),
		resolutionCounts: make(map[string]int),
		errorCounts:      make(map[string]int),
		lastStateEntry:   make(map[string]time.Time),
	}
}

// OnStateEnter records state entry metrics
func (o *MetricsObserver) OnStateEnter(sm *core.StateMachine, state core.State) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	stateName := state.Name()
	o.stateVisits[stateName]++
	o.lastStateEntry[stateName] = time.Now()
}

// OnStateExit records state exit metrics
func (o *MetricsObserver) OnStateExit(sm *core.StateMachine, state core.State) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	stateName := state.Name()
	if entryTime, ok := o.lastStateEntry[stateName]; ok {
		o.stateTimeSpent[stateName] += time.Since(entryTime)
		delete(o.lastStateEntry, stateName)
	}
}

// OnTargetResolved records one resolution hop keyed as "pseudo->target"
func (o *MetricsObserver) OnTargetResolved(sm *core.StateMachine, pseudo core.State, target core.State) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.resolutionCounts[pseudo.Name()+"->"+target.Name()]++
}

// OnError records errors by code
func (o *MetricsObserver) OnError(sm *core.StateMachine, err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	code := "UNKNOWN"
	var smErr *utils.StateMachineError
	if errors.As(err, &smErr) {
		code = smErr.Code
	}
	o.errorCounts[code]++
}

// GetStateVisitCounts returns the number of times each state was entered
func (o *MetricsObserver) GetStateVisitCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return copyCounts(o.stateVisits)
}

// GetStateTimeSpent returns the time spent in each state
func (o *MetricsObserver) GetStateTimeSpent() map[string]time.Duration {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[string]time.Duration)
	for state, duration := range o.stateTimeSpent {
		result[state] = duration
	}
	return result
}

// GetResolutionCounts returns the number of times each resolution hop occurred
func (o *MetricsObserver) GetResolutionCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return copyCounts(o.resolutionCounts)
}

// GetErrorCounts returns the number of errors per error code
func (o *MetricsObserver) GetErrorCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return copyCounts(o.errorCounts)
}

// Reset resets all metrics
func (o *MetricsObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.stateVisits = make(map[string]int)
	o.stateTimeSpent = make(map[string]time.Duration)
	o.resolutionCounts = make(map[string]int)
	o.errorCounts = make(map[string]int)
	o.lastStateEntry = make(map[string]time.Time)
}

func copyCounts(counts map[string]int) map[string]int {
	result := make(map[string]int, len(counts))
	for k, v := range counts {
		result[k] = v
	}
	return result
}
