package pipeline

import "sync"

// stateArena holds per-job state guarded by per-job locks, so concurrent
// completion events for unrelated jobs never serialize on each other. Locks
// and states are never removed; completed jobs stay queryable.
type stateArena struct {
	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	states map[string]*JobState
}

func newStateArena() *stateArena {
	return &stateArena{
		locks:  make(map[string]*sync.Mutex),
		states: make(map[string]*JobState),
	}
}

func (a *stateArena) lockFor(jobID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.locks[jobID]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[jobID] = lock
	}
	return lock
}

// get returns the cached state for jobID, or nil. Callers must hold the
// job's lock from lockFor.
func (a *stateArena) get(jobID string) *JobState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.states[jobID]
}

func (a *stateArena) put(jobID string, state *JobState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.states[jobID] = state
}
