package service

import "sync"

// jobLocks serializes ledger writes per job id within this process. The row
// store itself has no locking, so concurrent updates for different tickets of
// the same job would otherwise race at read-modify-write granularity. Across
// processes the race remains open; see DESIGN.md.
type jobLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newJobLocks() *jobLocks {
	return &jobLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *jobLocks) acquire(jobID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[jobID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[jobID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
